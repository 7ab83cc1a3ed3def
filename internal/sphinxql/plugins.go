package sphinxql

import (
	"errors"
	"strings"
)

// PluginKind is the plugin category a name is looked up in.
type PluginKind int

const (
	PluginRanker PluginKind = iota
	PluginTokenFilter
)

// PluginRegistry answers whether a plugin is loaded. Lookups are made with
// lowercased names.
type PluginRegistry interface {
	Exists(kind PluginKind, name string) bool
}

// StaticPlugins is a fixed set of plugin names, typically from config.
type StaticPlugins struct {
	names map[PluginKind]map[string]struct{}
}

// NewStaticPlugins returns an empty registry.
func NewStaticPlugins() *StaticPlugins {
	return &StaticPlugins{names: make(map[PluginKind]map[string]struct{})}
}

// Add registers names under kind and returns the registry for chaining.
func (p *StaticPlugins) Add(kind PluginKind, names ...string) *StaticPlugins {
	set := p.names[kind]
	if set == nil {
		set = make(map[string]struct{}, len(names))
		p.names[kind] = set
	}
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return p
}

// Exists implements PluginRegistry.
func (p *StaticPlugins) Exists(kind PluginKind, name string) bool {
	if p == nil {
		return false
	}
	_, ok := p.names[kind][strings.ToLower(name)]
	return ok
}

var (
	errPluginNoName = errors.New(`filter name required in spec string; example: "plugins.so:myfilter"`)
	errPluginParts  = errors.New(`too many parts in spec string; must be in "plugins.so:myfilter:options" format`)
)

// parsePluginSpec splits "library:name[:options]". An empty spec yields no
// parts; otherwise the result always has three entries.
func parsePluginSpec(spec string) ([]string, error) {
	if spec == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ":")
	switch len(parts) {
	case 1:
		return nil, errPluginNoName
	case 2:
		return append(parts, ""), nil
	case 3:
		return parts, nil
	}
	return nil, errPluginParts
}
