package segment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the served indexes of one data directory.
type Registry struct {
	mu      sync.RWMutex
	dir     string
	indexes map[string]*Index
}

// OpenDir opens every index directory under dataDir, creating dataDir if it
// does not exist.
func OpenDir(dataDir string, opts Options) (*Registry, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil { //nolint:gosec // data dir is shared with tooling
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	reg := &Registry{dir: dataDir, indexes: make(map[string]*Index)}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		idx, err := Open(name, filepath.Join(dataDir, e.Name()), opts)
		if err != nil {
			_ = reg.Close()
			return nil, err
		}
		reg.indexes[name] = idx
		opts.logger().Info("index opened", zap.String("index", name), zap.Ints("chunks", idx.Chunks()))
	}
	return reg, nil
}

// Dir returns the data directory.
func (r *Registry) Dir() string { return r.dir }

// Get looks an index up by case-insensitive name.
func (r *Registry) Get(name string) (*Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.indexes[strings.ToLower(name)]
	return idx, ok
}

// Lookup is Get returning ErrNotFound for unknown names.
func (r *Registry) Lookup(name string) (*Index, error) {
	if idx, ok := r.Get(name); ok {
		return idx, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Names lists served indexes in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.indexes))
	for n := range r.indexes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close closes every index.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for name, idx := range r.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	r.indexes = map[string]*Index{}
	return errors.Join(errs...)
}
