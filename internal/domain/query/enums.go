package query

import (
	"fmt"
	"strings"
)

// enumText renders an enum value through its name table.
func enumText(names []string, v int, kind string) string {
	if v >= 0 && v < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", kind, v)
}

// MatchMode is the legacy full-text matching mode. SQL statements always
// use MatchExtended2.
type MatchMode int

const (
	MatchAll MatchMode = iota
	MatchAny
	MatchPhrase
	MatchBoolean
	MatchExtended
	MatchFullScan
	MatchExtended2
)

var matchModeNames = []string{"all", "any", "phrase", "boolean", "extended", "fullscan", "extended2"}

func (m MatchMode) String() string { return enumText(matchModeNames, int(m), "match") }

// MarshalText implements encoding.TextMarshaler.
func (m MatchMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// SortMode selects the result set ordering strategy.
type SortMode int

const (
	SortRelevance SortMode = iota
	SortAttrDesc
	SortAttrAsc
	SortTimeSegments
	SortExtended
	SortExpr
)

var sortModeNames = []string{"relevance", "attr_desc", "attr_asc", "time_segments", "extended", "expr"}

func (m SortMode) String() string { return enumText(sortModeNames, int(m), "sort") }

// MarshalText implements encoding.TextMarshaler.
func (m SortMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Ranker is the relevance ranking function.
type Ranker int

const (
	RankProximityBM25 Ranker = iota
	RankBM25
	RankNone
	RankWordCount
	RankProximity
	RankMatchAny
	RankFieldMask
	RankSPH04
	RankExpr
	RankExport
	RankPlugin
)

var rankerNames = []string{
	"proximity_bm25", "bm25", "none", "wordcount", "proximity",
	"matchany", "fieldmask", "sph04", "expr", "export", "plugin",
}

func (r Ranker) String() string { return enumText(rankerNames, int(r), "ranker") }

// MarshalText implements encoding.TextMarshaler.
func (r Ranker) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// LookupBuiltinRanker resolves a ranker that takes no expression argument.
// Names are expected lowercased.
func LookupBuiltinRanker(name string) (Ranker, bool) {
	for r := RankProximityBM25; r <= RankSPH04; r++ {
		if rankerNames[r] == name {
			return r, true
		}
	}
	return 0, false
}

// GroupFunc is the grouping function applied to GroupBy.
type GroupFunc int

const (
	GroupNone GroupFunc = iota
	GroupAttr
	GroupMultiple
)

var groupFuncNames = []string{"none", "attr", "multiple"}

func (g GroupFunc) String() string { return enumText(groupFuncNames, int(g), "groupby") }

// MarshalText implements encoding.TextMarshaler.
func (g GroupFunc) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// AggrFunc is the aggregate applied to a select item.
type AggrFunc int

const (
	AggrNone AggrFunc = iota
	AggrAvg
	AggrMin
	AggrMax
	AggrSum
	AggrCat
)

var aggrNames = []string{"none", "avg", "min", "max", "sum", "group_concat"}

func (a AggrFunc) String() string { return enumText(aggrNames, int(a), "aggr") }

// MarshalText implements encoding.TextMarshaler.
func (a AggrFunc) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// LookupAggr resolves an aggregate function name, case-insensitively.
func LookupAggr(name string) (AggrFunc, bool) {
	for a := AggrAvg; a <= AggrCat; a++ {
		if strings.EqualFold(aggrNames[a], name) {
			return a, true
		}
	}
	return AggrNone, false
}

// ExpandKeywords controls keyword expansion.
type ExpandKeywords int

const (
	ExpandDefault ExpandKeywords = iota
	ExpandDisabled
	ExpandEnabled
	ExpandMorphNone
)

var expandNames = []string{"default", "disabled", "enabled", "morph_none"}

func (e ExpandKeywords) String() string { return enumText(expandNames, int(e), "expand") }

// MarshalText implements encoding.TextMarshaler.
func (e ExpandKeywords) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// Collation is the string comparison rule for string attributes.
type Collation int

const (
	CollationLibcCI Collation = iota
	CollationLibcCS
	CollationUTF8GeneralCI
	CollationBinary
)

var collationNames = []string{"libc_ci", "libc_cs", "utf8_general_ci", "binary"}

func (c Collation) String() string { return enumText(collationNames, int(c), "collation") }

// MarshalText implements encoding.TextMarshaler.
func (c Collation) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ParseCollation parses a collation name.
func ParseCollation(s string) (Collation, error) {
	for i, name := range collationNames {
		if strings.EqualFold(name, s) {
			return Collation(i), nil
		}
	}
	return 0, fmt.Errorf("unknown collation %q (known values are %s)", s, strings.Join(collationNames, ", "))
}

// FilterType is the kind of predicate a Filter holds.
type FilterType int

const (
	FilterValues FilterType = iota
	FilterRange
	FilterFloatRange
	FilterString
	FilterStringList
	FilterNull
	FilterUserVar
	FilterExpression
)

var filterTypeNames = []string{"values", "range", "float_range", "string", "string_list", "null", "uservar", "expression"}

func (t FilterType) String() string { return enumText(filterTypeNames, int(t), "filter") }

// MarshalText implements encoding.TextMarshaler.
func (t FilterType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// MvaFunc selects how a multi-value attribute satisfies a filter.
type MvaFunc int

const (
	MvaNone MvaFunc = iota
	MvaAny
	MvaAll
)

var mvaNames = []string{"none", "any", "all"}

func (m MvaFunc) String() string { return enumText(mvaNames, int(m), "mva") }

// MarshalText implements encoding.TextMarshaler.
func (m MvaFunc) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// HintKind is the index hint flavour.
type HintKind int

const (
	HintUse HintKind = iota
	HintForce
	HintIgnore
)

var hintNames = []string{"use", "force", "ignore"}

func (h HintKind) String() string { return enumText(hintNames, int(h), "hint") }

// MarshalText implements encoding.TextMarshaler.
func (h HintKind) MarshalText() ([]byte, error) { return []byte(h.String()), nil }
