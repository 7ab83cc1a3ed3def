// Package query holds the structured search request produced by the SQL
// parser and consumed by statement execution.
package query

import "math"

// Debug flags.
const (
	DebugNoPayload uint32 = 1 << 0
)

// Defaults applied by New.
const (
	DefaultLimit       = 20
	DefaultMaxMatches  = 1000
	DefaultSortBy      = "@weight desc"
	DefaultGroupSortBy = "@groupby desc"
)

// Item is one entry of the select list.
type Item struct {
	Expr  string   `json:"expr"`
	Alias string   `json:"alias"`
	Aggr  AggrFunc `json:"aggr"`
}

// NamedInt is a name=value pair of field_weights and index_weights.
type NamedInt struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// IndexHint asks the planner to use, force or ignore a secondary index.
type IndexHint struct {
	Index string   `json:"index"`
	Kind  HintKind `json:"kind"`
}

// Filter is one predicate over an attribute.
type Filter struct {
	Attr        string     `json:"attr"`
	Type        FilterType `json:"type"`
	Values      []int64    `json:"values,omitempty"`
	Min         int64      `json:"min,omitempty"`
	Max         int64      `json:"max,omitempty"`
	FMin        float32    `json:"fmin,omitempty"`
	FMax        float32    `json:"fmax,omitempty"`
	Strings     []string   `json:"strings,omitempty"`
	Exclude     bool       `json:"exclude,omitempty"`
	HasEqualMin bool       `json:"has_equal_min"`
	HasEqualMax bool       `json:"has_equal_max"`
	OpenLeft    bool       `json:"open_left,omitempty"`
	OpenRight   bool       `json:"open_right,omitempty"`
	IsNull      bool       `json:"is_null,omitempty"`
	MvaFunc     MvaFunc    `json:"mva_func,omitempty"`
}

// NewFilter returns a filter of the given type with inclusive bounds.
func NewFilter(attr string, t FilterType) Filter {
	return Filter{Attr: attr, Type: t, HasEqualMin: true, HasEqualMax: true}
}

// FilterTreeItem is a node of the boolean filter tree. Leaves point at a
// Filter by index; internal nodes combine two children.
type FilterTreeItem struct {
	Left       int  `json:"left"`
	Right      int  `json:"right"`
	Or         bool `json:"or,omitempty"`
	FilterItem int  `json:"filter_item"`
}

// Leaf returns a tree node referencing filter i.
func Leaf(i int) FilterTreeItem {
	return FilterTreeItem{Left: -1, Right: -1, FilterItem: i}
}

// IsLeaf reports whether the node references a filter.
func (t FilterTreeItem) IsLeaf() bool { return t.FilterItem >= 0 }

// Query is the per-statement search specification.
type Query struct {
	Mode         MatchMode `json:"mode"`
	Ranker       Ranker    `json:"ranker"`
	RankerExpr   string    `json:"ranker_expr,omitempty"`
	UDRanker     string    `json:"ud_ranker,omitempty"`
	UDRankerOpts string    `json:"ud_ranker_opts,omitempty"`

	SortMode      SortMode  `json:"sort_mode"`
	SortBy        string    `json:"sort_by"`
	OrderBy       string    `json:"order_by"`
	GroupBy       string    `json:"group_by,omitempty"`
	GroupFunc     GroupFunc `json:"group_func"`
	GroupSortBy   string    `json:"group_sort_by"`
	GroupDistinct string    `json:"group_distinct,omitempty"`
	GroupByLimit  int       `json:"group_by_limit,omitempty"`

	Items       []Item `json:"items,omitempty"`
	RefItems    []Item `json:"ref_items,omitempty"`
	Select      string `json:"select,omitempty"`
	SelectStart int    `json:"-"`
	SelectEnd   int    `json:"-"`

	Filters    []Filter         `json:"filters,omitempty"`
	FilterTree []FilterTreeItem `json:"filter_tree,omitempty"`
	Having     *Filter          `json:"having,omitempty"`
	IndexHints []IndexHint      `json:"index_hints,omitempty"`

	Indexes  string `json:"indexes,omitempty"`
	Query    string `json:"query,omitempty"`
	RawQuery string `json:"raw_query,omitempty"`

	Offset            int    `json:"offset"`
	Limit             int    `json:"limit"`
	MaxMatches        int    `json:"max_matches"`
	Cutoff            int    `json:"cutoff,omitempty"`
	MaxQueryMsec      int    `json:"max_query_msec,omitempty"`
	RetryCount        int    `json:"retry_count"`
	RetryDelay        int    `json:"retry_delay"`
	AgentQueryTimeout int    `json:"agent_query_timeout"`
	MaxPredictedMsec  int    `json:"max_predicted_msec,omitempty"`
	RandSeed          int64  `json:"rand_seed"`
	Comment           string `json:"comment,omitempty"`

	ReverseScan              bool           `json:"reverse_scan,omitempty"`
	IgnoreNonexistent        bool           `json:"ignore_nonexistent,omitempty"`
	IgnoreNonexistentIndexes bool           `json:"ignore_nonexistent_indexes,omitempty"`
	Strict                   bool           `json:"strict,omitempty"`
	SortKbuffer              bool           `json:"sort_kbuffer,omitempty"`
	Simplify                 bool           `json:"simplify,omitempty"`
	PlainIDF                 bool           `json:"plain_idf,omitempty"`
	NormalizedTFIDF          bool           `json:"normalized_tfidf"`
	GlobalIDF                bool           `json:"global_idf,omitempty"`
	LocalDF                  bool           `json:"local_df,omitempty"`
	Sync                     bool           `json:"sync,omitempty"`
	LowPriority              bool           `json:"low_priority,omitempty"`
	ExpandKeywords           ExpandKeywords `json:"expand_keywords"`
	DebugFlags               uint32         `json:"debug_flags,omitempty"`

	FieldWeights []NamedInt `json:"field_weights,omitempty"`
	IndexWeights []NamedInt `json:"index_weights,omitempty"`

	TokenFilterLib  string `json:"token_filter_lib,omitempty"`
	TokenFilterName string `json:"token_filter_name,omitempty"`
	TokenFilterOpts string `json:"token_filter_opts,omitempty"`

	Collation Collation `json:"collation"`

	Facet     bool   `json:"facet,omitempty"`
	FacetHead bool   `json:"facet_head,omitempty"`
	FacetBy   string `json:"facet_by,omitempty"`
}

// New returns a query with the defaults SQL statements start from.
func New(agentQueryTimeout int) Query {
	return Query{
		Mode:              MatchExtended2,
		Ranker:            RankProximityBM25,
		SortMode:          SortExtended,
		SortBy:            DefaultSortBy,
		OrderBy:           DefaultSortBy,
		GroupSortBy:       DefaultGroupSortBy,
		SelectStart:       -1,
		SelectEnd:         -1,
		Limit:             DefaultLimit,
		MaxMatches:        DefaultMaxMatches,
		RetryCount:        -1,
		RetryDelay:        -1,
		AgentQueryTimeout: agentQueryTimeout,
		RandSeed:          -1,
		NormalizedTFIDF:   true,
	}
}

// Grouped reports whether the query has a group-by clause.
func (q *Query) Grouped() bool { return q.GroupBy != "" }

// AddGroupBy appends a group-by column, switching to multi-column grouping
// on the second call.
func (q *Query) AddGroupBy(col string) {
	if q.GroupBy == "" {
		q.GroupFunc = GroupAttr
		q.GroupBy = col
		return
	}
	q.GroupFunc = GroupMultiple
	q.GroupBy = q.GroupBy + ", " + col
}

// ResetGroupBy clears grouping.
func (q *Query) ResetGroupBy() {
	q.GroupBy = ""
	q.GroupFunc = GroupNone
}

// Open-ended range bounds.
const (
	MinInt64 = math.MinInt64
	MaxInt64 = math.MaxInt64
	MaxFloat = math.MaxFloat32
)
