package query

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	q := New(3000)

	if q.SortBy != "@weight desc" || q.OrderBy != "@weight desc" {
		t.Errorf("sort defaults = %q / %q", q.SortBy, q.OrderBy)
	}
	if q.GroupSortBy != "@groupby desc" {
		t.Errorf("GroupSortBy = %q", q.GroupSortBy)
	}
	if q.Mode != MatchExtended2 || q.SortMode != SortExtended {
		t.Errorf("mode = %v, sort mode = %v", q.Mode, q.SortMode)
	}
	if q.Limit != 20 || q.MaxMatches != 1000 {
		t.Errorf("limit = %d, max_matches = %d", q.Limit, q.MaxMatches)
	}
	if q.RetryCount != -1 || q.RetryDelay != -1 {
		t.Errorf("retry = %d/%d", q.RetryCount, q.RetryDelay)
	}
	if q.AgentQueryTimeout != 3000 {
		t.Errorf("AgentQueryTimeout = %d", q.AgentQueryTimeout)
	}
	if q.SelectStart != -1 || q.SelectEnd != -1 {
		t.Errorf("select span = %d..%d", q.SelectStart, q.SelectEnd)
	}
	if q.Grouped() || q.GroupFunc != GroupNone {
		t.Error("new query must not be grouped")
	}
}

func TestAddGroupBy(t *testing.T) {
	q := New(0)

	q.AddGroupBy("a")
	if q.GroupBy != "a" || q.GroupFunc != GroupAttr {
		t.Fatalf("after first: %q %v", q.GroupBy, q.GroupFunc)
	}

	q.AddGroupBy("b")
	if q.GroupBy != "a, b" || q.GroupFunc != GroupMultiple {
		t.Fatalf("after second: %q %v", q.GroupBy, q.GroupFunc)
	}

	q.ResetGroupBy()
	if q.Grouped() || q.GroupFunc != GroupNone {
		t.Fatalf("after reset: %q %v", q.GroupBy, q.GroupFunc)
	}
}

func TestLookupBuiltinRanker(t *testing.T) {
	tests := []struct {
		name string
		want Ranker
		ok   bool
	}{
		{"proximity_bm25", RankProximityBM25, true},
		{"bm25", RankBM25, true},
		{"none", RankNone, true},
		{"sph04", RankSPH04, true},
		{"fieldmask", RankFieldMask, true},
		{"expr", 0, false},
		{"export", 0, false},
		{"BM25", 0, false},
		{"my_plugin", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LookupBuiltinRanker(tt.name)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("LookupBuiltinRanker(%q) = %v, %v", tt.name, got, ok)
			}
		})
	}
}

func TestLookupAggr(t *testing.T) {
	if a, ok := LookupAggr("GROUP_CONCAT"); !ok || a != AggrCat {
		t.Errorf("GROUP_CONCAT = %v, %v", a, ok)
	}
	if _, ok := LookupAggr("count"); ok {
		t.Error("count is not a plain aggregate")
	}
}

func TestParseCollation(t *testing.T) {
	c, err := ParseCollation("UTF8_GENERAL_CI")
	if err != nil || c != CollationUTF8GeneralCI {
		t.Fatalf("got %v, %v", c, err)
	}
	if _, err := ParseCollation("latin1"); err == nil || !strings.Contains(err.Error(), "latin1") {
		t.Fatalf("err = %v", err)
	}
}

func TestEnumJSON(t *testing.T) {
	f := NewFilter("price", FilterRange)
	f.MvaFunc = MvaAny

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"type":"range"`, `"mva_func":"any"`, `"has_equal_min":true`} {
		if !strings.Contains(s, want) {
			t.Errorf("%s missing %s", s, want)
		}
	}

	if got := Ranker(99).String(); got != "ranker(99)" {
		t.Errorf("out of range = %q", got)
	}
}

func TestLeaf(t *testing.T) {
	l := Leaf(3)
	if !l.IsLeaf() || l.Left != -1 || l.Right != -1 {
		t.Errorf("leaf = %+v", l)
	}
	n := FilterTreeItem{Left: 0, Right: 1, FilterItem: -1, Or: true}
	if n.IsLeaf() {
		t.Error("internal node reported as leaf")
	}
}
