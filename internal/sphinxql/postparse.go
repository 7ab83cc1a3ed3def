package sphinxql

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/searchd/internal/domain/query"
)

// finish validates and normalizes the statements of a successful parse.
func (s *parseState) finish() ([]Stmt, error) {
	stmts := s.stmts[:len(s.stmts)-1]

	start := 0
	for i := range stmts {
		st := &stmts[i]
		q := &st.Query

		s.sliceSelect(q)

		if st.Kind == StmtSelect && st.TableFunc != "" {
			if err := validateTableFunc(st); err != nil {
				return nil, err
			}
		}

		for _, f := range q.Filters {
			if strings.EqualFold(f.Attr, "@count") || strings.EqualFold(f.Attr, "count(*)") {
				return nil, semantic("sphinxql: aggregates in 'where' clause prohibited, use 'HAVING'")
			}
		}

		end := s.filtersPerStmt[i]
		if end > start && s.gotFilterOr {
			q.FilterTree = createFilterTree(s.tree, start, end)
		}
		start = end

		hints, err := checkQueryHints(q.IndexHints)
		if err != nil {
			return nil, err
		}
		q.IndexHints = hints
	}

	if s.deprecated() && !s.opts.AllowDeprecated {
		return nil, semantic(msgDeprecated)
	}

	mergeFacets(stmts)
	return stmts, nil
}

// sliceSelect stores the verbatim select list, widened over adjacent
// backticks, for the expression engine to re-parse later.
func (s *parseState) sliceSelect(q *query.Query) {
	if q.SelectStart < 0 {
		return
	}
	start, end := q.SelectStart, q.SelectEnd
	if start > 0 && s.src[start-1] == '`' {
		start--
	}
	if end < len(s.src) && s.src[end] == '`' {
		end++
	}
	q.Select = s.src[start:end]
}

// validateTableFunc checks the only known table function, REMOVE_REPEATS
// (result_set, column, offset, limit). The result set is the inner SELECT,
// so three explicit arguments remain.
func validateTableFunc(st *Stmt) error {
	st.TableFunc = strings.ToUpper(st.TableFunc)
	if st.TableFunc != "REMOVE_REPEATS" {
		return semantic(fmt.Sprintf("unknown table function %s()", st.TableFunc))
	}
	args := st.TableFuncArgs
	if len(args) != 3 {
		return semantic("REMOVE_REPEATS() requires 4 arguments (result_set, column, offset, limit)")
	}
	if !isDigits(args[1]) {
		return semantic("REMOVE_REPEATS() argument 3 (offset) must be integer")
	}
	if !isDigits(args[2]) {
		return semantic("REMOVE_REPEATS() argument 4 (limit) must be integer")
	}
	return nil
}

// createFilterTree extracts nodes [start, end) renumbered from zero. It
// returns nil when the slice has no OR node: a flat filter list already
// means AND of all filters.
func createFilterTree(tree []query.FilterTreeItem, start, end int) []query.FilterTreeItem {
	out := make([]query.FilterTreeItem, 0, end-start)
	hasOr := false
	for _, item := range tree[start:end] {
		if item.Left >= 0 {
			item.Left -= start
		}
		if item.Right >= 0 {
			item.Right -= start
		}
		hasOr = hasOr || (!item.IsLeaf() && item.Or)
		out = append(out, item)
	}
	if !hasOr {
		return nil
	}
	return out
}

// checkQueryHints drops duplicate hints and rejects an index named with
// two different hint kinds.
func checkQueryHints(hints []query.IndexHint) ([]query.IndexHint, error) {
	if len(hints) == 0 {
		return hints, nil
	}
	slices.SortStableFunc(hints, func(a, b query.IndexHint) int {
		if c := cmp.Compare(strings.ToLower(a.Index), strings.ToLower(b.Index)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Index, b.Index); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	hints = slices.Compact(hints)

	for i := 1; i < len(hints); i++ {
		if hints[i-1].Index == hints[i].Index {
			return nil, semantic(fmt.Sprintf("conflicting hints specified for index '%s'", hints[i-1].Index))
		}
	}
	return hints, nil
}

// mergeFacets turns each FACET following a SELECT into a SELECT sharing
// the head's indexes, match text, limits and filters. When any facet is
// present every statement gets the same de-duplicated select list and
// keeps its own items in RefItems.
func mergeFacets(stmts []Stmt) {
	gotFacet := false
	for i := 0; i < len(stmts); i++ {
		if stmts[i].Kind != StmtSelect {
			continue
		}
		head := &stmts[i].Query
		j := i + 1
		if j < len(stmts) && stmts[j].Kind == StmtFacet {
			gotFacet = true
			head.FacetHead = true
		}
		for ; j < len(stmts) && stmts[j].Kind == StmtFacet; j++ {
			stmts[j].Kind = StmtSelect
			q := &stmts[j].Query
			q.Facet = true
			q.Indexes = head.Indexes
			q.Select = q.FacetBy
			q.Query = head.Query
			q.RawQuery = head.RawQuery
			q.MaxMatches = head.MaxMatches
			q.GroupDistinct = head.GroupDistinct
			q.Filters = append(q.Filters, head.Filters...)
			q.FilterTree = append(q.FilterTree, head.FilterTree...)
		}
		i = j - 1
	}
	if !gotFacet {
		return
	}

	var merged []query.Item
	seen := make(map[uint64]struct{})
	for i := range stmts {
		for _, item := range stmts[i].Query.Items {
			h := itemHash(item)
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
			merged = append(merged, item)
		}
	}

	for i := range stmts {
		q := &stmts[i].Query
		q.RefItems = q.Items
		q.Items = slices.Clone(merged)
		if !q.Facet {
			continue
		}
		// group-by items of a facet come after its count(*)
		for k, item := range q.RefItems {
			if item.Alias == "count(*)" {
				q.RefItems = q.RefItems[:k+1]
				break
			}
		}
	}
}

func itemHash(item query.Item) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(item.Alias)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(item.Expr)
	_, _ = d.Write([]byte{0, byte(item.Aggr)})
	return d.Sum64()
}
