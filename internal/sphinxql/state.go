package sphinxql

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchd/internal/domain/query"
)

const (
	headerSQL     = "sphinxql:"
	headerFilters = "percolate filters:"
)

const (
	syntaxOld = 1 << iota
	syntaxNew
)

const (
	msgMixedSyntax = "Mixing the old-fashion internal vars (@id, @count, @weight) with new acronyms like count(*), weight() is prohibited"
	msgDeprecated  = "Using the old-fashion @variables (@count, @weight, etc.) is deprecated"
)

// bailout carries a parse error out of the recursive descent. It is
// recovered in run and never escapes the package.
type bailout struct{ err *Error }

// parseState is everything one Parse call mutates. Grammar actions reach
// it through the parser; nothing here is shared between calls.
type parseState struct {
	src    string
	header string
	opts   *Options

	toks    []token
	pos     int
	lastPos int // start of the most recently consumed token

	stmts []Stmt

	// tree is the flat filter tree of the whole input. filtersPerStmt[i]
	// is its length when statement i was closed.
	tree           []query.FilterTreeItem
	filtersPerStmt []int
	gotFilterOr    bool
	gotQuery       bool

	syntaxFlags int

	namedVec     []query.NamedInt
	namedVecBusy bool

	// collectIdents records bare column names for expression checks.
	collectIdents bool
	idents        []string
}

func newParseState(src, header string, opts *Options) *parseState {
	s := &parseState{src: src, header: header, opts: opts, toks: lex(src)}
	s.stmts = append(s.stmts, NewStmt(opts.AgentQueryTimeout, opts.Collation))
	return s
}

func (s *parseState) stmt() *Stmt { return &s.stmts[len(s.stmts)-1] }

func (s *parseState) query() *query.Query { return &s.stmt().Query }

// pushQuery closes the current statement and opens the next one. A query
// without grouping sorts by its ORDER BY; a grouped one sorts groups by it.
func (s *parseState) pushQuery() {
	q := s.query()
	if q.Grouped() {
		q.GroupSortBy = q.OrderBy
	} else {
		q.SortBy = q.OrderBy
	}
	s.filtersPerStmt = append(s.filtersPerStmt, len(s.tree))

	s.stmts = append(s.stmts, NewStmt(s.opts.AgentQueryTimeout, s.opts.Collation))
	s.gotQuery = false
}

// fail aborts parsing with err.
func (s *parseState) fail(err *Error) {
	panic(bailout{err})
}

func (s *parseState) failf(format string, args ...any) {
	s.fail(semantic(fmt.Sprintf(format, args...)))
}

// yyerror reports msg the way grammar-level failures read: header, message
// and the input remaining from the offending token.
func (s *parseState) yyerror(kind ErrorKind, msg string, at int) {
	near := ""
	if at >= 0 && at <= len(s.src) {
		near = s.src[at:]
	}
	s.fail(&Error{Kind: kind, Msg: fmt.Sprintf("%s %s near '%s'", s.header, msg, near)})
}

// actionError reports a failed grammar action at the last consumed token.
func (s *parseState) actionError(msg string) {
	s.yyerror(KindSemantic, msg, s.lastPos)
}

func (s *parseState) setOldSyntax() {
	s.syntaxFlags |= syntaxOld
	s.checkSyntaxMix()
}

func (s *parseState) setNewSyntax() {
	s.syntaxFlags |= syntaxNew
	s.checkSyntaxMix()
}

func (s *parseState) checkSyntaxMix() {
	if s.syntaxFlags&(syntaxOld|syntaxNew) == syntaxOld|syntaxNew {
		s.actionError(msgMixedSyntax)
	}
}

func (s *parseState) deprecated() bool { return s.syntaxFlags&syntaxOld != 0 }

// addFilter appends a filter to the current query together with a leaf
// referencing it and returns the leaf's node index.
func (s *parseState) addFilter(col string, t query.FilterType) (*query.Filter, int) {
	q := s.query()
	node := len(s.tree)
	s.tree = append(s.tree, query.Leaf(len(q.Filters)))
	q.Filters = append(q.Filters, query.NewFilter(columnToLower(col), t))
	return &q.Filters[len(q.Filters)-1], node
}

// filterAnd joins two nodes. A side of -1 carries no filter (MATCH) and
// yields the other side unchanged.
func (s *parseState) filterAnd(left, right int) int {
	switch {
	case left < 0:
		return right
	case right < 0:
		return left
	}
	s.tree = append(s.tree, query.FilterTreeItem{Left: left, Right: right, FilterItem: -1})
	return len(s.tree) - 1
}

func (s *parseState) filterOr(left, right int) int {
	s.gotFilterOr = true
	s.tree = append(s.tree, query.FilterTreeItem{Left: left, Right: right, Or: true, FilterItem: -1})
	return len(s.tree) - 1
}

// addHaving moves the last parsed filter into the HAVING slot and drops
// its leaf from the tree.
func (s *parseState) addHaving() {
	q := s.query()
	f := q.Filters[len(q.Filters)-1]
	q.Filters = q.Filters[:len(q.Filters)-1]
	s.tree = s.tree[:len(s.tree)-1]
	q.Having = &f
}

func (s *parseState) setMatch(text string) {
	if s.gotQuery {
		s.actionError("too many MATCH() clauses")
	}
	q := s.query()
	q.Query = text
	q.RawQuery = text
	s.gotQuery = true
}

// allocNamedVec claims the single named-int list used by list options.
func (s *parseState) allocNamedVec() {
	if s.namedVecBusy {
		panic("sphinxql: named vector is already in use")
	}
	s.namedVecBusy = true
	s.namedVec = nil
}

func (s *parseState) addNamedConst(name string, v int64) {
	if !s.namedVecBusy {
		panic("sphinxql: named vector is not allocated")
	}
	s.namedVec = append(s.namedVec, query.NamedInt{Name: strings.ToLower(name), Value: int(v)})
}

// freeNamedVec releases the list and hands its contents to the caller.
func (s *parseState) freeNamedVec() []query.NamedInt {
	if !s.namedVecBusy {
		panic("sphinxql: named vector is not allocated")
	}
	v := s.namedVec
	s.namedVec = nil
	s.namedVecBusy = false
	return v
}

// setSelect widens the select-list span of the current query.
func (s *parseState) setSelect(start, end int) {
	q := s.query()
	if q.SelectStart < 0 || start < q.SelectStart {
		q.SelectStart = start
	}
	if q.SelectEnd < 0 || end > q.SelectEnd {
		q.SelectEnd = end
	}
}

// addItem appends a select item. The alias defaults to the lowercased
// source text of start..end.
func (s *parseState) addItem(expr string, aggr query.AggrFunc, start, end int) {
	q := s.query()
	q.Items = append(q.Items, query.Item{
		Expr:  columnToLower(expr),
		Alias: columnToLower(s.src[start:end]),
		Aggr:  aggr,
	})
	s.setSelect(start, end)
}

// addSpecialItem appends an item with a fixed expression such as
// count(*) and marks the new syntax.
func (s *parseState) addSpecialItem(expr string, start, end int) {
	s.addItem(expr, query.AggrNone, start, end)
	s.setNewSyntax()
}

func (s *parseState) aliasLastItem(alias string, start, end int) {
	q := s.query()
	q.Items[len(q.Items)-1].Alias = strings.ToLower(alias)
	s.setSelect(start, end)
}

func (s *parseState) addDistinct(col string, start, end int) {
	q := s.query()
	if q.GroupDistinct != "" {
		s.actionError("too many COUNT(DISTINCT) clauses")
	}
	q.GroupDistinct = col
	s.addSpecialItem("@distinct", start, end)
}

// addCount appends the implicit count(*) of a facet.
func (s *parseState) addCount() {
	q := s.query()
	q.Items = append(q.Items, query.Item{Expr: "count(*)", Alias: "count(*)"})
	s.setNewSyntax()
}

func (s *parseState) setIndex(name string) {
	st := s.stmt()
	st.Cluster, st.Index = SplitClusterIndex(name)
}
