package sphinxql

import (
	"strings"

	"github.com/kailas-cloud/searchd/internal/domain/query"
)

// parseSelect handles SELECT in all its forms, including a trailing FACET
// list which becomes separate statements.
func (s *parseState) parseSelect() {
	if s.peekAt(1).kind == tokSysVar {
		s.parseSelectSysvar()
		return
	}
	if s.isTableFunc() {
		s.parseTableFunc()
		return
	}

	s.parseSelectBody()
	for s.isKW("FACET") {
		s.pushQuery()
		s.parseFacet()
	}
}

func (s *parseState) isTableFunc() bool {
	t := s.peekAt(1)
	return t.kind == tokIdent && !t.quoted && !reserved[t.kw] &&
		s.peekAt(2).isPunct("(") && s.peekAt(3).isPunct("(") && s.peekAt(4).isWord("SELECT")
}

// parseTableFunc reads SELECT FUNC((SELECT ...), arg, ...). Arguments are
// kept as raw text and validated after parsing.
func (s *parseState) parseTableFunc() {
	s.expectKW("SELECT")
	st := s.stmt()
	st.TableFunc = s.next().text
	s.expectPunct("(")
	s.expectPunct("(")
	s.parseSelectBody()
	s.expectPunct(")")

	for s.acceptPunct(",") {
		a := s.peek()
		switch a.kind {
		case tokIdent, tokInt, tokString:
			s.next()
			s.stmt().TableFuncArgs = append(s.stmt().TableFuncArgs, a.text)
		default:
			s.unexpected("IDENT", "CONST_INT")
		}
	}
	s.expectPunct(")")
}

func (s *parseState) parseSelectSysvar() {
	s.expectKW("SELECT")
	s.stmt().Kind = StmtSelectSysvar
	for {
		t := s.next()
		s.addItem(strings.ToLower(t.text), query.AggrNone, t.start, t.end)
		s.parseAlias()
		if !s.acceptPunct(",") {
			break
		}
		if s.peek().kind != tokSysVar {
			s.unexpected("SYSVAR")
		}
	}
	s.parseLimit()
}

func (s *parseState) parseSelectBody() {
	s.expectKW("SELECT")
	st := s.stmt()
	st.Kind = StmtSelect

	for {
		s.parseSelectItem()
		if !s.acceptPunct(",") {
			break
		}
	}

	s.expectKW("FROM")
	s.parseFromList()
	s.parseIndexHints()

	if s.acceptKW("WHERE") {
		s.parseWhere(true)
	}
	if s.acceptKW("GROUP") {
		q := s.query()
		if s.peek().kind == tokInt {
			q.GroupByLimit = int(s.next().ival)
		}
		s.expectKW("BY")
		for {
			sp := s.parseColumnRef()
			q.AddGroupBy(columnToLower(s.text(sp)))
			if !s.acceptPunct(",") {
				break
			}
		}
	}
	if s.acceptKW("WITHIN") {
		s.expectKW("GROUP")
		s.expectKW("ORDER")
		s.expectKW("BY")
		s.query().SortBy = s.parseOrderList()
	}
	if s.acceptKW("HAVING") {
		s.parseFilterItem()
		s.addHaving()
	}
	if s.acceptKW("ORDER") {
		s.expectKW("BY")
		s.query().OrderBy = s.parseOrderList()
	}
	s.parseLimit()
	s.parseOptionClause(false)
}

// parseSelectItem reads one select-list entry with an optional alias.
func (s *parseState) parseSelectItem() {
	t := s.peek()
	if t.isPunct("*") {
		s.next()
		s.addItem("*", query.AggrNone, t.start, t.end)
		return
	}

	if t.kind == tokIdent && !t.quoted && s.peekAt(1).isPunct("(") {
		name := strings.ToLower(t.text)
		aggr, isAggr := query.LookupAggr(name)
		switch {
		case isAggr:
			s.next()
			s.next()
			e := s.parseExpr()
			end := s.expectPunct(")").end
			s.addItem(s.text(e), aggr, t.start, end)
			s.parseAlias()
			return

		case name == "count" && s.peekAt(2).isPunct("*") && s.peekAt(3).isPunct(")"):
			s.next()
			s.next()
			s.next()
			end := s.next().end
			s.addSpecialItem("count(*)", t.start, end)
			s.parseAlias()
			return

		case name == "count" && s.peekAt(2).isWord("DISTINCT"):
			s.next()
			s.next()
			s.next()
			col := s.parseColumnRef()
			end := s.expectPunct(")").end
			s.addDistinct(s.text(col), t.start, end)
			s.parseAlias()
			return

		case name == "groupby" && s.peekAt(2).isPunct(")"):
			s.next()
			s.next()
			end := s.next().end
			s.addSpecialItem("groupby()", t.start, end)
			s.parseAlias()
			return
		}
	}

	e := s.parseExpr()
	s.addItem(s.text(e), query.AggrNone, e.start, e.end)
	s.parseAlias()
}

func (s *parseState) parseAlias() {
	if s.acceptKW("AS") {
		a := s.expectIdent()
		s.aliasLastItem(a.text, a.start, a.end)
		return
	}
	if s.isIdent() {
		a := s.next()
		s.aliasLastItem(a.text, a.start, a.end)
	}
}

// parseFromList keeps the index list as written.
func (s *parseState) parseFromList() {
	first := s.peek()
	s.parseIndexName()
	end := s.toks[s.pos-1].end
	for s.acceptPunct(",") {
		s.parseIndexName()
		end = s.toks[s.pos-1].end
	}
	s.query().Indexes = s.src[first.start:end]
}

func (s *parseState) parseIndexHints() {
	for {
		var kind query.HintKind
		switch t := s.peek(); {
		case t.isWord("USE"):
			kind = query.HintUse
		case t.isWord("FORCE"):
			kind = query.HintForce
		case t.isWord("IGNORE"):
			kind = query.HintIgnore
		default:
			return
		}
		if !s.peekAt(1).isWord("INDEX") {
			return
		}
		s.next()
		s.next()
		s.expectPunct("(")
		q := s.query()
		for {
			q.IndexHints = append(q.IndexHints, query.IndexHint{Index: s.expectIdent().text, Kind: kind})
			if !s.acceptPunct(",") {
				break
			}
		}
		s.expectPunct(")")
	}
}

// parseOrderList returns the source text of an ORDER BY list.
func (s *parseState) parseOrderList() string {
	sp := s.parseExpr()
	for {
		if s.isKW("ASC") || s.isKW("DESC") {
			sp.end = s.next().end
		}
		if !s.acceptPunct(",") {
			return s.text(sp)
		}
		sp.end = s.parseExpr().end
	}
}

// parseLimit reads LIMIT n, LIMIT off, n or LIMIT n OFFSET off.
func (s *parseState) parseLimit() {
	if !s.acceptKW("LIMIT") {
		return
	}
	q := s.query()
	first := int(s.expectInt().ival)
	switch {
	case s.acceptPunct(","):
		q.Offset = first
		q.Limit = int(s.expectInt().ival)
	case s.acceptKW("OFFSET"):
		q.Limit = first
		q.Offset = int(s.expectInt().ival)
	default:
		q.Offset = 0
		q.Limit = first
	}
}

// parseFacet reads FACET items [BY items] [ORDER BY ...] [LIMIT ...].
// Every facet item is both selected and grouped on; BY moves the grouping
// collected so far into FacetBy.
func (s *parseState) parseFacet() {
	s.expectKW("FACET")
	st := s.stmt()
	st.Kind = StmtFacet
	q := s.query()

	s.parseFacetItems()
	if s.acceptKW("BY") {
		q.FacetBy = q.GroupBy
		q.ResetGroupBy()
		s.addCount()
		s.parseFacetItems()
	}
	if q.FacetBy == "" {
		q.FacetBy = q.GroupBy
		s.addCount()
	}

	if s.acceptKW("ORDER") {
		s.expectKW("BY")
		q.OrderBy = s.parseOrderList()
	}
	s.parseLimit()
}

func (s *parseState) parseFacetItems() {
	q := s.query()
	for {
		e := s.parseExpr()
		s.addItem(s.text(e), query.AggrNone, e.start, e.end)
		q.AddGroupBy(columnToLower(s.text(e)))
		s.parseAlias()
		if !s.acceptPunct(",") {
			return
		}
	}
}
