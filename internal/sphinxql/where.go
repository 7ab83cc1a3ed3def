package sphinxql

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/searchd/internal/domain/query"
)

// parseWhere reads a filter expression into the filter tree. AND binds
// tighter than OR and parentheses group. MATCH() is only accepted as a
// top-level conjunct, never under OR.
func (s *parseState) parseWhere(allowMatch bool) int {
	node, hadMatch := s.parseWhereAnd(allowMatch)
	for s.isKW("OR") {
		if hadMatch {
			s.unexpected()
		}
		s.next()
		right, _ := s.parseWhereAnd(false)
		node = s.filterOr(node, right)
	}
	return node
}

func (s *parseState) parseWhereAnd(allowMatch bool) (int, bool) {
	node, hadMatch := s.parseWhereTerm(allowMatch)
	for s.acceptKW("AND") {
		right, m := s.parseWhereTerm(allowMatch)
		node = s.filterAnd(node, right)
		hadMatch = hadMatch || m
	}
	return node, hadMatch
}

func (s *parseState) parseWhereTerm(allowMatch bool) (int, bool) {
	switch {
	case s.isKW("MATCH"):
		if !allowMatch {
			s.unexpected()
		}
		s.next()
		s.expectPunct("(")
		text := s.expectString().str
		s.expectPunct(")")
		s.setMatch(text)
		return -1, true

	case s.isPunct("("):
		s.next()
		node := s.parseWhere(false)
		s.expectPunct(")")
		return node, false
	}
	return s.parseFilterItem(), false
}

// parseFilterColumn reads the attribute side of a filter. Besides plain
// references it accepts the aggregate forms so that HAVING can use them
// and WHERE can reject them with a precise message.
func (s *parseState) parseFilterColumn() span {
	t := s.peek()
	if t.kind == tokIdent && !t.quoted && s.peekAt(1).isPunct("(") {
		name := strings.ToLower(t.text)
		switch {
		case name == "count" && s.peekAt(2).isPunct("*") && s.peekAt(3).isPunct(")"),
			newSyntaxFuncs[name] && s.peekAt(2).isPunct(")"):
			return s.parseFuncCall()
		}
	}
	return s.parseColumnRef()
}

// parseFilterItem reads one predicate and returns its tree node.
func (s *parseState) parseFilterItem() int {
	mva := query.MvaNone
	var col span
	if t := s.peek(); (t.isWord("ANY") || t.isWord("ALL")) && s.peekAt(1).isPunct("(") {
		s.next()
		s.next()
		mva = query.MvaAny
		if t.isWord("ALL") {
			mva = query.MvaAll
		}
		col = s.parseColumnRef()
		s.expectPunct(")")
	} else {
		col = s.parseFilterColumn()
	}
	name := s.text(col)

	var f *query.Filter
	var node int
	op := s.peek()
	switch {
	case op.isPunct("=") || op.isPunct("!=") || op.isPunct("<>"):
		s.next()
		f, node = s.parseEqualFilter(name, !op.isPunct("="))

	case op.isPunct("<") || op.isPunct("<=") || op.isPunct(">") || op.isPunct(">="):
		s.next()
		f, node = s.parseCompareFilter(name, op.text)

	case op.isWord("IN"):
		s.next()
		f, node = s.parseInFilter(name, false)

	case op.isWord("NOT") && s.peekAt(1).isWord("IN"):
		s.next()
		s.next()
		f, node = s.parseInFilter(name, true)

	case op.isWord("BETWEEN"):
		s.next()
		f, node = s.parseBetweenFilter(name, false)

	case op.isWord("NOT") && s.peekAt(1).isWord("BETWEEN"):
		s.next()
		s.next()
		f, node = s.parseBetweenFilter(name, true)

	case op.isWord("IS"):
		s.next()
		isNull := !s.acceptKW("NOT")
		s.expectKW("NULL")
		f, node = s.addFilter(name, query.FilterNull)
		f.IsNull = isNull

	default:
		s.unexpected()
	}

	if mva != query.MvaNone {
		f.MvaFunc = mva
		if f.Type == query.FilterString {
			f.Type = query.FilterStringList
		}
	}
	return node
}

func (s *parseState) parseEqualFilter(name string, exclude bool) (*query.Filter, int) {
	if s.peek().kind == tokString {
		f, node := s.addFilter(name, query.FilterString)
		f.Strings = []string{s.next().str}
		f.Exclude = exclude
		return f, node
	}

	n := s.parseNumber()
	if n.isFloat {
		f, node := s.addFilter(name, query.FilterFloatRange)
		f.FMin, f.FMax = float32(n.f), float32(n.f)
		f.Exclude = exclude
		return f, node
	}
	f, node := s.addFilter(name, query.FilterValues)
	f.Values = []int64{n.i}
	f.Exclude = exclude
	return f, node
}

// parseCompareFilter builds a half-open range. Integer bounds honour the
// inclusive flag on their closed side only; float bounds apply it to both.
func (s *parseState) parseCompareFilter(name, op string) (*query.Filter, int) {
	n := s.parseNumber()
	greater := op[0] == '>'
	inclusive := len(op) == 2

	if n.isFloat {
		f, node := s.addFilter(name, query.FilterFloatRange)
		if greater {
			f.FMin, f.FMax = float32(n.f), query.MaxFloat
		} else {
			f.FMin, f.FMax = -query.MaxFloat, float32(n.f)
		}
		f.HasEqualMin, f.HasEqualMax = inclusive, inclusive
		return f, node
	}

	f, node := s.addFilter(name, query.FilterRange)
	if greater {
		f.Min, f.Max = n.i, query.MaxInt64
		f.HasEqualMin = inclusive
		f.OpenRight = true
	} else {
		f.Min, f.Max = query.MinInt64, n.i
		f.HasEqualMax = inclusive
		f.OpenLeft = true
	}
	return f, node
}

func (s *parseState) parseInFilter(name string, exclude bool) (*query.Filter, int) {
	if t := s.peek(); t.kind == tokUserVar {
		s.next()
		f, node := s.addFilter(name, query.FilterUserVar)
		f.Strings = []string{strings.ToLower(t.text)}
		f.Exclude = exclude
		return f, node
	}

	s.expectPunct("(")
	if s.peek().kind == tokString {
		var strs []string
		for {
			strs = append(strs, s.expectString().str)
			if !s.acceptPunct(",") {
				break
			}
		}
		s.expectPunct(")")
		f, node := s.addFilter(name, query.FilterStringList)
		f.Strings = strs
		f.Exclude = exclude
		return f, node
	}

	vals := s.parseIntList()
	s.expectPunct(")")
	slices.Sort(vals)
	f, node := s.addFilter(name, query.FilterValues)
	f.Values = slices.Compact(vals)
	f.Exclude = exclude
	return f, node
}

func (s *parseState) parseBetweenFilter(name string, exclude bool) (*query.Filter, int) {
	lo := s.parseNumber()
	s.expectKW("AND")
	hi := s.parseNumber()

	if lo.isFloat || hi.isFloat {
		f, node := s.addFilter(name, query.FilterFloatRange)
		f.FMin, f.FMax = float32(lo.f), float32(hi.f)
		f.Exclude = exclude
		return f, node
	}
	f, node := s.addFilter(name, query.FilterRange)
	f.Min, f.Max = lo.i, hi.i
	f.Exclude = exclude
	return f, node
}
