package sphinxql

import "strings"

// span is a [start, end) range of the source text.
type span struct{ start, end int }

func (s *parseState) text(sp span) string { return s.src[sp.start:sp.end] }

// newSyntaxFuncs are the functions replacing the legacy @-identifiers.
var newSyntaxFuncs = map[string]bool{"weight": true, "groupby": true}

// parseExpr delimits one expression. The SQL stage only validates its
// shape; evaluation happens later against the index schema.
func (s *parseState) parseExpr() span {
	sp := s.parseExprAnd()
	for s.isKW("OR") || s.isPunct("||") {
		s.next()
		sp.end = s.parseExprAnd().end
	}
	return sp
}

func (s *parseState) parseExprAnd() span {
	sp := s.parseExprNot()
	for s.isKW("AND") || s.isPunct("&&") {
		s.next()
		sp.end = s.parseExprNot().end
	}
	return sp
}

func (s *parseState) parseExprNot() span {
	if s.isKW("NOT") {
		start := s.next().start
		return span{start, s.parseExprNot().end}
	}
	return s.parseExprCmp()
}

func (s *parseState) parseExprCmp() span {
	sp := s.parseExprAdd()
	for {
		t := s.peek()
		switch {
		case t.isPunct("=") || t.isPunct("!=") || t.isPunct("<>") || t.isPunct("<") ||
			t.isPunct(">") || t.isPunct("<=") || t.isPunct(">="):
			s.next()
			sp.end = s.parseExprAdd().end

		case t.isWord("IS"):
			s.next()
			s.acceptKW("NOT")
			sp.end = s.expectKW("NULL").end

		case t.isWord("NOT") && (s.peekAt(1).isWord("IN") || s.peekAt(1).isWord("BETWEEN")):
			s.next()

		case t.isWord("IN"):
			s.next()
			if s.peek().kind == tokUserVar {
				sp.end = s.next().end
				continue
			}
			s.expectPunct("(")
			s.parseExprList()
			sp.end = s.expectPunct(")").end

		case t.isWord("BETWEEN"):
			s.next()
			s.parseExprAdd()
			s.expectKW("AND")
			sp.end = s.parseExprAdd().end

		default:
			return sp
		}
	}
}

func (s *parseState) parseExprList() {
	for {
		s.parseExpr()
		if !s.acceptPunct(",") {
			return
		}
	}
}

func (s *parseState) parseExprAdd() span {
	sp := s.parseExprMul()
	for {
		t := s.peek()
		if !(t.isPunct("+") || t.isPunct("-") || t.isPunct("|") || t.isPunct("&") || t.isPunct("^")) {
			return sp
		}
		s.next()
		sp.end = s.parseExprMul().end
	}
}

func (s *parseState) parseExprMul() span {
	sp := s.parseExprUnary()
	for {
		t := s.peek()
		if !(t.isPunct("*") || t.isPunct("/") || t.isPunct("%") || t.isWord("DIV") || t.isWord("MOD")) {
			return sp
		}
		s.next()
		sp.end = s.parseExprUnary().end
	}
}

func (s *parseState) parseExprUnary() span {
	if s.isPunct("-") || s.isPunct("~") {
		start := s.next().start
		return span{start, s.parseExprUnary().end}
	}
	return s.parseExprPrimary()
}

func (s *parseState) parseExprPrimary() span {
	t := s.peek()
	switch t.kind {
	case tokInt, tokFloat, tokString:
		s.next()
		return span{t.start, t.end}

	case tokUserVar:
		s.next()
		if oldMeta[strings.ToLower(t.text)] {
			s.setOldSyntax()
		}
		return span{t.start, t.end}

	case tokSysVar:
		s.next()
		return span{t.start, t.end}

	case tokPunct:
		if t.isPunct("(") {
			s.next()
			s.parseExpr()
			return span{t.start, s.expectPunct(")").end}
		}

	case tokIdent:
		if s.peekAt(1).isPunct("(") && !t.quoted && !reserved[t.kw] {
			return s.parseFuncCall()
		}
		if s.isIdent() {
			return s.parseColumnRef()
		}
	}
	s.unexpected()
	return span{}
}

// parseFuncCall reads name(args). count(*) and the new-syntax functions
// mark the parse as using the new syntax.
func (s *parseState) parseFuncCall() span {
	name := s.next()
	s.expectPunct("(")
	lower := strings.ToLower(name.text)
	if newSyntaxFuncs[lower] {
		s.setNewSyntax()
	}

	switch {
	case s.isPunct(")"):
	case lower == "count" && s.isPunct("*"):
		s.next()
		s.setNewSyntax()
	case lower == "count" && s.isKW("DISTINCT"):
		s.next()
		s.parseColumnRef()
	default:
		s.parseExprList()
	}
	return span{name.start, s.expectPunct(")").end}
}

// parseColumnRef reads an attribute reference: a name with optional JSON
// member and subscript suffixes, or a legacy @-identifier.
func (s *parseState) parseColumnRef() span {
	t := s.peek()
	if t.kind == tokUserVar {
		s.next()
		if oldMeta[strings.ToLower(t.text)] {
			s.setOldSyntax()
		}
		return span{t.start, t.end}
	}

	first := s.expectIdent()
	if s.collectIdents {
		s.idents = append(s.idents, first.text)
	}
	sp := span{first.start, first.end}
	for {
		switch {
		case s.isPunct("."):
			s.next()
			n := s.peek()
			if n.kind != tokIdent && n.kind != tokInt {
				s.unexpected("IDENT")
			}
			sp.end = s.next().end
		case s.isPunct("["):
			s.next()
			s.parseExpr()
			sp.end = s.expectPunct("]").end
		default:
			return sp
		}
	}
}
