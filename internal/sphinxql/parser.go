package sphinxql

import (
	"strings"
)

// maxExpected caps how many alternatives a syntax error lists.
const maxExpected = 4

func (s *parseState) peek() token { return s.toks[s.pos] }

func (s *parseState) peekAt(n int) token {
	if i := s.pos + n; i < len(s.toks) {
		return s.toks[i]
	}
	return s.toks[len(s.toks)-1]
}

func (s *parseState) next() token {
	t := s.toks[s.pos]
	if t.kind != tokEOF {
		s.pos++
	}
	s.lastPos = t.start
	return t
}

func (s *parseState) atEOF() bool { return s.peek().kind == tokEOF }

func (s *parseState) isKW(kw string) bool { return s.peek().isWord(kw) }

func (s *parseState) acceptKW(kw string) bool {
	if !s.isKW(kw) {
		return false
	}
	s.next()
	return true
}

func (s *parseState) expectKW(kw string) token {
	if !s.isKW(kw) {
		s.unexpected(kw)
	}
	return s.next()
}

func (s *parseState) isPunct(op string) bool { return s.peek().isPunct(op) }

func (s *parseState) acceptPunct(op string) bool {
	if !s.isPunct(op) {
		return false
	}
	s.next()
	return true
}

func (s *parseState) expectPunct(op string) token {
	if !s.isPunct(op) {
		s.unexpected("'" + op + "'")
	}
	return s.next()
}

// isIdent reports whether the next token can name a column or index.
func (s *parseState) isIdent() bool {
	t := s.peek()
	return t.kind == tokIdent && (t.quoted || !reserved[t.kw])
}

func (s *parseState) expectIdent() token {
	if !s.isIdent() {
		s.unexpected("IDENT")
	}
	return s.next()
}

func (s *parseState) expectString() token {
	if s.peek().kind != tokString {
		s.unexpected("QUOTED_STRING")
	}
	return s.next()
}

func (s *parseState) expectInt() token {
	if s.peek().kind != tokInt {
		s.unexpected("CONST_INT")
	}
	return s.next()
}

// unexpected fails with a syntax error at the lookahead token.
func (s *parseState) unexpected(expecting ...string) {
	t := s.peek()
	msg := "syntax error, unexpected " + t.describe()
	if len(expecting) > 0 && len(expecting) <= maxExpected {
		msg += ", expecting " + strings.Join(expecting, " or ")
	}
	s.yyerror(KindSyntax, msg, t.start)
}

// run executes a grammar entry point and converts a bailout into an error.
func (s *parseState) run(fn func()) (err *Error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = b.err
		}
	}()
	fn()
	return nil
}

// parseRequest parses ';'-separated statements until the end of input.
func (s *parseState) parseRequest() {
	if s.atEOF() {
		s.unexpected()
	}
	for {
		s.parseStatement()
		if s.acceptPunct(";") {
			if s.atEOF() {
				return
			}
			continue
		}
		if !s.atEOF() {
			s.unexpected()
		}
		return
	}
}

func (s *parseState) parseStatement() {
	t := s.peek()
	switch {
	case t.isWord("SELECT"):
		s.parseSelect()
	case t.isWord("INSERT"):
		s.parseInsert(StmtInsert)
	case t.isWord("REPLACE"):
		s.parseInsert(StmtReplace)
	case t.isWord("DELETE"):
		s.parseDelete()
	case t.isWord("UPDATE"):
		s.parseUpdate()
	case t.isWord("SET"):
		s.parseSet()
	case t.isWord("SHOW"):
		s.parseShow()
	case t.isWord("DESCRIBE") || t.isWord("DESC"):
		s.parseDescribe()
	case t.isWord("CALL"):
		s.parseCall()
	case t.isWord("BEGIN"):
		s.next()
		s.stmt().Kind = StmtBegin
	case t.isWord("START"):
		s.next()
		s.expectKW("TRANSACTION")
		s.stmt().Kind = StmtBegin
	case t.isWord("COMMIT"):
		s.next()
		s.stmt().Kind = StmtCommit
	case t.isWord("ROLLBACK"):
		s.next()
		s.stmt().Kind = StmtRollback
	case t.isWord("OPTIMIZE"):
		s.parseOptimize()
	case t.isWord("FLUSH"):
		s.parseFlush()
	case t.isWord("TRUNCATE"):
		s.parseTruncate()
	case t.isWord("ATTACH"):
		s.parseAttach()
	case t.isWord("SYSFILTERS"):
		s.next()
		s.stmt().Kind = StmtSysFilters
		s.parseWhere(false)
	default:
		s.unexpected()
	}
	s.pushQuery()
}

// parseIndexName reads "index" or "cluster:index" and returns its text.
func (s *parseState) parseIndexName() string {
	first := s.expectIdent()
	end := first.end
	if s.isPunct(":") {
		s.next()
		end = s.expectIdent().end
		return s.src[first.start:end]
	}
	return first.text
}

// parseLike reads an optional LIKE 'pattern'.
func (s *parseState) parseLike() {
	if s.acceptKW("LIKE") {
		s.stmt().Like = s.expectString().str
	}
}

// signedNumber reads an optionally negated numeric constant.
type signedNumber struct {
	isFloat bool
	i       int64
	f       float64
	start   int
	end     int
}

func (s *parseState) isNumber() bool {
	t := s.peek()
	if t.kind == tokInt || t.kind == tokFloat {
		return true
	}
	n := s.peekAt(1).kind
	return t.isPunct("-") && (n == tokInt || n == tokFloat)
}

func (s *parseState) parseNumber() signedNumber {
	start := s.peek().start
	neg := s.acceptPunct("-")
	t := s.peek()
	var n signedNumber
	switch t.kind {
	case tokInt:
		n.i = int64(t.ival)
		n.f = float64(t.ival)
	case tokFloat:
		n.isFloat = true
		n.f = t.fval
	default:
		s.unexpected("CONST_INT", "CONST_FLOAT")
	}
	s.next()
	if neg {
		n.i, n.f = -n.i, -n.f
	}
	n.start, n.end = start, t.end
	return n
}

// parseIntList reads comma-separated signed integers up to ')'.
func (s *parseState) parseIntList() []int64 {
	var vals []int64
	for {
		n := s.parseNumber()
		if n.isFloat {
			s.yyerror(KindSyntax, "syntax error, unexpected CONST_FLOAT, expecting CONST_INT", n.start)
		}
		vals = append(vals, n.i)
		if !s.acceptPunct(",") {
			return vals
		}
	}
}
