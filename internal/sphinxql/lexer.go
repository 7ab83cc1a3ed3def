package sphinxql

import (
	"math"
	"strconv"
	"strings"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokUserVar
	tokSysVar
	tokPunct
	tokInvalid
)

// token is one lexeme. start/end delimit it in the source; quoted strings
// include their quotes, backtick identifiers exclude the backticks.
type token struct {
	kind   tokKind
	kw     string // upper-cased keyword name, empty for plain identifiers
	text   string
	str    string // unescaped string literal
	ival   uint64
	fval   float64
	start  int
	end    int
	quoted bool
}

func (t token) isPunct(op string) bool { return t.kind == tokPunct && t.text == op }

func (t token) isWord(w string) bool {
	return t.kind == tokIdent && !t.quoted && strings.EqualFold(t.text, w)
}

// describe names the token the way syntax errors report it.
func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "$end"
	case tokIdent:
		if t.kw != "" && !t.quoted {
			return t.kw
		}
		return "IDENT"
	case tokInt:
		return "CONST_INT"
	case tokFloat:
		return "CONST_FLOAT"
	case tokString:
		return "QUOTED_STRING"
	case tokUserVar:
		return "USERVAR"
	case tokSysVar:
		return "SYSVAR"
	case tokPunct:
		switch t.text {
		case "!=", "<>":
			return "NE"
		case "<=":
			return "LTE"
		case ">=":
			return "GTE"
		}
		return "'" + t.text + "'"
	}
	return "$undefined"
}

var keywords = map[string]bool{}

// reserved words never act as identifiers unless backticked.
var reserved = map[string]bool{}

func init() {
	for _, kw := range strings.Fields(`
		AGENT ALL ALTER ANY AS ASC ATTACH ATTRIBUTES BEGIN BETWEEN BY CALL COLLATE
		COLUMN COMMIT COUNT CREATE DATABASES DELETE DESC DESCRIBE DISTINCT DIV DROP
		EXISTS FACET FALSE FLUSH FOR FORCE FROM GLOBAL GROUP GROUPBY HAVING IF IGNORE
		IMPORT IN INDEX INSERT INTO IS LIKE LIMIT MATCH META MOD NAMES NOT NULL OFFSET
		OPTIMIZE OPTION OR ORDER PLAN PROFILE RAMCHUNK RECONFIGURE REPLACE ROLLBACK
		RTINDEX SELECT SESSION SET SHOW START STATUS SYSFILTERS TABLE TABLES THREADS TO
		TRANSACTION TRUE TRUNCATE UPDATE USE VALUES VARIABLES WARNINGS WEIGHT WHERE
		WITH WITHIN`) {
		keywords[kw] = true
	}
	for _, kw := range strings.Fields(`
		AND AS ASC BETWEEN BY DESC DISTINCT DIV FACET FROM GROUP HAVING IN IS LIMIT
		MATCH MOD NOT NULL OPTION OR ORDER SELECT WHERE WITHIN`) {
		keywords[kw] = true
		reserved[kw] = true
	}
}

// oldMeta lists the legacy @-identifiers.
var oldMeta = map[string]bool{"@id": true, "@count": true, "@weight": true, "@groupby": true}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

var punct2 = []string{"!=", "<>", "<=", ">=", "||", "&&"}

// lex splits src into tokens. The result always ends with a tokEOF.
func lex(src string) []token {
	var toks []token
	i := 0
	for {
		i = skipSpace(src, i)
		if i >= len(src) {
			return append(toks, token{kind: tokEOF, start: len(src), end: len(src)})
		}

		c := src[i]
		start := i
		switch {
		case isIdentStart(c):
			for i < len(src) && isIdentChar(src[i]) {
				i++
			}
			word := src[start:i]
			t := token{kind: tokIdent, text: word, start: start, end: i}
			if up := strings.ToUpper(word); keywords[up] {
				t.kw = up
			}
			toks = append(toks, t)

		case c == '`':
			j := strings.IndexByte(src[i+1:], '`')
			if j < 0 {
				return append(toks, token{kind: tokInvalid, text: src[i:], start: i, end: len(src)},
					token{kind: tokEOF, start: len(src), end: len(src)})
			}
			toks = append(toks, token{kind: tokIdent, text: src[i+1 : i+1+j], start: i + 1, end: i + 1 + j, quoted: true})
			i += j + 2

		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1]) && !afterOperand(toks)):
			var t token
			t, i = lexNumber(src, i)
			toks = append(toks, t)

		case c == '\'' || c == '"':
			t, ok := lexString(src, i)
			if !ok {
				return append(toks, token{kind: tokInvalid, text: src[i:], start: i, end: len(src)},
					token{kind: tokEOF, start: len(src), end: len(src)})
			}
			toks = append(toks, t)
			i = t.end

		case c == '@':
			kind := tokUserVar
			j := i + 1
			if j < len(src) && src[j] == '@' {
				kind = tokSysVar
				j++
			}
			k := j
			for k < len(src) && (isIdentChar(src[k]) || (kind == tokSysVar && src[k] == '.')) {
				k++
			}
			if k == j {
				toks = append(toks, token{kind: tokInvalid, text: "@", start: i, end: i + 1})
				i++
				continue
			}
			toks = append(toks, token{kind: kind, text: src[i:k], start: i, end: k})
			i = k

		default:
			op := string(c)
			for _, p := range punct2 {
				if strings.HasPrefix(src[i:], p) {
					op = p
					break
				}
			}
			kind := tokPunct
			if !strings.Contains("()[]{},;=<>!*+-/%.:|&~^", op[:1]) || op == "!" {
				kind = tokInvalid
			}
			toks = append(toks, token{kind: kind, text: op, start: i, end: i + len(op)})
			i += len(op)
		}
	}
}

// afterOperand reports whether the previous token ends an operand, so a
// following '.' is a path separator rather than a fraction.
func afterOperand(toks []token) bool {
	if len(toks) == 0 {
		return false
	}
	t := toks[len(toks)-1]
	switch t.kind {
	case tokIdent, tokInt, tokFloat, tokString, tokUserVar, tokSysVar:
		return true
	case tokPunct:
		return t.text == ")" || t.text == "]"
	}
	return false
}

func skipSpace(src string, i int) int {
	for i < len(src) {
		switch c := src[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			j := strings.Index(src[i+2:], "*/")
			if j < 0 {
				return len(src)
			}
			i += j + 4
		case c == '-' && strings.HasPrefix(src[i:], "-- ") || c == '#':
			j := strings.IndexByte(src[i:], '\n')
			if j < 0 {
				return len(src)
			}
			i += j + 1
		default:
			return i
		}
	}
	return i
}

func lexNumber(src string, i int) (token, int) {
	start := i
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	isFloat := false
	if i < len(src) && src[i] == '.' && i+1 < len(src) && isDigit(src[i+1]) {
		isFloat = true
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			isFloat = true
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}

	text := src[start:i]
	if isFloat {
		f, _ := strconv.ParseFloat(text, 64)
		return token{kind: tokFloat, text: text, fval: f, start: start, end: i}, i
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		v = math.MaxUint64
	}
	return token{kind: tokInt, text: text, ival: v, fval: float64(v), start: start, end: i}, i
}

// lexString scans a quoted literal starting at src[i].
func lexString(src string, i int) (token, bool) {
	quote := src[i]
	var b strings.Builder
	for j := i + 1; j < len(src); j++ {
		c := src[j]
		switch {
		case c == '\\' && j+1 < len(src):
			j++
			b.WriteByte(unescapeByte(src[j]))
		case c == quote:
			return token{kind: tokString, text: src[i : j+1], str: b.String(), start: i, end: j + 1}, true
		default:
			b.WriteByte(c)
		}
	}
	return token{}, false
}

func unescapeByte(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case '0':
		return 0
	}
	return c
}

// columnToLower lowercases a column reference up to the first '.', ','
// or '[' so JSON keys keep their case. Quoted parts are left alone.
func columnToLower(s string) string {
	b := []byte(s)
	quoted := false
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c == '.' || c == ',' || c == '[' {
			break
		}
		if !quoted && c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
		if c == '\'' {
			quoted = !quoted
		}
	}
	return string(b)
}
