package sphinxql

import (
	"math"
	"slices"
	"strings"
)

func (s *parseState) parseInsert(kind StmtKind) {
	s.next()
	st := s.stmt()
	st.Kind = kind
	s.expectKW("INTO")
	s.setIndex(s.parseIndexName())

	if s.acceptPunct("(") {
		for {
			st.AddSchemaItem(s.expectIdent().text)
			if !s.acceptPunct(",") {
				break
			}
		}
		s.expectPunct(")")
	}

	s.expectKW("VALUES")
	for {
		s.expectPunct("(")
		for {
			st.InsertValues = append(st.InsertValues, s.parseValue())
			if !s.acceptPunct(",") {
				break
			}
		}
		s.expectPunct(")")
		if !st.CheckInsertIntegrity() {
			s.actionError("wrong number of values here")
		}
		if !s.acceptPunct(",") {
			break
		}
	}
	s.parseOptionClause(true)
}

// parseValue reads a literal of VALUES or CALL: a number, a string, NULL
// or a parenthesized list of integers or strings.
func (s *parseState) parseValue() InsertValue {
	t := s.peek()
	switch {
	case t.kind == tokString:
		s.next()
		return InsertValue{Type: ValueString, Str: t.str}
	case t.isWord("NULL"):
		s.next()
		return InsertValue{Type: ValueNull}
	case t.isPunct("("):
		s.next()
		if s.acceptPunct(")") {
			return InsertValue{Type: ValueMVA}
		}
		if s.peek().kind == tokString {
			var strs []string
			for {
				strs = append(strs, s.expectString().str)
				if !s.acceptPunct(",") {
					break
				}
			}
			s.expectPunct(")")
			return InsertValue{Type: ValueStringList, Strs: strs}
		}
		vals := s.parseIntList()
		s.expectPunct(")")
		return InsertValue{Type: ValueMVA, MVA: vals}
	case s.isNumber():
		n := s.parseNumber()
		if n.isFloat {
			return InsertValue{Type: ValueFloat, Float: float32(n.f)}
		}
		return InsertValue{Type: ValueInt, Int: n.i}
	}
	s.unexpected()
	return InsertValue{}
}

func (s *parseState) parseDelete() {
	s.next()
	s.stmt().Kind = StmtDelete
	s.expectKW("FROM")
	s.setIndex(s.parseIndexName())
	s.expectKW("WHERE")
	s.parseWhere(false)
}

func (s *parseState) parseUpdate() {
	s.next()
	st := s.stmt()
	st.Kind = StmtUpdate
	s.setIndex(s.parseIndexName())
	s.expectKW("SET")
	for {
		st.Update.Attrs = append(st.Update.Attrs, s.parseUpdateItem())
		if !s.acceptPunct(",") {
			break
		}
	}
	s.expectKW("WHERE")
	s.parseWhere(false)
	s.parseOptionClause(false)
}

func (s *parseState) parseUpdateItem() UpdateAttr {
	col := s.parseColumnRef()
	attr := UpdateAttr{Name: strings.ToLower(s.text(col))}
	s.expectPunct("=")

	switch t := s.peek(); {
	case t.kind == tokString:
		s.next()
		attr.Type = AttrString
		attr.Str = t.str
	case t.isPunct("("):
		s.next()
		attr.Type = AttrUint32Set
		if !s.acceptPunct(")") {
			vals := s.parseIntList()
			s.expectPunct(")")
			slices.Sort(vals)
			attr.MVA = slices.Compact(vals)
			for _, v := range attr.MVA {
				if uint64(v) > math.MaxUint32 {
					attr.Type = AttrInt64Set
				}
			}
		}
	default:
		n := s.parseNumber()
		switch {
		case n.isFloat:
			attr.Type = AttrFloat
			attr.Float = float32(n.f)
		case n.i > math.MaxUint32:
			attr.Type = AttrBigint
			attr.Int = n.i
		default:
			attr.Type = AttrInteger
			attr.Int = n.i
		}
	}
	return attr
}

func (s *parseState) parseSet() {
	s.expectKW("SET")
	st := s.stmt()
	st.Kind = StmtSet

	switch t := s.peek(); {
	case t.isWord("NAMES"):
		s.next()
		s.parseSetValue()
		if s.acceptKW("COLLATE") {
			s.parseSetValue()
		}
		st.Kind = StmtDummy

	case t.isWord("TRANSACTION"):
		for !s.atEOF() && !s.isPunct(";") {
			s.next()
		}
		st.Kind = StmtDummy

	case t.kind == tokSysVar:
		s.next()
		s.expectPunct("=")
		s.parseSetValue()
		st.Kind = StmtDummy

	case t.isWord("GLOBAL"):
		s.next()
		if v := s.peek(); v.kind == tokUserVar {
			s.next()
			st.SetKind = SetGlobalUserVar
			st.SetName = strings.ToLower(v.text)
			st.SetValues = s.parseSetList()
			return
		}
		st.SetKind = SetGlobalServerVar
		st.SetName = s.expectIdent().text
		s.expectPunct("=")
		s.parseSetValue()

	case t.isWord("INDEX"):
		s.next()
		s.setIndex(s.parseIndexName())
		s.expectKW("GLOBAL")
		v := s.peek()
		if v.kind != tokUserVar {
			s.unexpected("USERVAR")
		}
		s.next()
		st.SetKind = SetIndexUserVar
		st.SetName = strings.ToLower(v.text)
		st.SetValues = s.parseSetList()

	default:
		s.acceptKW("SESSION")
		st.SetKind = SetLocal
		st.SetName = s.expectIdent().text
		s.expectPunct("=")
		s.parseSetValue()
	}
}

// parseSetList reads = (int, ...) into a sorted set.
func (s *parseState) parseSetList() []int64 {
	s.expectPunct("=")
	s.expectPunct("(")
	vals := s.parseIntList()
	s.expectPunct(")")
	slices.Sort(vals)
	return slices.Compact(vals)
}

// parseSetValue stores a SET right-hand side: integers and booleans go to
// SetIValue, names and strings to SetValue.
func (s *parseState) parseSetValue() {
	st := s.stmt()
	switch t := s.peek(); {
	case t.isWord("TRUE"):
		s.next()
		st.SetIValue = 1
	case t.isWord("FALSE"):
		s.next()
		st.SetIValue = 0
	case t.isWord("NULL"):
		s.next()
		st.SetValue = ""
	case t.kind == tokString:
		s.next()
		st.SetValue = t.str
	case t.kind == tokIdent:
		s.next()
		st.SetValue = t.text
	default:
		n := s.parseNumber()
		st.SetIValue = n.i
		st.SetValue = s.src[n.start:n.end]
	}
}

func (s *parseState) parseShow() {
	s.expectKW("SHOW")
	st := s.stmt()

	scoped := s.acceptKW("GLOBAL") || s.acceptKW("SESSION")
	t := s.peek()
	switch {
	case t.isWord("STATUS"):
		s.next()
		st.Kind = StmtShowStatus
		s.parseLike()
	case t.isWord("VARIABLES"):
		s.next()
		st.Kind = StmtShowVariables
		if s.acceptKW("WHERE") {
			s.expectIdent()
			s.expectPunct("=")
			st.Like = s.expectString().str
		} else {
			s.parseLike()
		}
	case scoped:
		s.unexpected("STATUS", "VARIABLES")
	case t.isWord("META"):
		s.next()
		st.Kind = StmtShowMeta
		s.parseLike()
	case t.isWord("WARNINGS"):
		s.next()
		st.Kind = StmtShowWarnings
	case t.isWord("TABLES"):
		s.next()
		st.Kind = StmtShowTables
		s.parseLike()
	case t.isWord("THREADS"):
		s.next()
		st.Kind = StmtShowThreads
		s.parseOptionClause(false)
	case t.isWord("PROFILE"):
		s.next()
		st.Kind = StmtShowProfile
	case t.isWord("PLAN"):
		s.next()
		st.Kind = StmtShowPlan
	case t.isWord("DATABASES"):
		s.next()
		st.Kind = StmtShowDatabases
	case t.isWord("CREATE"):
		s.next()
		s.expectKW("TABLE")
		st.Kind = StmtShowCreateTable
		s.setIndex(s.parseIndexName())
	case t.isWord("INDEX"):
		s.next()
		s.setIndex(s.parseIndexName())
		s.expectKW("STATUS")
		st.Kind = StmtShowIndexStatus
	default:
		s.unexpected()
	}
}

func (s *parseState) parseDescribe() {
	s.next()
	s.stmt().Kind = StmtDescribe
	s.setIndex(s.parseIndexName())
	s.parseLike()
}

// parseCall reads CALL proc(arg, ..., value AS name, ...). Named options
// must follow all positional arguments.
func (s *parseState) parseCall() {
	s.expectKW("CALL")
	st := s.stmt()
	st.Kind = StmtCall
	st.CallProc = strings.ToUpper(s.expectIdent().text)
	s.expectPunct("(")
	if s.acceptPunct(")") {
		return
	}
	for {
		v := s.parseValue()
		switch {
		case s.acceptKW("AS"):
			st.CallOptions = append(st.CallOptions, v)
			st.CallOptNames = append(st.CallOptNames, strings.ToLower(s.expectIdent().text))
		case len(st.CallOptions) > 0:
			s.unexpected("AS")
		default:
			st.CallArgs = append(st.CallArgs, v)
		}
		if !s.acceptPunct(",") {
			break
		}
	}
	s.expectPunct(")")
}

func (s *parseState) parseOptimize() {
	s.next()
	s.expectKW("INDEX")
	s.stmt().Kind = StmtOptimize
	s.setIndex(s.parseIndexName())
	s.parseOptionClause(false)
}

func (s *parseState) parseFlush() {
	s.next()
	st := s.stmt()
	switch {
	case s.acceptKW("RTINDEX"):
		st.Kind = StmtFlushRTIndex
	case s.acceptKW("RAMCHUNK"):
		st.Kind = StmtFlushRAMChunk
	default:
		s.unexpected("RTINDEX", "RAMCHUNK")
	}
	s.setIndex(s.parseIndexName())
}

func (s *parseState) parseTruncate() {
	s.next()
	s.expectKW("RTINDEX")
	st := s.stmt()
	st.Kind = StmtTruncateRTIndex
	s.setIndex(s.parseIndexName())
	if s.acceptKW("WITH") {
		s.expectKW("RECONFIGURE")
		st.WithReconfigure = true
	}
}

func (s *parseState) parseAttach() {
	s.next()
	s.expectKW("INDEX")
	st := s.stmt()
	st.Kind = StmtAttachIndex
	s.setIndex(s.parseIndexName())
	s.expectKW("TO")
	s.expectKW("RTINDEX")
	st.StringParam = s.parseIndexName()
	if s.acceptKW("WITH") {
		s.expectKW("TRUNCATE")
		st.WithTruncate = true
	}
}
