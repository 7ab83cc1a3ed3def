package sphinxql

import "strings"

// DDLParser parses schema statements. Parse hands it any input whose first
// keyword is CREATE, DROP, ALTER or IMPORT.
type DDLParser interface {
	ParseDDL(text string) ([]Stmt, error)
}

var ddlKeywords = []string{"CREATE", "DROP", "ALTER", "IMPORT"}

// IsDDL reports whether text starts with a schema statement keyword.
// Multi-statement input is never DDL, so only the first word matters.
func IsDDL(text string) bool {
	t := lex(text)[0]
	for _, kw := range ddlKeywords {
		if t.isWord(kw) {
			return true
		}
	}
	return false
}

// ddlParser is the default DDLParser.
type ddlParser struct {
	opts *Options
}

func (d ddlParser) ParseDDL(text string) ([]Stmt, error) {
	s := newParseState(text, headerSQL, d.opts)
	if err := s.run(func() {
		s.parseDDL()
		s.acceptPunct(";")
		if !s.atEOF() {
			s.unexpected()
		}
	}); err != nil {
		return nil, err
	}
	return s.stmts[:1], nil
}

func (s *parseState) parseDDL() {
	st := s.stmt()
	st.DDL = &DDLStmt{}
	switch t := s.peek(); {
	case t.isWord("CREATE"):
		s.next()
		s.expectKW("TABLE")
		st.Kind = StmtCreateTable
		st.DDL.IfNotExists = s.parseIfClause(true)
		s.setIndex(s.parseIndexName())
		if s.acceptKW("LIKE") {
			st.DDL.Like = s.parseIndexName()
			return
		}
		s.expectPunct("(")
		for {
			st.DDL.Columns = append(st.DDL.Columns, s.parseColumnDef())
			if !s.acceptPunct(",") {
				break
			}
		}
		s.expectPunct(")")
		for s.isIdent() {
			st.DDL.Options = append(st.DDL.Options, s.parseTableOption())
		}

	case t.isWord("DROP"):
		s.next()
		s.expectKW("TABLE")
		st.Kind = StmtDropTable
		st.DDL.IfExists = s.parseIfClause(false)
		s.setIndex(s.parseIndexName())

	case t.isWord("ALTER"):
		s.next()
		s.expectKW("TABLE")
		s.setIndex(s.parseIndexName())
		switch {
		case s.acceptKW("ADD"):
			st.Kind = StmtAlterAdd
			s.expectKW("COLUMN")
			st.DDL.Columns = append(st.DDL.Columns, s.parseColumnDef())
		case s.acceptKW("DROP"):
			st.Kind = StmtAlterDrop
			s.expectKW("COLUMN")
			st.DDL.Columns = append(st.DDL.Columns, ColumnDef{Name: strings.ToLower(s.expectIdent().text)})
		default:
			s.unexpected("ADD", "DROP")
		}

	case t.isWord("IMPORT"):
		s.next()
		s.expectKW("TABLE")
		st.Kind = StmtImportTable
		s.setIndex(s.parseIndexName())
		s.expectKW("FROM")
		st.DDL.Path = s.expectString().str

	default:
		s.unexpected()
	}
}

// parseIfClause reads IF [NOT] EXISTS.
func (s *parseState) parseIfClause(not bool) bool {
	if !s.isKW("IF") {
		return false
	}
	s.next()
	if not {
		s.expectKW("NOT")
	}
	s.expectKW("EXISTS")
	return true
}

// parseColumnDef reads "name type [flag ...]".
func (s *parseState) parseColumnDef() ColumnDef {
	c := ColumnDef{
		Name: strings.ToLower(s.expectIdent().text),
		Type: strings.ToLower(s.expectIdent().text),
	}
	for s.isIdent() {
		c.Options = append(c.Options, strings.ToLower(s.next().text))
	}
	return c
}

func (s *parseState) parseTableOption() TableOption {
	name := strings.ToLower(s.next().text)
	s.expectPunct("=")
	v := s.peek()
	switch v.kind {
	case tokString:
		s.next()
		return TableOption{Name: name, Value: v.str}
	case tokInt, tokIdent:
		s.next()
		return TableOption{Name: name, Value: v.text}
	}
	s.unexpected("QUOTED_STRING")
	return TableOption{}
}
