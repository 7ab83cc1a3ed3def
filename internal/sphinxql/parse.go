// Package sphinxql parses the SQL dialect of the search daemon into
// structured statements.
//
// Parsing never evaluates expressions: select lists and ORDER BY clauses
// are delimited and kept verbatim for the expression engine, while WHERE
// clauses become filter lists with an optional boolean filter tree.
package sphinxql

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchd/internal/domain/query"
)

// DefaultAgentQueryTimeout is used when Options leaves it zero, in msec.
const DefaultAgentQueryTimeout = 3000

// Options is the read-only configuration shared by all parse calls.
type Options struct {
	AgentQueryTimeout int
	Collation         query.Collation
	// AllowDeprecated accepts the legacy @count/@weight identifiers.
	AllowDeprecated bool

	Plugins     PluginRegistry
	DDL         DDLParser
	ExprChecker ExprChecker
}

// Parser parses query text. It is safe for concurrent use.
type Parser struct {
	opts Options
}

// New returns a parser. Unset collaborators get the built-in ones.
func New(opts Options) *Parser {
	if opts.AgentQueryTimeout == 0 {
		opts.AgentQueryTimeout = DefaultAgentQueryTimeout
	}
	if opts.ExprChecker == nil {
		opts.ExprChecker = SyntaxChecker{}
	}
	p := &Parser{opts: opts}
	if p.opts.DDL == nil {
		p.opts.DDL = ddlParser{opts: &p.opts}
	}
	return p
}

// Parse parses text into statements. Schema statements are handed to the
// configured DDLParser.
func (p *Parser) Parse(text string) ([]Stmt, error) {
	if text == "" {
		return nil, semantic("query was empty")
	}
	if IsDDL(text) {
		return p.opts.DDL.ParseDDL(text)
	}

	s := newParseState(text, headerSQL, &p.opts)
	if err := s.run(s.parseRequest); err != nil {
		return nil, err
	}
	return s.finish()
}

// ParseFilterExpression parses a stand-alone filter list such as
// "gid=5 AND price>10" and checks every attribute against schema. Text
// that fails to parse before any filter was built is accepted as a single
// expression filter if the ExprChecker approves it.
func (p *Parser) ParseFilterExpression(text string, schema Schema) ([]query.Filter, []query.FilterTreeItem, error) {
	if text == "" {
		return nil, nil, nil
	}

	s := newParseState("sysfilters "+text, headerFilters, &p.opts)
	perr := s.run(s.parseRequest)
	if perr != nil {
		if !strings.HasPrefix(perr.Msg, headerFilters+" syntax error") || s.parsedFilters() {
			return nil, nil, perr
		}
		if err := p.opts.ExprChecker.Check(text, schema); err != nil {
			return nil, nil, err
		}
		return []query.Filter{query.NewFilter(text, query.FilterExpression)}, nil, nil
	}

	stmts := s.stmts[:len(s.stmts)-1]
	if len(stmts) > 1 {
		return nil, nil, semantic(fmt.Sprintf("internal error: too many filter statements, got %d", len(stmts)))
	}
	if stmts[0].Kind != StmtSysFilters {
		return nil, nil, semantic(fmt.Sprintf("internal error: not filter statement parsed, got %s", stmts[0].Kind))
	}

	filters := stmts[0].Query.Filters
	tree := createFilterTree(s.tree, 0, s.filtersPerStmt[0])
	for i, f := range filters {
		if err := checkFilterAttr(i, f.Attr, schema); err != nil {
			return nil, nil, err
		}
	}
	return filters, tree, nil
}

func (s *parseState) parsedFilters() bool {
	for i := range s.stmts {
		if len(s.stmts[i].Query.Filters) > 0 {
			return true
		}
	}
	return false
}

// checkFilterAttr validates a filter column; for a JSON path only the
// attribute before the first dot has to exist.
func checkFilterAttr(i int, attr string, schema Schema) error {
	if attr == "" {
		return semantic(fmt.Sprintf("bad filter %d name", i))
	}
	if strings.HasPrefix(attr, "@") {
		return semantic(fmt.Sprintf("unsupported filter column '%s'", attr))
	}
	if root, _, ok := strings.Cut(attr, "."); ok {
		attr = root
	}
	if schema == nil || !schema.HasAttr(attr) {
		return semantic(fmt.Sprintf("no such filter attribute '%s'", attr))
	}
	return nil
}

var defaultParser = New(Options{})

// Parse parses text with default options.
func Parse(text string) ([]Stmt, error) { return defaultParser.Parse(text) }

// ParseFilterExpression parses a filter list with default options.
func ParseFilterExpression(text string, schema Schema) ([]query.Filter, []query.FilterTreeItem, error) {
	return defaultParser.ParseFilterExpression(text, schema)
}
