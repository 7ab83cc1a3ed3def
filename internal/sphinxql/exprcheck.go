package sphinxql

import (
	"fmt"
	"strings"
)

// Schema is the attribute set filters are validated against.
type Schema interface {
	HasAttr(name string) bool
}

// AttrSet is a Schema over a fixed list of attribute names.
type AttrSet map[string]struct{}

// NewAttrSet builds a case-insensitive attribute set.
func NewAttrSet(names ...string) AttrSet {
	set := make(AttrSet, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}

// HasAttr implements Schema.
func (a AttrSet) HasAttr(name string) bool {
	_, ok := a[strings.ToLower(name)]
	return ok
}

// ExprChecker validates a free-form expression used as a filter when the
// text is not a plain filter list.
type ExprChecker interface {
	Check(expr string, schema Schema) error
}

// SyntaxChecker is the built-in ExprChecker. It checks the expression's
// shape with the select-list grammar and that every column it references
// exists in the schema.
type SyntaxChecker struct{}

const headerExpr = "expression:"

// Check implements ExprChecker.
func (SyntaxChecker) Check(expr string, schema Schema) error {
	s := newParseState(expr, headerExpr, &Options{})
	s.collectIdents = true
	if err := s.run(func() {
		if s.atEOF() {
			s.unexpected()
		}
		s.parseExpr()
		if !s.atEOF() {
			s.unexpected()
		}
	}); err != nil {
		return err
	}

	if schema == nil {
		return nil
	}
	for _, id := range s.idents {
		if !schema.HasAttr(id) {
			return semantic(fmt.Sprintf("unknown column '%s'", id))
		}
	}
	return nil
}
