package sphinxql

import "errors"

var (
	// ErrSyntax matches grammar-level rejections.
	ErrSyntax = errors.New("sphinxql: syntax error")
	// ErrSemantic matches recognized but invalid constructs.
	ErrSemantic = errors.New("sphinxql: invalid statement")
)

// ErrorKind classifies parse errors.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota
	KindSemantic
)

func (k ErrorKind) String() string {
	if k == KindSyntax {
		return "syntax"
	}
	return "semantic"
}

// Error is a parse failure. Msg is the complete client-facing text.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Is matches ErrSyntax and ErrSemantic by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrSyntax:
		return e.Kind == KindSyntax
	case ErrSemantic:
		return e.Kind == KindSemantic
	}
	return false
}

func semantic(msg string) *Error {
	return &Error{Kind: KindSemantic, Msg: msg}
}
