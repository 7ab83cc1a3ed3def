package sql

import (
	"context"

	"github.com/kailas-cloud/searchd/internal/sphinxql"
	"github.com/kailas-cloud/searchd/internal/usecase/optimize"
)

// Parser turns query text into statements.
type Parser interface {
	Parse(text string) ([]sphinxql.Stmt, error)
}

// Scheduler accepts background optimize tasks.
type Scheduler interface {
	Enqueue(t optimize.Task) error
}

// Executor runs parsed statements.
type Executor interface {
	Submit(ctx context.Context, stmts []sphinxql.Stmt) error
}
