// Package sql accepts SphinxQL text, parses it and hands the statements on.
package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchd/internal/logger"
	"github.com/kailas-cloud/searchd/internal/metrics"
	"github.com/kailas-cloud/searchd/internal/sphinxql"
	"github.com/kailas-cloud/searchd/internal/usecase/optimize"
)

// Result is the outcome of one request.
type Result struct {
	Statements []sphinxql.Stmt
	// Scheduled counts OPTIMIZE statements queued for background work.
	Scheduled int
	Warnings  []string
}

// Service parses requests, schedules OPTIMIZE and submits the rest.
type Service struct {
	parser    Parser
	scheduler Scheduler
	executor  Executor
}

// New creates a Service. scheduler and executor can be nil; OPTIMIZE is then
// passed to the executor like any other statement.
func New(parser Parser, scheduler Scheduler, executor Executor) *Service {
	return &Service{parser: parser, scheduler: scheduler, executor: executor}
}

// Execute parses text. A parse failure is returned wrapped; the client
// message is the wrapped *sphinxql.Error.
func (s *Service) Execute(ctx context.Context, text string) (Result, error) {
	log := logger.FromContext(ctx)

	start := time.Now()
	stmts, err := s.parser.Parse(text)
	metrics.ParseDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := "internal"
		var perr *sphinxql.Error
		if errors.As(err, &perr) {
			kind = perr.Kind.String()
		}
		metrics.ParseErrorsTotal.WithLabelValues(kind).Inc()
		log.Debug("query rejected", zap.String("kind", kind), zap.Error(err))
		return Result{}, fmt.Errorf("parse query: %w", err)
	}

	res := Result{Statements: stmts}
	rest := make([]sphinxql.Stmt, 0, len(stmts))
	for i := range stmts {
		st := &stmts[i]
		metrics.StatementsTotal.WithLabelValues(st.Kind.String()).Inc()

		if st.Kind != sphinxql.StmtOptimize || s.scheduler == nil {
			rest = append(rest, *st)
			continue
		}
		if err := s.scheduler.Enqueue(optimize.Task{Index: st.Index, From: -1, To: -1}); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("optimize %s: %v", st.Index, err))
			continue
		}
		res.Scheduled++
		log.Info("optimize scheduled", zap.String("index", st.Index))
	}

	if s.executor != nil && len(rest) > 0 {
		if err := s.executor.Submit(ctx, rest); err != nil {
			return res, fmt.Errorf("submit statements: %w", err)
		}
	}
	return res, nil
}
