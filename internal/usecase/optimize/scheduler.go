// Package optimize runs index optimize tasks in the background.
package optimize

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchd/internal/metrics"
)

// Task asks for the chunks of Index in [From, To] to be merged. Negative
// bounds mean the whole index.
type Task struct {
	Index string
	From  int
	To    int
}

// Task outcomes, also used as metric labels.
const (
	StatusDone     = "done"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusRejected = "rejected"
)

var (
	// ErrClosed is returned by Enqueue after Close.
	ErrClosed = errors.New("optimize: scheduler is closed")
	// ErrQueueFull is returned when the backlog is at capacity.
	ErrQueueFull = errors.New("optimize: queue is full")
)

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Queued   int64
	Running  int64
	Done     int64
	Failed   int64
	Skipped  int64
	Rejected int64
}

// Scheduler executes tasks on a bounded worker pool. Enqueue never blocks;
// tasks beyond the queue size are rejected.
type Scheduler struct {
	lookup Lookup
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	queue  chan Task
	pool   *pool.ContextPool
	done   chan struct{}

	mu     sync.RWMutex
	closed bool

	queued   atomic.Int64
	running  atomic.Int64
	finished atomic.Int64
	failed   atomic.Int64
	skipped  atomic.Int64
	rejected atomic.Int64
}

// New starts a scheduler with the given number of workers and queue size.
func New(lookup Lookup, workers, queueSize int, logger *zap.Logger) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		lookup: lookup,
		logger: logger.Named("optimize"),
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan Task, queueSize),
		pool:   pool.New().WithMaxGoroutines(workers).WithContext(ctx),
		done:   make(chan struct{}),
	}
	go s.dispatch()
	return s
}

// Enqueue schedules t. It is fire-and-forget: the outcome is only logged
// and counted.
func (s *Scheduler) Enqueue(t Task) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.reject(t, ErrClosed)
		return ErrClosed
	}
	s.queued.Inc()
	select {
	case s.queue <- t:
		return nil
	default:
		s.queued.Dec()
		s.reject(t, ErrQueueFull)
		return ErrQueueFull
	}
}

func (s *Scheduler) reject(t Task, err error) {
	s.rejected.Inc()
	metrics.OptimizeTasksTotal.WithLabelValues(StatusRejected).Inc()
	s.logger.Warn("optimize task rejected", zap.String("index", t.Index), zap.Error(err))
}

// dispatch feeds the pool; pool.Go blocks while all workers are busy.
func (s *Scheduler) dispatch() {
	defer close(s.done)
	for t := range s.queue {
		s.queued.Dec()
		s.pool.Go(func(ctx context.Context) error {
			s.run(ctx, t)
			return nil
		})
	}
	_ = s.pool.Wait()
}

func (s *Scheduler) run(ctx context.Context, t Task) {
	log := s.logger.With(zap.String("index", t.Index), zap.Int("from", t.From), zap.Int("to", t.To))

	idx, ok := s.lookup(t.Index)
	if !ok {
		s.skipped.Inc()
		metrics.OptimizeTasksTotal.WithLabelValues(StatusSkipped).Inc()
		log.Info("optimize skipped, index is not served")
		return
	}

	s.running.Inc()
	defer s.running.Dec()

	start := time.Now()
	idx.Lock()
	err := idx.Optimize(ctx, t.From, t.To)
	idx.Unlock()

	if err != nil {
		s.failed.Inc()
		metrics.OptimizeTasksTotal.WithLabelValues(StatusFailed).Inc()
		log.Error("optimize failed", zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	s.finished.Inc()
	metrics.OptimizeTasksTotal.WithLabelValues(StatusDone).Inc()
	log.Info("optimize finished", zap.Duration("took", time.Since(start)))
}

// Stats returns current counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Queued:   s.queued.Load(),
		Running:  s.running.Load(),
		Done:     s.finished.Load(),
		Failed:   s.failed.Load(),
		Skipped:  s.skipped.Load(),
		Rejected: s.rejected.Load(),
	}
}

// HealthCheck reports ErrClosed once the scheduler stops accepting tasks.
func (s *Scheduler) HealthCheck(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close stops accepting tasks and waits for queued ones to finish. If ctx
// expires first, running tasks are canceled and Close returns ctx.Err()
// once they have returned.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-s.done
		return ctx.Err()
	}
}
