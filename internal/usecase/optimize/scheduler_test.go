package optimize

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	mu     sync.Mutex
	locked bool
	calls  [][2]int
	err    error
	gate   chan struct{}
}

func (f *fakeIndex) Lock() {
	f.mu.Lock()
	f.locked = true
	f.mu.Unlock()
}

func (f *fakeIndex) Unlock() {
	f.mu.Lock()
	f.locked = false
	f.mu.Unlock()
}

func (f *fakeIndex) Optimize(ctx context.Context, from, to int) error {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.locked {
		return errors.New("optimize without lock")
	}
	f.calls = append(f.calls, [2]int{from, to})
	return f.err
}

func (f *fakeIndex) Calls() [][2]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]int(nil), f.calls...)
}

func lookupOf(indexes map[string]*fakeIndex) Lookup {
	return func(name string) (Index, bool) {
		idx, ok := indexes[name]
		if !ok {
			return nil, false
		}
		return idx, true
	}
}

func closeNow(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))
}

func TestScheduler_RunsUnderLock(t *testing.T) {
	idx := &fakeIndex{}
	s := New(lookupOf(map[string]*fakeIndex{"products": idx}), 2, 8, nil)

	require.NoError(t, s.Enqueue(Task{Index: "products", From: -1, To: -1}))
	require.NoError(t, s.Enqueue(Task{Index: "products", From: 1, To: 3}))
	closeNow(t, s)

	assert.ElementsMatch(t, [][2]int{{-1, -1}, {1, 3}}, idx.Calls())
	assert.Equal(t, Stats{Done: 2}, s.Stats())
}

func TestScheduler_SkipsMissingIndex(t *testing.T) {
	s := New(lookupOf(nil), 1, 4, nil)
	require.NoError(t, s.Enqueue(Task{Index: "gone"}))
	closeNow(t, s)

	assert.Equal(t, int64(1), s.Stats().Skipped)
	assert.Zero(t, s.Stats().Done)
}

func TestScheduler_CountsFailures(t *testing.T) {
	idx := &fakeIndex{err: errors.New("disk full")}
	s := New(lookupOf(map[string]*fakeIndex{"t": idx}), 1, 4, nil)
	require.NoError(t, s.Enqueue(Task{Index: "t", From: -1, To: -1}))
	closeNow(t, s)

	assert.Equal(t, int64(1), s.Stats().Failed)
}

func TestScheduler_QueueFull(t *testing.T) {
	idx := &fakeIndex{gate: make(chan struct{})}
	s := New(lookupOf(map[string]*fakeIndex{"t": idx}), 1, 1, nil)

	require.NoError(t, s.Enqueue(Task{Index: "t"}))
	require.Eventually(t, func() bool { return s.Stats().Running == 1 }, time.Second, time.Millisecond)

	// The dispatcher takes the second task and waits for a free worker.
	require.NoError(t, s.Enqueue(Task{Index: "t"}))
	require.Eventually(t, func() bool { return s.Stats().Queued == 0 }, time.Second, time.Millisecond)

	require.NoError(t, s.Enqueue(Task{Index: "t"}))
	require.ErrorIs(t, s.Enqueue(Task{Index: "t"}), ErrQueueFull)

	close(idx.gate)
	closeNow(t, s)

	st := s.Stats()
	assert.Equal(t, int64(3), st.Done)
	assert.Equal(t, int64(1), st.Rejected)
}

func TestScheduler_Closed(t *testing.T) {
	s := New(lookupOf(nil), 1, 1, nil)
	require.NoError(t, s.HealthCheck(context.Background()))

	closeNow(t, s)
	closeNow(t, s)

	require.ErrorIs(t, s.Enqueue(Task{Index: "t"}), ErrClosed)
	require.ErrorIs(t, s.HealthCheck(context.Background()), ErrClosed)
	assert.Equal(t, int64(1), s.Stats().Rejected)
}

func TestScheduler_CloseDeadlineCancelsRunning(t *testing.T) {
	idx := &fakeIndex{gate: make(chan struct{})}
	s := New(lookupOf(map[string]*fakeIndex{"t": idx}), 1, 1, nil)

	require.NoError(t, s.Enqueue(Task{Index: "t"}))
	require.Eventually(t, func() bool { return s.Stats().Running == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Close(ctx), context.DeadlineExceeded)

	assert.Equal(t, int64(1), s.Stats().Failed)
	assert.Zero(t, s.Stats().Running)
}
