package optimize

import "context"

// Index is a served index that can merge its disk chunks. Optimize is
// called with the write lock held, so it excludes readers for its whole run.
type Index interface {
	Lock()
	Unlock()
	Optimize(ctx context.Context, from, to int) error
}

// Lookup resolves a served index by name.
type Lookup func(name string) (Index, bool)
