package anywork

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Work is one unit handed to a Group.
type Work func(ctx context.Context) error

// Group runs backlogged work on a bounded number of goroutines.
// The first failure cancels the group context and is returned by Sync.
type Group struct {
	parent context.Context
	ctx    context.Context
	group  *errgroup.Group
}

// DefaultLimit mirrors the number of usable CPUs, with a floor for I/O bound fan-out.
func DefaultLimit() int {
	limit := runtime.NumCPU() * 2
	if limit < 4 {
		limit = 4
	}
	return limit
}

func NewGroup(ctx context.Context, limit int) *Group {
	if limit < 1 {
		limit = DefaultLimit()
	}
	group, inner := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	return &Group{
		parent: ctx,
		ctx:    inner,
		group:  group,
	}
}

// Backlog schedules todo, blocking while all slots are busy.
func (it *Group) Backlog(todo Work) {
	if todo == nil {
		return
	}
	it.group.Go(func() error {
		if it.ctx.Err() != nil {
			return nil
		}
		return todo(it.ctx)
	})
}

// Sync waits for all backlogged work and reports the first failure.
func (it *Group) Sync() error {
	if err := it.group.Wait(); err != nil {
		return err
	}
	return it.parent.Err()
}

// Fanout runs todo once per index in [0, count) and waits for all of them.
func Fanout(ctx context.Context, count, limit int, todo func(ctx context.Context, index int) error) error {
	group := NewGroup(ctx, limit)
	for index := 0; index < count; index++ {
		at := index
		group.Backlog(func(ctx context.Context) error {
			return todo(ctx, at)
		})
	}
	return group.Sync()
}
