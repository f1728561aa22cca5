// Package fanout runs one task per input item with bounded concurrency.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit applies when a non-positive limit is given.
const DefaultLimit = 8

// Outcome is the result of one item.
type Outcome[R any] struct {
	Index int
	Value R
	Err   error
}

// Run calls fn for every item and returns the outcomes indexed like items.
// Goroutines are started in input order, at most limit run at once, and a
// failing item never stops the others. The batch runs detached from ctx
// cancellation; each fn still receives a context carrying ctx's values.
func Run[T, R any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T) (R, error)) []Outcome[R] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	detached := context.WithoutCancel(ctx)

	outcomes := make([]Outcome[R], len(items))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			v, err := fn(detached, item)
			outcomes[i] = Outcome[R]{Index: i, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Split partitions outcomes into successes and failures.
func Split[R any](outcomes []Outcome[R]) (fulfilled []Outcome[R], rejected []Outcome[R]) {
	for _, o := range outcomes {
		if o.Err != nil {
			rejected = append(rejected, o)
			continue
		}
		fulfilled = append(fulfilled, o)
	}
	return fulfilled, rejected
}
