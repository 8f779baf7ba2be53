// Package dispatcher provides the bounded worker pool both crawlers fan out on.
package dispatcher

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Policy sizes a Pool.
type Policy struct {
	// Workers caps the number of tasks running at once. Values below one mean one.
	Workers int
}

// Pool bounds concurrent task execution.
type Pool struct {
	workers int
}

// New creates a Pool from the policy.
func New(policy Policy) *Pool {
	workers := policy.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers reports the pool's concurrency limit.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// Task handles one input. index is the input's position.
type Task[T, R any] func(ctx context.Context, index int, input T) (R, error)

// Map runs task once per input on the pool and returns results in input order.
// The first task error cancels the context handed to the remaining tasks and is returned;
// results of tasks that completed are still populated.
func Map[T, R any](ctx context.Context, pool *Pool, inputs []T, task Task[T, R]) ([]R, error) {
	results := make([]R, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pool.Workers())
	for i, input := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("task %d: %w", i, err)
			}
			out, err := task(gctx, i, input)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
