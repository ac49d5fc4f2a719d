package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelTask is one independent fetch. Tasks write their own results.
type ParallelTask func(ctx context.Context) error

// RunParallel executes tasks concurrently and returns the first error. The
// context passed to the tasks is cancelled as soon as one of them fails.
func RunParallel(ctx context.Context, tasks ...ParallelTask) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error { return task(ctx) })
	}
	return g.Wait()
}

// Fetch adapts a typed getter into a ParallelTask storing its result in dst.
func Fetch[T any](dst *T, get func(ctx context.Context) (T, error)) ParallelTask {
	return func(ctx context.Context) error {
		v, err := get(ctx)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}
