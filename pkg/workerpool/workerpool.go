// Package workerpool runs independent tasks on a bounded number of goroutines.
package workerpool

import (
	"context"
	"sync"
)

// Task is one unit of work.
type Task func(ctx context.Context) error

// Run executes tasks with at most workers of them in flight. The first failure
// cancels the context seen by running tasks, skips tasks not yet started and is
// returned.
func Run(ctx context.Context, workers int, tasks ...Task) error {
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan Task)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				if ctx.Err() != nil {
					continue
				}
				if err := task(ctx); err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
				}
			}
		}()
	}

feed:
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			break feed
		case queue <- task:
		}
	}
	close(queue)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
