// Package utils provides the shared concurrency and vector helpers.
package utils

import (
	"context"
	"sync"
)

// DefaultConcurrency bounds fan-out when callers do not specify a limit.
const DefaultConcurrency = 8

// ExecuteWithResults runs functions concurrently under a semaphore and
// returns their results and errors positionally. Panics inside a function
// are recovered and reported as that slot's error; one failing function
// never affects the others.
func ExecuteWithResults[T any](ctx context.Context, maxConcurrency int, functions ...func() (T, error)) ([]T, []error) {
	if len(functions) == 0 {
		return nil, nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultConcurrency
	}

	semaphore := make(chan struct{}, maxConcurrency)
	results := make([]T, len(functions))
	errs := make([]error, len(functions))
	var wg sync.WaitGroup

	for i, fn := range functions {
		wg.Add(1)
		go func(index int, function func() (T, error)) {
			defer wg.Done()
			defer RecoverWithCallback(func(err error) {
				errs[index] = err
			})

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				errs[index] = ctx.Err()
				return
			}

			results[index], errs[index] = function()
		}(i, fn)
	}

	wg.Wait()
	return results, errs
}
