// Package parallel provides the chunked and per-index fan-out helpers used by
// estimators for data-parallel work.
//
// Work functions run under errors.SafeExecute, so a panic on any goroutine is
// returned to the caller as a *errors.PanicError instead of crashing the
// process.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/sefr/pkg/errors"
)

// DefaultThreshold is the work size at or below which
// ParallelizeWithThreshold stays on the calling goroutine.
const DefaultThreshold = 1000

// ParallelizeN divides items into contiguous ranges, one per worker, and runs
// fn(start, end) for each range concurrently. workers <= 0 means
// runtime.NumCPU(). It returns when all ranges are done. If several ranges
// panic, the error of the lowest range is returned.
func ParallelizeN(items, workers int, fn func(start, end int)) error {
	if items <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	// ceiling division
	chunkSize := (items + workers - 1) / workers

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(i, s, e int) {
			defer wg.Done()
			errs[i] = errors.SafeExecute("parallel.ParallelizeN", func() error {
				fn(s, e)
				return nil
			})
		}(i, start, end)
	}
	wg.Wait()
	return firstError(errs)
}

// ParallelizeWithThreshold runs fn(0, items) on the calling goroutine when
// work <= threshold or only one worker is allowed, and hands off to
// ParallelizeN otherwise. work is the caller's cost estimate, for example
// rows*columns when each item scans a whole column.
func ParallelizeWithThreshold(items, work, threshold, workers int, fn func(start, end int)) error {
	if workers == 1 || work <= threshold {
		return errors.SafeExecute("parallel.ParallelizeWithThreshold", func() error {
			fn(0, items)
			return nil
		})
	}
	return ParallelizeN(items, workers, fn)
}

// ForEach calls body(i) for every i in [0, length) with at most limit
// goroutines in flight. limit <= 0 means one at a time. Every index runs even
// when another fails; the error of the lowest failing index is returned.
func ForEach(length, limit int, body func(i int) error) error {
	if length <= 0 {
		return nil
	}
	if limit <= 0 {
		limit = 1
	}

	errs := make([]error, length)
	call := func(i int) {
		errs[i] = errors.SafeExecute("parallel.ForEach", func() error {
			return body(i)
		})
	}
	if limit == 1 {
		for i := 0; i < length; i++ {
			call(i)
		}
		return firstError(errs)
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)
	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			call(i)
		}(i)
	}
	wg.Wait()
	return firstError(errs)
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
