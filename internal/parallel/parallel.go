// Package parallel provides the worker-slicing loop used by the CPU-bound
// stages: a range [0, n) is split into contiguous chunks, one goroutine per
// chunk, and the call blocks until every chunk is done. Chunks share no
// state, so the callback must only write to its own slice of the output.
package parallel

import (
	"runtime"
	"sync"
)

// For runs fn over [0, n) split across the given number of workers.
// workers <= 0 means one worker per available CPU. Each invocation of fn
// receives a half-open index range [start, end).
func For(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
