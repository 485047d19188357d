package pixellizer

import (
	"golang.org/x/sync/errgroup"
	"runtime"
)

// forEachRow calls fn for every row in [0, height), spreading contiguous
// chunks of rows over GOMAXPROCS goroutines. fn must only touch its own row.
func forEachRow(height int, fn func(y int)) {
	if height <= 0 {
		return
	}

	workers := min(runtime.GOMAXPROCS(0), height)
	if workers == 1 {
		for y := range height {
			fn(y)
		}
		return
	}

	chunk := (height + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < height; start += chunk {
		end := min(start+chunk, height)
		g.Go(func() error {
			for y := start; y < end; y++ {
				fn(y)
			}
			return nil
		})
	}
	_ = g.Wait()
}
