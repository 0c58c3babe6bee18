// Package parallel provides the worker-pool helper used by the CPU kernels.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how work is split across goroutines.
type Config struct {
	Enabled    bool // Whether to fan out at all.
	NumWorkers int  // Number of worker goroutines.
	MinChunk   int  // Minimum iterations per goroutine; below this, run sequentially.
}

// Default returns a configuration sized to the machine's CPU count.
func Default() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinChunk:   16,
	}
}

// For executes f(i) for every i in [0, n), possibly across goroutines.
//
// Each index is visited exactly once and For returns only after every call
// has completed, so callers may rely on the full output being materialized.
// f must not share mutable state across indices.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunk || cfg.NumWorkers < 2 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := (n + cfg.NumWorkers - 1) / cfg.NumWorkers
	if chunk < cfg.MinChunk {
		chunk = cfg.MinChunk
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
