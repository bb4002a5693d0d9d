package bm3d

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// ParallelConfig configures parallel processing behavior, mirroring the
// worker-pool sizing policy in spec.md §5 (work-stealing pool sized
// max(1, cores-1)).
type ParallelConfig struct {
	// NumWorkers is the number of worker goroutines. 0 means
	// max(1, runtime.GOMAXPROCS(0)-1).
	NumWorkers int

	// GrainSize is the minimum work items per worker before parallelizing.
	GrainSize int
}

// DefaultParallelConfig returns the default parallel configuration.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		NumWorkers: 0,
		GrainSize:  1,
	}
}

var (
	parallelConfig   = DefaultParallelConfig()
	parallelConfigMu sync.RWMutex
)

// SetParallelConfig sets the global parallel configuration.
func SetParallelConfig(config ParallelConfig) {
	parallelConfigMu.Lock()
	defer parallelConfigMu.Unlock()
	parallelConfig = config
}

// GetParallelConfig returns the current parallel configuration.
func GetParallelConfig() ParallelConfig {
	parallelConfigMu.RLock()
	defer parallelConfigMu.RUnlock()
	return parallelConfig
}

func effectiveWorkers(config ParallelConfig) int {
	if config.NumWorkers > 0 {
		return config.NumWorkers
	}
	if n := runtime.GOMAXPROCS(0) - 1; n >= 1 {
		return n
	}
	return 1
}

// CancelToken is polled cooperatively between reference anchors (spec.md
// §5: "Cancellation is checked between reference anchors; per-anchor work
// is not interruptible"). The zero value never cancels.
type CancelToken struct {
	flag atomic.Bool
}

// Cancel marks the token as cancelled. Safe for concurrent use.
func (t *CancelToken) Cancel() {
	if t != nil {
		t.flag.Store(true)
	}
}

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool {
	return t != nil && t.flag.Load()
}

// ParallelFor runs fn(i) for i in [0, n) in parallel, stopping early (and
// returning false) if cancel fires between anchors. Per-thread work is
// never interrupted mid-iteration.
func ParallelFor(n int, cancel *CancelToken, fn func(i int)) bool {
	return ParallelForWorkers(n, cancel, func(_, i int) { fn(i) })
}

// ParallelForWorkers is ParallelFor with the assigned worker index passed
// alongside each item, so a caller can index per-worker state (e.g. the
// shadow accumulators runPass reduces at the end of a pass) without a
// shared mutex on the hot path.
func ParallelForWorkers(n int, cancel *CancelToken, fn func(worker, i int)) bool {
	config := GetParallelConfig()
	numWorkers := effectiveWorkers(config)

	if n <= config.GrainSize*numWorkers || numWorkers == 1 {
		for i := 0; i < n; i++ {
			if cancel.Cancelled() {
				return false
			}
			fn(0, i)
		}
		return true
	}

	var wg sync.WaitGroup
	chunkSize := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(worker, s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				if cancel.Cancelled() {
					return
				}
				fn(worker, i)
			}
		}(w, start, end)
	}

	wg.Wait()
	return !cancel.Cancelled()
}
