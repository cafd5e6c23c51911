// Copyright 2025 The affiners Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent, reusable worker pool for
// fork/join loops over independent output slabs. A Pool is created once and
// reused across many resampling calls, so no goroutines are spawned per call.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	pool.ForEach(depth, func(z int) {
//	    resamplePlane(z)
//	})
//
// A sequential pool runs the same loops on the calling goroutine and is the
// reference for determinism checks: every loop body writes disjoint output,
// so both kinds of pool produce identical results.
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool that can be reused across many parallel
// operations. Workers are spawned once at creation and reused.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

// workItem is one worker's share of a loop.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a new worker pool with the specified number of workers.
// Workers are spawned immediately and persist until Close is called.
// If numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

// Sequential returns a pool that never spawns goroutines. Every loop runs
// in index order on the caller's goroutine.
func Sequential() *Pool {
	p := &Pool{numWorkers: 1}
	p.closed.Store(true)
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Parallel reports whether loops on this pool may run concurrently.
func (p *Pool) Parallel() bool {
	return !p.closed.Load() && p.numWorkers > 1
}

// Close shuts down the worker pool. All pending work will complete.
// Calling Close multiple times is safe; a closed pool keeps working
// sequentially.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		if p.closed.Swap(true) {
			return
		}
		close(p.workC)
	})
}

// run hands body to the given number of workers and waits for all of them.
func (p *Pool) run(workers int, body func()) {
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.workC <- workItem{fn: body, barrier: &wg}
	}
	wg.Wait()
}

// ForEach calls fn for each index in [0, n), distributing indices by atomic
// work stealing. This balances load when work per index varies, such as
// output planes that fall partly outside the source volume.
// Blocks until all work completes.
func (p *Pool) ForEach(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers := min(p.numWorkers, n)
	if p.closed.Load() || workers == 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	var next atomic.Int64
	p.run(workers, func() {
		for {
			i := int(next.Add(1)) - 1
			if i >= n {
				return
			}
			fn(i)
		}
	})
}

// ForBatches calls fn(start, end) for consecutive batches of batchSize
// indices, handed out by atomic work stealing. It suits loops with many
// cheap items, such as scattered point samples.
func (p *Pool) ForBatches(n, batchSize int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	numBatches := (n + batchSize - 1) / batchSize
	workers := min(p.numWorkers, numBatches)
	if p.closed.Load() || workers == 1 {
		for start := 0; start < n; start += batchSize {
			fn(start, min(start+batchSize, n))
		}
		return
	}

	var next atomic.Int64
	p.run(workers, func() {
		for {
			start := (int(next.Add(1)) - 1) * batchSize
			if start >= n {
				return
			}
			fn(start, min(start+batchSize, n))
		}
	})
}
