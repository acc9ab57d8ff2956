// Package parallel provides the fixed-size fork-join worker pool used to
// partition per-timestep force evaluation across threads.
//
// The pool owns long-lived goroutines; Run hands every worker the same task
// together with its worker index and blocks until all workers return. Work
// partitioning (typically round-robin striding by index) is the task's
// responsibility. There is no cancellation: a task that panics takes the
// process down, which is the intended fail-fast behavior for a deterministic
// compute kernel.
package parallel

import (
	"runtime"
	"sync"
)

// Pool is a fixed-size set of worker goroutines with fork-join semantics.
type Pool struct {
	work      []chan func(int)
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewPool creates a pool with the given number of workers. A value <= 0
// selects runtime.GOMAXPROCS(0).
func NewPool(numThreads int) *Pool {
	if numThreads <= 0 {
		numThreads = runtime.GOMAXPROCS(0)
	}
	p := &Pool{work: make([]chan func(int), numThreads)}
	for i := range p.work {
		p.work[i] = make(chan func(int))
		go p.worker(i)
	}
	return p
}

// NumThreads returns the number of workers.
func (p *Pool) NumThreads() int {
	return len(p.work)
}

// Run executes task on every worker, passing each worker its index, and
// returns once all workers have finished. Calls must not be nested.
func (p *Pool) Run(task func(threadIndex int)) {
	p.wg.Add(len(p.work))
	for _, ch := range p.work {
		ch <- task
	}
	p.wg.Wait()
}

// Close shuts the workers down. The pool must not be used afterwards.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		for _, ch := range p.work {
			close(ch)
		}
	})
}

func (p *Pool) worker(index int) {
	for task := range p.work[index] {
		task(index)
		p.wg.Done()
	}
}
