package workshare

import (
	"sync"
)

// AsyncGroup launches and awaits asynchronous work through a Pool.
// It provides API designed to minimize allocations while being reasonably easy to use.
// AsyncGroup is typically local to a function and must not be reused after Wait() or Close().
type AsyncGroup[T any] struct {
	wg       *sync.WaitGroup
	requests []T
	waited   bool
	closed   bool
}

// Wait waits for scheduled asynchronous work to complete and returns all asynchronously processed requests.
func (g *AsyncGroup[T]) Wait() []T {
	if g.closed {
		panic("workshare: Wait() called after Close()")
	}

	if g.waited {
		panic("workshare: Wait() called more than once")
	}

	g.waited = true

	if g.wg == nil {
		return nil
	}

	g.wg.Wait()

	return g.requests
}

// Close marks the group as no longer usable. It is safe to call Close() more than once.
func (g *AsyncGroup[T]) Close() {
	g.closed = true
}

// RunAsync starts the asynchronous work to process the provided request, the user must call Wait()
// after all work has been scheduled.
func (g *AsyncGroup[T]) RunAsync(w *Pool[T], process ProcessFunc[T], request T) {
	w.ensureOpen()

	if g.wg == nil {
		g.wg = &sync.WaitGroup{}
	}

	g.wg.Add(1)

	g.requests = append(g.requests, request)

	w.work <- workItem[T]{
		process: process,
		request: request,
		wg:      g.wg,
	}
}

// CanShareWork determines if the provided worker pool has capacity to share work.
// If the function returns true, the use MUST call RunAsync() exactly once. This pattern avoids
// allocations required to create asynchronous requests if the worker pool is full.
func (g *AsyncGroup[T]) CanShareWork(w *Pool[T]) bool {
	w.ensureOpen()

	select {
	case w.semaphore <- struct{}{}:
		return true

	default:
		return false
	}
}
