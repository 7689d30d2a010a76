// Package workshare implements work sharing worker pool.
package workshare

import (
	"sync"
	"sync/atomic"
)

// ProcessFunc processes the provided request, the result must be written within the request itself.
// To avoid allocations, the function should not be a local closure but a named function (either global or
// a method).
type ProcessFunc[T any] func(c *Pool[T], request T)

type workItem[T any] struct {
	process ProcessFunc[T] // function to call
	request T              // parameter to the function
	wg      *sync.WaitGroup
}

// Pool manages a pool of generic workers that can process workItem.
type Pool[T any] struct {
	activeWorkers atomic.Int32

	semaphore chan struct{}

	work     chan workItem[T]
	closed   chan struct{}
	isClosed atomic.Bool

	wg sync.WaitGroup
}

// ActiveWorkers returns the number of active workers.
func (w *Pool[T]) ActiveWorkers() int {
	return int(w.activeWorkers.Load())
}

// NewPool creates a worker pool that launches a given number of goroutines that can invoke shared work.
// A pool with zero workers never accepts shared work and all work is performed by the caller.
func NewPool[T any](numWorkers int) *Pool[T] {
	if numWorkers < 0 {
		numWorkers = 0
	}

	w := &Pool[T]{
		work:      make(chan workItem[T]), // channel must be unbuffered
		closed:    make(chan struct{}),
		semaphore: make(chan struct{}, numWorkers),
	}

	for range numWorkers {
		w.wg.Add(1)

		go func() {
			defer w.wg.Done()

			for {
				select {
				case it := <-w.work:
					w.activeWorkers.Add(1)
					it.process(w, it.request)
					w.activeWorkers.Add(-1)
					<-w.semaphore
					it.wg.Done()

				case <-w.closed:
					return
				}
			}
		}()
	}

	return w
}

// Close stops the workers and waits for them to exit. Work that has been scheduled must be
// awaited before calling Close.
func (w *Pool[T]) Close() {
	if w.isClosed.Swap(true) {
		return
	}

	close(w.closed)
	w.wg.Wait()
}

func (w *Pool[T]) ensureOpen() {
	if w.isClosed.Load() {
		panic("workshare: pool used after Close()")
	}
}
