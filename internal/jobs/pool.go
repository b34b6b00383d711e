package jobs

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Pool is an elastic work dispatcher. Every submitted unit of work runs on
// its own goroutine; the Go scheduler multiplexes them onto OS threads, so
// nested submissions (work that itself submits and awaits sub-work) can
// never deadlock the pool.
//
// All methods are safe for concurrent use.
type Pool struct {
	wg     sync.WaitGroup
	active atomic.Int64
	closed atomic.Bool
}

// NewPool returns a ready-to-use Pool.
func NewPool() *Pool {
	return &Pool{}
}

// Active returns the number of units of work currently executing.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Close marks the pool as closed and blocks until all in-flight work has
// finished. Submitting to a closed pool returns an already-failed Handle.
func (p *Pool) Close() {
	p.closed.Store(true)
	p.wg.Wait()
}

// Handle is the awaitable result of one submitted unit of work.
type Handle[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Await blocks until the work completes and returns its result. If the
// work panicked, the zero value and a non-nil error are returned.
func (h *Handle[T]) Await() (T, error) {
	<-h.done
	return h.val, h.err
}

// Submit schedules fn on the pool under a human-readable label and returns
// a Handle for its result. A panic inside fn is recovered, logged with the
// label, and reported through the Handle's error.
func Submit[T any](p *Pool, label string, fn func() T) *Handle[T] {
	h := &Handle[T]{done: make(chan struct{})}

	if p.closed.Load() {
		h.err = fmt.Errorf("jobs: pool closed, rejecting %q", label)
		close(h.done)
		return h
	}

	p.wg.Add(1)
	p.active.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("jobs: %q panicked: %v", label, r)
				slog.Error("jobs: recovered panic in work unit", "label", label, "panic", r)
			}
			p.active.Add(-1)
			p.wg.Done()
			close(h.done)
		}()
		h.val = fn()
	}()

	return h
}
