package pool

import (
	"context"
	"runtime"
	"sync"
)

// Future is the pending result of one submitted call.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Done returns a channel closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the result is available or ctx is cancelled. On
// cancellation the zero value and ctx's error are returned; the underlying
// call still runs to completion on its worker.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Pool is a bounded worker pool. Submissions beyond the queue capacity block
// the submitter until a worker frees up.
type Pool struct {
	tasks     chan func()
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New starts a pool with the given number of workers. Zero or negative means
// one worker per CPU.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{tasks: make(chan func(), workers)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Close stops accepting work and waits for in-flight tasks to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}

// Submit schedules fn on p and immediately returns a pending handle.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	p.tasks <- func() {
		f.val, f.err = fn()
		close(f.done)
	}
	return f
}

var (
	defaultPool *Pool
	defaultOnce sync.Once
)

// Default returns the process-wide pool shared by all generated async
// wrappers, starting it on first use.
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool = New(0)
	})
	return defaultPool
}
