package async

import "context"

// task is one queued continuation: a callback the Runtime's drain loop
// invokes on its own goroutine.
type task func()

// Runtime is a single-threaded cooperative task runner: one goroutine drains
// a readyQueue of resumed continuations, giving user code the "everything
// scheduled on this runtime runs interleaved but never in parallel" model
// spec section 4.5 describes, the same shape as an event loop.
//
// AsyncSender, AsyncReceiver, AsyncDuplex, and AwaitExit each take a Runtime
// at construction. The blocking call underneath a Send/Recv/Wait still runs
// on its own goroutine — Go has no way to park a blocking syscall on a
// shared goroutine — but the result is only handed back to the waiting
// caller once it has been run as a scheduled continuation on this Runtime's
// single drain goroutine, so every suspension point sharing a Runtime
// resumes through the same serialized point rather than racing independent
// goroutines against each other.
type Runtime struct {
	queue *readyQueue[task]
	done  chan struct{}
}

// NewRuntime starts a Runtime's drain goroutine.
func NewRuntime() *Runtime {
	r := &Runtime{
		queue: newReadyQueue[task](),
		done:  make(chan struct{}),
	}
	go r.drain()
	return r
}

// Schedule enqueues fn to run on the Runtime's single drain goroutine. Safe
// to call from any goroutine, including from within a running task.
func (r *Runtime) Schedule(fn func()) {
	r.queue.push(fn)
}

// Run blocks until ctx is cancelled, draining scheduled tasks as they
// arrive. Intended to be the last call in a program built around a Runtime.
func (r *Runtime) Run(ctx context.Context) {
	<-ctx.Done()
	close(r.done)
}

func (r *Runtime) drain() {
	for {
		if t, ok := r.queue.pop(); ok {
			t()
			continue
		}
		select {
		case <-r.queue.notify:
		case <-r.done:
			return
		}
	}
}
