package async

import (
	"context"

	"github.com/johnsiilver/xpc/channel"
)

// AsyncSender wraps a channel.Sender so Send suspends at a
// context.Context-aware wait point instead of blocking the calling
// goroutine directly on the underlying transport syscall. The blocking
// syscall itself still runs on its own goroutine — Go has no way to park a
// blocking I/O call on a shared goroutine — but the result is handed back
// to the caller only once rt's single drain goroutine has run the resuming
// continuation, so two AsyncSenders sharing a Runtime never have their
// completions observed out of the order rt schedules them in.
type AsyncSender[T any] struct {
	s  channel.Sender[T]
	rt *Runtime
}

// NewAsyncSender adapts an existing Sender, resuming through rt.
func NewAsyncSender[T any](rt *Runtime, s channel.Sender[T]) *AsyncSender[T] {
	return &AsyncSender[T]{s: s, rt: rt}
}

// Send transmits v, returning early with ctx.Err() if ctx is cancelled
// before the underlying blocking Send completes. Per spec section 4.5,
// cancelling after the transport call has already returned does not retract
// it — the message may still have been delivered even if ctx lost the race.
func (a *AsyncSender[T]) Send(ctx context.Context, v T) error {
	result := make(chan error, 1)
	go func() {
		err := a.s.Send(v)
		a.rt.Schedule(func() { result <- err })
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the underlying Sender.
func (a *AsyncSender[T]) Close() error { return a.s.Close() }

// AsyncReceiver wraps a channel.Receiver the same way AsyncSender wraps a
// Sender.
type AsyncReceiver[T any] struct {
	r  channel.Receiver[T]
	rt *Runtime
}

// NewAsyncReceiver adapts an existing Receiver, resuming through rt.
func NewAsyncReceiver[T any](rt *Runtime, r channel.Receiver[T]) *AsyncReceiver[T] {
	return &AsyncReceiver[T]{r: r, rt: rt}
}

type recvResult[T any] struct {
	v   T
	err error
}

// Recv blocks until a value arrives or ctx is cancelled. Cancelling before
// the result is ready is safe and loses at most the one message already
// sitting in the OS receive buffer — the dedicated goroutine performing the
// blocking transport call keeps running and simply has no one left to
// deliver its result to.
func (a *AsyncReceiver[T]) Recv(ctx context.Context) (T, error) {
	result := make(chan recvResult[T], 1)
	go func() {
		v, err := a.r.Recv()
		a.rt.Schedule(func() { result <- recvResult[T]{v: v, err: err} })
	}()

	select {
	case r := <-result:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Close releases the underlying Receiver.
func (a *AsyncReceiver[T]) Close() error { return a.r.Close() }

// AsyncDuplex pairs an AsyncSender and AsyncReceiver over a single
// channel.Duplex, for two-way protocols under cooperative suspension.
type AsyncDuplex[Tx, Rx any] struct {
	d  channel.Duplex[Tx, Rx]
	rt *Runtime
}

// NewAsyncDuplex adapts an existing Duplex, resuming through rt.
func NewAsyncDuplex[Tx, Rx any](rt *Runtime, d channel.Duplex[Tx, Rx]) *AsyncDuplex[Tx, Rx] {
	return &AsyncDuplex[Tx, Rx]{d: d, rt: rt}
}

// Send transmits v, suspending until ctx is cancelled or the send completes.
func (a *AsyncDuplex[Tx, Rx]) Send(ctx context.Context, v Tx) error {
	result := make(chan error, 1)
	go func() {
		err := a.d.Send(v)
		a.rt.Schedule(func() { result <- err })
	}()
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv blocks for and decodes an Rx value, suspending until ctx is
// cancelled or a value arrives.
func (a *AsyncDuplex[Tx, Rx]) Recv(ctx context.Context) (Rx, error) {
	result := make(chan recvResult[Rx], 1)
	go func() {
		v, err := a.d.Recv()
		a.rt.Schedule(func() { result <- recvResult[Rx]{v: v, err: err} })
	}()
	select {
	case r := <-result:
		return r.v, r.err
	case <-ctx.Done():
		var zero Rx
		return zero, ctx.Err()
	}
}

// Request is the composite send-then-recv operation, suspending across both
// halves until ctx is cancelled or the reply arrives. If Send fails or ctx
// is cancelled first, Request returns without attempting the Recv.
func (a *AsyncDuplex[Tx, Rx]) Request(ctx context.Context, v Tx) (Rx, error) {
	if err := a.Send(ctx, v); err != nil {
		var zero Rx
		return zero, err
	}
	return a.Recv(ctx)
}

// Close releases the underlying Duplex.
func (a *AsyncDuplex[Tx, Rx]) Close() error { return a.d.Close() }
