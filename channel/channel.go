/*
Package channel provides the typed messaging layer built on top of transport
and wire: Sender[T] and Receiver[T] give a compile-time-checked view onto a
raw transport.Endpoint, and Duplex[Tx, Rx] pairs a Sender with a Receiver of
a possibly different type for two-way protocols.

A channel endpoint is itself a transmittable value: encoding a Sender,
Receiver, or Duplex moves the underlying transport.Endpoint's file
descriptor exactly the way a Handle moves, letting a process hand a peer a
brand new private channel to a third party (spec section 3's "endpoints are
themselves values"). This is implemented with wire.Codec rather than the
reflection fallback, since the payload is a single nested Handle wrapping
the endpoint's socket, not a struct to walk field by field.
*/
package channel

import (
	"errors"
	"fmt"
	"io"

	"github.com/johnsiilver/xpc/handle"
	"github.com/johnsiilver/xpc/transport"
	"github.com/johnsiilver/xpc/wire"
)

// ErrPeerGone indicates the remote end of a channel has been closed, either
// because the peer process exited or called Close explicitly. Send and Recv
// return it wrapped together with transport.ErrClosed or io.EOF, depending
// on how the closure was observed, so callers can check with
// errors.Is(err, ErrPeerGone) regardless of which path detected it.
var ErrPeerGone = errors.New("channel: peer is gone")

// Sender is the send half of a typed channel carrying values of type T.
type Sender[T any] struct {
	ep transport.Endpoint
}

// NewSender wraps a raw transport.Endpoint as a Sender[T]. Most callers get
// a Sender from bootstrap.Spawn or channel.Pipe rather than calling this
// directly.
func NewSender[T any](ep transport.Endpoint) Sender[T] {
	return Sender[T]{ep: ep}
}

// Send encodes v with wire.Encode and transmits the resulting frame,
// including any enclosed Handles or channel endpoints, as one message.
func (s Sender[T]) Send(v T) error {
	f, err := wire.Encode(v)
	if err != nil {
		return fmt.Errorf("channel: encoding value: %w", err)
	}
	if err := s.ep.Send(f.Payload, f.Handles); err != nil {
		if errors.Is(err, transport.ErrClosed) {
			return fmt.Errorf("%w: %w", ErrPeerGone, err)
		}
		return err
	}
	return nil
}

// Close releases the underlying endpoint. The peer's next Recv observes
// ErrPeerGone once anything already in flight has been drained.
func (s Sender[T]) Close() error {
	return s.ep.Close()
}

// MarshalWire lets a Sender itself be enclosed in a value passed to another
// channel's Send, transferring the underlying endpoint to whoever decodes
// it.
func (s Sender[T]) MarshalWire(enc *wire.Encoder) error {
	return marshalEndpoint(enc, s.ep)
}

// UnmarshalWire reconstructs a Sender received as part of another value.
func (s *Sender[T]) UnmarshalWire(dec *wire.Decoder) error {
	ep, err := unmarshalEndpoint(dec)
	if err != nil {
		return err
	}
	s.ep = ep
	return nil
}

// Receiver is the receive half of a typed channel carrying values of type T.
type Receiver[T any] struct {
	ep transport.Endpoint
}

// NewReceiver wraps a raw transport.Endpoint as a Receiver[T].
func NewReceiver[T any](ep transport.Endpoint) Receiver[T] {
	return Receiver[T]{ep: ep}
}

// Recv blocks until a value arrives, decodes it as T, and returns it.
// ErrPeerGone is returned once the sender has closed and no messages remain
// buffered.
func (r Receiver[T]) Recv() (T, error) {
	var zero T
	payload, handles, err := r.ep.Recv()
	if err != nil {
		if errors.Is(err, transport.ErrClosed) || errors.Is(err, io.EOF) {
			return zero, fmt.Errorf("%w: %w", ErrPeerGone, err)
		}
		return zero, err
	}
	return wire.Decode[T](wire.Frame{Payload: payload, Handles: handles})
}

// Close releases the underlying endpoint.
func (r Receiver[T]) Close() error {
	return r.ep.Close()
}

// MarshalWire lets a Receiver itself be enclosed in a value passed to
// another channel's Send.
func (r Receiver[T]) MarshalWire(enc *wire.Encoder) error {
	return marshalEndpoint(enc, r.ep)
}

// UnmarshalWire reconstructs a Receiver received as part of another value.
func (r *Receiver[T]) UnmarshalWire(dec *wire.Decoder) error {
	ep, err := unmarshalEndpoint(dec)
	if err != nil {
		return err
	}
	r.ep = ep
	return nil
}

// Duplex pairs a send side of type Tx with a receive side of type Rx over a
// single underlying transport.Endpoint, for protocols where request and
// response are different types (spec's pingpong and request/reply
// scenarios).
type Duplex[Tx, Rx any] struct {
	ep transport.Endpoint
}

// NewDuplex wraps a raw transport.Endpoint as a Duplex[Tx, Rx].
func NewDuplex[Tx, Rx any](ep transport.Endpoint) Duplex[Tx, Rx] {
	return Duplex[Tx, Rx]{ep: ep}
}

// Send encodes and transmits a Tx value.
func (d Duplex[Tx, Rx]) Send(v Tx) error {
	return Sender[Tx]{ep: d.ep}.Send(v)
}

// Recv blocks for and decodes an Rx value.
func (d Duplex[Tx, Rx]) Recv() (Rx, error) {
	return Receiver[Rx]{ep: d.ep}.Recv()
}

// Request is the composite send-then-recv operation a strict request/reply
// protocol uses: it sends v and blocks for the corresponding reply. If Send
// fails, Request returns without attempting the Recv.
func (d Duplex[Tx, Rx]) Request(v Tx) (Rx, error) {
	if err := d.Send(v); err != nil {
		var zero Rx
		return zero, err
	}
	return d.Recv()
}

// Close releases the underlying endpoint.
func (d Duplex[Tx, Rx]) Close() error {
	return d.ep.Close()
}

// MarshalWire lets a Duplex itself be enclosed in a value passed to another
// channel's Send.
func (d Duplex[Tx, Rx]) MarshalWire(enc *wire.Encoder) error {
	return marshalEndpoint(enc, d.ep)
}

// UnmarshalWire reconstructs a Duplex received as part of another value.
func (d *Duplex[Tx, Rx]) UnmarshalWire(dec *wire.Decoder) error {
	ep, err := unmarshalEndpoint(dec)
	if err != nil {
		return err
	}
	d.ep = ep
	return nil
}

// Pipe creates an in-process connected pair, letting a Sender[T] and
// Receiver[T] talk to each other without a subprocess. Used by tests and by
// any producer/consumer pairing that does not need a separate process.
func Pipe[T any]() (Sender[T], Receiver[T], error) {
	a, b, err := transport.NewPair()
	if err != nil {
		return Sender[T]{}, Receiver[T]{}, err
	}
	return NewSender[T](a), NewReceiver[T](b), nil
}

// marshalEndpoint implements the Handle-moving contract every channel type
// shares: encode the endpoint's underlying file as a single Handle leaf. The
// local Sender/Receiver/Duplex must not be used again after this call
// succeeds, the same rule that governs a moved Handle.
func marshalEndpoint(enc *wire.Encoder, ep transport.Endpoint) error {
	f, ok := ep.(transport.FileExposer)
	if !ok {
		return fmt.Errorf("channel: endpoint type %T cannot be transferred to a peer", ep)
	}
	enc.PutHandle(handle.Wrap(f.UnderlyingFile()))
	return nil
}

// unmarshalEndpoint is marshalEndpoint's inverse: it reads the transferred
// Handle back out and adapts it into a fresh transport.Endpoint.
func unmarshalEndpoint(dec *wire.Decoder) (transport.Endpoint, error) {
	h, err := dec.GetHandle()
	if err != nil {
		return nil, err
	}
	return transport.NewFromFile(h.File()), nil
}

