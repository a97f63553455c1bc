/*
Package transport implements the connected pair of endpoints spec section 4.1
describes: a datagram-oriented channel that moves a byte payload plus an
ordered list of OS handles per message, framed so a single Recv call always
returns exactly one previously-sent message.

Two platform realizations exist, selected at compile time exactly the way the
teacher's ipc/uds package splits readCreds across linux.go and darwin.go:

  - Linux (pair_linux.go): a genuine AF_UNIX SOCK_SEQPACKET socketpair. The
    kernel already frames messages, so Send/Recv map onto one sendmsg/recvmsg
    call each.
  - Darwin and other BSDs (pair_other.go): AF_UNIX has no usable
    SOCK_SEQPACKET there, so the pair is a SOCK_STREAM socketpair with a
    fixed-width length prefix — the same framing style the teacher's
    ipc/uds/chunk package uses — recovering message boundaries on top of
    the stream.

NewPair returns the platform-appropriate Endpoint pair; callers never see the
difference.
*/
package transport

import (
	"errors"
	"os"

	"github.com/johnsiilver/xpc/handle"
)

// Errors surfaced to callers, matching spec section 7's slice of the error
// kind table that belongs to the transport layer.
var (
	// ErrClosed indicates the peer endpoint (or this one) has been closed.
	ErrClosed = errors.New("transport: endpoint closed")

	// ErrResourceExhausted indicates a Send's handle count exceeds the
	// platform ceiling for a single message's ancillary data.
	ErrResourceExhausted = errors.New("transport: too many handles for one message")

	// ErrTooLarge indicates a Send's payload exceeds MaxPayload.
	ErrTooLarge = errors.New("transport: payload exceeds maximum message size")

	// ErrTruncated indicates an incoming message was larger than the
	// receive buffer sized for it — surfaced as an error, never silently
	// truncated, per spec section 4.1.
	ErrTruncated = errors.New("transport: incoming message truncated")

	// ErrIO wraps a lower-level syscall failure not covered by the more
	// specific sentinels above.
	ErrIO = errors.New("transport: io error")
)

// maxHandlesPerMessage bounds the ancillary data a single message can carry.
// Linux's default SCM_MAX_FD is 253; every platform uses this as the
// conservative ceiling ErrResourceExhausted checks against.
const maxHandlesPerMessage = 253

// defaultMaxPayload is the message size cap this package advertises via
// Endpoint.MaxPayload. AF_UNIX has no fixed datagram ceiling the way UDP
// does, but an unbounded single message defeats the point of a framed
// protocol, so this package picks a generous fixed cap, consistent with the
// teacher's chunk package taking a similar stance via its MaxSize option.
const defaultMaxPayload = 4 << 20 // 4 MiB

// Endpoint is one owned side of a transport pair.
type Endpoint interface {
	// Send transmits a single message. On success every handle.Handle in
	// handles has been closed on the local side and is owned by the peer.
	Send(payload []byte, handles []*handle.Handle) error

	// Recv returns the next previously-sent message, or (nil, nil, io.EOF)
	// on orderly peer closure.
	Recv() (payload []byte, handles []*handle.Handle, err error)

	// Close releases the endpoint. Idempotent. Causes the peer's next Recv
	// (once any already-buffered message is drained) to observe io.EOF.
	Close() error

	// MaxPayload returns the largest payload Send will accept.
	MaxPayload() int

	// PeerCred returns the identity of the process on the other end of the
	// pair, when the platform can report it. Not part of the spec's core
	// contract; used by cmd/xpcdebug for diagnostics.
	PeerCred() (Cred, error)
}

// Cred is a peer process's identity, mirroring the teacher's ipc/uds.Cred.
type Cred struct {
	PID int32
	UID uint32
	GID uint32
}

// FileExposer is implemented by every Endpoint realization in this package.
// channel uses it to transfer an endpoint itself as a value: the underlying
// socket file is wrapped as a Handle and moved to the peer the same way any
// other OS resource is.
type FileExposer interface {
	UnderlyingFile() *os.File
}
