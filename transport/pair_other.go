//go:build !linux

package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/johnsiilver/xpc/handle"
)

// NewPair returns a connected pair of endpoints backed by an AF_UNIX
// SOCK_STREAM socketpair. Darwin and the other BSDs do not support a usable
// SOCK_SEQPACKET for AF_UNIX, so this realization recovers message
// boundaries on top of the stream with a length-prefix framing scheme, the
// same approach the teacher's ipc/uds/chunk package uses over TCP.
func NewPair() (a, b Endpoint, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: socketpair: %s", ErrIO, err)
	}
	fa := os.NewFile(uintptr(fds[0]), "xpc-endpoint")
	fb := os.NewFile(uintptr(fds[1]), "xpc-endpoint")
	return newStreamEndpoint(fa), newStreamEndpoint(fb), nil
}

// NewFromFile adapts an already-connected SOCK_STREAM socket, such as one
// inherited across a Spawn via bootstrap's fixed-fd convention, into an
// Endpoint.
func NewFromFile(f *os.File) Endpoint {
	return newStreamEndpoint(f)
}

// frameHeaderSize is the width of the fixed length prefix this file's
// framing scheme puts ahead of every message's payload. A fixed-width
// uint32 prefix, rather than a varint, keeps the "read exactly N more
// bytes" bookkeeping in recvOneFrame simple and matches the fixed-width
// framing the teacher's ipc/uds/chunk package uses for its own header.
const frameHeaderSize = 4

// streamEndpoint is the Darwin/BSD SOCK_STREAM realization of Endpoint.
//
// A stream socket does not preserve message boundaries: a single recvmsg
// call may return part of a frame, several whole frames, or a whole frame
// plus part of the next one. streamEndpoint keeps a persistent read buffer
// across calls and only hands a caller's Recv a complete, previously-framed
// message. SCM_RIGHTS ancillary data arrives attached to whatever byte range
// a given recvmsg call returns, so fillAtLeast never asks for more bytes
// than are still needed to complete the frame currently being assembled
// (the header, then the header-plus-body once the length is known) — every
// recvmsg call this endpoint issues therefore returns bytes that fall
// strictly within the current frame, and any fds surfaced along with them
// belong to that frame alone. Without this bound, a single recvmsg spanning
// the tail of one frame and the head of the next would hand its ancillary
// data to whichever frame happened to be assembled first, misattributing
// handles across the frame boundary.
type streamEndpoint struct {
	f          *os.File
	maxPayload int

	mu     sync.Mutex
	closed bool

	// pending holds the bytes of the frame currently being assembled,
	// along with any handles that arrived attached to the recvmsg calls
	// that produced them, until the frame's header and body are complete.
	// fillAtLeast never reads past the current frame, so Recv leaves it
	// empty after returning a frame.
	pending    []byte
	pendingFDs []int
}

func newStreamEndpoint(f *os.File) *streamEndpoint {
	return &streamEndpoint{f: f, maxPayload: defaultMaxPayload}
}

func (e *streamEndpoint) MaxPayload() int { return e.maxPayload }

func (e *streamEndpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.f.Close()
}

func (e *streamEndpoint) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *streamEndpoint) Send(payload []byte, handles []*handle.Handle) error {
	if e.isClosed() {
		return ErrClosed
	}
	if len(payload) > e.maxPayload {
		return ErrTooLarge
	}
	if len(handles) > maxHandlesPerMessage {
		return ErrResourceExhausted
	}

	fds := make([]int, 0, len(handles))
	for _, h := range handles {
		f, err := handle.ExtractForSend(h)
		if err != nil {
			return fmt.Errorf("transport: %w", err)
		}
		fds = append(fds, int(f.Fd()))
	}

	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}

	framed := make([]byte, frameHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(framed[:frameHeaderSize], uint32(len(payload)))
	copy(framed[frameHeaderSize:], payload)

	// The header and body are one write so the header's bytes and the
	// ancillary data land in the same sendmsg call the receiver observes.
	if err := sendMsg(e.f, framed, oob); err != nil {
		return err
	}

	for _, h := range handles {
		if err := handle.CloseAfterSend(h); err != nil {
			return fmt.Errorf("%w: closing sent handle: %s", ErrIO, err)
		}
	}
	return nil
}

// fillAtLeast reads from the socket, one recvmsg call at a time, until
// e.pending holds at least n bytes or the peer closes.
func (e *streamEndpoint) fillAtLeast(n int) error {
	for len(e.pending) < n {
		// Bounding the read to exactly what remains keeps this call from
		// ever reading past n's byte, which is what keeps its ancillary
		// data (if any) unambiguously scoped to the frame being assembled.
		p, oob, err := recvMsg(e.f, n-len(e.pending), maxHandlesPerMessage)
		if err != nil {
			return err
		}
		if p == nil && oob == nil {
			return io.EOF
		}
		fds, err := parseRights(oob)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrIO, err)
		}
		e.pending = append(e.pending, p...)
		e.pendingFDs = append(e.pendingFDs, fds...)
	}
	return nil
}

func (e *streamEndpoint) Recv() ([]byte, []*handle.Handle, error) {
	if e.isClosed() {
		return nil, nil, ErrClosed
	}

	if err := e.fillAtLeast(frameHeaderSize); err != nil {
		return nil, nil, err
	}
	length := binary.LittleEndian.Uint32(e.pending[:frameHeaderSize])
	if int(length) > e.maxPayload {
		return nil, nil, ErrTruncated
	}

	if err := e.fillAtLeast(frameHeaderSize + int(length)); err != nil {
		return nil, nil, err
	}

	payload := make([]byte, length)
	copy(payload, e.pending[frameHeaderSize:frameHeaderSize+int(length)])
	e.pending = e.pending[frameHeaderSize+int(length):]

	fds := e.pendingFDs
	e.pendingFDs = nil
	handles := make([]*handle.Handle, len(fds))
	for i, fd := range fds {
		handles[i] = handle.Wrap(os.NewFile(uintptr(fd), "xpc-received-handle"))
	}

	return payload, handles, nil
}

func (e *streamEndpoint) PeerCred() (Cred, error) {
	return peerCred(e.f)
}

// UnderlyingFile implements FileExposer.
func (e *streamEndpoint) UnderlyingFile() *os.File {
	return e.f
}
