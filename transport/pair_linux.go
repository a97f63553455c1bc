//go:build linux

package transport

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/johnsiilver/xpc/handle"
)

// NewPair returns a connected pair of endpoints backed by an AF_UNIX
// SOCK_SEQPACKET socketpair. The kernel preserves message boundaries, so
// each side's Send/Recv map onto exactly one sendmsg/recvmsg call.
func NewPair() (a, b Endpoint, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: socketpair: %s", ErrIO, err)
	}
	fa := os.NewFile(uintptr(fds[0]), "xpc-endpoint")
	fb := os.NewFile(uintptr(fds[1]), "xpc-endpoint")
	return newEndpoint(fa), newEndpoint(fb), nil
}

// NewFromFile adapts an already-connected SOCK_SEQPACKET socket, such as one
// inherited across a Spawn via bootstrap's fixed-fd convention, into an
// Endpoint.
func NewFromFile(f *os.File) Endpoint {
	return newEndpoint(f)
}

// endpoint is the Linux SOCK_SEQPACKET realization of Endpoint.
type endpoint struct {
	f          *os.File
	maxPayload int

	mu     sync.Mutex
	closed bool
}

func newEndpoint(f *os.File) *endpoint {
	return &endpoint{f: f, maxPayload: defaultMaxPayload}
}

func (e *endpoint) MaxPayload() int { return e.maxPayload }

func (e *endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.f.Close()
}

func (e *endpoint) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *endpoint) Send(payload []byte, handles []*handle.Handle) error {
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

	if err := sendMsg(e.f, payload, oob); err != nil {
		return err
	}

	for _, h := range handles {
		if err := handle.CloseAfterSend(h); err != nil {
			return fmt.Errorf("%w: closing sent handle: %s", ErrIO, err)
		}
	}
	return nil
}

func (e *endpoint) Recv() ([]byte, []*handle.Handle, error) {
	if e.isClosed() {
		return nil, nil, ErrClosed
	}

	p, oob, err := recvMsg(e.f, e.maxPayload, maxHandlesPerMessage)
	if err != nil {
		return nil, nil, err
	}
	if p == nil && oob == nil {
		return nil, nil, io.EOF
	}

	fds, err := parseRights(oob)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrIO, err)
	}
	handles := make([]*handle.Handle, len(fds))
	for i, fd := range fds {
		handles[i] = handle.Wrap(os.NewFile(uintptr(fd), "xpc-received-handle"))
	}

	payload := make([]byte, len(p))
	copy(payload, p)
	return payload, handles, nil
}

func (e *endpoint) PeerCred() (Cred, error) {
	return peerCred(e.f)
}

// UnderlyingFile implements FileExposer.
func (e *endpoint) UnderlyingFile() *os.File {
	return e.f
}
