package transport

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// sendMsg writes p as a single sendmsg(2) call carrying oob as ancillary
// data. Using SyscallConn's Write callback (rather than a bare unix.Sendmsg
// on e.f.Fd()) lets the Go runtime park the calling goroutine instead of an
// OS thread when the socket buffer is full, the same pattern the teacher's
// ipc/uds package already relies on via raw.Control() for peer-credential
// lookups.
func sendMsg(f *os.File, p []byte, oob []byte) error {
	raw, err := f.SyscallConn()
	if err != nil {
		return fmt.Errorf("%w: SyscallConn: %s", ErrIO, err)
	}

	var sendErr error
	ctrlErr := raw.Write(func(fd uintptr) bool {
		err := unix.Sendmsg(int(fd), p, oob, nil, 0)
		if err == unix.EAGAIN {
			return false // ask the runtime poller to wait for writability
		}
		sendErr = err
		return true
	})
	if ctrlErr != nil {
		return fmt.Errorf("%w: %s", ErrIO, ctrlErr)
	}
	if sendErr != nil {
		if sendErr == unix.EPIPE || sendErr == unix.ECONNRESET {
			return ErrClosed
		}
		return fmt.Errorf("%w: sendmsg: %s", ErrIO, sendErr)
	}
	return nil
}

// recvMsg performs a single recvmsg(2) call sized for one seqpacket
// message. maxPayload bounds the data buffer; maxHandles bounds the
// ancillary-data buffer. Returns (nil, nil, nil) on orderly peer shutdown.
func recvMsg(f *os.File, maxPayload, maxHandles int) ([]byte, []byte, error) {
	raw, err := f.SyscallConn()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: SyscallConn: %s", ErrIO, err)
	}

	p := make([]byte, maxPayload)
	oob := make([]byte, unix.CmsgSpace(maxHandles*4))

	var n, oobn, flags int
	var recvErr error
	ctrlErr := raw.Read(func(fd uintptr) bool {
		n, oobn, flags, _, recvErr = unix.Recvmsg(int(fd), p, oob, 0)
		if recvErr == unix.EAGAIN {
			return false
		}
		return true
	})
	if ctrlErr != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrIO, ctrlErr)
	}
	if recvErr != nil {
		if recvErr == unix.ECONNRESET {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: recvmsg: %s", ErrIO, recvErr)
	}
	if n == 0 && oobn == 0 {
		return nil, nil, nil // peer closed
	}
	if flags&unix.MSG_TRUNC != 0 {
		return nil, nil, ErrTruncated
	}
	if flags&unix.MSG_CTRUNC != 0 {
		return nil, nil, fmt.Errorf("%w: ancillary data truncated, handles were lost", ErrTruncated)
	}

	return p[:n], oob[:oobn], nil
}

// parseRights extracts the file descriptor numbers carried as SCM_RIGHTS
// ancillary data in oob.
func parseRights(oob []byte) ([]int, error) {
	if len(oob) == 0 {
		return nil, nil
	}
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("ParseSocketControlMessage: %w", err)
	}
	var fds []int
	for _, m := range msgs {
		these, err := unix.ParseUnixRights(&m)
		if err != nil {
			return nil, fmt.Errorf("ParseUnixRights: %w", err)
		}
		fds = append(fds, these...)
	}
	return fds, nil
}
