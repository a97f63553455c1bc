//go:build linux

package transport

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// peerCred asks the kernel directly via SO_PEERCRED, the same call the
// teacher's ipc/uds/linux.go uses for its own Cred lookup.
func peerCred(f *os.File) (Cred, error) {
	raw, err := f.SyscallConn()
	if err != nil {
		return Cred{}, fmt.Errorf("SyscallConn: %w", err)
	}

	var ucred *unix.Ucred
	var sockErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		ucred, sockErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if ctrlErr != nil {
		return Cred{}, fmt.Errorf("Control: %w", ctrlErr)
	}
	if sockErr != nil {
		return Cred{}, fmt.Errorf("GetsockoptUcred: %w", sockErr)
	}
	return Cred{PID: ucred.Pid, UID: ucred.Uid, GID: ucred.Gid}, nil
}
