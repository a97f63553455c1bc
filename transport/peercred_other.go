//go:build !linux

package transport

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/shirou/gopsutil/v3/process"
)

// peerCred on Darwin has no SO_PEERCRED equivalent. LOCAL_PEERPID yields the
// peer's PID; UID/GID are then looked up through gopsutil, the same library
// the teacher's ipc/uds/darwin.go uses for exactly this purpose because the
// stdlib has no portable process-info API for a bare PID.
func peerCred(f *os.File) (Cred, error) {
	raw, err := f.SyscallConn()
	if err != nil {
		return Cred{}, fmt.Errorf("SyscallConn: %w", err)
	}

	var pid int
	var sockErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		pid, sockErr = unix.GetsockoptInt(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERPID)
	})
	if ctrlErr != nil {
		return Cred{}, fmt.Errorf("Control: %w", ctrlErr)
	}
	if sockErr != nil {
		return Cred{}, fmt.Errorf("GetsockoptInt(LOCAL_PEERPID): %w", sockErr)
	}

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return Cred{}, fmt.Errorf("process.NewProcess(%d): %w", pid, err)
	}
	uids, err := proc.Uids()
	if err != nil {
		return Cred{}, fmt.Errorf("Uids: %w", err)
	}
	gids, err := proc.Gids()
	if err != nil {
		return Cred{}, fmt.Errorf("Gids: %w", err)
	}
	if len(uids) == 0 || len(gids) == 0 {
		return Cred{}, fmt.Errorf("gopsutil returned no uid/gid for pid %d", pid)
	}

	return Cred{PID: int32(pid), UID: uint32(uids[0]), GID: uint32(gids[0])}, nil
}
