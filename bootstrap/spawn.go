package bootstrap

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/johnsiilver/xpc/handle"
	"github.com/johnsiilver/xpc/lifecycle"
	"github.com/johnsiilver/xpc/transport"
	"github.com/johnsiilver/xpc/wire"
)

// Spawn re-execs the current binary as an xpc child running the entry
// registered under id, passing args as its bootstrap payload. Any
// *handle.Handle values reachable from args are inherited by the child
// alongside the bootstrap channel itself.
//
// Step numbering below matches SPEC_FULL.md section 4.4's parent-side
// protocol.
func Spawn[A any](id string, args A) (*lifecycle.Child, error) {
	Seal()
	if lookup(id) == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntry, id)
	}

	// Step 1: create the bootstrap channel pair.
	parentEnd, childEnd, err := transport.NewPair()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: creating bootstrap channel: %w", err)
	}

	fe, ok := childEnd.(transport.FileExposer)
	if !ok {
		childEnd.Close()
		parentEnd.Close()
		return nil, fmt.Errorf("bootstrap: transport endpoint does not expose an inheritable file")
	}
	childEndFile := fe.UnderlyingFile()

	// Encode the argument tuple now so we know exactly which handles need
	// to ride along in ExtraFiles before we start the process (step 3).
	frame, err := wire.Encode(args)
	if err != nil {
		childEnd.Close()
		parentEnd.Close()
		return nil, fmt.Errorf("bootstrap: encoding spawn arguments: %w", err)
	}

	// Step 2/3: os/exec.Cmd.ExtraFiles is how Go clears FD_CLOEXEC and hands
	// descriptors to the child; slot 0 is always the bootstrap channel, and
	// every Handle enclosed in args follows it in the order its placeholder
	// appears in the payload. os/exec assigns these fds 3, 4, 5, ... in the
	// child.
	extraFiles := []*os.File{childEndFile}
	for _, h := range frame.Handles {
		f, err := handle.ExtractForSend(h)
		if err != nil {
			childEnd.Close()
			parentEnd.Close()
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		extraFiles = append(extraFiles, f)
	}

	exe, err := reexecSelf()
	if err != nil {
		childEnd.Close()
		parentEnd.Close()
		return nil, err
	}

	// argv carries the bootstrap channel's fd number followed by one fd
	// number per argument handle, in the order each handle's placeholder
	// appears in the payload — handle descriptors ride ExtraFiles, not the
	// bootstrap channel's own ancillary data, so the child needs their exact
	// fd numbers to attach them to the frame before calling wire.Decode.
	cmdArgs := []string{sentinel, id, strconv.Itoa(bootstrapFD)}
	for i := range frame.Handles {
		cmdArgs = append(cmdArgs, strconv.Itoa(bootstrapFD+1+i))
	}
	cmd := exec.Command(exe, cmdArgs...)
	cmd.ExtraFiles = extraFiles
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// Step 4: start the child.
	if err := cmd.Start(); err != nil {
		childEnd.Close()
		parentEnd.Close()
		return nil, fmt.Errorf("%w: %s", ErrSpawnFailed, err)
	}

	// The parent's copy of childEnd (and every handle now owned by the
	// child) must be closed once the child has inherited them, or the
	// parent keeps them alive past the point where closing them in the
	// child's copy would signal anything.
	childEnd.Close()
	for _, h := range frame.Handles {
		handle.CloseAfterSend(h)
	}

	child := lifecycle.NewChild(cmd.Process, parentEnd)

	// Step 5: send the argument frame over parentEnd now that the process
	// exists, never on the command line.
	if err := parentEnd.Send(frame.Payload, nil); err != nil {
		return child, fmt.Errorf("bootstrap: sending spawn arguments: %w", err)
	}
	child.MarkRunning()

	return child, nil
}

// reexecSelf resolves the path to the currently running binary's image and
// returns ErrNoExecutable if that path no longer names a file (e.g. the
// binary was deleted after this process started). A different binary
// placed at the same path is not detected; the child runs whatever the
// path names at spawn time.
func reexecSelf() (string, error) {
	p, err := os.Readlink("/proc/self/exe")
	if err != nil {
		p, err = os.Executable()
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNoExecutable, err)
		}
	}
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoExecutable, err)
	}
	return p, nil
}
