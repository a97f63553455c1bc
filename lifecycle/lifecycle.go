/*
Package lifecycle tracks a spawned child process from the parent's side: its
*os.Process handle, its bootstrap channel endpoint, and a status that moves
through Spawned, Running, Exited, or Detached.
*/
package lifecycle

import (
	"fmt"
	"os"
	"sync"

	"github.com/johnsiilver/xpc/transport"
)

// Status is a Child's lifecycle state.
type Status int

const (
	// Spawned means the process has been started but no confirmation of
	// its liveness (beyond exec succeeding) has been observed yet.
	Spawned Status = iota
	// Running means the parent has successfully sent the child its
	// argument frame over the bootstrap endpoint.
	Running
	// Exited means Wait has returned; the exit code it reported is
	// meaningful.
	Exited
	// Detached means the parent explicitly gave up tracking the process
	// (Child.Detach), leaving it to run without a Wait ever being issued.
	Detached
)

func (s Status) String() string {
	switch s {
	case Spawned:
		return "spawned"
	case Running:
		return "running"
	case Exited:
		return "exited"
	case Detached:
		return "detached"
	default:
		return fmt.Sprintf("lifecycle.Status(%d)", int(s))
	}
}

// Child is a spawned process as seen from the parent side of bootstrap.
type Child struct {
	// Process is the OS process handle.
	Process *os.Process

	// ParentEnd is the parent's side of the bootstrap channel established
	// with the child at spawn time. bootstrap.Spawn sends the argument
	// frame over it and leaves it as a raw endpoint; a caller that wants
	// typed traffic wraps it with channel.NewSender, NewReceiver or
	// NewDuplex.
	ParentEnd transport.Endpoint

	mu       sync.Mutex
	status   Status
	exitCode int
	waitErr  error
	waited   bool
}

// NewChild wraps a freshly-started process and its bootstrap endpoint.
func NewChild(proc *os.Process, parentEnd transport.Endpoint) *Child {
	return &Child{Process: proc, ParentEnd: parentEnd, status: Spawned}
}

// Status returns the child's current lifecycle state.
func (c *Child) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// MarkRunning transitions Spawned to Running; bootstrap.Spawn calls it once
// the argument frame has been sent over ParentEnd. A no-op in any state
// other than Spawned.
func (c *Child) MarkRunning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == Spawned {
		c.status = Running
	}
}

// Wait blocks for the process to exit, closing ParentEnd and recording the
// exit code. Safe to call more than once; subsequent calls return the
// already-recorded result.
func (c *Child) Wait() (int, error) {
	c.mu.Lock()
	if c.waited {
		defer c.mu.Unlock()
		return c.exitCode, c.waitErr
	}
	c.waited = true
	c.mu.Unlock()

	state, err := c.Process.Wait()
	c.ParentEnd.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = Exited
	if err != nil {
		c.waitErr = err
		return 0, err
	}
	c.exitCode = state.ExitCode()
	return c.exitCode, nil
}

// Detach marks the child as no longer tracked by this Child value without
// waiting on it. The OS process keeps running; a later Wait call still
// works, since Detach only changes the reported Status.
func (c *Child) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = Detached
}
