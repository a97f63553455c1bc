/*
Package xpc is a cross-process communication library: it lets a Go program
spawn itself as a subprocess running a specific registered entry point, and
exchange strongly-typed messages with that child over a channel that can
also carry OS handles and even other channel endpoints.

	func init() {
		xpc.Register("double", func(n int) int {
			fmt.Println(n * 2)
			return 0
		})
	}

	func main() {
		xpc.Bootstrap() // no-op unless this process was launched by Spawn

		child, err := xpc.Spawn("double", 21)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := child.Wait(); err != nil {
			log.Fatal(err)
		}
	}

The subpackages implement the layers this surface is built from:

  - wire: the binary serialization format
  - transport: the framed, handle-carrying datagram pair
  - channel: Sender[T]/Receiver[T]/Duplex[Tx, Rx]
  - bootstrap: the subprocess re-exec and entry dispatch protocol
  - lifecycle: spawned-process bookkeeping
  - async: a cooperative-suspension adaptation of channel for
    context.Context-aware Send/Recv

Most programs only need this package's re-exports; reach into a subpackage
directly for the async adaptation, direct transport access, or a custom
codec.
*/
package xpc

import (
	"github.com/johnsiilver/xpc/bootstrap"
	"github.com/johnsiilver/xpc/channel"
	"github.com/johnsiilver/xpc/lifecycle"
)

// Register declares a spawn target under id. See bootstrap.Register.
func Register[A any](id string, body func(A) int) {
	bootstrap.Register(id, body)
}

// Spawn re-execs the current binary running the entry registered under id.
// See bootstrap.Spawn.
func Spawn[A any](id string, args A) (*lifecycle.Child, error) {
	return bootstrap.Spawn(id, args)
}

// Bootstrap intercepts a re-exec'd child invocation. See bootstrap.Bootstrap.
func Bootstrap() {
	bootstrap.Bootstrap()
}

// Sender is a type alias for channel.Sender, re-exported for convenience.
type Sender[T any] = channel.Sender[T]

// Receiver is a type alias for channel.Receiver, re-exported for
// convenience.
type Receiver[T any] = channel.Receiver[T]

// Duplex is a type alias for channel.Duplex, re-exported for convenience.
type Duplex[Tx, Rx any] = channel.Duplex[Tx, Rx]

// Child is a type alias for lifecycle.Child, re-exported for convenience.
type Child = lifecycle.Child
