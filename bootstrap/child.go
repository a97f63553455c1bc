package bootstrap

import (
	"os"
	"strconv"

	"github.com/johnsiilver/xpc/handle"
	"github.com/johnsiilver/xpc/internal/xlog"
	"github.com/johnsiilver/xpc/transport"
	"github.com/johnsiilver/xpc/wire"
)

// Bootstrap checks whether the current process was launched by Spawn and,
// if so, runs the requested entry and never returns (it calls os.Exit).
// Ordinary invocations — argv lacking the sentinel — return immediately and
// user code in main proceeds, per SPEC_FULL.md section 4.4's child-side
// step 1. In both cases the registry is sealed first, so a Register call
// after Bootstrap panics.
//
// Call this as the very first statement of main(), after every Register
// call has run.
func Bootstrap() {
	Seal()
	if len(os.Args) < 2 || os.Args[1] != sentinel {
		return
	}
	os.Exit(runChild(os.Args[2:]))
}

// runChild implements the child-side protocol, steps 2-5, and returns the
// exit code Bootstrap passes to os.Exit.
func runChild(args []string) (code int) {
	code = exitOK
	defer func() {
		if r := recover(); r != nil {
			xlog.Printf("bootstrap: entry body panicked: %v", r)
			code = exitPanic
		}
	}()

	// argv is: entry-id, bootstrap-fd-num, handle-fd-num* — the wire format
	// spec section 6 defines, carried verbatim rather than a derived count.
	if len(args) < 2 {
		xlog.Println("bootstrap: child argv missing entry id and bootstrap fd number")
		return exitDecodeFailure
	}
	id := args[0]
	bootstrapFDNum, err := strconv.Atoi(args[1])
	if err != nil {
		xlog.Printf("bootstrap: malformed bootstrap fd number %q: %s", args[1], err)
		return exitDecodeFailure
	}
	handleFDNums := make([]int, 0, len(args)-2)
	for _, a := range args[2:] {
		fd, err := strconv.Atoi(a)
		if err != nil {
			xlog.Printf("bootstrap: malformed handle fd number %q: %s", a, err)
			return exitDecodeFailure
		}
		handleFDNums = append(handleFDNums, fd)
	}

	ent := lookup(id)
	if ent == nil {
		xlog.Printf("bootstrap: unknown entry id %q", id)
		return exitDecodeFailure
	}

	// Step 3: attach the bootstrap channel at the fd number argv named.
	childEnd := transport.NewFromFile(os.NewFile(uintptr(bootstrapFDNum), "xpc-bootstrap"))
	defer childEnd.Close()

	payload, _, err := childEnd.Recv()
	if err != nil {
		xlog.Printf("bootstrap: receiving spawn arguments: %s", err)
		return exitDecodeFailure
	}

	// Handle descriptors ride ExtraFiles at the fd numbers argv named, in the
	// same order their placeholders appear in the payload; reattach them to
	// the frame before decoding.
	handles := make([]*handle.Handle, len(handleFDNums))
	for i, fd := range handleFDNums {
		handles[i] = handle.Wrap(os.NewFile(uintptr(fd), "xpc-inherited-handle"))
	}

	// Step 4: decode into the entry's declared argument type and invoke it.
	return ent.body(wire.Frame{Payload: payload, Handles: handles})
}
