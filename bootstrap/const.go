package bootstrap

// sentinel is the fixed argv[1] value that marks a re-exec of the current
// binary as an xpc child rather than an ordinary invocation. Chosen to be
// implausible as a real user argument.
const sentinel = "--xpc-child-process-v1--"

// Exit codes a spawned child's process image terminates with. Code 1 is
// deliberately left unassigned by this package so a user's entry body can
// return 1 for "ordinary application failure" without colliding with a
// bootstrap-internal code; spec only requires 0/decode-failure/panic be
// distinguishable from each other, not reserved from every future user code.
const (
	exitOK            = 0
	exitDecodeFailure = 2
	exitPanic         = 3
)

// bootstrapFD is the file descriptor number the child always finds its
// bootstrap channel on. os/exec.Cmd.ExtraFiles assigns descriptors
// 3, 4, 5, ... in order, and the bootstrap endpoint is always placed first.
const bootstrapFD = 3
