package bootstrap

import "errors"

var (
	// ErrNoExecutable indicates the running binary's own path could not be
	// resolved for re-exec, e.g. it was deleted after the current process
	// started.
	ErrNoExecutable = errors.New("bootstrap: cannot resolve own executable for re-exec")

	// ErrSpawnFailed wraps a lower-level exec.Cmd.Start failure.
	ErrSpawnFailed = errors.New("bootstrap: spawn failed")

	// ErrUnknownEntry indicates Spawn was called with an entry id that is
	// not present in this process's registry. A child that finds its entry
	// id missing does not return this error; it exits with the
	// decode-failure status instead.
	ErrUnknownEntry = errors.New("bootstrap: unknown entry id")

	// ErrAlreadySealed indicates Register was called after the registry was
	// frozen by a prior Bootstrap or Spawn call.
	ErrAlreadySealed = errors.New("bootstrap: registry already sealed")
)
