/*
Package xlog is the logging surface every other package in this module calls
into. It is a thin wrapper over the standard library's log package rather
than a structured logging library: the teacher's own IPC code (ipc/uds,
ipc/uds/chunk/rpc) calls log.Println/log.Printf directly and never reaches
for a logging framework, and that choice is followed here rather than
introducing one. See DESIGN.md for the full justification.
*/
package xlog

import "log"

// Printf logs a formatted diagnostic message. Used for conditions worth
// surfacing to an operator but not worth returning as an error, mirroring
// ipc/uds/chunk/rpc's own logging of malformed-payload conditions.
func Printf(format string, args ...any) {
	log.Printf(format, args...)
}

// Println logs a diagnostic message, mirroring ipc/uds's own use of
// log.Println for connection-level diagnostics.
func Println(args ...any) {
	log.Println(args...)
}
