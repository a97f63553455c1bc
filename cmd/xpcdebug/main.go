/*
Command xpcdebug is a small diagnostic tool for inspecting the transport
layer this module builds on: it opens a connected pair of endpoints exactly
the way bootstrap.Spawn would, prints the OS/architecture (which decides
between the SEQPACKET realization and the stream/length-prefix fallback) and
the maximum payload, sends a probe message across it, and prints the peer
credentials endpoint a reports for its peer.
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/google/uuid"

	"github.com/johnsiilver/xpc/transport"
)

func main() {
	verbose := flag.Bool("v", false, "print the probe payload's round trip in full")
	flag.Parse()

	runID := uuid.New()
	fmt.Printf("xpcdebug: run %s on %s/%s\n", runID, runtime.GOOS, runtime.GOARCH)

	a, b, err := transport.NewPair()
	if err != nil {
		log.Fatalf("xpcdebug: creating transport pair: %s", err)
	}
	defer a.Close()
	defer b.Close()

	fmt.Printf("xpcdebug: max payload per message: %d bytes\n", a.MaxPayload())

	probe := []byte("xpcdebug-probe")
	if err := a.Send(probe, nil); err != nil {
		log.Fatalf("xpcdebug: send: %s", err)
	}
	got, _, err := b.Recv()
	if err != nil {
		log.Fatalf("xpcdebug: recv: %s", err)
	}
	if *verbose {
		fmt.Printf("xpcdebug: sent %q, received %q\n", probe, got)
	}
	if string(got) != string(probe) {
		fmt.Fprintln(os.Stderr, "xpcdebug: probe payload did not round trip correctly")
		os.Exit(1)
	}

	credA, err := a.PeerCred()
	if err != nil {
		fmt.Printf("xpcdebug: PeerCred unavailable: %s\n", err)
	} else {
		fmt.Printf("xpcdebug: peer of endpoint a: pid=%d uid=%d gid=%d\n", credA.PID, credA.UID, credA.GID)
	}

	fmt.Println("xpcdebug: transport pair is healthy")
}
