package bootstrap_test

import (
	"os"
	"testing"

	"github.com/johnsiilver/xpc/bootstrap"
	"github.com/johnsiilver/xpc/handle"
)

// TestMain lets this test binary re-exec itself as an xpc child: Spawn
// launches the very same compiled test binary with the sentinel argv, and
// bootstrap.Bootstrap intercepts before testing.M ever runs a test. Every
// entry a test spawns must be registered here, unconditionally, since
// Register calls made only inside a specific test function never run in the
// re-exec'd child process (it never reaches that test's body).
func TestMain(m *testing.M) {
	bootstrap.Register("echo-length", func(payload []byte) int {
		if len(payload) == 42 {
			return 0
		}
		return 7
	})
	bootstrap.Register("write-to-handle", func(w *handle.Handle) int {
		f := w.File()
		if _, err := f.WriteString("handle-transfer-ok"); err != nil {
			return 9
		}
		f.Close()
		return 0
	})
	bootstrap.Bootstrap()
	os.Exit(m.Run())
}

func TestSpawnEchoLength(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a real subprocess")
	}
	child, err := bootstrap.Spawn("echo-length", make([]byte, 42))
	if err != nil {
		t.Fatalf("Spawn: %s", err)
	}
	code, err := child.Wait()
	if err != nil {
		t.Fatalf("Wait: %s", err)
	}
	if code != 0 {
		t.Fatalf("got exit code %d, want 0", code)
	}
}

// TestSpawnHandleTransfer exercises scenario 3: a Handle enclosed in the
// spawn arguments is usable by the child process.
func TestSpawnHandleTransfer(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a real subprocess")
	}
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %s", err)
	}
	defer r.Close()

	child, err := bootstrap.Spawn("write-to-handle", handle.Wrap(w))
	if err != nil {
		t.Fatalf("Spawn: %s", err)
	}
	code, err := child.Wait()
	if err != nil {
		t.Fatalf("Wait: %s", err)
	}
	if code != 0 {
		t.Fatalf("got exit code %d, want 0", code)
	}

	buf := make([]byte, len("handle-transfer-ok"))
	if _, err := r.Read(buf); err != nil {
		t.Fatalf("reading from transferred handle's pipe: %s", err)
	}
	if string(buf) != "handle-transfer-ok" {
		t.Fatalf("got %q, want %q", buf, "handle-transfer-ok")
	}
}

func TestSpawnUnknownEntry(t *testing.T) {
	if _, err := bootstrap.Spawn("does-not-exist", 0); err == nil {
		t.Fatalf("expected an error spawning an unregistered entry id")
	}
}
