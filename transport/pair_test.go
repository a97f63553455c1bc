package transport_test

import (
	"io"
	"os"
	"testing"

	"github.com/johnsiilver/xpc/handle"
	"github.com/johnsiilver/xpc/transport"
)

func TestSendRecvOrdering(t *testing.T) {
	a, b, err := transport.NewPair()
	if err != nil {
		t.Fatalf("NewPair: %s", err)
	}
	defer a.Close()
	defer b.Close()

	want := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for _, msg := range want {
		if err := a.Send(msg, nil); err != nil {
			t.Fatalf("Send(%q): %s", msg, err)
		}
	}
	for _, msg := range want {
		got, handles, err := b.Recv()
		if err != nil {
			t.Fatalf("Recv: %s", err)
		}
		if len(handles) != 0 {
			t.Fatalf("got %d handles, want 0", len(handles))
		}
		if string(got) != string(msg) {
			t.Fatalf("got %q, want %q", got, msg)
		}
	}
}

func TestRecvAfterPeerCloseIsEOF(t *testing.T) {
	a, b, err := transport.NewPair()
	if err != nil {
		t.Fatalf("NewPair: %s", err)
	}
	defer b.Close()

	if err := a.Send([]byte("last"), nil); err != nil {
		t.Fatalf("Send: %s", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %s", err)
	}

	got, _, err := b.Recv()
	if err != nil {
		t.Fatalf("Recv of buffered message: %s", err)
	}
	if string(got) != "last" {
		t.Fatalf("got %q, want %q", got, "last")
	}

	if _, _, err := b.Recv(); err != io.EOF {
		t.Fatalf("Recv after peer close: got %v, want io.EOF", err)
	}
}

func TestSendAfterCloseIsErrClosed(t *testing.T) {
	a, b, err := transport.NewPair()
	if err != nil {
		t.Fatalf("NewPair: %s", err)
	}
	defer b.Close()

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %s", err)
	}
	if err := a.Send([]byte("x"), nil); err != transport.ErrClosed {
		t.Fatalf("Send after Close: got %v, want ErrClosed", err)
	}
}

func TestHandleConservationAcrossSend(t *testing.T) {
	a, b, err := transport.NewPair()
	if err != nil {
		t.Fatalf("NewPair: %s", err)
	}
	defer a.Close()
	defer b.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %s", err)
	}
	defer r.Close()

	h := handle.Wrap(w)
	handle.MarkMoved(h) // simulate wire.Encode having already run

	if err := a.Send([]byte("carrier"), []*handle.Handle{h}); err != nil {
		t.Fatalf("Send: %s", err)
	}

	payload, handles, err := b.Recv()
	if err != nil {
		t.Fatalf("Recv: %s", err)
	}
	if string(payload) != "carrier" {
		t.Fatalf("got payload %q, want %q", payload, "carrier")
	}
	if len(handles) != 1 {
		t.Fatalf("got %d handles, want 1", len(handles))
	}

	const msg = "ping"
	if _, err := handles[0].File().WriteString(msg); err != nil {
		t.Fatalf("write through received handle: %s", err)
	}
	handles[0].File().Close()

	buf := make([]byte, len(msg))
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("read from original pipe read end: %s", err)
	}
	if string(buf) != msg {
		t.Fatalf("got %q through the moved descriptor, want %q", buf, msg)
	}
}

func TestPayloadTooLarge(t *testing.T) {
	a, b, err := transport.NewPair()
	if err != nil {
		t.Fatalf("NewPair: %s", err)
	}
	defer a.Close()
	defer b.Close()

	big := make([]byte, a.MaxPayload()+1)
	if err := a.Send(big, nil); err != transport.ErrTooLarge {
		t.Fatalf("Send oversized payload: got %v, want ErrTooLarge", err)
	}
}
