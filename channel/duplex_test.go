package channel_test

import (
	"errors"
	"testing"

	"github.com/johnsiilver/xpc/channel"
	"github.com/johnsiilver/xpc/transport"
)

// TestAddOverChannel exercises the simplest end-to-end scenario: one side
// sends a request value, the other computes and replies.
func TestAddOverChannel(t *testing.T) {
	type addRequest struct{ A, B int }

	reqSend, reqRecv, err := channel.Pipe[addRequest]()
	if err != nil {
		t.Fatalf("Pipe: %s", err)
	}
	defer reqSend.Close()
	defer reqRecv.Close()

	respSend, respRecv, err := channel.Pipe[int]()
	if err != nil {
		t.Fatalf("Pipe: %s", err)
	}
	defer respSend.Close()
	defer respRecv.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		req, err := reqRecv.Recv()
		if err != nil {
			t.Errorf("server Recv: %s", err)
			return
		}
		if err := respSend.Send(req.A + req.B); err != nil {
			t.Errorf("server Send: %s", err)
		}
	}()

	if err := reqSend.Send(addRequest{A: 2, B: 3}); err != nil {
		t.Fatalf("client Send: %s", err)
	}
	sum, err := respRecv.Recv()
	if err != nil {
		t.Fatalf("client Recv: %s", err)
	}
	if sum != 5 {
		t.Fatalf("got %d, want 5", sum)
	}
	<-done
}

// TestPingPongDuplex exercises a single Duplex carrying two different
// message types in each direction.
func TestPingPongDuplex(t *testing.T) {
	type ping struct{ N int }
	type pong struct{ N int }

	epA, epB, err := transport.NewPair()
	if err != nil {
		t.Fatalf("NewPair: %s", err)
	}
	a := channel.NewDuplex[ping, pong](epA)
	b := channel.NewDuplex[pong, ping](epB)
	defer a.Close()
	defer b.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			p, err := b.Recv()
			if err != nil {
				t.Errorf("responder Recv: %s", err)
				return
			}
			if err := b.Send(pong{N: p.N + 1}); err != nil {
				t.Errorf("responder Send: %s", err)
				return
			}
		}
	}()

	for i := 0; i < 3; i++ {
		if err := a.Send(ping{N: i}); err != nil {
			t.Fatalf("initiator Send: %s", err)
		}
		reply, err := a.Recv()
		if err != nil {
			t.Fatalf("initiator Recv: %s", err)
		}
		if reply.N != i+1 {
			t.Fatalf("got %d, want %d", reply.N, i+1)
		}
	}
	<-done
}

func TestRecvAfterSenderCloseIsPeerGone(t *testing.T) {
	s, r, err := channel.Pipe[string]()
	if err != nil {
		t.Fatalf("Pipe: %s", err)
	}
	defer r.Close()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %s", err)
	}
	if _, err := r.Recv(); !errors.Is(err, channel.ErrPeerGone) {
		t.Fatalf("got %v, want ErrPeerGone", err)
	}
}

// TestEndpointTransfer exercises scenario 4: a Receiver is itself sent as a
// value over an unrelated channel, and the recipient can use it to receive
// a message from the original sender.
func TestEndpointTransfer(t *testing.T) {
	dataSend, dataRecv, err := channel.Pipe[string]()
	if err != nil {
		t.Fatalf("Pipe: %s", err)
	}
	defer dataSend.Close()

	carrierSend, carrierRecv, err := channel.Pipe[channel.Receiver[string]]()
	if err != nil {
		t.Fatalf("Pipe: %s", err)
	}
	defer carrierSend.Close()

	if err := carrierSend.Send(dataRecv); err != nil {
		t.Fatalf("Send(dataRecv): %s", err)
	}
	transferred, err := carrierRecv.Recv()
	if err != nil {
		t.Fatalf("Recv carrier: %s", err)
	}
	defer transferred.Close()

	if err := dataSend.Send("hello via transferred endpoint"); err != nil {
		t.Fatalf("dataSend.Send: %s", err)
	}
	got, err := transferred.Recv()
	if err != nil {
		t.Fatalf("transferred.Recv: %s", err)
	}
	if got != "hello via transferred endpoint" {
		t.Fatalf("got %q, want %q", got, "hello via transferred endpoint")
	}
}
