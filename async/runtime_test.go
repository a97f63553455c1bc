package async_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/johnsiilver/xpc/async"
	"github.com/johnsiilver/xpc/channel"
)

func TestRuntimeSchedulesInOrder(t *testing.T) {
	r := async.NewRuntime()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		r.Schedule(func() {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scheduled tasks to run")
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("got order %v, want strictly increasing from 0", order)
		}
	}
}

// TestAsyncSenderReceiverRoundTrip runs two independently-scheduled async
// tasks, one sending on an AsyncSender and one receiving on the matching
// AsyncReceiver of the same Pipe, both resuming through one Runtime without
// blocking each other.
func TestAsyncSenderReceiverRoundTrip(t *testing.T) {
	type msg struct{ N int }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rt := async.NewRuntime()
	runCtx, stopRuntime := context.WithCancel(context.Background())
	defer stopRuntime()
	go rt.Run(runCtx)

	sA, rA, err := channel.Pipe[msg]()
	if err != nil {
		t.Fatalf("Pipe: %s", err)
	}
	defer sA.Close()
	defer rA.Close()

	aSend := async.NewAsyncSender[msg](rt, sA)
	aRecv := async.NewAsyncReceiver[msg](rt, rA)

	errs := make(chan error, 2)
	go func() {
		errs <- aSend.Send(ctx, msg{N: 1})
	}()
	go func() {
		got, err := aRecv.Recv(ctx)
		if err != nil {
			errs <- err
			return
		}
		if got.N != 1 {
			errs <- fmt.Errorf("got N=%d, want 1", got.N)
			return
		}
		errs <- nil
	}()

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("async round trip failed: %s", err)
		}
	}
}
