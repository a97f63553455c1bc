package async

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/johnsiilver/xpc/lifecycle"
)

// AwaitExit blocks until every child in children has exited, or ctx is
// cancelled, whichever comes first. It fans the individual blocking
// lifecycle.Child.Wait calls out across an errgroup, satisfying end-to-end
// scenario 6: two tasks each own their own channel to independent children,
// and a caller waits on both without hand-rolling a WaitGroup and result
// slice. Each child's Wait runs on its own goroutine (an OS process exit is
// as much a blocking syscall as a transport Recv), but each result is handed
// back to its waiter only through rt's single drain goroutine, the same
// resume discipline AsyncSender/AsyncReceiver/AsyncDuplex use.
//
// exitCodes[i] corresponds to children[i]; a child that has not exited
// before ctx is cancelled keeps code 0 in its slot. The returned err is the
// first error any wait produced (ctx.Err() after cancellation); there is no
// per-child error.
func AwaitExit(ctx context.Context, rt *Runtime, children []*lifecycle.Child) (exitCodes []int, err error) {
	exitCodes = make([]int, len(children))

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range children {
		i, c := i, c
		g.Go(func() error {
			result := make(chan struct {
				code int
				err  error
			}, 1)
			go func() {
				code, err := c.Wait()
				rt.Schedule(func() {
					result <- struct {
						code int
						err  error
					}{code, err}
				})
			}()

			select {
			case r := <-result:
				exitCodes[i] = r.code
				return r.err
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	err = g.Wait()
	return exitCodes, err
}
