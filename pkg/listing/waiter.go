package listing

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/grote/lazylist/internal/logger"
	"github.com/grote/lazylist/pkg/provider"
)

// DefaultWaitTimeout bounds a readiness wait when no per-waiter override
// is configured.
const DefaultWaitTimeout = 15 * time.Second

// Waiter guarantees the caller observes a non-loading Result, or a
// well-defined failure, within a bounded time.
//
// A provider may answer the very first query with an empty or partial
// snapshot while it populates data from its backing source; the only
// reliable readiness signal is the change notification on the originally
// returned Result. The waiter therefore holds that Result open (not yet
// released) while subscribed, and races three events:
//
//  1. Notification: release the stale Result, re-run the query once, and
//     resolve with the fresh Result. The fresh Result is trusted regardless
//     of its own loading flag; one notification is sufficient signal of
//     settled state, so at most one resubscription round is performed.
//  2. Timeout: release the Result and fail with ErrTimeout.
//  3. Cancellation: release the Result before Wait returns and fail with
//     ErrCancelled.
//
// Whichever event wins, the held Result is released exactly once, and any
// notification arriving after the wait reached a terminal state is a no-op.
//
// Thread Safety:
// A Waiter is stateless between calls; Wait may be invoked concurrently
// from multiple goroutines.
type Waiter struct {
	// Timeout bounds the subscribed phase. Zero means DefaultWaitTimeout.
	Timeout time.Duration
}

// Wait runs query and suspends the caller until a trustworthy Result is
// available, the timeout elapses, or ctx is cancelled.
//
// Ownership of the returned Result transfers to the caller, which must
// close it.
func (w *Waiter) Wait(ctx context.Context, query Query) (provider.Result, error) {
	res, err := Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	if !res.Loading() {
		return res, nil
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	logger.Debug("Result still loading, subscribing for change notification (timeout=%v)", timeout)

	// terminated gates the notification callback: once any of the three
	// racing events wins, late callbacks must not touch the wait again.
	var terminated atomic.Bool

	notify := make(chan struct{}, 1)
	res.OnChange(func() {
		if terminated.Load() {
			return
		}
		select {
		case notify <- struct{}{}:
		default:
		}
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-notify:
		terminated.Store(true)
		res.Close()

		fresh, err := Execute(ctx, query)
		if err != nil {
			// A cancellation during the re-query is still a voluntary
			// abandonment, not a provider failure.
			if ctx.Err() != nil {
				return nil, &ListError{
					Code:    ErrCancelled,
					Message: "wait cancelled",
					Err:     ctx.Err(),
				}
			}
			return nil, err
		}
		return fresh, nil

	case <-timer.C:
		terminated.Store(true)
		res.Close()
		return nil, &ListError{
			Code:    ErrTimeout,
			Message: "no readiness notification within " + timeout.String(),
		}

	case <-ctx.Done():
		// Release synchronously, before Wait returns to the canceller.
		terminated.Store(true)
		res.Close()
		return nil, &ListError{
			Code:    ErrCancelled,
			Message: "wait cancelled",
			Err:     ctx.Err(),
		}
	}
}
