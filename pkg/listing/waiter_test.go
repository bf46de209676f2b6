package listing

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grote/lazylist/pkg/provider"
	"github.com/stretchr/testify/require"
)

// fakeResult is a test double tracking every Close call, so tests can
// assert the release happens exactly once. Unlike the production result
// it deliberately does not deduplicate closes.
type fakeResult struct {
	mu         sync.Mutex
	rows       []provider.Row
	loading    bool
	onChange   func()
	subscribed bool
	closeCount int32
}

func (r *fakeResult) Rows() []provider.Row { return r.rows }
func (r *fakeResult) Loading() bool        { return r.loading }

func (r *fakeResult) OnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
	r.subscribed = true
}

func (r *fakeResult) Close() error {
	atomic.AddInt32(&r.closeCount, 1)
	return nil
}

func (r *fakeResult) closes() int32 {
	return atomic.LoadInt32(&r.closeCount)
}

// notify fires the registered callback, mimicking the provider's change
// notification.
func (r *fakeResult) notify() {
	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// queueQuery returns each prepared answer in turn.
func queueQuery(answers ...func() (provider.Result, error)) Query {
	var calls int32
	return func(ctx context.Context) (provider.Result, error) {
		n := atomic.AddInt32(&calls, 1)
		if int(n) > len(answers) {
			return nil, nil
		}
		return answers[int(n)-1]()
	}
}

func resultAnswer(res provider.Result) func() (provider.Result, error) {
	return func() (provider.Result, error) { return res, nil }
}

func noResultAnswer() (provider.Result, error) { return nil, nil }

func TestWaitResolvedImmediately(t *testing.T) {
	res := &fakeResult{rows: []provider.Row{{Name: "a.txt", Kind: provider.KindFile}}}

	got, err := (&Waiter{}).Wait(context.Background(), queueQuery(resultAnswer(res)))
	require.NoError(t, err)
	require.Same(t, provider.Result(res), got)

	// No subscription and no release: ownership moved to the caller
	require.False(t, res.subscribed)
	require.EqualValues(t, 0, res.closes())
}

func TestWaitQueryFailed(t *testing.T) {
	_, err := (&Waiter{}).Wait(context.Background(), queueQuery(noResultAnswer))
	require.Error(t, err)

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, ErrQueryFailed, code)
}

// TestWaitNotificationResolves verifies the wait resolves with the second
// result's rows once the notification fires.
func TestWaitNotificationResolves(t *testing.T) {
	stale := &fakeResult{loading: true}
	fresh := &fakeResult{rows: []provider.Row{
		{Name: "report.txt", Kind: provider.KindFile},
		{Name: "archive", Kind: provider.KindDirectory},
	}}

	go func() {
		// Give the waiter time to subscribe
		time.Sleep(50 * time.Millisecond)
		stale.notify()
	}()

	got, err := (&Waiter{}).Wait(context.Background(), queueQuery(resultAnswer(stale), resultAnswer(fresh)))
	require.NoError(t, err)
	require.Same(t, provider.Result(fresh), got)
	require.Len(t, got.Rows(), 2)

	// The stale result was released exactly once; the fresh one is still
	// owned by the caller
	require.EqualValues(t, 1, stale.closes())
	require.EqualValues(t, 0, fresh.closes())
}

// TestWaitNotificationBeforeSubscribe verifies a notification firing in
// the window between the query returning a loading result and the waiter
// registering its callback still resolves the wait instead of timing out.
func TestWaitNotificationBeforeSubscribe(t *testing.T) {
	stale := provider.NewStaticResult(nil, true)
	fresh := &fakeResult{rows: []provider.Row{{Name: "early.txt", Kind: provider.KindFile}}}

	query := queueQuery(
		func() (provider.Result, error) {
			// The backing data settles before the waiter subscribes.
			defer stale.Notify()
			return stale, nil
		},
		resultAnswer(fresh),
	)

	start := time.Now()
	got, err := (&Waiter{Timeout: 300 * time.Millisecond}).Wait(context.Background(), query)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Same(t, provider.Result(fresh), got)
	require.Less(t, elapsed, 300*time.Millisecond, "wait must resolve on the latched notification, not the timeout")
	require.True(t, stale.Closed())
}

// TestWaitTrustsSecondResult verifies at most one resubscription round is
// performed: the post-notification result resolves the wait even when it
// still claims to be loading.
func TestWaitTrustsSecondResult(t *testing.T) {
	stale := &fakeResult{loading: true}
	fresh := &fakeResult{loading: true, rows: []provider.Row{{Name: "late.txt", Kind: provider.KindFile}}}

	go func() {
		time.Sleep(50 * time.Millisecond)
		stale.notify()
	}()

	got, err := (&Waiter{}).Wait(context.Background(), queueQuery(resultAnswer(stale), resultAnswer(fresh)))
	require.NoError(t, err)
	require.Same(t, provider.Result(fresh), got)
	require.False(t, fresh.subscribed)
}

func TestWaitRequeryFails(t *testing.T) {
	stale := &fakeResult{loading: true}

	go func() {
		time.Sleep(50 * time.Millisecond)
		stale.notify()
	}()

	_, err := (&Waiter{}).Wait(context.Background(), queueQuery(resultAnswer(stale), noResultAnswer))
	require.Error(t, err)

	code, _ := CodeOf(err)
	require.Equal(t, ErrQueryFailed, code)
	require.EqualValues(t, 1, stale.closes())
}

// TestWaitRequeryCancelled verifies a cancellation striking during the
// post-notification re-query is reported as a cancellation, not as a
// provider failure.
func TestWaitRequeryCancelled(t *testing.T) {
	stale := &fakeResult{loading: true}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		stale.notify()
	}()

	query := queueQuery(
		resultAnswer(stale),
		func() (provider.Result, error) {
			cancel()
			return nil, ctx.Err()
		},
	)

	_, err := (&Waiter{Timeout: 5 * time.Second}).Wait(ctx, query)
	require.Error(t, err)

	code, _ := CodeOf(err)
	require.Equal(t, ErrCancelled, code)
	require.ErrorIs(t, err, context.Canceled)
	require.EqualValues(t, 1, stale.closes())
}

// TestWaitTimeout verifies the timeout fires no earlier than configured
// and within a small scheduling slack.
func TestWaitTimeout(t *testing.T) {
	stale := &fakeResult{loading: true}

	start := time.Now()
	_, err := (&Waiter{Timeout: 200 * time.Millisecond}).Wait(context.Background(), queueQuery(resultAnswer(stale)))
	elapsed := time.Since(start)

	require.Error(t, err)
	code, _ := CodeOf(err)
	require.Equal(t, ErrTimeout, code)

	require.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	require.Less(t, elapsed, 700*time.Millisecond)
	require.EqualValues(t, 1, stale.closes())
}

// TestWaitCancellation verifies cancelling a subscribed wait releases the
// held result before Wait returns.
func TestWaitCancellation(t *testing.T) {
	stale := &fakeResult{loading: true}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := (&Waiter{Timeout: 5 * time.Second}).Wait(ctx, queueQuery(resultAnswer(stale)))
	require.Error(t, err)

	code, _ := CodeOf(err)
	require.Equal(t, ErrCancelled, code)

	// Release already happened by the time Wait returned
	require.EqualValues(t, 1, stale.closes())
}

// TestWaitLateNotificationIsNoOp verifies a notification arriving after a
// terminal state does not disturb the wait.
func TestWaitLateNotificationIsNoOp(t *testing.T) {
	stale := &fakeResult{loading: true}

	_, err := (&Waiter{Timeout: 100 * time.Millisecond}).Wait(context.Background(), queueQuery(resultAnswer(stale)))
	require.Error(t, err)
	require.EqualValues(t, 1, stale.closes())

	// Fires after TimedOut; must not panic or close again
	stale.notify()
	require.EqualValues(t, 1, stale.closes())
}

// TestWaitReleaseUnderRace verifies the exactly-once release holds when
// cancellation and notification race.
func TestWaitReleaseUnderRace(t *testing.T) {
	for i := 0; i < 50; i++ {
		stale := &fakeResult{loading: true}
		fresh := &fakeResult{}

		ctx, cancel := context.WithCancel(context.Background())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			stale.notify()
		}()
		go func() {
			defer wg.Done()
			cancel()
		}()

		got, err := (&Waiter{Timeout: time.Second}).Wait(ctx, queueQuery(resultAnswer(stale), resultAnswer(fresh)))
		wg.Wait()

		if err == nil {
			// Notification won: caller owns the fresh result
			require.Same(t, provider.Result(fresh), got)
			got.Close()
			require.EqualValues(t, 1, fresh.closes())
		}
		require.EqualValues(t, 1, stale.closes(), "iteration %d", i)

		cancel()
	}
}
