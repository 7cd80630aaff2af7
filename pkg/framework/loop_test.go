package framework

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	name string
	take bool
	seen *[]string
	lock *sync.Mutex
}

func (r *recorder) Control(cc ControlContext) error {
	cc.Take(func(m Message) bool {
		msg, ok := m.(string)
		if !ok {
			return false
		}
		r.lock.Lock()
		*r.seen = append(*r.seen, r.name+":"+msg)
		r.lock.Unlock()
		return r.take
	})
	return nil
}

func TestLoopRunOnce(t *testing.T) {
	testCases := []struct {
		name   string
		takeHi bool
		expect []string
	}{
		{"high takes", true, []string{"hi:a", "hi:b"}},
		{"high peeks", false, []string{"hi:a", "hi:b", "lo:a", "lo:b"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var seen []string
			var lock sync.Mutex
			l := NewLoop()
			l.AddController(PrLvApp, &recorder{name: "lo", take: true, seen: &seen, lock: &lock})
			l.AddController(PrLvReceive, &recorder{name: "hi", take: tc.takeHi, seen: &seen, lock: &lock})
			l.PostMessage("a")
			l.PostMessage("b")
			l.RunOnce(context.TODO())
			require.Equal(t, tc.expect, seen)

			seen = nil
			l.RunOnce(context.TODO())
			require.Empty(t, seen)
		})
	}
}

func TestLoopRunTriggered(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	doneCh := make(chan string, 1)
	l.AddController(PrLvApp, ControlFunc(func(cc ControlContext) error {
		cc.Take(func(m Message) bool {
			doneCh <- m.(string)
			return true
		})
		return nil
	}))
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		ctl := LoopCtlFrom(ctx)
		ctl.PostMessage("posted")
		ctl.TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	select {
	case msg := <-doneCh:
		require.Equal(t, "posted", msg)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("message not processed")
	}
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestLoopSync(t *testing.T) {
	var seen []string
	var lock sync.Mutex
	l := NewLoop()
	l.Interval = time.Hour
	l.AddController(PrLvApp, &recorder{name: "app", take: true, seen: &seen, lock: &lock})

	ctx, cancel := context.WithCancel(context.TODO())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	l.PostMessage("a")
	l.PostMessage("b")
	syncCtx, syncCancel := context.WithTimeout(context.TODO(), time.Second)
	defer syncCancel()
	require.NoError(t, l.Sync(syncCtx))
	lock.Lock()
	require.Equal(t, []string{"app:a", "app:b"}, seen)
	lock.Unlock()

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	stopped, stoppedCancel := context.WithTimeout(context.TODO(), 50*time.Millisecond)
	defer stoppedCancel()
	require.ErrorIs(t, l.Sync(stopped), context.DeadlineExceeded)
}

func TestRunnerWait(t *testing.T) {
	errBoom := errors.New("boom")
	r := NewRunner().Go(
		NamedRun("ok", RunFunc(func(context.Context) error { return nil })),
		NamedRun("canceled", RunFunc(func(context.Context) error { return context.Canceled })),
		NamedRun("failed", RunFunc(func(context.Context) error { return errBoom })),
	)
	err := r.Wait()
	require.Error(t, err)
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, "boom", err.Error())
}

func TestRunnerFailFast(t *testing.T) {
	errBoom := errors.New("boom")
	stopped := make(chan struct{})
	r := NewRunner().Go(
		NamedRun("blocked", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return ctx.Err()
		})),
		NamedRun("failed", RunFunc(func(context.Context) error { return errBoom })),
	)
	select {
	case <-r.Failed():
	case <-time.After(time.Second):
		t.Fatal("failure not reported")
	}
	require.ErrorIs(t, r.Wait(), errBoom)
	<-stopped
}

func TestLoopStopsOnFailure(t *testing.T) {
	errBoom := errors.New("boom")
	l := NewLoop()
	l.Interval = time.Hour
	l.AddRunnable(RunFunc(func(context.Context) error { return errBoom }))
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background()) }()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, errBoom)
	case <-time.After(time.Second):
		t.Fatal("loop not stopped")
	}
}

func TestRunWithContextCloser(t *testing.T) {
	c := &countCloser{}
	require.NoError(t, RunWithContextCloser(context.Background(), c, func() error { return nil }))
	require.Equal(t, 1, c.count())

	c = &countCloser{doneCh: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunWithContextCloser(ctx, c, func() error {
		<-c.doneCh
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, c.count())
}

type countCloser struct {
	lock   sync.Mutex
	n      int
	doneCh chan struct{}
}

func (c *countCloser) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.n++
	if c.doneCh != nil && c.n == 1 {
		close(c.doneCh)
	}
	return nil
}

func (c *countCloser) count() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.n
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	require.Equal(t, "2 errors: a; b", errs.Aggregate().Error())

	var nested AggregatedError
	nested.Add(errors.New("c"), &errs)
	require.Len(t, nested.Errors, 3)
	require.Equal(t, "3 errors: c; a; b", nested.Error())
}
