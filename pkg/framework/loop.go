package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the idle period between iterations.
const DefaultInterval = 100 * time.Millisecond

// Loop is a single cooperative work queue. Messages posted from any
// goroutine are handed to controllers on one goroutine, so controllers
// never run concurrently with each other.
type Loop struct {
	Interval time.Duration

	stages  [numPriorities][]Controller
	workers []Runnable

	lock    sync.Mutex
	pending []Message
	wakeCh  chan struct{}
}

// LoopAdder knows how to install itself into a Loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopCtlKey struct{}

// LoopCtlFrom gets LoopControl from the context passed to Runnables
// started by the loop.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtlKey{}).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, wakeCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at the given priority. Controllers
// which are also Runnable get started with the loop.
func (l *Loop) AddController(pr Priority, ctls ...Controller) *Loop {
	l.stages[pr] = append(l.stages[pr], ctls...)
	for _, ctl := range ctls {
		if r, ok := ctl.(Runnable); ok {
			l.workers = append(l.workers, r)
		}
	}
	return l
}

// AddRunnable adds workers started with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.workers = append(l.workers, runnables...)
	return l
}

// Run implements Runnable. It returns when ctx is done or any worker
// added to the loop fails.
func (l *Loop) Run(ctx context.Context) error {
	workers := NewRunnerWith(context.WithValue(ctx, loopCtlKey{}, LoopControl(l)))
	workers.Go(l.workers...)

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			workers.Wait()
			l.release()
			return ctx.Err()
		case <-workers.Failed():
			err := workers.Wait()
			l.release()
			return err
		case <-ticker.C:
		case <-l.wakeCh:
		}
		l.RunOnce(ctx)
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.pending = append(l.pending, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeCh <- struct{}{}:
	default:
	}
}

// syncMsg is closed once the iteration it's posted to completes.
type syncMsg chan struct{}

// Sync returns after every message posted before the call has been
// handed to the controllers, or the loop stopped.
func (l *Loop) Sync(ctx context.Context) error {
	done := make(syncMsg)
	l.PostMessage(done)
	l.TriggerNext()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release unblocks Sync callers after the loop stopped.
func (l *Loop) release() {
	l.lock.Lock()
	msgs := l.pending
	l.pending = nil
	l.lock.Unlock()
	for _, msg := range msgs {
		if done, ok := msg.(syncMsg); ok {
			close(done)
		}
	}
}

// RunOnce runs a single iteration over the messages posted so far.
// Messages no controller takes are dropped afterwards.
func (l *Loop) RunOnce(ctx context.Context) {
	l.lock.Lock()
	msgs := l.pending
	l.pending = nil
	l.lock.Unlock()

	it := &iteration{Loop: l, ctx: ctx, start: time.Now(), msgs: msgs}
	for pr := range l.stages {
		it.pr = Priority(pr)
		for _, ctl := range l.stages[pr] {
			if err := ctl.Control(it); err != nil {
				glog.Errorf("controller at priority %d: %v", pr, err)
			}
		}
	}
	for _, msg := range it.msgs {
		if done, ok := msg.(syncMsg); ok {
			close(done)
		} else if glog.V(4) {
			glog.Infof("dropped %T", msg)
		}
	}
}

type iteration struct {
	*Loop
	ctx   context.Context
	start time.Time
	pr    Priority
	msgs  []Message
}

func (it *iteration) Context() context.Context { return it.ctx }
func (it *iteration) Time() time.Time          { return it.start }
func (it *iteration) Priority() Priority       { return it.pr }

func (it *iteration) Take(fn func(Message) bool) {
	kept := it.msgs[:0]
	for _, msg := range it.msgs {
		if !fn(msg) {
			kept = append(kept, msg)
		}
	}
	for i := len(kept); i < len(it.msgs); i++ {
		it.msgs[i] = nil
	}
	it.msgs = kept
}
