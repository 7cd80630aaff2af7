package framework

import (
	"context"
	"time"
)

// Named is implemented by components with a name used in logs.
type Named interface {
	Name() string
}

// Runnable is a background worker bound to a context.
type Runnable interface {
	Run(context.Context) error
}

// Message is posted to a Loop and handed to controllers in the next
// iteration, e.g. a received network PDU or a button event.
type Message interface{}

// Priority orders controllers within an iteration, lower runs first.
type Priority int

// Stages of an iteration.
const (
	// PrLvReceive is where inbound network traffic is dispatched.
	PrLvReceive Priority = iota
	// PrLvApp is where application logic consumes its events.
	PrLvApp
	// PrLvIdle runs last and sees whatever is left.
	PrLvIdle

	numPriorities
)

// Controller is invoked once per iteration on the loop goroutine.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// ControlContext is the view of one iteration given to a controller.
type ControlContext interface {
	LoopControl

	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	Priority() Priority
	// Take calls fn for each pending message in posting order. Messages
	// for which fn returns true are removed, the others stay visible to
	// controllers of later priorities in the same iteration.
	Take(fn func(Message) bool)
}

// LoopControl is safe to use from any goroutine.
type LoopControl interface {
	PostMessage(Message)
	// TriggerNext wakes the loop up so the next iteration starts
	// without waiting for the interval.
	TriggerNext()
}
