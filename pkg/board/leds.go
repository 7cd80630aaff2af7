// Package board simulates the LEDs and buttons of a development kit.
package board

import (
	"sync"

	"github.com/golang/glog"
)

// DefaultCount is the number of LEDs and buttons on the kit.
const DefaultCount = 4

// LEDs is a bank of on/off LEDs.
type LEDs struct {
	// OnChange is called after an LED changes, optional.
	OnChange func(index int, on bool)

	lock   sync.RWMutex
	states []bool
}

// NewLEDs creates a bank with all LEDs off.
func NewLEDs(count int) *LEDs {
	return &LEDs{states: make([]bool, count)}
}

// Count returns the number of LEDs.
func (l *LEDs) Count() int {
	return len(l.states)
}

// Set turns an LED on or off. Out-of-range index is ignored.
func (l *LEDs) Set(index int, on bool) {
	if index < 0 || index >= len(l.states) {
		glog.Warningf("LED %d doesn't exist", index)
		return
	}
	l.lock.Lock()
	changed := l.states[index] != on
	l.states[index] = on
	l.lock.Unlock()
	if !changed {
		return
	}
	glog.V(1).Infof("LED %d %s", index, onOff(on))
	if fn := l.OnChange; fn != nil {
		fn(index, on)
	}
}

// Get returns the state of an LED, off if out of range.
func (l *LEDs) Get(index int) bool {
	if index < 0 || index >= len(l.states) {
		return false
	}
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.states[index]
}

// States returns a copy of all LED states.
func (l *LEDs) States() []bool {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return append([]bool(nil), l.states...)
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
