package board

import (
	"fmt"
	"sync"
)

// ButtonEvent is a button transition.
type ButtonEvent struct {
	Index   int
	Pressed bool
}

func (e ButtonEvent) String() string {
	if e.Pressed {
		return fmt.Sprintf("button %d pressed", e.Index)
	}
	return fmt.Sprintf("button %d released", e.Index)
}

// ButtonHandler receives button transitions.
type ButtonHandler func(ButtonEvent)

// Buttons is a bank of push buttons. The state is a bitmap,
// bit N for button N.
type Buttons struct {
	Handler ButtonHandler

	count int
	lock  sync.Mutex
	state uint32
}

// NewButtons creates a bank of buttons.
func NewButtons(count int, handler ButtonHandler) *Buttons {
	if count > 32 {
		count = 32
	}
	return &Buttons{count: count, Handler: handler}
}

// Count returns the number of buttons.
func (b *Buttons) Count() int {
	return b.count
}

// State returns the current bitmap.
func (b *Buttons) State() uint32 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.state
}

// Update applies a new state. The handler is called once for every
// button whose bit is set in changed, in index order.
func (b *Buttons) Update(state, changed uint32) {
	mask := uint32(1)<<uint(b.count) - 1
	if b.count == 32 {
		mask = ^uint32(0)
	}
	changed &= mask
	b.lock.Lock()
	b.state = (b.state &^ changed) | (state & changed)
	b.lock.Unlock()
	if b.Handler == nil {
		return
	}
	for i := 0; i < b.count; i++ {
		if changed&(1<<uint(i)) != 0 {
			b.Handler(ButtonEvent{Index: i, Pressed: state&(1<<uint(i)) != 0})
		}
	}
}

// Press presses a button, ignored if already pressed or out of range.
func (b *Buttons) Press(index int) error {
	return b.set(index, true)
}

// Release releases a button, ignored if already released or out of range.
func (b *Buttons) Release(index int) error {
	return b.set(index, false)
}

// Click presses and releases a button.
func (b *Buttons) Click(index int) error {
	if err := b.Press(index); err != nil {
		return err
	}
	return b.Release(index)
}

func (b *Buttons) set(index int, pressed bool) error {
	if index < 0 || index >= b.count {
		return fmt.Errorf("button %d doesn't exist", index)
	}
	bit := uint32(1) << uint(index)
	if (b.State()&bit != 0) == pressed {
		return nil
	}
	var state uint32
	if pressed {
		state = bit
	}
	b.Update(state, bit)
	return nil
}
