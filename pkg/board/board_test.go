package board

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLEDs(t *testing.T) {
	var changes []int
	leds := NewLEDs(DefaultCount)
	leds.OnChange = func(index int, on bool) {
		changes = append(changes, index)
	}
	require.Equal(t, 4, leds.Count())
	leds.Set(1, true)
	leds.Set(1, true)
	leds.Set(4, true)
	leds.Set(-1, true)
	require.True(t, leds.Get(1))
	require.False(t, leds.Get(4))
	require.Equal(t, []bool{false, true, false, false}, leds.States())
	require.Equal(t, []int{1}, changes)
}

func TestButtonsUpdate(t *testing.T) {
	var events []ButtonEvent
	buttons := NewButtons(DefaultCount, func(ev ButtonEvent) {
		events = append(events, ev)
	})
	buttons.Update(0x5, 0x7|0x10)
	require.Equal(t, []ButtonEvent{
		{Index: 0, Pressed: true},
		{Index: 1, Pressed: false},
		{Index: 2, Pressed: true},
	}, events)
	require.Equal(t, uint32(0x5), buttons.State())
}

func TestButtonsPressRelease(t *testing.T) {
	var events []ButtonEvent
	buttons := NewButtons(DefaultCount, func(ev ButtonEvent) {
		events = append(events, ev)
	})
	require.NoError(t, buttons.Press(3))
	require.NoError(t, buttons.Press(3))
	require.NoError(t, buttons.Release(3))
	require.NoError(t, buttons.Click(0))
	require.Error(t, buttons.Press(4))
	require.Equal(t, []ButtonEvent{
		{Index: 3, Pressed: true},
		{Index: 3, Pressed: false},
		{Index: 0, Pressed: true},
		{Index: 0, Pressed: false},
	}, events)
	require.Equal(t, "button 3 pressed", events[0].String())
}
