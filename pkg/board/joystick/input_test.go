package joystick

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/vndmesh/pkg/board"
)

type fakeDevice struct {
	index    int
	eventCh  chan *Event
	closeCh  chan struct{}
	closeOnce sync.Once
}

func newFakeDevice(index int) *fakeDevice {
	return &fakeDevice{
		index:   index,
		eventCh: make(chan *Event, 8),
		closeCh: make(chan struct{}),
	}
}

func (d *fakeDevice) Close() error {
	d.closeOnce.Do(func() { close(d.closeCh) })
	return nil
}

func (d *fakeDevice) Index() int       { return d.index }
func (d *fakeDevice) Name() string     { return "fake" }
func (d *fakeDevice) ButtonCount() int { return 8 }

func (d *fakeDevice) ReadEvent() (*Event, error) {
	select {
	case ev := <-d.eventCh:
		return ev, nil
	case <-d.closeCh:
		return nil, io.EOF
	}
}

func TestInputPressesButtons(t *testing.T) {
	evCh := make(chan board.ButtonEvent, 16)
	buttons := board.NewButtons(board.DefaultCount, func(ev board.ButtonEvent) { evCh <- ev })
	dev := newFakeDevice(2)
	in := NewInput(buttons, -1)
	in.Map = map[int]int{4: 0, 5: 1, 7: 6}
	in.open = func(index int) (Device, error) {
		if index < dev.index {
			return nil, os.ErrNotExist
		}
		return dev, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- in.Run(ctx) }()

	dev.eventCh <- &Event{Button: 5, Init: true}
	dev.eventCh <- &Event{Button: 4, Pressed: true}
	dev.eventCh <- nil
	dev.eventCh <- &Event{Button: 0, Pressed: true}
	dev.eventCh <- &Event{Button: 7, Pressed: true}
	dev.eventCh <- &Event{Button: 4}

	expect := func(ev board.ButtonEvent) {
		select {
		case actual := <-evCh:
			require.Equal(t, ev, actual)
		case <-time.After(2 * time.Second):
			t.Fatalf("expect %s", ev)
		}
	}
	expect(board.ButtonEvent{Index: 0, Pressed: true})
	expect(board.ButtonEvent{Index: 0, Pressed: false})
	require.Zero(t, buttons.State())

	cancel()
	select {
	case err := <-errCh:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("Run not stopped")
	}
	require.Empty(t, evCh)
}

func TestInputRetry(t *testing.T) {
	buttons := board.NewButtons(board.DefaultCount, nil)
	var lock sync.Mutex
	attempts := 0
	in := NewInput(buttons, 0)
	in.RetryInterval = 10 * time.Millisecond
	in.open = func(int) (Device, error) {
		lock.Lock()
		defer lock.Unlock()
		attempts++
		return nil, errors.New("busy")
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- in.Run(ctx) }()
	require.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		return attempts >= 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	in.open = func(int) (Device, error) { return nil, ErrUnsupported }
	require.NoError(t, in.Run(context.Background()))
}

func TestConfigNewInput(t *testing.T) {
	buttons := board.NewButtons(board.DefaultCount, nil)
	conf := NewConfig()
	require.Nil(t, conf.NewInput(buttons))
	conf.Enabled = true
	conf.DeviceIndex = 1
	in := conf.NewInput(buttons)
	require.NotNil(t, in)
	require.Equal(t, 1, in.DeviceIndex)
}
