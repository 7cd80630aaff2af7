// Package joystick presses board buttons from a joystick device, the
// stand-in for dev-kit buttons on a Linux host.
package joystick

import (
	"errors"
	"io"
	"os"
)

// ErrUnsupported is returned by Open on systems without joystick support.
var ErrUnsupported = errors.New("joystick not supported")

// Event is a button change read from the device.
type Event struct {
	Button  int
	Pressed bool
	// Init marks events reporting the initial state after open.
	Init bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	Index() int
	Name() string
	ButtonCount() int
	// ReadEvent reads one event, nil for non-button events.
	ReadEvent() (*Event, error)
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
