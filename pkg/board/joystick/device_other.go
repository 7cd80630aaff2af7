//go:build !linux

package joystick

// Open always fails on this system.
func Open(index int) (Device, error) {
	return nil, ErrUnsupported
}
