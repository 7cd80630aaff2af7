package joystick

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/vndmesh/pkg/board"
	fx "github.com/robotalks/vndmesh/pkg/framework"
)

// DefaultRetryInterval is the delay before reopening the device.
const DefaultRetryInterval = time.Second

// Config defines the joystick input options.
type Config struct {
	Enabled     bool
	DeviceIndex int
}

var defaultConfig = Config{
	DeviceIndex: -1,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&defaultConfig.Enabled, "joystick", defaultConfig.Enabled, "Use joystick buttons as board buttons.")
	flag.IntVar(&defaultConfig.DeviceIndex, "joystick-device", defaultConfig.DeviceIndex, "Joystick device index, -1 for auto detection.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewInput creates the Input if enabled, otherwise nil.
func (c *Config) NewInput(buttons *board.Buttons) *Input {
	if !c.Enabled {
		return nil
	}
	return NewInput(buttons, c.DeviceIndex)
}

// Input presses board buttons from joystick button events.
type Input struct {
	Buttons *board.Buttons
	// DeviceIndex selects /dev/input/js<N>, -1 to detect.
	DeviceIndex int
	// Map translates joystick buttons to board buttons, identity if nil.
	Map           map[int]int
	RetryInterval time.Duration

	open func(index int) (Device, error)
}

// NewInput creates an Input.
func NewInput(buttons *board.Buttons, deviceIndex int) *Input {
	return &Input{
		Buttons:       buttons,
		DeviceIndex:   deviceIndex,
		RetryInterval: DefaultRetryInterval,
		open:          Open,
	}
}

// AddToLoop implements framework.LoopAdder.
func (in *Input) AddToLoop(l *fx.Loop) {
	l.AddRunnable(in)
}

// Run implements framework.Runnable. The device is reopened after failures.
func (in *Input) Run(ctx context.Context) error {
	retry := in.RetryInterval
	if retry == 0 {
		retry = DefaultRetryInterval
	}
	timer := time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer:
		}
		dev, err := in.openDevice()
		switch {
		case errors.Is(err, ErrUnsupported):
			glog.Warningf("joystick input disabled: %v", err)
			return nil
		case err != nil:
			glog.Warningf("open joystick: %v", err)
		case dev == nil:
			glog.V(2).Info("no joystick detected")
		default:
			glog.Infof("joystick %d %q with %d buttons", dev.Index(), dev.Name(), dev.ButtonCount())
			err = fx.RunWithContextCloser(ctx, dev, func() error { return in.readEvents(dev) })
			if ctx.Err() != nil {
				return ctx.Err()
			}
			glog.Warningf("joystick %d: %v", dev.Index(), err)
		}
		timer = time.After(retry)
	}
}

func (in *Input) openDevice() (Device, error) {
	if in.DeviceIndex >= 0 {
		return in.open(in.DeviceIndex)
	}
	for index := 0; index < 256; index++ {
		d, err := in.open(index)
		if err == nil {
			return d, nil
		}
		if errors.Is(err, ErrUnsupported) || !isNotExist(err) {
			return nil, err
		}
	}
	return nil, nil
}

func (in *Input) readEvents(dev Device) error {
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			return err
		}
		if ev != nil {
			in.apply(ev)
		}
	}
}

func (in *Input) apply(ev *Event) {
	index := ev.Button
	if in.Map != nil {
		mapped, ok := in.Map[index]
		if !ok {
			return
		}
		index = mapped
	}
	if index >= in.Buttons.Count() {
		return
	}
	if ev.Pressed {
		in.Buttons.Press(index)
	} else {
		in.Buttons.Release(index)
	}
}
