package app

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/vndmesh/pkg/board"
	"github.com/robotalks/vndmesh/pkg/framework"
	"github.com/robotalks/vndmesh/pkg/mesh"
	"github.com/robotalks/vndmesh/pkg/vendor"
)

// ButtonClient reports button transitions and toggles the remote LED
// with the same index on every press. LED Status from the server is
// mirrored on the local LEDs.
type ButtonClient struct {
	LEDs    *board.LEDs
	Buttons *board.Buttons
	Client  *vendor.Client

	lock    sync.Mutex
	intents [vendor.LEDCount]vendor.LEDState
}

type buttonMsg struct {
	event board.ButtonEvent
}

// NewButtonClient creates the client application.
func NewButtonClient(leds *board.LEDs, buttonCount int) *ButtonClient {
	c := &ButtonClient{LEDs: leds}
	c.Client = vendor.NewClient(vendor.ClientHandlers{LEDStatus: c.ledStatus})
	c.Buttons = board.NewButtons(buttonCount, c.HandleButton)
	return c
}

// Attach binds the client to the model.
func (c *ButtonClient) Attach(m *mesh.Model) *ButtonClient {
	c.Client.Attach(m)
	return c
}

// AddToLoop implements framework.LoopAdder. Button events are then
// handled in the loop instead of the caller of Buttons.
func (c *ButtonClient) AddToLoop(l *framework.Loop) {
	c.Buttons.Handler = func(ev board.ButtonEvent) {
		l.PostMessage(&buttonMsg{event: ev})
		l.TriggerNext()
	}
	l.AddController(framework.PrLvApp, framework.ControlFunc(c.control))
}

func (c *ButtonClient) control(cc framework.ControlContext) error {
	cc.Take(func(m framework.Message) bool {
		msg, ok := m.(*buttonMsg)
		if ok {
			c.HandleButton(msg.event)
		}
		return ok
	})
	return nil
}

// HandleButton sends Button Press, and LED Set on press.
func (c *ButtonClient) HandleButton(ev board.ButtonEvent) {
	press := vendor.ButtonPress{Index: uint8(ev.Index), State: vendor.ButtonReleased}
	if ev.Pressed {
		press.State = vendor.ButtonPressed
	}
	if err := c.Client.ButtonPress(nil, press); err != nil {
		glog.Warningf("send %s: %v", press, err)
	}
	if !ev.Pressed || ev.Index >= vendor.LEDCount {
		return
	}
	c.lock.Lock()
	state := vendor.LEDOn
	if c.intents[ev.Index] == vendor.LEDOn {
		state = vendor.LEDOff
	}
	c.intents[ev.Index] = state
	c.lock.Unlock()
	if err := c.Client.LEDSet(nil, uint8(ev.Index), state); err != nil {
		glog.Warningf("send LED_SET %d %s: %v", ev.Index, state, err)
	}
}

// Intent returns the LED state last requested for the button.
func (c *ButtonClient) Intent(index int) vendor.LEDState {
	c.lock.Lock()
	defer c.lock.Unlock()
	if index < 0 || index >= vendor.LEDCount {
		return vendor.LEDOff
	}
	return c.intents[index]
}

func (c *ButtonClient) ledStatus(_ *vendor.Client, ctx *mesh.MsgCtx, status vendor.LEDStatus) {
	glog.Infof("LED %d is now %s (from %s)", status.Index, status.State, ctx.Addr)
	c.LEDs.Set(int(status.Index), status.State == vendor.LEDOn)
}
