package sh

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/vndmesh/pkg/mesh"
	"github.com/robotalks/vndmesh/pkg/mesh/bearer/mqtt"
	"github.com/robotalks/vndmesh/pkg/vendor"
)

var (
	errNotStarted   = errors.New("node not started")
	errArgsExpected = errors.New("arguments expected")
	errNoDiscovery  = errors.New("discovery requires an MQTT bearer")
)

// LEDInfo is the local view of an LED.
type LEDInfo struct {
	Index  int    `json:"index"`
	On     bool   `json:"on"`
	Intent string `json:"intent"`
}

// LEDList is the result of leds command.
type LEDList []LEDInfo

func (l LEDList) String() string {
	lines := make([]string, len(l))
	for n, info := range l {
		state := vendor.LEDOff
		if info.On {
			state = vendor.LEDOn
		}
		lines[n] = fmt.Sprintf("LED %d %s (requested %s)", info.Index, state, info.Intent)
	}
	return strings.Join(lines, "\n")
}

// NodeList is the result of nodes command.
type NodeList []*mesh.Composition

func (l NodeList) String() string {
	if len(l) == 0 {
		return "No nodes found"
	}
	lines := make([]string, 0, len(l))
	for _, c := range l {
		var models []string
		for _, e := range c.Elements {
			for _, m := range e.Models {
				models = append(models, m.String())
			}
		}
		lines = append(lines, fmt.Sprintf("%s %s cid=0x%04x models=[%s]",
			c.Addr, c.UUID, c.CID, strings.Join(models, " ")))
	}
	return strings.Join(lines, "\n")
}

// StatusInfo is the result of status command.
type StatusInfo struct {
	Addr   mesh.Address `json:"addr"`
	UUID   string       `json:"uuid"`
	Bearer string       `json:"bearer"`
	Seq    uint32       `json:"seq"`
	Dest   mesh.Address `json:"dest"`
	AppIdx uint16       `json:"app_idx"`
}

func (i *StatusInfo) String() string {
	return fmt.Sprintf("node %s uuid %s\nbearer %s seq %d\ndest %s app %d",
		i.Addr, i.UUID, i.Bearer, i.Seq, i.Dest, i.AppIdx)
}

func parseIndex(arg string) (uint8, error) {
	n, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", arg)
	}
	return uint8(n), nil
}

func parseLEDState(arg string) (vendor.LEDState, error) {
	switch strings.ToLower(arg) {
	case "on", "1", "true":
		return vendor.LEDOn, nil
	case "off", "0", "false":
		return vendor.LEDOff, nil
	}
	return vendor.LEDOff, fmt.Errorf("invalid LED state %q", arg)
}

// dest returns the destination in args[at], nil for the default one.
func (s *Shell) dest(args []string, at int) (*mesh.MsgCtx, error) {
	if len(args) <= at {
		return nil, nil
	}
	addr, err := mesh.ParseAddress(args[at])
	if err != nil {
		return nil, err
	}
	ctx := s.App.Client.Defaults
	ctx.Addr = addr
	return &ctx, nil
}

func (s *Shell) button(args []string, fn func(int) error) (interface{}, error) {
	if len(args) < 1 {
		return nil, errArgsExpected
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return nil, err
	}
	return nil, fn(int(index))
}

func (s *Shell) press(args []string) (interface{}, error) {
	return s.button(args, s.App.Buttons.Press)
}

func (s *Shell) release(args []string) (interface{}, error) {
	return s.button(args, s.App.Buttons.Release)
}

func (s *Shell) click(args []string) (interface{}, error) {
	return s.button(args, s.App.Buttons.Click)
}

func (s *Shell) ledSet(args []string) (interface{}, error) {
	if len(args) < 2 {
		return nil, errArgsExpected
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return nil, err
	}
	state, err := parseLEDState(args[1])
	if err != nil {
		return nil, err
	}
	ctx, err := s.dest(args, 2)
	if err != nil {
		return nil, err
	}
	return nil, s.App.Client.LEDSet(ctx, index, state)
}

func (s *Shell) ledGet(args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, errArgsExpected
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return nil, err
	}
	ctx, err := s.dest(args, 1)
	if err != nil {
		return nil, err
	}
	return nil, s.App.Client.LEDGet(ctx, index)
}

func (s *Shell) leds([]string) (interface{}, error) {
	states := s.App.LEDs.States()
	list := make(LEDList, len(states))
	for n, on := range states {
		list[n] = LEDInfo{Index: n, On: on, Intent: s.App.Intent(n).String()}
	}
	return list, nil
}

func (s *Shell) nodes([]string) (interface{}, error) {
	u, err := url.Parse(s.Config.BearerURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "mqtt" && u.Scheme != "mqtts" {
		return nil, errNoDiscovery
	}
	list, err := mqtt.DiscoverURL(context.Background(), s.Config.BearerURL, mqtt.DefaultDiscoverTimeout)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*mesh.Composition{}
	}
	return NodeList(list), nil
}

func (s *Shell) status([]string) (interface{}, error) {
	node := s.Env.Node
	return &StatusInfo{
		Addr:   node.Addr,
		UUID:   node.UUID.String(),
		Bearer: s.Config.BearerURL,
		Seq:    node.Seq(),
		Dest:   s.App.Client.Defaults.Addr,
		AppIdx: s.App.Client.Defaults.AppIdx,
	}, nil
}

var (
	// PressCmd presses a button.
	PressCmd = ishell.Cmd{
		Name:    "press",
		Aliases: []string{"p"},
		Help:    "BUTTON",
		Func:    cmdFunc((*Shell).press),
	}

	// ReleaseCmd releases a button.
	ReleaseCmd = ishell.Cmd{
		Name:    "release",
		Aliases: []string{"r"},
		Help:    "BUTTON",
		Func:    cmdFunc((*Shell).release),
	}

	// ClickCmd presses and releases a button.
	ClickCmd = ishell.Cmd{
		Name:    "click",
		Aliases: []string{"c"},
		Help:    "BUTTON",
		Func:    cmdFunc((*Shell).click),
	}

	// LEDSetCmd sends LED Set.
	LEDSetCmd = ishell.Cmd{
		Name: "led.set",
		Help: "LED on|off [ADDR]",
		Func: cmdFunc((*Shell).ledSet),
	}

	// LEDGetCmd sends LED Get, the status is reported asynchronously.
	LEDGetCmd = ishell.Cmd{
		Name: "led.get",
		Help: "LED [ADDR]",
		Func: cmdFunc((*Shell).ledGet),
	}

	// LEDsCmd lists local LEDs.
	LEDsCmd = ishell.Cmd{
		Name: "leds",
		Help: "",
		Func: cmdFunc((*Shell).leds),
	}

	// NodesCmd discovers nodes announced on the MQTT broker.
	NodesCmd = ishell.Cmd{
		Name:    "nodes",
		Aliases: []string{"discover", "l"},
		Help:    "",
		Func:    cmdFunc((*Shell).nodes),
	}

	// StatusCmd shows the node status.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "",
		Func: cmdFunc((*Shell).status),
	}
)
