// Package app contains the applications running on the two node roles.
package app

import (
	"github.com/golang/glog"

	"github.com/robotalks/vndmesh/pkg/board"
	"github.com/robotalks/vndmesh/pkg/mesh"
	"github.com/robotalks/vndmesh/pkg/vendor"
)

// LightServer drives the board LEDs from the vendor server.
type LightServer struct {
	LEDs   *board.LEDs
	Server *vendor.Server
}

// NewLightServer creates the server application. The LEDs reflect the
// server state, including states restored from storage.
func NewLightServer(leds *board.LEDs, opts ...vendor.ServerOption) (*LightServer, error) {
	s := &LightServer{LEDs: leds}
	srv, err := vendor.NewServer(vendor.ServerHandlers{
		LEDSet:      s.ledSet,
		LEDGet:      s.ledGet,
		ButtonPress: s.buttonPress,
	}, opts...)
	if err != nil {
		return nil, err
	}
	s.Server = srv
	for i, state := range srv.Snapshot() {
		leds.Set(i, state == vendor.LEDOn)
	}
	return s, nil
}

// Attach binds the server to the model.
func (s *LightServer) Attach(m *mesh.Model) *LightServer {
	s.Server.Attach(m)
	return s
}

func (s *LightServer) ledSet(_ *vendor.Server, ctx *mesh.MsgCtx, index uint8, state vendor.LEDState) {
	s.LEDs.Set(int(index), state == vendor.LEDOn)
	glog.Infof("LED %d set to %s by %s", index, state, ctx.Addr)
}

func (s *LightServer) ledGet(_ *vendor.Server, ctx *mesh.MsgCtx, index uint8) {
	glog.Infof("LED %d state requested by %s", index, ctx.Addr)
}

func (s *LightServer) buttonPress(_ *vendor.Server, ctx *mesh.MsgCtx, press vendor.ButtonPress) {
	glog.Infof("Button %d %s on %s", press.Index, press.State, ctx.Addr)
}
