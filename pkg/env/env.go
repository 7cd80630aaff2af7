package env

import (
	"fmt"
	"io"
	"net/url"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/vndmesh/pkg/framework"
	"github.com/robotalks/vndmesh/pkg/mesh"
	"github.com/robotalks/vndmesh/pkg/mesh/bearer/memory"
	"github.com/robotalks/vndmesh/pkg/mesh/bearer/mqtt"
	"github.com/robotalks/vndmesh/pkg/mesh/bearer/stream"
	"github.com/robotalks/vndmesh/pkg/mesh/bearer/websocket"
	"github.com/robotalks/vndmesh/pkg/settings"
	"github.com/robotalks/vndmesh/pkg/vendor"
)

// SIG models present on every node.
const (
	ModelIDConfigServer uint16 = 0x0000
	ModelIDHealthServer uint16 = 0x0002
)

// Env is a provisioned node with its bearer.
type Env struct {
	Config   *Config
	Node     *mesh.Node
	Model    *mesh.Model
	Settings settings.Store
	Bearer   mesh.PacketReadWriter
}

// NewEnv creates the node hosting the vendor model m.
func (c *Config) NewEnv(m *mesh.Model) (*Env, error) {
	if err := c.LoadFile(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	env := &Env{Config: c, Model: m}
	settingsPath, err := c.ResolveSettingsPath()
	if err != nil {
		// sequence numbers are then seeded from the clock
		glog.Warningf("node state not persisted: %v", err)
	}
	if settingsPath != "" {
		store, err := settings.OpenFileStore(settingsPath)
		if err != nil {
			return nil, fmt.Errorf("open settings: %w", err)
		}
		env.Settings = store
	}

	elem := mesh.NewElement(0,
		mesh.NewModel(mesh.SIGModel(ModelIDConfigServer)),
		mesh.NewModel(mesh.SIGModel(ModelIDHealthServer)),
		m,
	)
	node := mesh.NewNode(c.Addr, elem)
	node.NetIdx = c.NetIdx
	node.UUID = c.DeviceUUID()
	node.CID = vendor.CompanyID
	node.DefaultTTL = c.DefaultTTL
	node.Settings = env.Settings
	if err := node.RestoreSeq(); err != nil {
		return nil, err
	}
	env.Node = node

	bearer, err := NewBearer(c.BearerURL, node.UUID)
	if err != nil {
		return nil, err
	}
	if b, ok := bearer.(*mqtt.Bearer); ok {
		if err := b.Announce(node.Composition()); err != nil {
			return nil, err
		}
	}
	node.Bearer, env.Bearer = bearer, bearer
	glog.Infof("node %s uuid %s on %s", node.Addr, node.UUID, c.BearerURL)
	return env, nil
}

// AddToLoop implements framework.LoopAdder.
func (e *Env) AddToLoop(l *framework.Loop) {
	l.Add(e.Node)
}

// Ready is closed once the bearer can send.
func (e *Env) Ready() <-chan struct{} {
	if r, ok := e.Bearer.(mesh.Readier); ok {
		return r.Ready()
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Close releases the bearer.
func (e *Env) Close() error {
	if closer, ok := e.Bearer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// NewBearer creates the bearer from URL.
func NewBearer(bearerURL string, id uuid.UUID) (mesh.PacketReadWriter, error) {
	u, err := url.Parse(bearerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bearer URL: %w", err)
	}
	switch u.Scheme {
	case "mqtt", "mqtts":
		return mqtt.New(bearerURL, id)
	case "tcp":
		return stream.Dial(u.Host)
	case "ws", "wss":
		return websocket.Dial(bearerURL)
	case "mem":
		return memory.Lookup(u.Host).Attach(), nil
	default:
		return nil, fmt.Errorf("unknown bearer URL scheme: %q", u.Scheme)
	}
}
