// Package memory provides an in-process broadcast medium.
package memory

import (
	"io"
	"sync"

	"github.com/golang/glog"
)

// PortQueueSize is the number of packets buffered per port.
const PortQueueSize = 64

// Hub delivers every packet written by a port to all attached ports,
// the writer included.
type Hub struct {
	Name string

	lock  sync.RWMutex
	ports map[*Port]struct{}
}

// Port is attached to a Hub, implements mesh.PacketReadWriter.
type Port struct {
	hub       *Hub
	packetCh  chan []byte
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewHub creates a Hub.
func NewHub(name string) *Hub {
	return &Hub{Name: name, ports: make(map[*Port]struct{})}
}

var (
	hubsLock sync.Mutex
	hubs     = make(map[string]*Hub)
)

// Lookup returns the process-wide Hub with the name, created on demand.
func Lookup(name string) *Hub {
	hubsLock.Lock()
	defer hubsLock.Unlock()
	h := hubs[name]
	if h == nil {
		h = NewHub(name)
		hubs[name] = h
	}
	return h
}

// Attach creates a new Port.
func (h *Hub) Attach() *Port {
	p := &Port{
		hub:      h,
		packetCh: make(chan []byte, PortQueueSize),
		doneCh:   make(chan struct{}),
	}
	h.lock.Lock()
	h.ports[p] = struct{}{}
	h.lock.Unlock()
	return p
}

// Ports returns the number of attached ports.
func (h *Hub) Ports() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.ports)
}

func (h *Hub) broadcast(pkt []byte) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for p := range h.ports {
		cp := append([]byte(nil), pkt...)
		select {
		case p.packetCh <- cp:
		default:
			glog.Warningf("hub %s: port queue full, packet dropped", h.Name)
		}
	}
}

func (h *Hub) detach(p *Port) {
	h.lock.Lock()
	delete(h.ports, p)
	h.lock.Unlock()
}

// ReadPacket implements mesh.PacketReader.
func (p *Port) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.doneCh:
		return nil, io.EOF
	}
}

// WritePacket implements mesh.PacketWriter.
func (p *Port) WritePacket(pkt []byte) error {
	select {
	case <-p.doneCh:
		return io.ErrClosedPipe
	default:
	}
	p.hub.broadcast(pkt)
	return nil
}

// Close implements io.Closer and detaches the port.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.hub.detach(p)
		close(p.doneCh)
	})
	return nil
}
