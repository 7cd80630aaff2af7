// Package relay fans network PDUs out among stream and WebSocket peers
// so nodes in different processes share one medium.
package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/vndmesh/pkg/framework"
	"github.com/robotalks/vndmesh/pkg/mesh"
	"github.com/robotalks/vndmesh/pkg/mesh/bearer/stream"
	wsbearer "github.com/robotalks/vndmesh/pkg/mesh/bearer/websocket"
)

// Hub relays packets from one peer to all others.
type Hub struct {
	lock  sync.RWMutex
	peers map[*peer]struct{}
}

type peer struct {
	name string
	rw   mesh.PacketReadWriter
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{peers: make(map[*peer]struct{})}
}

// Peers returns the number of connected peers.
func (h *Hub) Peers() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.peers)
}

// Serve relays packets read from rw until it fails or ctx is done.
func (h *Hub) Serve(ctx context.Context, name string, rw mesh.PacketReadWriter) error {
	p := &peer{name: name, rw: rw}
	h.lock.Lock()
	h.peers[p] = struct{}{}
	h.lock.Unlock()
	glog.Infof("peer %s connected", name)
	defer func() {
		h.lock.Lock()
		delete(h.peers, p)
		h.lock.Unlock()
		glog.Infof("peer %s disconnected", name)
	}()

	fn := func() error {
		for {
			pkt, err := rw.ReadPacket()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			h.relay(p, pkt)
		}
	}
	if closer, ok := rw.(io.Closer); ok {
		return framework.RunWithContextCloser(ctx, closer, fn)
	}
	return framework.RunWithContextCancel(ctx, nil, fn)
}

func (h *Hub) relay(from *peer, pkt []byte) {
	h.lock.RLock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		if p != from {
			peers = append(peers, p)
		}
	}
	h.lock.RUnlock()
	glog.V(2).Infof("RELAY %d bytes from %s to %d peers", len(pkt), from.name, len(peers))
	for _, p := range peers {
		if err := p.rw.WritePacket(pkt); err != nil {
			glog.Warningf("relay to %s: %v", p.name, err)
		}
	}
}

// ServeTCP accepts stream peers from the listener.
func (h *Hub) ServeTCP(ctx context.Context, ln net.Listener) error {
	return framework.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			go h.Serve(ctx, "tcp:"+conn.RemoteAddr().String(), stream.New(conn))
		}
	})
}

// WebsocketHandler returns the handler accepting WebSocket peers.
func (h *Hub) WebsocketHandler(ctx context.Context) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		if err := h.Serve(ctx, "ws:"+conn.Request().RemoteAddr, wsbearer.New(conn)); err != nil && !errors.Is(err, context.Canceled) {
			glog.Warningf("websocket peer: %v", err)
		}
	})
}
