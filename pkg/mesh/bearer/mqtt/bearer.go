// Package mqtt implements a mesh bearer over an MQTT broker.
//
// All nodes publish and subscribe network PDUs on <prefix>adv, the way
// nodes share the advertising channel. Each node also publishes its
// composition data retained on <prefix>nodes/<uuid>, cleared by the
// last will when the node goes away.
package mqtt

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/vndmesh/pkg/mesh"
)

// Topics relative to the prefix.
const (
	AdvTopic        = "adv"
	NodesTopic      = "nodes/"
	nodesFilter     = NodesTopic + "+"
	packetQueueSize = 16
)

// NodeTopic returns the topic of the node composition.
func NodeTopic(id uuid.UUID) string {
	return NodesTopic + id.String()
}

// Bearer implements mesh.PacketReadWriter.
type Bearer struct {
	Queue *Queue
	UUID  uuid.UUID

	composition []byte
	packetCh    chan []byte
	doneCh      chan struct{}
	closeOnce   sync.Once
	readyCh     chan struct{}
	readyOnce   sync.Once
}

// New creates a Bearer for the node identified by id.
func New(brokerURL string, id uuid.UUID) (*Bearer, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+NodeTopic(id), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("vndmesh:" + id.String())
	}
	return NewWithQueue(NewQueue(opts, topicPrefix), id), nil
}

// NewWithQueue creates a Bearer on an existing Queue.
func NewWithQueue(q *Queue, id uuid.UUID) *Bearer {
	b := &Bearer{
		Queue:    q,
		UUID:     id,
		packetCh: make(chan []byte, packetQueueSize),
		doneCh:   make(chan struct{}),
		readyCh:  make(chan struct{}),
	}
	q.OnConnect = func(*Queue) {
		b.announce()
		b.readyOnce.Do(func() { close(b.readyCh) })
	}
	return b
}

// Ready implements mesh.Readier, closed on the first connection to
// the broker.
func (b *Bearer) Ready() <-chan struct{} {
	return b.readyCh
}

// Announce sets the composition data published on connect.
func (b *Bearer) Announce(c *mesh.Composition) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	b.composition = data
	return nil
}

// ReadPacket implements mesh.PacketReader.
func (b *Bearer) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-b.packetCh:
		return pkt, nil
	case <-b.doneCh:
		return nil, io.EOF
	}
}

// WritePacket implements mesh.PacketWriter.
func (b *Bearer) WritePacket(pkt []byte) error {
	token := b.Queue.Pub(AdvTopic, pkt)
	token.Wait()
	return token.Error()
}

// Close implements io.Closer, it stops ReadPacket.
func (b *Bearer) Close() error {
	b.closeOnce.Do(func() { close(b.doneCh) })
	return nil
}

// Run implements framework.Runnable.
func (b *Bearer) Run(ctx context.Context) error {
	sub := b.Queue.Sub(AdvTopic, b.handleAdv)
	token := b.Queue.Connect()
	if token.Wait(); token.Error() != nil {
		sub.Close()
		b.Close()
		return token.Error()
	}
	<-ctx.Done()
	if b.composition != nil {
		b.Queue.PubWith(NodeTopic(b.UUID), nil, 1, true).Wait()
	}
	sub.Close()
	b.Close()
	b.Queue.Close()
	return ctx.Err()
}

func (b *Bearer) announce() {
	if b.composition == nil {
		return
	}
	glog.Infof("announce node %s", b.UUID)
	b.Queue.PubWith(NodeTopic(b.UUID), b.composition, 1, true)
}

func (b *Bearer) handleAdv(_ string, payload []byte) {
	select {
	case b.packetCh <- payload:
	case <-b.doneCh:
	}
}
