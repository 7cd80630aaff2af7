package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/vndmesh/pkg/mesh"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Discover collects composition data of nodes announced on the broker.
func Discover(ctx context.Context, q *Queue, timeout time.Duration) ([]*mesh.Composition, error) {
	resCh := make(chan *mesh.Composition, packetQueueSize)
	sub := q.Sub(nodesFilter, func(topic string, payload []byte) {
		c, err := parseComposition(payload)
		if err != nil {
			glog.Warningf("invalid composition on %s: %v", topic, err)
			return
		}
		if c == nil {
			return
		}
		select {
		case resCh <- c:
		case <-time.After(time.Second):
		}
	})
	defer sub.Close()
	if sub.Token.Wait(); sub.Token.Error() != nil {
		return nil, sub.Token.Error()
	}

	if timeout == 0 {
		timeout = DefaultDiscoverTimeout
	}
	expire := time.After(timeout)
	var res []*mesh.Composition
	for {
		select {
		case c := <-resCh:
			res = append(res, c)
		case <-expire:
			return res, nil
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

// DiscoverURL connects to the broker and runs Discover.
func DiscoverURL(ctx context.Context, brokerURL string, timeout time.Duration) ([]*mesh.Composition, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		return nil, token.Error()
	}
	defer q.Close()
	return Discover(ctx, q, timeout)
}

// parseComposition returns nil for a cleared (empty) retained message.
func parseComposition(payload []byte) (*mesh.Composition, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var c mesh.Composition
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
