package memory

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHubBroadcast(t *testing.T) {
	h := NewHub("test")
	p1, p2 := h.Attach(), h.Attach()
	require.Equal(t, 2, h.Ports())

	require.NoError(t, p1.WritePacket([]byte{1}))
	for _, p := range []*Port{p1, p2} {
		pkt, err := p.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, []byte{1}, pkt)
	}

	require.NoError(t, p2.Close())
	require.NoError(t, p2.Close())
	require.Equal(t, 1, h.Ports())
	_, err := p2.ReadPacket()
	require.Equal(t, io.EOF, err)
	require.Equal(t, io.ErrClosedPipe, p2.WritePacket([]byte{2}))
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub("full")
	p := h.Attach()
	for i := 0; i < PortQueueSize+1; i++ {
		require.NoError(t, p.WritePacket([]byte{byte(i)}))
	}
	require.Len(t, p.packetCh, PortQueueSize)
}

func TestLookup(t *testing.T) {
	require.Same(t, Lookup("a"), Lookup("a"))
	require.NotSame(t, Lookup("a"), Lookup("b"))
}
