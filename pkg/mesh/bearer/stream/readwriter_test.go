package stream

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte{1, 2, 3}))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 1, 2, 3, 0, 0}, buf.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = rw.ReadPacket()
	require.Equal(t, io.EOF, err)

	require.ErrorIs(t, rw.WritePacket(make([]byte, MaxPacketLen+1)), ErrPacketTooLarge)
	require.NoError(t, rw.Close())
}

func TestReadWriterTruncated(t *testing.T) {
	rw := New(bytes.NewBuffer([]byte{4, 0, 1}))
	_, err := rw.ReadPacket()
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestReadWriterPipe(t *testing.T) {
	c1, c2 := net.Pipe()
	a, b := New(c1), New(c2)
	go func() {
		a.WritePacket([]byte("hello"))
	}()
	pkt, err := b.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), pkt)
	require.NoError(t, a.Close())
	_, err = b.ReadPacket()
	require.Error(t, err)
	b.Close()
}
