// Package stream carries network PDUs over a byte stream, e.g. TCP.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
)

// MaxPacketLen is the largest frame accepted.
const MaxPacketLen = 0xffff

// ErrPacketTooLarge indicates a packet can't be framed.
var ErrPacketTooLarge = errors.New("packet too large")

// ReadWriter implements mesh.PacketReadWriter.
// Each packet is prefixed by 2-byte (little-endian) length.
type ReadWriter struct {
	io.ReadWriter

	writeLock sync.Mutex
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s}
}

// Dial connects to a TCP relay.
func Dial(addr string) (*ReadWriter, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements mesh.PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint16
	if err := binary.Read(p.ReadWriter, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(p.ReadWriter, pkt); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return pkt, nil
}

// WritePacket implements mesh.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if len(pkt) > MaxPacketLen {
		return ErrPacketTooLarge
	}
	frame := make([]byte, 2+len(pkt))
	binary.LittleEndian.PutUint16(frame, uint16(len(pkt)))
	copy(frame[2:], pkt)
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	_, err := p.Write(frame)
	return err
}

// Close implements io.Closer if the underlying stream is closable.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
