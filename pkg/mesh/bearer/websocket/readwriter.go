// Package websocket carries network PDUs as WebSocket binary messages.
package websocket

import (
	"golang.org/x/net/websocket"
)

// ReadWriter implements mesh.PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to a WebSocket relay, e.g. ws://localhost:8080/mesh.
func Dial(url string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// Conn returns the underlying connection.
func (p *ReadWriter) Conn() *websocket.Conn {
	return (*websocket.Conn)(p)
}

// ReadPacket implements mesh.PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(p.Conn(), &pkt)
	return
}

// WritePacket implements mesh.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send(p.Conn(), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return p.Conn().Close()
}
