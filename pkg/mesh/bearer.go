package mesh

// PacketReader reads network PDUs from a bearer.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes network PDUs to a bearer.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter is a bearer.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Readier is implemented by bearers connecting in background. The
// channel is closed once packets can be written.
type Readier interface {
	Ready() <-chan struct{}
}
