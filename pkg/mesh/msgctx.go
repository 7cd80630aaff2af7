package mesh

import "fmt"

// TTL limits.
const (
	// TTLDefault asks the node to use its configured default TTL.
	TTLDefault uint8 = 0xff
	// TTLMax is the largest TTL allowed on the wire.
	TTLMax uint8 = 0x7f
	// DefaultTTL is the default TTL of a node unless configured.
	DefaultTTL uint8 = 7
)

// MsgCtx is the context of an access message.
//
// When sending, Addr, AppIdx and SendTTL form the destination. When
// receiving, Addr is the source and RecvDst/RecvTTL describe how the
// message arrived; the same MsgCtx can be used to reply.
type MsgCtx struct {
	NetIdx  uint16
	AppIdx  uint16
	Addr    Address
	RecvDst Address
	RecvTTL uint8
	SendTTL uint8
}

// Dest creates a MsgCtx to send to addr.
func Dest(addr Address, appIdx uint16, ttl uint8) *MsgCtx {
	return &MsgCtx{AppIdx: appIdx, Addr: addr, SendTTL: ttl}
}

// String implements fmt.Stringer.
func (c *MsgCtx) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("addr=%s app=%d net=%d ttl=%d", c.Addr, c.AppIdx, c.NetIdx, c.SendTTL)
}

func validSendTTL(ttl uint8) bool {
	return ttl == TTLDefault || ttl == 0 || (ttl >= 2 && ttl <= TTLMax)
}
