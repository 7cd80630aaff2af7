package mesh

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// MaxAccessLen is the largest access payload (opcode and parameters)
// fitting in an unsegmented message.
const MaxAccessLen = 11

// NetworkPDU is what travels over a bearer.
type NetworkPDU struct {
	Src     uint32 `protobuf:"varint,1,opt,name=src,proto3" json:"src,omitempty"`
	Dst     uint32 `protobuf:"varint,2,opt,name=dst,proto3" json:"dst,omitempty"`
	NetIdx  uint32 `protobuf:"varint,3,opt,name=net_idx,proto3" json:"net_idx,omitempty"`
	AppIdx  uint32 `protobuf:"varint,4,opt,name=app_idx,proto3" json:"app_idx,omitempty"`
	TTL     uint32 `protobuf:"varint,5,opt,name=ttl,proto3" json:"ttl,omitempty"`
	Seq     uint32 `protobuf:"varint,6,opt,name=seq,proto3" json:"seq,omitempty"`
	Access  []byte `protobuf:"bytes,7,opt,name=access,proto3" json:"access,omitempty"`
	// IVIndex starts a new sequence number space. Replay protection
	// orders PDUs of a source by IVIndex first, then Seq.
	IVIndex uint32 `protobuf:"varint,8,opt,name=iv_index,proto3" json:"iv_index,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *NetworkPDU) ProtoMessage() {}

// Reset implements proto.Message.
func (m *NetworkPDU) Reset() { *m = NetworkPDU{} }

// String implements proto.Message.
func (m *NetworkPDU) String() string { return proto.CompactTextString(m) }

// Encode encodes the PDU for a bearer.
func (m *NetworkPDU) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodePDU decodes bytes read from a bearer.
func DecodePDU(data []byte) (*NetworkPDU, error) {
	var pdu NetworkPDU
	if err := proto.Unmarshal(data, &pdu); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPDU, err)
	}
	if pdu.Src > 0xffff || pdu.Dst > 0xffff || pdu.NetIdx > 0xfff ||
		pdu.AppIdx > 0xfff || pdu.TTL > uint32(TTLMax) || pdu.Seq > SeqMax {
		return nil, fmt.Errorf("%w: field out of range", ErrMalformedPDU)
	}
	return &pdu, nil
}

// SeqAuth combines IVIndex and Seq into a value increasing with every
// PDU sent by the same source.
func (m *NetworkPDU) SeqAuth() uint64 {
	return uint64(m.IVIndex)<<24 | uint64(m.Seq)
}

// AccessPayload builds the access payload from opcode and parameters.
func AccessPayload(op Opcode, params []byte) []byte {
	return append(op.AppendTo(make([]byte, 0, op.Len()+len(params))), params...)
}
