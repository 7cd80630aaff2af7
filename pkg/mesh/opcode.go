package mesh

import "fmt"

// Opcode is an access layer opcode in its numeric form.
// 1-byte opcodes are 0x00..0x7e, 2-byte opcodes are 0x8000..0xbfff,
// and 3-byte (vendor) opcodes carry 0xc0 in the top byte, the vendor
// specific operation in the low 6 bits of it, and the company ID in the
// low 16 bits.
type Opcode uint32

// Op1 creates a 1-byte opcode.
func Op1(b byte) Opcode {
	return Opcode(b)
}

// Op2 creates a 2-byte opcode.
func Op2(b1, b2 byte) Opcode {
	return Opcode(uint32(b1)<<8 | uint32(b2))
}

// Op3 creates a vendor opcode scoped by the company ID.
func Op3(b byte, cid uint16) Opcode {
	return Opcode(0xc00000 | uint32(b&0x3f)<<16 | uint32(cid))
}

// Len returns the number of bytes on the wire.
func (op Opcode) Len() int {
	switch {
	case op <= 0xff:
		return 1
	case op <= 0xffff:
		return 2
	default:
		return 3
	}
}

// IsVendor checks if it's a 3-byte vendor opcode.
func (op Opcode) IsVendor() bool {
	return op.Len() == 3
}

// CompanyID returns the company ID of a vendor opcode.
func (op Opcode) CompanyID() uint16 {
	return uint16(op)
}

// AppendTo appends the wire form of opcode to b.
// The company ID of a vendor opcode is little-endian.
func (op Opcode) AppendTo(b []byte) []byte {
	switch op.Len() {
	case 1:
		return append(b, byte(op))
	case 2:
		return append(b, byte(op>>8), byte(op))
	default:
		return append(b, byte(op>>16), byte(op), byte(op>>8))
	}
}

// String implements fmt.Stringer.
func (op Opcode) String() string {
	switch op.Len() {
	case 1:
		return fmt.Sprintf("0x%02x", uint32(op))
	case 2:
		return fmt.Sprintf("0x%04x", uint32(op))
	default:
		return fmt.Sprintf("0x%02x/%04x", uint32(op>>16)&0x3f, op.CompanyID())
	}
}

// ParseOpcode extracts the opcode from an access payload and returns
// the remaining parameters.
func ParseOpcode(access []byte) (Opcode, []byte, error) {
	if len(access) == 0 {
		return 0, nil, ErrBadOpcode
	}
	switch access[0] >> 6 {
	case 0, 1:
		if access[0] == 0x7f {
			// reserved for future use.
			return 0, nil, ErrBadOpcode
		}
		return Opcode(access[0]), access[1:], nil
	case 2:
		if len(access) < 2 {
			return 0, nil, ErrBadOpcode
		}
		return Opcode(uint32(access[0])<<8 | uint32(access[1])), access[2:], nil
	default:
		if len(access) < 3 {
			return 0, nil, ErrBadOpcode
		}
		return Opcode(uint32(access[0])<<16 | uint32(access[2])<<8 | uint32(access[1])), access[3:], nil
	}
}
