package mesh

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is a 16-bit mesh address.
type Address uint16

// Well-known addresses.
const (
	AddrUnassigned Address = 0x0000
	AddrAllProxies Address = 0xfffc
	AddrAllFriends Address = 0xfffd
	AddrAllRelays  Address = 0xfffe
	AddrAllNodes   Address = 0xffff
)

// IsUnassigned checks for the unassigned address.
func (a Address) IsUnassigned() bool {
	return a == AddrUnassigned
}

// IsUnicast checks if the address identifies a single element.
func (a Address) IsUnicast() bool {
	return a != AddrUnassigned && a < 0x8000
}

// IsVirtual checks if the address is a virtual address.
func (a Address) IsVirtual() bool {
	return a >= 0x8000 && a < 0xc000
}

// IsGroup checks if the address is a dynamically assigned group address.
func (a Address) IsGroup() bool {
	return a >= 0xc000 && a < 0xff00
}

// IsFixedGroup checks if the address is one of the fixed group addresses.
func (a Address) IsFixedGroup() bool {
	return a >= 0xff00
}

// String implements fmt.Stringer.
func (a Address) String() string {
	switch a {
	case AddrUnassigned:
		return "unassigned"
	case AddrAllProxies:
		return "all-proxies"
	case AddrAllFriends:
		return "all-friends"
	case AddrAllRelays:
		return "all-relays"
	case AddrAllNodes:
		return "all-nodes"
	}
	return fmt.Sprintf("0x%04x", uint16(a))
}

// ParseAddress parses an address in hex (0x prefixed), decimal
// or one of the fixed group names.
func ParseAddress(s string) (Address, error) {
	switch strings.ToLower(s) {
	case "unassigned":
		return AddrUnassigned, nil
	case "all-nodes", "all":
		return AddrAllNodes, nil
	case "all-relays":
		return AddrAllRelays, nil
	case "all-friends":
		return AddrAllFriends, nil
	case "all-proxies":
		return AddrAllProxies, nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return AddrUnassigned, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return Address(v), nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, used by config files.
func (a *Address) UnmarshalText(text []byte) error {
	v, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
