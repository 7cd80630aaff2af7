package mesh

import "fmt"

// CIDSig is the company ID placeholder used by SIG models.
const CIDSig uint16 = 0xffff

// ModelID identifies a model. SIG models use CIDSig.
type ModelID struct {
	CID uint16 `json:"cid" yaml:"cid"`
	ID  uint16 `json:"id" yaml:"id"`
}

// SIGModel creates a SIG model ID.
func SIGModel(id uint16) ModelID {
	return ModelID{CID: CIDSig, ID: id}
}

// VendorModel creates a vendor model ID.
func VendorModel(cid, id uint16) ModelID {
	return ModelID{CID: cid, ID: id}
}

// IsVendor checks if it's a vendor model.
func (id ModelID) IsVendor() bool {
	return id.CID != CIDSig
}

// String implements fmt.Stringer.
func (id ModelID) String() string {
	if id.IsVendor() {
		return fmt.Sprintf("%04x:%04x", id.CID, id.ID)
	}
	return fmt.Sprintf("%04x", id.ID)
}

// Dispatcher handles access messages received by a model.
type Dispatcher interface {
	Dispatch(ctx *MsgCtx, op Opcode, params []byte) error
}

// DispatchFunc is the func form of Dispatcher.
type DispatchFunc func(ctx *MsgCtx, op Opcode, params []byte) error

// Dispatch implements Dispatcher.
func (f DispatchFunc) Dispatch(ctx *MsgCtx, op Opcode, params []byte) error {
	return f(ctx, op, params)
}

// Model is an instance of a model in an element.
type Model struct {
	ID ModelID
	// Keys are the bound application key indexes.
	Keys []uint16
	// Groups is the subscription list.
	Groups []Address
	// Pub is the publication destination, nil if not configured.
	Pub *MsgCtx

	elem       *Element
	dispatcher Dispatcher
}

// NewModel creates a model.
func NewModel(id ModelID, keys ...uint16) *Model {
	return &Model{ID: id, Keys: keys}
}

// Register sets the dispatcher receiving messages for the model.
func (m *Model) Register(d Dispatcher) *Model {
	m.dispatcher = d
	return m
}

// Subscribe adds group addresses to the subscription list.
func (m *Model) Subscribe(groups ...Address) *Model {
	m.Groups = append(m.Groups, groups...)
	return m
}

// Element returns the element the model belongs to.
func (m *Model) Element() *Element {
	return m.elem
}

// HasKey checks if the application key index is bound.
func (m *Model) HasKey(appIdx uint16) bool {
	for _, k := range m.Keys {
		if k == appIdx {
			return true
		}
	}
	return false
}

// Subscribed checks if the model receives messages sent to the group address.
func (m *Model) Subscribed(addr Address) bool {
	for _, g := range m.Groups {
		if g == addr {
			return true
		}
	}
	return false
}

// Send sends an access message from the model.
func (m *Model) Send(ctx *MsgCtx, op Opcode, params []byte) error {
	if m.elem == nil || m.elem.node == nil {
		return ErrNotBound
	}
	if ctx == nil || ctx.Addr.IsUnassigned() {
		return ErrInvalidAddr
	}
	if !m.HasKey(ctx.AppIdx) {
		return ErrAppKeyNotBound
	}
	if !validSendTTL(ctx.SendTTL) {
		return ErrInvalidTTL
	}
	access := AccessPayload(op, params)
	if len(access) > MaxAccessLen {
		return ErrPayloadTooLarge
	}
	return m.elem.node.send(m.elem, ctx, access)
}

// Publish sends an access message to the configured publication address.
func (m *Model) Publish(op Opcode, params []byte) error {
	if m.Pub == nil || m.Pub.Addr.IsUnassigned() {
		return ErrNoPublication
	}
	return m.Send(m.Pub, op, params)
}

func (m *Model) receives(dst Address) bool {
	switch {
	case dst.IsUnicast():
		return m.elem.addr == dst
	case dst == AddrAllNodes:
		return m.elem.Primary() || m.Subscribed(dst)
	default:
		return m.Subscribed(dst)
	}
}
