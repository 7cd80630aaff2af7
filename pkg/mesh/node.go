package mesh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/vndmesh/pkg/framework"
	"github.com/robotalks/vndmesh/pkg/settings"
)

const (
	// SeqMax is the largest sequence number.
	SeqMax uint32 = 0xffffff
	// SeqStoreRate is the number of sequence numbers reserved
	// each time the sequence number is persisted.
	SeqStoreRate uint32 = 128

	seqSettingsKey = "mesh/seq"
	ivSettingsKey  = "mesh/iv"

	// seqTick is the clock resolution of a seeded sequence number, one
	// second of ticks fits in the sequence number space.
	seqTick = 64 * time.Nanosecond
)

var clock = time.Now

// Node is a provisioned mesh node.
type Node struct {
	// Addr is the unicast address of the primary element.
	Addr       Address
	NetIdx     uint16
	UUID       uuid.UUID
	CID        uint16
	DefaultTTL uint8
	Elements   []*Element

	// Bearer carries network PDUs.
	Bearer PacketReadWriter
	// Settings persists the sequence number, optional.
	Settings settings.Store

	sendLock sync.Mutex
	ivIndex  uint32
	seq      uint32
	seqLimit uint32

	recvLock sync.Mutex
	replay   map[Address]uint64
}

// NewNode creates a node. Elements get consecutive addresses starting
// from the primary address.
func NewNode(addr Address, elems ...*Element) *Node {
	n := &Node{
		Addr:       addr,
		DefaultTTL: DefaultTTL,
		replay:     make(map[Address]uint64),
	}
	n.ivIndex, n.seq = seedSeq(clock())
	for _, e := range elems {
		n.AddElement(e)
	}
	return n
}

// AddElement adds an element with the next unicast address.
func (n *Node) AddElement(e *Element) *Node {
	e.node = n
	e.addr = n.Addr + Address(len(n.Elements))
	n.Elements = append(n.Elements, e)
	return n
}

// Element finds the element by unicast address.
func (n *Node) Element(addr Address) *Element {
	if addr < n.Addr || int(addr-n.Addr) >= len(n.Elements) {
		return nil
	}
	return n.Elements[addr-n.Addr]
}

// FindModel finds the first model with the ID in any element.
func (n *Node) FindModel(id ModelID) *Model {
	for _, e := range n.Elements {
		if m := e.FindModel(id); m != nil {
			return m
		}
	}
	return nil
}

// seedSeq derives a sequence start from the clock for nodes without
// persisted state. A node started later always starts higher, so peers
// don't take its PDUs for replays.
func seedSeq(t time.Time) (iv, seq uint32) {
	return uint32(t.Unix()), uint32(time.Duration(t.Nanosecond()) / seqTick)
}

// RestoreSeq loads the persisted IV index and sequence number. Sequence
// numbers reserved but not used before the restart are skipped. Without
// Settings the clock seeded values from NewNode are kept.
func (n *Node) RestoreSeq() error {
	if n.Settings == nil {
		return nil
	}
	var iv, seq uint32
	err := settings.LoadValue(n.Settings, ivSettingsKey, &iv)
	switch {
	case errors.Is(err, settings.ErrNotFound):
		iv, _ = seedSeq(clock())
		if err := settings.StoreValue(n.Settings, ivSettingsKey, iv); err != nil {
			return fmt.Errorf("persist IV index: %w", err)
		}
	case err != nil:
		return err
	}
	err = settings.LoadValue(n.Settings, seqSettingsKey, &seq)
	if err != nil && !errors.Is(err, settings.ErrNotFound) {
		return err
	}
	n.sendLock.Lock()
	n.ivIndex, n.seq, n.seqLimit = iv, seq, seq
	n.sendLock.Unlock()
	return nil
}

// Seq returns the next sequence number to use.
func (n *Node) Seq() uint32 {
	n.sendLock.Lock()
	defer n.sendLock.Unlock()
	return n.seq
}

// IVIndex returns the current IV index.
func (n *Node) IVIndex() uint32 {
	n.sendLock.Lock()
	defer n.sendLock.Unlock()
	return n.ivIndex
}

func (n *Node) nextSeq() (uint32, error) {
	if n.seq > SeqMax {
		if err := n.nextIVIndex(); err != nil {
			return 0, err
		}
	}
	if n.Settings != nil && n.seq >= n.seqLimit {
		limit := n.seq + SeqStoreRate
		if err := settings.StoreValue(n.Settings, seqSettingsKey, limit); err != nil {
			return 0, fmt.Errorf("persist sequence number: %w", err)
		}
		n.seqLimit = limit
	}
	seq := n.seq
	n.seq++
	return seq, nil
}

// nextIVIndex moves to a new sequence number space once the current
// one is used up.
func (n *Node) nextIVIndex() error {
	if n.ivIndex == math.MaxUint32 {
		return ErrSeqExhausted
	}
	iv, _ := seedSeq(clock())
	if iv <= n.ivIndex {
		iv = n.ivIndex + 1
	}
	if n.Settings != nil {
		if err := settings.StoreValue(n.Settings, ivSettingsKey, iv); err != nil {
			return fmt.Errorf("persist IV index: %w", err)
		}
	}
	glog.Infof("IV index %d -> %d", n.ivIndex, iv)
	n.ivIndex, n.seq, n.seqLimit = iv, 0, 0
	return nil
}

func (n *Node) send(src *Element, ctx *MsgCtx, access []byte) error {
	if n.Bearer == nil {
		return ErrNoBearer
	}
	ttl := ctx.SendTTL
	if ttl == TTLDefault {
		ttl = n.DefaultTTL
	}
	n.sendLock.Lock()
	defer n.sendLock.Unlock()
	seq, err := n.nextSeq()
	if err != nil {
		return err
	}
	pdu := &NetworkPDU{
		Src:     uint32(src.addr),
		Dst:     uint32(ctx.Addr),
		NetIdx:  uint32(n.NetIdx),
		AppIdx:  uint32(ctx.AppIdx),
		TTL:     uint32(ttl),
		Seq:     seq,
		Access:  access,
		IVIndex: n.ivIndex,
	}
	data, err := pdu.Encode()
	if err != nil {
		return err
	}
	glog.V(2).Infof("SND %s", pdu)
	return n.Bearer.WritePacket(data)
}

func (n *Node) isOwn(addr Address) bool {
	return n.Element(addr) != nil
}

// HandlePDU processes a network PDU received from the bearer.
// PDUs not meant for the node are silently ignored. An error is
// returned only if the PDU is invalid.
func (n *Node) HandlePDU(data []byte) error {
	pdu, err := DecodePDU(data)
	if err != nil {
		return err
	}
	src, dst := Address(pdu.Src), Address(pdu.Dst)
	if !src.IsUnicast() || dst.IsUnassigned() {
		return fmt.Errorf("%w: src %s dst %s", ErrMalformedPDU, src, dst)
	}
	if n.isOwn(src) || uint16(pdu.NetIdx) != n.NetIdx {
		return nil
	}

	n.recvLock.Lock()
	defer n.recvLock.Unlock()

	if n.replay == nil {
		n.replay = make(map[Address]uint64)
	}
	auth := pdu.SeqAuth()
	if last, ok := n.replay[src]; ok && auth <= last {
		glog.V(3).Infof("replay from %s iv %d seq %d", src, pdu.IVIndex, pdu.Seq)
		return nil
	}
	n.replay[src] = auth

	glog.V(2).Infof("RCV %s", pdu)
	op, params, err := ParseOpcode(pdu.Access)
	if err != nil {
		return err
	}
	for _, elem := range n.Elements {
		for _, m := range elem.Models {
			if m.dispatcher == nil || !m.receives(dst) || !m.HasKey(uint16(pdu.AppIdx)) {
				continue
			}
			ctx := &MsgCtx{
				NetIdx:  uint16(pdu.NetIdx),
				AppIdx:  uint16(pdu.AppIdx),
				Addr:    src,
				RecvDst: dst,
				RecvTTL: uint8(pdu.TTL),
				SendTTL: TTLDefault,
			}
			if err := m.dispatcher.Dispatch(ctx, op, params); err != nil {
				glog.Warningf("model %s drop %s from %s: %v", m.ID, op, src, err)
			}
		}
	}
	return nil
}

// pduMessage is posted to the loop for each packet from the bearer.
type pduMessage struct {
	data []byte
}

// AddToLoop implements framework.LoopAdder.
func (n *Node) AddToLoop(l *framework.Loop) {
	if adder, ok := n.Bearer.(framework.LoopAdder); ok {
		l.Add(adder)
	} else if r, ok := n.Bearer.(framework.Runnable); ok {
		l.AddRunnable(r)
	}
	l.AddRunnable(framework.NamedRun("mesh-receiver", framework.RunFunc(n.receive)))
	l.AddController(framework.PrLvReceive, framework.ControlFunc(n.control))
}

func (n *Node) receive(ctx context.Context) error {
	if n.Bearer == nil {
		return ErrNoBearer
	}
	loopCtl := framework.LoopCtlFrom(ctx)
	fn := func() error {
		for {
			data, err := n.Bearer.ReadPacket()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			loopCtl.PostMessage(&pduMessage{data: data})
			loopCtl.TriggerNext()
		}
	}
	if closer, ok := n.Bearer.(io.Closer); ok {
		return framework.RunWithContextCloser(ctx, closer, fn)
	}
	return framework.RunWithContextCancel(ctx, nil, fn)
}

func (n *Node) control(cc framework.ControlContext) error {
	cc.Take(func(m framework.Message) bool {
		msg, ok := m.(*pduMessage)
		if !ok {
			return false
		}
		if err := n.HandlePDU(msg.data); err != nil {
			glog.Warningf("drop PDU: %v", err)
		}
		return true
	})
	return nil
}

// ElementComposition describes an element in the composition data.
type ElementComposition struct {
	Loc    uint16    `json:"loc" yaml:"loc"`
	Addr   Address   `json:"addr" yaml:"addr"`
	Models []ModelID `json:"models" yaml:"models"`
}

// Composition is the composition data of a node.
type Composition struct {
	UUID     string               `json:"uuid" yaml:"uuid"`
	CID      uint16               `json:"cid" yaml:"cid"`
	Addr     Address              `json:"addr" yaml:"addr"`
	Elements []ElementComposition `json:"elements" yaml:"elements"`
}

// Composition returns the composition data.
func (n *Node) Composition() *Composition {
	c := &Composition{
		UUID: n.UUID.String(),
		CID:  n.CID,
		Addr: n.Addr,
	}
	for _, e := range n.Elements {
		ec := ElementComposition{Loc: e.Loc, Addr: e.addr}
		for _, m := range e.Models {
			ec.Models = append(ec.Models, m.ID)
		}
		c.Elements = append(c.Elements, ec)
	}
	return c
}
