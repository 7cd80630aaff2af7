package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/vndmesh/pkg/mesh"
	"github.com/robotalks/vndmesh/pkg/vendor"
)

func encodePDU(t *testing.T, op mesh.Opcode, params []byte) []byte {
	pdu := &mesh.NetworkPDU{
		Src:    0x0001,
		Dst:    0x0002,
		TTL:    7,
		Seq:    3,
		Access: mesh.AccessPayload(op, params),
	}
	data, err := pdu.Encode()
	require.NoError(t, err)
	return data
}

func TestFormatPDU(t *testing.T) {
	op, params := vendor.Encode(vendor.LEDStatus{Index: 2, State: vendor.LEDOn})
	require.Equal(t, "0x0001 -> 0x0002 net=0 app=0 ttl=7 seq=3: LED_STATUS LED 2 ON",
		formatPDU(encodePDU(t, op, params)))

	require.Contains(t, formatPDU(encodePDU(t, vendor.OpLEDSet, []byte{1})), "LED_SET")
	require.Contains(t, formatPDU(encodePDU(t, mesh.Op2(0x82, 0x01), []byte{0xaa})), "[aa]")
	require.Contains(t, formatPDU(encodePDU(t, mesh.Op3(0x00, 0x1234), nil)), "0x0001 -> 0x0002")
	require.Contains(t, formatPDU([]byte{0xff, 0xff, 0xff}), "bad PDU")
}
