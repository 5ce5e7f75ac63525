package wire

import (
	"encoding/binary"
	"fmt"
)

// EthernetHeader holds the fields of the 14-byte Ethernet II header at
// the start of a frame buffer, copied out by ParseEthernet; reads and
// writes of the buffer are bounds-checked offset accesses.
type EthernetHeader struct {
	Dst, Src  [6]byte
	EtherType EtherType
}

// ParseEthernet reads the Ethernet header from the front of buf.
// Returns ErrMalformed if buf is shorter than EthernetHeaderLen.
func ParseEthernet(buf []byte) (EthernetHeader, error) {
	var h EthernetHeader
	if len(buf) < EthernetHeaderLen {
		return h, fmt.Errorf("%w: ethernet header needs %d bytes, got %d", ErrMalformed, EthernetHeaderLen, len(buf))
	}
	copy(h.Dst[:], buf[0:6])
	copy(h.Src[:], buf[6:12])
	h.EtherType = EtherType(binary.BigEndian.Uint16(buf[12:14]))
	return h, nil
}

// PutEthernet writes an Ethernet header into buf[0:14]. buf must be at
// least EthernetHeaderLen long. src/dst may alias buf (in-place
// rewrite of an existing frame's addresses), so they are copied to
// scratch before any bytes are written.
func PutEthernet(buf []byte, dst, src [6]byte, etherType EtherType) error {
	if len(buf) < EthernetHeaderLen {
		return fmt.Errorf("%w: ethernet header needs %d bytes, got %d", ErrMalformed, EthernetHeaderLen, len(buf))
	}
	var dstScratch, srcScratch [6]byte
	copy(dstScratch[:], dst[:])
	copy(srcScratch[:], src[:])
	copy(buf[0:6], dstScratch[:])
	copy(buf[6:12], srcScratch[:])
	binary.BigEndian.PutUint16(buf[12:14], uint16(etherType))
	return nil
}
