package wire

import (
	"encoding/binary"
	"fmt"
)

// ARPHeader is a view over the 28-byte ARP-for-IPv4-over-Ethernet
// header that starts at offset EthernetHeaderLen in a frame buffer.
type ARPHeader struct {
	Op         ARPOp
	SenderMAC  [6]byte
	SenderIP   uint32 // network-order bytes, host uint32 (big-endian value)
	TargetMAC  [6]byte
	TargetIP   uint32
}

// ParseARP reads the ARP header at buf[EthernetHeaderLen:]. buf must
// include the preceding Ethernet header.
func ParseARP(buf []byte) (ARPHeader, error) {
	var h ARPHeader
	if len(buf) < EthernetHeaderLen+ARPHeaderLen {
		return h, fmt.Errorf("%w: arp header needs %d bytes, got %d", ErrMalformed, EthernetHeaderLen+ARPHeaderLen, len(buf))
	}
	a := buf[arpOffset : arpOffset+ARPHeaderLen]
	h.Op = ARPOp(binary.BigEndian.Uint16(a[6:8]))
	copy(h.SenderMAC[:], a[8:14])
	h.SenderIP = binary.BigEndian.Uint32(a[14:18])
	copy(h.TargetMAC[:], a[18:24])
	h.TargetIP = binary.BigEndian.Uint32(a[24:28])
	return h, nil
}

// PutARP writes a full Ethernet+ARP frame into buf (which must be at
// least EthernetHeaderLen+ARPHeaderLen long): the requested Ethernet
// addressing, followed by the fixed hardware/protocol type fields for
// Ethernet-over-IPv4 ARP, followed by the given op and sender/target
// fields. All arguments are copied to scratch before any write, so buf
// may alias any of them.
func PutARP(buf []byte, ethDst, ethSrc [6]byte, op ARPOp, senderMAC [6]byte, senderIP uint32, targetMAC [6]byte, targetIP uint32) error {
	if len(buf) < EthernetHeaderLen+ARPHeaderLen {
		return fmt.Errorf("%w: arp frame needs %d bytes, got %d", ErrMalformed, EthernetHeaderLen+ARPHeaderLen, len(buf))
	}
	var sMAC, tMAC [6]byte
	copy(sMAC[:], senderMAC[:])
	copy(tMAC[:], targetMAC[:])

	if err := PutEthernet(buf, ethDst, ethSrc, EtherTypeARP); err != nil {
		return err
	}
	a := buf[arpOffset : arpOffset+ARPHeaderLen]
	binary.BigEndian.PutUint16(a[0:2], arpHTypeEthernet)
	binary.BigEndian.PutUint16(a[2:4], arpPTypeIPv4)
	a[4] = arpHLenEthernet
	a[5] = arpPLenIPv4
	binary.BigEndian.PutUint16(a[6:8], uint16(op))
	copy(a[8:14], sMAC[:])
	binary.BigEndian.PutUint32(a[14:18], senderIP)
	copy(a[18:24], tMAC[:])
	binary.BigEndian.PutUint32(a[24:28], targetIP)
	return nil
}

// ARPFrameLen is the total length of an Ethernet+ARP frame.
const ARPFrameLen = EthernetHeaderLen + ARPHeaderLen
