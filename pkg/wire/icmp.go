package wire

import (
	"encoding/binary"
	"fmt"
)

// icmpOffset is the fixed offset of the ICMP (RFC 792) header in an
// Ethernet+IPv4 frame with no IP options.
const icmpOffset = EthernetHeaderLen + IPv4HeaderLen

// ICMPHeader is a view over the 8-byte ICMP header.
type ICMPHeader struct {
	Type ICMPType
	Code uint8
}

// ParseICMP reads the ICMP type/code at buf[icmpOffset:].
func ParseICMP(buf []byte) (ICMPHeader, error) {
	var h ICMPHeader
	if len(buf) < icmpOffset+ICMPHeaderLen {
		return h, fmt.Errorf("%w: icmp header needs %d bytes, got %d", ErrMalformed, icmpOffset+ICMPHeaderLen, len(buf))
	}
	h.Type = ICMPType(buf[icmpOffset])
	h.Code = buf[icmpOffset+1]
	return h, nil
}

// RewriteICMPEchoReply turns an Echo-Request frame into an Echo-Reply
// in place: sets type to 0, leaves code/identifier/sequence/payload
// untouched, and recomputes the ICMP checksum over the header plus
// whatever payload bytes the frame actually carries (buf[icmpOffset:frameLen]),
// so a short reply gets a short checksum and a long one a long one.
func RewriteICMPEchoReply(buf []byte, frameLen int) error {
	if frameLen < icmpOffset+ICMPHeaderLen || frameLen > len(buf) {
		return fmt.Errorf("%w: icmp echo reply needs %d..%d bytes, got frameLen=%d", ErrMalformed, icmpOffset+ICMPHeaderLen, len(buf), frameLen)
	}
	buf[icmpOffset] = byte(ICMPTypeEchoReply)
	putChecksum(buf[icmpOffset:frameLen], 2)
	return nil
}

// ICMPUnreachableFrameLen is the fixed size of a synthesized
// destination-unreachable frame: 14 (Ethernet) + 20 (IPv4) + 8 (ICMP) +
// 28 (original IPv4 header + 8 bytes), per RFC 792.
const ICMPUnreachableFrameLen = EthernetHeaderLen + IPv4HeaderLen + ICMPHeaderLen + 28

// OffendingPayload extracts the 28 bytes RFC 792 requires an ICMP
// unreachable message to embed — the original datagram's IPv4 header
// plus its first 8 payload bytes — starting at frame's Ethernet
// payload offset. A frame shorter than EthernetHeaderLen+28 (a
// truncated or unpadded IPv4 datagram) is zero-padded on the right
// rather than read out of bounds.
func OffendingPayload(frame []byte) [28]byte {
	var out [28]byte
	if len(frame) <= EthernetHeaderLen {
		return out
	}
	copy(out[:], frame[EthernetHeaderLen:])
	return out
}

// BuildICMPUnreachable writes a fresh ICMPUnreachableFrameLen-byte
// frame into buf carrying an ICMP Destination-Unreachable message of
// the given code. offendingIPHeaderAnd8 must be exactly 28 bytes: the
// offending IPv4 datagram's header plus its first 8 payload bytes.
// Ethernet addressing is left to the caller (PutEthernet) since it
// depends on which interface answers; this only fills in IPv4+ICMP.
func BuildICMPUnreachable(buf []byte, code uint8, srcIP, dstIP uint32, offendingIPHeaderAnd8 []byte) error {
	if len(buf) < ICMPUnreachableFrameLen {
		return fmt.Errorf("%w: icmp unreachable needs %d bytes, got %d", ErrMalformed, ICMPUnreachableFrameLen, len(buf))
	}
	if len(offendingIPHeaderAnd8) != 28 {
		return fmt.Errorf("%w: offending payload must be 28 bytes, got %d", ErrMalformed, len(offendingIPHeaderAnd8))
	}

	const icmpLen = ICMPHeaderLen + 28
	if err := PutIPv4(buf, ipv4DefaultTTL, IPProtocolICMP, srcIP, dstIP, uint16(IPv4HeaderLen+icmpLen)); err != nil {
		return err
	}

	i := buf[icmpOffset : icmpOffset+icmpLen]
	i[0] = byte(ICMPTypeUnreachable)
	i[1] = code
	binary.BigEndian.PutUint32(i[4:8], 0) // unused, must be zero
	copy(i[8:8+28], offendingIPHeaderAnd8)
	putChecksum(i, 2)
	return nil
}
