package wire

import (
	"encoding/binary"
	"fmt"
)

// IPv4Header is a view over the 20-byte fixed IPv4 (RFC 791) header
// that starts at offset EthernetHeaderLen. Options are never present
// on frames this router originates or forwards (IHL is always 5).
type IPv4Header struct {
	TTL      uint8
	Protocol IPProtocol
	Checksum uint16
	SrcIP    uint32
	DstIP    uint32
	// TotalLen is the IPv4 total-length field, header+payload.
	TotalLen uint16
}

// ParseIPv4 reads the IPv4 header at buf[EthernetHeaderLen:].
func ParseIPv4(buf []byte) (IPv4Header, error) {
	var h IPv4Header
	if len(buf) < EthernetHeaderLen+IPv4HeaderLen {
		return h, fmt.Errorf("%w: ipv4 header needs %d bytes, got %d", ErrMalformed, EthernetHeaderLen+IPv4HeaderLen, len(buf))
	}
	p := buf[ipv4Offset : ipv4Offset+IPv4HeaderLen]
	h.TotalLen = binary.BigEndian.Uint16(p[2:4])
	h.TTL = p[8]
	h.Protocol = IPProtocol(p[9])
	h.Checksum = binary.BigEndian.Uint16(p[10:12])
	h.SrcIP = binary.BigEndian.Uint32(p[12:16])
	h.DstIP = binary.BigEndian.Uint32(p[16:20])
	return h, nil
}

// PutIPv4 writes a fresh 20-byte IPv4 header into buf[EthernetHeaderLen:]
// with version 4, IHL 5, TOS 0, ID 0, DF set, the given TTL, protocol,
// source, and destination, and a recomputed header checksum. buf must
// be at least EthernetHeaderLen+IPv4HeaderLen long; the Ethernet header
// bytes preceding it are left untouched.
func PutIPv4(buf []byte, ttl uint8, protocol IPProtocol, srcIP, dstIP uint32, totalLen uint16) error {
	if len(buf) < EthernetHeaderLen+IPv4HeaderLen {
		return fmt.Errorf("%w: ipv4 header needs %d bytes, got %d", ErrMalformed, EthernetHeaderLen+IPv4HeaderLen, len(buf))
	}
	p := buf[ipv4Offset : ipv4Offset+IPv4HeaderLen]
	p[0] = 0x45 // version 4, IHL 5
	p[1] = 0    // TOS
	binary.BigEndian.PutUint16(p[2:4], totalLen)
	binary.BigEndian.PutUint16(p[4:6], 0) // ID
	binary.BigEndian.PutUint16(p[6:8], ipv4FlagDF)
	p[8] = ttl
	p[9] = byte(protocol)
	binary.BigEndian.PutUint32(p[12:16], srcIP)
	binary.BigEndian.PutUint32(p[16:20], dstIP)
	RecomputeIPv4Checksum(buf)
	return nil
}

// RecomputeIPv4Checksum recomputes and rewrites the IPv4 header
// checksum (RFC 1071) over buf's first 20 bytes of IP header (the
// checksum field is zeroed first).
func RecomputeIPv4Checksum(buf []byte) {
	putChecksum(buf[ipv4Offset:ipv4Offset+IPv4HeaderLen], 10)
}

// VerifyIPv4Checksum reports whether the IPv4 header checksum at
// buf[EthernetHeaderLen:EthernetHeaderLen+20] is internally consistent.
func VerifyIPv4Checksum(buf []byte) bool {
	if len(buf) < EthernetHeaderLen+IPv4HeaderLen {
		return false
	}
	return VerifyChecksum(buf[ipv4Offset : ipv4Offset+IPv4HeaderLen])
}
