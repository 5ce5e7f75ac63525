package wire

import (
	"bytes"
	"testing"
)

func mac(b0, b1, b2, b3, b4, b5 byte) [6]byte { return [6]byte{b0, b1, b2, b3, b4, b5} }

func TestEthernetRoundTrip(t *testing.T) {
	buf := make([]byte, EthernetHeaderLen)
	dst := mac(1, 2, 3, 4, 5, 6)
	src := mac(0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff)
	if err := PutEthernet(buf, dst, src, EtherTypeARP); err != nil {
		t.Fatalf("PutEthernet: %v", err)
	}
	h, err := ParseEthernet(buf)
	if err != nil {
		t.Fatalf("ParseEthernet: %v", err)
	}
	if h.Dst != dst || h.Src != src || h.EtherType != EtherTypeARP {
		t.Errorf("round trip mismatch: got %+v", h)
	}
}

func TestEthernetMalformed(t *testing.T) {
	if _, err := ParseEthernet(make([]byte, 13)); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestARPRoundTrip(t *testing.T) {
	buf := make([]byte, ARPFrameLen)
	ethDst := mac(1, 1, 1, 1, 1, 1)
	ethSrc := mac(2, 2, 2, 2, 2, 2)
	senderMAC := mac(3, 3, 3, 3, 3, 3)
	targetMAC := mac(4, 4, 4, 4, 4, 4)
	var senderIP, targetIP uint32 = 0x0a000001, 0x0a000002
	if err := PutARP(buf, ethDst, ethSrc, ARPOpReply, senderMAC, senderIP, targetMAC, targetIP); err != nil {
		t.Fatalf("PutARP: %v", err)
	}
	h, err := ParseARP(buf)
	if err != nil {
		t.Fatalf("ParseARP: %v", err)
	}
	if h.Op != ARPOpReply || h.SenderMAC != senderMAC || h.SenderIP != senderIP || h.TargetMAC != targetMAC || h.TargetIP != targetIP {
		t.Errorf("round trip mismatch: got %+v", h)
	}
	eth, _ := ParseEthernet(buf)
	if eth.EtherType != EtherTypeARP {
		t.Errorf("expected EtherTypeARP, got %v", eth.EtherType)
	}
}

func TestARPInPlaceOverlapSwap(t *testing.T) {
	// Builders must tolerate writing sender/target fields derived from
	// the buffer's own current contents.
	buf := make([]byte, ARPFrameLen)
	senderMAC := mac(9, 9, 9, 9, 9, 9)
	var senderIP uint32 = 0xc0a80001
	targetMAC := mac(8, 8, 8, 8, 8, 8)
	var targetIP uint32 = 0xc0a80002
	if err := PutARP(buf, targetMAC, senderMAC, ARPOpRequest, senderMAC, senderIP, targetMAC, targetIP); err != nil {
		t.Fatal(err)
	}
	parsed, _ := ParseARP(buf)
	// Swap sender/target in place, reading from the same buffer it writes to.
	if err := PutARP(buf, parsed.SenderMAC, parsed.TargetMAC, ARPOpReply, parsed.TargetMAC, parsed.TargetIP, parsed.SenderMAC, parsed.SenderIP); err != nil {
		t.Fatal(err)
	}
	after, _ := ParseARP(buf)
	if after.SenderIP != targetIP || after.TargetIP != senderIP {
		t.Errorf("in-place swap produced wrong fields: %+v", after)
	}
}

func TestIPv4RoundTrip(t *testing.T) {
	buf := make([]byte, EthernetHeaderLen+IPv4HeaderLen)
	var src, dst uint32 = 0x0a000001, 0x0a000002
	if err := PutIPv4(buf, 64, IPProtocolICMP, src, dst, IPv4HeaderLen); err != nil {
		t.Fatalf("PutIPv4: %v", err)
	}
	if !VerifyIPv4Checksum(buf) {
		t.Error("checksum does not verify")
	}
	h, err := ParseIPv4(buf)
	if err != nil {
		t.Fatalf("ParseIPv4: %v", err)
	}
	if h.TTL != 64 || h.Protocol != IPProtocolICMP || h.SrcIP != src || h.DstIP != dst {
		t.Errorf("round trip mismatch: got %+v", h)
	}
	if buf[ipv4Offset] != 0x45 {
		t.Errorf("version/IHL byte = %#x, want 0x45", buf[ipv4Offset])
	}
	if buf[ipv4Offset+6]&0x40 == 0 {
		t.Error("DF flag not set")
	}
}

func TestIPv4ChecksumBreaksOnTamper(t *testing.T) {
	buf := make([]byte, EthernetHeaderLen+IPv4HeaderLen)
	PutIPv4(buf, 64, IPProtocolUDP, 1, 2, IPv4HeaderLen)
	buf[ipv4Offset+8] = 1 // tamper with TTL after checksum was computed
	if VerifyIPv4Checksum(buf) {
		t.Error("checksum should not verify after tampering")
	}
}

func TestICMPEchoReplyRewrite(t *testing.T) {
	frameLen := EthernetHeaderLen + IPv4HeaderLen + ICMPHeaderLen + 4
	buf := make([]byte, frameLen)
	PutIPv4(buf, 64, IPProtocolICMP, 1, 2, uint16(IPv4HeaderLen+ICMPHeaderLen+4))
	buf[icmpOffset] = byte(ICMPTypeEchoRequest)
	copy(buf[icmpOffset+ICMPHeaderLen:], []byte{0xde, 0xad, 0xbe, 0xef})
	putChecksum(buf[icmpOffset:frameLen], 2)

	if err := RewriteICMPEchoReply(buf, frameLen); err != nil {
		t.Fatalf("RewriteICMPEchoReply: %v", err)
	}
	h, err := ParseICMP(buf)
	if err != nil {
		t.Fatal(err)
	}
	if h.Type != ICMPTypeEchoReply {
		t.Errorf("type = %v, want EchoReply", h.Type)
	}
	if !VerifyChecksum(buf[icmpOffset:frameLen]) {
		t.Error("icmp checksum does not verify after rewrite")
	}
	if !bytes.Equal(buf[icmpOffset+ICMPHeaderLen:frameLen], []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Error("echo payload was mutated")
	}
}

func TestBuildICMPUnreachable(t *testing.T) {
	buf := make([]byte, ICMPUnreachableFrameLen)
	offending := bytes.Repeat([]byte{0x11}, 28)
	if err := BuildICMPUnreachable(buf, ICMPCodeHostUnreachable, 0x0a000001, 0x0a000002, offending); err != nil {
		t.Fatalf("BuildICMPUnreachable: %v", err)
	}
	PutEthernet(buf, mac(1, 1, 1, 1, 1, 1), mac(2, 2, 2, 2, 2, 2), EtherTypeIPv4)

	if !VerifyIPv4Checksum(buf) {
		t.Error("ipv4 checksum does not verify")
	}
	icmpLen := ICMPHeaderLen + 28
	if !VerifyChecksum(buf[icmpOffset : icmpOffset+icmpLen]) {
		t.Error("icmp checksum does not verify")
	}
	h, err := ParseICMP(buf)
	if err != nil {
		t.Fatal(err)
	}
	if h.Type != ICMPTypeUnreachable || h.Code != ICMPCodeHostUnreachable {
		t.Errorf("got type=%v code=%d", h.Type, h.Code)
	}
	if !bytes.Equal(buf[icmpOffset+8:icmpOffset+8+28], offending) {
		t.Error("offending payload not copied correctly")
	}
}

func TestBuildICMPUnreachableRejectsWrongPayloadLen(t *testing.T) {
	buf := make([]byte, ICMPUnreachableFrameLen)
	if err := BuildICMPUnreachable(buf, ICMPCodePortUnreachable, 1, 2, []byte{1, 2, 3}); err == nil {
		t.Error("expected error for wrong-length offending payload")
	}
}
