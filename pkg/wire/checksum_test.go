package wire

import "testing"

func TestChecksumRoundTrip(t *testing.T) {
	tests := [][]byte{
		{0x45, 0x00, 0x00, 0x3c, 0x1c, 0x46, 0x40, 0x00, 0x40, 0x06, 0x00, 0x00, 0xac, 0x10, 0x0a, 0x63, 0xac, 0x10, 0x0a, 0x0c},
		{0x08, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x02, 'p', 'i', 'n', 'g'},
		{0x01},
		{},
	}
	for i, buf := range tests {
		cp := append([]byte(nil), buf...)
		// checksum field assumed at offset 2 for the IPv4/ICMP-shaped
		// cases; for the degenerate cases just verify the fold-and-NOT
		// round trip directly.
		if len(cp) >= 4 {
			putChecksum(cp, 2)
			if !VerifyChecksum(cp) {
				t.Errorf("case %d: checksum does not verify after putChecksum: %x", i, cp)
			}
		} else {
			sum := Checksum(cp)
			cp2 := append([]byte(nil), cp...)
			cp2 = append(cp2, byte(sum>>8), byte(sum))
			// Appending doesn't zero an existing field, so just check
			// Checksum is deterministic and non-panicking on odd/short
			// input.
			if Checksum(cp) != sum {
				t.Errorf("case %d: checksum not deterministic", i)
			}
		}
	}
}

func TestChecksumOddLengthPadsWithZero(t *testing.T) {
	a := Checksum([]byte{0x12, 0x34, 0x56})
	b := Checksum([]byte{0x12, 0x34, 0x56, 0x00})
	if a != b {
		t.Errorf("odd-length checksum %x should equal zero-padded checksum %x", a, b)
	}
}

func TestChecksumAllOnesFolds(t *testing.T) {
	// Two words that sum to 0x1FFFE should fold to 0xFFFF before the
	// final NOT, i.e. the result is 0x0000.
	buf := []byte{0xff, 0xff, 0xff, 0xff}
	if got := Checksum(buf); got != 0x0000 {
		t.Errorf("Checksum(%x) = %#04x, want 0x0000", buf, got)
	}
}
