package protocol

import "testing"

// crc16Bitwise is the plain shift-register form of the same checksum,
// used to cross-check the table-free implementation.
func crc16Bitwise(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

func TestCRC16CheckValue(t *testing.T) {
	if got := CRC16([]byte("123456789")); got != 0x6F91 {
		t.Errorf("CRC16(123456789) = %#04x, want 0x6f91", got)
	}
	if got := CRC16(nil); got != 0xFFFF {
		t.Errorf("CRC16(empty) = %#04x, want 0xffff", got)
	}
}

func TestCRC16MatchesBitwise(t *testing.T) {
	inputs := [][]byte{
		{0x00},
		{0xFF},
		{0x7E, 0x7E},
		{0x07, 0x11, 0x03, 0x00, 0x01},
		[]byte("the quick brown fox"),
		{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	}
	for _, in := range inputs {
		if got, want := CRC16(in), crc16Bitwise(in); got != want {
			t.Errorf("CRC16(% X) = %#04x, bitwise %#04x", in, got, want)
		}
	}
}

func TestCRC16Sensitivity(t *testing.T) {
	base := []byte{0x08, 0x11, 0x03, 0x01, 0x02, 0x03}
	ref := CRC16(base)
	for i := range base {
		mutated := append([]byte(nil), base...)
		mutated[i] ^= 0x01
		if CRC16(mutated) == ref {
			t.Errorf("single-bit flip at byte %d not detected", i)
		}
	}
}
