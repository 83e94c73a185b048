package protocol

// CRC16 computes the CCITT checksum protecting every frame's header and
// payload. The bytewise form avoids a lookup table; firmware flash is
// better spent elsewhere.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc)
		b ^= b << 4
		w := uint16(b)
		crc = (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
	}
	return crc
}
