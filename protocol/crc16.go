package protocol

// CRC16 is the CCITT checksum used on every frame, computed without a
// table so it costs no flash.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, c := range data {
		c ^= uint8(crc)
		c ^= c << 4
		w := uint16(c)
		crc = (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
	}
	return crc
}
