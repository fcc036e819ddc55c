package mavlink

// X25 implements the CRC-16/MCRF4XX checksum used by MAVLink framing.
type X25 struct {
	crc uint16
}

// NewX25 returns a checksum initialized to the MAVLink seed value.
func NewX25() *X25 {
	return &X25{crc: 0xFFFF}
}

// WriteByte folds a single byte into the running checksum.
func (x *X25) WriteByte(b byte) error {
	tmp := b ^ byte(x.crc&0xFF)
	tmp ^= tmp << 4
	x.crc = (x.crc >> 8) ^ (uint16(tmp) << 8) ^ (uint16(tmp) << 3) ^ (uint16(tmp) >> 4)
	return nil
}

// Write folds p into the running checksum. It never fails.
func (x *X25) Write(p []byte) (int, error) {
	for _, b := range p {
		x.WriteByte(b)
	}
	return len(p), nil
}

// Sum16 returns the current checksum value.
func (x *X25) Sum16() uint16 {
	return x.crc
}
