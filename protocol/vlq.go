package protocol

import "errors"

var (
	ErrShortVLQ   = errors.New("vlq: truncated value")
	ErrShortBytes = errors.New("vlq: byte string longer than frame")
)

// EncodeVLQInt appends v in the variable-length form the link uses: 7 bits
// per byte, most significant group first, continuation bit 0x80. Values in
// [-32, 96) fit in one byte.
func EncodeVLQInt(out OutputBuffer, v int32) {
	var tmp [5]byte
	n := 0
	for _, shift := range [...]uint{28, 21, 14, 7} {
		lo := int32(-1) << (shift - 2)
		hi := int32(3) << (shift - 2)
		if n > 0 || v < lo || v >= hi {
			tmp[n] = byte(v>>shift)&0x7F | 0x80
			n++
		}
	}
	tmp[n] = byte(v) & 0x7F
	out.Output(tmp[:n+1])
}

// EncodeVLQUint appends an unsigned value
func EncodeVLQUint(out OutputBuffer, v uint32) {
	EncodeVLQInt(out, int32(v))
}

// DecodeVLQInt consumes one value from the front of data
func DecodeVLQInt(data *[]byte) (int32, error) {
	b := *data
	if len(b) == 0 {
		return 0, ErrShortVLQ
	}
	c := uint32(b[0])
	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	i := 1
	for c&0x80 != 0 {
		if i >= len(b) {
			return 0, ErrShortVLQ
		}
		c = uint32(b[i])
		i++
		v = v<<7 | c&0x7F
	}
	*data = b[i:]
	return int32(v), nil
}

// DecodeVLQUint consumes one unsigned value
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}

// EncodeVLQBytes appends a length-prefixed byte string
func EncodeVLQBytes(out OutputBuffer, b []byte) {
	EncodeVLQUint(out, uint32(len(b)))
	out.Output(b)
}

// DecodeVLQBytes consumes a length-prefixed byte string. The result aliases data.
func DecodeVLQBytes(data *[]byte) ([]byte, error) {
	n, err := DecodeVLQUint(data)
	if err != nil {
		return nil, err
	}
	if int(n) > len(*data) {
		return nil, ErrShortBytes
	}
	b := (*data)[:n]
	*data = (*data)[n:]
	return b, nil
}

// EncodeVLQString appends a length-prefixed string
func EncodeVLQString(out OutputBuffer, s string) {
	EncodeVLQUint(out, uint32(len(s)))
	out.Output([]byte(s))
}

// DecodeVLQString consumes a length-prefixed string
func DecodeVLQString(data *[]byte) (string, error) {
	b, err := DecodeVLQBytes(data)
	return string(b), err
}
