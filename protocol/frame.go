package protocol

import "errors"

var (
	ErrFrameTooLong = errors.New("frame: payload too long")
)

// Frame is one decoded frame. Payload aliases the scanned input.
type Frame struct {
	Seq     uint8
	Payload []byte
}

// IsAck reports whether the frame is a bare acknowledgement
func (f Frame) IsAck() bool {
	return len(f.Payload) == 0
}

// AppendFrame wraps payload in a frame and appends it to dst
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	n := FrameMin + len(payload)
	if n > FrameMax {
		return dst, ErrFrameTooLong
	}
	start := len(dst)
	dst = append(dst, byte(n), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, byte(crc>>8), byte(crc), FrameSync), nil
}

// Scanner pulls frames out of a byte stream, resynchronizing on the sync
// byte after any corruption.
type Scanner struct {
	lost bool
}

// Lost reports whether the scanner is hunting for a sync byte
func (s *Scanner) Lost() bool {
	return s.lost
}

// Next returns the first complete frame in data and how many bytes were
// consumed. ok is false when more input is needed; consumed may still be
// non-zero when garbage was skipped. resynced is set when the scanner
// regained sync during this call.
func (s *Scanner) Next(data []byte) (f Frame, consumed int, ok, resynced bool) {
	for consumed < len(data) {
		rest := data[consumed:]
		if s.lost {
			i := indexSync(rest)
			if i < 0 {
				return f, len(data), false, resynced
			}
			consumed += i + 1
			s.lost = false
			resynced = true
			continue
		}
		if rest[0] == FrameSync {
			consumed++
			continue
		}
		if len(rest) < FrameMin {
			return f, consumed, false, resynced
		}
		n := int(rest[posLen])
		if n < FrameMin || n > FrameMax || rest[posSeq]&^FrameSeqMask != FrameDest {
			s.lost = true
			continue
		}
		if len(rest) < n {
			return f, consumed, false, resynced
		}
		if rest[n-1] != FrameSync {
			s.lost = true
			continue
		}
		want := uint16(rest[n-3])<<8 | uint16(rest[n-2])
		if CRC16(rest[:n-FrameTrailerSize]) != want {
			s.lost = true
			continue
		}
		f = Frame{Seq: rest[posSeq], Payload: rest[FrameHeaderSize : n-FrameTrailerSize]}
		return f, consumed + n, true, resynced
	}
	return f, consumed, false, resynced
}

func indexSync(b []byte) int {
	for i, c := range b {
		if c == FrameSync {
			return i
		}
	}
	return -1
}
