package protocol

import (
	"bytes"
	"testing"
)

func TestFrameLayout(t *testing.T) {
	frame, err := AppendFrame(nil, 0x13, []byte{0xAA, 0xBB})
	if err != nil {
		t.Fatal(err)
	}
	if len(frame) != 7 || frame[0] != 7 || frame[1] != 0x13 || frame[6] != FrameSync {
		t.Errorf("Unexpected frame % x", frame)
	}
	crc := CRC16(frame[:4])
	if frame[4] != byte(crc>>8) || frame[5] != byte(crc) {
		t.Errorf("Expected crc %#04x, got %02x%02x", crc, frame[4], frame[5])
	}
	if _, err := AppendFrame(nil, FrameDest, make([]byte, FrameMax)); err != ErrFrameTooLong {
		t.Errorf("Expected ErrFrameTooLong, got %v", err)
	}
}

func TestScannerRoundTrip(t *testing.T) {
	var stream []byte
	stream, _ = AppendFrame(stream, 0x10, []byte{1, 2, 3})
	stream, _ = AppendFrame(stream, 0x11, nil)
	var s Scanner
	f, n, ok, _ := s.Next(stream)
	if !ok || f.Seq != 0x10 || !bytes.Equal(f.Payload, []byte{1, 2, 3}) {
		t.Fatalf("Unexpected first frame %+v", f)
	}
	f, m, ok, _ := s.Next(stream[n:])
	if !ok || !f.IsAck() || f.Seq != 0x11 || n+m != len(stream) {
		t.Errorf("Unexpected second frame %+v", f)
	}
}

func TestScannerWaitsForPartialFrame(t *testing.T) {
	frame, _ := AppendFrame(nil, 0x10, []byte{1, 2, 3})
	var s Scanner
	_, n, ok, _ := s.Next(frame[:4])
	if ok || n != 0 {
		t.Errorf("Partial frame: ok %v consumed %d", ok, n)
	}
	if _, _, ok, _ = s.Next(frame); !ok {
		t.Error("Completed frame not returned")
	}
}

func TestScannerResync(t *testing.T) {
	good, _ := AppendFrame(nil, 0x12, []byte{7})
	bad, _ := AppendFrame(nil, 0x11, []byte{9})
	bad[2] ^= 0xFF // corrupt the payload, keep the sync byte
	stream := append([]byte{0x01, 0x02}, bad...)
	stream = append(stream, good...)

	var s Scanner
	total := 0
	var got []Frame
	resyncs := 0
	for {
		f, n, ok, resynced := s.Next(stream[total:])
		total += n
		if resynced {
			resyncs++
		}
		if !ok {
			break
		}
		got = append(got, f)
	}
	if len(got) != 1 || got[0].Seq != 0x12 {
		t.Fatalf("Expected only the good frame, got %+v", got)
	}
	if resyncs == 0 {
		t.Error("Expected a resync")
	}
	if total != len(stream) {
		t.Errorf("Expected all %d bytes consumed, got %d", len(stream), total)
	}
}

func TestNextSeqWraps(t *testing.T) {
	if NextSeq(0x1F) != 0x10 {
		t.Errorf("Expected 0x10, got %#x", NextSeq(0x1F))
	}
	if NextSeq(0x10) != 0x11 {
		t.Errorf("Expected 0x11, got %#x", NextSeq(0x10))
	}
}
