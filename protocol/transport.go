package protocol

import "sync/atomic"

// CommandHandler runs one decoded command. It consumes its arguments from data.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the generator side of the link. It parses frames from the
// panel, dispatches their commands and acknowledges every frame, and it
// frames replies into an OutputBuffer the target flushes to the wire.
type Transport struct {
	scan    Scanner
	nextSeq uint32 // atomic, next sequence expected from the panel
	output  OutputBuffer
	handler CommandHandler
	onReset func()
	onError func(error)
}

// NewTransport creates a transport writing to output
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		nextSeq: FrameDest,
		output:  output,
		handler: handler,
	}
}

// SetResetCallback is called when the panel restarts its sequence
func (t *Transport) SetResetCallback(fn func()) {
	t.onReset = fn
}

// SetErrorCallback receives command handler failures
func (t *Transport) SetErrorCallback(fn func(error)) {
	t.onError = fn
}

// Receive parses every complete frame in input and pops what it consumed
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()
	total := 0
	for {
		f, n, ok, resynced := t.scan.Next(data[total:])
		total += n
		if resynced {
			t.ack()
		}
		if !ok {
			break
		}
		t.handleFrame(f)
	}
	input.Pop(total)
}

func (t *Transport) handleFrame(f Frame) {
	expected := uint8(atomic.LoadUint32(&t.nextSeq))
	if f.Seq == FrameDest && expected != FrameDest {
		expected = FrameDest
		atomic.StoreUint32(&t.nextSeq, FrameDest)
		if t.onReset != nil {
			t.onReset()
		}
	}
	if f.Seq == expected {
		atomic.StoreUint32(&t.nextSeq, uint32(NextSeq(f.Seq)))
		t.dispatch(f.Payload)
	}
	// A stale sequence is answered with the expected one, which the panel
	// reads as a NAK.
	t.ack()
}

func (t *Transport) dispatch(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.scan.lost = true
		}
	}()
	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			t.scan.lost = true
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(id), &payload); err != nil {
			if t.onError != nil {
				t.onError(err)
			}
			return
		}
	}
}

func (t *Transport) ack() {
	seq := uint8(atomic.LoadUint32(&t.nextSeq))
	var b [FrameMin]byte
	frame, _ := AppendFrame(b[:0], seq, nil)
	t.output.Output(frame)
}

// SendCommand frames one reply: the command id followed by whatever args writes
func (t *Transport) SendCommand(cmdID uint16, args func(out OutputBuffer)) {
	start := t.output.CurPosition()
	t.output.Output([]byte{0, uint8(atomic.LoadUint32(&t.nextSeq))})
	EncodeVLQUint(t.output, uint32(cmdID))
	if args != nil {
		args(t.output)
	}
	n := len(t.output.DataSince(start)) + FrameTrailerSize
	t.output.Update(start, uint8(n))
	crc := CRC16(t.output.DataSince(start))
	t.output.Output([]byte{byte(crc >> 8), byte(crc), FrameSync})
}

// Reset forgets the sequence state
func (t *Transport) Reset() {
	t.scan = Scanner{}
	atomic.StoreUint32(&t.nextSeq, FrameDest)
}
