package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrNak        = errors.New("panel link: frame rejected")
	ErrAckTimeout = errors.New("panel link: no acknowledgement")
)

// Message is a reply frame received from the generator
type Message struct {
	Seq     uint8
	Payload []byte // command id and arguments, owned by the receiver
}

// HostTransport is the panel side of the link: it sends command frames,
// waits for their acknowledgement and queues reply frames.
type HostTransport struct {
	// AckTimeout bounds the wait for each acknowledgement
	AckTimeout time.Duration
	// Retries is how many times a frame is resent after a NAK or timeout
	Retries int

	port      io.ReadWriter
	seq       uint32 // atomic
	fifo      *FifoBuffer
	scan      Scanner
	acks      chan uint8
	responses chan Message
	writeMu   sync.Mutex
}

// NewHostTransport wraps an open port. Call ReadLoop in its own goroutine.
func NewHostTransport(port io.ReadWriter) *HostTransport {
	return &HostTransport{
		AckTimeout: 500 * time.Millisecond,
		Retries:    2,
		port:       port,
		seq:        FrameDest,
		fifo:       NewFifoBuffer(1024),
		acks:       make(chan uint8, 4),
		responses:  make(chan Message, 32),
	}
}

// Responses delivers reply frames in arrival order
func (t *HostTransport) Responses() <-chan Message {
	return t.responses
}

// Seq returns the sequence byte the next command will carry
func (t *HostTransport) Seq() uint8 {
	return uint8(atomic.LoadUint32(&t.seq))
}

// ReadLoop reads the port until ctx ends or the port fails. io.EOF ends the
// loop without error.
func (t *HostTransport) ReadLoop(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, err := t.port.Read(buf)
		if n > 0 {
			t.fifo.Write(buf[:n])
			t.drain()
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("panel link read: %w", err)
		}
	}
}

func (t *HostTransport) drain() {
	data := t.fifo.Data()
	total := 0
	for {
		f, n, ok, _ := t.scan.Next(data[total:])
		total += n
		if !ok {
			break
		}
		if f.IsAck() {
			select {
			case t.acks <- f.Seq:
			default:
			}
			continue
		}
		msg := Message{Seq: f.Seq, Payload: append([]byte(nil), f.Payload...)}
		select {
		case t.responses <- msg:
		default:
			// Full: drop the oldest so the newest state wins.
			select {
			case <-t.responses:
			default:
			}
			t.responses <- msg
		}
	}
	t.fifo.Pop(total)
}

// Send frames one command and waits for it to be acknowledged
func (t *HostTransport) Send(ctx context.Context, cmdID uint16, args func(out OutputBuffer)) error {
	payload := NewScratchOutput()
	EncodeVLQUint(payload, uint32(cmdID))
	if args != nil {
		args(payload)
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	seq := t.Seq()
	frame, err := AppendFrame(nil, seq, payload.Result())
	if err != nil {
		return err
	}
	var lastErr error
	for attempt := 0; attempt <= t.Retries; attempt++ {
		if _, err := t.port.Write(frame); err != nil {
			return fmt.Errorf("panel link write: %w", err)
		}
		lastErr = t.waitAck(ctx, NextSeq(seq))
		if lastErr == nil {
			atomic.StoreUint32(&t.seq, uint32(NextSeq(seq)))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}

func (t *HostTransport) waitAck(ctx context.Context, want uint8) error {
	timer := time.NewTimer(t.AckTimeout)
	defer timer.Stop()
	select {
	case got := <-t.acks:
		if got == want {
			return nil
		}
		// The generator restarted or missed a frame.
		return ErrNak
	case <-timer.C:
		return ErrAckTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset restarts the sequence and drops anything queued
func (t *HostTransport) Reset() {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	atomic.StoreUint32(&t.seq, FrameDest)
	for len(t.acks) > 0 {
		<-t.acks
	}
	for len(t.responses) > 0 {
		<-t.responses
	}
}
