package core

import (
	"encoding/binary"
	"io"
	"sync/atomic"

	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
)

const (
	WavBufSize    = 4096
	WavDataOffset = 48
	WavSampleRate = 44100
	wavMid        = 0x8000
)

// WavState is the player state
type WavState uint32

const (
	WavStopped WavState = iota
	WavPaused
	WavPlaying
)

var (
	ErrWavNotOpen  = errors.New("wav: no stream open")
	ErrWavNotReady = errors.New("wav: first buffer never filled")
	ErrWavNoData   = errors.New("wav: no sample data")
)

// FileOpener opens a file from the board's storage
type FileOpener func(path string) (io.ReadSeekCloser, error)

// WavPlayer streams a mono 16-bit 44.1 kHz file through the sample tick.
//
// Two buffers alternate. The tick drains the one in use and flags it empty
// when done; Process refills empty buffers from the main loop and clears the
// flag once the buffer is complete. A buffer is never touched by both sides
// at once.
type WavPlayer struct {
	// Probe validates the header before streaming. Nil skips the check.
	Probe func(r io.ReadSeeker) error
	// DataOffset is where the sample payload starts; playback loops back here.
	DataOffset int64

	open FileOpener
	tick TickTimer
	out  *Outputs
	file io.ReadSeekCloser

	buf   [2][WavBufSize]int16
	pos   [2]uint32
	empty [2]uint32 // atomic, 1 = drained, waiting for refill
	inUse uint32    // tick-owned
	state uint32    // atomic WavState

	raw    [WavBufSize * 2]byte
	tickFn func()
}

// NewWavPlayer creates a stopped player
func NewWavPlayer(open FileOpener, tick TickTimer, out *Outputs) *WavPlayer {
	p := &WavPlayer{
		Probe:      ProbeWavFormat,
		DataOffset: WavDataOffset,
		open:       open,
		tick:       tick,
		out:        out,
	}
	if p.tick == nil {
		p.tick = NewSoftTick()
	}
	p.empty[0], p.empty[1] = 1, 1
	p.tickFn = p.onTick
	return p
}

// ProbeWavFormat accepts only mono 16-bit 44.1 kHz PCM
func ProbeWavFormat(r io.ReadSeeker) error {
	_, format, err := wav.Decode(r)
	if err != nil {
		return errors.Wrap(err, "wav header")
	}
	if format.NumChannels != 1 || format.Precision != 2 || int(format.SampleRate) != WavSampleRate {
		return errors.Errorf("wav format %d ch, %d bit, %d Hz not supported",
			format.NumChannels, format.Precision*8, int(format.SampleRate))
	}
	return nil
}

// State returns the player state
func (p *WavPlayer) State() WavState {
	if p == nil {
		return WavStopped
	}
	return WavState(atomic.LoadUint32(&p.state))
}

// Empty reports whether buffer b is waiting for a refill
func (p *WavPlayer) Empty(b int) bool {
	return atomic.LoadUint32(&p.empty[b&1]) != 0
}

// InUse returns the buffer the tick is draining
func (p *WavPlayer) InUse() int {
	return int(atomic.LoadUint32(&p.inUse))
}

// Open stops any current stream, opens path, checks the header and fills
// both buffers. It fails when the first buffer cannot be filled.
func (p *WavPlayer) Open(path string) error {
	if p == nil {
		return ErrWavNotOpen
	}
	p.Stop()
	if p.open == nil {
		return errors.Wrap(ErrWavNotOpen, path)
	}
	f, err := p.open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	if p.Probe != nil {
		if err := p.Probe(f); err != nil {
			f.Close()
			return errors.Wrap(err, path)
		}
	}
	if _, err := f.Seek(p.DataOffset, io.SeekStart); err != nil {
		f.Close()
		return errors.Wrapf(err, "seek %s", path)
	}
	p.file = f
	p.pos[0], p.pos[1] = 0, 0
	atomic.StoreUint32(&p.empty[0], 1)
	atomic.StoreUint32(&p.empty[1], 1)
	atomic.StoreUint32(&p.inUse, 0)
	if err := p.fill(0); err != nil {
		p.closeFile()
		return errors.Wrap(err, path)
	}
	if err := p.fill(1); err != nil {
		DebugPrintln("[WAV] second buffer: " + err.Error())
	}
	if err := p.tick.SetFrequency(WavSampleRate); err != nil {
		p.closeFile()
		return errors.Wrap(err, "wav tick")
	}
	return nil
}

// Play starts or resumes the tick. It refuses when nothing was buffered.
func (p *WavPlayer) Play() error {
	if p == nil {
		return ErrWavNotOpen
	}
	if p.file == nil {
		return ErrWavNotOpen
	}
	if p.Empty(p.InUse()) {
		p.Stop()
		return ErrWavNotReady
	}
	p.tick.Stop()
	p.tick.SetFrequency(WavSampleRate)
	p.tick.SetCallback(p.tickFn)
	atomic.StoreUint32(&p.state, uint32(WavPlaying))
	p.tick.Launch()
	return nil
}

// Pause stops the tick and keeps the file and buffers
func (p *WavPlayer) Pause() {
	if p == nil || p.State() != WavPlaying {
		return
	}
	p.tick.Stop()
	atomic.StoreUint32(&p.state, uint32(WavPaused))
}

// Stop halts the tick, closes the file and re-centres the output
func (p *WavPlayer) Stop() {
	if p == nil {
		return
	}
	p.tick.Stop()
	wasOpen := p.file != nil
	p.closeFile()
	atomic.StoreUint32(&p.state, uint32(WavStopped))
	if wasOpen {
		p.out.Consume(wavMid)
	}
}

func (p *WavPlayer) closeFile() {
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
}

// Process refills drained buffers. Call it every main-loop pass; an error
// means the stream has no more data and should be stopped.
func (p *WavPlayer) Process() error {
	if p == nil || p.file == nil || p.State() == WavStopped {
		return nil
	}
	for b := 0; b < 2; b++ {
		if !p.Empty(b) {
			continue
		}
		if err := p.fill(b); err != nil {
			RecordTiming(EvtWavFail, SrcWav, uint32(b), 0)
			return err
		}
	}
	return nil
}

// fill loads buffer b, which must be flagged empty. Reaching the end of the
// file wraps back to the start of the sample data, so a short file loops.
func (p *WavPlayer) fill(b int) error {
	if !p.Empty(b) {
		return nil
	}
	n := 0
	rewound := false
	for n < len(p.raw) {
		k, err := p.file.Read(p.raw[n:])
		n += k
		if k > 0 {
			rewound = false
		}
		if err != nil && err != io.EOF {
			return errors.Wrap(err, "wav read")
		}
		if n == len(p.raw) {
			break
		}
		if k == 0 || err == io.EOF {
			if rewound {
				return ErrWavNoData
			}
			if _, err := p.file.Seek(p.DataOffset, io.SeekStart); err != nil {
				return errors.Wrap(err, "wav rewind")
			}
			rewound = true
		}
	}
	dst := &p.buf[b]
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(p.raw[2*i:]))
	}
	p.pos[b] = 0
	atomic.StoreUint32(&p.empty[b], 0)
	return nil
}

func (p *WavPlayer) onTick() {
	b := atomic.LoadUint32(&p.inUse)
	if atomic.LoadUint32(&p.empty[b]) != 0 {
		RecordTiming(EvtWavUnderrun, SrcWav, b, 0)
		return
	}
	s := p.buf[b][p.pos[b]]
	p.pos[b]++
	p.out.Consume(uint16(int32(s) + wavMid))
	if p.pos[b] >= WavBufSize {
		p.pos[b] = 0
		atomic.StoreUint32(&p.empty[b], 1)
		atomic.StoreUint32(&p.inUse, b^1)
		RecordTiming(EvtWavSwap, SrcWav, b^1, 0)
	}
}
