package core

import (
	"bytes"
	"io"
)

// mockSPI records every 16-bit frame and whether the bus lock was held
// while it was clocked out.
type mockSPI struct {
	lock   *BusLock
	words  []uint16
	locked []bool
	onTx   func()
}

func (m *mockSPI) Tx(w, r []byte) error {
	if len(w) == 2 {
		m.words = append(m.words, uint16(w[0])<<8|uint16(w[1]))
		m.locked = append(m.locked, m.lock != nil && m.lock.Locked())
	}
	if m.onTx != nil {
		m.onTx()
	}
	return nil
}

func (m *mockSPI) Transfer(b byte) (byte, error) {
	return 0, nil
}

func (m *mockSPI) reset() {
	m.words = nil
	m.locked = nil
}

// mockCS counts chip-select edges
type mockCS struct {
	level   bool
	asserts int
}

func (c *mockCS) Set(high bool) {
	if !high && c.level {
		c.asserts++
	}
	c.level = high
}

// mockCounter is a PWMCounter that remembers register writes
type mockCounter struct {
	clock   uint32
	open    bool
	period  uint32
	high    uint32
	periods int
	highs   int
}

func (c *mockCounter) Clock() uint32 { return c.clock }

func (c *mockCounter) Open(period, high uint32) error {
	c.open = true
	c.period, c.high = period, high
	return nil
}

func (c *mockCounter) Close() { c.open = false }

func (c *mockCounter) SetPeriod(p uint32) {
	c.period = p
	c.periods++
}

func (c *mockCounter) SetHigh(h uint32) {
	c.high = h
	c.highs++
}

// memFile is an in-memory file for the WAV player
type memFile struct {
	*bytes.Reader
	closed bool
}

func (f *memFile) Close() error {
	f.closed = true
	return nil
}

func memOpener(data []byte, files *[]*memFile) FileOpener {
	return func(path string) (io.ReadSeekCloser, error) {
		f := &memFile{Reader: bytes.NewReader(data)}
		if files != nil {
			*files = append(*files, f)
		}
		return f, nil
	}
}

// testRig is a Generator on mock hardware
type testRig struct {
	spi  *mockSPI
	tick *SoftTick
	pwm  *mockCounter
	gen  *Generator
}

func newTestRig(files FileOpener) *testRig {
	resetScheduler()
	r := &testRig{
		spi:  &mockSPI{},
		tick: NewSoftTick(),
		pwm:  &mockCounter{clock: 80000000},
	}
	s := DefaultSettings()
	s.ProbeWav = false
	r.gen = NewGenerator(Hardware{
		SPI:      r.spi,
		DDSCS:    &mockCS{level: true},
		AmpCS:    &mockCS{level: true},
		OffsetCS: &mockCS{level: true},
		Tick:     r.tick,
		PWM:      r.pwm,
		Files:    files,
	}, s)
	r.spi.lock = r.gen.Bus
	return r
}

// resetScheduler empties the timer list and rewinds the clock
func resetScheduler() {
	timerList = nil
	currentTime = 0
	SetTime(0)
}

// newArbRig builds an Arb with its own bus, chips and software tick
func newArbRig() (*Arb, *mockSPI, *SoftTick) {
	resetScheduler()
	bus := &BusLock{}
	spi := &mockSPI{lock: bus}
	chip := NewAD9834(NewSPIDevice(spi, &mockCS{level: true}, bus, SrcDDS), 0)
	amp := NewAD5310(NewSPIDevice(spi, &mockCS{level: true}, bus, SrcDAC))
	off := NewAD5310(NewSPIDevice(spi, &mockCS{level: true}, bus, SrcDAC))
	tick := NewSoftTick()
	a := NewArb(ArbDeps{Tick: tick, Out: NewOutputs(chip, amp, off)})
	return a, spi, tick
}
