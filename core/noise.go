package core

// NoiseSource yields one pseudo-random 16-bit sample per call. It is called
// from tick context.
type NoiseSource interface {
	Uint16() uint16
}

// lfsrTaps is x^32 + x^22 + x^2 + x + 1 in Galois form
const lfsrTaps = 0x80200003

// LFSR is a 32-bit Galois shift register. The zero state is a fixed point,
// so seeds of zero are replaced.
type LFSR struct {
	state uint32
}

// NewLFSR creates a generator from a seed
func NewLFSR(seed uint32) *LFSR {
	if seed == 0 {
		seed = 0xACE1ACE1
	}
	return &LFSR{state: seed}
}

func (l *LFSR) step() {
	lsb := l.state & 1
	l.state >>= 1
	if lsb != 0 {
		l.state ^= lfsrTaps
	}
}

// Uint16 clocks the register 16 times and returns its top half
func (l *LFSR) Uint16() uint16 {
	if l.state == 0 {
		l.state = 0xACE1ACE1
	}
	for i := 0; i < 16; i++ {
		l.step()
	}
	return uint16(l.state >> 16)
}

// AnalogInput samples the external analog input. ReadU16 is called from
// tick context and must return immediately; machine.ADC satisfies it
// through a one-line adapter.
type AnalogInput interface {
	ReadU16() uint16
}
