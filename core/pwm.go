package core

import "math"

// PWM limits. Frequency is in deci-Hz, duty in tenths of a percent, high and
// low times in nanoseconds.
const (
	PWMFreqMin = 5
	PWMFreqMax = 10000000
	PWMDutyMin = 0
	PWMDutyMax = 1000
	PWMTimeMin = 0
	PWMTimeMax = 1000000000

	PWMRegMax = 0xFFFFFFFF

	// DefaultPWMClock is the counter rate the engine assumes without hardware
	DefaultPWMClock = 80000000
)

// PWM keeps frequency, duty, high time and low time consistent over one set
// of counter registers where period = high + low. The UI edits any one field
// and Update derives the others from it.
type PWM struct {
	Freq   uint32 // deci-Hz
	Duty   uint32 // per mille
	Th     uint32 // ns
	Tl     uint32 // ns
	Linked bool   // high and low share a fixed period

	PeriodReg uint32
	ThReg     uint32
	TlReg     uint32

	// Resolution is log2 of the period count in tenths of a bit
	Resolution uint32

	counter PWMCounter
	clock   uint64
	running bool

	prevFreq, prevDuty, prevTh, prevTl  uint32
	prevPeriodReg, prevThReg, prevTlReg uint32
}

// NewPWM creates an engine at 100 Hz, 50 % and computes its registers
func NewPWM(counter PWMCounter) *PWM {
	p := &PWM{
		Freq:    1000,
		Duty:    500,
		counter: counter,
		clock:   DefaultPWMClock,
	}
	if counter != nil && counter.Clock() != 0 {
		p.clock = uint64(counter.Clock())
	}
	p.Update(true)
	return p
}

// SetClock changes the assumed counter rate and recomputes the registers
func (p *PWM) SetClock(hz uint32) {
	if p == nil || hz == 0 {
		return
	}
	p.clock = uint64(hz)
	p.Update(true)
}

// Running reports whether the counter is started
func (p *PWM) Running() bool {
	return p != nil && p.running
}

// Clock returns the counter rate in Hz
func (p *PWM) Clock() uint32 {
	return uint32(p.clock)
}

// Run starts the counter with the current registers
func (p *PWM) Run() error {
	if p == nil || p.counter == nil {
		return nil
	}
	if err := p.counter.Open(p.PeriodReg, p.ThReg); err != nil {
		return err
	}
	p.running = true
	return nil
}

// Stop halts the counter
func (p *PWM) Stop() {
	if p == nil {
		return
	}
	if p.counter != nil {
		p.counter.Close()
	}
	p.running = false
}

func roundDiv(n, d uint64) uint64 {
	return (n + d/2) / d
}

func clampRegister(r uint64) uint32 {
	if r < 1 {
		return 1
	}
	if r > PWMRegMax {
		return PWMRegMax
	}
	return uint32(r)
}

// Update reconciles the model. Only the first changed field in the order
// frequency, duty, high time, low time is honoured. It returns false when
// nothing changed.
func (p *PWM) Update(force bool) bool {
	if p == nil {
		return false
	}
	switch {
	case force || p.Freq != p.prevFreq:
		p.setFrequency()
		p.setDuty()
	case p.Duty != p.prevDuty:
		p.setDuty()
	case p.Th != p.prevTh:
		p.setTh()
		p.deriveFreqDuty()
	case p.Tl != p.prevTl:
		p.setTl()
		p.deriveFreqDuty()
	default:
		return false
	}
	p.writeRegisters(force)
	p.deriveTimes()
	p.Resolution = uint32(math.Log2(float64(p.PeriodReg)) * 10)
	p.prevFreq, p.prevDuty, p.prevTh, p.prevTl = p.Freq, p.Duty, p.Th, p.Tl
	return true
}

// nudge moves a register by one count when a changed request quantized onto
// the register it already had, so every edit is visible. up tells which way
// the request moved in register terms.
func nudge(reg, prev uint32, changed, up bool) uint32 {
	if !changed || reg != prev {
		return reg
	}
	if up {
		if reg < PWMRegMax {
			return reg + 1
		}
		return reg
	}
	if reg > 1 {
		return reg - 1
	}
	return reg
}

func (p *PWM) setFrequency() {
	p.Freq = clampU32(p.Freq, PWMFreqMin, PWMFreqMax)
	reg := clampRegister(roundDiv(p.clock*10, uint64(p.Freq)))
	// A higher frequency means a shorter period.
	reg = nudge(reg, p.prevPeriodReg, p.Freq != p.prevFreq, p.Freq < p.prevFreq)
	p.PeriodReg = reg
	p.Freq = uint32(roundDiv(p.clock*10, uint64(reg)))
}

func (p *PWM) setDuty() {
	p.Duty = clampU32(p.Duty, PWMDutyMin, PWMDutyMax)
	th := roundDiv(uint64(p.PeriodReg)*uint64(p.Duty), 1000)
	if th > uint64(p.PeriodReg) {
		th = uint64(p.PeriodReg)
	}
	p.ThReg = uint32(th)
	p.TlReg = p.PeriodReg - p.ThReg
}

func (p *PWM) nsToReg(ns uint32) uint64 {
	return uint64(ns) * p.clock / 1000000000
}

func (p *PWM) setTh() {
	p.Th = clampU32(p.Th, PWMTimeMin, PWMTimeMax)
	reg64 := p.nsToReg(p.Th)
	if reg64 > PWMRegMax {
		reg64 = PWMRegMax
	}
	reg := nudge(uint32(reg64), p.prevThReg, p.Th != p.prevTh, p.Th > p.prevTh)
	if p.Linked {
		if reg > p.PeriodReg {
			reg = p.PeriodReg
		}
		p.ThReg = reg
		p.TlReg = p.PeriodReg - reg
		return
	}
	if uint64(reg)+uint64(p.TlReg) > PWMRegMax {
		reg = PWMRegMax - p.TlReg
	}
	if reg == 0 && p.TlReg == 0 {
		reg = 1
	}
	p.ThReg = reg
	p.PeriodReg = reg + p.TlReg
}

func (p *PWM) setTl() {
	p.Tl = clampU32(p.Tl, PWMTimeMin, PWMTimeMax)
	reg64 := p.nsToReg(p.Tl)
	if reg64 > PWMRegMax {
		reg64 = PWMRegMax
	}
	reg := nudge(uint32(reg64), p.prevTlReg, p.Tl != p.prevTl, p.Tl > p.prevTl)
	if p.Linked {
		if reg > p.PeriodReg {
			reg = p.PeriodReg
		}
		p.TlReg = reg
		p.ThReg = p.PeriodReg - reg
		return
	}
	if uint64(reg)+uint64(p.ThReg) > PWMRegMax {
		reg = PWMRegMax - p.ThReg
	}
	if reg == 0 && p.ThReg == 0 {
		reg = 1
	}
	p.TlReg = reg
	p.PeriodReg = p.ThReg + reg
}

func (p *PWM) deriveFreqDuty() {
	p.Freq = uint32(roundDiv(p.clock*10, uint64(p.PeriodReg)))
	p.Duty = uint32(roundDiv(uint64(p.ThReg)*1000, uint64(p.PeriodReg)))
}

func (p *PWM) regToNs(reg uint32) uint32 {
	ns := roundDiv(uint64(reg)*1000000000, p.clock)
	if ns > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ns)
}

func (p *PWM) deriveTimes() {
	p.Th = p.regToNs(p.ThReg)
	p.Tl = p.regToNs(p.TlReg)
}

// writeRegisters pushes changed registers to a running counter
func (p *PWM) writeRegisters(force bool) {
	if p.running && p.counter != nil {
		if force || p.PeriodReg != p.prevPeriodReg {
			p.counter.SetPeriod(p.PeriodReg)
		}
		if force || p.ThReg != p.prevThReg {
			p.counter.SetHigh(p.ThReg)
		}
	}
	p.prevPeriodReg, p.prevThReg, p.prevTlReg = p.PeriodReg, p.ThReg, p.TlReg
}
