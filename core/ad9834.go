package core

// AD9834 control word bits
const (
	AD9834_B28      = 0x2000
	AD9834_HLB      = 0x1000
	AD9834_FSEL     = 0x0800
	AD9834_PSEL     = 0x0400
	AD9834_PIN_SW   = 0x0200
	AD9834_RESET    = 0x0100
	AD9834_SLEEP1   = 0x0080
	AD9834_SLEEP12  = 0x0040
	AD9834_OPBITEN  = 0x0020
	AD9834_SIGN_PIB = 0x0010
	AD9834_DIV2     = 0x0008
	AD9834_MODE     = 0x0002
)

// AD9834 register address prefixes
const (
	AD9834_FREQ0  = 0x4000
	AD9834_FREQ1  = 0x8000
	AD9834_PHASE0 = 0xC000
	AD9834_PHASE1 = 0xE000
)

const (
	ad9834Word14 = 0x3FFF
	ad9834Phase  = 0x0FFF

	// DefaultDDSClock is the MCLK fitted on the board
	DefaultDDSClock = 75000000
)

// AD9834 drives the DDS chip. Frequency and phase are double-buffered on the
// chip: every update loads the idle register and then flips the select bit
// in the same bus transaction, so the output never sees a half-written word.
//
// Every method reports whether the write reached the chip. On false nothing
// changed, on the chip or in the tracked control word.
type AD9834 struct {
	dev    *SPIDevice
	mclk   uint32
	config uint16
}

// NewAD9834 creates a driver for a chip clocked at mclk Hz
func NewAD9834(dev *SPIDevice, mclk uint32) *AD9834 {
	if mclk == 0 {
		mclk = DefaultDDSClock
	}
	return &AD9834{dev: dev, mclk: mclk, config: AD9834_B28 | AD9834_RESET}
}

// Config returns the last control word written to the chip
func (c *AD9834) Config() uint16 {
	return c.config
}

// FrequencyWord converts deci-Hz into the 28-bit tuning word
func (c *AD9834) FrequencyWord(deciHz uint32) uint32 {
	return uint32((uint64(deciHz) << 28) / (uint64(c.mclk) * 10))
}

// Clear resets the chip and zeroes all four frequency/phase registers
func (c *AD9834) Clear() bool {
	if c == nil || !c.dev.begin() {
		return false
	}
	cfg := uint16(AD9834_B28 | AD9834_RESET)
	c.dev.putU16(cfg)
	c.dev.putU16(AD9834_FREQ0)
	c.dev.putU16(AD9834_FREQ0)
	c.dev.putU16(AD9834_FREQ1)
	c.dev.putU16(AD9834_FREQ1)
	c.dev.putU16(AD9834_PHASE0)
	c.dev.putU16(AD9834_PHASE1)
	c.dev.end()
	c.config = cfg
	return true
}

// SetFrequency loads the idle frequency register and selects it
func (c *AD9834) SetFrequency(deciHz uint32) bool {
	if c == nil || !c.dev.begin() {
		return false
	}
	word := c.FrequencyWord(deciHz)
	addr := uint16(AD9834_FREQ1)
	if c.config&AD9834_FSEL != 0 {
		addr = AD9834_FREQ0
	}
	cfg := (c.config | AD9834_B28) ^ AD9834_FSEL
	c.dev.putU16(addr | uint16(word&ad9834Word14))
	c.dev.putU16(addr | uint16((word>>14)&ad9834Word14))
	c.dev.putU16(cfg)
	c.dev.end()
	c.config = cfg
	return true
}

// SetPhase loads the idle phase register with a 12-bit phase and selects it
func (c *AD9834) SetPhase(phase uint16) bool {
	if c == nil || !c.dev.begin() {
		return false
	}
	addr := uint16(AD9834_PHASE1)
	if c.config&AD9834_PSEL != 0 {
		addr = AD9834_PHASE0
	}
	cfg := c.config ^ AD9834_PSEL
	c.dev.putU16(addr | (phase & ad9834Phase))
	c.dev.putU16(cfg)
	c.dev.end()
	c.config = cfg
	return true
}

// SetTriangle switches the DAC output between triangle and sine
func (c *AD9834) SetTriangle(triangle bool) bool {
	if c == nil {
		return false
	}
	cfg := c.config &^ (AD9834_MODE | AD9834_OPBITEN)
	if triangle {
		cfg |= AD9834_MODE
	}
	return c.writeConfig(cfg)
}

// Stop holds the phase accumulators in reset; the output sits at mid-scale
func (c *AD9834) Stop() bool {
	if c == nil {
		return false
	}
	return c.writeConfig(c.config | AD9834_RESET)
}

// Suspend gates MCLK so the output freezes at its last level
func (c *AD9834) Suspend() bool {
	if c == nil {
		return false
	}
	return c.writeConfig((c.config | AD9834_SLEEP1) &^ AD9834_RESET)
}

// Resume releases reset and sleep
func (c *AD9834) Resume() bool {
	if c == nil {
		return false
	}
	return c.writeConfig(c.config &^ (AD9834_RESET | AD9834_SLEEP1))
}

func (c *AD9834) writeConfig(cfg uint16) bool {
	if !c.dev.begin() {
		return false
	}
	c.dev.putU16(cfg)
	c.dev.end()
	c.config = cfg
	return true
}
