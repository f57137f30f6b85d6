package core

const (
	AD5310_MAX = 1023
	AD5310_MID = 512
)

// AD5310 is a 10-bit single-channel DAC. The data bits sit in D11..D2 of the
// 16-bit frame; D13..D12 select normal operation when zero.
type AD5310 struct {
	dev  *SPIDevice
	last uint16
	set  bool
}

// NewAD5310 creates a DAC driver
func NewAD5310(dev *SPIDevice) *AD5310 {
	return &AD5310{dev: dev}
}

// Write sends a 10-bit code and reports whether the bus was free
func (d *AD5310) Write(code uint16) bool {
	if d == nil {
		return false
	}
	code &= AD5310_MAX
	if !d.dev.WriteU16(code << 2) {
		return false
	}
	d.last = code
	d.set = true
	return true
}

// Last returns the most recent code that reached the DAC
func (d *AD5310) Last() (uint16, bool) {
	return d.last, d.set
}
