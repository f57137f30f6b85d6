package core

import "tinygo.org/x/drivers"

// ChipSelect drives one device's chip-select line. machine.Pin satisfies it.
type ChipSelect interface {
	Set(high bool)
}

// SPIDevice is one chip on the shared bus: a bus handle, an active-low
// chip select and the lock every device on that bus shares.
type SPIDevice struct {
	Bus    drivers.SPI
	CS     ChipSelect
	Lock   *BusLock
	Source uint8 // reported with bus-drop events

	tx [2]byte
}

// NewSPIDevice creates a device and parks its chip select high
func NewSPIDevice(bus drivers.SPI, cs ChipSelect, lock *BusLock, source uint8) *SPIDevice {
	d := &SPIDevice{Bus: bus, CS: cs, Lock: lock, Source: source}
	if cs != nil {
		cs.Set(true)
	}
	return d
}

// begin tries to take the bus. On success the chip select is asserted and
// the caller must finish with end.
func (d *SPIDevice) begin() bool {
	if !d.Lock.TryLock() {
		d.Lock.noteDrop(d.Source)
		return false
	}
	return true
}

func (d *SPIDevice) end() {
	d.Lock.Unlock()
}

// putU16 sends one 16-bit word MSB first inside its own chip-select frame
func (d *SPIDevice) putU16(w uint16) {
	d.tx[0] = byte(w >> 8)
	d.tx[1] = byte(w)
	if d.CS != nil {
		d.CS.Set(false)
	}
	d.Bus.Tx(d.tx[:], nil)
	if d.CS != nil {
		d.CS.Set(true)
	}
}

// WriteU16 sends a single word if the bus is free and reports whether it was sent
func (d *SPIDevice) WriteU16(w uint16) bool {
	if d == nil || !d.begin() {
		return false
	}
	d.putU16(w)
	d.end()
	return true
}
