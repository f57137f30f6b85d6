//go:build rp2040

package main

import (
	"machine"
	"time"

	"fungen/core"
)

var (
	link *core.Link
	gen  *core.Generator

	// Debug counters
	msgerrors                uint32
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	// Clear any watchdog left running across a reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitUSB()
	initDebugUART()

	spi, err := initSPI()
	if err != nil {
		core.DebugPrintln("[BOOT] spi: " + err.Error())
	}

	hw := core.Hardware{
		SPI:      spi,
		DDSCS:    ddsCS,
		AmpCS:    ampCS,
		OffsetCS: offsetCS,
		Tick:     initTick(),
		Noise:    newNoise(),
		Files:    openFlashFile,
	}
	if adc, err := newADCInput(); err == nil {
		hw.Analog = adc
	} else {
		core.DebugPrintln("[BOOT] adc: " + err.Error())
	}
	if pwm, err := NewPIOCounter(0, 0, pwmPin); err == nil {
		hw.PWM = pwm
	} else {
		core.DebugPrintln("[BOOT] pio pwm: " + err.Error())
	}

	s := core.DefaultSettings()
	s.WavOffset = wavHeaderSize
	gen = core.NewGenerator(hw, s)
	gen.Init()

	link = core.NewLink(gen)

	for {
		// A panic in one pass drops the link state and keeps the outputs
		// running.
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					link.Reset()
				}
			}()

			UpdateSystemTime()
			readUSB()
			if out := link.Poll(); len(out) > 0 {
				writeUSB(out)
			}
			gen.Idle()
		}()

		// Yield to other goroutines
		time.Sleep(10 * time.Microsecond)
	}
}

var rxBuf [64]byte

// readUSB moves everything USB has received into the link
func readUSB() {
	n := 0
	for n < len(rxBuf) && USBAvailable() > 0 {
		b, err := USBRead()
		if err != nil {
			msgerrors++
			break
		}
		rxBuf[n] = b
		n++
	}
	if n == 0 {
		return
	}
	if usbWasDisconnected {
		usbWasDisconnected = false
		consecutiveWriteFailures = 0
		link.Reset()
	}
	if link.Feed(rxBuf[:n]) < n {
		// Input full; the host resends what was lost
		msgerrors++
	}
}

// writeUSB sends pending output. After repeated failures the host is
// treated as gone and stale output is dropped.
func writeUSB(out []byte) {
	written := 0
	for written < len(out) {
		n, err := USBWriteBytes(out[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				link.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	link.Flushed()
}
