//go:build rp2040

package main

import (
	"machine"

	"fungen/core"
)

// Board wiring. The AD9834 and both AD5310s share SPI0 with their own
// chip selects; all three latch data on the falling clock edge.
const (
	spiSCK   = machine.GPIO18
	spiSDO   = machine.GPIO19
	spiSDI   = machine.GPIO16
	ddsCS    = machine.GPIO17
	ampCS    = machine.GPIO20
	offsetCS = machine.GPIO21
	pwmPin   = machine.GPIO15
	analogIn = machine.ADC0
	debugTX  = machine.GPIO0
	debugRX  = machine.GPIO1

	spiRate = 10000000
	spiMode = 2
)

// initSPI configures the shared bus and parks every chip select high
func initSPI() (*machine.SPI, error) {
	for _, cs := range []machine.Pin{ddsCS, ampCS, offsetCS} {
		cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
		cs.High()
	}
	spi := machine.SPI0
	err := spi.Configure(machine.SPIConfig{
		Frequency: spiRate,
		SCK:       spiSCK,
		SDO:       spiSDO,
		SDI:       spiSDI,
		Mode:      spiMode,
	})
	return spi, err
}

// adcInput reads the analog input channel from tick context
type adcInput struct {
	adc machine.ADC
}

func newADCInput() (*adcInput, error) {
	machine.InitADC()
	a := &adcInput{adc: machine.ADC{Pin: analogIn}}
	if err := a.adc.Configure(machine.ADCConfig{}); err != nil {
		return nil, err
	}
	return a, nil
}

// ReadU16 returns the latest conversion scaled to 16 bits
func (a *adcInput) ReadU16() uint16 {
	return a.adc.Get()
}

// newNoise seeds the sample LFSR from the ring oscillator
func newNoise() *core.LFSR {
	seed, err := machine.GetRNG()
	if err != nil {
		seed = GetHardwareTime()
	}
	return core.NewLFSR(seed)
}

var debugUART *machine.UART

// initDebugUART sends generator debug output to UART0; USB carries the panel
// link.
func initDebugUART() {
	debugUART = machine.UART0
	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       debugTX,
		RX:       debugRX,
	})
	if err != nil {
		debugUART = nil
		return
	}
	core.SetDebugWriter(func(s string) {
		debugUART.Write([]byte(s))
		debugUART.Write([]byte("\r\n"))
	})
}
