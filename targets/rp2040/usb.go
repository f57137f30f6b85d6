//go:build rp2040

package main

import "machine"

// InitUSB configures USB CDC, which TinyGo exposes as machine.Serial
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// USBAvailable returns the number of bytes waiting to be read
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads one byte
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes data, returning how much went out
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
