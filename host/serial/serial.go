package serial

import (
	"io"
	"time"

	"fungen/config"
)

// Port is an open link to the generator. Tests use net.Pipe instead.
type Port interface {
	io.ReadWriteCloser

	// Flush drops anything still queued in the driver
	Flush() error
}

// Config holds serial port settings
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate. USB CDC ignores it.
	Baud int

	// ReadTimeout bounds a single Read. Zero blocks.
	ReadTimeout time.Duration
}

// DefaultConfig returns the settings for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// FromSettings builds a port config from the serial section of a config file
func FromSettings(s config.SerialConfig) *Config {
	c := DefaultConfig(s.Device)
	if s.Baud > 0 {
		c.Baud = s.Baud
	}
	return c
}
