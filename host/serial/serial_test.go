package serial

import (
	"testing"
	"time"

	"fungen/config"
)

func TestFromSettings(t *testing.T) {
	c := FromSettings(config.SerialConfig{Device: "/dev/ttyUSB1", Baud: 115200})
	if c.Device != "/dev/ttyUSB1" || c.Baud != 115200 {
		t.Errorf("Expected /dev/ttyUSB1 at 115200, got %s at %d", c.Device, c.Baud)
	}
	if c.ReadTimeout != 100*time.Millisecond {
		t.Errorf("Expected 100ms read timeout, got %v", c.ReadTimeout)
	}

	c = FromSettings(config.SerialConfig{Device: "COM3"})
	if c.Baud != 250000 {
		t.Errorf("Expected default baud 250000, got %d", c.Baud)
	}
}

func TestOpenRejectsEmptyConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Expected error for nil config")
	}
	if _, err := Open(&Config{}); err == nil {
		t.Error("Expected error for missing device")
	}
}
