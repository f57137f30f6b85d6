package core

import "testing"

func newTestVoltage() (*VoltageControl, *BusLock) {
	bus := &BusLock{}
	spi := &mockSPI{lock: bus}
	amp := NewAD5310(NewSPIDevice(spi, &mockCS{level: true}, bus, SrcDAC))
	off := NewAD5310(NewSPIDevice(spi, &mockCS{level: true}, bus, SrcDAC))
	return NewVoltageControl(amp, off), bus
}

func TestDACWords(t *testing.T) {
	tests := []struct {
		vpp, vo   int32
		amp, offs uint16
	}{
		{0, 0, 1023, 512},
		{1000, 500, 121, 1},
		{100, -500, 933, 1023},
		{2000, 900, 121, 1},
	}
	for _, tt := range tests {
		if got := WordVpp(tt.vpp); got != tt.amp {
			t.Errorf("WordVpp(%d) = %d, want %d", tt.vpp, got, tt.amp)
		}
		if got := WordVo(tt.vo); got != tt.offs {
			t.Errorf("WordVo(%d) = %d, want %d", tt.vo, got, tt.offs)
		}
	}
}

func TestAD5310Frame(t *testing.T) {
	bus := &BusLock{}
	spi := &mockSPI{lock: bus}
	d := NewAD5310(NewSPIDevice(spi, &mockCS{level: true}, bus, SrcDAC))
	if !d.Write(0x3FF) {
		t.Fatal("Write failed on a free bus")
	}
	if spi.words[0] != 0x0FFC {
		t.Errorf("Expected frame 0x0FFC, got %#04x", spi.words[0])
	}
	if last, ok := d.Last(); !ok || last != 0x3FF {
		t.Errorf("Expected last 0x3FF, got %#x", last)
	}
}

func TestVoltageAmplitudeFirst(t *testing.T) {
	v, _ := newTestVoltage()
	v.Update(true)
	if a, _ := v.amp.Last(); a != WordVpp(100) {
		t.Errorf("Expected amplitude word %d, got %d", WordVpp(100), a)
	}
	v.Vpp = 200
	v.Vmin = -400 // loses to the amplitude edit
	v.Update(false)
	if v.Vmin != -100 || v.Vmax != 100 {
		t.Errorf("Expected -100..100, got %d..%d", v.Vmin, v.Vmax)
	}
}

func TestVoltageOffsetClamped(t *testing.T) {
	v, _ := newTestVoltage()
	v.Vpp = 400
	v.Offset = 450
	v.Update(false)
	if v.Offset != 300 || v.Vmin != 100 || v.Vmax != 500 {
		t.Errorf("Expected offset 300 (100..500), got %d (%d..%d)", v.Offset, v.Vmin, v.Vmax)
	}
}

func TestVoltageMinMaxEdits(t *testing.T) {
	v, _ := newTestVoltage()
	v.Update(true)

	v.Vmin = -300
	v.Update(false)
	if v.Vpp != 350 || v.Offset != -125 {
		t.Errorf("Expected 350 Vpp at -125, got %d at %d", v.Vpp, v.Offset)
	}

	v.Vmin = 30 // narrower than the smallest swing
	v.Update(false)
	if v.Vmax-v.Vmin != MinVpp {
		t.Errorf("Expected span %d, got %d", MinVpp, v.Vmax-v.Vmin)
	}

	v.Vmax = -200
	v.Update(false)
	if v.Vmax != -200 || v.Vmin != -260 || v.Vpp != 60 {
		t.Errorf("Expected -260..-200, got %d..%d", v.Vmin, v.Vmax)
	}
}

func TestVoltageDCLimits(t *testing.T) {
	v, _ := newTestVoltage()
	v.SetLimits(LimitsFor(DDSDC))
	v.Update(false)
	if v.Vpp != 0 {
		t.Errorf("Expected no swing on DC, got %d", v.Vpp)
	}
	v.Offset = 480
	v.Update(false)
	if v.Offset != 480 {
		t.Errorf("Expected offset 480, got %d", v.Offset)
	}
}

func TestVoltageSameLimitsKeepEdits(t *testing.T) {
	v, _ := newTestVoltage()
	v.Update(true)
	v.Vmin = -200
	v.SetLimits(v.Limits())
	v.Update(false)
	if v.Vmin != -200 {
		t.Errorf("Re-applying limits discarded the edit: Vmin %d", v.Vmin)
	}
}

func TestVoltageRetriesDroppedWrite(t *testing.T) {
	v, bus := newTestVoltage()
	v.Update(true)
	bus.TryLock()
	v.Vpp = 300
	if v.Update(false) {
		t.Error("Update reported a write with the bus held")
	}
	bus.Unlock()
	if !v.Update(false) {
		t.Fatal("Dropped write was not retried")
	}
	if a, _ := v.amp.Last(); a != WordVpp(300) {
		t.Errorf("Expected amplitude word %d, got %d", WordVpp(300), a)
	}
	if v.Update(false) {
		t.Error("Settled control kept writing")
	}
}
