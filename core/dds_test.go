package core

import "testing"

func newTestDDSHandle() (*DDSHandle, *mockSPI, *BusLock) {
	bus := &BusLock{}
	spi := &mockSPI{lock: bus}
	chip := NewAD9834(NewSPIDevice(spi, &mockCS{level: true}, bus, SrcDDS), 0)
	return NewDDSHandle(chip, 0), spi, bus
}

func TestDDSInitClearsChip(t *testing.T) {
	d, spi, _ := newTestDDSHandle()
	if !d.Init() {
		t.Fatal("Init failed on a free bus")
	}
	if len(spi.words) != 7 {
		t.Errorf("Expected 7 words, got %d", len(spi.words))
	}
	if d.chip.Config() != AD9834_B28|AD9834_RESET {
		t.Errorf("Expected reset config, got %#04x", d.chip.Config())
	}
}

func TestDDSRunPauseStop(t *testing.T) {
	d, _, _ := newTestDDSHandle()
	d.Init()
	d.Update(true)
	d.Run()
	cfg := d.chip.Config()
	if cfg&(AD9834_RESET|AD9834_SLEEP1) != 0 {
		t.Errorf("Run left reset or sleep set: %#04x", cfg)
	}
	d.Pause()
	cfg = d.chip.Config()
	if cfg&AD9834_SLEEP1 == 0 || cfg&AD9834_RESET != 0 {
		t.Errorf("Pause should sleep without reset: %#04x", cfg)
	}
	d.Stop()
	if d.chip.Config()&AD9834_RESET == 0 {
		t.Error("Stop should hold the chip in reset")
	}
	if d.Running() {
		t.Error("Stopped channel reports running")
	}
}

func TestDDSTriangleMode(t *testing.T) {
	d, _, _ := newTestDDSHandle()
	d.Init()
	d.Wave = DDSTriangle
	d.Update(false)
	if d.chip.Config()&AD9834_MODE == 0 {
		t.Error("Triangle wave needs MODE set")
	}
	d.Wave = DDSSine
	d.Update(false)
	if d.chip.Config()&AD9834_MODE != 0 {
		t.Error("Sine wave needs MODE clear")
	}
}

func TestDDSDCHoldsReset(t *testing.T) {
	d, _, _ := newTestDDSHandle()
	d.Init()
	d.Wave = DDSDC
	d.Run()
	d.Update(false)
	if d.chip.Config()&AD9834_RESET == 0 {
		t.Error("DC channel should keep the chip in reset")
	}
	if l := d.Limits(); l.VppMax != 0 {
		t.Errorf("DC allows no swing, got VppMax %d", l.VppMax)
	}
}

func TestDDSFrequencyClamp(t *testing.T) {
	d, _, _ := newTestDDSHandle()
	d.Init()
	d.Frequency = 1
	d.Update(false)
	if d.Frequency != DDSFreqMin {
		t.Errorf("Expected %d, got %d", DDSFreqMin, d.Frequency)
	}
	d.Frequency = 500000000
	d.Update(false)
	if d.Frequency != DDSSineMax {
		t.Errorf("Expected %d, got %d", DDSSineMax, d.Frequency)
	}
}

func TestDDSIdleUpdateIsQuiet(t *testing.T) {
	d, spi, _ := newTestDDSHandle()
	d.Init()
	d.Run()
	d.Update(false)
	spi.reset()
	if d.Update(false) {
		t.Error("Unchanged channel reported a write")
	}
	if len(spi.words) != 0 {
		t.Errorf("Unchanged channel sent %d words", len(spi.words))
	}
	d.Phase = 0x1234
	d.Update(false)
	if d.Phase != 0x234 {
		t.Errorf("Expected phase masked to 12 bits, got %#x", d.Phase)
	}
	if len(spi.words) != 2 {
		t.Errorf("Phase edit: expected 2 words, got %d", len(spi.words))
	}
}

func TestDDSRetriesDroppedFrequency(t *testing.T) {
	d, spi, bus := newTestDDSHandle()
	d.Init()
	d.Update(true)
	bus.TryLock()
	d.Frequency = 20000
	if d.Update(false) {
		t.Error("Update wrote with the bus held")
	}
	bus.Unlock()
	spi.reset()
	if !d.Update(false) {
		t.Fatal("Dropped frequency was not retried")
	}
	if len(spi.words) != 3 {
		t.Fatalf("Expected only the frequency words on retry, got %d: %04X", len(spi.words), spi.words)
	}
	word := d.chip.FrequencyWord(20000)
	got := uint32(spi.words[0]&0x3FFF) | uint32(spi.words[1]&0x3FFF)<<14
	if got != word {
		t.Errorf("Expected tuning word %d, got %d", word, got)
	}
}

func TestDDSRetriesOnlyDroppedPhase(t *testing.T) {
	d, spi, bus := newTestDDSHandle()
	d.Init()
	d.Run()
	d.Update(true)
	bus.TryLock()
	d.Phase = 0x200
	d.Update(false)
	bus.Unlock()
	spi.reset()
	d.Update(false)
	if len(spi.words) != 2 {
		t.Errorf("Expected 2 phase words on retry, got %d: %04X", len(spi.words), spi.words)
	}
	spi.reset()
	if d.Update(false) || len(spi.words) != 0 {
		t.Errorf("Expected a quiet pass after the retry, got %d words", len(spi.words))
	}
}
