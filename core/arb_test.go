package core

import "testing"

func TestArbIncrementAndRate(t *testing.T) {
	tests := []struct {
		name     string
		freq     uint32
		wantInc  uint32
		wantRate uint32
	}{
		{"100 Hz", 1000, 1, 20100},
		{"0.1 Hz", 1, 1, 20},
		{"1 kHz", 10000, 2, 100500},
		{"2 kHz", 20000, 4, 100500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, tick := newArbRig()
			a.Frequency = tt.freq
			if !a.UpdateFrequency(false) {
				t.Fatal("First update reported no change")
			}
			if a.Increment() != tt.wantInc {
				t.Errorf("Expected increment %d, got %d", tt.wantInc, a.Increment())
			}
			if a.TickRate() != tt.wantRate {
				t.Errorf("Expected rate %d, got %d", tt.wantRate, a.TickRate())
			}
			if tick.Frequency() != tt.wantRate {
				t.Errorf("Tick programmed at %d, want %d", tick.Frequency(), tt.wantRate)
			}
			if a.UpdateFrequency(false) {
				t.Error("Unchanged frequency reprogrammed the tick")
			}
		})
	}
}

func TestArbIncrementNeverZero(t *testing.T) {
	a, _, _ := newArbRig()
	for f := uint32(0); f <= a.FreqMax(); f += 997 {
		a.Frequency = f
		a.UpdateFrequency(true)
		if a.Increment() < 1 {
			t.Fatalf("f=%d: increment %d", f, a.Increment())
		}
	}
}

func TestArbFrequencyClamped(t *testing.T) {
	a, _, _ := newArbRig()
	a.Frequency = 0
	a.UpdateFrequency(false)
	if a.Frequency != ArbFreqMin {
		t.Errorf("Expected %d, got %d", ArbFreqMin, a.Frequency)
	}
	a.Frequency = 5000000
	a.UpdateFrequency(false)
	if a.Frequency != ArbFreqMax {
		t.Errorf("Expected %d, got %d", ArbFreqMax, a.Frequency)
	}
}

func TestArbModulationSlowsTick(t *testing.T) {
	a, _, _ := newArbRig()
	a.Frequency = ArbFreqMax
	a.UpdateFrequency(false)
	free := a.Increment()
	m := DefaultModulation()
	m.Type = ModAM
	a.Configure(m)
	if !a.Modulated() {
		t.Fatal("Expected modulated engine")
	}
	if a.FreqMax() != ArbFreqMax {
		t.Errorf("Expected max %d, got %d", ArbFreqMax, a.FreqMax())
	}
	a.UpdateFrequency(true)
	if a.Increment() != 40 || a.TickRate() != 10050 {
		t.Errorf("Expected step 40 at 10050 Hz, got step %d at %d Hz", a.Increment(), a.TickRate())
	}
	if a.Increment() <= free {
		t.Errorf("Expected a larger step than %d under modulation", free)
	}
	if a.Outputs().Kind() != SinkAmplitude {
		t.Errorf("Expected amplitude sink, got %s", a.Outputs().Kind())
	}
	m.Type = ModOff
	a.Configure(m)
	a.UpdateFrequency(true)
	if a.Modulated() || a.Increment() != free {
		t.Error("Clearing modulation did not restore the rate limit")
	}
}

func TestArbStepStaysBelowHalfTable(t *testing.T) {
	for _, rate := range []uint32{MaxSampleRate, 20000, 1000} {
		a, _, tick := newArbRig()
		a.maxRate = rate
		a.SetWaveform(WaveTriangle)
		a.Frequency = a.FreqMax()
		a.Run()
		if a.Increment() >= TableLen/2 {
			t.Errorf("rate %d: step %d at %d deci-Hz", rate, a.Increment(), a.Frequency)
		}
		seen := make(map[uint32]bool)
		for i := 0; i < 50; i++ {
			runTicks(tick, 1)
			seen[a.Sample()] = true
		}
		a.Stop()
		if len(seen) < 2 {
			t.Errorf("rate %d: index stuck at %v", rate, seen)
		}
		t.Logf("rate=%d max=%d step=%d distinct=%d", rate, a.Frequency, a.Increment(), len(seen))
	}
}

func TestArbInvalidWaveform(t *testing.T) {
	a, _, _ := newArbRig()
	a.SetWaveform(WaveSine)
	a.SetWaveform(Waveform(99))
	if a.Waveform() != WaveEmpty {
		t.Errorf("Expected %s, got %s", WaveEmpty, a.Waveform())
	}
	if a.Table != Cleared() {
		t.Error("Expected a mid-scale table")
	}
}

func TestArbStreamsKeepTable(t *testing.T) {
	a, _, _ := newArbRig()
	a.SetWaveform(WaveTriangle)
	want := a.Table
	for _, w := range []Waveform{WaveNoise, WaveWav} {
		a.SetWaveform(w)
		if a.Table != want {
			t.Errorf("%s replaced the table", w)
		}
	}
	a.SetWaveform(WaveAnalogIn)
	if a.Table != Cleared() {
		t.Error("Analog input should clear the table")
	}
}

func TestArbTouchShapes(t *testing.T) {
	a, _, _ := newArbRig()
	a.SetWaveform(WaveTriangle)
	if !a.Touch(100, 0, 121) {
		t.Fatal("Moving the split point did not change the table")
	}
	if a.Shape() != 100 || a.Table != Triangle(100) {
		t.Errorf("Expected Triangle(100), shape %d", a.Shape())
	}
	if a.Touch(100, 50, 121) {
		t.Error("Same split point reported a change")
	}
	a.SetWaveform(WaveSine)
	if a.Touch(10, 10, 121) {
		t.Error("Sine is not reshaped by touch")
	}
}

func TestArbFreehandTouch(t *testing.T) {
	a, _, _ := newArbRig()
	a.SetWaveform(WaveEmpty)
	a.Touch(50, 60, 121)
	a.Release()
	if a.Table[50] != 126 {
		t.Errorf("Expected 126, got %d", a.Table[50])
	}
}

// runTicks advances the clock until the tick has fired n more times
func runTicks(tick *SoftTick, n uint32) {
	target := tick.Fired() + n
	now := GetTime()
	for tick.Fired() < target && tick.Running() {
		now++
		ProcessTimers(now)
	}
}

func TestArbTablePlayback(t *testing.T) {
	a, spi, tick := newArbRig()
	a.SetWaveform(WaveTriangle)
	a.Frequency = 1000
	a.Run()
	defer a.Stop()
	if a.State() != ArbRunning || !tick.Running() {
		t.Fatal("Engine not running")
	}
	if tick.Frequency() != 20100 {
		t.Errorf("Expected tick at 20100 Hz, got %d", tick.Frequency())
	}
	spi.reset()
	runTicks(tick, 250)
	if a.Sample() != 250%TableLen {
		t.Errorf("Expected sample %d, got %d", 250%TableLen, a.Sample())
	}
	if len(spi.words) != 2*250 {
		t.Fatalf("Expected %d bus words, got %d", 2*250, len(spi.words))
	}
	// Every tick loads the idle phase register then flips PSEL.
	last := spi.words[len(spi.words)-2]
	if last&0xC000 != 0xC000 {
		t.Errorf("Expected a PHASE write, got %#04x", last)
	}
	want := uint16(ddsPhaseBase) + uint16(a.Table[a.Sample()])<<3
	if last&0x0FFF != want {
		t.Errorf("Expected phase %d, got %d", want, last&0x0FFF)
	}
}

func TestArbPauseKeepsIndexStopRewinds(t *testing.T) {
	a, _, tick := newArbRig()
	a.SetWaveform(WaveSine)
	a.Run()
	runTicks(tick, 37)
	a.Pause()
	if a.State() != ArbPaused || tick.Running() {
		t.Fatal("Pause left the tick running")
	}
	idx := a.Sample()
	ProcessTimers(GetTime() + 100000)
	if a.Sample() != idx {
		t.Errorf("Paused index moved from %d to %d", idx, a.Sample())
	}
	a.Run()
	runTicks(tick, 1)
	if a.Sample() != (idx+1)%TableLen {
		t.Errorf("Expected resume at %d, got %d", (idx+1)%TableLen, a.Sample())
	}
	a.Stop()
	if a.State() != ArbStopped || a.Sample() != 0 || tick.Running() {
		t.Errorf("Stop left state %d, sample %d", a.State(), a.Sample())
	}
}

func TestArbFrequencyEditWhileRunning(t *testing.T) {
	a, _, tick := newArbRig()
	a.SetWaveform(WaveSine)
	a.Run()
	defer a.Stop()
	a.Frequency = 100000
	a.Process()
	if !tick.Running() {
		t.Fatal("Reprogramming the tick left it stopped")
	}
	if a.Increment() != 20 || tick.Frequency() != 100500 {
		t.Errorf("Expected inc 20 at 100500 Hz, got %d at %d", a.Increment(), tick.Frequency())
	}
}

func TestArbNoiseRunsAtRateLimit(t *testing.T) {
	a, spi, tick := newArbRig()
	a.SetWaveform(WaveNoise)
	a.Run()
	defer a.Stop()
	if tick.Frequency() != MaxSampleRate {
		t.Errorf("Expected %d, got %d", MaxSampleRate, tick.Frequency())
	}
	spi.reset()
	runTicks(tick, 20)
	seen := map[uint16]bool{}
	for i := 0; i < len(spi.words); i += 2 {
		seen[spi.words[i]&0x0FFF] = true
	}
	if len(seen) < 10 {
		t.Errorf("Noise produced only %d distinct phases", len(seen))
	}
}

func TestArbNoiseIgnoresModulationSlowdown(t *testing.T) {
	a, _, tick := newArbRig()
	m := DefaultModulation()
	m.Type = ModFM
	a.Configure(m)
	a.SetWaveform(WaveNoise)
	a.Run()
	defer a.Stop()
	if tick.Frequency() != MaxSampleRate {
		t.Errorf("Expected noise at %d under modulation, got %d", MaxSampleRate, tick.Frequency())
	}
}

func TestSinkWindows(t *testing.T) {
	a, _, _ := newArbRig()
	o := a.Outputs()
	o.VppMin, o.VppMax = 100, 500
	o.Select(SinkAmplitude)
	o.Consume(0)
	if w, _ := o.Amp.Last(); w != WordVpp(100) {
		t.Errorf("Expected %d, got %d", WordVpp(100), w)
	}
	o.Consume(0xFFFF)
	if w, _ := o.Amp.Last(); w != WordVpp(500) {
		t.Errorf("Expected %d, got %d", WordVpp(500), w)
	}
	o.VoMin, o.VoMax = -200, 200
	o.Select(SinkOffset)
	o.Consume(0xFFFF)
	if w, _ := o.Offset.Last(); w != WordVo(200) {
		t.Errorf("Expected %d, got %d", WordVo(200), w)
	}
}

func TestSinkFrequencyWindow(t *testing.T) {
	a, spi, _ := newArbRig()
	o := a.Outputs()
	o.FreqMin, o.FreqMax = 1000, 10000
	o.Select(SinkDDSFreq)
	spi.reset()
	o.Consume(0xFFFF)
	if len(spi.words) != 3 {
		t.Fatalf("Expected 3 words, got %d", len(spi.words))
	}
	word := o.DDS.FrequencyWord(10000)
	got := uint32(spi.words[0]&0x3FFF) | uint32(spi.words[1]&0x3FFF)<<14
	if got != word {
		t.Errorf("Expected tuning word %d, got %d", word, got)
	}
}

func TestSinkPrepare(t *testing.T) {
	a, _, _ := newArbRig()
	o := a.Outputs()
	o.Select(SinkDDSDAC)
	if !o.Prepare() {
		t.Fatal("Prepare failed on a free bus")
	}
	if o.DDS.Config()&AD9834_MODE == 0 {
		t.Error("DDS-DAC sink needs triangle mode")
	}
	o.Select(SinkAmplitude)
	if o.Prepared() {
		t.Error("Select should invalidate the prepared state")
	}
	a.out.DDS.dev.Lock.TryLock()
	if o.Prepare() {
		t.Error("Prepare succeeded with the bus held")
	}
	a.out.DDS.dev.Lock.Unlock()
	if !o.Prepare() || o.DDS.Config()&AD9834_MODE != 0 {
		t.Error("Amplitude sink needs the DDS in sine mode")
	}
}
