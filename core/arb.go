package core

import "sync/atomic"

// Waveform identifies what the ARB engine plays
type Waveform uint8

const (
	WaveEmpty Waveform = iota // freehand drawing
	WaveTriangle
	WavePulse
	WaveRC
	WavePosDoubleSine
	WavePosHalfSine
	WaveNegHalfSine
	WaveNegDoubleSine
	WaveSine
	WaveSinc
	WaveNoise
	WaveWav
	WaveAnalogIn
	waveCount
)

var waveNames = [waveCount]string{
	"empty", "triangle", "pulse", "rc", "pos_dsine", "pos_hsine",
	"neg_hsine", "neg_dsine", "sine", "sinc", "noise", "wav", "analog_in",
}

func (w Waveform) String() string {
	if w < waveCount {
		return waveNames[w]
	}
	return "invalid"
}

// shaped reports whether touch X reshapes the table
func (w Waveform) shaped() bool {
	switch w {
	case WaveTriangle, WavePulse, WaveRC, WaveSinc:
		return true
	}
	return false
}

// ArbState is the ARB run state
type ArbState uint8

const (
	ArbStopped ArbState = iota
	ArbRunning
	ArbPaused
)

// tick handler strategies
const (
	isrTable = iota
	isrNoise
	isrAnalog
)

const (
	ArbFreqMin = 1     // 0.1 Hz
	ArbFreqMax = 20000 // 2 kHz
	// Modulation runs the sample path this many times slower
	ModulationSlowdown = 10
)

// DefaultWavPath is the file streamed by the WAV waveform
const DefaultWavPath = "waveform.wav"

// Arb is the arbitrary-waveform engine: one table, one tick, one sink.
// Frequency is edited by the UI and applied by Process. The sample index
// is written by the tick and read by the main loop.
type Arb struct {
	Frequency uint32 // deci-Hz
	Table     Table
	WavPath   string

	tick    TickTimer
	out     *Outputs
	wav     *WavPlayer
	noise   NoiseSource
	analog  AnalogInput
	maxRate uint32

	wave      Waveform
	shape     int
	draw      Freehand
	state     ArbState
	modulated bool
	isr       uint8
	prevFreq  uint32
	freqValid bool
	tickRate  uint32

	sample uint32 // atomic
	inc    uint32 // atomic
	tickFn func()
}

// ArbDeps are the collaborators an Arb drives
type ArbDeps struct {
	Tick    TickTimer
	Out     *Outputs
	Wav     *WavPlayer
	Noise   NoiseSource
	Analog  AnalogInput
	MaxRate uint32
}

// NewArb creates a stopped engine with an empty table at 100 Hz
func NewArb(d ArbDeps) *Arb {
	a := &Arb{
		Frequency: 1000,
		Table:     Cleared(),
		WavPath:   DefaultWavPath,
		tick:      d.Tick,
		out:       d.Out,
		wav:       d.Wav,
		noise:     d.Noise,
		analog:    d.Analog,
		maxRate:   d.MaxRate,
		shape:     DefaultShapeParam,
		inc:       1,
	}
	if a.maxRate == 0 {
		a.maxRate = MaxSampleRate
	}
	if a.noise == nil {
		a.noise = NewLFSR(0)
	}
	if a.tick == nil {
		a.tick = NewSoftTick()
	}
	if a.out == nil {
		a.out = NewOutputs(nil, nil, nil)
	}
	a.tickFn = a.onTick
	return a
}

// Waveform returns the selected waveform
func (a *Arb) Waveform() Waveform {
	return a.wave
}

// State returns the run state
func (a *Arb) State() ArbState {
	return a.state
}

// Sample returns the table index last emitted by the tick
func (a *Arb) Sample() uint32 {
	return atomic.LoadUint32(&a.sample)
}

// Increment returns the table step per tick
func (a *Arb) Increment() uint32 {
	return atomic.LoadUint32(&a.inc)
}

// TickRate returns the programmed tick rate in Hz
func (a *Arb) TickRate() uint32 {
	return a.tickRate
}

// Shape returns the touch split point used by shaped waveforms
func (a *Arb) Shape() int {
	return a.shape
}

// Modulated reports whether the engine is running as a modulator
func (a *Arb) Modulated() bool {
	return a.modulated
}

// Outputs returns the sink set
func (a *Arb) Outputs() *Outputs {
	return a.out
}

// FreqMax is the highest frequency the table path plays: ArbFreqMax, or
// lower when the tick is too slow to keep the step under half the table.
func (a *Arb) FreqMax() uint32 {
	if a == nil {
		return 0
	}
	max := uint32(uint64(a.rateLimit()) * 10 * (TableLen / 2) / TableLen)
	if max > ArbFreqMax {
		max = ArbFreqMax
	}
	return max
}

func (a *Arb) rateLimit() uint32 {
	if a.modulated {
		return a.maxRate / ModulationSlowdown
	}
	return a.maxRate
}

// SetWaveform stops playback and rebuilds the table for w. Noise and WAV keep
// the current table; unknown kinds fall back to an empty mid-scale table.
func (a *Arb) SetWaveform(w Waveform) {
	if a == nil {
		return
	}
	a.Stop()
	switch {
	case w >= waveCount:
		w = WaveEmpty
		a.Table = Cleared()
	case w == WaveNoise || w == WaveWav:
	case w == WaveAnalogIn:
		a.Table = Cleared()
	default:
		a.Table = Generate(w, a.shape)
	}
	a.wave = w
	a.draw.Release()
	switch w {
	case WaveNoise:
		a.isr = isrNoise
	case WaveAnalogIn:
		a.isr = isrAnalog
	default:
		a.isr = isrTable
	}
	a.freqValid = false
}

// SetOutput binds a sink. Playback stops; the DDS is reconfigured on the next
// Process pass.
func (a *Arb) SetOutput(kind SinkKind) {
	if a == nil {
		return
	}
	a.Stop()
	a.out.Select(kind)
	a.out.Prepare()
}

// Run starts or resumes playback
func (a *Arb) Run() {
	if a == nil || a.state == ArbRunning {
		return
	}
	if !a.out.Prepare() {
		DebugPrintln("[ARB] sink not ready, run deferred")
	}
	a.out.DDS.Resume()
	switch a.wave {
	case WaveWav:
		if a.wav.State() == WavStopped {
			if err := a.wav.Open(a.WavPath); err != nil {
				DebugPrintln("[ARB] wav open failed: " + err.Error())
				return
			}
		}
		if err := a.wav.Play(); err != nil {
			DebugPrintln("[ARB] wav play failed: " + err.Error())
			a.Stop()
			return
		}
	case WaveNoise:
		a.tick.Stop()
		a.tick.SetFrequency(a.maxRate)
		a.tick.SetCallback(a.tickFn)
		a.tick.Launch()
	default:
		a.UpdateFrequency(true)
		a.tick.SetCallback(a.tickFn)
		a.tick.Launch()
	}
	a.state = ArbRunning
	RecordTiming(EvtArbState, SrcArb, uint32(ArbRunning), uint32(a.wave))
}

// Pause stops the tick and keeps the sample position
func (a *Arb) Pause() {
	if a == nil || a.state != ArbRunning {
		return
	}
	if a.wave == WaveWav {
		a.wav.Pause()
	}
	a.tick.Stop()
	a.state = ArbPaused
	RecordTiming(EvtArbState, SrcArb, uint32(ArbPaused), uint32(a.wave))
}

// Stop halts the tick, rewinds, resets the DDS and closes any WAV stream.
// The tick is stopped before Stop returns.
func (a *Arb) Stop() {
	if a == nil {
		return
	}
	a.tick.Stop()
	atomic.StoreUint32(&a.sample, 0)
	a.out.DDS.Stop()
	if a.wave == WaveWav {
		a.wav.Stop()
	}
	if a.state != ArbStopped {
		RecordTiming(EvtArbState, SrcArb, uint32(ArbStopped), uint32(a.wave))
	}
	a.state = ArbStopped
}

// UpdateFrequency recomputes the table step and tick rate when Frequency
// changed. The step is floor(f * TableLen / maxRate), at least 1; the tick
// then runs at f * TableLen / step. Reprogramming the tick stops it, so a
// running engine is relaunched here.
func (a *Arb) UpdateFrequency(force bool) bool {
	if a == nil {
		return false
	}
	if a.Frequency < ArbFreqMin {
		a.Frequency = ArbFreqMin
	}
	if max := a.FreqMax(); a.Frequency > max {
		a.Frequency = max
	}
	if !force && a.freqValid && a.Frequency == a.prevFreq {
		return false
	}
	f := uint64(a.Frequency)
	inc := f * TableLen / 10 / uint64(a.rateLimit())
	if inc < 1 {
		inc = 1
	}
	rate := uint32(f * TableLen / (10 * inc))
	if rate == 0 {
		rate = 1
	}
	atomic.StoreUint32(&a.inc, uint32(inc))
	a.tickRate = rate
	a.prevFreq = a.Frequency
	a.freqValid = true

	// WAV and noise own their own tick rate.
	if a.wave == WaveWav || a.wave == WaveNoise {
		return true
	}
	a.tick.Stop()
	if err := a.tick.SetFrequency(rate); err != nil {
		DebugPrintln("[ARB] tick rate rejected: " + err.Error())
	}
	RecordTiming(EvtTickRate, SrcArb, rate, uint32(inc))
	if a.state == ArbRunning {
		a.tick.SetCallback(a.tickFn)
		a.tick.Launch()
	}
	return true
}

// Touch applies a touch at (x, y) on a graph of the given height. Shaped
// waveforms take x as their split point; the empty waveform draws freehand.
// It reports whether the table changed.
func (a *Arb) Touch(x, y, height int) bool {
	if a == nil {
		return false
	}
	switch {
	case a.wave == WaveEmpty:
		return a.draw.Draw(&a.Table, x, y, height)
	case a.wave.shaped():
		x = clampParam(x)
		if x == a.shape {
			return false
		}
		a.shape = x
		t := Generate(a.wave, x)
		if t == a.Table {
			return false
		}
		a.Table = t
		return true
	}
	return false
}

// Release ends a touch stroke
func (a *Arb) Release() {
	if a == nil {
		return
	}
	a.draw.Release()
}

// Process is the ARB's share of the main loop: refill WAV buffers, finish
// sink setup and apply frequency edits.
func (a *Arb) Process() {
	if a == nil {
		return
	}
	if a.wave == WaveWav && a.state != ArbStopped {
		if err := a.wav.Process(); err != nil {
			DebugPrintln("[ARB] wav stream ended: " + err.Error())
			a.Stop()
		}
	}
	if !a.out.Prepared() && a.state == ArbStopped {
		a.out.Prepare()
	}
	a.UpdateFrequency(false)
}

func (a *Arb) onTick() {
	switch a.isr {
	case isrNoise:
		a.out.Consume(a.noise.Uint16())
	case isrAnalog:
		if a.analog != nil {
			a.out.Consume(a.analog.ReadU16())
		}
	default:
		i := atomic.LoadUint32(&a.sample) + atomic.LoadUint32(&a.inc)
		if i >= TableLen {
			i %= TableLen
		}
		atomic.StoreUint32(&a.sample, i)
		a.out.Consume(uint16(a.Table[i]) << 8)
	}
}
