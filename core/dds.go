package core

// DDSWave selects what the DDS channel outputs
type DDSWave uint8

const (
	DDSDC DDSWave = iota
	DDSTriangle
	DDSSine
)

// DDSLimits bounds the values the UI may enter for the current wave kind
type DDSLimits struct {
	OffsetMin, OffsetMax int32
	VppMin, VppMax       int32
	FreqMin, FreqMax     uint32
}

// LimitsFor returns the editing limits for a wave kind
func LimitsFor(w DDSWave) DDSLimits {
	switch w {
	case DDSTriangle:
		return DDSLimits{
			OffsetMin: -(OutputMax - MinVpp/2), OffsetMax: OutputMax - MinVpp/2,
			VppMin: MinVpp, VppMax: MaxVpp,
			FreqMin: DDSFreqMin, FreqMax: DDSTriangleMax,
		}
	case DDSSine:
		return DDSLimits{
			OffsetMin: -(OutputMax - MinVpp/2), OffsetMax: OutputMax - MinVpp/2,
			VppMin: MinVpp, VppMax: MaxVpp,
			FreqMin: DDSFreqMin, FreqMax: DDSSineMax,
		}
	}
	return DDSLimits{
		OffsetMin: -OutputMax, OffsetMax: OutputMax,
		FreqMin: DDSFreqMin, FreqMax: DDSSineMax,
	}
}

// DDSHandle is the DDS channel as the UI edits it. Frequency, Phase and Wave
// are written by the UI; Update pushes whatever changed to the chip from the
// main loop. A write lost to bus contention leaves the previous value
// untouched so the next Update retries it.
type DDSHandle struct {
	Channel   uint8
	Frequency uint32 // deci-Hz
	Phase     uint16 // 12-bit
	Wave      DDSWave

	chip      *AD9834
	prevFreq  uint32
	prevPhase uint16
	prevWave  DDSWave
	running   bool
	paused    bool
	applied   bool // chip run state matches running

	// set once the matching prev value has reached the chip
	waveOK, freqOK, phaseOK bool
}

// NewDDSHandle creates a channel at 1 kHz sine, stopped
func NewDDSHandle(chip *AD9834, channel uint8) *DDSHandle {
	return &DDSHandle{
		Channel:   channel,
		Frequency: 10000,
		Wave:      DDSSine,
		chip:      chip,
	}
}

// Limits returns the editing limits for the current wave kind
func (d *DDSHandle) Limits() DDSLimits {
	if d == nil {
		return LimitsFor(DDSDC)
	}
	return LimitsFor(d.Wave)
}

// Running reports the requested run state
func (d *DDSHandle) Running() bool {
	return d != nil && d.running
}

// Init clears the chip and forces the next Update to rewrite everything
func (d *DDSHandle) Init() bool {
	if d == nil {
		return false
	}
	d.waveOK, d.freqOK, d.phaseOK = false, false, false
	d.running = false
	d.paused = false
	d.applied = d.chip.Clear()
	return d.applied
}

// Run starts output. A DC channel keeps the chip in reset; the level comes
// from the offset DAC alone.
func (d *DDSHandle) Run() {
	if d == nil {
		return
	}
	d.running = true
	d.paused = false
	d.applied = d.applyRun()
}

// Pause freezes the output at its current level
func (d *DDSHandle) Pause() {
	if d == nil {
		return
	}
	d.running = false
	d.paused = true
	d.applied = d.chip.Suspend()
}

// Stop resets the chip to its idle output
func (d *DDSHandle) Stop() {
	if d == nil {
		return
	}
	d.running = false
	d.paused = false
	d.applied = d.chip.Stop()
}

func (d *DDSHandle) applyRun() bool {
	if d.paused {
		return d.chip.Suspend()
	}
	if !d.running {
		return d.chip.Stop()
	}
	if d.Wave == DDSDC {
		return d.chip.Stop()
	}
	return d.chip.Resume()
}

// UpdateFrequency clamps the requested frequency and writes it if it changed
func (d *DDSHandle) UpdateFrequency(force bool) bool {
	if d == nil {
		return false
	}
	lim := d.Limits()
	if d.Frequency < lim.FreqMin {
		d.Frequency = lim.FreqMin
	}
	if d.Frequency > lim.FreqMax {
		d.Frequency = lim.FreqMax
	}
	if !force && d.freqOK && d.Frequency == d.prevFreq {
		return false
	}
	if !d.chip.SetFrequency(d.Frequency) {
		return false
	}
	d.prevFreq = d.Frequency
	d.freqOK = true
	return true
}

// Update pushes every changed field to the chip. It returns true when the
// chip was written. Only fields whose last write was lost or whose value
// changed go out again.
func (d *DDSHandle) Update(force bool) bool {
	if d == nil {
		return false
	}
	wrote := false
	if force || !d.waveOK || d.Wave != d.prevWave {
		if d.Wave > DDSSine {
			d.Wave = DDSSine
		}
		if d.Wave == DDSDC || d.chip.SetTriangle(d.Wave == DDSTriangle) {
			d.prevWave = d.Wave
			d.waveOK = true
			d.applied = false
			wrote = true
		} else {
			return false
		}
	}
	if d.UpdateFrequency(force) {
		wrote = true
	}
	d.Phase &= ad9834Phase
	if force || !d.phaseOK || d.Phase != d.prevPhase {
		if d.chip.SetPhase(d.Phase) {
			d.prevPhase = d.Phase
			d.phaseOK = true
			wrote = true
		}
	}
	if !d.applied {
		d.applied = d.applyRun()
		wrote = wrote || d.applied
	}
	return wrote
}
