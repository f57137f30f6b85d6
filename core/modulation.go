package core

// ModType selects how the ARB output is used
type ModType uint8

const (
	ModOff ModType = iota // ARB is the signal
	ModAM                 // ARB sweeps amplitude of a DDS sine
	ModFM                 // ARB sweeps frequency of a DDS sine
)

func (m ModType) String() string {
	switch m {
	case ModOff:
		return "off"
	case ModAM:
		return "am"
	case ModFM:
		return "fm"
	}
	return "invalid"
}

// AMSettings is the carrier and amplitude window for AM
type AMSettings struct {
	Frequency      uint32 // deci-Hz
	VppMin, VppMax int32
}

// FMSettings is the frequency window for FM
type FMSettings struct {
	FreqMin, FreqMax uint32 // deci-Hz
}

// Modulation is the system-wide modulation setup
type Modulation struct {
	Type ModType
	AM   AMSettings
	FM   FMSettings
}

// DefaultModulation is a 1 kHz carrier, full amplitude window and a
// 100 Hz to 1 kHz FM sweep
func DefaultModulation() Modulation {
	return Modulation{
		AM: AMSettings{Frequency: 10000, VppMin: MinVpp, VppMax: MaxVpp},
		FM: FMSettings{FreqMin: 1000, FreqMax: 10000},
	}
}

// Normalize clamps every window into the hardware range and orders its ends
func (m *Modulation) Normalize() {
	if m.Type > ModFM {
		m.Type = ModOff
	}
	m.AM.Frequency = clampU32(m.AM.Frequency, DDSFreqMin, DDSSineMax)
	m.AM.VppMin = clamp32(m.AM.VppMin, MinVpp, MaxVpp)
	m.AM.VppMax = clamp32(m.AM.VppMax, MinVpp, MaxVpp)
	if m.AM.VppMin > m.AM.VppMax {
		m.AM.VppMin, m.AM.VppMax = m.AM.VppMax, m.AM.VppMin
	}
	m.FM.FreqMin = clampU32(m.FM.FreqMin, DDSFreqMin, DDSSineMax)
	m.FM.FreqMax = clampU32(m.FM.FreqMax, DDSFreqMin, DDSSineMax)
	if m.FM.FreqMin > m.FM.FreqMax {
		m.FM.FreqMin, m.FM.FreqMax = m.FM.FreqMax, m.FM.FreqMin
	}
}

func clampU32(x, lo, hi uint32) uint32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Configure stops the engine and routes its output for the modulation type.
// The tick rate limit drops while modulating.
func (a *Arb) Configure(m Modulation) {
	if a == nil {
		return
	}
	m.Normalize()
	a.Stop()
	a.modulated = m.Type != ModOff
	switch m.Type {
	case ModAM:
		a.out.VppMin, a.out.VppMax = m.AM.VppMin, m.AM.VppMax
		a.out.Carrier = m.AM.Frequency
		a.out.Select(SinkAmplitude)
	case ModFM:
		a.out.FreqMin, a.out.FreqMax = m.FM.FreqMin, m.FM.FreqMax
		a.out.Select(SinkDDSFreq)
	default:
		a.out.Select(SinkDDSDAC)
	}
	a.out.Prepare()
	a.freqValid = false
}
