package core

// SinkKind selects where ARB samples go
type SinkKind uint8

const (
	// SinkDDSDAC steers the DDS phase register. With the chip in triangle
	// mode at 0 Hz the phase maps linearly onto the output voltage, so the
	// chip behaves as a plain DAC.
	SinkDDSDAC SinkKind = iota
	// SinkDDSFreq sweeps the DDS frequency (FM)
	SinkDDSFreq
	// SinkAmplitude drives the amplitude DAC (AM)
	SinkAmplitude
	// SinkOffset drives the offset DAC
	SinkOffset
)

func (k SinkKind) String() string {
	switch k {
	case SinkDDSDAC:
		return "dds_dac"
	case SinkDDSFreq:
		return "dds_freq"
	case SinkAmplitude:
		return "amplitude"
	case SinkOffset:
		return "offset"
	}
	return "unknown"
}

// ddsPhaseBase centres the phase excursion on the rising half of the triangle
const ddsPhaseBase = 1024

// Outputs holds the physical destinations of the sample path and the window
// each maps samples onto. Windows and kind change only while the tick is
// stopped.
type Outputs struct {
	DDS    *AD9834
	Amp    *AD5310
	Offset *AD5310

	FreqMin, FreqMax uint32 // deci-Hz, SinkDDSFreq
	VppMin, VppMax   int32  // SinkAmplitude
	VoMin, VoMax     int32  // SinkOffset
	Carrier          uint32 // deci-Hz, DDS sine under AM/offset modulation

	kind     SinkKind
	prepared bool
}

// NewOutputs creates the sink set, bound to the DDS phase sink
func NewOutputs(dds *AD9834, amp, offset *AD5310) *Outputs {
	return &Outputs{
		DDS:     dds,
		Amp:     amp,
		Offset:  offset,
		FreqMin: DDSFreqMin,
		FreqMax: 10000,
		VppMin:  MinVpp,
		VppMax:  MaxVpp,
		VoMin:   -OutputMax,
		VoMax:   OutputMax,
		Carrier: 10000,
	}
}

// Kind returns the bound sink
func (o *Outputs) Kind() SinkKind {
	return o.kind
}

// Select binds a sink. The DDS is reconfigured for it on the next Prepare.
func (o *Outputs) Select(kind SinkKind) {
	if o == nil {
		return
	}
	if kind > SinkOffset {
		kind = SinkDDSDAC
	}
	o.kind = kind
	o.prepared = false
}

// Prepared reports whether the DDS already matches the bound sink
func (o *Outputs) Prepared() bool {
	return o != nil && o.prepared
}

// Prepare puts the DDS in the state the bound sink needs. Call it from the
// main loop until it returns true.
func (o *Outputs) Prepare() bool {
	if o == nil {
		return false
	}
	if o.prepared {
		return true
	}
	switch o.kind {
	case SinkDDSDAC:
		o.prepared = o.DDS.SetTriangle(true) && o.DDS.SetFrequency(0) && o.DDS.SetPhase(ddsPhaseBase)
	case SinkDDSFreq:
		o.prepared = o.DDS.SetTriangle(false) && o.DDS.SetFrequency(o.FreqMin)
	default:
		o.prepared = o.DDS.SetTriangle(false) && o.DDS.SetFrequency(o.Carrier)
	}
	return o.prepared
}

// Consume writes one sample to the bound sink. Called from tick context: a
// busy bus drops the sample.
func (o *Outputs) Consume(sample uint16) {
	if o == nil {
		return
	}
	switch o.kind {
	case SinkDDSDAC:
		o.DDS.SetPhase(ddsPhaseBase + sample>>5)
	case SinkDDSFreq:
		span := uint64(o.FreqMax - o.FreqMin)
		o.DDS.SetFrequency(o.FreqMin + uint32(span*uint64(sample)/0xFFFF))
	case SinkAmplitude:
		o.Amp.Write(WordVpp(scaleWindow(o.VppMin, o.VppMax, sample)))
	case SinkOffset:
		o.Offset.Write(WordVo(scaleWindow(o.VoMin, o.VoMax, sample)))
	}
}

func scaleWindow(lo, hi int32, sample uint16) int32 {
	return lo + int32(int64(hi-lo)*int64(sample)/0xFFFF)
}
