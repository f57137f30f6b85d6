package core

// Field names a numeric value the front panel can edit
type Field uint8

const (
	FieldArbFreq Field = iota
	FieldDDSFreq
	FieldDDSPhase
	FieldPWMFreq
	FieldPWMDuty
	FieldPWMTh
	FieldPWMTl
	FieldVpp
	FieldOffset
	FieldVmin
	FieldVmax
	fieldCount
)

var fieldNames = [fieldCount]string{
	"arb_freq", "dds_freq", "dds_phase", "pwm_freq", "pwm_duty", "pwm_th",
	"pwm_tl", "vpp", "offset", "vmin", "vmax",
}

func (f Field) String() string {
	if f < fieldCount {
		return fieldNames[f]
	}
	return "invalid"
}

// ParseField looks a field up by name
func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// ParseWaveform looks a waveform up by name
func ParseWaveform(name string) (Waveform, bool) {
	for i, n := range waveNames {
		if n == name {
			return Waveform(i), true
		}
	}
	return 0, false
}

// FieldLimits returns the editing range of a field for the current state
func (g *Generator) FieldLimits(f Field) (min, max int64) {
	switch f {
	case FieldArbFreq:
		return ArbFreqMin, int64(g.Arb.FreqMax())
	case FieldDDSFreq:
		l := g.DDS.Limits()
		return int64(l.FreqMin), int64(l.FreqMax)
	case FieldDDSPhase:
		return 0, ad9834Phase
	case FieldPWMFreq:
		return PWMFreqMin, PWMFreqMax
	case FieldPWMDuty:
		return PWMDutyMin, PWMDutyMax
	case FieldPWMTh, FieldPWMTl:
		return PWMTimeMin, PWMTimeMax
	case FieldVpp:
		l := g.Voltage.Limits()
		return int64(l.VppMin), int64(l.VppMax)
	case FieldOffset:
		l := g.Voltage.Limits()
		return int64(l.OffsetMin), int64(l.OffsetMax)
	case FieldVmin, FieldVmax:
		return -OutputMax, OutputMax
	}
	return 0, 0
}

// FieldValue reads a field
func (g *Generator) FieldValue(f Field) int64 {
	switch f {
	case FieldArbFreq:
		return int64(g.Arb.Frequency)
	case FieldDDSFreq:
		return int64(g.DDS.Frequency)
	case FieldDDSPhase:
		return int64(g.DDS.Phase)
	case FieldPWMFreq:
		return int64(g.PWM.Freq)
	case FieldPWMDuty:
		return int64(g.PWM.Duty)
	case FieldPWMTh:
		return int64(g.PWM.Th)
	case FieldPWMTl:
		return int64(g.PWM.Tl)
	case FieldVpp:
		return int64(g.Voltage.Vpp)
	case FieldOffset:
		return int64(g.Voltage.Offset)
	case FieldVmin:
		return int64(g.Voltage.Vmin)
	case FieldVmax:
		return int64(g.Voltage.Vmax)
	}
	return 0
}

// SetFieldValue writes a field, clamped to its limits. The engines pick the
// change up on the next Idle pass.
func (g *Generator) SetFieldValue(f Field, v int64) {
	min, max := g.FieldLimits(f)
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	switch f {
	case FieldArbFreq:
		g.Arb.Frequency = uint32(v)
	case FieldDDSFreq:
		g.DDS.Frequency = uint32(v)
	case FieldDDSPhase:
		g.DDS.Phase = uint16(v)
	case FieldPWMFreq:
		g.PWM.Freq = uint32(v)
	case FieldPWMDuty:
		g.PWM.Duty = uint32(v)
	case FieldPWMTh:
		g.PWM.Th = uint32(v)
	case FieldPWMTl:
		g.PWM.Tl = uint32(v)
	case FieldVpp:
		g.Voltage.Vpp = int32(v)
	case FieldOffset:
		g.Voltage.Offset = int32(v)
	case FieldVmin:
		g.Voltage.Vmin = int32(v)
	case FieldVmax:
		g.Voltage.Vmax = int32(v)
	}
}

// Rotate applies a rotary step to one digit of a field and reports whether
// the field needs redrawing
func (g *Generator) Rotate(f Field, inc int8, digit uint8) (int64, bool) {
	if f >= fieldCount {
		return 0, false
	}
	min, max := g.FieldLimits(f)
	v, changed := RotaryAdd(g.FieldValue(f), inc, digit, min, max)
	if changed {
		g.SetFieldValue(f, v)
	}
	return v, changed
}
