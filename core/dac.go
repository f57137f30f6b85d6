package core

// VoltageControl keeps amplitude, offset and the min/max levels they imply
// consistent. The UI edits any one of the four; Update derives the rest and
// drives the amplitude and offset DACs.
type VoltageControl struct {
	Vpp    int32
	Offset int32
	Vmin   int32
	Vmax   int32

	amp    *AD5310
	offset *AD5310
	limits DDSLimits

	prevVpp, prevOffset, prevVmin, prevVmax int32
	ampWord, offWord                        uint16
	ampOK, offOK                            bool
}

// NewVoltageControl creates a control at 1 Vpp, no offset
func NewVoltageControl(amp, offset *AD5310) *VoltageControl {
	v := &VoltageControl{
		Vpp:    100,
		amp:    amp,
		offset: offset,
		limits: LimitsFor(DDSSine),
	}
	v.Vmin, v.Vmax = -50, 50
	return v
}

// SetLimits installs the limits of the active wave kind. The next Update
// re-clamps every field against them.
func (v *VoltageControl) SetLimits(l DDSLimits) {
	if v == nil || v.limits == l {
		return
	}
	v.limits = l
	v.prevVpp = -1
}

// Limits returns the limits in force
func (v *VoltageControl) Limits() DDSLimits {
	return v.limits
}

func clamp32(x, lo, hi int32) int32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Update reconciles the four fields, giving priority to amplitude, then
// offset, then the min level, then the max level. DAC words are sent only
// when they change or force is set. It reports whether anything was written.
func (v *VoltageControl) Update(force bool) bool {
	if v == nil {
		return false
	}
	l := v.limits
	switch {
	case force || v.Vpp != v.prevVpp || v.Offset != v.prevOffset:
		v.Vpp = clamp32(v.Vpp, l.VppMin, l.VppMax)
		half := v.Vpp / 2
		v.Offset = clamp32(v.Offset, -OutputMax+half, OutputMax-half)
		v.Offset = clamp32(v.Offset, l.OffsetMin, l.OffsetMax)
		v.Vmin = v.Offset - half
		v.Vmax = v.Vmin + v.Vpp
	case v.Vmin != v.prevVmin:
		v.Vmin = clamp32(v.Vmin, -OutputMax, OutputMax-l.VppMin)
		if v.Vmax-v.Vmin < l.VppMin {
			v.Vmax = v.Vmin + l.VppMin
		}
		if v.Vmax-v.Vmin > l.VppMax {
			v.Vmax = v.Vmin + l.VppMax
		}
		v.derive()
	case v.Vmax != v.prevVmax:
		v.Vmax = clamp32(v.Vmax, -OutputMax+l.VppMin, OutputMax)
		if v.Vmax-v.Vmin < l.VppMin {
			v.Vmin = v.Vmax - l.VppMin
		}
		if v.Vmax-v.Vmin > l.VppMax {
			v.Vmin = v.Vmax - l.VppMax
		}
		v.derive()
	default:
		if v.ampOK && v.offOK {
			return false
		}
	}
	v.prevVpp, v.prevOffset, v.prevVmin, v.prevVmax = v.Vpp, v.Offset, v.Vmin, v.Vmax
	return v.write(force)
}

func (v *VoltageControl) derive() {
	v.Vpp = v.Vmax - v.Vmin
	v.Offset = v.Vmin + v.Vpp/2
}

func (v *VoltageControl) write(force bool) bool {
	wrote := false
	aw, ow := WordVpp(v.Vpp), WordVo(v.Offset)
	if force || !v.ampOK || aw != v.ampWord {
		v.ampOK = v.amp.Write(aw)
		if v.ampOK {
			v.ampWord = aw
			wrote = true
		}
	}
	if force || !v.offOK || ow != v.offWord {
		v.offOK = v.offset.Write(ow)
		if v.offOK {
			v.offWord = ow
			wrote = true
		}
	}
	return wrote
}
