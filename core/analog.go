package core

// Analog front-end limits. Voltages are in units of 10 mV (V×100),
// frequencies in deci-Hz (Hz×10).
const (
	OutputMax      = 500  // ±5.00 V at the output connector
	MinVpp         = 60   // smallest amplitude the attenuator resolves
	MaxVpp         = 1000 // 10.00 Vpp
	VppMaxWord     = 902  // DAC code span that maps to MaxVpp
	DDSFreqMin     = 10
	DDSSineMax     = 40000000
	DDSTriangleMax = 40000000

	// MaxSampleRate is the fastest tick the sample path sustains unmodulated
	MaxSampleRate = 100000
)

// WordVpp encodes a peak-to-peak amplitude for the amplitude DAC, which is
// inverted: code 1023 is the smallest swing.
func WordVpp(vpp int32) uint16 {
	if vpp < 0 {
		vpp = 0
	}
	if vpp > MaxVpp {
		vpp = MaxVpp
	}
	return uint16(AD5310_MAX - vpp*VppMaxWord/MaxVpp)
}

// WordVo encodes a DC offset for the (inverting) offset DAC
func WordVo(vo int32) uint16 {
	if vo < -OutputMax {
		vo = -OutputMax
	}
	if vo > OutputMax {
		vo = OutputMax
	}
	return uint16(AD5310_MAX - (511 + vo*AD5310_MAX/(2*OutputMax)))
}
