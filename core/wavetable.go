package core

import "math"

// TableLen is the number of samples in one waveform period
const TableLen = 201

// TableMid is the mid-scale sample value
const TableMid = 127

// Table holds one period of an arbitrary waveform
type Table [TableLen]uint8

// DefaultShapeParam is the split point used when a shape is first selected
const DefaultShapeParam = 30

func clampSample(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func clampParam(x1 int) int {
	if x1 < 0 {
		return 0
	}
	if x1 >= TableLen {
		return TableLen - 1
	}
	return x1
}

// Fill sets every sample to v
func (t *Table) Fill(v uint8) {
	for i := range t {
		t[i] = v
	}
}

// Cleared returns a mid-scale table
func Cleared() Table {
	var t Table
	t.Fill(TableMid)
	return t
}

// Triangle ramps from 0 at index 0 to 255 at x1, then back down to 0 at the
// last index.
func Triangle(x1 int) Table {
	x1 = clampParam(x1)
	var t Table
	for i := 0; i < TableLen; i++ {
		if i <= x1 {
			if x1 == 0 {
				t[i] = 255
				continue
			}
			t[i] = uint8(i * 255 / x1)
		} else {
			t[i] = uint8(255 - (i-x1)*255/(TableLen-1-x1))
		}
	}
	return t
}

// Pulse is high for indices below x1
func Pulse(x1 int) Table {
	x1 = clampParam(x1)
	var t Table
	for i := 0; i < x1; i++ {
		t[i] = 255
	}
	return t
}

// RC charges for the first half period and discharges for the second. The
// time constant follows x1, floored at 5 samples. Levels are offset by half
// the residual charge so the steady-state curve is centered.
func RC(x1 int) Table {
	x1 = clampParam(x1)
	if x1 < 5 {
		x1 = 5
	}
	tau := float64(x1) * 100 / TableLen
	vo := 255 * math.Exp(-100/tau) / 2
	var t Table
	for i := 0; i < TableLen; i++ {
		var v float64
		if i < 100 {
			v = vo + 255*(1-math.Exp(-float64(i)/tau))
		} else {
			v = 255*math.Exp(-float64(i-100)/tau) - vo
		}
		t[i] = clampSample(v)
	}
	return t
}

// PositiveDoubleSine is a full-wave rectified sine
func PositiveDoubleSine() Table {
	var t Table
	for i := range t {
		t[i] = clampSample(255 * math.Sin(math.Pi*float64(i)/TableLen))
	}
	return t
}

// PositiveHalfSine is a half-wave rectified sine
func PositiveHalfSine() Table {
	var t Table
	for i := 0; i < 100; i++ {
		t[i] = clampSample(255 * math.Sin(2*math.Pi*float64(i)/TableLen))
	}
	return t
}

// NegativeHalfSine is PositiveHalfSine mirrored against full scale
func NegativeHalfSine() Table {
	var t Table
	t.Fill(255)
	for i := 0; i < 100; i++ {
		t[i] = clampSample(255 * (1 - math.Sin(2*math.Pi*float64(i)/TableLen)))
	}
	return t
}

// NegativeDoubleSine is PositiveDoubleSine mirrored against full scale
func NegativeDoubleSine() Table {
	var t Table
	for i := range t {
		t[i] = clampSample(255 * (1 - math.Sin(math.Pi*float64(i)/TableLen)))
	}
	return t
}

// Sine is one centered period
func Sine() Table {
	var t Table
	for i := range t {
		t[i] = clampSample(127 + 126*math.Sin(2*math.Pi*float64(i)/TableLen))
	}
	return t
}

// Sinc draws sin(x)/x centered on the table; x1 widens the main lobe. The
// midpoint takes the limit value 1.
func Sinc(x1 int) Table {
	x1 = clampParam(x1)
	if x1 < 1 {
		x1 = 1
	}
	mul := 50 * float64(x1) / TableLen
	var t Table
	for i := range t {
		y := 1.0
		if i != TableLen/2 {
			x := float64(i-TableLen/2) / TableLen * mul
			y = math.Sin(x) / x
		}
		t[i] = clampSample(47 + 207*y)
	}
	return t
}

// Generate builds the table for a waveform. Waveforms fed from outside the
// table (noise, WAV, analog input) and unknown kinds get a cleared table.
func Generate(w Waveform, x1 int) Table {
	switch w {
	case WaveTriangle:
		return Triangle(x1)
	case WavePulse:
		return Pulse(x1)
	case WaveRC:
		return RC(x1)
	case WavePosDoubleSine:
		return PositiveDoubleSine()
	case WavePosHalfSine:
		return PositiveHalfSine()
	case WaveNegHalfSine:
		return NegativeHalfSine()
	case WaveNegDoubleSine:
		return NegativeDoubleSine()
	case WaveSine:
		return Sine()
	case WaveSinc:
		return Sinc(x1)
	}
	return Cleared()
}

// PutPoint writes one sample and reports whether it changed
func (t *Table) PutPoint(x int, v uint8) bool {
	if x < 0 || x >= TableLen || t[x] == v {
		return false
	}
	t[x] = v
	return true
}

// touchLevel scales a touch height (0 at the bottom of the graph) to a sample
func touchLevel(y, height int) uint8 {
	return clampSample(math.Round(float64(y) * 255 / float64(height)))
}

// Freehand draws into a table from successive touch points. When the touch
// skips columns between two samples the gap is filled by linear
// interpolation.
type Freehand struct {
	lastX, lastY int
	active       bool
}

// Release ends the current stroke
func (f *Freehand) Release() {
	f.active = false
}

// Draw applies one touch sample and reports whether the table changed
func (f *Freehand) Draw(t *Table, x, y, height int) bool {
	if t == nil || height <= 0 || x < 0 || x >= TableLen {
		return false
	}
	changed := false
	if f.active && (x-f.lastX > 1 || f.lastX-x > 1) {
		step := 1
		if x < f.lastX {
			step = -1
		}
		dx := float64(x - f.lastX)
		for xi := f.lastX + step; xi != x; xi += step {
			yi := float64(f.lastY) + float64(y-f.lastY)*float64(xi-f.lastX)/dx
			v := clampSample(math.Round(yi * 255 / float64(height)))
			if t.PutPoint(xi, v) {
				changed = true
			}
		}
	}
	if t.PutPoint(x, touchLevel(y, height)) {
		changed = true
	}
	f.lastX, f.lastY, f.active = x, y, true
	return changed
}
