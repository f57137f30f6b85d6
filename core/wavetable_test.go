package core

import "testing"

func TestGenerateDeterministic(t *testing.T) {
	for w := WaveEmpty; w < waveCount; w++ {
		for _, x1 := range []int{0, 1, 30, 100, 200} {
			a := Generate(w, x1)
			b := Generate(w, x1)
			if a != b {
				t.Errorf("%s(x1=%d) not deterministic", w, x1)
			}
		}
	}
}

func TestTriangleRamps(t *testing.T) {
	for x1 := 1; x1 < TableLen; x1++ {
		tbl := Triangle(x1)
		if len(tbl) != TableLen {
			t.Fatalf("Table length %d", len(tbl))
		}
		if tbl[0] != 0 || tbl[x1] != 255 {
			t.Errorf("x1=%d: endpoints %d..%d, want 0..255", x1, tbl[0], tbl[x1])
		}
		for i := 1; i <= x1; i++ {
			if tbl[i] <= tbl[i-1] {
				t.Errorf("x1=%d: not rising at %d (%d -> %d)", x1, i, tbl[i-1], tbl[i])
				break
			}
		}
		for i := x1 + 1; i < TableLen; i++ {
			if tbl[i] >= tbl[i-1] {
				t.Errorf("x1=%d: not falling at %d (%d -> %d)", x1, i, tbl[i-1], tbl[i])
				break
			}
		}
		if x1 < TableLen-1 && tbl[TableLen-1] != 0 {
			t.Errorf("x1=%d: last sample %d, want 0", x1, tbl[TableLen-1])
		}
	}
}

func TestPulseSplit(t *testing.T) {
	tbl := Pulse(30)
	for i, v := range tbl {
		want := uint8(0)
		if i < 30 {
			want = 255
		}
		if v != want {
			t.Fatalf("Pulse[%d] = %d, want %d", i, v, want)
		}
	}
}

func TestRCClampsTimeConstant(t *testing.T) {
	if RC(0) != RC(5) {
		t.Error("Time constant below 5 should clamp to 5")
	}
	tbl := RC(60)
	if tbl[0] >= tbl[99] {
		t.Errorf("Charge phase not rising: %d .. %d", tbl[0], tbl[99])
	}
	if tbl[100] <= tbl[TableLen-1] {
		t.Errorf("Discharge phase not falling: %d .. %d", tbl[100], tbl[TableLen-1])
	}
}

func TestSincMidpoint(t *testing.T) {
	for _, x1 := range []int{0, 1, 30, 200} {
		tbl := Sinc(x1)
		if tbl[TableLen/2] != 254 {
			t.Errorf("Sinc(%d) midpoint = %d, want 254", x1, tbl[TableLen/2])
		}
	}
}

func TestSineVariants(t *testing.T) {
	tests := []struct {
		name string
		tbl  Table
		at   int
		want uint8
	}{
		{"pos_dsine start", PositiveDoubleSine(), 0, 0},
		{"pos_hsine second half", PositiveHalfSine(), 150, 0},
		{"neg_hsine second half", NegativeHalfSine(), 150, 255},
		{"neg_dsine start", NegativeDoubleSine(), 0, 255},
		{"sine start", Sine(), 0, 127},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tbl[tt.at]; got != tt.want {
				t.Errorf("[%d] = %d, want %d", tt.at, got, tt.want)
			}
		})
	}
}

func TestGenerateFallbacks(t *testing.T) {
	for _, w := range []Waveform{WaveEmpty, WaveNoise, WaveWav, WaveAnalogIn, Waveform(200)} {
		tbl := Generate(w, 30)
		for i, v := range tbl {
			if v != TableMid {
				t.Errorf("%s: sample %d = %d, want %d", w, i, v, TableMid)
				break
			}
		}
	}
}

func TestFreehandSinglePoint(t *testing.T) {
	tbl := Cleared()
	var f Freehand
	if !f.Draw(&tbl, 50, 60, 121) {
		t.Fatal("First draw reported no change")
	}
	if tbl[50] != 126 {
		t.Errorf("Expected round(60*255/121) = 126, got %d", tbl[50])
	}
	f.Release()
	if f.Draw(&tbl, 50, 60, 121) {
		t.Error("Redrawing the same value reported a change")
	}
}

func TestFreehandClamps(t *testing.T) {
	tbl := Cleared()
	var f Freehand
	f.Draw(&tbl, 10, 500, 121)
	if tbl[10] != 255 {
		t.Errorf("Expected clamp to 255, got %d", tbl[10])
	}
	f.Release()
	f.Draw(&tbl, 11, -40, 121)
	if tbl[11] != 0 {
		t.Errorf("Expected clamp to 0, got %d", tbl[11])
	}
	if f.Draw(&tbl, TableLen, 10, 121) || f.Draw(&tbl, -1, 10, 121) || f.Draw(&tbl, 5, 10, 0) {
		t.Error("Out-of-range touch changed the table")
	}
}

func TestFreehandInterpolatesGaps(t *testing.T) {
	tbl := Cleared()
	var f Freehand
	f.Draw(&tbl, 20, 0, 100)
	f.Draw(&tbl, 30, 100, 100)
	for x := 20; x <= 30; x++ {
		want := touchLevel((x-20)*10, 100)
		if tbl[x] != want {
			t.Errorf("Column %d = %d, want %d", x, tbl[x], want)
		}
	}
	// Dragging right to left fills the same way.
	f.Release()
	f.Draw(&tbl, 60, 100, 100)
	f.Draw(&tbl, 50, 0, 100)
	for x := 50; x <= 60; x++ {
		if tbl[x] == TableMid {
			t.Errorf("Column %d left unset", x)
		}
	}
}
