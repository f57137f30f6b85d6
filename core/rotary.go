package core

var pow10 = [...]int64{1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000, 1000000000}

// RotaryAdd applies a rotary step to one decimal digit of val: the result is
// val + inc*10^digit, clamped to [min, max]. The flag reports whether the
// value changed and the field needs redrawing.
func RotaryAdd(val int64, inc int8, digit uint8, min, max int64) (int64, bool) {
	if int(digit) >= len(pow10) {
		digit = uint8(len(pow10) - 1)
	}
	n := val + int64(inc)*pow10[digit]
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	return n, n != val
}

// RotaryAddU32 is RotaryAdd for unsigned fields
func RotaryAddU32(val uint32, inc int8, digit uint8, min, max uint32) (uint32, bool) {
	n, changed := RotaryAdd(int64(val), inc, digit, int64(min), int64(max))
	return uint32(n), changed
}
