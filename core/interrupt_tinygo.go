//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks the sample tick while the timer list is edited
// and returns the previous mask
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts puts back a mask saved by disableInterrupts
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
