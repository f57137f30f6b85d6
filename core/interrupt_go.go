//go:build !tinygo

package core

// irqState stands in for the saved interrupt mask on host builds
type irqState struct{}

// On host builds the soft tick fires from ProcessTimers on the caller's
// goroutine, so the scheduler has nothing to mask.
func disableInterrupts() irqState {
	return irqState{}
}

func restoreInterrupts(irqState) {}
