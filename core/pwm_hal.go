package core

// PWMCounter is a 32-bit period/compare counter. Period is the full cycle in
// counter clocks and high is the number of those clocks the output is high.
// Platform code provides it (a PIO state machine on RP2040).
type PWMCounter interface {
	// Clock returns the counting rate in Hz
	Clock() uint32
	// Open starts the counter with the given registers
	Open(period, high uint32) error
	// Close stops the counter and parks the output low
	Close()
	// SetPeriod reloads the period register
	SetPeriod(period uint32)
	// SetHigh reloads the compare register
	SetHigh(high uint32)
}
