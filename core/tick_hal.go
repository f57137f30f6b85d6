package core

import "errors"

// ErrZeroRate is returned when a tick source is asked for 0 Hz
var ErrZeroRate = errors.New("tick rate must be non-zero")

// TickTimer is the periodic interrupt source that drives sample playback.
// The callback runs in interrupt context on hardware: it must not block,
// allocate or take a blocking lock.
type TickTimer interface {
	// SetFrequency programs the tick rate. It may be called while running.
	SetFrequency(hz uint32) error
	// SetCallback installs the per-tick handler
	SetCallback(fn func())
	// Launch starts firing callbacks
	Launch()
	// Stop halts the tick; a stopped timer may be launched again
	Stop()
}
