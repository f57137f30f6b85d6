package core

import "sync/atomic"

// TimerFreq is the rate of the free-running system timer (the RP2040
// TIMER peripheral counts microseconds).
const (
	TimerFreq = 1000000
)

// systemTicks is written by the main loop and read from tick context
var systemTicks uint32

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return atomic.LoadUint32(&systemTicks)
}

// SetTime sets the current system time from the hardware counter, or from
// a test
func SetTime(ticks uint32) {
	atomic.StoreUint32(&systemTicks, ticks)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// timerBefore reports whether a is earlier than b, tolerating counter wrap
func timerBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// ProcessTimers advances the scheduler to now and runs every due timer
func ProcessTimers(now uint32) {
	SetTime(now)
	currentTime = now
	TimerDispatch()
}
