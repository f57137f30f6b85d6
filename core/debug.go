package core

import "sync/atomic"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures an event raised from tick or bus context for later inspection
type TimingEvent struct {
	EventType uint8  // Event type code
	Source    uint8  // Engine that raised the event (Src*)
	Clock     uint32 // System clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtBusDrop     = 1 // bus busy, write abandoned
	EvtWavSwap     = 2 // WAV playback switched buffers
	EvtWavUnderrun = 3 // WAV playback reached a buffer not yet refilled
	EvtWavFail     = 4 // WAV stream torn down
	EvtArbState    = 5 // ARB run/pause/stop
	EvtTickRate    = 6 // tick timer reprogrammed
)

// Event sources
const (
	SrcArb = 1
	SrcDDS = 2
	SrcDAC = 3
	SrcPWM = 4
	SrcWav = 5
)

const (
	TimingRingSize = 32
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// Disabled by default; the panel enables it with set_debug
	debugEnabled bool = false

	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint32
	timingEnabled  bool = true

	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine.
// Call this from main() after SetDebugWriter.
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message without blocking; the message is
// dropped when the channel is full.
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// RecordTiming captures an event in the ring buffer. Safe to call from
// tick context: it never allocates or blocks.
func RecordTiming(eventType, source uint8, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	idx := (atomic.AddUint32(&timingRingHead, 1) - 1) % TimingRingSize
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Source:    source,
		Clock:     GetTime(),
		Value1:    value1,
		Value2:    value2,
	}
}

// TimingEvents returns the ring contents from oldest to newest, skipping empty slots
func TimingEvents() []TimingEvent {
	out := make([]TimingEvent, 0, TimingRingSize)
	start := atomic.LoadUint32(&timingRingHead)
	for i := uint32(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType != 0 {
			out = append(out, evt)
		}
	}
	return out
}

func eventName(t uint8) string {
	switch t {
	case EvtBusDrop:
		return "BUS_DROP"
	case EvtWavSwap:
		return "WAV_SWAP"
	case EvtWavUnderrun:
		return "WAV_UNDERRUN!"
	case EvtWavFail:
		return "WAV_FAIL!"
	case EvtArbState:
		return "ARB_STATE"
	case EvtTickRate:
		return "TICK_RATE"
	}
	return "UNKNOWN"
}

// DumpTimingRing outputs the timing ring buffer. Call it from the main loop,
// never from tick context.
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + eventName(evt.EventType) +
			" src=" + itoa(int(evt.Source)) +
			" clock=" + itoa(int(evt.Clock)) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	atomic.StoreUint32(&timingRingHead, 0)
}
