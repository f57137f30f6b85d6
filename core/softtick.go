package core

// SoftTick is a TickTimer built on the core scheduler. Host builds and tests
// drive it with ProcessTimers. The period is kept as an exact fraction of
// TimerFreq so long runs do not drift.
type SoftTick struct {
	timer    Timer
	hz       uint32
	whole    uint32
	frac     uint32
	acc      uint32
	callback func()
	running  bool
	fired    uint32
}

// NewSoftTick creates a stopped software tick
func NewSoftTick() *SoftTick {
	s := &SoftTick{}
	s.timer.Handler = s.fire
	return s
}

// SetFrequency programs the tick rate
func (s *SoftTick) SetFrequency(hz uint32) error {
	if hz == 0 {
		return ErrZeroRate
	}
	s.hz = hz
	s.whole = TimerFreq / hz
	s.frac = TimerFreq % hz
	s.acc = 0
	return nil
}

// SetCallback installs the per-tick handler
func (s *SoftTick) SetCallback(fn func()) {
	s.callback = fn
}

// Launch schedules the first tick one period from now
func (s *SoftTick) Launch() {
	if s.running || s.hz == 0 {
		return
	}
	s.running = true
	s.timer.WakeTime = GetTime()
	s.advance()
	ScheduleTimer(&s.timer)
}

// Stop cancels any pending tick
func (s *SoftTick) Stop() {
	if !s.running {
		return
	}
	s.running = false
	CancelTimer(&s.timer)
}

// Running reports whether the tick is launched
func (s *SoftTick) Running() bool {
	return s.running
}

// Frequency returns the programmed rate in Hz
func (s *SoftTick) Frequency() uint32 {
	return s.hz
}

// Fired returns the number of callbacks delivered since creation
func (s *SoftTick) Fired() uint32 {
	return s.fired
}

func (s *SoftTick) advance() {
	step := s.whole
	s.acc += s.frac
	if s.acc >= s.hz {
		s.acc -= s.hz
		step++
	}
	if step == 0 {
		step = 1
	}
	s.timer.WakeTime += step
}

func (s *SoftTick) fire(t *Timer) uint8 {
	if !s.running {
		return SF_DONE
	}
	s.fired++
	if s.callback != nil {
		s.callback()
	}
	// The callback may have stopped us.
	if !s.running {
		return SF_DONE
	}
	s.advance()
	return SF_RESCHEDULE
}
