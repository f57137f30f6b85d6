//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"fungen/core"
)

// RP2040 timer peripheral, a free-running 1 MHz counter
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24
	timerTIMERAWL = timerBase + 0x28
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// GetHardwareTime returns the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime reads the full 64-bit counter
func GetHardwareUptime() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// UpdateSystemTime hands the hardware time to the core scheduler
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}

// The runtime sleeps on alarm 0; the sample tick owns alarm 1.
const tickAlarm = 1

// alarmTick is the sample tick: timer alarm 1 re-armed from its own
// interrupt one period after the previous deadline, so handler latency does
// not accumulate.
type alarmTick struct {
	period  uint32 // µs
	next    uint32
	fn      func()
	running volatile.Register8
	intr    interrupt.Interrupt
}

var sampleTick alarmTick

// initTick installs the alarm interrupt
func initTick() *alarmTick {
	t := &sampleTick
	t.period = 1000
	t.intr = interrupt.New(rp.IRQ_TIMER_IRQ_1, alarmHandler)
	t.intr.SetPriority(0x00)
	t.intr.Enable()
	return t
}

func alarmHandler(interrupt.Interrupt) {
	t := &sampleTick
	rp.TIMER.INTR.Set(1 << tickAlarm)
	if t.running.Get() == 0 {
		return
	}
	t.next += t.period
	// A period shorter than the handler is caught up at once rather than
	// after a full counter wrap.
	if now := timerRAWL.Get(); int32(t.next-now) <= 0 {
		t.next = now + 1
	}
	rp.TIMER.ALARM1.Set(t.next)
	if t.fn != nil {
		t.fn()
	}
}

// SetFrequency sets the tick rate. The period rounds to whole microseconds.
func (t *alarmTick) SetFrequency(hz uint32) error {
	if hz == 0 {
		return core.ErrZeroRate
	}
	p := (core.TimerFreq + hz/2) / hz
	if p == 0 {
		p = 1
	}
	t.period = p
	return nil
}

// SetCallback installs the per-tick handler
func (t *alarmTick) SetCallback(fn func()) {
	t.fn = fn
}

// Launch arms the alarm one period from now
func (t *alarmTick) Launch() {
	t.next = timerRAWL.Get() + t.period
	t.running.Set(1)
	rp.TIMER.INTE.SetBits(1 << tickAlarm)
	rp.TIMER.ALARM1.Set(t.next)
}

// Stop disarms the alarm
func (t *alarmTick) Stop() {
	t.running.Set(0)
	rp.TIMER.INTE.ClearBits(1 << tickAlarm)
	rp.TIMER.ARMED.Set(1 << tickAlarm)
	rp.TIMER.INTR.Set(1 << tickAlarm)
}
