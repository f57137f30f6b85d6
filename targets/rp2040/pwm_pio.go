//go:build rp2040

package main

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// PIO PWM program. ISR holds the period and X the compare value, refreshed
// from the TX FIFO at the start of every period when a new one is queued.
// The pin goes high once Y counts down to X and is cleared at the top of the
// next period, so high time is X counts.
//
// Each count is two instructions, so the counter runs at half the system
// clock. The four-instruction preamble costs two counts per period, which
// Open and SetPeriod take off the loaded value.
func buildPWMProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, false).Encode(),                     // 0: pull noblock (X kept when empty)
		asm.Mov(rp2pio.MovDestX, rp2pio.MovSrcOSR).Encode(), // 1: mov x, osr
		asm.Mov(rp2pio.MovDestY, rp2pio.MovSrcISR).Encode(), // 2: mov y, isr
		asm.Set(rp2pio.SetDestPins, 0).Encode(),             // 3: set pins, 0
		// count:
		asm.Jmp(6, rp2pio.JmpXNotEqualY).Encode(), // 4: jmp x!=y, 6
		asm.Set(rp2pio.SetDestPins, 1).Encode(),   // 5: set pins, 1
		asm.Jmp(4, rp2pio.JmpYNZeroDec).Encode(),  // 6: jmp y--, 4
		// .wrap
	}
}

const (
	pwmPIOOrigin = 0
	pwmCycles    = 2
	pwmPreamble  = 2
	pwmMinPeriod = pwmPreamble + 1
)

// PIOCounter is a 32-bit PWM counter on one PIO state machine. It satisfies
// core.PWMCounter.
type PIOCounter struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8
	asm    rp2pio.AssemblerV0
	open   bool
}

// NewPIOCounter claims a state machine and loads the program
func NewPIOCounter(pioNum, smNum uint8, pin machine.Pin) (*PIOCounter, error) {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	c := &PIOCounter{pio: pioHW, sm: pioHW.StateMachine(smNum), pin: pin}
	c.sm.TryClaim()

	program := buildPWMProgram()
	offset, err := c.pio.AddProgram(program, pwmPIOOrigin)
	if err != nil {
		return nil, err
	}
	c.offset = offset

	pin.Configure(machine.PinConfig{Mode: c.pio.PinMode()})
	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(pin, 1)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1, 0)
	c.sm.Init(offset, cfg)
	c.sm.SetPindirsConsecutive(pin, 1, true)
	c.sm.SetPinsConsecutive(pin, 1, false)
	return c, nil
}

// Clock returns the count rate in Hz
func (c *PIOCounter) Clock() uint32 {
	return machine.CPUFrequency() / pwmCycles
}

func counts(period uint32) uint32 {
	if period < pwmMinPeriod {
		return 1
	}
	return period - pwmPreamble
}

// loadPeriod pushes a period through the FIFO into ISR. The state machine
// must be stopped.
func (c *PIOCounter) loadPeriod(period uint32) {
	c.sm.ClearFIFOs()
	c.sm.TxPut(counts(period))
	c.sm.Exec(c.asm.Pull(false, true).Encode())
	c.sm.Exec(c.asm.Out(rp2pio.OutDestISR, 32).Encode())
}

// Open starts the output with the given registers
func (c *PIOCounter) Open(period, high uint32) error {
	c.sm.SetEnabled(false)
	c.loadPeriod(period)
	c.sm.TxPut(high)
	c.sm.Restart()
	c.sm.Exec(c.asm.Jmp(c.offset, rp2pio.JmpAlways).Encode())
	c.sm.SetEnabled(true)
	c.open = true
	return nil
}

// Close stops the counter and drives the pin low
func (c *PIOCounter) Close() {
	c.sm.SetEnabled(false)
	c.sm.ClearFIFOs()
	c.sm.SetPinsConsecutive(c.pin, 1, false)
	c.open = false
}

// SetPeriod reloads the period. The state machine pauses for a few cycles.
func (c *PIOCounter) SetPeriod(period uint32) {
	if !c.open {
		return
	}
	c.sm.SetEnabled(false)
	c.loadPeriod(period)
	c.sm.SetEnabled(true)
}

// SetHigh queues a compare value for the next period. A full FIFO keeps
// the older value until the next call.
func (c *PIOCounter) SetHigh(high uint32) {
	if !c.open || c.sm.IsTxFIFOFull() {
		return
	}
	c.sm.TxPut(high)
}
