package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"fungen/core"
	"fungen/host/panel"
)

// Key actions in knob mode
const (
	keyNone = iota
	keyUp
	keyDown
	keyLeft
	keyRight
	keyNext
	keyQuit
)

// decodeKey maps one read from a raw terminal to a knob action
func decodeKey(b []byte) int {
	if len(b) == 0 {
		return keyNone
	}
	if len(b) >= 3 && b[0] == 0x1B && b[1] == '[' {
		switch b[2] {
		case 'A':
			return keyUp
		case 'B':
			return keyDown
		case 'C':
			return keyRight
		case 'D':
			return keyLeft
		}
		return keyNone
	}
	switch b[0] {
	case '+', 'k':
		return keyUp
	case '-', 'j':
		return keyDown
	case 'h':
		return keyLeft
	case 'l':
		return keyRight
	case '\t':
		return keyNext
	case 'q', 0x03, 0x1B:
		return keyQuit
	}
	return keyNone
}

// knob turns the terminal into a rotary encoder: up and down step the
// selected digit, left and right move the cursor, tab moves to the next
// field.
func knob(ctx context.Context, c *panel.Client, f core.Field) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("knob mode needs a terminal")
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, old)

	var digit uint8
	fv, err := c.Rotate(ctx, f, 0, 0)
	if err != nil {
		return err
	}
	show := func() {
		fmt.Printf("\r\x1b[K%s = %d  step 1e%d  [%d..%d]", fv.Field, fv.Value, digit, fv.Min, fv.Max)
	}
	show()

	buf := make([]byte, 8)
	for ctx.Err() == nil {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return err
		}
		var inc int8
		switch decodeKey(buf[:n]) {
		case keyUp:
			inc = 1
		case keyDown:
			inc = -1
		case keyLeft:
			if digit < 9 {
				digit++
			}
		case keyRight:
			if digit > 0 {
				digit--
			}
		case keyNext:
			f = fieldOrder[(int(f)+1)%len(fieldOrder)]
		case keyQuit:
			fmt.Print("\r\n")
			return nil
		}
		if fv, err = c.Rotate(ctx, f, inc, digit); err != nil {
			fmt.Print("\r\n")
			return err
		}
		show()
	}
	fmt.Print("\r\n")
	return nil
}

var fieldOrder = []core.Field{
	core.FieldArbFreq, core.FieldDDSFreq, core.FieldDDSPhase, core.FieldPWMFreq,
	core.FieldPWMDuty, core.FieldPWMTh, core.FieldPWMTl, core.FieldVpp,
	core.FieldOffset, core.FieldVmin, core.FieldVmax,
}
