package core

import (
	"errors"

	"fungen/protocol"
)

// Responder frames replies back to the panel. *protocol.Transport satisfies it.
type Responder interface {
	SendCommand(cmdID uint16, args func(out protocol.OutputBuffer))
}

// PWM field selectors for pwm_set
const (
	PWMFieldFreq = iota
	PWMFieldDuty
	PWMFieldTh
	PWMFieldTl
)

// identifyChunkMax keeps an identify_response inside one frame
const identifyChunkMax = 40

var errBadArgument = errors.New("argument out of range")

// Panel exposes a Generator to a remote front panel over the command link.
// Handlers run on the main loop, between Idle passes.
type Panel struct {
	gen  *Generator
	reg  *CommandRegistry
	resp Responder
	dict []byte

	idIdentify uint16
	idStatus   uint16
	idField    uint16
	idTouch    uint16
}

// NewPanel registers every panel command against g
func NewPanel(g *Generator, resp Responder) *Panel {
	p := &Panel{gen: g, reg: NewCommandRegistry(), resp: resp}
	r := p.reg

	// identify_response and identify keep ids 0 and 1 so a panel can
	// bootstrap before it has the dictionary.
	p.idIdentify = r.RegisterResponse("identify_response", "offset=%u data=%*s")
	r.Register("identify", "offset=%u count=%c", p.handleIdentify)

	p.idStatus = r.RegisterResponse("status",
		"mode=%c wave=%c arb_state=%c sink=%c mod=%c arb_freq=%u tick=%u inc=%u "+
			"dds_freq=%u pwm_freq=%u pwm_duty=%hu pwm_th=%u pwm_tl=%u "+
			"vpp=%i offset=%i drops=%u")
	p.idField = r.RegisterResponse("field_value", "field=%c value=%i min=%i max=%i changed=%c")
	p.idTouch = r.RegisterResponse("table_changed", "changed=%c")

	r.Register("get_status", "", p.handleGetStatus)
	r.Register("set_mode", "mode=%c", p.handleSetMode)
	r.Register("set_field", "field=%c value=%i", p.handleSetField)
	r.Register("rotary", "field=%c inc=%i digit=%c", p.handleRotary)

	r.Register("arb_set_waveform", "wave=%c", p.handleArbWaveform)
	r.Register("arb_set_output", "sink=%c", p.handleArbOutput)
	r.Register("arb_run", "", func(*[]byte) error { g.Arb.Run(); return nil })
	r.Register("arb_pause", "", func(*[]byte) error { g.Arb.Pause(); return nil })
	r.Register("arb_stop", "", func(*[]byte) error { g.Arb.Stop(); return nil })
	r.Register("arb_touch", "x=%i y=%i height=%u", p.handleArbTouch)
	r.Register("arb_release", "", func(*[]byte) error { g.Arb.Release(); return nil })

	r.Register("dds_set_wave", "wave=%c", p.handleDDSWave)
	r.Register("dds_run", "", func(*[]byte) error { g.DDS.Run(); return nil })
	r.Register("dds_pause", "", func(*[]byte) error { g.DDS.Pause(); return nil })
	r.Register("dds_stop", "", func(*[]byte) error { g.DDS.Stop(); return nil })

	r.Register("mod_set", "type=%c am_freq=%u am_vmin=%i am_vmax=%i fm_min=%u fm_max=%u", p.handleModSet)

	r.Register("pwm_set", "field=%c value=%u", p.handlePWMSet)
	r.Register("pwm_link", "linked=%c", p.handlePWMLink)
	r.Register("pwm_run", "", func(*[]byte) error { return g.PWM.Run() })
	r.Register("pwm_stop", "", func(*[]byte) error { g.PWM.Stop(); return nil })

	r.Register("set_debug", "enable=%c", p.handleSetDebug)
	r.Register("dump_timing", "", func(*[]byte) error { DumpTimingRing(); return nil })

	p.dict = r.Dictionary(protocol.Version)
	return p
}

// Registry returns the command registry
func (p *Panel) Registry() *CommandRegistry {
	return p.reg
}

// Dispatch is the protocol.CommandHandler for the link
func (p *Panel) Dispatch(cmdID uint16, data *[]byte) error {
	return p.reg.Dispatch(cmdID, data)
}

// SetResponder changes where replies go
func (p *Panel) SetResponder(r Responder) {
	p.resp = r
}

func (p *Panel) send(id uint16, args func(out protocol.OutputBuffer)) {
	if p.resp != nil {
		p.resp.SendCommand(id, args)
	}
}

func decodeArgs(data *[]byte, dst ...*uint32) error {
	for _, d := range dst {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		*d = v
	}
	return nil
}

func boolArg(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func (p *Panel) handleIdentify(data *[]byte) error {
	var offset, count uint32
	if err := decodeArgs(data, &offset, &count); err != nil {
		return err
	}
	if count > identifyChunkMax {
		count = identifyChunkMax
	}
	var chunk []byte
	if int(offset) < len(p.dict) {
		end := int(offset + count)
		if end > len(p.dict) {
			end = len(p.dict)
		}
		chunk = p.dict[offset:end]
	}
	p.send(p.idIdentify, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, offset)
		protocol.EncodeVLQBytes(out, chunk)
	})
	return nil
}

func (p *Panel) handleGetStatus(*[]byte) error {
	g := p.gen
	p.send(p.idStatus, func(out protocol.OutputBuffer) {
		for _, v := range [...]uint32{
			uint32(g.Mode()), uint32(g.Arb.Waveform()), uint32(g.Arb.State()),
			uint32(g.Out.Kind()), uint32(g.Mod.Type),
			g.Arb.Frequency, g.Arb.TickRate(), g.Arb.Increment(),
			g.DDS.Frequency, g.PWM.Freq, g.PWM.Duty, g.PWM.Th, g.PWM.Tl,
		} {
			protocol.EncodeVLQUint(out, v)
		}
		protocol.EncodeVLQInt(out, g.Voltage.Vpp)
		protocol.EncodeVLQInt(out, g.Voltage.Offset)
		protocol.EncodeVLQUint(out, g.Bus.Dropped())
	})
	return nil
}

func (p *Panel) handleSetMode(data *[]byte) error {
	var m uint32
	if err := decodeArgs(data, &m); err != nil {
		return err
	}
	if m > uint32(ModePWM) {
		return errBadArgument
	}
	p.gen.SetMode(Mode(m))
	return nil
}

func (p *Panel) sendField(f Field, v int64, changed bool) {
	min, max := p.gen.FieldLimits(f)
	p.send(p.idField, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(f))
		protocol.EncodeVLQInt(out, int32(v))
		protocol.EncodeVLQInt(out, int32(min))
		protocol.EncodeVLQInt(out, int32(max))
		protocol.EncodeVLQUint(out, boolArg(changed))
	})
}

func (p *Panel) handleSetField(data *[]byte) error {
	var f uint32
	if err := decodeArgs(data, &f); err != nil {
		return err
	}
	v, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	if f >= uint32(fieldCount) {
		return errBadArgument
	}
	before := p.gen.FieldValue(Field(f))
	p.gen.SetFieldValue(Field(f), int64(v))
	after := p.gen.FieldValue(Field(f))
	p.sendField(Field(f), after, after != before)
	return nil
}

func (p *Panel) handleRotary(data *[]byte) error {
	var f uint32
	if err := decodeArgs(data, &f); err != nil {
		return err
	}
	inc, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	var digit uint32
	if err := decodeArgs(data, &digit); err != nil {
		return err
	}
	if f >= uint32(fieldCount) || inc < -128 || inc > 127 {
		return errBadArgument
	}
	v, changed := p.gen.Rotate(Field(f), int8(inc), uint8(digit))
	p.sendField(Field(f), v, changed)
	return nil
}

func (p *Panel) handleArbWaveform(data *[]byte) error {
	var w uint32
	if err := decodeArgs(data, &w); err != nil {
		return err
	}
	if w > 0xFF {
		w = 0xFF
	}
	// Out-of-range kinds degrade to an empty table inside SetWaveform.
	p.gen.Arb.SetWaveform(Waveform(w))
	return nil
}

func (p *Panel) handleArbOutput(data *[]byte) error {
	var k uint32
	if err := decodeArgs(data, &k); err != nil {
		return err
	}
	if k > uint32(SinkOffset) {
		return errBadArgument
	}
	p.gen.Arb.SetOutput(SinkKind(k))
	return nil
}

func (p *Panel) handleArbTouch(data *[]byte) error {
	x, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	y, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	var h uint32
	if err := decodeArgs(data, &h); err != nil {
		return err
	}
	changed := p.gen.Arb.Touch(int(x), int(y), int(h))
	p.send(p.idTouch, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, boolArg(changed))
	})
	return nil
}

func (p *Panel) handleDDSWave(data *[]byte) error {
	var w uint32
	if err := decodeArgs(data, &w); err != nil {
		return err
	}
	if w > uint32(DDSSine) {
		return errBadArgument
	}
	p.gen.DDS.Wave = DDSWave(w)
	return nil
}

func (p *Panel) handleModSet(data *[]byte) error {
	var typ, amFreq, fmMin, fmMax uint32
	if err := decodeArgs(data, &typ, &amFreq); err != nil {
		return err
	}
	vmin, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	vmax, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	if err := decodeArgs(data, &fmMin, &fmMax); err != nil {
		return err
	}
	if typ > uint32(ModFM) {
		return errBadArgument
	}
	p.gen.SetModulation(Modulation{
		Type: ModType(typ),
		AM:   AMSettings{Frequency: amFreq, VppMin: vmin, VppMax: vmax},
		FM:   FMSettings{FreqMin: fmMin, FreqMax: fmMax},
	})
	return nil
}

func (p *Panel) handlePWMSet(data *[]byte) error {
	var field, v uint32
	if err := decodeArgs(data, &field, &v); err != nil {
		return err
	}
	switch field {
	case PWMFieldFreq:
		p.gen.PWM.Freq = v
	case PWMFieldDuty:
		p.gen.PWM.Duty = v
	case PWMFieldTh:
		p.gen.PWM.Th = v
	case PWMFieldTl:
		p.gen.PWM.Tl = v
	default:
		return errBadArgument
	}
	return nil
}

func (p *Panel) handlePWMLink(data *[]byte) error {
	var l uint32
	if err := decodeArgs(data, &l); err != nil {
		return err
	}
	p.gen.PWM.Linked = l != 0
	return nil
}

func (p *Panel) handleSetDebug(data *[]byte) error {
	var e uint32
	if err := decodeArgs(data, &e); err != nil {
		return err
	}
	SetDebugEnabled(e != 0)
	return nil
}
