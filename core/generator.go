package core

import "tinygo.org/x/drivers"

// Mode is the front-panel page that owns the outputs
type Mode uint8

const (
	ModeDDS Mode = iota
	ModeArb
	ModePWM
)

func (m Mode) String() string {
	switch m {
	case ModeDDS:
		return "dds"
	case ModeArb:
		return "arb"
	case ModePWM:
		return "pwm"
	}
	return "invalid"
}

// Hardware is what a target hands to the generator
type Hardware struct {
	SPI      drivers.SPI
	DDSCS    ChipSelect
	AmpCS    ChipSelect
	OffsetCS ChipSelect
	Tick     TickTimer
	PWM      PWMCounter
	Analog   AnalogInput
	Noise    NoiseSource
	Files    FileOpener
}

// Settings are the tunables a target or config file supplies
type Settings struct {
	DDSClock      uint32
	PWMClock      uint32 // used when the counter does not report its rate
	MaxSampleRate uint32
	WavPath       string
	WavOffset     int64
	ProbeWav      bool
	Modulation    Modulation
}

// DefaultSettings matches the stock board
func DefaultSettings() Settings {
	return Settings{
		DDSClock:      DefaultDDSClock,
		PWMClock:      DefaultPWMClock,
		MaxSampleRate: MaxSampleRate,
		WavPath:       DefaultWavPath,
		WavOffset:     WavDataOffset,
		ProbeWav:      true,
		Modulation:    DefaultModulation(),
	}
}

// Generator owns every engine and the bus they share
type Generator struct {
	Bus     *BusLock
	Chip    *AD9834
	AmpDAC  *AD5310
	OffDAC  *AD5310
	Voltage *VoltageControl
	DDS     *DDSHandle
	Out     *Outputs
	Arb     *Arb
	Wav     *WavPlayer
	PWM     *PWM
	Mod     Modulation

	mode Mode
}

// NewGenerator wires the engines onto the hardware
func NewGenerator(hw Hardware, s Settings) *Generator {
	g := &Generator{Bus: &BusLock{}}
	g.Chip = NewAD9834(NewSPIDevice(hw.SPI, hw.DDSCS, g.Bus, SrcDDS), s.DDSClock)
	g.AmpDAC = NewAD5310(NewSPIDevice(hw.SPI, hw.AmpCS, g.Bus, SrcDAC))
	g.OffDAC = NewAD5310(NewSPIDevice(hw.SPI, hw.OffsetCS, g.Bus, SrcDAC))
	g.Voltage = NewVoltageControl(g.AmpDAC, g.OffDAC)
	g.DDS = NewDDSHandle(g.Chip, 0)
	g.Out = NewOutputs(g.Chip, g.AmpDAC, g.OffDAC)

	if hw.Tick == nil {
		hw.Tick = NewSoftTick()
	}
	g.Wav = NewWavPlayer(hw.Files, hw.Tick, g.Out)
	if s.WavOffset > 0 {
		g.Wav.DataOffset = s.WavOffset
	}
	if !s.ProbeWav {
		g.Wav.Probe = nil
	}
	g.Arb = NewArb(ArbDeps{
		Tick:    hw.Tick,
		Out:     g.Out,
		Wav:     g.Wav,
		Noise:   hw.Noise,
		Analog:  hw.Analog,
		MaxRate: s.MaxSampleRate,
	})
	if s.WavPath != "" {
		g.Arb.WavPath = s.WavPath
	}
	g.PWM = NewPWM(hw.PWM)
	if hw.PWM == nil || hw.PWM.Clock() == 0 {
		g.PWM.SetClock(s.PWMClock)
	}
	g.Mod = s.Modulation
	g.Mod.Type = ModOff
	return g
}

// Init brings the hardware to a known state in DDS mode
func (g *Generator) Init() {
	g.DDS.Init()
	g.Voltage.SetLimits(g.DDS.Limits())
	g.SetMode(ModeDDS)
	DebugPrintln("[GEN] initialized")
}

// Mode returns the active page
func (g *Generator) Mode() Mode {
	return g.mode
}

// SetMode hands the outputs to another engine, stopping the others first
func (g *Generator) SetMode(m Mode) {
	if m > ModePWM {
		return
	}
	g.Arb.Stop()
	g.DDS.Stop()
	g.PWM.Stop()
	g.mode = m
	switch m {
	case ModeDDS:
		g.Voltage.SetLimits(g.DDS.Limits())
		g.DDS.Update(true)
	case ModeArb:
		g.Voltage.SetLimits(LimitsFor(DDSTriangle))
		g.Arb.Configure(g.Mod)
	}
	DebugPrintln("[GEN] mode " + m.String())
}

// SetModulation changes the modulation setup. It applies immediately in ARB
// mode and is remembered otherwise.
func (g *Generator) SetModulation(m Modulation) {
	m.Normalize()
	g.Mod = m
	if g.mode == ModeArb {
		g.Arb.Configure(m)
	}
}

// Idle is one main-loop pass: refill buffers and reconcile every edited
// value with the hardware. It never blocks.
func (g *Generator) Idle() {
	switch g.mode {
	case ModeDDS:
		g.Voltage.SetLimits(g.DDS.Limits())
		g.DDS.Update(false)
		g.Voltage.Update(false)
	case ModeArb:
		g.Arb.Process()
		// The amplitude DAC belongs to the tick under AM.
		if g.Out.Kind() != SinkAmplitude && g.Out.Kind() != SinkOffset {
			g.Voltage.Update(false)
		}
	case ModePWM:
		g.PWM.Update(false)
	}
}
