package config

import (
	"encoding/json"
	"fmt"
	"os"

	"fungen/core"
)

// GeneratorConfig is the board and link setup, loaded from JSON
type GeneratorConfig struct {
	DDSClock      uint32 `json:"dds_clock"`       // AD9834 MCLK in Hz
	PWMClock      uint32 `json:"pwm_clock"`       // PWM counter rate in Hz
	MaxSampleRate uint32 `json:"max_sample_rate"` // unmodulated ARB tick ceiling

	Wav        WavConfig        `json:"wav"`
	Modulation ModulationConfig `json:"modulation"`
	Serial     SerialConfig     `json:"serial"`
}

// WavConfig describes the streamed WAV file
type WavConfig struct {
	Path       string `json:"path"`
	DataOffset int64  `json:"data_offset"`
	// SkipProbe streams without checking the header
	SkipProbe bool `json:"skip_probe"`
}

// ModulationConfig is the modulation setup applied at boot. Frequencies are
// in deci-Hz, amplitudes in units of 10 mV.
type ModulationConfig struct {
	Type        string `json:"type"` // off, am or fm
	AMFrequency uint32 `json:"am_frequency"`
	AMVppMin    int32  `json:"am_vpp_min"`
	AMVppMax    int32  `json:"am_vpp_max"`
	FMFreqMin   uint32 `json:"fm_freq_min"`
	FMFreqMax   uint32 `json:"fm_freq_max"`
}

// SerialConfig is the host side of the front-panel link
type SerialConfig struct {
	Device       string `json:"device"`
	Baud         int    `json:"baud"`
	AckTimeoutMS int    `json:"ack_timeout_ms"`
	Retries      int    `json:"retries"`
}

// LoadConfig parses a JSON configuration and fills in defaults
func LoadConfig(jsonData []byte) (*GeneratorConfig, error) {
	var config GeneratorConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if _, err := ParseModType(config.Modulation.Type); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfigFile reads and parses a configuration file
func LoadConfigFile(path string) (*GeneratorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	config, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return config, nil
}

// applyDefaults fills in missing values with the stock board's
func applyDefaults(config *GeneratorConfig) {
	def := DefaultConfig()

	if config.DDSClock == 0 {
		config.DDSClock = def.DDSClock
	}
	if config.PWMClock == 0 {
		config.PWMClock = def.PWMClock
	}
	if config.MaxSampleRate == 0 {
		config.MaxSampleRate = def.MaxSampleRate
	}

	if config.Wav.Path == "" {
		config.Wav.Path = def.Wav.Path
	}
	if config.Wav.DataOffset == 0 {
		config.Wav.DataOffset = def.Wav.DataOffset
	}

	m := &config.Modulation
	if m.Type == "" {
		m.Type = def.Modulation.Type
	}
	if m.AMFrequency == 0 {
		m.AMFrequency = def.Modulation.AMFrequency
	}
	if m.AMVppMin == 0 && m.AMVppMax == 0 {
		m.AMVppMin, m.AMVppMax = def.Modulation.AMVppMin, def.Modulation.AMVppMax
	}
	if m.FMFreqMin == 0 && m.FMFreqMax == 0 {
		m.FMFreqMin, m.FMFreqMax = def.Modulation.FMFreqMin, def.Modulation.FMFreqMax
	}

	if config.Serial.Device == "" {
		config.Serial.Device = def.Serial.Device
	}
	if config.Serial.Baud == 0 {
		config.Serial.Baud = def.Serial.Baud
	}
	if config.Serial.AckTimeoutMS == 0 {
		config.Serial.AckTimeoutMS = def.Serial.AckTimeoutMS
	}
	if config.Serial.Retries == 0 {
		config.Serial.Retries = def.Serial.Retries
	}
}

// DefaultConfig returns the configuration of the stock board
func DefaultConfig() *GeneratorConfig {
	m := core.DefaultModulation()
	return &GeneratorConfig{
		DDSClock:      core.DefaultDDSClock,
		PWMClock:      core.DefaultPWMClock,
		MaxSampleRate: core.MaxSampleRate,
		Wav: WavConfig{
			Path:       core.DefaultWavPath,
			DataOffset: core.WavDataOffset,
		},
		Modulation: ModulationConfig{
			Type:        "off",
			AMFrequency: m.AM.Frequency,
			AMVppMin:    m.AM.VppMin,
			AMVppMax:    m.AM.VppMax,
			FMFreqMin:   m.FM.FreqMin,
			FMFreqMax:   m.FM.FreqMax,
		},
		Serial: SerialConfig{
			Device:       "/dev/ttyACM0",
			Baud:         250000,
			AckTimeoutMS: 500,
			Retries:      2,
		},
	}
}

// ParseModType maps a modulation name to its type
func ParseModType(s string) (core.ModType, error) {
	switch s {
	case "", "off":
		return core.ModOff, nil
	case "am":
		return core.ModAM, nil
	case "fm":
		return core.ModFM, nil
	}
	return core.ModOff, fmt.Errorf("unknown modulation type %q", s)
}

// ModulationSettings converts the modulation section for the engine
func (c *GeneratorConfig) ModulationSettings() core.Modulation {
	t, _ := ParseModType(c.Modulation.Type)
	m := core.Modulation{
		Type: t,
		AM: core.AMSettings{
			Frequency: c.Modulation.AMFrequency,
			VppMin:    c.Modulation.AMVppMin,
			VppMax:    c.Modulation.AMVppMax,
		},
		FM: core.FMSettings{
			FreqMin: c.Modulation.FMFreqMin,
			FreqMax: c.Modulation.FMFreqMax,
		},
	}
	m.Normalize()
	return m
}

// CoreSettings converts the configuration into generator settings
func (c *GeneratorConfig) CoreSettings() core.Settings {
	s := core.DefaultSettings()
	s.DDSClock = c.DDSClock
	s.PWMClock = c.PWMClock
	s.MaxSampleRate = c.MaxSampleRate
	s.WavPath = c.Wav.Path
	s.WavOffset = c.Wav.DataOffset
	s.ProbeWav = !c.Wav.SkipProbe
	s.Modulation = c.ModulationSettings()
	return s
}
