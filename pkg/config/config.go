package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Synth  SynthConfig  `yaml:"synth"`
	Bands  []BandConfig `yaml:"bands"`
	Mock   MockConfig   `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// SynthConfig contains synthesis engine parameters.
type SynthConfig struct {
	SupplyVolts       float64 `yaml:"supply_volts"`        // Supply rail voltage, the amplitude ceiling (V)
	MaxTableSize      int     `yaml:"max_table_size"`      // Hard capacity of the waveform table
	MinIntervalMicros int     `yaml:"min_interval_us"`     // Timer-imposed floor on the sample interval (µs)
	MaxSampleRate     float64 `yaml:"max_sample_rate"`     // Ceiling on frequency × table size (samples/s)
	FallbackTableSize int     `yaml:"fallback_table_size"` // Table size for frequencies beyond all bands
}

// BandConfig maps an upper-bound frequency to a table resolution.
// Bands are ordered by ascending UpperHz; the first band whose bound
// covers the requested frequency applies.
type BandConfig struct {
	UpperHz   float64 `yaml:"upper_hz"`
	TableSize int     `yaml:"table_size"`
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Latency        time.Duration `yaml:"latency"`         // Simulated command round-trip latency
	StreamInterval time.Duration `yaml:"stream_interval"` // Rate at which output samples are streamed
	BufferSize     int           `yaml:"buffer_size"`     // Sample channel buffer size
	TraceCycles    int           `yaml:"trace_cycles"`    // Waveform cycles per streamed trace
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 115200,
		},
		Synth: SynthConfig{
			SupplyVolts:       3.3,
			MaxTableSize:      256,
			MinIntervalMicros: 20,
			MaxSampleRate:     40000,
			FallbackTableSize: 20,
		},
		Bands: []BandConfig{
			{UpperHz: 150, TableSize: 200},
			{UpperHz: 300, TableSize: 100},
			{UpperHz: 600, TableSize: 50},
			{UpperHz: 1200, TableSize: 30},
		},
		Mock: MockConfig{
			Latency:        5 * time.Millisecond,
			StreamInterval: 50 * time.Millisecond,
			BufferSize:     100,
			TraceCycles:    2,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Synth.SupplyVolts == 0 {
		c.Synth.SupplyVolts = def.Synth.SupplyVolts
	}
	if c.Synth.MaxTableSize == 0 {
		c.Synth.MaxTableSize = def.Synth.MaxTableSize
	}
	if c.Synth.MinIntervalMicros == 0 {
		c.Synth.MinIntervalMicros = def.Synth.MinIntervalMicros
	}
	if c.Synth.MaxSampleRate == 0 {
		c.Synth.MaxSampleRate = def.Synth.MaxSampleRate
	}
	if c.Synth.FallbackTableSize == 0 {
		c.Synth.FallbackTableSize = def.Synth.FallbackTableSize
	}

	if len(c.Bands) == 0 {
		c.Bands = def.Bands
	}

	if c.Mock.Latency == 0 {
		c.Mock.Latency = def.Mock.Latency
	}
	if c.Mock.StreamInterval == 0 {
		c.Mock.StreamInterval = def.Mock.StreamInterval
	}
	if c.Mock.BufferSize == 0 {
		c.Mock.BufferSize = def.Mock.BufferSize
	}
	if c.Mock.TraceCycles == 0 {
		c.Mock.TraceCycles = def.Mock.TraceCycles
	}
}
