package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pdrew/stockfeed/internal/model"
)

// FeedConfig is the top-level configuration for the feed process.
type FeedConfig struct {
	Instance    InstanceConfig   `yaml:"instance"`
	Transport   TransportConfig  `yaml:"transport"`
	Feed        FeedSettings     `yaml:"feed"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Instruments []InstrumentSeed `yaml:"instruments"`
}

// InstanceConfig identifies this feed process.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// TransportConfig configures the WebSocket connection to the echo endpoint.
type TransportConfig struct {
	URL              string        `yaml:"url"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
}

// FeedSettings configures the scheduler and store behavior.
type FeedSettings struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	ConnectGrace  time.Duration `yaml:"connect_grace"`
	Volatility    float64       `yaml:"volatility"`
	FlashDuration time.Duration `yaml:"flash_duration"`
}

// MetricsConfig configures the ops HTTP server.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// InstrumentSeed is one entry of the fixed instrument universe.
type InstrumentSeed struct {
	Symbol       string  `yaml:"symbol"`
	CompanyName  string  `yaml:"company_name"`
	Description  string  `yaml:"description"`
	InitialPrice float64 `yaml:"initial_price"`
}

// ToModel converts a seed entry to its runtime instrument. Symbols are
// normalized to uppercase here, once, at the boundary.
func (s InstrumentSeed) ToModel() model.Instrument {
	return model.NewInstrument(
		strings.ToUpper(s.Symbol),
		s.CompanyName,
		s.Description,
		s.InitialPrice,
	)
}

// Load reads a YAML config file, expanding ${ENV} references, and applies
// defaults for unset fields.
func Load(path string) (*FeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg FeedConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadAndValidate loads a config file and validates it.
func LoadAndValidate(path string) (*FeedConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns a fully defaulted config, for running without a file.
func Default() *FeedConfig {
	cfg := &FeedConfig{}
	cfg.applyDefaults()
	return cfg
}
