// Package config handles reading and writing the bb84d server
// configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure of the bb84d YAML config.
type Config struct {
	// ListenAddr is the host:port the REST API binds to.
	ListenAddr string `yaml:"listen_addr"`

	// Backend selects the default qubit implementation: "simulated" or
	// "circuit". Requests may override it per call.
	Backend string `yaml:"backend"`

	CORS     CORSConfig     `yaml:"cors"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Batch    BatchConfig    `yaml:"batch"`
}

// CORSConfig controls cross-origin access to the API.
type CORSConfig struct {
	// AllowedOrigins lists origins permitted to call the API. A single
	// "*" entry allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ProtocolConfig holds the default protocol parameters applied when a
// request omits them.
type ProtocolConfig struct {
	KeyLength              int     `yaml:"key_length"`
	TransmissionMultiplier int     `yaml:"transmission_multiplier"`
	InterceptRate          float64 `yaml:"intercept_rate"`
}

// BatchConfig bounds batch execution.
type BatchConfig struct {
	// MaxRuns caps the number of runs a single batch request may ask for.
	MaxRuns int `yaml:"max_runs"`

	// Workers is the number of concurrent protocol runs during a batch.
	Workers int `yaml:"workers"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		Backend:    "simulated",
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Protocol: ProtocolConfig{
			KeyLength:              256,
			TransmissionMultiplier: 4,
			InterceptRate:          0.5,
		},
		Batch: BatchConfig{
			MaxRuns: 100,
			Workers: 4,
		},
	}
}

// Read loads a Config from path. Returns an error if the file is missing
// or the YAML is malformed.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Write marshals cfg to path.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
