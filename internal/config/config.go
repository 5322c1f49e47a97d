// Package config loads and validates marionette configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure for marionette.
type Config struct {
	Sandbox       SandboxConfig       `yaml:"sandbox"`
	Computer      ComputerConfig      `yaml:"computer"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// SandboxConfig selects and tunes the container runtime used for command
// execution.
type SandboxConfig struct {
	// Runtime is the container CLI to shell through. Only "docker" is
	// supported today.
	Runtime string `yaml:"runtime"`

	// ExecTimeout bounds a single command execution inside the sandbox.
	// Zero means no bound beyond request cancellation.
	ExecTimeout time.Duration `yaml:"exec_timeout"`
}

// ComputerConfig tunes the computer-use session.
type ComputerConfig struct {
	// OutputDir is the sandbox directory screenshots are written to.
	OutputDir string `yaml:"output_dir"`

	// ScreenshotDelay is the settle delay before post-action screenshots.
	ScreenshotDelay time.Duration `yaml:"screenshot_delay"`

	// TypingDelay is the inter-keystroke delay for type actions.
	TypingDelay time.Duration `yaml:"typing_delay"`

	// TypingChunkSize is how many characters are sent per type command.
	TypingChunkSize int `yaml:"typing_chunk_size"`

	// ScalingEnabled toggles coordinate and screenshot rescaling.
	// Defaults to true.
	ScalingEnabled *bool `yaml:"scaling_enabled"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ObservabilityConfig configures metrics and tracing.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Endpoint       string  `yaml:"endpoint"`
	ServiceName    string  `yaml:"service_name"`
	ServiceVersion string  `yaml:"service_version"`
	SamplingRate   float64 `yaml:"sampling_rate"`
	Insecure       bool    `yaml:"insecure"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	scaling := true
	return &Config{
		Sandbox: SandboxConfig{
			Runtime: "docker",
		},
		Computer: ComputerConfig{
			OutputDir:       "/tmp/outputs",
			ScreenshotDelay: 2 * time.Second,
			TypingDelay:     12 * time.Millisecond,
			TypingChunkSize: 50,
			ScalingEnabled:  &scaling,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Listen: "localhost:9464"},
			Tracing: TracingConfig{
				ServiceName:  "marionette",
				SamplingRate: 1.0,
			},
		},
	}
}

// Load reads the config file at path, expanding ${ENV} references, and
// merges it over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Sandbox.Runtime == "" {
		c.Sandbox.Runtime = def.Sandbox.Runtime
	}
	if c.Computer.OutputDir == "" {
		c.Computer.OutputDir = def.Computer.OutputDir
	}
	if c.Computer.ScreenshotDelay == 0 {
		c.Computer.ScreenshotDelay = def.Computer.ScreenshotDelay
	}
	if c.Computer.TypingDelay == 0 {
		c.Computer.TypingDelay = def.Computer.TypingDelay
	}
	if c.Computer.TypingChunkSize == 0 {
		c.Computer.TypingChunkSize = def.Computer.TypingChunkSize
	}
	if c.Computer.ScalingEnabled == nil {
		c.Computer.ScalingEnabled = def.Computer.ScalingEnabled
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.Observability.Metrics.Listen == "" {
		c.Observability.Metrics.Listen = def.Observability.Metrics.Listen
	}
	if c.Observability.Tracing.ServiceName == "" {
		c.Observability.Tracing.ServiceName = def.Observability.Tracing.ServiceName
	}
	if c.Observability.Tracing.SamplingRate == 0 {
		c.Observability.Tracing.SamplingRate = def.Observability.Tracing.SamplingRate
	}
}

// Validate rejects configurations the runtime cannot honor.
func (c *Config) Validate() error {
	if c.Sandbox.Runtime != "docker" {
		return fmt.Errorf("unsupported sandbox runtime %q", c.Sandbox.Runtime)
	}
	if c.Computer.TypingChunkSize < 1 {
		return fmt.Errorf("typing_chunk_size must be positive, got %d", c.Computer.TypingChunkSize)
	}
	if c.Computer.ScreenshotDelay < 0 {
		return fmt.Errorf("screenshot_delay must not be negative")
	}
	if c.Computer.TypingDelay < 0 {
		return fmt.Errorf("typing_delay must not be negative")
	}
	if c.Observability.Tracing.SamplingRate < 0 || c.Observability.Tracing.SamplingRate > 1 {
		return fmt.Errorf("tracing sampling_rate must be in [0,1], got %v", c.Observability.Tracing.SamplingRate)
	}
	return nil
}
