package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/duffsim/internal/engine"
	"github.com/san-kum/duffsim/internal/integrators"
	"github.com/san-kum/duffsim/internal/trajectory"
)

const (
	DefaultSteps      = 10000
	DefaultOutput     = "duffing.dat"
	DefaultIntegrator = "rk4"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "console"
)

type Config struct {
	Integrator string              `yaml:"integrator"`
	Steps      int                 `yaml:"steps"`
	Parameters engine.Parameters   `yaml:"parameters"`
	InitState  engine.InitialState `yaml:"init_state"`
	Output     OutputConfig        `yaml:"output"`
	Log        LogConfig           `yaml:"log"`
}

type OutputConfig struct {
	Path string `yaml:"path"`
	// Delimiter is "space", "comma" or "tab".
	Delimiter string `yaml:"delimiter"`
	Header    bool   `yaml:"header"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: DefaultIntegrator,
		Steps:      DefaultSteps,
		Parameters: engine.DefaultParameters(),
		InitState:  engine.DefaultInitialState(),
		Output: OutputConfig{
			Path:      DefaultOutput,
			Delimiter: "space",
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads a YAML file over the defaults, so absent keys keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto reads a YAML file over an existing config, such as a preset.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", c.Steps)
	}
	if _, err := integrators.Get(c.Integrator); err != nil {
		return err
	}
	if _, err := c.TextOptions(); err != nil {
		return err
	}
	return c.Parameters.Validate()
}

// SetParam updates one named value. Model coefficients use the oscillator's
// names (delta, alpha, beta, gamma, omega); "dt", "x0" and "v0" address the
// step size and the initial state.
func (c *Config) SetParam(name string, v float64) error {
	switch name {
	case "dt":
		c.Parameters.StepSize = v
	case "x0":
		c.InitState.Position = v
	case "v0":
		c.InitState.Velocity = v
	default:
		m := c.Parameters.Model()
		if err := m.SetParam(name, v); err != nil {
			return err
		}
		c.Parameters.Damping = m.Damping
		c.Parameters.LinearStiffness = m.LinearStiffness
		c.Parameters.CubicStiffness = m.CubicStiffness
		c.Parameters.ForcingAmplitude = m.ForcingAmplitude
		c.Parameters.ForcingFrequency = m.ForcingFrequency
	}
	return nil
}

// TextOptions maps the output settings to the trajectory writer. Only the
// delimiters the reader splits on are accepted.
func (c *Config) TextOptions() (trajectory.TextOptions, error) {
	opts := trajectory.TextOptions{Header: c.Output.Header}
	switch strings.ToLower(c.Output.Delimiter) {
	case "", "space", " ":
		opts.Delimiter = ' '
	case "comma", ",":
		opts.Delimiter = ','
	case "tab", "\t":
		opts.Delimiter = '\t'
	default:
		return opts, fmt.Errorf("invalid delimiter %q (use space, comma or tab)", c.Output.Delimiter)
	}
	return opts, nil
}
