package config

import (
	"sort"

	"github.com/san-kum/duffsim/internal/engine"
)

// Presets are named starting points. The YAML file and command-line flags
// are applied on top of them.
var Presets = map[string]*Config{
	// Double-well chaotic regime, the engine defaults.
	"chaotic": {
		Integrator: "rk4", Steps: 10000,
		Parameters: engine.DefaultParameters(),
		InitState:  engine.InitialState{Position: 1.0, Velocity: 0.0},
	},
	// Forced, damped linear oscillator (β = 0). Settles onto the analytic
	// steady state γ/√((α−ω²)² + (δω)²).
	"linear": {
		Integrator: "rk4", Steps: 30000,
		Parameters: engine.Parameters{Damping: 0.1, LinearStiffness: 1, ForcingAmplitude: 0.5, ForcingFrequency: 1.2, StepSize: 0.01},
		InitState:  engine.InitialState{Position: 0.0, Velocity: 0.0},
	},
	// Single-well hardening spring driven near resonance.
	"hardening": {
		Integrator: "rk4", Steps: 20000,
		Parameters: engine.Parameters{Damping: 0.1, LinearStiffness: 1, CubicStiffness: 0.2, ForcingAmplitude: 0.5, ForcingFrequency: 1.4, StepSize: 0.01},
		InitState:  engine.InitialState{Position: 0.0, Velocity: 0.0},
	},
	// Undamped, unforced linear oscillator for checking energy conservation.
	"undamped": {
		Integrator: "rk4", Steps: 10000,
		Parameters: engine.Parameters{LinearStiffness: 1, StepSize: 0.01},
		InitState:  engine.InitialState{Position: 1.0, Velocity: 0.0},
	},
}

// GetPreset returns a copy of the named preset with default output and
// logging settings, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Integrator = p.Integrator
	cfg.Steps = p.Steps
	cfg.Parameters = p.Parameters
	cfg.InitState = p.InitState
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
