package engine

import (
	"fmt"
	"math"

	"github.com/san-kum/duffsim/internal/dynamo"
	"github.com/san-kum/duffsim/internal/physics"
)

const (
	DefaultStepSize = 0.01
	DefaultPosition = 1.0
	DefaultVelocity = 0.0
)

// Parameters are fixed between initializations.
type Parameters struct {
	Damping          float64 `json:"damping" yaml:"damping"`
	LinearStiffness  float64 `json:"linear_stiffness" yaml:"linear_stiffness"`
	CubicStiffness   float64 `json:"cubic_stiffness" yaml:"cubic_stiffness"`
	ForcingAmplitude float64 `json:"forcing_amplitude" yaml:"forcing_amplitude"`
	ForcingFrequency float64 `json:"forcing_frequency" yaml:"forcing_frequency"`
	StepSize         float64 `json:"step_size" yaml:"step_size"`
}

func DefaultParameters() Parameters {
	return Parameters{
		Damping:          physics.DefaultDamping,
		LinearStiffness:  physics.DefaultLinearStiffness,
		CubicStiffness:   physics.DefaultCubicStiffness,
		ForcingAmplitude: physics.DefaultForcingAmplitude,
		ForcingFrequency: physics.DefaultForcingFrequency,
		StepSize:         DefaultStepSize,
	}
}

// Validate requires a strictly positive, finite step size and rejects NaN
// coefficients. Infinite coefficients are accepted and simply diverge.
func (p Parameters) Validate() error {
	if math.IsNaN(p.StepSize) || math.IsInf(p.StepSize, 0) || p.StepSize <= 0 {
		return fmt.Errorf("step size must be positive and finite, got %v: %w", p.StepSize, dynamo.ErrInvalidParameter)
	}
	return p.Model().Validate()
}

// Model returns a fresh oscillator carrying these coefficients.
func (p Parameters) Model() *physics.Duffing {
	return &physics.Duffing{
		Damping:          p.Damping,
		LinearStiffness:  p.LinearStiffness,
		CubicStiffness:   p.CubicStiffness,
		ForcingAmplitude: p.ForcingAmplitude,
		ForcingFrequency: p.ForcingFrequency,
	}
}

type InitialState struct {
	Position float64 `json:"position" yaml:"position"`
	Velocity float64 `json:"velocity" yaml:"velocity"`
}

func DefaultInitialState() InitialState {
	return InitialState{Position: DefaultPosition, Velocity: DefaultVelocity}
}

// Sample is one trajectory row. Field order matches the persisted column order.
type Sample struct {
	Position float64 `json:"position"`
	Velocity float64 `json:"velocity"`
	Time     float64 `json:"time"`
}
