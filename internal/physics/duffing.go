package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/duffsim/internal/dynamo"
)

// Default coefficients put the oscillator in the double-well chaotic regime.
const (
	DefaultDamping          = 0.3
	DefaultLinearStiffness  = -1.0
	DefaultCubicStiffness   = 1.0
	DefaultForcingAmplitude = 0.5
	DefaultForcingFrequency = 1.2
)

// Duffing implements the forced, damped oscillator
//
//	x'' + δx' + αx + βx³ = γ cos(ωt)
//
// State layout is {position, velocity}. The forcing phase is taken from t
// rather than carried in the state vector.
type Duffing struct {
	Damping          float64 // δ
	LinearStiffness  float64 // α
	CubicStiffness   float64 // β
	ForcingAmplitude float64 // γ
	ForcingFrequency float64 // ω
}

func NewDuffing() *Duffing {
	return &Duffing{
		Damping:          DefaultDamping,
		LinearStiffness:  DefaultLinearStiffness,
		CubicStiffness:   DefaultCubicStiffness,
		ForcingAmplitude: DefaultForcingAmplitude,
		ForcingFrequency: DefaultForcingFrequency,
	}
}

func (d *Duffing) StateDim() int { return 2 }

func (d *Duffing) Derive(s dynamo.State, t float64) dynamo.State {
	if len(s) < 2 {
		return make(dynamo.State, 2)
	}
	x, v := s[0], s[1]
	return dynamo.State{v, d.Acceleration(x, v, t)}
}

// Acceleration evaluates the right-hand side of the equation of motion.
func (d *Duffing) Acceleration(x, v, t float64) float64 {
	return d.ForcingAmplitude*math.Cos(d.ForcingFrequency*t) - d.Damping*v - d.LinearStiffness*x - d.CubicStiffness*x*x*x
}

// Energy is the unforced mechanical energy ½v² + ½αx² + ¼βx⁴.
func (d *Duffing) Energy(s dynamo.State) float64 {
	if len(s) < 2 {
		return 0
	}
	x, v := s[0], s[1]
	return 0.5*v*v + 0.5*d.LinearStiffness*x*x + 0.25*d.CubicStiffness*x*x*x*x
}

// Period returns the forcing period 2π/ω, or +Inf for an unforced system.
func (d *Duffing) Period() float64 {
	if d.ForcingFrequency == 0 {
		return math.Inf(1)
	}
	return 2 * math.Pi / math.Abs(d.ForcingFrequency)
}

func (d *Duffing) Validate() error {
	for name, v := range d.GetParams() {
		if math.IsNaN(v) {
			return fmt.Errorf("%s is NaN: %w", name, dynamo.ErrInvalidParameter)
		}
	}
	return nil
}

func (d *Duffing) GetParams() map[string]float64 {
	return map[string]float64{
		"delta": d.Damping,
		"alpha": d.LinearStiffness,
		"beta":  d.CubicStiffness,
		"gamma": d.ForcingAmplitude,
		"omega": d.ForcingFrequency,
	}
}

func (d *Duffing) SetParam(n string, v float64) error {
	switch n {
	case "delta":
		d.Damping = v
	case "alpha":
		d.LinearStiffness = v
	case "beta":
		d.CubicStiffness = v
	case "gamma":
		d.ForcingAmplitude = v
	case "omega":
		d.ForcingFrequency = v
	default:
		return fmt.Errorf("%q: %w", n, dynamo.ErrUnknownParameter)
	}
	return nil
}
