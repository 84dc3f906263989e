package integrators

import "github.com/san-kum/duffsim/internal/dynamo"

// Euler is the explicit first-order scheme. Local error is O(dt²) and energy
// grows steadily on oscillatory systems; keep dt at or below 1e-3.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
