// Package dynamo provides the shared vocabulary of the simulator.
//
// The package defines the small set of types every other package agrees on:
//
//   - [State]: phase-space vector, position first and velocity second
//   - [System]: equation of motion, dX/dt = f(X, t)
//   - [Integrator]: fixed-step numerical integrator
//   - [Observer] and [Metric]: hooks notified after each completed step
//
// It also carries the domain errors returned by the engine. Callers compare
// them with errors.Is:
//
//	if errors.Is(err, dynamo.ErrUninitializedEngine) {
//	    eng.Initialize()
//	}
package dynamo
