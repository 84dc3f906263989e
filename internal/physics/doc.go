// Package physics provides the oscillator model driven by the engine.
//
// [Duffing] implements [dynamo.System] and evaluates the equation of motion
// as a pure function of state, time and coefficients. It also implements
// [dynamo.Configurable] for named parameter access and [dynamo.Hamiltonian]
// for energy monitoring:
//
//	dyn := physics.NewDuffing()
//	if h, ok := any(dyn).(dynamo.Hamiltonian); ok {
//	    energy := h.Energy(state)
//	}
package physics
