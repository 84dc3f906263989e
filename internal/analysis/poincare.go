package analysis

import (
	"math"

	"github.com/san-kum/duffsim/internal/engine"
)

// PoincareSection records the state each time the trajectory crosses a
// multiple of period, interpolating linearly between the bracketing samples.
// It returns nil for a non-positive or infinite period.
func PoincareSection(samples []engine.Sample, period float64) []engine.Sample {
	if period <= 0 || math.IsInf(period, 0) || math.IsNaN(period) || len(samples) < 2 {
		return nil
	}

	section := make([]engine.Sample, 0)
	prev := samples[0]
	prevCycle := math.Floor(prev.Time / period)

	for _, curr := range samples[1:] {
		cycle := math.Floor(curr.Time / period)
		if cycle > prevCycle {
			target := cycle * period
			frac := (target - prev.Time) / (curr.Time - prev.Time)
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 0.5
			}

			section = append(section, engine.Sample{
				Position: prev.Position + frac*(curr.Position-prev.Position),
				Velocity: prev.Velocity + frac*(curr.Velocity-prev.Velocity),
				Time:     target,
			})
		}

		prev = curr
		prevCycle = cycle
	}

	return section
}
