package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/duffsim/internal/dynamo"
	"github.com/san-kum/duffsim/internal/engine"
)

type EnergySummary struct {
	Samples   int
	NonFinite int
	Initial   float64
	Final     float64
	Min       float64
	Max       float64
	Mean      float64
	StdDev    float64
	// Drift is the largest |E - Initial| / |Initial|.
	Drift float64
}

// EnergyStats evaluates dyn's energy at every finite sample. Non-finite
// samples are counted and skipped.
func EnergyStats(dyn dynamo.Hamiltonian, samples []engine.Sample) EnergySummary {
	energies := make([]float64, 0, len(samples))
	sum := EnergySummary{Samples: len(samples)}

	for _, s := range samples {
		e := dyn.Energy(dynamo.State{s.Position, s.Velocity})
		if math.IsNaN(e) || math.IsInf(e, 0) {
			sum.NonFinite++
			continue
		}
		energies = append(energies, e)
	}

	if len(energies) == 0 {
		return sum
	}

	sum.Initial = energies[0]
	sum.Final = energies[len(energies)-1]
	sum.Min = floats.Min(energies)
	sum.Max = floats.Max(energies)
	sum.Mean, sum.StdDev = stat.MeanStdDev(energies, nil)

	if sum.Initial != 0 {
		sum.Drift = math.Max(math.Abs(sum.Max-sum.Initial), math.Abs(sum.Min-sum.Initial)) / math.Abs(sum.Initial)
	}
	return sum
}
