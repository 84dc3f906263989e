package metrics

import (
	"math"

	"github.com/san-kum/duffsim/internal/dynamo"
)

// Stability is the fraction of steps whose state stayed finite and inside
// threshold. A diverging run drives it toward zero.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, t float64) {
	s.samples++
	if !x.IsValid() {
		s.violations++
		return
	}
	for _, val := range x {
		if math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Default returns the metrics attached to every run.
func Default(dyn dynamo.Hamiltonian) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergyDrift(dyn),
		NewAmplitude(),
		NewStability(1e3),
	}
}
