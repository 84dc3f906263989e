package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/duffsim/internal/engine"
)

var ErrTooFewSamples = errors.New("analysis: too few finite samples")

// PowerSpectrum returns |X_k|² for k in [0, n/2] of the mean-removed signal.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}

	centered := make([]float64, len(data))
	copy(centered, data)
	floats.AddConst(-stat.Mean(data, nil), centered)

	spectrum := fft.FFTReal(centered)
	power := make([]float64, len(data)/2+1)
	for k := range power {
		a := cmplx.Abs(spectrum[k])
		power[k] = a * a
	}
	return power
}

type Peak struct {
	Bin              int
	Power            float64
	CyclicFrequency  float64 // Hz
	AngularFrequency float64 // rad/s
}

// Period is 1/f, or +Inf for a zero-frequency peak.
func (p Peak) Period() float64 {
	if p.CyclicFrequency == 0 {
		return math.Inf(1)
	}
	return 1 / p.CyclicFrequency
}

// DominantFrequency finds the strongest non-DC component of the position
// signal. Samples are assumed evenly spaced by stepSize.
func DominantFrequency(samples []engine.Sample, stepSize float64) (Peak, error) {
	data := make([]float64, 0, len(samples))
	for _, s := range samples {
		if math.IsNaN(s.Position) || math.IsInf(s.Position, 0) {
			break
		}
		data = append(data, s.Position)
	}
	if len(data) < 4 || stepSize <= 0 {
		return Peak{}, ErrTooFewSamples
	}

	power := PowerSpectrum(data)
	best := Peak{}
	for k := 1; k < len(power); k++ {
		if power[k] > best.Power {
			best = Peak{Bin: k, Power: power[k]}
		}
	}

	best.CyclicFrequency = float64(best.Bin) / (float64(len(data)) * stepSize)
	best.AngularFrequency = 2 * math.Pi * best.CyclicFrequency
	return best, nil
}
