package engine_test

import (
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/duffsim/internal/dynamo"
	"github.com/san-kum/duffsim/internal/engine"
	"github.com/san-kum/duffsim/internal/integrators"
)

type countingObserver struct {
	calls int
	lastT float64
}

func (c *countingObserver) OnStep(x dynamo.State, t float64) {
	c.calls++
	c.lastT = t
}

type countingMetric struct {
	observed int
	resets   int
}

func (c *countingMetric) Name() string                      { return "count" }
func (c *countingMetric) Observe(x dynamo.State, t float64) { c.observed++ }
func (c *countingMetric) Value() float64                    { return float64(c.observed) }
func (c *countingMetric) Reset()                            { c.observed = 0; c.resets++ }

// referenceFirstStep is one classical RK4 step from the default state,
// written out longhand.
func referenceFirstStep() (float64, float64) {
	d, a, b, g, w, h := 0.3, -1.0, 1.0, 0.5, 1.2, 0.01
	f := func(x, v, t float64) (float64, float64) {
		return v, g*math.Cos(w*t) - d*v - a*x - b*x*x*x
	}

	x, v := 1.0, 0.0
	k1x, k1v := f(x, v, 0)
	k2x, k2v := f(x+h*0.5*k1x, v+h*0.5*k1v, h*0.5)
	k3x, k3v := f(x+h*0.5*k2x, v+h*0.5*k2v, h*0.5)
	k4x, k4v := f(x+h*k3x, v+h*k3v, h)

	h6 := h / 6.0
	return x + h6*(k1x+2*k2x+2*k3x+k4x), v + h6*(k1v+2*k2v+2*k3v+k4v)
}

var _ = Describe("Engine", func() {
	var eng *engine.Engine

	BeforeEach(func() {
		eng = engine.New()
	})

	Context("before initialization", func() {
		It("exports an empty trajectory", func() {
			Expect(eng.Export()).To(BeEmpty())
			Expect(eng.Initialized()).To(BeFalse())
		})

		It("rejects Advance", func() {
			Expect(eng.Advance(1)).To(MatchError(dynamo.ErrUninitializedEngine))
			Expect(eng.Advance(0)).To(MatchError(dynamo.ErrUninitializedEngine))
		})

		It("has no state", func() {
			_, err := eng.State()
			Expect(err).To(MatchError(dynamo.ErrUninitializedEngine))
		})
	})

	Context("after Initialize", func() {
		BeforeEach(func() {
			eng.Initialize()
		})

		It("starts from the documented default", func() {
			Expect(eng.Export()).To(BeEmpty())
			s, err := eng.State()
			Expect(err).NotTo(HaveOccurred())
			Expect(s).To(Equal(engine.Sample{Position: 1.0, Velocity: 0.0, Time: 0.0}))
			Expect(eng.Parameters()).To(Equal(engine.DefaultParameters()))
		})

		It("is idempotent", func() {
			Expect(eng.Advance(25)).To(Succeed())
			eng.Initialize()
			eng.Initialize()
			Expect(eng.Export()).To(BeEmpty())
			s, _ := eng.State()
			Expect(s).To(Equal(engine.Sample{Position: 1.0}))
			Expect(eng.Steps()).To(BeZero())
		})

		It("treats Advance(0) as a no-op", func() {
			Expect(eng.Advance(3)).To(Succeed())
			before, _ := eng.State()
			traj := eng.Export()

			Expect(eng.Advance(0)).To(Succeed())

			after, _ := eng.State()
			Expect(after).To(Equal(before))
			Expect(eng.Export()).To(Equal(traj))
		})

		It("rejects a negative step count without changing anything", func() {
			Expect(eng.Advance(5)).To(Succeed())
			before, _ := eng.State()
			traj := eng.Export()

			Expect(eng.Advance(-1)).To(MatchError(dynamo.ErrInvalidStepCount))

			after, _ := eng.State()
			Expect(after).To(Equal(before))
			Expect(eng.Export()).To(Equal(traj))
		})

		It("reproduces the reference first RK4 step bit for bit", func() {
			Expect(eng.Advance(1)).To(Succeed())
			traj := eng.Export()
			Expect(traj).To(HaveLen(1))

			x, v := referenceFirstStep()
			Expect(traj[0].Position).To(Equal(x))
			Expect(traj[0].Velocity).To(Equal(v))
			Expect(traj[0].Time).To(Equal(0.01))

			Expect(traj[0].Position).To(BeNumerically("~", 1.0000249743023015, 1e-15))
			Expect(traj[0].Velocity).To(BeNumerically("~", 0.0049922211653648475, 1e-15))
		})

		It("records one sample per step in chronological order", func() {
			Expect(eng.Advance(100)).To(Succeed())
			traj := eng.Export()
			Expect(traj).To(HaveLen(100))
			for i := 1; i < len(traj); i++ {
				Expect(traj[i].Time).To(BeNumerically(">", traj[i-1].Time))
			}
			s, _ := eng.State()
			Expect(traj[len(traj)-1]).To(Equal(s))
		})

		It("keeps elapsed time at n times the step size", func() {
			for _, n := range []int{1, 7, 100, 12345} {
				eng.Initialize()
				Expect(eng.Advance(n)).To(Succeed())
				s, _ := eng.State()
				Expect(s.Time).To(Equal(float64(n) * engine.DefaultStepSize))
			}
		})

		It("makes split calls identical to a single call", func() {
			Expect(eng.Advance(300)).To(Succeed())
			Expect(eng.Advance(700)).To(Succeed())
			split := eng.Export()
			splitState, _ := eng.State()

			other := engine.New()
			other.Initialize()
			Expect(other.Advance(1000)).To(Succeed())

			Expect(split).To(Equal(other.Export()))
			otherState, _ := other.State()
			Expect(splitState).To(Equal(otherState))
		})

		It("returns an independent copy from Export", func() {
			Expect(eng.Advance(2)).To(Succeed())
			traj := eng.Export()
			traj[0].Position = 42
			Expect(eng.Export()[0].Position).NotTo(Equal(42.0))
		})

		It("clears the trajectory but keeps the state", func() {
			Expect(eng.Advance(10)).To(Succeed())
			before, _ := eng.State()
			eng.Clear()
			Expect(eng.Len()).To(BeZero())
			after, _ := eng.State()
			Expect(after).To(Equal(before))

			Expect(eng.Advance(1)).To(Succeed())
			Expect(eng.Export()[0].Time).To(BeNumerically("~", 0.11, 1e-12))
		})
	})

	Context("with custom parameters", func() {
		It("conserves energy of an undamped linear oscillator", func() {
			p := engine.Parameters{LinearStiffness: 1, StepSize: 0.01}
			Expect(eng.InitializeWith(p, engine.InitialState{Position: 1})).To(Succeed())
			Expect(eng.Advance(10000)).To(Succeed())

			e0 := 0.5
			for _, s := range eng.Export() {
				e := 0.5*s.Velocity*s.Velocity + 0.5*s.Position*s.Position
				Expect(math.Abs(e-e0) / e0).To(BeNumerically("<", 1e-8))
			}
		})

		It("drifts visibly under forward Euler", func() {
			eu := engine.New(engine.WithIntegrator(integrators.NewEuler()))
			p := engine.Parameters{LinearStiffness: 1, StepSize: 0.01}
			Expect(eu.InitializeWith(p, engine.InitialState{Position: 1})).To(Succeed())
			Expect(eu.Advance(10000)).To(Succeed())

			s, _ := eu.State()
			e := 0.5*s.Velocity*s.Velocity + 0.5*s.Position*s.Position
			Expect(e).To(BeNumerically(">", 1.0))
		})

		It("follows the analytic solution of the linear oscillator", func() {
			p := engine.Parameters{LinearStiffness: 4, StepSize: 0.001}
			Expect(eng.InitializeWith(p, engine.InitialState{Position: 1})).To(Succeed())
			Expect(eng.Advance(2000)).To(Succeed())
			s, _ := eng.State()
			Expect(s.Position).To(BeNumerically("~", math.Cos(2*2.0), 1e-9))
			Expect(s.Velocity).To(BeNumerically("~", -2*math.Sin(2*2.0), 1e-9))
		})

		DescribeTable("rejects invalid step sizes",
			func(h float64) {
				eng.Initialize()
				Expect(eng.Advance(3)).To(Succeed())
				before := eng.Export()

				p := engine.DefaultParameters()
				p.StepSize = h
				Expect(eng.InitializeWith(p, engine.DefaultInitialState())).To(MatchError(dynamo.ErrInvalidParameter))
				Expect(eng.Export()).To(Equal(before))
				Expect(eng.Parameters()).To(Equal(engine.DefaultParameters()))
			},
			Entry("zero", 0.0),
			Entry("negative", -0.01),
			Entry("+Inf", math.Inf(1)),
			Entry("NaN", math.NaN()),
		)

		It("rejects NaN coefficients", func() {
			p := engine.DefaultParameters()
			p.Damping = math.NaN()
			Expect(eng.InitializeWith(p, engine.DefaultInitialState())).To(MatchError(dynamo.ErrInvalidParameter))
			Expect(eng.Initialized()).To(BeFalse())
		})

		It("propagates divergence without failing", func() {
			p := engine.Parameters{CubicStiffness: -1, StepSize: 0.1}
			Expect(eng.InitializeWith(p, engine.InitialState{Position: 10})).To(Succeed())
			Expect(eng.Advance(200)).To(Succeed())
			Expect(eng.Export()).To(HaveLen(200))

			s, _ := eng.State()
			Expect(math.IsNaN(s.Position) || math.IsInf(s.Position, 0)).To(BeTrue())
			Expect(s.Time).To(BeNumerically("~", 20.0, 1e-9))
		})
	})

	Context("hooks", func() {
		It("notifies observers and metrics once per step", func() {
			obs := &countingObserver{}
			m := &countingMetric{}
			eng.Subscribe(obs)
			eng.AddMetric(m)

			eng.Initialize()
			Expect(m.resets).To(Equal(1))
			Expect(eng.Advance(40)).To(Succeed())

			Expect(obs.calls).To(Equal(40))
			Expect(obs.lastT).To(BeNumerically("~", 0.4, 1e-12))
			Expect(eng.Metrics()).To(HaveKeyWithValue("count", 40.0))

			eng.Initialize()
			Expect(eng.Metrics()).To(HaveKeyWithValue("count", 0.0))
		})
	})

	Context("concurrent callers", func() {
		It("serializes Advance so the chain matches a sequential run", func() {
			eng.Initialize()

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					Expect(eng.Advance(125)).To(Succeed())
					_ = eng.Export()
				}()
			}
			wg.Wait()

			ref := engine.New()
			ref.Initialize()
			Expect(ref.Advance(1000)).To(Succeed())
			Expect(eng.Export()).To(Equal(ref.Export()))
		})
	})
})
