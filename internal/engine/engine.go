package engine

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/san-kum/duffsim/internal/dynamo"
	"github.com/san-kum/duffsim/internal/integrators"
	"github.com/san-kum/duffsim/internal/physics"
)

// Engine owns the oscillator state and its trajectory. All methods are safe
// for concurrent use; each Advance runs its whole step loop under one lock,
// so no caller ever sees a partially advanced chain.
type Engine struct {
	mu sync.Mutex

	log        *zap.Logger
	integrator dynamo.Integrator
	observers  []dynamo.Observer
	metrics    []dynamo.Metric

	initialized bool
	params      Parameters
	model       *physics.Duffing
	x           dynamo.State
	steps       uint64
	trajectory  []Sample
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithIntegrator replaces the default RK4 scheme.
func WithIntegrator(i dynamo.Integrator) Option {
	return func(e *Engine) {
		if i != nil {
			e.integrator = i
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		log:        zap.NewNop(),
		integrator: integrators.NewRK4(),
		trajectory: make([]Sample, 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers an observer that is called after every completed step
// while the engine lock is held. Observers must not call back into the engine.
func (e *Engine) Subscribe(o dynamo.Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

func (e *Engine) AddMetric(m dynamo.Metric) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = append(e.metrics, m)
}

// Initialize restores default parameters and state and clears the trajectory.
func (e *Engine) Initialize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(DefaultParameters(), DefaultInitialState())
}

// InitializeWith is Initialize with caller-supplied values. Invalid
// parameters leave the engine exactly as it was.
func (e *Engine) InitializeWith(p Parameters, s0 InitialState) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(p, s0)
	return nil
}

func (e *Engine) reset(p Parameters, s0 InitialState) {
	e.params = p
	e.model = p.Model()
	e.x = dynamo.State{s0.Position, s0.Velocity}
	e.steps = 0
	e.trajectory = e.trajectory[:0:0]
	e.initialized = true

	for _, m := range e.metrics {
		m.Reset()
	}

	e.log.Info("engine initialized",
		zap.String("integrator", e.integrator.Name()),
		zap.Float64("damping", p.Damping),
		zap.Float64("linear_stiffness", p.LinearStiffness),
		zap.Float64("cubic_stiffness", p.CubicStiffness),
		zap.Float64("forcing_amplitude", p.ForcingAmplitude),
		zap.Float64("forcing_frequency", p.ForcingFrequency),
		zap.Float64("step_size", p.StepSize),
		zap.Float64("position", s0.Position),
		zap.Float64("velocity", s0.Velocity),
	)
}

// Advance performs steps sequential fixed-size updates, appending one sample
// per step. Validation happens before the first step, so a failed call
// leaves state and trajectory untouched. Non-finite values are propagated,
// never clamped.
func (e *Engine) Advance(steps int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return dynamo.ErrUninitializedEngine
	}
	if steps < 0 {
		return fmt.Errorf("advance(%d): %w", steps, dynamo.ErrInvalidStepCount)
	}

	e.trajectory = slices.Grow(e.trajectory, steps)
	h := e.params.StepSize

	for i := 0; i < steps; i++ {
		e.x = e.integrator.Step(e.model, e.x, e.time(), h)
		e.steps++

		t := e.time()
		e.trajectory = append(e.trajectory, Sample{Position: e.x[0], Velocity: e.x[1], Time: t})

		for _, m := range e.metrics {
			m.Observe(e.x, t)
		}
		for _, obs := range e.observers {
			obs.OnStep(e.x, t)
		}
	}

	e.log.Debug("advanced",
		zap.Int("steps", steps),
		zap.Uint64("total_steps", e.steps),
		zap.Float64("time", e.time()),
		zap.Bool("finite", e.x.IsValid()),
	)
	return nil
}

// time is computed from the step count so that elapsed time is n·h to one
// rounding and split calls reproduce a single call exactly.
func (e *Engine) time() float64 {
	return float64(e.steps) * e.params.StepSize
}

// Export returns a copy of the trajectory. It is empty before initialization.
func (e *Engine) Export() []Sample {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Sample, len(e.trajectory))
	copy(out, e.trajectory)
	return out
}

// Clear drops the recorded trajectory but keeps the current state.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trajectory = e.trajectory[:0:0]
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.trajectory)
}

// State returns the current position, velocity and elapsed time.
func (e *Engine) State() (Sample, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return Sample{}, dynamo.ErrUninitializedEngine
	}
	return Sample{Position: e.x[0], Velocity: e.x[1], Time: e.time()}, nil
}

func (e *Engine) Parameters() Parameters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

func (e *Engine) Steps() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.steps
}

func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

func (e *Engine) IntegratorName() string {
	return e.integrator.Name()
}

func (e *Engine) Metrics() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]float64, len(e.metrics))
	for _, m := range e.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}
