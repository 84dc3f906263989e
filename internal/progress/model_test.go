package progress

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/duffsim/internal/dynamo"
	"github.com/san-kum/duffsim/internal/engine"
)

// drive runs the update loop synchronously until a quit command appears.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil && i < 1000; i++ {
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return m
		}
		next, c := m.Update(msg)
		m = next.(Model)
		cmd = c
	}
	return m
}

func TestModel_RunsAllChunks(t *testing.T) {
	eng := engine.New()
	eng.Initialize()

	m := New(eng, 250, 100)
	m = drive(t, m, m.Init())

	if !m.Finished() || m.Done() != 250 {
		t.Errorf("expected 250 steps done, got %d", m.Done())
	}
	if eng.Len() != 250 {
		t.Errorf("engine recorded %d samples, want 250", eng.Len())
	}
	if m.Err() != nil {
		t.Errorf("unexpected error: %v", m.Err())
	}

	ref := engine.New()
	ref.Initialize()
	_ = ref.Advance(250)
	want, _ := ref.State()
	got, _ := eng.State()
	if got != want {
		t.Errorf("chunked run diverged from single run: %+v vs %+v", got, want)
	}
}

func TestModel_StopEarly(t *testing.T) {
	eng := engine.New()
	eng.Initialize()

	m := New(eng, 1000, 100)
	next, inFlight := m.Update(m.Init()())
	m = next.(Model)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(Model)

	if !m.Stopped() {
		t.Error("expected model to be stopped")
	}
	if cmd != nil {
		t.Fatal("stop must wait for the running chunk before quitting")
	}

	next, cmd = m.Update(inFlight())
	m = next.(Model)
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit once the running chunk lands")
	}
	if m.Done() != 200 || eng.Len() != 200 {
		t.Errorf("expected two completed chunks, got done=%d len=%d", m.Done(), eng.Len())
	}
	if !strings.Contains(m.View(), "stopped") {
		t.Error("view should report stopped")
	}
}

// gatedStepper blocks every Advance until release is closed.
type gatedStepper struct {
	entered chan struct{}
	release chan struct{}

	mu       sync.Mutex
	calls    int
	advanced int
}

func newGatedStepper() *gatedStepper {
	return &gatedStepper{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gatedStepper) Advance(n int) error {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	g.entered <- struct{}{}
	<-g.release

	g.mu.Lock()
	g.advanced += n
	g.mu.Unlock()
	return nil
}

func (g *gatedStepper) State() (engine.Sample, error) { return engine.Sample{}, nil }

func TestProgram_StopWaitsForRunningChunk(t *testing.T) {
	g := newGatedStepper()
	p := tea.NewProgram(New(g, 1000, 100),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)

	result := make(chan tea.Model, 1)
	go func() {
		final, _ := p.Run()
		result <- final
	}()

	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first chunk never started")
	}
	p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	close(g.release)

	var final tea.Model
	select {
	case final = <-result:
	case <-time.After(5 * time.Second):
		t.Fatal("program did not quit")
	}

	m := final.(Model)
	g.mu.Lock()
	defer g.mu.Unlock()
	if !m.Stopped() {
		t.Error("expected stopped model")
	}
	if g.calls != 1 || g.advanced != 100 {
		t.Errorf("expected exactly one finished chunk, got calls=%d advanced=%d", g.calls, g.advanced)
	}
	if m.Done() != g.advanced {
		t.Errorf("model reports %d steps, stepper advanced %d", m.Done(), g.advanced)
	}
}

func TestModel_Error(t *testing.T) {
	eng := engine.New()

	m := New(eng, 10, 5)
	m = drive(t, m, m.Init())

	if !errors.Is(m.Err(), dynamo.ErrUninitializedEngine) {
		t.Errorf("expected ErrUninitializedEngine, got %v", m.Err())
	}
	if m.Done() != 0 {
		t.Errorf("expected no progress, got %d", m.Done())
	}
}

func TestModel_ZeroSteps(t *testing.T) {
	eng := engine.New()
	eng.Initialize()

	m := New(eng, 0, 0)
	if _, ok := m.Init()().(tea.QuitMsg); !ok {
		t.Error("expected immediate quit for zero steps")
	}
}

func TestModel_View(t *testing.T) {
	eng := engine.New()
	eng.Initialize()

	m := New(eng, 200, 100)
	next, _ := m.Update(m.Init()())
	view := next.(Model).View()

	for _, want := range []string{"duffing oscillator", "100/200", "50%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBar(t *testing.T) {
	for _, f := range []float64{-1, 0, 0.5, 1, 2} {
		bar := Bar(f, 10)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 10 {
			t.Errorf("Bar(%v) has %d cells, want 10", f, n)
		}
	}
}
