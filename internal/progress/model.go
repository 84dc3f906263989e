// Package progress drives an engine interactively in fixed-size chunks.
//
// Each chunk is one Advance call, so quitting between chunks always leaves
// the engine at a completed step.
package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/duffsim/internal/engine"
)

const DefaultChunk = 500

// Stepper is the part of the engine the progress view drives.
type Stepper interface {
	Advance(steps int) error
	State() (engine.Sample, error)
}

type chunkMsg struct {
	steps int
	err   error
}

type Model struct {
	eng     Stepper
	total   int
	chunk   int
	done    int
	state   engine.Sample
	err     error
	stopped bool
	started time.Time
}

func New(eng Stepper, total, chunk int) Model {
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	return Model{eng: eng, total: total, chunk: chunk, started: time.Now()}
}

func (m Model) Done() int      { return m.done }
func (m Model) Err() error     { return m.err }
func (m Model) Stopped() bool  { return m.stopped }
func (m Model) Finished() bool { return m.done >= m.total }
func (m Model) Init() tea.Cmd  { return m.next() }

func (m Model) next() tea.Cmd {
	n := m.chunk
	if rest := m.total - m.done; rest < n {
		n = rest
	}
	if n <= 0 {
		return tea.Quit
	}
	eng := m.eng
	return func() tea.Msg {
		return chunkMsg{steps: n, err: eng.Advance(n)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// A chunk is always in flight while the program runs. Quit
			// once it lands so the engine is idle when Run returns.
			m.stopped = true
			return m, nil
		}
	case chunkMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.done += msg.steps
		if s, err := m.eng.State(); err == nil {
			m.state = s
		}
		if m.stopped {
			return m, tea.Quit
		}
		return m, m.next()
	}
	return m, nil
}

func (m Model) View() string {
	frac := 1.0
	if m.total > 0 {
		frac = float64(m.done) / float64(m.total)
	}

	status := StatusRunning.Render("running")
	switch {
	case m.err != nil:
		status = StatusFailed.Render("failed: " + m.err.Error())
	case m.stopped && !m.Finished():
		status = StatusStopped.Render("stopped")
	case m.Finished():
		status = StatusRunning.Render("done")
	}

	var b strings.Builder
	b.WriteString(Title.Render("duffing oscillator") + "  " + status + "\n\n")
	b.WriteString(Bar(frac, 40) + fmt.Sprintf(" %3.0f%%\n\n", frac*100))
	b.WriteString(Field("steps", fmt.Sprintf("%d/%d", m.done, m.total)) + "   ")
	b.WriteString(Field("t", fmt.Sprintf("%.3f", m.state.Time)) + "   ")
	b.WriteString(Field("x", fmt.Sprintf("%+.5f", m.state.Position)) + "   ")
	b.WriteString(Field("v", fmt.Sprintf("%+.5f", m.state.Velocity)) + "\n")
	b.WriteString(Field("elapsed", time.Since(m.started).Round(time.Millisecond)) + "\n\n")
	b.WriteString(KeyHint.Render("q to stop after the current chunk"))
	return Panel.Render(b.String()) + "\n"
}

// Run drives eng for total steps in an interactive program and returns the
// final model. Stopping early is not an error.
func Run(ctx context.Context, eng Stepper, total, chunk int, opts ...tea.ProgramOption) (Model, error) {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(eng, total, chunk), opts...)

	final, err := p.Run()
	if err != nil {
		return Model{}, err
	}
	m := final.(Model)
	return m, m.Err()
}
