package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
)

const (
	canvasWidth     = 60
	canvasHeight    = 20
	historyCapacity = 600
	frameInterval   = time.Second / 30
	maxStepsPerTick = 64
	// graphWidth leaves room for the y labels inside the stats panel.
	graphWidth = 28
)

// Source builds the integrator shown by the model; it is called again on
// restart.
type Source func() (integrators.Integrator, error)

type Frame struct {
	Snap   dynamo.Snapshot
	Report integrators.Report
	Energy float64
}

type TickMsg time.Time

type Options struct {
	Title string
	// X and Y are the coordinates of the phase portrait. Y < 0 plots
	// q_X against the momentum p_X, or against time when there is none.
	X, Y int
	// Energy, when set, drives the drift plot.
	Energy dynamo.Hamiltonian
	// MaxSteps pauses the model after that many steps; zero runs forever.
	MaxSteps int
	Theme    string
}

type Model struct {
	opts   Options
	source Source
	integ  integrators.Integrator

	history  []Frame
	drift    []float64
	e0       float64
	playHead int

	running      bool
	stepsPerTick int
	err          error
	iterations   int
	nonConverged int

	canvas   *Canvas
	theme    Theme
	styles   styles
	showHelp bool
}

func NewModel(source Source, opts Options) (Model, error) {
	m := Model{
		opts:         opts,
		source:       source,
		canvas:       NewCanvas(canvasWidth, canvasHeight),
		theme:        GetTheme(opts.Theme),
		stepsPerTick: 1,
	}
	m.styles = newStyles(m.theme)
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	d := m.integ.Dim()
	if opts.X < 0 || opts.X >= d || opts.Y >= d {
		return Model{}, fmt.Errorf("%w: phase coordinates (%d, %d) of %d", dynamo.ErrDimensionMismatch, opts.X, opts.Y, d)
	}
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "p":
			m.running = !m.running && m.err == nil
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "left":
			m.cycleCoordinate(-1)
		case "right":
			m.cycleCoordinate(1)
		case "+", "=":
			m.stepsPerTick = min(2*m.stepsPerTick, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "t":
			m.theme = nextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead >= 0 {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			} else {
				for i := 0; i < m.stepsPerTick && m.running; i++ {
					m.step()
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() error {
	in, err := m.source()
	if err != nil {
		return err
	}
	m.integ = in
	m.history = m.history[:0]
	m.drift = m.drift[:0]
	m.playHead = -1
	m.err = nil
	m.iterations, m.nonConverged = 0, 0
	m.running = true

	snap := in.Snapshot()
	m.e0 = m.energy(snap)
	m.push(Frame{Snap: snap, Report: integrators.Report{}, Energy: m.e0})
	return nil
}

func (m *Model) energy(snap dynamo.Snapshot) float64 {
	if m.opts.Energy == nil {
		return math.NaN()
	}
	return m.opts.Energy.Energy(snap.T, snap.Q)
}

// step advances the integrator once; an error pauses the model for good.
func (m *Model) step() {
	if m.opts.MaxSteps > 0 && m.integ.Steps() >= m.opts.MaxSteps {
		m.running = false
		return
	}
	rep, err := m.integ.Step()
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.iterations += rep.Iterations
	if !rep.Converged() {
		m.nonConverged++
	}
	snap := m.integ.Snapshot()
	m.push(Frame{Snap: snap, Report: rep, Energy: m.energy(snap)})
}

func (m *Model) push(f Frame) {
	m.history = append(m.history, f)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
	if !math.IsNaN(f.Energy) {
		d := f.Energy - m.e0
		if m.e0 != 0 {
			d /= math.Abs(m.e0)
		}
		m.drift = append(m.drift, d)
		if len(m.drift) > historyCapacity {
			m.drift = m.drift[1:]
		}
	}
}

// scrub moves through the history and pauses live stepping while the
// play head is away from the end.
func (m *Model) scrub(dir int) {
	if len(m.history) == 0 {
		return
	}
	if m.playHead < 0 {
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// cycleCoordinate moves the plotted coordinate X, skipping Y.
func (m *Model) cycleCoordinate(dir int) {
	d := m.integ.Dim()
	x := m.opts.X
	for i := 0; i < d; i++ {
		x = ((x+dir)%d + d) % d
		if x != m.opts.Y {
			m.opts.X = x
			return
		}
	}
}

// Current returns the frame on screen.
func (m Model) Current() Frame {
	if m.playHead >= 0 {
		return m.history[m.playHead]
	}
	return m.history[len(m.history)-1]
}

func (m Model) Err() error { return m.err }

func (m Model) coords(f Frame) (float64, float64) {
	x := f.Snap.Q[m.opts.X]
	switch {
	case m.opts.Y >= 0:
		return x, f.Snap.Q[m.opts.Y]
	case f.Snap.P != nil:
		return x, f.Snap.P[m.opts.X]
	}
	return f.Snap.T, x
}

func (m Model) phase() string {
	m.canvas.Clear()
	end := len(m.history)
	if m.playHead >= 0 {
		end = m.playHead + 1
	}
	xs, ys := make([]float64, end), make([]float64, end)
	for i, f := range m.history[:end] {
		xs[i], ys[i] = m.coords(f)
	}
	m.canvas.Path(xs, ys)
	return m.canvas.String()
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.failed.Render("FAILED")
	case m.playHead >= 0:
		return m.styles.paused.Render(fmt.Sprintf("REPLAY %d/%d", m.playHead+1, len(m.history)))
	case !m.running:
		return m.styles.paused.Render("PAUSED")
	}
	return m.styles.running.Render(fmt.Sprintf("RUNNING ×%d", m.stepsPerTick))
}

func (m Model) row(label, value string) string {
	return m.styles.label.Render(label) + m.styles.value.Render(value) + "\n"
}

func (m Model) View() string {
	f := m.Current()
	var s strings.Builder
	s.WriteString(m.styles.header.Render(strings.ToUpper(m.opts.Title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	s.WriteString(m.row("integrator", m.integ.Name()))
	s.WriteString(m.row("time", fmt.Sprintf("%.4f", f.Snap.T)))
	s.WriteString(m.row("step", fmt.Sprintf("%d", m.integ.Steps())))
	if !math.IsNaN(f.Energy) {
		s.WriteString(m.row("energy", fmt.Sprintf("%.10g", f.Energy)))
	}
	s.WriteString(m.row("iterations", fmt.Sprintf("%d", f.Report.Iterations)))
	s.WriteString(m.row("residual", fmt.Sprintf("%.2e", f.Report.Residual)))
	if steps := m.integ.Steps(); steps > 0 {
		ok := 1 - float64(m.nonConverged)/float64(steps)
		s.WriteString(m.row("converged", ProgressBar(ok, 16)+fmt.Sprintf(" %.0f%%", 100*ok)))
	}
	if m.err != nil {
		s.WriteString("\n" + m.styles.failed.Render(m.err.Error()) + "\n")
	}

	if len(m.history) > 1 {
		series := make([]float64, len(m.history))
		for i, f := range m.history {
			series[i] = f.Snap.Q[m.opts.X]
		}
		chart := asciigraph.Plot(series,
			asciigraph.Height(6),
			asciigraph.Width(graphWidth),
			asciigraph.Caption(fmt.Sprintf("q[%d]", m.opts.X)))
		s.WriteString(m.styles.graph.Render(chart) + "\n")
	}
	if len(m.drift) > 1 {
		drift, exp := decade(m.drift)
		caption := "relative energy drift"
		if exp != 0 {
			caption += fmt.Sprintf(" ×1e%d", exp)
		}
		chart := asciigraph.Plot(drift,
			asciigraph.Height(6),
			asciigraph.Width(graphWidth),
			asciigraph.Caption(caption))
		s.WriteString(m.styles.graph.Render(chart) + "\n")
	}
	s.WriteString(m.styles.help.Render("SP:Pause R:Restart Q:Quit [ ]:Scrub ←→:Coord +/-:Speed ?:Help"))

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.panel.Render(m.phase()),
		m.styles.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + body
	}
	return body
}

// decade rescales values into [-10, 10) by the power of ten of their
// largest magnitude, keeping plot labels short.
func decade(values []float64) ([]float64, int) {
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak == 0 || math.IsInf(peak, 0) || math.IsNaN(peak) {
		return values, 0
	}
	exp := int(math.Floor(math.Log10(peak)))
	if exp == 0 {
		return values, 0
	}
	scale := math.Pow(10, float64(-exp))
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * scale
	}
	return out, exp
}

const helpText = `
  Space, P  pause or resume
  R         restart from the initial data
  [ ]       step through the history
  ← →       previous or next plotted coordinate
  + -       double or halve the steps per frame
  T         next color theme
  ?         toggle this help
  Q         quit
`
