package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/orbit"
	"github.com/san-kum/orbitprop/internal/sim"
)

const (
	canvasWidth    = 60
	canvasHeight   = 24
	trailCapacity  = 4000
	radiusCapacity = 300
	defaultPerTick = 4
	maxPerTick     = 512
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(48)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// stream runs one propagation in the background and hands its samples over
// a channel. err is valid once samples is closed.
type stream struct {
	samples chan dynamo.Sample
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

func startStream(parent context.Context, dyn dynamo.System, settings dynamo.Settings, cfg dynamo.Config) *stream {
	ctx, cancel := context.WithCancel(parent)
	st := &stream{
		samples: make(chan dynamo.Sample, 256),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	prop := sim.New(dyn, settings)

	go func() {
		defer close(st.done)
		defer close(st.samples)
		st.err = prop.RunWithCallback(ctx, cfg, func(s dynamo.Sample) bool {
			select {
			case st.samples <- s:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return st
}

// stop cancels the run and waits for it to return.
func (st *stream) stop() {
	if st == nil {
		return
	}
	st.cancel()
	<-st.done
}

// Live streams a propagation into an orbit view. Tuning a parameter of a
// dynamo.Configurable system stops the running propagation and continues
// from the last received sample with the new value.
type Live struct {
	ctx       context.Context
	dyn       dynamo.System
	settings  dynamo.Settings
	initial   dynamo.Config
	st        *stream
	current   dynamo.Sample
	trail     []r3.Vec
	radii     []float64
	samples   int
	finished  bool
	err       error
	paused    bool
	perTick   int
	canvas    *Canvas
	camera    *Camera
	theme     Theme
	params    map[string]float64
	initParam map[string]float64
	paramKeys []string
	selected  int
}

// NewLive starts propagating cfg immediately. Call Close when the model
// is discarded without quitting through its own key bindings.
func NewLive(ctx context.Context, dyn dynamo.System, settings dynamo.Settings, cfg dynamo.Config) Live {
	params := make(map[string]float64)
	initParam := make(map[string]float64)
	if c, ok := dyn.(dynamo.Configurable); ok {
		for k, v := range c.GetParams() {
			params[k] = v
			initParam[k] = v
		}
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := Live{
		ctx:       ctx,
		dyn:       dyn,
		settings:  settings,
		initial:   cfg,
		perTick:   defaultPerTick,
		canvas:    NewCanvas(canvasWidth, canvasHeight),
		camera:    NewCamera(cfg.InitialState.Radius() * 1.5),
		theme:     Themes[0],
		params:    params,
		initParam: initParam,
		paramKeys: keys,
	}
	m.start(cfg)
	return m
}

func (m Live) Init() tea.Cmd { return tick() }

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Close()
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.restart()
		case "tab":
			if len(m.paramKeys) > 0 {
				m.selected = (m.selected + 1) % len(m.paramKeys)
			}
		case "up", "k":
			m.tune(1.05)
		case "down", "j":
			m.tune(0.95)
		case ">", ".":
			m.perTick = min(m.perTick*2, maxPerTick)
		case "<", ",":
			m.perTick = max(m.perTick/2, 1)
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "t":
			m.theme = nextTheme(m.theme)
		}
	case TickMsg:
		if !m.paused && !m.finished {
			m.drain()
		}
		return m, tick()
	}
	return m, nil
}

// Close stops the background propagation.
func (m *Live) Close() {
	m.st.stop()
}

func (m *Live) start(cfg dynamo.Config) {
	m.finished = false
	m.err = nil
	m.st = startStream(m.ctx, m.dyn, m.settings, cfg)
}

func (m *Live) restart() {
	m.st.stop()
	if c, ok := m.dyn.(dynamo.Configurable); ok {
		for k, v := range m.initParam {
			if err := c.SetParam(k, v); err == nil {
				m.params[k] = v
			}
		}
	}
	m.trail = m.trail[:0]
	m.radii = m.radii[:0]
	m.samples = 0
	m.current = dynamo.Sample{}
	m.camera.Extent = m.initial.InitialState.Radius() * 1.5
	m.start(m.initial)
}

func (m *Live) tune(factor float64) {
	c, ok := m.dyn.(dynamo.Configurable)
	if !ok || len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	value := m.params[key] * factor

	// The propagation goroutine reads the parameters, so it must be gone
	// before they change.
	m.st.stop()
	if err := c.SetParam(key, value); err != nil {
		m.err = err
		return
	}
	m.params[key] = value

	cfg := m.initial
	if m.samples > 0 {
		cfg.StartTime = m.current.Time
		cfg.InitialState = m.current.State
	}
	if cfg.StartTime >= cfg.StopTime {
		m.finished = true
		return
	}
	m.start(cfg)
}

func (m *Live) drain() {
	for i := 0; i < m.perTick; i++ {
		select {
		case s, ok := <-m.st.samples:
			if !ok {
				m.finished = true
				m.err = m.st.err
				return
			}
			m.record(s)
		default:
			return
		}
	}
}

func (m *Live) record(s dynamo.Sample) {
	// A continued run repeats the sample it started from.
	if m.samples > 0 && s.Time <= m.current.Time {
		return
	}
	m.current = s
	m.samples++

	m.trail = append(m.trail, s.State.Position)
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}
	m.radii = append(m.radii, s.State.Radius())
	if len(m.radii) > radiusCapacity {
		m.radii = m.radii[1:]
	}
	m.camera.Fit(s.State.Radius())
}

// Samples is the number of samples received so far.
func (m Live) Samples() int { return m.samples }

// Finished reports whether the propagation ended, and with which error.
func (m Live) Finished() (bool, error) { return m.finished, m.err }

func (m Live) View() string {
	m.canvas.Clear()
	RenderOrbit(m.canvas, m.camera, m.trail, EarthRadius)
	orbitView := canvasStyle.Render(lipgloss.NewStyle().Foreground(m.theme.Orbit).Render(m.canvas.String()))

	value := lipgloss.NewStyle().Foreground(m.theme.Text)
	accent := lipgloss.NewStyle().Foreground(m.theme.Accent).Bold(true)
	muted := lipgloss.NewStyle().Foreground(m.theme.Muted)

	var s strings.Builder
	name := m.initial.Name
	if name == "" {
		name = "orbit"
	}
	s.WriteString(accent.Render(strings.ToUpper(name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	span := m.initial.StopTime - m.initial.StartTime
	fraction := 1.0
	if span > 0 {
		fraction = (m.current.Time - m.initial.StartTime) / span
	}
	s.WriteString(ProgressBar(fraction, 30, m.theme.Good) + fmt.Sprintf(" %3.0f%%\n\n", fraction*100))

	st := m.current.State
	row := func(label, v string) {
		s.WriteString(labelStyle.Render(label) + value.Render(v) + "\n")
	}
	row("Time", fmt.Sprintf("%.1f s", m.current.Time))
	row("Radius", fmt.Sprintf("%.3f km", st.Radius()))
	row("Speed", fmt.Sprintf("%.4f km/s", st.Speed()))
	if h, ok := m.dyn.(dynamo.Hamiltonian); ok && m.samples > 0 {
		row("Energy", fmt.Sprintf("%.6f", h.Energy(st)))
	}
	if mu, ok := m.params["mu"]; ok && m.samples > 0 {
		if el, err := orbit.FromState(st, mu); err == nil {
			row("a / e", fmt.Sprintf("%.1f km / %.5f", el.A, el.E))
			row("i", fmt.Sprintf("%.3f°", orbit.Degrees(el.I)))
		}
	}
	row("Samples", fmt.Sprintf("%d (x%d)", m.samples, m.perTick))

	if len(m.radii) > 1 {
		s.WriteString("\n" + lineChart(m.radii, 30, 4, "radius") + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	if len(m.paramKeys) == 0 {
		s.WriteString(muted.Render("  (none)") + "\n")
	}
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-8s %.6g", k, m.params[k])
		if i == m.selected {
			s.WriteString(accent.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + muted.Render(line) + "\n")
		}
	}

	s.WriteString(muted.Render("\nSP:Pause R:Restart Q:Quit T:Theme\nTab/↑↓:Tune  x/y/z:Rotate  +/-:Zoom  </>:Speed"))
	return lipgloss.JoinHorizontal(lipgloss.Top, orbitView, statsStyle.Render(s.String()))
}

func (m Live) status() string {
	switch {
	case m.finished && m.err != nil:
		return lipgloss.NewStyle().Foreground(m.theme.Bad).Bold(true).Render("FAILED: " + m.err.Error())
	case m.finished:
		return lipgloss.NewStyle().Foreground(m.theme.Good).Bold(true).Render("DONE")
	case m.paused:
		return lipgloss.NewStyle().Foreground(m.theme.Accent).Bold(true).Render("PAUSED")
	default:
		return lipgloss.NewStyle().Foreground(m.theme.Good).Bold(true).Render("RUNNING")
	}
}
