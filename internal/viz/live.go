package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/solarsim/internal/config"
	"github.com/san-kum/solarsim/internal/dynamo"
	"github.com/san-kum/solarsim/internal/experiment"
	"github.com/san-kum/solarsim/internal/physics"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	trailLength     = 200

	// WorldExtent is the half-size of the drawn cube.
	WorldExtent = 500.0
	// VelocityScale stretches velocity markers so they are visible.
	VelocityScale = 15.0
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model runs a system one step per frame and draws it.
type Model struct {
	cfg      *config.Config
	sys      *physics.System
	simCfg   dynamo.Config
	topology dynamo.Topology

	canvas *Canvas
	camera *Camera
	box    *Wireframe
	trails [][]r3.Vec

	running       bool
	selected      int
	energyHistory []float64
	history       []dynamo.Snapshot
	playHead      int
	showHelp      bool
	err           error
}

// NewModel builds the system described by cfg.
func NewModel(cfg *config.Config) (Model, error) {
	m := Model{
		cfg:      cfg,
		canvas:   NewCanvas(width, height),
		camera:   NewCamera(WorldExtent),
		box:      BoxWireframe(WorldExtent),
		running:  true,
		playHead: -1,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "c":
			m.toggleTopology()
		case "tab":
			if n := m.sys.Len(); n > 0 {
				m.selected = (m.selected + 1) % n
			}
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			NextTheme()
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
		case "0":
			m.camera.Reset()
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.scrub(1)
			}
		}
		return m, tick()
	}
	return m, nil
}

// step advances the system once. It pauses on errors, on a non-finite
// state and after the configured number of steps.
func (m *Model) step() {
	if m.sys.Steps() >= m.simCfg.Steps {
		m.running = false
		return
	}
	snap, err := m.sys.StepWith(m.topology)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.record(snap)
	if m.simCfg.ValidateState && !snap.Finite() {
		m.err = &dynamo.StepError{Step: snap.Step, Time: snap.Time, Wrapped: dynamo.ErrInvalidState}
		m.running = false
	}
}

func (m *Model) record(snap dynamo.Snapshot) {
	if e := physics.Energy(snap); !math.IsNaN(e) && !math.IsInf(e, 0) {
		m.energyHistory = appendCapped(m.energyHistory, e, historyCapacity)
	}
	m.history = appendCapped(m.history, snap, historyCapacity)
	for i, b := range snap.Bodies {
		if i < len(m.trails) {
			m.trails[i] = appendCapped(m.trails[i], b.Position, trailLength)
		}
	}
}

func appendCapped[T any](s []T, v T, capacity int) []T {
	s = append(s, v)
	if len(s) > capacity {
		s = s[1:]
	}
	return s
}

func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history)-1 {
		m.playHead = -1
	}
}

// reset rebuilds the system from the configuration. Bodies cannot be
// reused across systems, so every reset creates fresh ones.
func (m *Model) reset() error {
	sys, simCfg, err := experiment.BuildSystem(m.cfg)
	if err != nil {
		return err
	}
	m.sys, m.simCfg, m.topology = sys, simCfg, simCfg.Topology
	m.trails = make([][]r3.Vec, sys.Len())
	m.energyHistory = m.energyHistory[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.selected = 0
	m.err = nil
	m.record(sys.Snapshot(m.topology))
	return nil
}

func (m *Model) toggleTopology() {
	if m.topology == dynamo.Full {
		if _, ok := m.sys.Central(); !ok {
			m.err = dynamo.ErrNoCentralBody
			return
		}
		m.topology = dynamo.CentralOnly
	} else {
		m.topology = dynamo.Full
	}
	// the two topologies conserve different energies
	m.energyHistory = m.energyHistory[:0]
	if e := physics.Energy(m.sys.Snapshot(m.topology)); !math.IsNaN(e) && !math.IsInf(e, 0) {
		m.energyHistory = append(m.energyHistory, e)
	}
	m.err = nil
}

// current is the snapshot on screen: the replay position or the latest.
func (m Model) current() dynamo.Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	if len(m.history) == 0 {
		return m.sys.Snapshot(m.topology)
	}
	return m.history[len(m.history)-1]
}

// draw renders the box, trails, bodies and velocity markers.
func (m *Model) draw(snap dynamo.Snapshot) {
	m.canvas.Clear()
	Render3D(m.canvas, m.box, m.camera)

	cw, ch := m.canvas.Dots()
	for _, trail := range m.trails {
		for _, p := range trail {
			if x, y, _, ok := m.camera.Project(p, cw, ch); ok {
				m.canvas.Set(x, y)
			}
		}
	}

	DrawBodies(m.canvas, m.camera, snap, m.selected)
}

// DrawBodies draws every body of snap with its velocity marker. Central
// bodies and the selected body are drawn larger.
func DrawBodies(c *Canvas, cam *Camera, snap dynamo.Snapshot, selected int) {
	cw, ch := c.Dots()
	markers := NewWireframe()
	for i, b := range snap.Bodies {
		x, y, _, ok := cam.Project(b.Position, cw, ch)
		if !ok {
			continue
		}
		radius := 1
		if b.Role == dynamo.Central || i == selected {
			radius = 2
		}
		c.Disc(x, y, radius)
		if b.Role != dynamo.Central {
			markers.AddEdge(b.Position, r3.Add(b.Position, r3.Scale(VelocityScale, b.Velocity)))
		}
	}
	Render3D(c, markers, cam)
}

func (m Model) View() string {
	snap := m.current()
	m.draw(snap)
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	title := m.cfg.Name
	if title == "" {
		title = "solarsim"
	}
	s.WriteString(headerStyle().Render(strings.ToUpper(title)) + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(row("Method", m.simCfg.Method.String()))
	s.WriteString(row("Topology", m.topology.String()))
	s.WriteString(row("Step", fmt.Sprintf("%d / %d", snap.Step, m.simCfg.Steps)))
	s.WriteString(row("Time", fmt.Sprintf("%.2f", snap.Time)))
	if len(m.energyHistory) > 0 {
		s.WriteString(row("Energy", fmt.Sprintf("%.4f", m.energyHistory[len(m.energyHistory)-1])))
	}
	s.WriteString("\n" + m.diagnosticsPanel(snap))

	s.WriteString(helpStyle.Render("─────────────────────\n" +
		keyHints("spc", "pause", "r", "reset", "c", "topology", "q", "quit") + "\n" +
		keyHints("tab", "body", "[ ]", "replay", "xyz", "rotate", "+-", "zoom")))

	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return helpOverlay + "\n\n" + mainView
	}
	return mainView
}

func (m Model) statusLine() string {
	if m.err != nil {
		msg := m.err.Error()
		if errors.Is(m.err, dynamo.ErrInvalidState) {
			msg = "non-finite state, press r"
		}
		return errorStyle().Render("ERROR ") + valueStyle.Render(msg)
	}
	switch {
	case m.playHead != -1:
		return statusStyle(m.running).Render(fmt.Sprintf("REPLAY %d/%d", m.playHead+1, len(m.history)))
	case m.sys.Steps() >= m.simCfg.Steps:
		return statusStyle(false).Render("DONE")
	case m.running:
		return statusStyle(true).Render("RUNNING")
	}
	return statusStyle(false).Render("PAUSED")
}

// diagnosticsPanel shows the selected body's quantities and its recent
// distance to the central body.
func (m Model) diagnosticsPanel(snap dynamo.Snapshot) string {
	if m.selected >= len(snap.Bodies) {
		return ""
	}
	b := snap.Bodies[m.selected]
	var s strings.Builder
	s.WriteString(selectedStyle().Render(fmt.Sprintf("BODY %d  %s  m=%.2f", b.ID, b.Role, b.Mass)) + "\n")
	s.WriteString(row("Position", fmtVec(b.Position)))
	s.WriteString(row("Velocity", fmtVec(b.Velocity)))

	d := b.Diagnostics
	if !d.Valid {
		s.WriteString(labelStyle.Render("") + subtleStyle.Render("no diagnostics") + "\n")
		return s.String()
	}
	s.WriteString(row("L", fmtVec(d.AngularMomentum)))
	s.WriteString(row("Kinetic", fmt.Sprintf("%.2f", d.Kinetic)))
	s.WriteString(row("Potential", fmt.Sprintf("%.2f", d.Potential)))
	s.WriteString(row("Total", fmt.Sprintf("%.2f", d.Total)))

	if radii := m.radiusHistory(b.ID); len(radii) > 1 {
		s.WriteString(row("Radius", SparklineChart(radii, 30)))
	}
	return s.String()
}

func (m Model) radiusHistory(id dynamo.BodyID) []float64 {
	out := make([]float64, 0, len(m.history))
	for _, snap := range m.history {
		var center r3.Vec
		for _, b := range snap.Bodies {
			if b.Role == dynamo.Central {
				center = b.Position
				break
			}
		}
		if b, ok := snap.Body(id); ok && dynamo.FiniteVec(b.Position) {
			out = append(out, r3.Norm(r3.Sub(b.Position, center)))
		}
	}
	return out
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func fmtVec(v r3.Vec) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

const helpOverlay = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset to initial state   ║
║  C        - Toggle full/central      ║
║  Tab      - Select next body         ║
║  [ ]      - Replay history           ║
║  x/y/z    - Rotate (shift reverses)  ║
║  + -      - Zoom, 0 resets camera    ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`
