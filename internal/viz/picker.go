package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/solarsim/internal/config"
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

var presetInfo = map[string]string{
	"circular":    "one planet, circular orbit",
	"inner-outer": "two planets, full interaction",
	"inclined":    "three planets off the plane",
	"scatter":     "random launch directions",
}

var fieldNames = []string{"method", "topology", "dt", "steps"}

// picker chooses a preset, lets the user tweak the run settings and then
// hands over to the live view.
type picker struct {
	state, cursor int
	presets       []string
	cfg           *config.Config
	fieldCursor   int
	editing       bool
	editBuf       string
	err           error
	live          Model
}

func newPicker() picker {
	return picker{state: stateMenu, presets: config.ListPresets()}
}

func (p picker) Init() tea.Cmd { return nil }

func (p picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.state == stateSim {
		next, cmd := p.live.Update(msg)
		p.live = next.(Model)
		return p, cmd
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		if p.state == stateMenu {
			return p.menuKey(key)
		}
		return p.configKey(key)
	}
	return p, nil
}

func (p picker) menuKey(msg tea.KeyMsg) (picker, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.presets)-1 {
			p.cursor++
		}
	case "enter", " ":
		p.cfg = config.GetPreset(p.presets[p.cursor])
		p.state, p.fieldCursor, p.err = stateConfig, 0, nil
	}
	return p, nil
}

func (p picker) configKey(msg tea.KeyMsg) (picker, tea.Cmd) {
	if p.editing {
		switch msg.String() {
		case "enter":
			p.err = p.applyEdit()
			p.editing, p.editBuf = false, ""
		case "esc":
			p.editing, p.editBuf = false, ""
		case "backspace":
			if len(p.editBuf) > 0 {
				p.editBuf = p.editBuf[:len(p.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.") {
				p.editBuf += s
			}
		}
		return p, nil
	}

	switch msg.String() {
	case "q", "esc":
		p.state = stateMenu
	case "up", "k":
		if p.fieldCursor > 0 {
			p.fieldCursor--
		}
	case "down", "j":
		if p.fieldCursor < len(fieldNames)-1 {
			p.fieldCursor++
		}
	case "enter", " ":
		switch fieldNames[p.fieldCursor] {
		case "method":
			p.cfg.Method = toggle(p.cfg.Method, "Euler", "Leapfrog")
		case "topology":
			p.cfg.Topology = toggle(p.cfg.Topology, "full", "central")
		default:
			p.editing, p.editBuf = true, ""
		}
	case "s":
		live, err := NewModel(p.cfg)
		if err != nil {
			p.err = err
			return p, nil
		}
		p.live, p.state = live, stateSim
		return p, live.Init()
	}
	return p, nil
}

func (p *picker) applyEdit() error {
	switch fieldNames[p.fieldCursor] {
	case "dt":
		v, err := strconv.ParseFloat(p.editBuf, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("dt must be a positive number")
		}
		p.cfg.Dt = v
	case "steps":
		v, err := strconv.Atoi(p.editBuf)
		if err != nil || v <= 0 {
			return fmt.Errorf("steps must be a positive integer")
		}
		p.cfg.Steps = v
	}
	return nil
}

func toggle(cur, a, b string) string {
	if strings.EqualFold(cur, a) {
		return b
	}
	return a
}

func (p picker) fieldValue(name string) string {
	switch name {
	case "method":
		return p.cfg.Method
	case "topology":
		return p.cfg.Topology
	case "dt":
		return strconv.FormatFloat(p.cfg.Dt, 'g', -1, 64)
	case "steps":
		return strconv.Itoa(p.cfg.Steps)
	}
	return ""
}

func (p picker) View() string {
	switch p.state {
	case stateConfig:
		return p.viewConfig()
	case stateSim:
		return p.live.View()
	}
	return p.viewMenu()
}

func (p picker) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + headerStyle().Render("SOLARSIM") + "\n    " + subtleStyle.Render("gravitational n-body simulator") + "\n\n")
	for i, name := range p.presets {
		line := fmt.Sprintf("%-14s %s", name, presetInfo[name])
		if i == p.cursor {
			b.WriteString("    " + selectedStyle().Render("▸ "+line) + "\n")
		} else {
			b.WriteString("    " + subtleStyle.Render("  "+line) + "\n")
		}
	}
	b.WriteString("\n    " + keyHints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (p picker) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + headerStyle().Render(strings.ToUpper(p.cfg.Name)) + "\n")
	b.WriteString("    " + subtleStyle.Render(fmt.Sprintf("%d bodies", p.bodyCount())) + "\n\n")
	for i, name := range fieldNames {
		val := p.fieldValue(name)
		if p.editing && i == p.fieldCursor {
			val = p.editBuf + "_"
		}
		line := fmt.Sprintf("%-10s %10s", name, val)
		if i == p.fieldCursor {
			b.WriteString("    " + selectedStyle().Render("▸ "+line) + "\n")
		} else {
			b.WriteString("    " + subtleStyle.Render("  "+line) + "\n")
		}
	}
	if p.err != nil {
		b.WriteString("\n    " + errorStyle().Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHints("j/k", "select", "enter", "edit", "s", "start", "esc", "back") + "\n")
	return b.String()
}

func (p picker) bodyCount() int {
	if p.cfg.Scatter != nil {
		return p.cfg.Scatter.Count + 1
	}
	return len(p.cfg.Bodies)
}

// RunInteractive starts at the preset menu.
func RunInteractive() error {
	_, err := tea.NewProgram(newPicker(), tea.WithAltScreen()).Run()
	return err
}

// RunLive opens the live view for cfg directly.
func RunLive(cfg *config.Config) error {
	m, err := NewModel(cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
