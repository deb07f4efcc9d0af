package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// MenuEntry is one selectable scenario.
type MenuEntry struct {
	Name        string
	Description string
	Config      dynamo.Config
}

// SystemFactory builds a fresh system for each live run so that tuning one
// run leaves the next untouched.
type SystemFactory func(settings dynamo.Settings) dynamo.System

// Menu lists scenarios and opens a Live view for the selected one.
type Menu struct {
	ctx       context.Context
	entries   []MenuEntry
	cursor    int
	settings  dynamo.Settings
	newSystem SystemFactory
	live      *Live
}

func NewMenu(ctx context.Context, entries []MenuEntry, settings dynamo.Settings, newSystem SystemFactory) Menu {
	return Menu{ctx: ctx, entries: entries, settings: settings, newSystem: newSystem}
}

func (m Menu) Init() tea.Cmd { return nil }

// Selected is the entry under the cursor, if any.
func (m Menu) Selected() (MenuEntry, bool) {
	if len(m.entries) == 0 {
		return MenuEntry{}, false
	}
	return m.entries[m.cursor], true
}

// Running reports whether a live view is open.
func (m Menu) Running() bool { return m.live != nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.live != nil {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			m.live.Close()
			m.live = nil
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		live := next.(Live)
		m.live = &live
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter", " ":
		entry, ok := m.Selected()
		if !ok {
			return m, nil
		}
		live := NewLive(m.ctx, m.newSystem(m.settings), m.settings, entry.Config)
		m.live = &live
		return m, live.Init()
	}
	return m, nil
}

func (m Menu) View() string {
	if m.live != nil {
		return m.live.View() + "\n" + dimmer.Render("esc: back to menu")
	}

	var s strings.Builder
	s.WriteString("\n  " + cyan.Bold(true).Render("ORBITPROP") + "  " + dim.Render("select a scenario") + "\n\n")
	if len(m.entries) == 0 {
		s.WriteString("  " + dim.Render("no scenarios") + "\n")
	}
	for i, e := range m.entries {
		span := fmt.Sprintf("%.0f s", e.Config.Duration())
		if i == m.cursor {
			s.WriteString(cyan.Render("  > ") + white.Bold(true).Render(fmt.Sprintf("%-14s", e.Name)))
		} else {
			s.WriteString("    " + dim.Render(fmt.Sprintf("%-14s", e.Name)))
		}
		s.WriteString(" " + dimmer.Render(fmt.Sprintf("%-36s %s", e.Description, span)) + "\n")
	}
	s.WriteString("\n  " + dimmer.Render("↑↓ select  enter run  q quit") + "\n")
	return s.String()
}
