// Package tui is the interactive repository picker behind `gtctl link`.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/linking"
)

type loadedMsg struct{ err error }

type submittedMsg struct {
	redirect *linking.Redirect
	err      error
}

type redirectMsg struct{}

// Model is the Bubble Tea model for selecting repositories to link or unlink.
type Model struct {
	flow    *linking.Flow
	theme   Theme
	search  textinput.Model
	spinner spinner.Model

	visible  []domain.Repository
	cursor   int
	quitting bool
	redirect *linking.Redirect
}

// New creates a picker driven by flow and styled by theme.
func New(flow *linking.Flow, theme Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "search by name or URL"
	ti.Prompt = "/ "
	ti.CharLimit = 128

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.Style(RoleCursor)

	return Model{
		flow:    flow,
		theme:   theme,
		search:  ti,
		spinner: s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load)
}

func (m Model) load() tea.Msg {
	return loadedMsg{err: m.flow.Load(context.Background())}
}

func (m Model) reload() tea.Msg {
	return loadedMsg{err: m.flow.Reload(context.Background())}
}

func (m Model) submit() tea.Msg {
	r, err := m.flow.Submit(context.Background())
	return submittedMsg{redirect: r, err: err}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.refilter()
		return m, nil

	case submittedMsg:
		if msg.err != nil {
			return m, nil
		}
		m.redirect = msg.redirect
		return m, tea.Tick(msg.redirect.After, func(time.Time) tea.Msg { return redirectMsg{} })

	case redirectMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}
	if m.redirect != nil {
		return m, nil
	}

	if m.search.Focused() {
		switch msg.String() {
		case "esc", "enter":
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.refilter()
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "/":
		return m, m.search.Focus()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case " ", "x":
		if m.cursor < len(m.visible) {
			m.flow.Toggle(m.visible[m.cursor].ID)
		}
	case "r":
		if m.flow.Busy() {
			return m, nil
		}
		m.search.SetValue("")
		m.cursor = 0
		return m, m.reload
	case "enter":
		if m.flow.Busy() {
			return m, nil
		}
		return m, m.submit
	}
	return m, nil
}

func (m *Model) refilter() {
	m.visible = m.flow.Filter(m.search.Value())
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

// Redirect returns the navigation target after a successful submit.
func (m Model) Redirect() *linking.Redirect {
	return m.redirect
}

func (m Model) View() string {
	if m.quitting && m.redirect == nil {
		return ""
	}

	var b strings.Builder
	verb := "Link repositories to"
	if m.flow.Mode() == linking.ModeUnlink {
		verb = "Unlink repositories from"
	}
	name := "project"
	if p := m.flow.Project(); p != nil {
		name = p.Name
	}
	b.WriteString(m.theme.Render(RoleTitle, fmt.Sprintf("%s %s", verb, name)))
	b.WriteString("\n\n")

	switch m.flow.State() {
	case linking.StateIdle, linking.StateLoading:
		b.WriteString(fmt.Sprintf("%s Loading repositories...\n", m.spinner.View()))
		return b.String()
	case linking.StateDone:
		b.WriteString(m.theme.Render(RoleSuccess, "✓ "+m.flow.Success()))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	switch {
	case len(m.flow.Candidates()) == 0 && m.flow.Mode() == linking.ModeUnlink:
		b.WriteString(m.theme.Render(RoleEmpty, "No repositories are linked to this project."))
		b.WriteString("\n")
	case len(m.flow.Candidates()) == 0:
		b.WriteString(m.theme.Render(RoleEmpty, "All repositories are already linked to this project."))
		b.WriteString("\n")
	case len(m.visible) == 0:
		b.WriteString(m.theme.Render(RoleEmpty, "No repositories match your search."))
		b.WriteString("\n")
	}

	for i, r := range m.visible {
		cursor := "  "
		if i == m.cursor {
			cursor = m.theme.Render(RoleCursor, "> ")
		}
		box := "[ ]"
		role := RoleItem
		if m.flow.IsSelected(r.ID) {
			box = "[x]"
			role = RoleSelected
		}
		line := m.theme.Render(role, fmt.Sprintf("%s %s", box, r.Name))
		if u := r.DisplayURL(); u != "" {
			line += " " + m.theme.Render(RoleURL, u)
		}
		b.WriteString(cursor + line + "\n")
	}

	b.WriteString("\n")
	if m.flow.State() == linking.StateSubmitting {
		b.WriteString(fmt.Sprintf("%s Submitting...\n", m.spinner.View()))
	} else if e := m.flow.Err(); e != "" {
		b.WriteString(m.theme.Render(RoleError, "✗ "+e))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Render(RoleStatusBar, fmt.Sprintf("%d selected", len(m.flow.Selected()))))
	b.WriteString("\n")
	b.WriteString(m.theme.Render(RoleHelp, "↑/↓: move • space: toggle • /: search • enter: submit • r: reload • q: quit"))
	b.WriteString("\n")
	return b.String()
}
