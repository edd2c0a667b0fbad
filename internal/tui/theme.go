package tui

import "github.com/charmbracelet/lipgloss"

// Role names a styled element of the linking screen.
type Role string

const (
	RoleTitle     Role = "title"
	RoleCursor    Role = "cursor"
	RoleSelected  Role = "selected"
	RoleItem      Role = "item"
	RoleURL       Role = "url"
	RoleEmpty     Role = "empty"
	RoleError     Role = "error"
	RoleSuccess   Role = "success"
	RoleHelp      Role = "help"
	RoleStatusBar Role = "status"
)

// Theme maps roles to styles. Missing roles render unstyled.
type Theme map[Role]lipgloss.Style

// Style returns the style for r.
func (t Theme) Style(r Role) lipgloss.Style {
	if s, ok := t[r]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// Render applies the style for r to s.
func (t Theme) Render(r Role, s string) string {
	return t.Style(r).Render(s)
}

// DefaultTheme is the 256-color palette used by gtctl.
func DefaultTheme() Theme {
	return Theme{
		RoleTitle:     lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		RoleCursor:    lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		RoleSelected:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		RoleItem:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		RoleURL:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		RoleEmpty:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		RoleError:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		RoleSuccess:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		RoleHelp:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		RoleStatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// PlainTheme renders everything unstyled.
func PlainTheme() Theme {
	return Theme{}
}
