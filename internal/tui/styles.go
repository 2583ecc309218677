package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/okline/internal/model"
)

// styles contains the lipgloss styles used outside the canvas.
var styles = struct {
	// Layout styles
	Divider lipgloss.Style

	// Header styles
	Group    lipgloss.Style
	Strategy lipgloss.Style
	Counts   lipgloss.Style

	// Footer styles
	Footer  lipgloss.Style
	Message lipgloss.Style
	Error   lipgloss.Style
	Prompt  lipgloss.Style
}{
	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Group: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Strategy: lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")),

	Counts: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Message: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	Prompt: lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")),
}

// Canvas cell styles. The canvas compares them by pointer to group runs.
var (
	styleTodo = ptr(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")))

	styleDone = ptr(lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")))

	styleSkipped = ptr(lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Strikethrough(true))

	styleLock = ptr(lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")))

	styleSelected = ptr(lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")). // Bright cyan for selection
			Background(lipgloss.Color("236")))

	styleEdge = ptr(lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")))
)

func ptr(s lipgloss.Style) *lipgloss.Style {
	return &s
}

// styleForStatus returns the node style for a derived status.
func styleForStatus(st model.Status) *lipgloss.Style {
	switch st {
	case model.StatusDone:
		return styleDone
	case model.StatusSkipped:
		return styleSkipped
	case model.StatusLock:
		return styleLock
	default:
		return styleTodo
	}
}
