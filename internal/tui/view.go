package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"

	"github.com/npratt/okline/internal/model"
)

// View implements tea.Model. This renders the full TUI display.
func (m viewer) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Handle too small terminal
	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderDivider())
	sections = append(sections, m.renderCanvas())
	sections = append(sections, m.renderDetail())
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, strings.Join(sections, "\n"))
}

// renderTooSmall renders a message when the terminal is too small.
func (m viewer) renderTooSmall() string {
	msg := fmt.Sprintf("Terminal too small (%dx%d). Need %dx%d minimum.",
		m.width, m.height, minWidth, minHeight)
	return msg
}

// renderHeader renders the group title, position, layout and save state.
func (m viewer) renderHeader() string {
	snap := m.board.Snapshot()
	g := m.group()
	if g == nil {
		return styles.Group.Render("no timeline groups")
	}

	title := styles.Group.Render(g.Title)
	pos := styles.Counts.Render(fmt.Sprintf("(%d/%d)", m.groupIdx+1, len(snap.Groups)))
	done, total := m.progress()
	counts := styles.Counts.Render(fmt.Sprintf("%d/%d done", done, total))
	strategy := styles.Strategy.Render(fmt.Sprintf("%s · %s", m.opts.Strategy, m.density))

	right := strategy
	if !snap.Metadata.LastModified.IsZero() {
		right += styles.Counts.Render("  modified " + humanize.Time(snap.Metadata.LastModified))
	}

	left := lipgloss.JoinHorizontal(lipgloss.Top, title, " ", pos, "  ", counts)
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return truncate.String(left+strings.Repeat(" ", gap)+right, uint(m.width))
}

// progress counts terminal task nodes in the current layout.
func (m viewer) progress() (int, int) {
	done, total := 0, 0
	for _, n := range m.layout.Nodes {
		if n.Kind != model.KindTask {
			continue
		}
		total++
		if n.Status.IsTerminal() {
			done++
		}
	}
	return done, total
}

// renderDivider renders a horizontal divider line.
func (m viewer) renderDivider() string {
	return styles.Divider.Render(strings.Repeat("─", m.width))
}

// renderCanvas renders the visible window of the projected group.
func (m viewer) renderCanvas() string {
	w, h := m.canvasSize()
	if len(m.layout.Nodes) == 0 {
		placeholder := "Nothing to show. Create a timeline with 'okline timeline create'."
		padding := strings.Repeat("\n", h/2)
		body := padding + lipgloss.PlaceHorizontal(w, lipgloss.Center, placeholder)
		return lipgloss.PlaceVertical(h, lipgloss.Top, body)
	}
	return m.canvas.render(w, h, m.offX, m.offY, m.selected)
}

// renderDetail renders the prompt, the last message, or the selected node.
func (m viewer) renderDetail() string {
	if m.prompt != promptNone {
		return styles.Prompt.Render(m.input.View())
	}
	if m.message != "" {
		st := styles.Message
		if m.isError {
			st = styles.Error
		}
		return st.Render(truncate.StringWithTail(m.message, uint(m.width), "…"))
	}
	n := m.layout.Node(m.selected)
	if n == nil {
		return ""
	}
	timeline := n.TimelineID
	if g := m.group(); g != nil {
		if tl := g.Timeline(n.TimelineID); tl != nil {
			timeline = tl.Title
		}
	}
	line := fmt.Sprintf("%s %s [%s] in %s", statusIcon(n.Status), n.Title, n.Status, timeline)
	return styles.Footer.Render(truncate.StringWithTail(line, uint(m.width), "…"))
}
