package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/okline/internal/graph"
	"github.com/npratt/okline/internal/layout"
	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/recurrence"
)

// Update implements tea.Model.
func (m viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-20, 10)
		m.ensureVisible()
		return m, nil

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.handlePromptKey(msg)
		}
		return m.handleKey(msg)

	case snapshotMsg:
		if err := m.board.Reset(msg.snap); err != nil {
			m.logger.Warn("external change rejected", "error", err)
			m.setMessage("ignored external change: "+err.Error(), true)
		} else {
			m.refresh()
			m.setMessage("reloaded: data file changed on disk", false)
		}
		return m, m.waitForUpdate()

	case updatesClosedMsg:
		m.updates = nil
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input outside of the prompt.
func (m viewer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.move(dirUp)
	case key.Matches(msg, m.keys.Down):
		m.move(dirDown)
	case key.Matches(msg, m.keys.Left):
		m.move(dirLeft)
	case key.Matches(msg, m.keys.Right):
		m.move(dirRight)

	case key.Matches(msg, m.keys.NextGroup):
		m.cycleGroup(1)
	case key.Matches(msg, m.keys.PrevGroup):
		m.cycleGroup(-1)

	case key.Matches(msg, m.keys.Done):
		m.setStatus(model.StatusDone)
	case key.Matches(msg, m.keys.Skip):
		m.setStatus(model.StatusSkipped)
	case key.Matches(msg, m.keys.Reopen):
		m.setStatus(model.StatusTodo)

	case key.Matches(msg, m.keys.AddAfter):
		return m.openPrompt(promptAddAfter)
	case key.Matches(msg, m.keys.AddBefore):
		return m.openPrompt(promptAddBefore)
	case key.Matches(msg, m.keys.Remove):
		m.removeSelected()

	case key.Matches(msg, m.keys.Strategy):
		if m.opts.Strategy == layout.StrategyGrid {
			m.opts.Strategy = layout.StrategyTraversal
		} else {
			m.opts.Strategy = layout.StrategyGrid
		}
		m.refresh()
		m.setMessage("layout: "+string(m.opts.Strategy), false)
	case key.Matches(msg, m.keys.Density):
		m.density = m.density.next()
		m.refresh()
		m.setMessage("density: "+m.density.String(), false)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.ensureVisible()
	}

	return m, nil
}

// handlePromptKey routes keys to the text input until enter or esc.
func (m viewer) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		title := strings.TrimSpace(m.input.Value())
		kind := m.prompt
		m.closePrompt()
		if title == "" {
			m.setMessage("cancelled: empty title", false)
			return m, nil
		}
		mode := graph.After
		if kind == promptAddBefore {
			mode = graph.Before
		}
		m.insert(title, mode)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m viewer) openPrompt(kind promptKind) (tea.Model, tea.Cmd) {
	n := m.layout.Node(m.selected)
	if n == nil || n.Synthetic {
		m.setMessage("nodes can only be added to task timelines", true)
		return m, nil
	}
	m.prompt = kind
	m.input.Reset()
	m.input.Prompt = "add after: "
	if kind == promptAddBefore {
		m.input.Prompt = "add before: "
	}
	m.message = ""
	cmd := m.input.Focus()
	return m, cmd
}

func (m *viewer) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.Reset()
}

// cycleGroup moves to the next or previous group, wrapping around.
func (m *viewer) cycleGroup(step int) {
	n := len(m.board.Snapshot().Groups)
	if n == 0 {
		return
	}
	m.groupIdx = ((m.groupIdx+step)%n + n) % n
	m.selected = ""
	m.offX, m.offY = 0, 0
	m.message = ""
	m.refresh()
}

// setStatus completes, skips or reopens the selected node. Projected
// recurrence nodes only accept the first upcoming one, which realizes the
// next instance.
func (m *viewer) setStatus(st model.Status) {
	n := m.layout.Node(m.selected)
	if n == nil {
		return
	}
	var err error
	switch {
	case n.Synthetic && n.ID == n.TimelineID+"-future-0" && st != model.StatusTodo:
		var inst recurrence.Instance
		inst, err = m.board.CompleteNext(n.TimelineID, st)
		if err == nil {
			m.setMessage(fmt.Sprintf("%s: %s %s", inst.ScheduledDate, inst.Title, st), false)
		}
	case n.Synthetic:
		m.setMessage("not actionable: "+n.Title, true)
		return
	default:
		err = m.board.CompleteOrSkip(n.TimelineID, n.ID, st)
		if err == nil {
			m.setMessage(fmt.Sprintf("%s: %s", n.Title, st), false)
		}
	}
	if err != nil {
		m.logger.Warn("status change failed", "node", n.ID, "status", st, "error", err)
		m.setMessage(err.Error(), true)
		return
	}
	m.refresh()
}

func (m *viewer) insert(title string, mode graph.Mode) {
	n := m.layout.Node(m.selected)
	if n == nil {
		return
	}
	node, err := m.board.InsertNode(n.TimelineID, n.ID, graph.NodeSpec{Title: title}, mode)
	if err != nil {
		m.logger.Warn("insert failed", "source", n.ID, "mode", mode, "error", err)
		m.setMessage(err.Error(), true)
		return
	}
	m.selected = node.ID
	m.setMessage("added: "+title, false)
	m.refresh()
}

func (m *viewer) removeSelected() {
	n := m.layout.Node(m.selected)
	if n == nil {
		return
	}
	if n.Synthetic {
		m.setMessage("not actionable: "+n.Title, true)
		return
	}
	if err := m.board.RemoveNode(n.TimelineID, n.ID); err != nil {
		m.logger.Warn("remove failed", "node", n.ID, "error", err)
		m.setMessage(err.Error(), true)
		return
	}
	m.selected = ""
	m.setMessage("removed: "+n.Title, false)
	m.refresh()
}
