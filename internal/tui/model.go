package tui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/okline/internal/graph"
	"github.com/npratt/okline/internal/layout"
	"github.com/npratt/okline/internal/model"
)

// Layout size constants.
const (
	// minWidth is the minimum terminal width for normal display.
	minWidth = 60
	// minHeight is the minimum terminal height for normal display.
	minHeight = 15
	// chromeHeight is the number of rows used by the header, divider and
	// detail line.
	chromeHeight = 3
)

// promptKind identifies what the text input is collecting.
type promptKind int

const (
	promptNone promptKind = iota
	promptAddAfter
	promptAddBefore
)

// direction is a selection move.
type direction int

const (
	dirUp direction = iota
	dirDown
	dirLeft
	dirRight
)

// viewer is the bubbletea model for the timeline viewer.
type viewer struct {
	board   *graph.Board
	opts    layout.Options
	density NodeDensity
	logger  *slog.Logger
	onQuit  func()
	updates <-chan *model.Snapshot

	// Current projection
	groupIdx int
	layout   layout.Layout
	canvas   *canvas
	selected string
	offX     int
	offY     int

	// Window dimensions
	width  int
	height int

	// Input and feedback
	prompt  promptKind
	input   textinput.Model
	message string
	isError bool

	keys keyMap
	help help.Model
}

// newModel creates the initial model for t.
func newModel(t *TUI) viewer {
	in := textinput.New()
	in.Placeholder = "task title"
	in.CharLimit = 200

	m := viewer{
		board:   t.board,
		opts:    t.layout,
		density: t.density,
		logger:  t.logger,
		onQuit:  t.onQuit,
		updates: t.updates,
		input:   in,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
	if t.group != "" {
		if i := t.board.Snapshot().GroupIndex(t.group); i >= 0 {
			m.groupIdx = i
		}
	}
	m.refresh()
	return m
}

// snapshotMsg carries a snapshot written by another process.
type snapshotMsg struct {
	snap *model.Snapshot
}

// updatesClosedMsg signals that the updates channel was closed.
type updatesClosedMsg struct{}

// Init implements tea.Model.
func (m viewer) Init() tea.Cmd {
	return m.waitForUpdate()
}

// waitForUpdate returns a command that blocks until the next external
// snapshot arrives. It is nil without an updates channel.
func (m viewer) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	ch := m.updates
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return snapshotMsg{snap: snap}
	}
}

// group returns the group being shown, or nil when there are none.
func (m *viewer) group() *model.TimelineGroup {
	snap := m.board.Snapshot()
	if len(snap.Groups) == 0 {
		return nil
	}
	return &snap.Groups[m.groupIdx]
}

// refresh re-projects the current group and keeps the selection when the
// node still exists.
func (m *viewer) refresh() {
	snap := m.board.Snapshot()
	if n := len(snap.Groups); n == 0 {
		m.groupIdx = 0
	} else if m.groupIdx >= n {
		m.groupIdx = n - 1
	}

	g := m.group()
	if g == nil {
		m.layout = layout.Layout{}
		m.canvas = newCanvas(&m.layout, m.density, m.opts.GapX, m.opts.GapY)
		m.selected = ""
		return
	}
	l, err := layout.Project(g, m.opts)
	if err != nil {
		m.setMessage(err.Error(), true)
		l = layout.Layout{GroupID: g.ID, Strategy: m.opts.Strategy}
	}
	m.layout = l
	opts := m.opts
	if opts.GapX <= 0 || opts.GapY <= 0 {
		def := layout.DefaultOptions()
		opts.GapX, opts.GapY = def.GapX, def.GapY
	}
	m.canvas = newCanvas(&m.layout, m.density, opts.GapX, opts.GapY)
	if m.layout.Node(m.selected) == nil {
		m.selected = m.firstSelectable()
	}
	m.ensureVisible()
}

// firstSelectable returns the first node the user can act on, falling back
// to the first node of the layout.
func (m *viewer) firstSelectable() string {
	for _, n := range m.layout.Nodes {
		if n.Kind == model.KindTask && n.Status == model.StatusTodo {
			return n.ID
		}
	}
	if len(m.layout.Nodes) > 0 {
		return m.layout.Nodes[0].ID
	}
	return ""
}

// canvasSize returns the rows and columns available to the canvas.
func (m *viewer) canvasSize() (int, int) {
	helpHeight := strings.Count(m.help.View(m.keys), "\n") + 1
	return max(m.width, 0), max(m.height-chromeHeight-helpHeight, 1)
}

// ensureVisible scrolls so the selected node is inside the canvas window.
func (m *viewer) ensureVisible() {
	p, ok := m.canvas.cells[m.selected]
	if !ok || m.width == 0 {
		return
	}
	w, h := m.canvas.density.nodeDimensions()
	cw, ch := m.canvasSize()
	if p.X < m.offX {
		m.offX = p.X
	} else if p.X+w > m.offX+cw {
		m.offX = p.X + w - cw
	}
	if p.Y < m.offY {
		m.offY = p.Y
	} else if p.Y+h > m.offY+ch {
		m.offY = p.Y + h - ch
	}
	m.offX, m.offY = max(m.offX, 0), max(m.offY, 0)
}

// move selects the nearest node in dir. Distance along the move axis
// counts once, distance across it twice, so nodes in line win.
func (m *viewer) move(dir direction) {
	from, ok := m.canvas.cells[m.selected]
	if !ok {
		m.selected = m.firstSelectable()
		return
	}
	best, bestScore := "", -1
	for _, n := range m.layout.Nodes {
		p := m.canvas.cells[n.ID]
		dx, dy := p.X-from.X, p.Y-from.Y
		var along, across int
		switch dir {
		case dirRight:
			along, across = dx, dy
		case dirLeft:
			along, across = -dx, dy
		case dirDown:
			along, across = dy, dx
		case dirUp:
			along, across = -dy, dx
		}
		if along <= 0 {
			continue
		}
		score := along + 2*abs(across)
		if bestScore < 0 || score < bestScore {
			best, bestScore = n.ID, score
		}
	}
	if best != "" {
		m.selected = best
		m.ensureVisible()
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// setMessage shows a status line message.
func (m *viewer) setMessage(msg string, isErr bool) {
	m.message = msg
	m.isError = isErr
}
