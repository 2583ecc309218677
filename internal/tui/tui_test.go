package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/okline/internal/graph"
	"github.com/npratt/okline/internal/layout"
	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/testutil"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestViewer(t *testing.T, board *graph.Board, opts ...Option) viewer {
	t.Helper()
	m := newModel(New(board, opts...))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(viewer)
}

func press(m viewer, keys ...tea.KeyMsg) viewer {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(viewer)
	}
	return m
}

func nodeStatus(t *testing.T, b *graph.Board, id string) model.Status {
	t.Helper()
	_, _, n := b.Snapshot().FindNode(id)
	require.NotNil(t, n, "node %s", id)
	return n.Status
}

func TestParseDensity(t *testing.T) {
	assert.Equal(t, DensityCompact, ParseDensity("compact"))
	assert.Equal(t, DensityDetailed, ParseDensity("detailed"))
	assert.Equal(t, DensityStandard, ParseDensity("standard"))
	assert.Equal(t, DensityStandard, ParseDensity("bogus"))
	assert.Equal(t, "compact", DensityDetailed.next().String())
}

func TestStatusIcon(t *testing.T) {
	tests := map[model.Status]string{
		model.StatusTodo:    "o",
		model.StatusDoing:   "o",
		model.StatusDone:    ".",
		model.StatusSkipped: "-",
		model.StatusLock:    "x",
		model.Status("?"):   "?",
	}
	for st, want := range tests {
		assert.Equal(t, want, statusIcon(st), "status %q", st)
	}
}

func TestCharGrid(t *testing.T) {
	g := newGrid(6, 2)
	g.writeString(1, 0, "abc", nil)
	g.writeRune(10, 0, 'z', nil) // out of bounds
	g.writeString(4, 1, "héllo", nil)
	assert.Equal(t, " abc  \n    hé", g.String())
}

func TestCanvas_Cells(t *testing.T) {
	grp := testutil.Group("g", testutil.Diamond("one"))
	l, err := layout.Project(&grp, layout.DefaultOptions())
	require.NoError(t, err)
	c := newCanvas(&l, DensityCompact, 300, 100)

	w, h := DensityCompact.nodeDimensions()
	assert.Equal(t, cell{X: 0, Y: 0}, c.cells["one-start"])
	assert.Equal(t, cell{X: w + colGap, Y: 0}, c.cells["a"])
	assert.Equal(t, cell{X: 2 * (w + colGap), Y: h + rowGap}, c.cells["c"])

	cw, ch := c.size()
	assert.Equal(t, 3*(w+colGap)+w, cw)
	assert.Equal(t, 2*(h+rowGap)-rowGap, ch)

	out := c.render(cw, ch, 0, 0, "a")
	assert.Contains(t, out, "o a")
	assert.Contains(t, out, "> Start")
	assert.Contains(t, out, ">", "edges end in arrows")
}

func TestCanvas_TruncatesTitles(t *testing.T) {
	tl := testutil.ChainWithStart("t", "a-very-long-task-title-that-overflows")
	grp := testutil.Group("g", tl)
	l, err := layout.Project(&grp, layout.DefaultOptions())
	require.NoError(t, err)
	c := newCanvas(&l, DensityCompact, 300, 100)

	lines := c.formatNode(l.Node("a-very-long-task-title-that-overflows"), 16)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "…"))
	assert.LessOrEqual(t, len([]rune(lines[0])), 16)
}

func TestViewer_InitialSelection(t *testing.T) {
	b := graph.NewBoard(testutil.Snapshot(testutil.Group("g", testutil.ChainWithStart("t", "a", "b"))))
	m := newTestViewer(t, b)
	assert.Equal(t, "a", m.selected)

	empty := newTestViewer(t, graph.NewBoard(nil))
	assert.Empty(t, empty.selected)
	assert.Contains(t, empty.View(), "no timeline groups")
}

func TestViewer_Navigation(t *testing.T) {
	b := graph.NewBoard(testutil.Snapshot(testutil.Group("g", testutil.Diamond("one"))))
	m := newTestViewer(t, b)
	m.selected = "a"

	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "b", m.selected)
	m = press(m, runes("j"))
	assert.Equal(t, "c", m.selected)
	m = press(m, runes("l"))
	assert.Equal(t, "d", m.selected)
	m = press(m, runes("h"), runes("h"))
	assert.Equal(t, "a", m.selected)
	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "a", m.selected, "nothing above")
}

func TestViewer_CompleteSkipReopen(t *testing.T) {
	b := graph.NewBoard(testutil.Snapshot(testutil.Group("g", testutil.ChainWithStart("t", "a", "b"))))
	m := newTestViewer(t, b)

	m = press(m, runes("d"))
	assert.Equal(t, model.StatusDone, nodeStatus(t, b, "a"))
	assert.Equal(t, model.StatusTodo, m.layout.Node("b").Status, "successor unlocked")
	assert.False(t, m.isError)

	m = press(m, runes("s"))
	assert.Equal(t, model.StatusSkipped, nodeStatus(t, b, "a"))

	m = press(m, runes("o"))
	assert.Equal(t, model.StatusTodo, nodeStatus(t, b, "a"))
	assert.Equal(t, model.StatusLock, m.layout.Node("b").Status)

	m.selected = "t-start"
	m = press(m, runes("d"))
	assert.True(t, m.isError, "delimiters have no status of their own")
}

func TestViewer_AddAndRemove(t *testing.T) {
	b := graph.NewBoard(testutil.Snapshot(testutil.Group("g", testutil.ChainWithStart("t", "a", "b"))))
	m := newTestViewer(t, b)

	m = press(m, runes("a"))
	require.Equal(t, promptAddAfter, m.prompt)
	m = press(m, runes("mid"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, promptNone, m.prompt)

	_, tl := b.Snapshot().FindTimeline("t")
	require.NotNil(t, tl)
	mid := tl.Node(m.selected)
	require.NotNil(t, mid)
	assert.Equal(t, "mid", mid.Title)
	assert.Equal(t, []string{"a"}, mid.Prevs)
	assert.Equal(t, []string{"b"}, mid.Succs)

	m = press(m, runes("x"))
	_, tl = b.Snapshot().FindTimeline("t")
	assert.Nil(t, tl.Node(mid.ID))
	assert.Equal(t, "a", m.selected)

	m = press(m, runes("b"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, promptNone, m.prompt)
	m = press(m, runes("b"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "cancelled: empty title", m.message)
	_, tl = b.Snapshot().FindTimeline("t")
	assert.Len(t, tl.Nodes, 3)
}

func TestViewer_Recurrence(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC))
	weekly := testutil.WeeklyTimeline("r", testutil.Date(2025, 10, 20), []int{0, 1, 2, 3, 4, 5, 6}, "A", "B")
	b := graph.NewBoard(testutil.Snapshot(testutil.Group("g", weekly)), graph.WithClock(clk))
	m := newTestViewer(t, b)
	require.Equal(t, "r-future-0", m.selected)

	m = press(m, runes("d"))
	require.False(t, m.isError, m.message)
	_, tl := b.Snapshot().FindTimeline("r")
	require.Len(t, tl.Recurrence.CompletedTasks, 1)
	assert.Equal(t, "A", tl.Recurrence.CompletedTasks[0].Title)
	assert.Equal(t, "B", m.layout.Node("r-future-0").Title)
	assert.Contains(t, m.message, "2025-10-20")

	m.selected = "r-future-1"
	m = press(m, runes("d"))
	assert.True(t, m.isError)
	assert.Contains(t, m.message, "not actionable")

	m.selected = "r-future-0"
	m = press(m, runes("a"))
	assert.Equal(t, promptNone, m.prompt)
	assert.True(t, m.isError)
}

func TestViewer_GroupsStrategyDensity(t *testing.T) {
	b := graph.NewBoard(testutil.Snapshot(
		testutil.Group("g1", testutil.ChainWithStart("t1", "a")),
		testutil.Group("g2", testutil.ChainWithStart("t2", "z")),
	))
	m := newTestViewer(t, b, WithDensity(DensityCompact))

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.groupIdx)
	assert.Equal(t, "z", m.selected)
	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.groupIdx)
	m = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 1, m.groupIdx)

	m = press(m, runes("g"))
	assert.Equal(t, layout.StrategyGrid, m.layout.Strategy)
	m = press(m, runes("g"))
	assert.Equal(t, layout.StrategyTraversal, m.layout.Strategy)

	m = press(m, runes("v"))
	assert.Equal(t, DensityStandard, m.density)
	assert.Equal(t, DensityStandard, m.canvas.density)
}

func TestViewer_WithGroup(t *testing.T) {
	b := graph.NewBoard(testutil.Snapshot(
		testutil.Group("g1", testutil.ChainWithStart("t1", "a")),
		testutil.Group("g2", testutil.ChainWithStart("t2", "z")),
	))

	m := newTestViewer(t, b, WithGroup("g2"))
	assert.Equal(t, 1, m.groupIdx)
	assert.Equal(t, "z", m.selected)

	m = newTestViewer(t, b, WithGroup("missing"))
	assert.Equal(t, 0, m.groupIdx)
}

func TestViewer_ExternalUpdates(t *testing.T) {
	b := graph.NewBoard(testutil.Snapshot(testutil.Group("Home", testutil.ChainWithStart("t", "a"))))
	ch := make(chan *model.Snapshot, 1)
	m := newTestViewer(t, b, WithUpdates(ch))

	cmd := m.Init()
	require.NotNil(t, cmd)
	ch <- testutil.Snapshot(testutil.Group("Work", testutil.ChainWithStart("w", "x", "y")))
	msg := cmd()
	require.IsType(t, snapshotMsg{}, msg)

	next, cmd := m.Update(msg)
	m = next.(viewer)
	assert.NotNil(t, cmd, "keeps waiting for updates")
	assert.Equal(t, "Work", m.group().Title)
	assert.Equal(t, "x", m.selected)
	assert.Contains(t, m.message, "reloaded")

	// Snapshots that fail validation leave the board alone.
	bad := testutil.Snapshot(testutil.Group("g", testutil.Chain("c", "a")))
	bad.Groups[0].Timelines[0].Nodes[0].Prevs = []string{"ghost"}
	next, _ = m.Update(snapshotMsg{snap: bad})
	m = next.(viewer)
	assert.True(t, m.isError)
	assert.Equal(t, "Work", m.group().Title)

	close(ch)
	assert.Equal(t, updatesClosedMsg{}, m.waitForUpdate()())
	next, cmd = m.Update(updatesClosedMsg{})
	assert.Nil(t, cmd)
	assert.Nil(t, next.(viewer).waitForUpdate())
}

func TestViewer_InitWithoutUpdates(t *testing.T) {
	b := graph.NewBoard(testutil.Snapshot())
	m := newModel(New(b))
	assert.Nil(t, m.Init())
}

func TestViewer_View(t *testing.T) {
	b := graph.NewBoard(testutil.Snapshot(testutil.Group("Home", testutil.ChainWithStart("t", "a"))))

	m := newModel(New(b))
	assert.Equal(t, "Loading...", m.View())

	small := press(m)
	next, _ := small.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Contains(t, next.(viewer).View(), "Terminal too small")

	m = newTestViewer(t, b)
	out := m.View()
	assert.Contains(t, out, "Home")
	assert.Contains(t, out, "(1/1)")
	assert.Contains(t, out, "0/1 done")
	assert.Contains(t, out, "o a [todo] in t")
}
