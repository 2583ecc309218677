package graph

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/status"
	"github.com/npratt/okline/internal/testutil"
)

func newTestBoard(t *testing.T, timelines ...model.Timeline) (*Board, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC))
	snap := testutil.Snapshot(testutil.Group("g", timelines...))
	require.NoError(t, snap.Validate())
	return NewBoard(snap, WithClock(clk)), clk
}

func timeline(t *testing.T, b *Board, id string) *model.Timeline {
	t.Helper()
	_, tl := b.Snapshot().FindTimeline(id)
	require.NotNil(t, tl, "timeline %s", id)
	return tl
}

func assertSymmetric(t *testing.T, tl *model.Timeline) {
	t.Helper()
	for _, n := range tl.Nodes {
		for _, p := range n.Prevs {
			pn := tl.Node(p)
			if assert.NotNil(t, pn, "node %s prev %s", n.ID, p) {
				assert.Contains(t, pn.Succs, n.ID, "node %s prev %s", n.ID, p)
			}
		}
		for _, s := range n.Succs {
			sn := tl.Node(s)
			if assert.NotNil(t, sn, "node %s succ %s", n.ID, s) {
				assert.Contains(t, sn.Prevs, n.ID, "node %s succ %s", n.ID, s)
			}
		}
	}
}

func TestInsertNode_After(t *testing.T) {
	b, _ := newTestBoard(t, testutil.ChainWithStart("tl", "a", "b"))

	n, err := b.InsertNode("tl", "a", NodeSpec{Title: "x"}, After)
	require.NoError(t, err)

	tl := timeline(t, b, "tl")
	assert.Equal(t, []string{"a"}, tl.Node(n.ID).Prevs)
	assert.Equal(t, []string{"b"}, tl.Node(n.ID).Succs)
	assert.Equal(t, []string{n.ID}, tl.Node("a").Succs)
	assert.Equal(t, []string{n.ID}, tl.Node("b").Prevs)
	assert.Equal(t, 2, tl.NodeIndex(n.ID), "new node follows its source in node order")
	assertSymmetric(t, tl)
}

func TestInsertNode_AfterFork(t *testing.T) {
	b, _ := newTestBoard(t, testutil.Diamond("tl"))

	n, err := b.InsertNode("tl", "a", NodeSpec{Title: "x"}, After)
	require.NoError(t, err)

	tl := timeline(t, b, "tl")
	assert.ElementsMatch(t, []string{"b", "c"}, tl.Node(n.ID).Succs)
	assert.Equal(t, []string{n.ID}, tl.Node("b").Prevs)
	assert.Equal(t, []string{n.ID}, tl.Node("c").Prevs)
	assertSymmetric(t, tl)
}

func TestInsertNode_Before(t *testing.T) {
	b, _ := newTestBoard(t, testutil.Diamond("tl"))

	n, err := b.InsertNode("tl", "d", NodeSpec{Title: "x"}, Before)
	require.NoError(t, err)

	tl := timeline(t, b, "tl")
	assert.ElementsMatch(t, []string{"b", "c"}, tl.Node(n.ID).Prevs)
	assert.Equal(t, []string{"d"}, tl.Node(n.ID).Succs)
	assert.Equal(t, []string{n.ID}, tl.Node("d").Prevs)
	assert.Equal(t, []string{n.ID}, tl.Node("b").Succs)
	assertSymmetric(t, tl)
}

func TestInsertNode_Rejections(t *testing.T) {
	withEnd := testutil.ChainWithStart("tl", "a")
	withEnd.Nodes = append(withEnd.Nodes, testutil.EndNode("end"))
	testutil.Link(&withEnd, "a", "end")
	rec := testutil.WeeklyTimeline("rec", testutil.Date(2025, 1, 1), []int{1}, "x")

	tests := []struct {
		name     string
		timeline string
		source   string
		spec     NodeSpec
		mode     Mode
		want     error
	}{
		{"before start", "tl", "tl-start", NodeSpec{Title: "x"}, Before, model.ErrInvalidOperation},
		{"after end", "tl", "end", NodeSpec{Title: "x"}, After, model.ErrInvalidOperation},
		{"unknown source", "tl", "ghost", NodeSpec{Title: "x"}, After, model.ErrNotFound},
		{"unknown timeline", "nope", "a", NodeSpec{Title: "x"}, After, model.ErrNotFound},
		{"recurrence timeline", "rec", "a", NodeSpec{Title: "x"}, After, model.ErrInvalidOperation},
		{"empty title", "tl", "a", NodeSpec{}, After, model.ErrEmptyTitle},
		{"bad mode", "tl", "a", NodeSpec{Title: "x"}, Mode("sideways"), model.ErrInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBoard(t, withEnd.Clone(), rec.Clone())
			before := b.Snapshot()
			_, err := b.InsertNode(tt.timeline, tt.source, tt.spec, tt.mode)
			assert.ErrorIs(t, err, tt.want)
			assert.Same(t, before, b.Snapshot(), "failed insert must not swap the snapshot")
		})
	}
}

// TestInsertNode_PreservesSymmetry inserts at random positions into random
// DAGs and checks adjacency symmetry after every call.
func TestInsertNode_PreservesSymmetry(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := range 50 {
		tl := randomDAG(rng, fmt.Sprintf("tl%d", round), 2+rng.IntN(10))
		require.NoError(t, tl.Validate())
		b, _ := newTestBoard(t, tl)

		for range 10 {
			cur := timeline(t, b, tl.ID)
			src := cur.Nodes[rng.IntN(len(cur.Nodes))]
			mode := After
			if rng.IntN(2) == 0 && !src.IsStart() {
				mode = Before
			}
			_, err := b.InsertNode(tl.ID, src.ID, NodeSpec{Title: "n"}, mode)
			require.NoError(t, err)
			assertSymmetric(t, timeline(t, b, tl.ID))
			assert.NoError(t, timeline(t, b, tl.ID).Validate())
		}
	}
}

// randomDAG builds start -> n0..nk with random forward edges, so it is
// acyclic by construction.
func randomDAG(rng *rand.Rand, id string, n int) model.Timeline {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-n%d", id, i)
	}
	tl := testutil.ChainWithStart(id, ids...)
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if rng.IntN(4) == 0 {
				testutil.Link(&tl, ids[i], ids[j])
			}
		}
	}
	return tl
}

func TestAddEdge_RejectsCycle(t *testing.T) {
	b, _ := newTestBoard(t, testutil.Chain("tl", "A", "B", "C"))
	before := b.Snapshot()

	err := b.AddEdge("tl", "C", "A")
	require.ErrorIs(t, err, model.ErrInvalidOperation)
	assert.Same(t, before, b.Snapshot())
	assert.Empty(t, timeline(t, b, "tl").Node("C").Succs)
}

func TestAddEdge(t *testing.T) {
	b, _ := newTestBoard(t, testutil.ChainWithStart("tl", "a", "b", "c"))
	require.NoError(t, b.AddEdge("tl", "a", "c"))

	tl := timeline(t, b, "tl")
	assert.Equal(t, []string{"b", "c"}, tl.Node("a").Succs)
	assert.Equal(t, []string{"b", "a"}, tl.Node("c").Prevs)

	assert.ErrorIs(t, b.AddEdge("tl", "a", "c"), model.ErrInvalidOperation, "duplicate")
	assert.ErrorIs(t, b.AddEdge("tl", "a", "a"), model.ErrInvalidOperation, "self loop")
	assert.ErrorIs(t, b.AddEdge("tl", "c", "tl-start"), model.ErrInvalidOperation, "into start")
	assert.ErrorIs(t, b.AddEdge("tl", "a", "ghost"), model.ErrNotFound)
}

func TestRemoveEdge(t *testing.T) {
	b, _ := newTestBoard(t, testutil.Diamond("tl"))
	require.NoError(t, b.RemoveEdge("tl", "b", "d"))

	tl := timeline(t, b, "tl")
	assert.Empty(t, tl.Node("b").Succs)
	assert.Equal(t, []string{"c"}, tl.Node("d").Prevs)
	assert.ErrorIs(t, b.RemoveEdge("tl", "b", "d"), model.ErrNotFound)
}

func TestRemoveNode_Reconnects(t *testing.T) {
	b, _ := newTestBoard(t, testutil.Diamond("tl"))
	require.NoError(t, b.RemoveNode("tl", "a"))

	tl := timeline(t, b, "tl")
	assert.Nil(t, tl.Node("a"))
	assert.Equal(t, []string{"b", "c"}, tl.Node("tl-start").Succs)
	assert.Equal(t, []string{"tl-start"}, tl.Node("b").Prevs)
	assertSymmetric(t, tl)

	require.NoError(t, b.RemoveNode("tl", "b"))
	tl = timeline(t, b, "tl")
	assert.Equal(t, []string{"c"}, tl.Node("tl-start").Succs, "d is still reachable through c")
	assert.Equal(t, []string{"c"}, tl.Node("d").Prevs)
	assertSymmetric(t, tl)

	assert.ErrorIs(t, b.RemoveNode("tl", "tl-start"), model.ErrInvalidOperation)
	assert.ErrorIs(t, b.RemoveNode("tl", "a"), model.ErrNotFound)
}

func TestAppendNode(t *testing.T) {
	b, _ := newTestBoard(t, testutil.ChainWithStart("tl"))
	first, err := b.AppendNode("tl", NodeSpec{Title: "first"})
	require.NoError(t, err)
	second, err := b.AppendNode("tl", NodeSpec{Title: "second"})
	require.NoError(t, err)

	tl := timeline(t, b, "tl")
	assert.Equal(t, []string{first.ID}, tl.Node("tl-start").Succs)
	assert.Equal(t, []string{second.ID}, tl.Node(first.ID).Succs)

	withEnd := testutil.ChainWithStart("e", "a")
	withEnd.Nodes = append(withEnd.Nodes, testutil.EndNode("end"))
	testutil.Link(&withEnd, "a", "end")
	b, _ = newTestBoard(t, withEnd)
	n, err := b.AppendNode("e", NodeSpec{Title: "x"})
	require.NoError(t, err)
	tl = timeline(t, b, "e")
	assert.Equal(t, []string{n.ID}, tl.Node("end").Prevs)
	assert.Equal(t, []string{"a"}, tl.Node(n.ID).Prevs)
}

func TestUpdateNode(t *testing.T) {
	b, _ := newTestBoard(t, testutil.ChainWithStart("tl", "a"))
	title, milestone := "renamed", true
	mode := &model.TaskMode{Mode: model.ModeQuantitative, Quantitative: &model.Quantitative{Target: 3}}
	require.NoError(t, b.UpdateNode("tl", "a", NodePatch{Title: &title, Milestone: &milestone, Mode: mode}))

	progress := 3.0
	require.NoError(t, b.UpdateNode("tl", "a", NodePatch{Progress: &progress}))
	assert.Zero(t, mode.Quantitative.Current, "patch input is copied")

	n := timeline(t, b, "tl").Node("a")
	assert.Equal(t, "renamed", n.Title)
	assert.True(t, n.Milestone)
	assert.Equal(t, 3.0, n.Mode.Quantitative.Current)
	assert.Equal(t, model.StatusDone, status.ForSnapshot(b.Snapshot()).Node("tl", "a"))

	empty := ""
	assert.ErrorIs(t, b.UpdateNode("tl", "a", NodePatch{Title: &empty}), model.ErrEmptyTitle)
	assert.ErrorIs(t, b.UpdateNode("tl", "tl-start", NodePatch{Title: &title}), model.ErrInvalidOperation)
}

func TestCompleteOrSkip_Task(t *testing.T) {
	b, _ := newTestBoard(t, testutil.Chain("tl", "A", "B", "C"))

	require.NoError(t, b.CompleteOrSkip("tl", "A", model.StatusDone))
	r := status.ForSnapshot(b.Snapshot())
	assert.Equal(t, model.StatusTodo, r.Node("tl", "B"))
	assert.Equal(t, model.StatusLock, r.Node("tl", "C"))

	require.NoError(t, b.CompleteOrSkip("tl", "B", model.StatusSkipped))
	require.NoError(t, b.CompleteOrSkip("tl", "A", model.StatusTodo))
	assert.Equal(t, model.StatusTodo, timeline(t, b, "tl").Node("A").Status)

	assert.ErrorIs(t, b.CompleteOrSkip("tl", "ghost", model.StatusDone), model.ErrNotFound)
	assert.ErrorIs(t, b.CompleteOrSkip("tl", "A", model.StatusLock), model.ErrInvalidOperation)
}

func TestCompleteOrSkip_Recurrence(t *testing.T) {
	rec := testutil.WeeklyTimeline("rec", testutil.Date(2025, 1, 1), []int{1, 3, 5}, "Read", "Exercise", "Report")
	b, clk := newTestBoard(t, rec)

	require.NoError(t, b.CompleteOrSkip("rec", "rec-2025-10-20", model.StatusDone))
	r := timeline(t, b, "rec").Recurrence
	assert.Equal(t, 1, r.Pattern.CurrentIndex)
	require.Len(t, r.CompletedTasks, 1)
	assert.Equal(t, "Read", r.CompletedTasks[0].Title)
	assert.True(t, r.CompletedTasks[0].CompletedDate.Equal(clk.Now()))

	assert.ErrorIs(t, b.CompleteOrSkip("rec", "rec-2025-10-20", model.StatusDone), model.ErrNotFound, "already realized")
	assert.ErrorIs(t, b.CompleteOrSkip("rec", "rec-2025-10-21", model.StatusDone), model.ErrNotFound, "off cadence")
	assert.ErrorIs(t, b.CompleteOrSkip("rec", "other-2025-10-22", model.StatusDone), model.ErrNotFound)
	assert.ErrorIs(t, b.CompleteOrSkip("rec", "rec-2025-10-22", model.StatusTodo), model.ErrInvalidOperation)

	inst, err := b.CompleteNext("rec", model.StatusSkipped)
	require.NoError(t, err)
	assert.Equal(t, "2025-10-22", inst.ScheduledDate)
	assert.Equal(t, "Exercise", inst.Title)
	assert.Equal(t, 2, timeline(t, b, "rec").Recurrence.Pattern.CurrentIndex)
	assert.Equal(t, 1, timeline(t, b, "rec").Recurrence.Stats.TotalSkipped)
}

func TestCompleteNext_LocalDayWestOfUTC(t *testing.T) {
	eastern := time.FixedZone("EDT", -4*60*60)
	daily := func() model.Timeline {
		tl := model.NewRecurrenceTimeline("Stretch", model.FrequencyDaily, []string{"Stretch"}, testutil.Date(2025, 10, 20))
		tl.ID = "rec"
		end := testutil.Date(2025, 10, 22)
		tl.Recurrence.EndDate = &end
		return tl
	}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"evening before the start date", time.Date(2025, 10, 19, 21, 0, 0, 0, eastern), "2025-10-20"},
		{"evening of the end date", time.Date(2025, 10, 22, 21, 0, 0, 0, eastern), "2025-10-22"},
		{"morning", time.Date(2025, 10, 21, 7, 0, 0, 0, eastern), "2025-10-21"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, clk := newTestBoard(t, daily())
			clk.Set(tt.now)

			inst, err := b.CompleteNext("rec", model.StatusDone)
			require.NoError(t, err)
			assert.Equal(t, tt.want, inst.ScheduledDate)
			assert.Equal(t, "rec-"+tt.want, inst.ID)
			require.Len(t, timeline(t, b, "rec").Recurrence.CompletedTasks, 1)
		})
	}
}

func TestForkTimeline(t *testing.T) {
	src := testutil.ChainWithStart("src", "x", "y")
	src.Node("x").Status = model.StatusDone
	src.Node("x").DependsOnTimeline = []string{"other"}
	other := testutil.ChainWithStart("other", "o")
	b, _ := newTestBoard(t, src, other)

	forked, err := b.ForkTimeline("x", "New TL")
	require.NoError(t, err)

	g := b.Snapshot().Groups[0]
	require.Len(t, g.Timelines, 3)
	assert.Equal(t, forked.ID, g.Timelines[2].ID, "fork is appended at the end of the group")
	assert.Equal(t, "New TL", forked.Title)

	require.Len(t, forked.Nodes, 2)
	start, cp := forked.Nodes[0], forked.Nodes[1]
	assert.True(t, start.IsStart())
	assert.NotEqual(t, "x", cp.ID)
	assert.Equal(t, "x", cp.Title)
	assert.Equal(t, model.StatusTodo, cp.Status)
	assert.Empty(t, cp.DependsOnTimeline)
	assert.Equal(t, []string{start.ID}, cp.Prevs)

	deps := timeline(t, b, "src").Dependencies
	require.Len(t, deps, 1)
	assert.Equal(t, model.DependencySplit, deps[0].Type)
	assert.Equal(t, model.IDList{"x"}, deps[0].From)
	assert.Equal(t, model.IDList{forked.ID}, deps[0].To)

	// Mutating the copy leaves the source untouched.
	require.NoError(t, b.CompleteOrSkip(forked.ID, cp.ID, model.StatusSkipped))
	assert.Equal(t, model.StatusDone, timeline(t, b, "src").Node("x").Status)
	require.NoError(t, b.CompleteOrSkip("src", "x", model.StatusTodo))
	assert.Equal(t, model.StatusSkipped, timeline(t, b, forked.ID).Node(cp.ID).Status)

	_, err = b.ForkTimeline("ghost", "t")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = b.ForkTimeline("src-start", "t")
	assert.ErrorIs(t, err, model.ErrInvalidOperation)
}

func TestAddCrossTimelineDependency(t *testing.T) {
	b, _ := newTestBoard(t,
		testutil.ChainWithStart("up1", "u1"),
		testutil.ChainWithStart("up2", "u2"),
		testutil.ChainWithStart("down", "d"),
	)

	require.NoError(t, b.AddCrossTimelineDependency("d", []string{"up1"}))
	require.NoError(t, b.AddCrossTimelineDependency("d", []string{"up1", "up2", "up2"}))

	down := timeline(t, b, "down")
	assert.Equal(t, []string{"up1", "up2"}, down.Node("d").DependsOnTimeline)
	require.Len(t, down.Dependencies, 2)
	assert.Equal(t, model.DependencyTimeline, down.Dependencies[1].Type)
	assert.Equal(t, model.IDList{"up2"}, down.Dependencies[1].From)
	assert.Equal(t, model.IDList{"d"}, down.Dependencies[1].To)

	assert.Equal(t, model.StatusLock, status.ForSnapshot(b.Snapshot()).Node("down", "d"))
	require.NoError(t, b.CompleteOrSkip("up1", "u1", model.StatusDone))
	require.NoError(t, b.CompleteOrSkip("up2", "u2", model.StatusDone))
	assert.Equal(t, model.StatusTodo, status.ForSnapshot(b.Snapshot()).Node("down", "d"))

	assert.ErrorIs(t, b.AddCrossTimelineDependency("d", []string{"ghost"}), model.ErrNotFound)
	assert.ErrorIs(t, b.AddCrossTimelineDependency("d", []string{"down"}), model.ErrInvalidOperation)
	assert.ErrorIs(t, b.AddCrossTimelineDependency("u1", []string{"down"}), model.ErrInvalidOperation, "mutual wait")
	assert.ErrorIs(t, b.AddCrossTimelineDependency("ghost", []string{"up1"}), model.ErrNotFound)

	require.NoError(t, b.RemoveCrossTimelineDependency("d", "up1"))
	down = timeline(t, b, "down")
	assert.Equal(t, []string{"up2"}, down.Node("d").DependsOnTimeline)
	require.Len(t, down.Dependencies, 1)
}

func TestGroupAndTimelineCRUD(t *testing.T) {
	b := NewBoard(nil)
	g1, err := b.CreateGroup("One")
	require.NoError(t, err)
	g2, err := b.CreateGroup("Two")
	require.NoError(t, err)

	require.NoError(t, b.ReorderGroups([]string{g2.ID, g1.ID}))
	assert.Equal(t, "Two", b.Snapshot().Groups[0].Title)
	assert.ErrorIs(t, b.ReorderGroups([]string{g2.ID, g2.ID}), model.ErrInvalidOperation)
	assert.ErrorIs(t, b.ReorderGroups([]string{g2.ID}), model.ErrInvalidOperation)

	require.NoError(t, b.RenameGroup(g1.ID, "Uno"))
	assert.Equal(t, "Uno", b.Snapshot().Group(g1.ID).Title)

	a, err := b.CreateTaskTimeline(g1.ID, "A")
	require.NoError(t, err)
	c, err := b.CreateTaskTimeline(g1.ID, "C")
	require.NoError(t, err)
	rec := model.NewRecurrenceTimeline("R", model.FrequencyDaily, []string{"x"}, time.Now())
	require.NoError(t, b.AddTimeline(g2.ID, rec))
	assert.ErrorIs(t, b.AddTimeline(g2.ID, rec), model.ErrInvalidOperation, "duplicate id")

	require.NoError(t, b.ReorderTimelines(g1.ID, []string{c.ID, a.ID}))
	ids := []string{}
	for _, tl := range b.Snapshot().Group(g1.ID).Timelines {
		ids = append(ids, tl.ID)
	}
	assert.Equal(t, []string{c.ID, a.ID}, ids)

	require.NoError(t, b.RenameTimeline(a.ID, "A2"))
	require.NoError(t, b.SetRecurrenceActive(rec.ID, false))
	require.NoError(t, b.SetRecurrenceStatus(rec.ID, model.TimelineDone))
	assert.ErrorIs(t, b.SetRecurrenceActive(a.ID, false), model.ErrInvalidOperation)
	_, rtl := b.Snapshot().FindTimeline(rec.ID)
	assert.False(t, rtl.Recurrence.Active)
	assert.Equal(t, model.TimelineDone, rtl.Status)

	// Deleting a timeline drops references to it.
	node, err := b.AppendNode(c.ID, NodeSpec{Title: "wait"})
	require.NoError(t, err)
	require.NoError(t, b.AddCrossTimelineDependency(node.ID, []string{a.ID}))
	require.NoError(t, b.DeleteTimeline(a.ID))
	_, _, n := b.Snapshot().FindNode(node.ID)
	assert.Empty(t, n.DependsOnTimeline)
	assert.NoError(t, b.Snapshot().Validate())

	require.NoError(t, b.DeleteGroup(g2.ID))
	assert.Len(t, b.Snapshot().Groups, 1)
	assert.ErrorIs(t, b.DeleteGroup(g2.ID), model.ErrNotFound)
	assert.ErrorIs(t, b.DeleteTimeline(a.ID), model.ErrNotFound)
}

func TestBoard_OnChangeAndMetadata(t *testing.T) {
	b, clk := newTestBoard(t, testutil.ChainWithStart("tl", "a"))
	var seen []*model.Snapshot
	b.OnChange(func(s *model.Snapshot) { seen = append(seen, s) })

	prev := b.Snapshot()
	clk.Add(time.Minute)
	require.NoError(t, b.CompleteOrSkip("tl", "a", model.StatusDone))
	require.Len(t, seen, 1)
	assert.Same(t, b.Snapshot(), seen[0])
	assert.True(t, seen[0].Metadata.LastModified.Equal(clk.Now()))

	// The previous snapshot is untouched.
	_, tl := prev.FindTimeline("tl")
	assert.Equal(t, model.StatusTodo, tl.Node("a").Status)

	assert.Error(t, b.CompleteOrSkip("tl", "ghost", model.StatusDone))
	assert.Len(t, seen, 1, "failed mutations do not notify")
}

func TestBoard_UpdateMemoAndReplace(t *testing.T) {
	b, _ := newTestBoard(t)
	require.NoError(t, b.UpdateMemo(func(m []model.MemoNode) ([]model.MemoNode, error) {
		return append(m, model.MemoNode{ID: "m", Key: "k", Type: model.MemoString, Value: "v"}), nil
	}))
	assert.Len(t, b.Snapshot().Memo, 1)

	next := testutil.Snapshot(testutil.Group("other", testutil.ChainWithStart("t2", "z")))
	require.NoError(t, b.Replace(next))
	if diff := cmp.Diff(next.Groups, b.Snapshot().Groups); diff != "" {
		t.Errorf("Replace groups mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, slices.ContainsFunc(b.Snapshot().Groups, func(g model.TimelineGroup) bool { return g.ID == "other" }))

	bad := testutil.Snapshot(testutil.Group("g", testutil.Chain("c", "a")))
	bad.Groups[0].Timelines[0].Nodes[0].Prevs = []string{"ghost"}
	assert.ErrorIs(t, b.Replace(bad), model.ErrInconsistentGraph)
}

func TestBoard_Reset(t *testing.T) {
	var notified int
	b := NewBoard(nil, WithOnChange(func(*model.Snapshot) { notified++ }))

	next := testutil.Snapshot(testutil.Group("other", testutil.ChainWithStart("t2", "z")))
	stamp := time.Date(2025, 10, 20, 8, 0, 0, 0, time.UTC)
	next.Metadata.LastModified = stamp
	require.NoError(t, b.Reset(next))

	assert.Zero(t, notified, "reset does not notify")
	assert.True(t, b.Snapshot().Metadata.LastModified.Equal(stamp))
	assert.NotSame(t, next, b.Snapshot())
	assert.Equal(t, "other", b.Snapshot().Groups[0].ID)

	bad := testutil.Snapshot(testutil.Group("g", testutil.Chain("c", "a")))
	bad.Groups[0].Timelines[0].Nodes[0].Prevs = []string{"ghost"}
	assert.ErrorIs(t, b.Reset(bad), model.ErrInconsistentGraph)
	assert.Equal(t, "other", b.Snapshot().Groups[0].ID)
}
