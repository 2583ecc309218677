package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/testutil"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status model.Status
		want   bool
	}{
		{model.StatusTodo, false},
		{model.StatusDone, true},
		{model.StatusSkipped, true},
		{model.StatusLock, false},
		{model.StatusDoing, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsTerminal())
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := model.ParseStatus("skipped")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSkipped, st)

	_, err = model.ParseStatus("finished")
	assert.ErrorIs(t, err, model.ErrInvalidStatus)
}

func TestIDList_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want model.IDList
		out  string
	}{
		{"single string", `"a"`, model.IDList{"a"}, `"a"`},
		{"one element list", `["a"]`, model.IDList{"a"}, `"a"`},
		{"many", `["a","b"]`, model.IDList{"a", "b"}, `["a","b"]`},
		{"empty", `[]`, model.IDList{}, `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got model.IDList
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)

			out, err := json.Marshal(got)
			require.NoError(t, err)
			assert.JSONEq(t, tt.out, string(out))
		})
	}

	var bad model.IDList
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestIDList_YAML(t *testing.T) {
	var dep model.Dependency
	require.NoError(t, yaml.Unmarshal([]byte("id: d\ntype: split\nfrom: a\nto: [b, c]\n"), &dep))
	assert.Equal(t, model.IDList{"a"}, dep.From)
	assert.Equal(t, model.IDList{"b", "c"}, dep.To)
}

func TestSnapshot_DecodeSample(t *testing.T) {
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal([]byte(testutil.SampleSnapshotJSON), &snap))
	require.NoError(t, snap.Validate())

	require.Len(t, snap.Groups, 1)
	g := snap.Groups[0]
	require.Len(t, g.Timelines, 2)
	assert.Equal(t, []string{"tl1", "tl2"}, []string{g.Timelines[0].ID, g.Timelines[1].ID})

	_, tl, n := snap.FindNode("review")
	require.NotNil(t, n)
	assert.Equal(t, "tl1", tl.ID)
	assert.Equal(t, []string{"write"}, n.Prevs)

	rec := g.Timelines[1].Recurrence
	require.NotNil(t, rec)
	assert.Equal(t, model.FrequencyDaily, rec.Frequency)
	assert.True(t, rec.Active)
	assert.Equal(t, []string{"Standup"}, rec.Pattern.Titles())
}

func TestSnapshot_RoundTripPreservesOrder(t *testing.T) {
	snap := testutil.Snapshot(
		testutil.Group("g2", testutil.ChainWithStart("z"), testutil.ChainWithStart("a")),
		testutil.Group("g1"),
	)
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var back model.Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(snap, &back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestClone_NoAliasing(t *testing.T) {
	tl := testutil.ChainWithStart("tl", "a", "b")
	tl.Nodes[1].SubTasks = []model.SubTask{{ID: "s", Title: "sub", Status: model.StatusTodo}}
	tl.Nodes[1].Mode = &model.TaskMode{Mode: model.ModeQuantitative, Quantitative: &model.Quantitative{Target: 3}}
	snap := testutil.Snapshot(testutil.Group("g", tl))

	c := snap.Clone()
	cn := c.Groups[0].Timelines[0].Node("a")
	cn.Status = model.StatusDone
	cn.Succs[0] = "zzz"
	cn.SubTasks[0].Status = model.StatusDone
	cn.Mode.Quantitative.Current = 3
	c.Groups[0].Title = "renamed"

	orig := snap.Groups[0].Timelines[0].Node("a")
	assert.Equal(t, model.StatusTodo, orig.Status)
	assert.Equal(t, []string{"b"}, orig.Succs)
	assert.Equal(t, model.StatusTodo, orig.SubTasks[0].Status)
	assert.Zero(t, orig.Mode.Quantitative.Current)
	assert.Equal(t, "g", snap.Groups[0].Title)
}

func TestNodeClone_ScheduledTimes(t *testing.T) {
	deadline := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	reminder := time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)
	n := model.NewTaskNode("file taxes")
	n.Mode = &model.TaskMode{
		Mode:      model.ModeScheduled,
		Scheduled: &model.Scheduled{Deadline: &deadline, Reminder: &reminder},
	}

	c := n.Clone()
	*c.Mode.Scheduled.Deadline = c.Mode.Scheduled.Deadline.AddDate(0, 0, 7)
	*c.Mode.Scheduled.Reminder = c.Mode.Scheduled.Reminder.AddDate(0, 0, 7)

	assert.True(t, n.Mode.Scheduled.Deadline.Equal(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, n.Mode.Scheduled.Reminder.Equal(time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)))
	assert.NotSame(t, n.Mode.Scheduled.Deadline, c.Mode.Scheduled.Deadline)
	assert.NotSame(t, n.Mode.Scheduled.Reminder, c.Mode.Scheduled.Reminder)
}

func TestNewTaskTimeline(t *testing.T) {
	tl := model.NewTaskTimeline("Launch")
	require.Len(t, tl.Nodes, 1)
	start := tl.Start()
	require.NotNil(t, start)
	assert.True(t, start.IsStart())
	assert.NotEmpty(t, tl.ID)
	assert.NoError(t, tl.Validate())
}

func TestValidate_DetectsViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(tl *model.Timeline)
		want   error
	}{
		{
			name:   "asymmetric edge",
			mutate: func(tl *model.Timeline) { tl.Node("b").Prevs = []string{} },
			want:   model.ErrInconsistentGraph,
		},
		{
			name:   "dangling predecessor",
			mutate: func(tl *model.Timeline) { tl.Node("b").Prevs = append(tl.Node("b").Prevs, "ghost") },
			want:   model.ErrInconsistentGraph,
		},
		{
			name:   "cycle",
			mutate: func(tl *model.Timeline) { testutil.Link(tl, "b", "a") },
			want:   model.ErrInconsistentGraph,
		},
		{
			name:   "start with predecessor",
			mutate: func(tl *model.Timeline) { testutil.Link(tl, "b", "tl-start") },
			want:   model.ErrInconsistentGraph,
		},
		{
			name:   "unknown node type",
			mutate: func(tl *model.Timeline) { tl.Node("a").Kind = "group" },
			want:   model.ErrInvalidOperation,
		},
		{
			name:   "empty title",
			mutate: func(tl *model.Timeline) { tl.Title = "" },
			want:   model.ErrEmptyTitle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := testutil.ChainWithStart("tl", "a", "b")
			require.NoError(t, tl.Validate())
			tt.mutate(&tl)
			err := tl.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestValidate_RecurrenceRanges(t *testing.T) {
	tl := testutil.WeeklyTimeline("r", testutil.Date(2025, 10, 20), []int{1, 7}, "Read")
	err := tl.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidOperation)
	assert.Contains(t, err.Error(), "weekday 7")
}

func TestSnapshotValidate_UnknownTimelineReference(t *testing.T) {
	tl := testutil.ChainWithStart("tl", "a")
	tl.Node("a").DependsOnTimeline = []string{"missing"}
	err := testutil.Snapshot(testutil.Group("g", tl)).Validate()
	assert.ErrorIs(t, err, model.ErrInconsistentGraph)
}

func TestFindCycle(t *testing.T) {
	tl := testutil.Diamond("tl")
	assert.Nil(t, model.FindCycle(&tl))

	testutil.Link(&tl, "d", "a")
	cycle := model.FindCycle(&tl)
	require.NotEmpty(t, cycle)
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
}
