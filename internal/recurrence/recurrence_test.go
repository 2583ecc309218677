package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/testutil"
)

func titlesAndDates(insts []Instance) ([]string, []string) {
	var titles, dates []string
	for _, in := range insts {
		titles = append(titles, in.Title)
		dates = append(dates, in.ScheduledDate)
	}
	return titles, dates
}

func TestGenerate_WeeklyWindow(t *testing.T) {
	tl := testutil.WeeklyTimeline("tl", testutil.Date(2025, 1, 1), []int{1, 3, 5}, "Read", "Exercise", "Report")

	got := Generate(&tl, testutil.Date(2025, 10, 20), testutil.Date(2025, 10, 26))
	require.Len(t, got, 3)

	titles, dates := titlesAndDates(got)
	assert.Equal(t, []string{"2025-10-20", "2025-10-22", "2025-10-24"}, dates)
	assert.Equal(t, []string{"Read", "Exercise", "Report"}, titles)
	for _, in := range got {
		assert.Equal(t, model.StatusTodo, in.Status)
		assert.Equal(t, "tl", in.TimelineID)
	}
	assert.Equal(t, "tl-2025-10-20", got[0].ID)
}

func TestGenerate_Idempotent(t *testing.T) {
	tl := testutil.WeeklyTimeline("tl", testutil.Date(2025, 1, 1), []int{0, 2, 4, 6}, "a", "b")
	from, to := testutil.Date(2025, 3, 1), testutil.Date(2025, 4, 30)

	first := Generate(&tl, from, to)
	second := Generate(&tl, from, to)
	assert.Equal(t, first, second)

	seq := Instances(&tl, from, to)
	var a, b []Instance
	for in := range seq {
		a = append(a, in)
	}
	for in := range seq {
		b = append(b, in)
	}
	assert.Equal(t, a, b)
	assert.Equal(t, first, a)
}

func TestGenerate_TruncatesWindowStart(t *testing.T) {
	tl := testutil.WeeklyTimeline("tl", testutil.Date(2025, 1, 1), []int{1}, "x")
	from := time.Date(2025, 10, 20, 18, 30, 0, 0, time.UTC)
	to := time.Date(2025, 10, 20, 1, 0, 0, 0, time.UTC)

	got := Generate(&tl, from, to)
	require.Len(t, got, 1)
	assert.Equal(t, "2025-10-20", got[0].ScheduledDate)
}

func TestGenerate_Frequencies(t *testing.T) {
	daily := testutil.WeeklyTimeline("d", testutil.Date(2025, 1, 1), nil, "x")
	daily.Recurrence.Frequency = model.FrequencyDaily

	monthly := testutil.WeeklyTimeline("m", testutil.Date(2025, 1, 1), nil, "x")
	monthly.Recurrence.Frequency = model.FrequencyMonthly
	monthly.Recurrence.MonthDays = []int{1, 15, 31}

	tests := []struct {
		name string
		tl   model.Timeline
		from time.Time
		to   time.Time
		want []string
	}{
		{"daily", daily, testutil.Date(2025, 2, 27), testutil.Date(2025, 3, 2), []string{"2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"}},
		{"monthly skips short months", monthly, testutil.Date(2025, 2, 1), testutil.Date(2025, 3, 31), []string{"2025-02-01", "2025-02-15", "2025-03-01", "2025-03-15", "2025-03-31"}},
		{"empty window", daily, testutil.Date(2025, 3, 2), testutil.Date(2025, 3, 1), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, dates := titlesAndDates(Generate(&tt.tl, tt.from, tt.to))
			assert.Equal(t, tt.want, dates)
		})
	}
}

func TestGenerate_RespectsStartEndAndActive(t *testing.T) {
	tl := testutil.WeeklyTimeline("tl", testutil.Date(2025, 10, 22), []int{1, 3, 5}, "x")
	end := testutil.Date(2025, 10, 29)
	tl.Recurrence.EndDate = &end

	_, dates := titlesAndDates(Generate(&tl, testutil.Date(2025, 10, 1), testutil.Date(2025, 11, 30)))
	assert.Equal(t, []string{"2025-10-22", "2025-10-24", "2025-10-27", "2025-10-29"}, dates)

	tl.Recurrence.Active = false
	assert.Empty(t, Generate(&tl, testutil.Date(2025, 10, 1), testutil.Date(2025, 11, 30)))
}

func TestGenerate_EmptyTemplatesFallBackToTitle(t *testing.T) {
	tl := testutil.WeeklyTimeline("Stretch", testutil.Date(2025, 1, 1), []int{1, 2})
	titles, _ := titlesAndDates(Generate(&tl, testutil.Date(2025, 10, 20), testutil.Date(2025, 10, 21)))
	assert.Equal(t, []string{"Stretch", "Stretch"}, titles)
}

func TestGenerate_TaskTimelineYieldsNothing(t *testing.T) {
	tl := testutil.ChainWithStart("tl", "a")
	assert.Empty(t, Generate(&tl, testutil.Date(2025, 1, 1), testutil.Date(2025, 12, 31)))
}

func TestComplete_AdvancesCursorAndStats(t *testing.T) {
	tl := testutil.WeeklyTimeline("tl", testutil.Date(2025, 1, 1), []int{1, 3, 5}, "Read", "Exercise", "Report")
	now := time.Date(2025, 10, 20, 21, 0, 0, 0, time.UTC)

	insts := Generate(&tl, testutil.Date(2025, 10, 20), testutil.Date(2025, 10, 26))
	require.NoError(t, Complete(&tl, insts[0], model.StatusDone, now))

	r := tl.Recurrence
	assert.Equal(t, 1, r.Pattern.CurrentIndex)
	require.Len(t, r.CompletedTasks, 1)
	assert.Equal(t, "tl-2025-10-20", r.CompletedTasks[0].ID)
	assert.Equal(t, model.StatusDone, r.CompletedTasks[0].Status)
	assert.Equal(t, 1, r.Stats.TotalCompleted)
	assert.Equal(t, model.TaskCount{Completed: 1}, r.Stats.ByTask["Read"])
	require.NotNil(t, r.Stats.LastCompleted)
	assert.True(t, r.Stats.LastCompleted.Equal(now))

	// The realized day drops out of the projection and rotation resumes at
	// the cursor.
	titles, dates := titlesAndDates(Generate(&tl, testutil.Date(2025, 10, 20), testutil.Date(2025, 10, 26)))
	assert.Equal(t, []string{"2025-10-22", "2025-10-24"}, dates)
	assert.Equal(t, []string{"Exercise", "Report"}, titles)

	next := Generate(&tl, testutil.Date(2025, 10, 22), testutil.Date(2025, 10, 22))[0]
	require.NoError(t, Complete(&tl, next, model.StatusSkipped, now))
	assert.Equal(t, 2, r.Pattern.CurrentIndex)
	assert.Equal(t, 1, r.Stats.TotalSkipped)
	assert.Equal(t, model.TaskCount{Skipped: 1}, r.Stats.ByTask["Exercise"])

	last := Generate(&tl, testutil.Date(2025, 10, 24), testutil.Date(2025, 10, 24))[0]
	require.NoError(t, Complete(&tl, last, model.StatusDone, now))
	assert.Equal(t, 0, r.Pattern.CurrentIndex, "cursor wraps")
}

func TestComplete_Rejects(t *testing.T) {
	tl := testutil.WeeklyTimeline("tl", testutil.Date(2025, 1, 1), []int{1}, "x")
	inst := Generate(&tl, testutil.Date(2025, 10, 20), testutil.Date(2025, 10, 20))[0]

	assert.ErrorIs(t, Complete(&tl, inst, model.StatusTodo, time.Now()), model.ErrInvalidOperation)
	require.NoError(t, Complete(&tl, inst, model.StatusDone, time.Now()))
	assert.ErrorIs(t, Complete(&tl, inst, model.StatusDone, time.Now()), model.ErrInvalidOperation)

	task := testutil.ChainWithStart("t", "a")
	assert.ErrorIs(t, Complete(&task, inst, model.StatusDone, time.Now()), model.ErrInvalidOperation)
}

func TestComplete_EmptyTemplatesKeepCursor(t *testing.T) {
	tl := testutil.WeeklyTimeline("tl", testutil.Date(2025, 1, 1), []int{1})
	inst := Generate(&tl, testutil.Date(2025, 10, 20), testutil.Date(2025, 10, 20))[0]
	require.NoError(t, Complete(&tl, inst, model.StatusDone, time.Now()))
	assert.Equal(t, 0, tl.Recurrence.Pattern.CurrentIndex)
}

func TestFutureAndNext(t *testing.T) {
	tl := testutil.WeeklyTimeline("tl", testutil.Date(2025, 1, 1), []int{3}, "a", "b")
	tl.Recurrence.Pattern.CurrentIndex = 1
	assert.Equal(t, []string{"b", "a", "b"}, Future(&tl, 3))

	inst, ok := Next(&tl, testutil.Date(2025, 10, 20), 14)
	require.True(t, ok)
	assert.Equal(t, "2025-10-22", inst.ScheduledDate)
	assert.Equal(t, "b", inst.Title)

	tl.Recurrence.Active = false
	_, ok = Next(&tl, testutil.Date(2025, 10, 20), 14)
	assert.False(t, ok)
}

func TestParseInstanceID(t *testing.T) {
	id := InstanceID("c0ffee-tl", testutil.Date(2025, 10, 20))
	tlID, day, err := ParseInstanceID(id)
	require.NoError(t, err)
	assert.Equal(t, "c0ffee-tl", tlID)
	assert.True(t, day.Equal(testutil.Date(2025, 10, 20)))

	_, _, err = ParseInstanceID("nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, _, err = ParseInstanceID("tl-2025-13-40")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
