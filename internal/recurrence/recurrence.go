// Package recurrence projects recurrence timelines onto the calendar and
// records realized instances.
//
// Projection is read-only: Instances walks a caller-bounded window of days
// and yields hypothetical todo instances. Realizing one (Complete) is the
// only operation that mutates a timeline; it appends to completedTasks and
// advances the rotation cursor by exactly one.
package recurrence

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/npratt/okline/internal/model"
)

// DateLayout is the ISO 8601 calendar date format used in instance ids and
// scheduled dates.
const DateLayout = "2006-01-02"

// Instance is one projected occurrence of a recurrence timeline.
type Instance struct {
	ID            string       `json:"id" yaml:"id"`
	TimelineID    string       `json:"timelineId" yaml:"timelineId"`
	Title         string       `json:"title" yaml:"title"`
	ScheduledDate string       `json:"scheduledDate" yaml:"scheduledDate"`
	Status        model.Status `json:"status" yaml:"status"`
}

// InstanceID returns the deterministic id of the instance on day.
func InstanceID(timelineID string, day time.Time) string {
	return timelineID + "-" + day.Format(DateLayout)
}

// ParseInstanceID splits an instance id into its timeline id and day.
func ParseInstanceID(id string) (string, time.Time, error) {
	if len(id) <= len(DateLayout)+1 || id[len(id)-len(DateLayout)-1] != '-' {
		return "", time.Time{}, fmt.Errorf("%w: malformed instance id %q", model.ErrNotFound, id)
	}
	cut := len(id) - len(DateLayout)
	day, err := time.Parse(DateLayout, id[cut:])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: malformed instance id %q", model.ErrNotFound, id)
	}
	return strings.TrimSuffix(id[:cut], "-"), day, nil
}

// Instances returns the instances scheduled between from and to, both
// inclusive at day granularity in from's location. The sequence is finite
// and can be ranged over repeatedly with identical results as long as the
// timeline is not mutated in between. Days already realized in
// completedTasks are skipped and do not advance the rotation.
func Instances(tl *model.Timeline, from, to time.Time) iter.Seq[Instance] {
	return func(yield func(Instance) bool) {
		r := tl.Recurrence
		if !tl.IsRecurrence() || r == nil || !r.Active {
			return
		}
		loc := from.Location()
		day := truncate(from, loc)
		last := truncate(to, loc)
		if first := truncate(r.StartDate.In(loc), loc); day.Before(first) {
			day = first
		}
		if r.EndDate != nil {
			if end := truncate(r.EndDate.In(loc), loc); end.Before(last) {
				last = end
			}
		}

		realized := make(map[string]bool, len(r.CompletedTasks))
		for _, ct := range r.CompletedTasks {
			realized[ct.ID] = true
		}

		k := 0
		for ; !day.After(last); day = day.AddDate(0, 0, 1) {
			if !Matches(r, day) {
				continue
			}
			id := InstanceID(tl.ID, day)
			if realized[id] {
				continue
			}
			inst := Instance{
				ID:            id,
				TimelineID:    tl.ID,
				Title:         TitleAt(tl, k),
				ScheduledDate: day.Format(DateLayout),
				Status:        model.StatusTodo,
			}
			k++
			if !yield(inst) {
				return
			}
		}
	}
}

// Generate collects Instances into a slice.
func Generate(tl *model.Timeline, from, to time.Time) []Instance {
	return slices.Collect(Instances(tl, from, to))
}

// Matches reports whether day falls on the recurrence cadence. Start and
// end dates are not consulted.
func Matches(r *model.Recurrence, day time.Time) bool {
	switch r.Frequency {
	case model.FrequencyDaily:
		return true
	case model.FrequencyWeekly:
		return slices.Contains(r.Weekdays, int(day.Weekday()))
	case model.FrequencyMonthly:
		return slices.Contains(r.MonthDays, day.Day())
	default:
		return false
	}
}

// TitleAt returns the template title offset positions after the cursor.
// With no templates the timeline's own title is the only name in rotation.
func TitleAt(tl *model.Timeline, offset int) string {
	if tl.Recurrence == nil {
		return tl.Title
	}
	templates := tl.Recurrence.Pattern.Templates
	if len(templates) == 0 {
		return tl.Title
	}
	idx := (tl.Recurrence.Pattern.CurrentIndex + offset) % len(templates)
	if idx < 0 {
		idx += len(templates)
	}
	return templates[idx].Title
}

// Future returns the next n titles in rotation starting at the cursor.
func Future(tl *model.Timeline, n int) []string {
	out := make([]string, 0, n)
	for i := range n {
		out = append(out, TitleAt(tl, i))
	}
	return out
}

// Next returns the first unrealized instance on or after day, looking at
// most horizon days ahead.
func Next(tl *model.Timeline, day time.Time, horizon int) (Instance, bool) {
	for inst := range Instances(tl, day, day.AddDate(0, 0, horizon)) {
		return inst, true
	}
	return Instance{}, false
}

// Complete realizes an instance with status done or skipped: it is appended
// to completedTasks, the stats are updated and the cursor advances by one
// modulo the template count.
func Complete(tl *model.Timeline, inst Instance, st model.Status, now time.Time) error {
	if !tl.IsRecurrence() || tl.Recurrence == nil {
		return fmt.Errorf("%w: timeline %s is not a recurrence timeline", model.ErrInvalidOperation, tl.ID)
	}
	if !st.IsTerminal() {
		return fmt.Errorf("%w: instances can only be marked done or skipped, got %q", model.ErrInvalidOperation, st)
	}
	r := tl.Recurrence
	for _, ct := range r.CompletedTasks {
		if ct.ID == inst.ID {
			return fmt.Errorf("%w: instance %s already recorded as %s", model.ErrInvalidOperation, inst.ID, ct.Status)
		}
	}

	r.CompletedTasks = append(r.CompletedTasks, model.CompletedTask{
		ID:            inst.ID,
		Title:         inst.Title,
		Status:        st,
		ScheduledDate: inst.ScheduledDate,
		CompletedDate: now,
	})

	if r.Stats.ByTask == nil {
		r.Stats.ByTask = make(map[string]model.TaskCount)
	}
	count := r.Stats.ByTask[inst.Title]
	at := now
	if st == model.StatusDone {
		r.Stats.TotalCompleted++
		r.Stats.LastCompleted = &at
		count.Completed++
	} else {
		r.Stats.TotalSkipped++
		r.Stats.LastSkipped = &at
		count.Skipped++
	}
	r.Stats.ByTask[inst.Title] = count

	if n := len(r.Pattern.Templates); n > 0 {
		r.Pattern.CurrentIndex = (r.Pattern.CurrentIndex + 1) % n
	}
	return nil
}

func truncate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
