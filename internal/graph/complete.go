package graph

import (
	"time"

	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/recurrence"
)

// CompleteOrSkip records the outcome of a piece of work.
//
// For a task timeline targetID is a node id and its stored status is set
// (todo reopens it). For a recurrence timeline targetID is an instance id as
// produced by the recurrence projector; the instance is appended to
// completedTasks and the rotation cursor advances by one. Recurrence
// instances only accept done or skipped.
func (b *Board) CompleteOrSkip(timelineID, targetID string, st model.Status) error {
	switch st {
	case model.StatusDone, model.StatusSkipped, model.StatusTodo:
	default:
		return invalid("cannot set status %q directly", st)
	}
	return b.apply("complete-or-skip", func(s *model.Snapshot) error {
		_, tl := s.FindTimeline(timelineID)
		if tl == nil {
			return notFound("timeline", timelineID)
		}
		switch tl.Kind {
		case model.TimelineKindTask:
			n := tl.Node(targetID)
			if n == nil {
				return notFound("node", targetID)
			}
			if n.IsDelimiter() {
				return invalid("delimiter %s has no status of its own", targetID)
			}
			n.Status = st
			return nil
		case model.TimelineKindRecurrence:
			inst, err := b.instance(tl, targetID)
			if err != nil {
				return err
			}
			return recurrence.Complete(tl, inst, st, b.clock.Now().UTC())
		default:
			return invalid("timeline %s has unknown type %q", tl.ID, tl.Kind)
		}
	})
}

// instance rebuilds the projected instance behind an instance id. The day
// must fall on the cadence and not be realized yet.
func (b *Board) instance(tl *model.Timeline, instanceID string) (recurrence.Instance, error) {
	owner, day, err := recurrence.ParseInstanceID(instanceID)
	if err != nil {
		return recurrence.Instance{}, err
	}
	if owner != tl.ID {
		return recurrence.Instance{}, notFound("instance", instanceID)
	}
	insts := recurrence.Generate(tl, day, day)
	if len(insts) == 0 {
		return recurrence.Instance{}, notFound("instance", instanceID)
	}
	return insts[0], nil
}

// calendarDay returns t's local date as UTC midnight, the form recurrence
// dates are stored in.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CompleteNext realizes the first open instance of a recurrence timeline on
// or after the board clock's current day.
func (b *Board) CompleteNext(timelineID string, st model.Status) (recurrence.Instance, error) {
	_, tl := b.snap.FindTimeline(timelineID)
	if tl == nil {
		return recurrence.Instance{}, notFound("timeline", timelineID)
	}
	if !tl.IsRecurrence() {
		return recurrence.Instance{}, invalid("timeline %s is not a recurrence timeline", timelineID)
	}
	inst, ok := recurrence.Next(tl, calendarDay(b.clock.Now()), 366)
	if !ok {
		return recurrence.Instance{}, invalid("timeline %s has no upcoming instance", timelineID)
	}
	return inst, b.CompleteOrSkip(timelineID, inst.ID, st)
}
