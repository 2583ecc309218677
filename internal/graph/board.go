// Package graph is the mutation engine for the timeline graph. A Board owns
// one snapshot and applies every change copy-on-write: the snapshot is
// cloned, the change is applied and validated on the clone, and only then
// does the clone replace the current snapshot. A failed call leaves the
// board untouched.
//
// Board does no locking. Callers that share one across goroutines must
// serialize access.
package graph

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/benbjohnson/clock"

	"github.com/npratt/okline/internal/model"
)

// Board is the explicit state object the mutation operations act on.
type Board struct {
	snap   *model.Snapshot
	clock  clock.Clock
	logger *slog.Logger
	hooks  []func(*model.Snapshot)
}

// Option configures a Board.
type Option func(*Board)

// WithClock sets the clock used for completion timestamps and
// metadata.lastModified.
func WithClock(c clock.Clock) Option {
	return func(b *Board) { b.clock = c }
}

// WithLogger sets the logger for mutation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Board) { b.logger = l }
}

// WithOnChange registers a hook called with the new snapshot after every
// successful mutation. The snapshot must be treated as read-only.
func WithOnChange(fn func(*model.Snapshot)) Option {
	return func(b *Board) { b.hooks = append(b.hooks, fn) }
}

// NewBoard returns a Board over snap. A nil snap starts empty.
func NewBoard(snap *model.Snapshot, opts ...Option) *Board {
	if snap == nil {
		snap = model.NewSnapshot()
	}
	b := &Board{
		snap:   snap,
		clock:  clock.New(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Snapshot returns the current snapshot. It is replaced, never modified, by
// later mutations; callers must not modify it either.
func (b *Board) Snapshot() *model.Snapshot {
	return b.snap
}

// OnChange registers a hook after construction.
func (b *Board) OnChange(fn func(*model.Snapshot)) {
	b.hooks = append(b.hooks, fn)
}

// apply runs fn against a clone of the current snapshot and swaps it in
// when fn succeeds.
func (b *Board) apply(op string, fn func(s *model.Snapshot) error) error {
	next := b.snap.Clone()
	if err := fn(next); err != nil {
		b.logger.Debug("mutation rejected", "op", op, "error", err)
		return err
	}
	next.Metadata.LastModified = b.clock.Now().UTC()
	b.snap = next
	b.logger.Debug("mutation applied", "op", op)
	for _, h := range b.hooks {
		h(next)
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", model.ErrNotFound, kind, id)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{model.ErrInvalidOperation}, args...)...)
}

// checked validates a timeline after it has been changed.
func checked(tl *model.Timeline) error {
	if err := tl.Validate(); err != nil {
		return fmt.Errorf("timeline %s: %w", tl.ID, err)
	}
	return nil
}

func taskTimeline(s *model.Snapshot, id string) (*model.Timeline, error) {
	_, tl := s.FindTimeline(id)
	if tl == nil {
		return nil, notFound("timeline", id)
	}
	if !tl.IsTask() {
		return nil, invalid("timeline %s is a %s timeline", id, tl.Kind)
	}
	return tl, nil
}

func recurrenceTimeline(s *model.Snapshot, id string) (*model.Timeline, error) {
	_, tl := s.FindTimeline(id)
	if tl == nil {
		return nil, notFound("timeline", id)
	}
	if !tl.IsRecurrence() || tl.Recurrence == nil {
		return nil, invalid("timeline %s is not a recurrence timeline", id)
	}
	return tl, nil
}

// CreateGroup appends an empty group.
func (b *Board) CreateGroup(title string) (model.TimelineGroup, error) {
	if title == "" {
		return model.TimelineGroup{}, model.ErrEmptyTitle
	}
	g := model.NewGroup(title)
	err := b.apply("create-group", func(s *model.Snapshot) error {
		s.Groups = append(s.Groups, g)
		return nil
	})
	return g, err
}

// RenameGroup changes a group's title.
func (b *Board) RenameGroup(id, title string) error {
	if title == "" {
		return model.ErrEmptyTitle
	}
	return b.apply("rename-group", func(s *model.Snapshot) error {
		g := s.Group(id)
		if g == nil {
			return notFound("group", id)
		}
		g.Title = title
		return nil
	})
}

// DeleteGroup removes a group and all of its timelines. References to those
// timelines from other groups are dropped.
func (b *Board) DeleteGroup(id string) error {
	return b.apply("delete-group", func(s *model.Snapshot) error {
		i := s.GroupIndex(id)
		if i < 0 {
			return notFound("group", id)
		}
		gone := make(map[string]bool)
		for _, tl := range s.Groups[i].Timelines {
			gone[tl.ID] = true
		}
		s.Groups = slices.Delete(s.Groups, i, i+1)
		dropTimelineRefs(s, gone)
		return nil
	})
}

// ReorderGroups sets the group order. ids must be a permutation of the
// current group ids.
func (b *Board) ReorderGroups(ids []string) error {
	return b.apply("reorder-groups", func(s *model.Snapshot) error {
		current := make([]string, len(s.Groups))
		for i, g := range s.Groups {
			current[i] = g.ID
		}
		if err := checkPermutation(current, ids); err != nil {
			return err
		}
		reordered := make([]model.TimelineGroup, len(ids))
		for i, id := range ids {
			reordered[i] = s.Groups[s.GroupIndex(id)]
		}
		s.Groups = reordered
		return nil
	})
}

// CreateTaskTimeline appends a task timeline with a start delimiter to a group.
func (b *Board) CreateTaskTimeline(groupID, title string) (model.Timeline, error) {
	if title == "" {
		return model.Timeline{}, model.ErrEmptyTitle
	}
	tl := model.NewTaskTimeline(title)
	return tl, b.AddTimeline(groupID, tl)
}

// AddTimeline appends a fully built timeline to a group.
func (b *Board) AddTimeline(groupID string, tl model.Timeline) error {
	if err := checked(&tl); err != nil {
		return err
	}
	return b.apply("add-timeline", func(s *model.Snapshot) error {
		g := s.Group(groupID)
		if g == nil {
			return notFound("group", groupID)
		}
		if _, existing := s.FindTimeline(tl.ID); existing != nil {
			return invalid("timeline %s already exists", tl.ID)
		}
		g.Timelines = append(g.Timelines, tl.Clone())
		return nil
	})
}

// RenameTimeline changes a timeline's title.
func (b *Board) RenameTimeline(id, title string) error {
	if title == "" {
		return model.ErrEmptyTitle
	}
	return b.apply("rename-timeline", func(s *model.Snapshot) error {
		_, tl := s.FindTimeline(id)
		if tl == nil {
			return notFound("timeline", id)
		}
		tl.Title = title
		return nil
	})
}

// DeleteTimeline removes a timeline for good and drops every
// depends_on_timeline reference to it.
func (b *Board) DeleteTimeline(id string) error {
	return b.apply("delete-timeline", func(s *model.Snapshot) error {
		g, tl := s.FindTimeline(id)
		if tl == nil {
			return notFound("timeline", id)
		}
		i := g.TimelineIndex(id)
		g.Timelines = slices.Delete(g.Timelines, i, i+1)
		dropTimelineRefs(s, map[string]bool{id: true})
		return nil
	})
}

// ReorderTimelines sets the timeline order inside a group.
func (b *Board) ReorderTimelines(groupID string, ids []string) error {
	return b.apply("reorder-timelines", func(s *model.Snapshot) error {
		g := s.Group(groupID)
		if g == nil {
			return notFound("group", groupID)
		}
		current := make([]string, len(g.Timelines))
		for i, tl := range g.Timelines {
			current[i] = tl.ID
		}
		if err := checkPermutation(current, ids); err != nil {
			return err
		}
		reordered := make([]model.Timeline, len(ids))
		for i, id := range ids {
			reordered[i] = *g.Timeline(id)
		}
		g.Timelines = reordered
		return nil
	})
}

// SetRecurrenceActive pauses or resumes a recurrence timeline.
func (b *Board) SetRecurrenceActive(id string, active bool) error {
	return b.apply("set-active", func(s *model.Snapshot) error {
		tl, err := recurrenceTimeline(s, id)
		if err != nil {
			return err
		}
		tl.Recurrence.Active = active
		return nil
	})
}

// SetRecurrenceStatus sets the stored aggregate status of a recurrence
// timeline.
func (b *Board) SetRecurrenceStatus(id string, st model.TimelineStatus) error {
	switch st {
	case model.TimelineTodo, model.TimelineDoing, model.TimelineDone:
	default:
		return fmt.Errorf("%w %q", model.ErrInvalidStatus, st)
	}
	return b.apply("set-recurrence-status", func(s *model.Snapshot) error {
		tl, err := recurrenceTimeline(s, id)
		if err != nil {
			return err
		}
		tl.Status = st
		return nil
	})
}

// UpdateMemo replaces the memo tree with the result of fn.
func (b *Board) UpdateMemo(fn func([]model.MemoNode) ([]model.MemoNode, error)) error {
	return b.apply("update-memo", func(s *model.Snapshot) error {
		memo, err := fn(s.Memo)
		if err != nil {
			return err
		}
		s.Memo = memo
		return nil
	})
}

// Replace swaps in an externally loaded snapshot, for example after a
// remote pull.
func (b *Board) Replace(snap *model.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	return b.apply("replace", func(s *model.Snapshot) error {
		*s = *snap.Clone()
		return nil
	})
}

// Reset swaps in snap as it is, for example after another process changed
// the data file. Change hooks are not called and metadata is kept.
func (b *Board) Reset(snap *model.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	b.snap = snap.Clone()
	b.logger.Debug("board reset", "last_modified", snap.Metadata.LastModified)
	return nil
}

func checkPermutation(current, ids []string) error {
	if len(current) != len(ids) {
		return invalid("order lists %d ids, expected %d", len(ids), len(current))
	}
	want := make(map[string]bool, len(current))
	for _, id := range current {
		want[id] = true
	}
	for _, id := range ids {
		if !want[id] {
			return invalid("order has unknown or repeated id %s", id)
		}
		delete(want, id)
	}
	return nil
}

func dropTimelineRefs(s *model.Snapshot, gone map[string]bool) {
	for _, tl := range s.Timelines() {
		for i := range tl.Nodes {
			n := &tl.Nodes[i]
			n.DependsOnTimeline = slices.DeleteFunc(n.DependsOnTimeline, func(id string) bool { return gone[id] })
		}
	}
}
