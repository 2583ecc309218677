// Package model defines the timeline graph data model: task and delimiter
// nodes linked by predecessor/successor lists inside timelines, timelines
// grouped under timeline groups, and the snapshot persisted by storage.
//
// Everything in this package is plain data plus structural helpers
// (lookup, deep copy, validation). Status derivation lives in package
// status, mutation in package graph.
package model

import (
	"fmt"
	"time"
)

// Status is the stored status of a node. The displayed status is derived
// by package status and may differ (for example a todo node behind an
// unfinished predecessor displays as lock).
type Status string

const (
	// StatusTodo indicates the node is not finished.
	StatusTodo Status = "todo"

	// StatusDone indicates the node is finished.
	StatusDone Status = "done"

	// StatusSkipped indicates the node was passed over without doing it.
	StatusSkipped Status = "skipped"

	// StatusLock indicates the node is blocked.
	StatusLock Status = "lock"

	// StatusDoing is accepted when reading older snapshots. It carries no
	// semantics of its own and is treated like todo.
	StatusDoing Status = "doing"
)

// ValidStatuses returns all valid node status values.
func ValidStatuses() []Status {
	return []Status{StatusTodo, StatusDone, StatusSkipped, StatusLock, StatusDoing}
}

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// IsTerminal returns true for done and skipped. Terminal statuses are never
// recomputed away by derivation.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusSkipped
}

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// TimelineStatus is the aggregate status of a whole timeline.
type TimelineStatus string

const (
	TimelineTodo  TimelineStatus = "todo"
	TimelineDoing TimelineStatus = "doing"
	TimelineDone  TimelineStatus = "done"
)

// NodeKind discriminates task nodes from delimiter nodes.
type NodeKind string

const (
	// KindTask is a regular task node.
	KindTask NodeKind = "task"

	// KindDelimiter is a start or end marker bounding a task chain.
	KindDelimiter NodeKind = "delimiter"
)

// IsValid returns true if the kind is a known value.
func (k NodeKind) IsValid() bool {
	return k == KindTask || k == KindDelimiter
}

// MarkerType identifies which end of a chain a delimiter marks.
type MarkerType string

const (
	MarkerStart MarkerType = "start"
	MarkerEnd   MarkerType = "end"
)

// TimelineKind discriminates finite task timelines from recurring ones.
type TimelineKind string

const (
	// TimelineKindTask owns a graph of nodes.
	TimelineKindTask TimelineKind = "task"

	// TimelineKindRecurrence owns a repeating pattern projected onto a calendar.
	TimelineKindRecurrence TimelineKind = "recurrence"
)

// IsValid returns true if the kind is a known value.
func (k TimelineKind) IsValid() bool {
	return k == TimelineKindTask || k == TimelineKindRecurrence
}

// FrequencyKind is the cadence of a recurrence timeline.
type FrequencyKind string

const (
	FrequencyDaily   FrequencyKind = "daily"
	FrequencyWeekly  FrequencyKind = "weekly"
	FrequencyMonthly FrequencyKind = "monthly"
)

// ParseFrequency converts user input into a FrequencyKind.
func ParseFrequency(s string) (FrequencyKind, error) {
	switch f := FrequencyKind(s); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown frequency %q", ErrInvalidOperation, s)
	}
}

// TaskModeKind selects how a task is tracked.
type TaskModeKind string

const (
	ModeScheduled    TaskModeKind = "scheduled"
	ModeQuantitative TaskModeKind = "quantitative"
)

// TaskMode is optional per-task tracking configuration.
type TaskMode struct {
	Mode         TaskModeKind  `json:"mode" yaml:"mode"`
	Scheduled    *Scheduled    `json:"scheduled,omitempty" yaml:"scheduled,omitempty"`
	Quantitative *Quantitative `json:"quantitative,omitempty" yaml:"quantitative,omitempty"`
}

// Scheduled holds deadline tracking for a task.
type Scheduled struct {
	Deadline *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Reminder *time.Time `json:"reminder,omitempty" yaml:"reminder,omitempty"`
}

// Quantitative tracks progress towards a numeric target.
type Quantitative struct {
	Target  float64 `json:"target" yaml:"target"`
	Current float64 `json:"current" yaml:"current"`
	Unit    string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Reached reports whether the current count meets the target.
func (q *Quantitative) Reached() bool {
	return q != nil && q.Target > 0 && q.Current >= q.Target
}

// SubTask is a checklist item inside a task node. Subtasks carry no
// dependency fields.
type SubTask struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Status Status `json:"status" yaml:"status"`
}
