package model

import (
	"maps"
	"slices"
	"time"
)

// Timeline is either a task timeline owning a node graph, or a recurrence
// timeline owning a repeating pattern. Kind selects which fields apply.
type Timeline struct {
	ID           string       `json:"id" yaml:"id"`
	Title        string       `json:"title" yaml:"title"`
	Kind         TimelineKind `json:"type" yaml:"type"`
	Nodes        []Node       `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Recurrence   *Recurrence  `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`

	// Status is the stored aggregate for recurrence timelines. Task
	// timelines derive theirs and leave this empty.
	Status TimelineStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// Recurrence is the repeating part of a recurrence timeline.
type Recurrence struct {
	Frequency FrequencyKind `json:"frequency" yaml:"frequency"`
	// Weekdays applies to weekly timelines (0 = Sunday .. 6 = Saturday).
	Weekdays []int `json:"weekdays,omitempty" yaml:"weekdays,omitempty"`
	// MonthDays applies to monthly timelines (1..31).
	MonthDays []int `json:"monthDays,omitempty" yaml:"monthDays,omitempty"`

	Pattern        RecurrencePattern `json:"pattern" yaml:"pattern"`
	StartDate      time.Time         `json:"startDate" yaml:"startDate"`
	EndDate        *time.Time        `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	CompletedTasks []CompletedTask   `json:"completedTasks" yaml:"completedTasks"`
	Stats          RecurrenceStats   `json:"stats" yaml:"stats"`
	Active         bool              `json:"active" yaml:"active"`
}

// TaskTemplate is one entry of a rotating recurrence pattern.
type TaskTemplate struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// RecurrencePattern is the rotating list of task templates and the cursor
// pointing at the next one to be realized.
type RecurrencePattern struct {
	Templates    []TaskTemplate `json:"taskTemplates" yaml:"taskTemplates"`
	CurrentIndex int            `json:"currentIndex" yaml:"currentIndex"`
}

// CompletedTask is a realized recurrence instance.
type CompletedTask struct {
	ID            string    `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	Status        Status    `json:"status" yaml:"status"`
	ScheduledDate string    `json:"scheduledDate" yaml:"scheduledDate"`
	CompletedDate time.Time `json:"completedDate" yaml:"completedDate"`
}

// RecurrenceStats counts realized instances.
type RecurrenceStats struct {
	TotalCompleted int                  `json:"totalCompleted" yaml:"totalCompleted"`
	TotalSkipped   int                  `json:"totalSkipped" yaml:"totalSkipped"`
	LastCompleted  *time.Time           `json:"lastCompleted,omitempty" yaml:"lastCompleted,omitempty"`
	LastSkipped    *time.Time           `json:"lastSkipped,omitempty" yaml:"lastSkipped,omitempty"`
	ByTask         map[string]TaskCount `json:"byTask,omitempty" yaml:"byTask,omitempty"`
}

// TaskCount is the per-title breakdown in RecurrenceStats.
type TaskCount struct {
	Completed int `json:"completed" yaml:"completed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// NewTaskTimeline returns a task timeline owning a single start delimiter.
func NewTaskTimeline(title string) Timeline {
	return Timeline{
		ID:    NewID(),
		Title: title,
		Kind:  TimelineKindTask,
		Nodes: []Node{NewDelimiter(MarkerStart)},
	}
}

// NewRecurrenceTimeline returns an active recurrence timeline. Each title
// becomes one template in rotation order.
func NewRecurrenceTimeline(title string, freq FrequencyKind, titles []string, start time.Time) Timeline {
	templates := make([]TaskTemplate, 0, len(titles))
	for _, t := range titles {
		templates = append(templates, TaskTemplate{ID: NewID(), Title: t})
	}
	return Timeline{
		ID:     NewID(),
		Title:  title,
		Kind:   TimelineKindRecurrence,
		Status: TimelineTodo,
		Recurrence: &Recurrence{
			Frequency:      freq,
			Pattern:        RecurrencePattern{Templates: templates},
			StartDate:      start,
			CompletedTasks: []CompletedTask{},
			Active:         true,
		},
	}
}

// IsTask returns true for task timelines.
func (t *Timeline) IsTask() bool {
	return t.Kind == TimelineKindTask
}

// IsRecurrence returns true for recurrence timelines.
func (t *Timeline) IsRecurrence() bool {
	return t.Kind == TimelineKindRecurrence
}

// NodeIndex returns the index of the node with id, or -1.
func (t *Timeline) NodeIndex(id string) int {
	for i := range t.Nodes {
		if t.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// Node returns the node with id, or nil. The pointer aliases the
// timeline's storage.
func (t *Timeline) Node(id string) *Node {
	if i := t.NodeIndex(id); i >= 0 {
		return &t.Nodes[i]
	}
	return nil
}

// NodeMap indexes the timeline's nodes by id.
func (t *Timeline) NodeMap() map[string]*Node {
	m := make(map[string]*Node, len(t.Nodes))
	for i := range t.Nodes {
		m[t.Nodes[i].ID] = &t.Nodes[i]
	}
	return m
}

// Start returns the first start delimiter, or nil.
func (t *Timeline) Start() *Node {
	for i := range t.Nodes {
		if t.Nodes[i].IsStart() {
			return &t.Nodes[i]
		}
	}
	return nil
}

// Tails returns the nodes without successors, in node order.
func (t *Timeline) Tails() []*Node {
	var tails []*Node
	for i := range t.Nodes {
		if len(t.Nodes[i].Succs) == 0 {
			tails = append(tails, &t.Nodes[i])
		}
	}
	return tails
}

// Clone returns a deep copy of the timeline.
func (t Timeline) Clone() Timeline {
	c := t
	if t.Nodes != nil {
		c.Nodes = make([]Node, len(t.Nodes))
		for i, n := range t.Nodes {
			c.Nodes[i] = n.Clone()
		}
	}
	if t.Dependencies != nil {
		c.Dependencies = make([]Dependency, len(t.Dependencies))
		for i, d := range t.Dependencies {
			c.Dependencies[i] = d.Clone()
		}
	}
	if t.Recurrence != nil {
		r := t.Recurrence.Clone()
		c.Recurrence = &r
	}
	return c
}

// Clone returns a deep copy of the recurrence.
func (r Recurrence) Clone() Recurrence {
	c := r
	c.Weekdays = slices.Clone(r.Weekdays)
	c.MonthDays = slices.Clone(r.MonthDays)
	c.Pattern.Templates = slices.Clone(r.Pattern.Templates)
	c.CompletedTasks = slices.Clone(r.CompletedTasks)
	if r.EndDate != nil {
		e := *r.EndDate
		c.EndDate = &e
	}
	if r.Stats.LastCompleted != nil {
		lc := *r.Stats.LastCompleted
		c.Stats.LastCompleted = &lc
	}
	if r.Stats.LastSkipped != nil {
		ls := *r.Stats.LastSkipped
		c.Stats.LastSkipped = &ls
	}
	c.Stats.ByTask = maps.Clone(r.Stats.ByTask)
	return c
}

// Titles returns the template titles in rotation order.
func (p RecurrencePattern) Titles() []string {
	titles := make([]string, len(p.Templates))
	for i, tpl := range p.Templates {
		titles[i] = tpl.Title
	}
	return titles
}
