package model

import "slices"

// Node is a task or delimiter inside one timeline's graph. Prevs and Succs
// are kept symmetric: for every id p in n.Prevs, node p lists n.ID in its
// Succs, and vice versa.
type Node struct {
	ID          string     `json:"id" yaml:"id"`
	Kind        NodeKind   `json:"type" yaml:"type"`
	Title       string     `json:"title" yaml:"title"`
	Status      Status     `json:"status" yaml:"status"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Milestone   bool       `json:"milestone,omitempty" yaml:"milestone,omitempty"`
	Marker      MarkerType `json:"markerType,omitempty" yaml:"markerType,omitempty"`
	SubTasks    []SubTask  `json:"subtasks,omitempty" yaml:"subtasks,omitempty"`
	Mode        *TaskMode  `json:"mode,omitempty" yaml:"mode,omitempty"`

	Prevs             []string `json:"prevs" yaml:"prevs"`
	Succs             []string `json:"succs" yaml:"succs"`
	DependsOnTimeline []string `json:"depends_on_timeline,omitempty" yaml:"depends_on_timeline,omitempty"`
}

// NewTaskNode returns a todo task node with a fresh id and no edges.
func NewTaskNode(title string) Node {
	return Node{
		ID:     NewID(),
		Kind:   KindTask,
		Title:  title,
		Status: StatusTodo,
		Prevs:  []string{},
		Succs:  []string{},
	}
}

// NewDelimiter returns a start or end marker node.
func NewDelimiter(marker MarkerType) Node {
	title := "Start"
	if marker == MarkerEnd {
		title = "End"
	}
	return Node{
		ID:     NewID(),
		Kind:   KindDelimiter,
		Title:  title,
		Status: StatusTodo,
		Marker: marker,
		Prevs:  []string{},
		Succs:  []string{},
	}
}

// IsDelimiter returns true for start and end markers.
func (n *Node) IsDelimiter() bool {
	return n.Kind == KindDelimiter
}

// IsStart returns true for a start delimiter.
func (n *Node) IsStart() bool {
	return n.Kind == KindDelimiter && n.Marker == MarkerStart
}

// IsEnd returns true for an end delimiter.
func (n *Node) IsEnd() bool {
	return n.Kind == KindDelimiter && n.Marker == MarkerEnd
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	c := n
	c.SubTasks = slices.Clone(n.SubTasks)
	c.Prevs = cloneIDs(n.Prevs)
	c.Succs = cloneIDs(n.Succs)
	c.DependsOnTimeline = slices.Clone(n.DependsOnTimeline)
	if n.Mode != nil {
		m := *n.Mode
		if m.Scheduled != nil {
			s := *m.Scheduled
			if s.Deadline != nil {
				d := *s.Deadline
				s.Deadline = &d
			}
			if s.Reminder != nil {
				r := *s.Reminder
				s.Reminder = &r
			}
			m.Scheduled = &s
		}
		if m.Quantitative != nil {
			q := *m.Quantitative
			m.Quantitative = &q
		}
		c.Mode = &m
	}
	return c
}

// cloneIDs copies an adjacency list, keeping empty lists non-nil so they
// serialize as [] rather than null.
func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
