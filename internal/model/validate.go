package model

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"
)

// Validate checks the structural invariants of a timeline and returns every
// violation found, combined into one error.
func (t *Timeline) Validate() error {
	var err error
	if t.ID == "" {
		err = multierr.Append(err, fmt.Errorf("%w: timeline without id", ErrInvalidOperation))
	}
	if t.Title == "" {
		err = multierr.Append(err, fmt.Errorf("timeline %s: %w", t.ID, ErrEmptyTitle))
	}
	switch t.Kind {
	case TimelineKindTask:
		err = multierr.Append(err, t.validateGraph())
	case TimelineKindRecurrence:
		err = multierr.Append(err, t.validateRecurrence())
	default:
		err = multierr.Append(err, fmt.Errorf("%w: timeline %s has unknown type %q", ErrInvalidOperation, t.ID, t.Kind))
	}
	return err
}

func (t *Timeline) validateGraph() error {
	var err error
	nodes := make(map[string]*Node, len(t.Nodes))
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if _, dup := nodes[n.ID]; dup {
			err = multierr.Append(err, fmt.Errorf("%w: timeline %s: duplicate node id %s", ErrInconsistentGraph, t.ID, n.ID))
		}
		nodes[n.ID] = n
		if !n.Kind.IsValid() {
			err = multierr.Append(err, fmt.Errorf("%w: node %s has unknown type %q", ErrInvalidOperation, n.ID, n.Kind))
		}
		if n.IsDelimiter() && n.Marker != MarkerStart && n.Marker != MarkerEnd {
			err = multierr.Append(err, fmt.Errorf("%w: delimiter %s has unknown marker %q", ErrInvalidOperation, n.ID, n.Marker))
		}
		if !n.Status.IsValid() {
			err = multierr.Append(err, fmt.Errorf("node %s: %w %q", n.ID, ErrInvalidStatus, n.Status))
		}
		if n.IsStart() && len(n.Prevs) > 0 {
			err = multierr.Append(err, fmt.Errorf("%w: start delimiter %s has predecessors", ErrInconsistentGraph, n.ID))
		}
		if n.IsEnd() && len(n.Succs) > 0 {
			err = multierr.Append(err, fmt.Errorf("%w: end delimiter %s has successors", ErrInconsistentGraph, n.ID))
		}
	}

	for i := range t.Nodes {
		n := &t.Nodes[i]
		err = multierr.Append(err, checkEdges(n, n.Prevs, "prevs", nodes, func(o *Node) []string { return o.Succs }))
		err = multierr.Append(err, checkEdges(n, n.Succs, "succs", nodes, func(o *Node) []string { return o.Prevs }))
	}

	if cycle := FindCycle(t); cycle != nil {
		err = multierr.Append(err, fmt.Errorf("%w: timeline %s has a cycle through %v", ErrInconsistentGraph, t.ID, cycle))
	}
	return err
}

// checkEdges verifies one adjacency list of n: every id resolves, appears
// once, and the neighbour's opposite list points back at n.
func checkEdges(n *Node, ids []string, field string, nodes map[string]*Node, back func(*Node) []string) error {
	var err error
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			err = multierr.Append(err, fmt.Errorf("%w: node %s lists %s twice in %s", ErrInconsistentGraph, n.ID, id, field))
			continue
		}
		seen[id] = true
		if id == n.ID {
			err = multierr.Append(err, fmt.Errorf("%w: node %s references itself in %s", ErrInconsistentGraph, n.ID, field))
			continue
		}
		other, ok := nodes[id]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: node %s has dangling %s entry %s", ErrInconsistentGraph, n.ID, field, id))
			continue
		}
		if !slices.Contains(back(other), n.ID) {
			err = multierr.Append(err, fmt.Errorf("%w: node %s lists %s in %s but not the reverse", ErrInconsistentGraph, n.ID, id, field))
		}
	}
	return err
}

func (t *Timeline) validateRecurrence() error {
	r := t.Recurrence
	if r == nil {
		return fmt.Errorf("%w: recurrence timeline %s has no recurrence settings", ErrInvalidOperation, t.ID)
	}
	var err error
	switch r.Frequency {
	case FrequencyDaily:
	case FrequencyWeekly:
		for _, d := range r.Weekdays {
			if d < 0 || d > 6 {
				err = multierr.Append(err, fmt.Errorf("%w: timeline %s weekday %d out of range 0-6", ErrInvalidOperation, t.ID, d))
			}
		}
	case FrequencyMonthly:
		for _, d := range r.MonthDays {
			if d < 1 || d > 31 {
				err = multierr.Append(err, fmt.Errorf("%w: timeline %s month day %d out of range 1-31", ErrInvalidOperation, t.ID, d))
			}
		}
	default:
		err = multierr.Append(err, fmt.Errorf("%w: timeline %s has unknown frequency %q", ErrInvalidOperation, t.ID, r.Frequency))
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		err = multierr.Append(err, fmt.Errorf("%w: timeline %s ends before it starts", ErrInvalidOperation, t.ID))
	}
	if r.Pattern.CurrentIndex < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: timeline %s has negative pattern cursor", ErrInvalidOperation, t.ID))
	}
	return err
}

// FindCycle returns the ids along a successor cycle in the timeline, or nil
// when the graph is acyclic. Dangling successor ids are ignored here.
func FindCycle(t *Timeline) []string {
	const (
		white = iota
		grey
		black
	)
	nodes := t.NodeMap()
	color := make(map[string]int, len(nodes))
	var stack []string
	var found []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = grey
		stack = append(stack, id)
		for _, next := range nodes[id].Succs {
			if _, ok := nodes[next]; !ok {
				continue
			}
			switch color[next] {
			case grey:
				start := slices.Index(stack, next)
				found = append(slices.Clone(stack[start:]), next)
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for i := range t.Nodes {
		id := t.Nodes[i].ID
		if color[id] == white && visit(id) {
			return found
		}
	}
	return nil
}

// Validate checks every timeline in the group.
func (g *TimelineGroup) Validate() error {
	var err error
	if g.Title == "" {
		err = multierr.Append(err, fmt.Errorf("group %s: %w", g.ID, ErrEmptyTitle))
	}
	seen := make(map[string]bool, len(g.Timelines))
	for i := range g.Timelines {
		tl := &g.Timelines[i]
		if seen[tl.ID] {
			err = multierr.Append(err, fmt.Errorf("%w: group %s has duplicate timeline %s", ErrInconsistentGraph, g.ID, tl.ID))
		}
		seen[tl.ID] = true
		err = multierr.Append(err, tl.Validate())
	}
	return err
}

// Validate checks every group and that every depends_on_timeline reference
// resolves to an existing timeline.
func (s *Snapshot) Validate() error {
	var err error
	timelines := make(map[string]bool)
	for gi := range s.Groups {
		g := &s.Groups[gi]
		err = multierr.Append(err, g.Validate())
		for ti := range g.Timelines {
			id := g.Timelines[ti].ID
			if timelines[id] {
				err = multierr.Append(err, fmt.Errorf("%w: timeline %s appears in more than one group", ErrInconsistentGraph, id))
			}
			timelines[id] = true
		}
	}
	for _, tl := range s.Timelines() {
		for _, n := range tl.Nodes {
			for _, ref := range n.DependsOnTimeline {
				if !timelines[ref] {
					err = multierr.Append(err, fmt.Errorf("%w: node %s depends on unknown timeline %s", ErrInconsistentGraph, n.ID, ref))
				}
			}
		}
	}
	return err
}
