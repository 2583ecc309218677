package graph

import (
	"slices"

	"github.com/npratt/okline/internal/model"
)

// Mode selects which side of the source node an insertion splices into.
type Mode string

const (
	After  Mode = "after"
	Before Mode = "before"
)

// NodeSpec is the caller-supplied content of a new task node.
type NodeSpec struct {
	Title       string
	Description string
	Milestone   bool
	Mode        *model.TaskMode
	SubTasks    []string
}

func (spec NodeSpec) build() (model.Node, error) {
	if spec.Title == "" {
		return model.Node{}, model.ErrEmptyTitle
	}
	n := model.NewTaskNode(spec.Title)
	n.Description = spec.Description
	n.Milestone = spec.Milestone
	if spec.Mode != nil {
		m := *spec.Mode
		n.Mode = &m
	}
	for _, title := range spec.SubTasks {
		n.SubTasks = append(n.SubTasks, model.SubTask{ID: model.NewID(), Title: title, Status: model.StatusTodo})
	}
	return n.Clone(), nil
}

// NodePatch changes selected fields of a task node. Nil fields are left
// alone.
type NodePatch struct {
	Title       *string
	Description *string
	Milestone   *bool
	Mode        *model.TaskMode
	Progress    *float64
	SubTasks    []model.SubTask
}

// InsertNode splices a new node into the chain next to sourceID.
//
// After: the new node takes over source's successors and becomes source's
// only successor. Before: the new node takes over source's predecessors and
// becomes its only predecessor. Nothing can be inserted before a start
// delimiter or after an end delimiter.
func (b *Board) InsertNode(timelineID, sourceID string, spec NodeSpec, mode Mode) (model.Node, error) {
	n, err := spec.build()
	if err != nil {
		return model.Node{}, err
	}
	err = b.apply("insert-node", func(s *model.Snapshot) error {
		tl, err := taskTimeline(s, timelineID)
		if err != nil {
			return err
		}
		if err := splice(tl, sourceID, n, mode); err != nil {
			return err
		}
		return checked(tl)
	})
	if err != nil {
		return model.Node{}, err
	}
	return n, nil
}

func splice(tl *model.Timeline, sourceID string, n model.Node, mode Mode) error {
	idx := tl.NodeIndex(sourceID)
	if idx < 0 {
		return notFound("node", sourceID)
	}
	src := &tl.Nodes[idx]

	switch mode {
	case After:
		if src.IsEnd() {
			return invalid("cannot insert after end delimiter %s", sourceID)
		}
		n.Prevs = []string{src.ID}
		n.Succs = slices.Clone(src.Succs)
		for _, sid := range n.Succs {
			if succ := tl.Node(sid); succ != nil {
				replaceID(succ.Prevs, src.ID, n.ID)
			}
		}
		src.Succs = []string{n.ID}
		tl.Nodes = slices.Insert(tl.Nodes, idx+1, n)
	case Before:
		if src.IsStart() {
			return invalid("cannot insert before start delimiter %s", sourceID)
		}
		n.Succs = []string{src.ID}
		n.Prevs = slices.Clone(src.Prevs)
		for _, pid := range n.Prevs {
			if pred := tl.Node(pid); pred != nil {
				replaceID(pred.Succs, src.ID, n.ID)
			}
		}
		src.Prevs = []string{n.ID}
		tl.Nodes = slices.Insert(tl.Nodes, idx, n)
	default:
		return invalid("unknown insert mode %q", mode)
	}
	return nil
}

func replaceID(ids []string, old, repl string) {
	for i, id := range ids {
		if id == old {
			ids[i] = repl
		}
	}
}

// AppendNode adds a node at the end of a timeline: after the last open tail,
// or before the end delimiter when the timeline has one.
func (b *Board) AppendNode(timelineID string, spec NodeSpec) (model.Node, error) {
	n, err := spec.build()
	if err != nil {
		return model.Node{}, err
	}
	err = b.apply("append-node", func(s *model.Snapshot) error {
		tl, err := taskTimeline(s, timelineID)
		if err != nil {
			return err
		}
		var end, tail *model.Node
		for i := range tl.Nodes {
			cur := &tl.Nodes[i]
			switch {
			case cur.IsEnd():
				end = cur
			case len(cur.Succs) == 0:
				tail = cur
			}
		}
		switch {
		case end != nil:
			err = splice(tl, end.ID, n, Before)
		case tail != nil:
			err = splice(tl, tail.ID, n, After)
		default:
			tl.Nodes = append(tl.Nodes, n)
		}
		if err != nil {
			return err
		}
		return checked(tl)
	})
	if err != nil {
		return model.Node{}, err
	}
	return n, nil
}

// AddEdge links from -> to inside one timeline. The edge is rejected when it
// would duplicate an existing edge, touch a delimiter the wrong way, or
// make any node reachable from itself.
func (b *Board) AddEdge(timelineID, from, to string) error {
	return b.apply("add-edge", func(s *model.Snapshot) error {
		tl, err := taskTimeline(s, timelineID)
		if err != nil {
			return err
		}
		f, t := tl.Node(from), tl.Node(to)
		if f == nil {
			return notFound("node", from)
		}
		if t == nil {
			return notFound("node", to)
		}
		switch {
		case from == to:
			return invalid("node %s cannot depend on itself", from)
		case slices.Contains(f.Succs, to):
			return invalid("edge %s -> %s already exists", from, to)
		case t.IsStart():
			return invalid("start delimiter %s cannot have predecessors", to)
		case f.IsEnd():
			return invalid("end delimiter %s cannot have successors", from)
		case Reachable(tl, to, from):
			return invalid("edge %s -> %s would create a cycle", from, to)
		}
		f.Succs = append(f.Succs, to)
		t.Prevs = append(t.Prevs, from)
		return checked(tl)
	})
}

// RemoveEdge unlinks from -> to.
func (b *Board) RemoveEdge(timelineID, from, to string) error {
	return b.apply("remove-edge", func(s *model.Snapshot) error {
		tl, err := taskTimeline(s, timelineID)
		if err != nil {
			return err
		}
		f, t := tl.Node(from), tl.Node(to)
		if f == nil || t == nil || !slices.Contains(f.Succs, to) {
			return notFound("edge", from+" -> "+to)
		}
		f.Succs = removeID(f.Succs, to)
		t.Prevs = removeID(t.Prevs, from)
		return checked(tl)
	})
}

// RemoveNode deletes a node, detaching it from every neighbour and linking
// each predecessor to each successor it can no longer reach, so the chain
// stays connected. Start delimiters cannot be removed.
func (b *Board) RemoveNode(timelineID, nodeID string) error {
	return b.apply("remove-node", func(s *model.Snapshot) error {
		tl, err := taskTimeline(s, timelineID)
		if err != nil {
			return err
		}
		idx := tl.NodeIndex(nodeID)
		if idx < 0 {
			return notFound("node", nodeID)
		}
		n := tl.Nodes[idx]
		if n.IsStart() {
			return invalid("cannot remove start delimiter %s", nodeID)
		}
		for _, pid := range n.Prevs {
			if p := tl.Node(pid); p != nil {
				p.Succs = removeID(p.Succs, nodeID)
			}
		}
		for _, sid := range n.Succs {
			if succ := tl.Node(sid); succ != nil {
				succ.Prevs = removeID(succ.Prevs, nodeID)
			}
		}
		for _, pid := range n.Prevs {
			p := tl.Node(pid)
			if p == nil || p.IsEnd() {
				continue
			}
			for _, sid := range n.Succs {
				succ := tl.Node(sid)
				if succ == nil || succ.IsStart() || Reachable(tl, pid, sid) {
					continue
				}
				p.Succs = append(p.Succs, sid)
				succ.Prevs = append(succ.Prevs, pid)
			}
		}
		tl.Nodes = slices.Delete(tl.Nodes, idx, idx+1)
		return checked(tl)
	})
}

// UpdateNode applies a patch to a task node.
func (b *Board) UpdateNode(timelineID, nodeID string, patch NodePatch) error {
	if patch.Title != nil && *patch.Title == "" {
		return model.ErrEmptyTitle
	}
	return b.apply("update-node", func(s *model.Snapshot) error {
		tl, err := taskTimeline(s, timelineID)
		if err != nil {
			return err
		}
		n := tl.Node(nodeID)
		if n == nil {
			return notFound("node", nodeID)
		}
		if n.IsDelimiter() {
			return invalid("delimiter %s cannot be edited", nodeID)
		}
		if patch.Title != nil {
			n.Title = *patch.Title
		}
		if patch.Description != nil {
			n.Description = *patch.Description
		}
		if patch.Milestone != nil {
			n.Milestone = *patch.Milestone
		}
		if patch.Mode != nil {
			m := *patch.Mode
			n.Mode = &m
			*n = n.Clone()
		}
		if patch.Progress != nil {
			if n.Mode == nil || n.Mode.Mode != model.ModeQuantitative || n.Mode.Quantitative == nil {
				return invalid("node %s is not quantitative", nodeID)
			}
			n.Mode.Quantitative.Current = *patch.Progress
		}
		if patch.SubTasks != nil {
			n.SubTasks = slices.Clone(patch.SubTasks)
		}
		return checked(tl)
	})
}

// Reachable reports whether to can be reached from from by following
// successor edges.
func Reachable(tl *model.Timeline, from, to string) bool {
	nodes := tl.NodeMap()
	seen := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == to {
			return true
		}
		n, ok := nodes[id]
		if !ok {
			continue
		}
		for _, next := range n.Succs {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(x string) bool { return x == id })
}
