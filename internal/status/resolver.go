package status

import (
	"github.com/npratt/okline/internal/model"
)

// Resolver derives statuses over a fixed set of timelines, memoizing each
// result for its own lifetime. Build a new Resolver after the model
// changes. A Resolver is not safe for concurrent use.
type Resolver struct {
	crossTimeline bool
	timelines     map[string]*model.Timeline
	order         []*model.Timeline
	nodes         map[string]map[string]*model.Node

	nodeMemo     map[nodeKey]model.Status
	timelineMemo map[string]model.TimelineStatus
	visiting     map[nodeKey]bool
	tlVisiting   map[string]bool

	issues []Inconsistency
	seen   map[Inconsistency]bool
}

type nodeKey struct {
	timeline string
	node     string
}

// NewResolver returns a Resolver scoped to the given timelines. Nodes that
// depend on a timeline outside the scope derive as lock.
func NewResolver(timelines ...*model.Timeline) *Resolver {
	return newResolver(true, timelines...)
}

// ForSnapshot returns a Resolver scoped to every timeline in the snapshot.
func ForSnapshot(s *model.Snapshot) *Resolver {
	return NewResolver(s.Timelines()...)
}

// ForGroup returns a Resolver scoped to one group.
func ForGroup(g *model.TimelineGroup) *Resolver {
	tls := make([]*model.Timeline, len(g.Timelines))
	for i := range g.Timelines {
		tls[i] = &g.Timelines[i]
	}
	return NewResolver(tls...)
}

func newResolver(crossTimeline bool, timelines ...*model.Timeline) *Resolver {
	r := &Resolver{
		crossTimeline: crossTimeline,
		timelines:     make(map[string]*model.Timeline, len(timelines)),
		order:         timelines,
		nodes:         make(map[string]map[string]*model.Node, len(timelines)),
		nodeMemo:      make(map[nodeKey]model.Status),
		timelineMemo:  make(map[string]model.TimelineStatus),
		visiting:      make(map[nodeKey]bool),
		tlVisiting:    make(map[string]bool),
		seen:          make(map[Inconsistency]bool),
	}
	for _, tl := range timelines {
		r.timelines[tl.ID] = tl
		r.nodes[tl.ID] = tl.NodeMap()
	}
	return r
}

// Node returns the derived status of a node. Unknown ids yield lock.
func (r *Resolver) Node(timelineID, nodeID string) model.Status {
	tl, ok := r.timelines[timelineID]
	if !ok {
		return model.StatusLock
	}
	n, ok := r.nodes[timelineID][nodeID]
	if !ok {
		return model.StatusLock
	}
	return r.deriveNode(tl, n)
}

// Timeline returns the aggregate status of a timeline in scope. Unknown ids
// yield todo.
func (r *Resolver) Timeline(timelineID string) model.TimelineStatus {
	tl, ok := r.timelines[timelineID]
	if !ok {
		return model.TimelineTodo
	}
	if st, ok := r.timelineMemo[timelineID]; ok {
		return st
	}
	if r.tlVisiting[timelineID] {
		// A timeline waiting on itself through its own nodes never finishes.
		return model.TimelineTodo
	}
	r.tlVisiting[timelineID] = true
	st := r.deriveTimeline(tl)
	delete(r.tlVisiting, timelineID)
	r.timelineMemo[timelineID] = st
	return st
}

// All derives every node in scope and returns the statuses keyed by node id.
func (r *Resolver) All() map[string]model.Status {
	out := make(map[string]model.Status)
	for _, tl := range r.order {
		for i := range tl.Nodes {
			out[tl.Nodes[i].ID] = r.deriveNode(tl, &tl.Nodes[i])
		}
	}
	return out
}

// Inconsistencies returns the problems found so far, in discovery order.
func (r *Resolver) Inconsistencies() []Inconsistency {
	return r.issues
}

func (r *Resolver) report(i Inconsistency) {
	if r.seen[i] {
		return
	}
	r.seen[i] = true
	r.issues = append(r.issues, i)
}

func (r *Resolver) deriveNode(tl *model.Timeline, n *model.Node) model.Status {
	key := nodeKey{timeline: tl.ID, node: n.ID}
	if st, ok := r.nodeMemo[key]; ok {
		return st
	}
	if r.visiting[key] {
		r.report(Inconsistency{TimelineID: tl.ID, NodeID: n.ID, Ref: n.ID, Reason: "predecessor cycle at"})
		return model.StatusLock
	}
	r.visiting[key] = true
	st := r.computeNode(tl, n)
	delete(r.visiting, key)
	r.nodeMemo[key] = st
	return st
}

func (r *Resolver) computeNode(tl *model.Timeline, n *model.Node) model.Status {
	if n.IsStart() {
		return model.StatusDone
	}
	if !n.IsDelimiter() {
		if st := autoStatus(n); st.IsTerminal() {
			return st
		}
	}

	locked := false
	for _, pid := range n.Prevs {
		p, ok := r.nodes[tl.ID][pid]
		if !ok {
			r.report(Inconsistency{TimelineID: tl.ID, NodeID: n.ID, Ref: pid, Reason: "dangling predecessor"})
			locked = true
			continue
		}
		if !r.deriveNode(tl, p).IsTerminal() {
			locked = true
		}
	}

	if r.crossTimeline && !n.IsDelimiter() {
		for _, ref := range n.DependsOnTimeline {
			if _, ok := r.timelines[ref]; !ok {
				r.report(Inconsistency{TimelineID: tl.ID, NodeID: n.ID, Ref: ref, Reason: "unknown timeline dependency"})
				locked = true
				continue
			}
			if r.Timeline(ref) != model.TimelineDone {
				locked = true
			}
		}
	}

	switch {
	case locked:
		return model.StatusLock
	case n.IsEnd():
		return model.StatusDone
	default:
		return model.StatusTodo
	}
}

func (r *Resolver) deriveTimeline(tl *model.Timeline) model.TimelineStatus {
	switch tl.Kind {
	case model.TimelineKindRecurrence:
		if tl.Status == "" {
			return model.TimelineTodo
		}
		return tl.Status
	case model.TimelineKindTask:
	default:
		return model.TimelineTodo
	}

	tasks, finished, doing := 0, 0, false
	for i := range tl.Nodes {
		n := &tl.Nodes[i]
		if n.IsDelimiter() {
			continue
		}
		tasks++
		if r.deriveNode(tl, n).IsTerminal() {
			finished++
		}
		if n.Milestone || n.Status == model.StatusDoing {
			doing = true
		}
	}
	switch {
	case tasks > 0 && finished == tasks:
		return model.TimelineDone
	case doing:
		return model.TimelineDoing
	default:
		return model.TimelineTodo
	}
}
