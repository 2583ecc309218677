package graph

import (
	"slices"

	"github.com/npratt/okline/internal/model"
)

// ForkTimeline branches a new task timeline off nodeID. The new timeline
// holds a start delimiter followed by a fresh copy of the node (new id,
// status todo, no edges, no timeline dependencies) and is appended to the
// end of the source timeline's group. A split dependency documenting the
// fork is recorded on the source timeline; it has no effect on status.
func (b *Board) ForkTimeline(nodeID, title string) (model.Timeline, error) {
	if title == "" {
		return model.Timeline{}, model.ErrEmptyTitle
	}
	var forked model.Timeline
	err := b.apply("fork-timeline", func(s *model.Snapshot) error {
		g, src, n := s.FindNode(nodeID)
		if n == nil {
			return notFound("node", nodeID)
		}
		if n.IsDelimiter() {
			return invalid("cannot fork from delimiter %s", nodeID)
		}

		tl := model.NewTaskTimeline(title)
		cp := n.Clone()
		cp.ID = model.NewID()
		cp.Status = model.StatusTodo
		cp.Prevs = []string{}
		cp.Succs = []string{}
		cp.DependsOnTimeline = nil
		for i := range cp.SubTasks {
			cp.SubTasks[i].ID = model.NewID()
			cp.SubTasks[i].Status = model.StatusTodo
		}
		if cp.Mode != nil && cp.Mode.Quantitative != nil {
			cp.Mode.Quantitative.Current = 0
		}
		tl.Nodes = append(tl.Nodes, cp)
		start := &tl.Nodes[0]
		start.Succs = []string{cp.ID}
		tl.Nodes[1].Prevs = []string{start.ID}
		if err := checked(&tl); err != nil {
			return err
		}

		src.Dependencies = append(src.Dependencies, model.Dependency{
			ID:   model.NewID(),
			Type: model.DependencySplit,
			From: model.IDList{n.ID},
			To:   model.IDList{tl.ID},
		})
		g.Timelines = append(g.Timelines, tl)
		forked = tl.Clone()
		return nil
	})
	return forked, err
}

// AddCrossTimelineDependency makes nodeID wait until every timeline in
// sourceTimelineIDs is done. The ids are unioned into the node's
// depends_on_timeline without duplicates and a timeline dependency is
// recorded on the owning timeline. Dependencies that would make two
// timelines wait on each other are rejected.
func (b *Board) AddCrossTimelineDependency(nodeID string, sourceTimelineIDs []string) error {
	if len(sourceTimelineIDs) == 0 {
		return invalid("no source timelines given")
	}
	return b.apply("add-timeline-dependency", func(s *model.Snapshot) error {
		_, owner, n := s.FindNode(nodeID)
		if n == nil {
			return notFound("node", nodeID)
		}
		if n.IsDelimiter() {
			return invalid("delimiter %s cannot depend on timelines", nodeID)
		}

		var added []string
		for _, id := range sourceTimelineIDs {
			if _, tl := s.FindTimeline(id); tl == nil {
				return notFound("timeline", id)
			}
			if id == owner.ID {
				return invalid("node %s cannot depend on its own timeline", nodeID)
			}
			if timelineWaitsOn(s, id, owner.ID) {
				return invalid("timeline %s already waits on %s", id, owner.ID)
			}
			if slices.Contains(n.DependsOnTimeline, id) || slices.Contains(added, id) {
				continue
			}
			added = append(added, id)
		}
		if len(added) == 0 {
			return nil
		}
		n.DependsOnTimeline = append(n.DependsOnTimeline, added...)
		owner.Dependencies = append(owner.Dependencies, model.Dependency{
			ID:   model.NewID(),
			Type: model.DependencyTimeline,
			From: model.IDList(added),
			To:   model.IDList{nodeID},
		})
		return nil
	})
}

// RemoveCrossTimelineDependency drops timelineID from the node's
// depends_on_timeline and prunes it from recorded timeline dependencies.
func (b *Board) RemoveCrossTimelineDependency(nodeID, timelineID string) error {
	return b.apply("remove-timeline-dependency", func(s *model.Snapshot) error {
		_, owner, n := s.FindNode(nodeID)
		if n == nil {
			return notFound("node", nodeID)
		}
		if !slices.Contains(n.DependsOnTimeline, timelineID) {
			return notFound("timeline dependency", timelineID)
		}
		n.DependsOnTimeline = removeID(n.DependsOnTimeline, timelineID)

		deps := owner.Dependencies[:0]
		for _, d := range owner.Dependencies {
			if d.Type == model.DependencyTimeline && d.To.Contains(nodeID) {
				d.From = model.IDList(removeID(d.From, timelineID))
				if len(d.From) == 0 {
					continue
				}
			}
			deps = append(deps, d)
		}
		owner.Dependencies = deps
		return nil
	})
}

// timelineWaitsOn reports whether timeline from, directly or through other
// timelines, has a node depending on timeline target.
func timelineWaitsOn(s *model.Snapshot, from, target string) bool {
	seen := map[string]bool{}
	stack := []string{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		_, tl := s.FindTimeline(id)
		if tl == nil {
			continue
		}
		for _, n := range tl.Nodes {
			stack = append(stack, n.DependsOnTimeline...)
		}
	}
	return false
}
