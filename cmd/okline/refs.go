package main

import (
	"fmt"

	"github.com/npratt/okline/internal/model"
)

// Commands accept either an id or an exact title wherever they take a
// group, timeline or node. Ids win; a title shared by several entries is an
// error.

func ambiguous(kind, ref string, n int) error {
	return fmt.Errorf("%w: %d %ss are titled %q, use the id", model.ErrInvalidOperation, n, kind, ref)
}

func missing(kind, ref string) error {
	return fmt.Errorf("%w: %s %q", model.ErrNotFound, kind, ref)
}

// findGroup resolves a group reference.
func findGroup(snap *model.Snapshot, ref string) (*model.TimelineGroup, error) {
	if g := snap.Group(ref); g != nil {
		return g, nil
	}
	var found []*model.TimelineGroup
	for i := range snap.Groups {
		if snap.Groups[i].Title == ref {
			found = append(found, &snap.Groups[i])
		}
	}
	switch len(found) {
	case 0:
		return nil, missing("group", ref)
	case 1:
		return found[0], nil
	default:
		return nil, ambiguous("group", ref, len(found))
	}
}

// findTimeline resolves a timeline reference across all groups.
func findTimeline(snap *model.Snapshot, ref string) (*model.Timeline, error) {
	if _, tl := snap.FindTimeline(ref); tl != nil {
		return tl, nil
	}
	var found []*model.Timeline
	for _, tl := range snap.Timelines() {
		if tl.Title == ref {
			found = append(found, tl)
		}
	}
	switch len(found) {
	case 0:
		return nil, missing("timeline", ref)
	case 1:
		return found[0], nil
	default:
		return nil, ambiguous("timeline", ref, len(found))
	}
}

// findNode resolves a node reference inside tl.
func findNode(tl *model.Timeline, ref string) (*model.Node, error) {
	if n := tl.Node(ref); n != nil {
		return n, nil
	}
	var found []*model.Node
	for i := range tl.Nodes {
		if tl.Nodes[i].Title == ref {
			found = append(found, &tl.Nodes[i])
		}
	}
	switch len(found) {
	case 0:
		return nil, missing("node", ref)
	case 1:
		return found[0], nil
	default:
		return nil, ambiguous("node", ref, len(found))
	}
}

// findAnyNode resolves a node reference across all timelines. It returns
// the owning timeline too.
func findAnyNode(snap *model.Snapshot, ref string) (*model.Timeline, *model.Node, error) {
	if _, tl, n := snap.FindNode(ref); n != nil {
		return tl, n, nil
	}
	var (
		foundTL []*model.Timeline
		found   []*model.Node
	)
	for _, tl := range snap.Timelines() {
		for i := range tl.Nodes {
			if tl.Nodes[i].Title == ref {
				foundTL = append(foundTL, tl)
				found = append(found, &tl.Nodes[i])
			}
		}
	}
	switch len(found) {
	case 0:
		return nil, nil, missing("node", ref)
	case 1:
		return foundTL[0], found[0], nil
	default:
		return nil, nil, ambiguous("node", ref, len(found))
	}
}
