// Package status derives the displayed status of nodes and timelines from
// their stored status and the state of their predecessors and cross-timeline
// dependencies. Nothing here mutates the model; results are recomputed on
// demand.
package status

import (
	"fmt"

	"github.com/npratt/okline/internal/model"
)

// Inconsistency describes an invariant violation found while deriving, such
// as a predecessor id that resolves to nothing. The affected node derives
// as lock; callers decide whether to log or surface it.
type Inconsistency struct {
	TimelineID string
	NodeID     string
	Ref        string
	Reason     string
}

// Err returns the inconsistency as an error wrapping model.ErrInconsistentGraph.
func (i Inconsistency) Err() error {
	return fmt.Errorf("%w: timeline %s node %s: %s %s", model.ErrInconsistentGraph, i.TimelineID, i.NodeID, i.Reason, i.Ref)
}

// DeriveNode returns the displayed status of node using only its own
// timeline. Cross-timeline dependencies are not consulted; use a Resolver
// for that.
func DeriveNode(node *model.Node, tl *model.Timeline) model.Status {
	r := newResolver(false, tl)
	return r.deriveNode(tl, node)
}

// DeriveTimeline returns the aggregate status of a timeline using only its
// own nodes.
func DeriveTimeline(tl *model.Timeline) model.TimelineStatus {
	r := newResolver(false, tl)
	return r.Timeline(tl.ID)
}

// Actionable reports whether a node can be worked on now: a task whose
// derived status is todo.
func Actionable(st model.Status, node *model.Node) bool {
	return !node.IsDelimiter() && st == model.StatusTodo
}

// autoStatus folds completion rules that do not depend on other nodes into
// the stored status: a quantitative task that reached its target and a task
// whose subtasks are all finished both count as done.
func autoStatus(n *model.Node) model.Status {
	if n.Status.IsTerminal() {
		return n.Status
	}
	if n.Mode != nil && n.Mode.Mode == model.ModeQuantitative && n.Mode.Quantitative.Reached() {
		return model.StatusDone
	}
	if len(n.SubTasks) > 0 {
		for _, st := range n.SubTasks {
			if !st.Status.IsTerminal() {
				return n.Status
			}
		}
		return model.StatusDone
	}
	return n.Status
}
