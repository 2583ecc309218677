// Package layout turns a timeline group into positioned nodes and edges for
// a renderer. Two strategies are available: a fixed grid that ignores
// topology and a traversal layout that follows successor edges from each
// start delimiter.
package layout

import (
	"fmt"

	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/status"
)

// Strategy selects how node positions are computed.
type Strategy string

const (
	// StrategyGrid gives every timeline one row and spaces nodes by their
	// index in the timeline.
	StrategyGrid Strategy = "grid"

	// StrategyTraversal walks successors from each start delimiter; the
	// first child stays on its parent's row and later children open new
	// rows.
	StrategyTraversal Strategy = "traversal"
)

// ParseStrategy converts a string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyGrid, StrategyTraversal:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown layout strategy %q", model.ErrInvalidOperation, s)
	}
}

// EdgeType indicates how an edge should be drawn.
type EdgeType int

const (
	// EdgeSequence is a predecessor edge inside a timeline (solid line).
	EdgeSequence EdgeType = iota
	// EdgeTimeline is a depends_on_timeline reference (dashed line).
	EdgeTimeline
)

// String returns a string representation of the EdgeType.
func (e EdgeType) String() string {
	switch e {
	case EdgeSequence:
		return "sequence"
	case EdgeTimeline:
		return "timeline"
	default:
		return "unknown"
	}
}

// MarshalText encodes the edge type by name.
func (e EdgeType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Position is a node's top-left corner in layout units.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// PositionedNode is a node ready to draw: identity, derived status and
// position.
type PositionedNode struct {
	ID         string           `json:"id" yaml:"id"`
	TimelineID string           `json:"timelineId" yaml:"timelineId"`
	Title      string           `json:"title" yaml:"title"`
	Kind       model.NodeKind   `json:"type" yaml:"type"`
	Marker     model.MarkerType `json:"markerType,omitempty" yaml:"markerType,omitempty"`
	Status     model.Status     `json:"status" yaml:"status"`
	Milestone  bool             `json:"milestone,omitempty" yaml:"milestone,omitempty"`
	// Synthetic marks nodes generated for recurrence timelines; they do not
	// exist in the model.
	Synthetic bool `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
	Position  `yaml:",inline"`
}

// Edge connects two positioned nodes.
type Edge struct {
	ID   string   `json:"id" yaml:"id"`
	From string   `json:"source" yaml:"source"`
	To   string   `json:"target" yaml:"target"`
	Type EdgeType `json:"type" yaml:"type"`
}

// Layout is the projection of one group.
type Layout struct {
	GroupID  string           `json:"groupId" yaml:"groupId"`
	Strategy Strategy         `json:"strategy" yaml:"strategy"`
	Nodes    []PositionedNode `json:"nodes" yaml:"nodes"`
	Edges    []Edge           `json:"edges" yaml:"edges"`
}

// Node returns the positioned node with id, or nil.
func (l *Layout) Node(id string) *PositionedNode {
	for i := range l.Nodes {
		if l.Nodes[i].ID == id {
			return &l.Nodes[i]
		}
	}
	return nil
}

// Bounds returns the largest x and y used by any node.
func (l *Layout) Bounds() (int, int) {
	maxX, maxY := 0, 0
	for _, n := range l.Nodes {
		maxX = max(maxX, n.X)
		maxY = max(maxY, n.Y)
	}
	return maxX, maxY
}

// Options configures Project.
type Options struct {
	Strategy Strategy
	GapX     int
	GapY     int
	// FutureCount is how many upcoming nodes an open-ended recurrence
	// timeline shows.
	FutureCount int
	// Resolver supplies derived statuses. When nil a resolver scoped to the
	// projected group is used.
	Resolver *status.Resolver
}

// DefaultOptions returns the traversal strategy with the standard gaps.
func DefaultOptions() Options {
	return Options{
		Strategy:    StrategyTraversal,
		GapX:        300,
		GapY:        100,
		FutureCount: 3,
	}
}
