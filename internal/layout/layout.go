package layout

import (
	"fmt"

	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/status"
)

// lane is one timeline prepared for placement: its nodes in model order
// with statuses already resolved.
type lane struct {
	timeline *model.Timeline
	nodes    []model.Node
	status   map[string]model.Status
	synth    bool
}

// Project lays out every timeline of g in group order. Rows of different
// timelines never overlap: each timeline starts one GapY below the lowest
// row of the previous one. An unknown strategy is an error.
func Project(g *model.TimelineGroup, opts Options) (Layout, error) {
	def := DefaultOptions()
	if opts.Strategy == "" {
		opts.Strategy = def.Strategy
	}
	var place func(lane, int, Options) (map[string]Position, int)
	switch opts.Strategy {
	case StrategyGrid:
		place = placeGrid
	case StrategyTraversal:
		place = placeTraversal
	default:
		return Layout{}, fmt.Errorf("%w: unknown layout strategy %q", model.ErrInvalidOperation, opts.Strategy)
	}
	if opts.GapX <= 0 {
		opts.GapX = def.GapX
	}
	if opts.GapY <= 0 {
		opts.GapY = def.GapY
	}
	if opts.FutureCount < 0 {
		opts.FutureCount = 0
	}
	res := opts.Resolver
	if res == nil {
		res = status.ForGroup(g)
	}

	out := Layout{GroupID: g.ID, Strategy: opts.Strategy, Nodes: []PositionedNode{}, Edges: []Edge{}}
	lanes := make([]lane, 0, len(g.Timelines))
	for i := range g.Timelines {
		lanes = append(lanes, buildLane(&g.Timelines[i], res, opts.FutureCount))
	}

	y := 0
	for _, ln := range lanes {
		pos, bottom := place(ln, y, opts)
		for _, n := range ln.nodes {
			out.Nodes = append(out.Nodes, PositionedNode{
				ID:         n.ID,
				TimelineID: ln.timeline.ID,
				Title:      n.Title,
				Kind:       n.Kind,
				Marker:     n.Marker,
				Status:     ln.status[n.ID],
				Milestone:  n.Milestone,
				Synthetic:  ln.synth,
				Position:   pos[n.ID],
			})
		}
		out.Edges = append(out.Edges, sequenceEdges(ln)...)
		y = bottom + opts.GapY
	}
	out.Edges = append(out.Edges, timelineEdges(lanes)...)
	return out, nil
}

func buildLane(tl *model.Timeline, res *status.Resolver, futureCount int) lane {
	if tl.IsRecurrence() {
		nodes := recurrenceNodes(tl, futureCount)
		st := make(map[string]model.Status, len(nodes))
		for _, n := range nodes {
			st[n.ID] = n.Status
		}
		return lane{timeline: tl, nodes: nodes, status: st, synth: true}
	}
	st := make(map[string]model.Status, len(tl.Nodes))
	for i := range tl.Nodes {
		st[tl.Nodes[i].ID] = res.Node(tl.ID, tl.Nodes[i].ID)
	}
	return lane{timeline: tl, nodes: tl.Nodes, status: st}
}

// placeGrid puts every node of the lane on row y, spaced by index.
func placeGrid(ln lane, y int, opts Options) (map[string]Position, int) {
	pos := make(map[string]Position, len(ln.nodes))
	for i, n := range ln.nodes {
		pos[n.ID] = Position{X: i * opts.GapX, Y: y}
	}
	return pos, y
}

// placeTraversal walks successors depth first from each root. The first
// unvisited child continues its parent's row; every further child opens a
// new row below the lowest one used so far, so sibling branches never share
// a row. Nodes no root reaches are placed on one extra row at the end.
func placeTraversal(ln lane, y int, opts Options) (map[string]Position, int) {
	byID := make(map[string]*model.Node, len(ln.nodes))
	for i := range ln.nodes {
		byID[ln.nodes[i].ID] = &ln.nodes[i]
	}
	pos := make(map[string]Position, len(ln.nodes))
	visited := make(map[string]bool, len(ln.nodes))
	bottom := y

	var walk func(n *model.Node, x, row int)
	walk = func(n *model.Node, x, row int) {
		visited[n.ID] = true
		pos[n.ID] = Position{X: x, Y: row}
		bottom = max(bottom, row)
		first := true
		for _, sid := range n.Succs {
			child, ok := byID[sid]
			if !ok || visited[sid] {
				continue
			}
			childRow := row
			if !first {
				childRow = bottom + opts.GapY
			}
			first = false
			walk(child, x+opts.GapX, childRow)
		}
	}

	firstRoot := true
	for _, root := range roots(ln.nodes) {
		if visited[root.ID] {
			continue
		}
		row := y
		if !firstRoot {
			row = bottom + opts.GapY
		}
		firstRoot = false
		walk(root, 0, row)
	}

	orphanRow, col := bottom+opts.GapY, 0
	for i := range ln.nodes {
		n := &ln.nodes[i]
		if visited[n.ID] {
			continue
		}
		pos[n.ID] = Position{X: col * opts.GapX, Y: orphanRow}
		bottom = orphanRow
		col++
	}
	return pos, bottom
}

// roots returns the start delimiters of a lane, or when it has none, the
// nodes without predecessors.
func roots(nodes []model.Node) []*model.Node {
	var starts, heads []*model.Node
	for i := range nodes {
		n := &nodes[i]
		if n.IsStart() {
			starts = append(starts, n)
		}
		if len(n.Prevs) == 0 {
			heads = append(heads, n)
		}
	}
	if len(starts) > 0 {
		return starts
	}
	return heads
}

// sequenceEdges emits one edge per predecessor entry, so each adjacency is
// drawn once even though it is stored on both ends.
func sequenceEdges(ln lane) []Edge {
	present := make(map[string]bool, len(ln.nodes))
	for _, n := range ln.nodes {
		present[n.ID] = true
	}
	var edges []Edge
	for _, n := range ln.nodes {
		for _, p := range n.Prevs {
			if !present[p] {
				continue
			}
			edges = append(edges, Edge{ID: "e-" + p + "-" + n.ID, From: p, To: n.ID, Type: EdgeSequence})
		}
	}
	return edges
}

// timelineEdges draws each depends_on_timeline reference as edges from the
// referenced timeline's tail nodes to the waiting node. References to
// timelines outside the group are not drawn.
func timelineEdges(lanes []lane) []Edge {
	tails := make(map[string][]string, len(lanes))
	for _, ln := range lanes {
		for _, n := range ln.nodes {
			if len(n.Succs) == 0 {
				tails[ln.timeline.ID] = append(tails[ln.timeline.ID], n.ID)
			}
		}
	}
	var edges []Edge
	for _, ln := range lanes {
		for _, n := range ln.nodes {
			for _, ref := range n.DependsOnTimeline {
				for _, from := range tails[ref] {
					edges = append(edges, Edge{ID: "t-" + from + "-" + n.ID, From: from, To: n.ID, Type: EdgeTimeline})
				}
			}
		}
	}
	return edges
}
