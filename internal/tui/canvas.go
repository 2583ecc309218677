package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/npratt/okline/internal/layout"
	"github.com/npratt/okline/internal/model"
)

// NodeDensity represents the level of detail shown for nodes.
type NodeDensity int

const (
	// DensityCompact shows the status icon and title on one line.
	DensityCompact NodeDensity = iota
	// DensityStandard adds the status name.
	DensityStandard
	// DensityDetailed adds the owning timeline.
	DensityDetailed
)

// String returns a string representation of the NodeDensity.
func (d NodeDensity) String() string {
	switch d {
	case DensityCompact:
		return "compact"
	case DensityStandard:
		return "standard"
	case DensityDetailed:
		return "detailed"
	default:
		return "unknown"
	}
}

// ParseDensity converts a string to NodeDensity.
func ParseDensity(s string) NodeDensity {
	switch s {
	case "compact":
		return DensityCompact
	case "detailed":
		return DensityDetailed
	default:
		return DensityStandard
	}
}

// next cycles compact -> standard -> detailed -> compact.
func (d NodeDensity) next() NodeDensity {
	return (d + 1) % 3
}

// nodeDimensions returns node width and height in cells.
func (d NodeDensity) nodeDimensions() (int, int) {
	switch d {
	case DensityCompact:
		return 16, 1
	case DensityDetailed:
		return 26, 3
	default:
		return 26, 2
	}
}

const (
	// colGap is the number of cells between horizontally adjacent nodes.
	colGap = 4
	// rowGap is the number of cells between vertically adjacent nodes.
	rowGap = 1
)

// statusIcon returns a single-character icon for the given status.
func statusIcon(st model.Status) string {
	switch st {
	case model.StatusTodo, model.StatusDoing:
		return "o"
	case model.StatusDone:
		return "."
	case model.StatusSkipped:
		return "-"
	case model.StatusLock:
		return "x"
	default:
		return "?"
	}
}

// cell is a node's top-left corner on the canvas.
type cell struct {
	X, Y int
}

// canvas maps a layout onto terminal cells. Layout coordinates are in
// gap units, so every gapX step becomes one node column and every gapY
// step one node row.
type canvas struct {
	layout  *layout.Layout
	density NodeDensity
	gapX    int
	gapY    int
	cells   map[string]cell
}

func newCanvas(l *layout.Layout, density NodeDensity, gapX, gapY int) *canvas {
	if gapX <= 0 {
		gapX = 1
	}
	if gapY <= 0 {
		gapY = 1
	}
	c := &canvas{layout: l, density: density, gapX: gapX, gapY: gapY, cells: make(map[string]cell, len(l.Nodes))}
	w, h := density.nodeDimensions()
	for _, n := range l.Nodes {
		c.cells[n.ID] = cell{
			X: n.X / gapX * (w + colGap),
			Y: n.Y / gapY * (h + rowGap),
		}
	}
	return c
}

// size returns the canvas extent in cells.
func (c *canvas) size() (int, int) {
	w, h := c.density.nodeDimensions()
	maxX, maxY := 0, 0
	for _, p := range c.cells {
		maxX = max(maxX, p.X+w)
		maxY = max(maxY, p.Y+h)
	}
	return maxX, maxY
}

// render draws the visible window of the canvas starting at (offX, offY).
func (c *canvas) render(width, height, offX, offY int, selected string) string {
	grid := newGrid(width, height)
	w, h := c.density.nodeDimensions()

	// Edges first so nodes draw on top.
	for _, e := range c.layout.Edges {
		from, okFrom := c.cells[e.From]
		to, okTo := c.cells[e.To]
		if !okFrom || !okTo {
			continue
		}
		c.renderEdge(grid, from, to, e.Type, offX, offY, w)
	}

	for i := range c.layout.Nodes {
		n := &c.layout.Nodes[i]
		p := c.cells[n.ID]
		x, y := p.X-offX, p.Y-offY
		if x+w < 0 || x >= width || y+h < 0 || y >= height {
			continue
		}
		style := styleForStatus(n.Status)
		if n.ID == selected {
			style = styleSelected
		}
		for dy, line := range c.formatNode(n, w) {
			if dy >= h {
				break
			}
			grid.writeString(x, y+dy, line, style)
		}
	}
	return grid.String()
}

// renderEdge draws an edge from the right side of from to the left side
// of to: across on the source row, down or up on the column before the
// target, then across into the target. Timeline edges are dashed.
func (c *canvas) renderEdge(grid *charGrid, from, to cell, typ layout.EdgeType, offX, offY, w int) {
	hChar, vChar := '─', '│'
	if typ == layout.EdgeTimeline {
		hChar, vChar = '╌', '╎'
	}
	fromX := from.X + w - offX
	fromY := from.Y - offY
	toX := to.X - 1 - offX
	toY := to.Y - offY

	turnX := toX - 1
	if turnX < fromX {
		turnX = fromX
	}
	for x := fromX; x < turnX; x++ {
		grid.writeRune(x, fromY, hChar, styleEdge)
	}
	if fromY != toY {
		step := 1
		if toY < fromY {
			step = -1
		}
		for y := fromY; y != toY; y += step {
			grid.writeRune(turnX, y, vChar, styleEdge)
		}
		if toY > fromY {
			grid.writeRune(turnX, fromY, '┐', styleEdge)
			grid.writeRune(turnX, toY, '└', styleEdge)
		} else {
			grid.writeRune(turnX, fromY, '┘', styleEdge)
			grid.writeRune(turnX, toY, '┌', styleEdge)
		}
	} else {
		grid.writeRune(turnX, toY, hChar, styleEdge)
	}
	for x := turnX + 1; x < toX; x++ {
		grid.writeRune(x, toY, hChar, styleEdge)
	}
	grid.writeRune(toX, toY, '>', styleEdge)
}

// formatNode returns the lines drawn for a node, each at most width cells.
func (c *canvas) formatNode(n *layout.PositionedNode, width int) []string {
	icon := statusIcon(n.Status)
	title := n.Title
	if n.Kind == model.KindDelimiter {
		if n.Marker == model.MarkerStart {
			icon = ">"
		} else {
			icon = "|"
		}
	}
	if n.Milestone {
		title = "* " + title
	}
	lines := []string{icon + " " + title}
	if c.density >= DensityStandard {
		lines = append(lines, "  "+string(n.Status))
	}
	if c.density >= DensityDetailed {
		lines = append(lines, "  "+n.TimelineID)
	}
	for i, l := range lines {
		lines[i] = truncate.StringWithTail(l, uint(width), "…")
	}
	return lines
}

// charGrid is a 2D character grid for rendering. Each cell remembers the
// style it was written with so runs can be rendered together.
type charGrid struct {
	width  int
	height int
	cells  [][]rune
	styles [][]*lipgloss.Style
}

// newGrid creates a new character grid filled with spaces.
func newGrid(width, height int) *charGrid {
	width, height = max(width, 0), max(height, 0)
	cells := make([][]rune, height)
	styles := make([][]*lipgloss.Style, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]rune, width)
		styles[y] = make([]*lipgloss.Style, width)
		for x := 0; x < width; x++ {
			cells[y][x] = ' '
		}
	}
	return &charGrid{
		width:  width,
		height: height,
		cells:  cells,
		styles: styles,
	}
}

// writeRune writes a single rune at the given position.
func (g *charGrid) writeRune(x, y int, r rune, style *lipgloss.Style) {
	if x >= 0 && x < g.width && y >= 0 && y < g.height {
		g.cells[y][x] = r
		g.styles[y][x] = style
	}
}

// writeString writes a string starting at the given position, one rune per
// cell.
func (g *charGrid) writeString(x, y int, s string, style *lipgloss.Style) {
	i := 0
	for _, r := range s {
		g.writeRune(x+i, y, r, style)
		i++
	}
}

// String converts the grid to a string, rendering each run of equally
// styled cells once.
func (g *charGrid) String() string {
	lines := make([]string, 0, g.height)
	for y, row := range g.cells {
		var b strings.Builder
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && g.styles[y][x] == g.styles[y][start] {
				continue
			}
			run := string(row[start:x])
			if st := g.styles[y][start]; st != nil {
				run = st.Render(run)
			}
			b.WriteString(run)
			start = x
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
