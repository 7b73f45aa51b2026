package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/neuralnotes/internal/graph"
)

// One terminal cell stands for this many layout pixels.
const (
	CellWidth  = 8
	CellHeight = 16
)

const (
	glyphEdge    = '·'
	glyphGlow    = '░'
	glyphNode    = '●'
	glyphGrabbed = '◉'
)

// Higher layers win when primitives overlap in one cell.
var layer = map[graph.Role]int{
	graph.RoleEdge:        1,
	graph.RoleGlow:        2,
	graph.RoleLabel:       3,
	graph.RoleNode:        4,
	graph.RoleNodeGrabbed: 5,
}

type cell struct {
	r     rune
	layer int
	color string
}

// Canvas is a graph.Surface backed by a grid of terminal cells.
type Canvas struct {
	cols, rows int
	cells      []cell
	styles     map[string]lipgloss.Style
}

// NewCanvas returns a blank canvas of cols×rows cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{styles: make(map[string]lipgloss.Style)}
	c.Resize(cols, rows)
	return c
}

// Resize changes the grid size and clears it.
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 0), max(rows, 0)
	c.cells = make([]cell, c.cols*c.rows)
}

// Grid returns the size in cells.
func (c *Canvas) Grid() (cols, rows int) { return c.cols, c.rows }

// Size implements graph.Surface.
func (c *Canvas) Size() (width, height float64) {
	return float64(c.cols * CellWidth), float64(c.rows * CellHeight)
}

// Clear implements graph.Surface.
func (c *Canvas) Clear() {
	clear(c.cells)
}

// Line implements graph.Surface by sampling the segment once per cell.
func (c *Canvas) Line(x1, y1, x2, y2 float64, p graph.Paint) {
	c1, r1 := toCell(x1, y1)
	c2, r2 := toCell(x2, y2)
	steps := max(abs(c2-c1), abs(r2-r1))
	if steps == 0 {
		c.put(c1, r1, glyphEdge, p)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.put(
			c1+int(math.Round(t*float64(c2-c1))),
			r1+int(math.Round(t*float64(r2-r1))),
			glyphEdge, p,
		)
	}
}

// Arc implements graph.Surface. Node cores take the centre cell; glows
// shade the neighbouring cells whose centre lies within the radius. Partial
// arcs are drawn like full ones.
func (c *Canvas) Arc(x, y, r, _, _ float64, p graph.Paint) {
	cc, cr := toCell(x, y)
	switch p.Role {
	case graph.RoleNode:
		c.put(cc, cr, glyphNode, p)
	case graph.RoleNodeGrabbed:
		c.put(cc, cr, glyphGrabbed, p)
	default:
		dc, dr := int(r/CellWidth)+1, int(r/CellHeight)+1
		for row := cr - dr; row <= cr+dr; row++ {
			for col := cc - dc; col <= cc+dc; col++ {
				if col == cc && row == cr {
					continue
				}
				mx, my := toPixel(col, row)
				if math.Hypot(mx-x, my-y) <= r {
					c.put(col, row, glyphGlow, p)
				}
			}
		}
	}
}

// Text implements graph.Surface, centring s horizontally on x.
func (c *Canvas) Text(x, y float64, s string, p graph.Paint) {
	runes := []rune(s)
	col, row := toCell(x, y)
	col -= len(runes) / 2
	for i, r := range runes {
		c.put(col+i, row, r, p)
	}
}

// CellAt returns the glyph at a cell, or a space.
func (c *Canvas) CellAt(col, row int) rune {
	if !c.inside(col, row) {
		return ' '
	}
	if r := c.cells[row*c.cols+col].r; r != 0 {
		return r
	}
	return ' '
}

// Render returns the grid as styled lines. Runs of one colour share a style.
func (c *Canvas) Render() string {
	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run []rune
		runColor := ""
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runColor == "" {
				b.WriteString(string(run))
			} else {
				b.WriteString(c.style(runColor).Render(string(run)))
			}
			run = run[:0]
		}
		for col := 0; col < c.cols; col++ {
			cl := c.cells[row*c.cols+col]
			r := cl.r
			if r == 0 {
				r = ' '
			}
			if cl.color != runColor {
				flush()
				runColor = cl.color
			}
			run = append(run, r)
		}
		flush()
	}
	return b.String()
}

func (c *Canvas) style(color string) lipgloss.Style {
	st, ok := c.styles[color]
	if !ok {
		st = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		c.styles[color] = st
	}
	return st
}

func (c *Canvas) put(col, row int, r rune, p graph.Paint) {
	if !c.inside(col, row) {
		return
	}
	i := row*c.cols + col
	l := layer[p.Role]
	if l < c.cells[i].layer {
		return
	}
	c.cells[i] = cell{r: r, layer: l, color: p.Color}
}

func (c *Canvas) inside(col, row int) bool {
	return col >= 0 && row >= 0 && col < c.cols && row < c.rows
}

func toCell(x, y float64) (col, row int) {
	return int(math.Floor(x / CellWidth)), int(math.Floor(y / CellHeight))
}

// toPixel maps a cell to the layout position of its centre.
func toPixel(col, row int) (x, y float64) {
	return float64(col*CellWidth) + CellWidth/2, float64(row*CellHeight) + CellHeight/2
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
