package graph

import "math"

// Marker geometry.
const (
	GlowRadius  = 15.0
	CoreRadius  = 4.0
	LabelOffset = 22.0
	ellipsis    = "..."
)

// Role tells a surface what a primitive depicts, so surfaces without colour
// (a terminal grid) can still pick a glyph.
type Role int

const (
	RoleEdge Role = iota
	RoleGlow
	RoleNode
	RoleNodeGrabbed
	RoleLabel
)

// Paint describes how a primitive is drawn. ColorTo, when set, is the end
// colour of a linear gradient along a line or the outer colour of a radial
// gradient for an arc.
type Paint struct {
	Role    Role
	Color   string
	ColorTo string
	Alpha   float64
	Width   float64
}

// Palette holds the paints used by Draw.
type Palette struct {
	Edge        Paint
	Glow        Paint
	Node        Paint
	NodeGrabbed Paint
	Label       Paint
}

// DefaultPalette is the violet theme.
func DefaultPalette() Palette {
	return Palette{
		Edge:        Paint{Role: RoleEdge, Color: "#8b5cf6", ColorTo: "#d946ef", Alpha: 0.2, Width: 1},
		Glow:        Paint{Role: RoleGlow, Color: "#a78bfa", Alpha: 0.8},
		Node:        Paint{Role: RoleNode, Color: "#e0e7ff", Alpha: 1},
		NodeGrabbed: Paint{Role: RoleNodeGrabbed, Color: "#ffffff", Alpha: 1},
		Label:       Paint{Role: RoleLabel, Color: "#ffffff", Alpha: 0.7},
	}
}

// Surface is a 2D drawing target.
type Surface interface {
	Size() (width, height float64)
	Clear()
	Line(x1, y1, x2, y2 float64, p Paint)
	Arc(x, y, r, start, end float64, p Paint)
	Text(x, y float64, s string, p Paint)
}

// Draw renders the current positions: edges first, then each node's glow,
// core and label.
func (e *Engine) Draw(s Surface, pal Palette) {
	s.Clear()
	for _, ed := range e.edges {
		a, b := e.nodes[ed.Source], e.nodes[ed.Target]
		s.Line(a.X, a.Y, b.X, b.Y, pal.Edge)
	}
	grabbed := e.drag.grabbedIndex()
	for i, n := range e.nodes {
		s.Arc(n.X, n.Y, GlowRadius, 0, 2*math.Pi, pal.Glow)
		core := pal.Node
		if i == grabbed {
			core = pal.NodeGrabbed
		}
		s.Arc(n.X, n.Y, CoreRadius, 0, 2*math.Pi, core)
		s.Text(n.X, n.Y+LabelOffset, TruncateLabel(n.Label, e.params.LabelBudget), pal.Label)
	}
}

// Frame runs one tick: it follows the surface size, steps the simulation and
// draws the result.
func (e *Engine) Frame(s Surface, pal Palette) {
	if w, h := s.Size(); w != e.width || h != e.height {
		e.Resize(w, h)
	}
	e.Step()
	e.Draw(s, pal)
}

// TruncateLabel cuts label to budget runes and appends "..." when it was longer.
func TruncateLabel(label string, budget int) string {
	if budget <= 0 {
		return label
	}
	r := []rune(label)
	if len(r) <= budget {
		return label
	}
	return string(r[:budget]) + ellipsis
}
