// Package graph lays out notes as a force-directed graph. One Engine owns
// its nodes, edges and drag state; it is not safe for concurrent use and is
// meant to be driven by a single host frame loop.
package graph

import (
	"math"
	"unicode/utf16"

	"github.com/starford/neuralnotes/internal/models"
)

// DefaultLabel is shown for notes without a title.
const DefaultLabel = "Untitled"

// Params holds the simulation and interaction constants.
type Params struct {
	Repulsion   float64 `yaml:"repulsion" json:"repulsion"`
	Centering   float64 `yaml:"centering" json:"centering"`
	Damping     float64 `yaml:"damping" json:"damping"`
	Padding     float64 `yaml:"padding" json:"padding"`
	WallImpulse float64 `yaml:"wall_impulse" json:"wall_impulse"`
	HitRadius   float64 `yaml:"hit_radius" json:"hit_radius"`
	LabelBudget int     `yaml:"label_budget" json:"label_budget"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		Repulsion:   1800,
		Centering:   0.006,
		Damping:     0.91,
		Padding:     20,
		WallImpulse: 0.5,
		HitRadius:   30,
		LabelBudget: 15,
	}
}

// withDefaults fills zero fields from DefaultParams.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Repulsion == 0 {
		p.Repulsion = d.Repulsion
	}
	if p.Centering == 0 {
		p.Centering = d.Centering
	}
	if p.Damping == 0 {
		p.Damping = d.Damping
	}
	if p.Padding == 0 {
		p.Padding = d.Padding
	}
	if p.WallImpulse == 0 {
		p.WallImpulse = d.WallImpulse
	}
	if p.HitRadius == 0 {
		p.HitRadius = d.HitRadius
	}
	if p.LabelBudget == 0 {
		p.LabelBudget = d.LabelBudget
	}
	return p
}

// Node is one note in the layout.
type Node struct {
	ID    string
	Label string
	X, Y  float64
	VX    float64
	VY    float64
}

// Edge connects two nodes by index into the engine's node slice.
type Edge struct {
	Source int
	Target int
}

// Engine runs the simulation for one view.
type Engine struct {
	params   Params
	width    float64
	height   float64
	nodes    []Node
	edges    []Edge
	index    map[string]int
	drag     dragState
	onSelect func(id string)
}

// Option configures an Engine.
type Option func(*Engine)

// WithParams overrides the simulation constants. Zero fields keep defaults.
func WithParams(p Params) Option {
	return func(e *Engine) { e.params = p.withDefaults() }
}

// WithSelectHandler registers the callback fired when a node is clicked.
func WithSelectHandler(fn func(id string)) Option {
	return func(e *Engine) { e.onSelect = fn }
}

// New builds an engine over notes on a width x height canvas.
func New(notes []models.Note, width, height float64, opts ...Option) *Engine {
	e := &Engine{params: DefaultParams(), width: width, height: height}
	for _, o := range opts {
		o(e)
	}
	e.Rebuild(notes)
	return e
}

// Rebuild discards all nodes and edges and recreates them from notes. Initial
// positions are seeded from the note ids, so the same ids on the same canvas
// always start in the same place. Any drag in progress is dropped.
func (e *Engine) Rebuild(notes []models.Note) {
	e.nodes = make([]Node, len(notes))
	e.index = make(map[string]int, len(notes))
	for i, n := range notes {
		label := n.Title
		if label == "" {
			label = DefaultLabel
		}
		e.nodes[i] = Node{
			ID:    n.ID,
			Label: label,
			X:     hashUnit(n.ID) * e.width,
			Y:     hashUnit(n.ID+"-y") * e.height,
		}
		e.index[n.ID] = i
	}

	e.edges = e.edges[:0]
	for i, n := range notes {
		for _, target := range n.Links {
			j, ok := e.index[target]
			if !ok || j == i {
				continue
			}
			e.edges = append(e.edges, Edge{Source: i, Target: j})
		}
	}
	e.drag = dragState{}
}

// Resize changes the canvas dimensions. Node positions are kept; the
// centering force and walls follow the new size from the next step.
func (e *Engine) Resize(width, height float64) {
	e.width, e.height = width, height
}

// Size returns the canvas dimensions.
func (e *Engine) Size() (width, height float64) { return e.width, e.height }

// Params returns the active constants.
func (e *Engine) Params() Params { return e.params }

// Len returns the number of nodes.
func (e *Engine) Len() int { return len(e.nodes) }

// Nodes returns a copy of the nodes.
func (e *Engine) Nodes() []Node {
	out := make([]Node, len(e.nodes))
	copy(out, e.nodes)
	return out
}

// Edges returns a copy of the edges.
func (e *Engine) Edges() []Edge {
	out := make([]Edge, len(e.edges))
	copy(out, e.edges)
	return out
}

// Node looks up a node by note id.
func (e *Engine) Node(id string) (Node, bool) {
	i, ok := e.index[id]
	if !ok {
		return Node{}, false
	}
	return e.nodes[i], true
}

// hashUnit maps s to [0, 1) with a 31-multiplier string hash over UTF-16
// code units, wrapping at 32 bits.
func hashUnit(s string) float64 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return float64(uint32(h)) / (1 << 32)
}

// goldenAngle spreads the fallback directions for coincident nodes.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))
