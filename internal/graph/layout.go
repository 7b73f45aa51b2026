package graph

// NodeView is the serialisable form of a node.
type NodeView struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// EdgeView is the serialisable form of an edge.
type EdgeView struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Layout is a snapshot of node positions and edges.
type Layout struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Nodes  []NodeView `json:"nodes"`
	Edges  []EdgeView `json:"edges"`
}

// Snapshot captures the current layout.
func (e *Engine) Snapshot() Layout {
	l := Layout{
		Width:  e.width,
		Height: e.height,
		Nodes:  make([]NodeView, len(e.nodes)),
		Edges:  make([]EdgeView, len(e.edges)),
	}
	for i, n := range e.nodes {
		l.Nodes[i] = NodeView{ID: n.ID, Label: n.Label, X: n.X, Y: n.Y}
	}
	for i, ed := range e.edges {
		l.Edges[i] = EdgeView{Source: e.nodes[ed.Source].ID, Target: e.nodes[ed.Target].ID}
	}
	return l
}
