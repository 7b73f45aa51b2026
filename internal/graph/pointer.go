package graph

import "math"

type dragPhase int

const (
	phaseIdle dragPhase = iota
	phaseGrabbed
)

// dragState is the single grab session. node is meaningful only while
// phase is phaseGrabbed.
type dragState struct {
	phase dragPhase
	node  int
	moved bool
}

func (d dragState) grabbedIndex() int {
	if d.phase != phaseGrabbed {
		return -1
	}
	return d.node
}

// HitTest returns the node nearest to (x, y) within the hit radius.
func (e *Engine) HitTest(x, y float64) (string, bool) {
	i := e.hit(x, y)
	if i < 0 {
		return "", false
	}
	return e.nodes[i].ID, true
}

func (e *Engine) hit(x, y float64) int {
	best, bestDist := -1, e.params.HitRadius
	for i, n := range e.nodes {
		if d := math.Hypot(n.X-x, n.Y-y); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Grabbed returns the id of the node being dragged, if any.
func (e *Engine) Grabbed() (string, bool) {
	i := e.drag.grabbedIndex()
	if i < 0 {
		return "", false
	}
	return e.nodes[i].ID, true
}

// PointerDown grabs the node under the pointer. A press on empty space does
// nothing.
func (e *Engine) PointerDown(x, y float64) {
	if e.drag.phase == phaseGrabbed {
		return
	}
	if i := e.hit(x, y); i >= 0 {
		e.drag = dragState{phase: phaseGrabbed, node: i}
	}
}

// PointerMove drags the grabbed node to (x, y) and zeroes its velocity.
func (e *Engine) PointerMove(x, y float64) {
	i := e.drag.grabbedIndex()
	if i < 0 {
		return
	}
	n := &e.nodes[i]
	n.X, n.Y = x, y
	n.VX, n.VY = 0, 0
	e.drag.moved = true
}

// PointerUp releases the grab. If the node was pressed and released without
// any move in between and the pointer is still over it, the node is selected:
// the select handler fires and its id is returned.
func (e *Engine) PointerUp(x, y float64) (string, bool) {
	d := e.drag
	e.release()
	if d.phase != phaseGrabbed || d.moved {
		return "", false
	}
	n := e.nodes[d.node]
	if math.Hypot(n.X-x, n.Y-y) >= e.params.HitRadius {
		return "", false
	}
	id := n.ID
	if e.onSelect != nil {
		e.onSelect(id)
	}
	return id, true
}

// PointerLeave releases the grab without selecting.
func (e *Engine) PointerLeave() {
	e.release()
}

func (e *Engine) release() {
	if i := e.drag.grabbedIndex(); i >= 0 {
		e.nodes[i].VX, e.nodes[i].VY = 0, 0
	}
	e.drag = dragState{}
}
