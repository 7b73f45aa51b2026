package graph

import "math"

// Step advances the simulation by one frame. All forces are accumulated
// before any node moves. The grabbed node takes no forces, keeps zero
// velocity and stays where the pointer put it.
func (e *Engine) Step() {
	grabbed := e.drag.grabbedIndex()
	p := e.params

	for i := 0; i < len(e.nodes); i++ {
		if i == grabbed {
			continue
		}
		a := &e.nodes[i]
		for j := i + 1; j < len(e.nodes); j++ {
			if j == grabbed {
				continue
			}
			b := &e.nodes[j]
			dx, dy := a.X-b.X, a.Y-b.Y
			dist := math.Hypot(dx, dy)
			var ux, uy float64
			if dist == 0 {
				theta := float64(i*len(e.nodes)+j) * goldenAngle
				ux, uy = math.Cos(theta), math.Sin(theta)
			} else {
				ux, uy = dx/dist, dy/dist
			}
			if dist < 1 {
				dist = 1
			}
			f := p.Repulsion / (dist * dist)
			a.VX += ux * f
			a.VY += uy * f
			b.VX -= ux * f
			b.VY -= uy * f
		}
	}

	cx, cy := e.width/2, e.height/2
	for i := range e.nodes {
		n := &e.nodes[i]
		if i == grabbed {
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX += (cx - n.X) * p.Centering
		n.VY += (cy - n.Y) * p.Centering

		n.VX *= p.Damping
		n.VY *= p.Damping

		n.X += n.VX
		n.Y += n.VY

		if n.X < p.Padding {
			n.VX += p.WallImpulse
		}
		if n.X > e.width-p.Padding {
			n.VX -= p.WallImpulse
		}
		if n.Y < p.Padding {
			n.VY += p.WallImpulse
		}
		if n.Y > e.height-p.Padding {
			n.VY -= p.WallImpulse
		}
	}
}

// Settle runs n steps.
func (e *Engine) Settle(n int) {
	for range n {
		e.Step()
	}
}
