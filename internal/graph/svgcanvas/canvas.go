// Package svgcanvas implements graph.Surface by recording a frame as SVG.
package svgcanvas

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/starford/neuralnotes/internal/graph"
)

const fontFamily = "Inter, sans-serif"

// Canvas collects drawing calls for one frame.
type Canvas struct {
	width      float64
	height     float64
	background string
	body       bytes.Buffer
	defs       bytes.Buffer
	gradients  int
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithBackground fills the canvas with a solid colour.
func WithBackground(color string) Option {
	return func(c *Canvas) { c.background = color }
}

// New returns an empty width x height canvas.
func New(width, height float64, opts ...Option) *Canvas {
	c := &Canvas{width: width, height: height}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Size implements graph.Surface.
func (c *Canvas) Size() (float64, float64) { return c.width, c.height }

// Clear implements graph.Surface.
func (c *Canvas) Clear() {
	c.body.Reset()
	c.defs.Reset()
	c.gradients = 0
}

// Line implements graph.Surface. A Paint with ColorTo becomes a linear
// gradient from the first point to the second.
func (c *Canvas) Line(x1, y1, x2, y2 float64, p graph.Paint) {
	stroke := p.Color
	if p.ColorTo != "" {
		id := c.nextGradient()
		fmt.Fprintf(&c.defs, `    <linearGradient id="%s" gradientUnits="userSpaceOnUse" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f">`+
			`<stop offset="0" stop-color="%s"/><stop offset="1" stop-color="%s"/></linearGradient>`+"\n",
			id, x1, y1, x2, y2, p.Color, p.ColorTo)
		stroke = "url(#" + id + ")"
	}
	fmt.Fprintf(&c.body, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-opacity="%s" stroke-width="%s"/>`+"\n",
		x1, y1, x2, y2, stroke, num(p.Alpha), num(width(p)))
}

// Arc implements graph.Surface as a filled sector; a full turn is a circle.
// Glow paints fade out radially.
func (c *Canvas) Arc(x, y, r, start, end float64, p graph.Paint) {
	fill := p.Color
	if p.Role == graph.RoleGlow {
		id := c.nextGradient()
		outer := p.ColorTo
		if outer == "" {
			outer = p.Color
		}
		fmt.Fprintf(&c.defs, `    <radialGradient id="%s"><stop offset="0.13" stop-color="%s" stop-opacity="%s"/>`+
			`<stop offset="1" stop-color="%s" stop-opacity="0"/></radialGradient>`+"\n",
			id, p.Color, num(p.Alpha), outer)
		fill = "url(#" + id + ")"
	}
	if end-start >= 2*math.Pi {
		opacity := p.Alpha
		if p.Role == graph.RoleGlow {
			opacity = 1
		}
		fmt.Fprintf(&c.body, `  <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" fill-opacity="%s"/>`+"\n",
			x, y, r, fill, num(opacity))
		return
	}
	sx, sy := x+r*math.Cos(start), y+r*math.Sin(start)
	ex, ey := x+r*math.Cos(end), y+r*math.Sin(end)
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	fmt.Fprintf(&c.body, `  <path d="M %.2f %.2f L %.2f %.2f A %.2f %.2f 0 %d 1 %.2f %.2f Z" fill="%s" fill-opacity="%s"/>`+"\n",
		x, y, sx, sy, r, r, large, ex, ey, fill, num(p.Alpha))
}

// Text implements graph.Surface. Text is centred on x.
func (c *Canvas) Text(x, y float64, s string, p graph.Paint) {
	fmt.Fprintf(&c.body, `  <text x="%.2f" y="%.2f" text-anchor="middle" font-family="%s" font-size="11" font-weight="500" fill="%s" fill-opacity="%s">%s</text>`+"\n",
		x, y, fontFamily, p.Color, num(p.Alpha), escapeXML(s))
}

// Bytes returns the complete SVG document.
func (c *Canvas) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		c.width, c.height, c.width, c.height)
	if c.defs.Len() > 0 {
		buf.WriteString("  <defs>\n")
		buf.Write(c.defs.Bytes())
		buf.WriteString("  </defs>\n")
	}
	if c.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", c.background)
	}
	buf.Write(c.body.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// Render draws the current layout of e onto a canvas of the engine's size.
func Render(e *graph.Engine, pal graph.Palette, opts ...Option) []byte {
	w, h := e.Size()
	c := New(w, h, opts...)
	e.Draw(c, pal)
	return c.Bytes()
}

func (c *Canvas) nextGradient() string {
	c.gradients++
	return fmt.Sprintf("g%d", c.gradients)
}

func width(p graph.Paint) float64 {
	if p.Width <= 0 {
		return 1
	}
	return p.Width
}

func num(f float64) string {
	return fmt.Sprintf("%g", math.Round(f*1000)/1000)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
