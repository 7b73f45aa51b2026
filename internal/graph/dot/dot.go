// Package dot exports a graph layout as Graphviz DOT and renders it with the
// embedded Graphviz engine.
package dot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/starford/neuralnotes/internal/graph"
)

// pointsPerInch converts pixel positions to Graphviz inches.
const pointsPerInch = 72.0

// ToDOT writes the layout as an undirected graph. Node positions are pinned
// with "x,y!" so neato keeps the simulated layout; y is flipped because
// Graphviz grows upwards.
func ToDOT(l graph.Layout, pal graph.Palette, labelBudget int) string {
	var buf bytes.Buffer
	buf.WriteString("graph notes {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, width=%.3f, fixedsize=true, fillcolor=%q, color=%q, fontname=\"Inter\", fontsize=11, fontcolor=%q];\n",
		2*graph.CoreRadius/pointsPerInch, pal.Node.Color, pal.Glow.Color, pal.Label.Color)
	fmt.Fprintf(&buf, "  edge [color=%q, penwidth=1];\n", pal.Edge.Color)
	buf.WriteString("\n")

	for _, n := range l.Nodes {
		fmt.Fprintf(&buf, "  %q [xlabel=%q, label=\"\", pos=\"%.2f,%.2f!\"];\n",
			n.ID, graph.TruncateLabel(n.Label, labelBudget), n.X/pointsPerInch, (l.Height-n.Y)/pointsPerInch)
	}

	if len(l.Edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range l.Edges {
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT document to SVG using the neato engine so pinned
// positions are honoured.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("dot: init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("dot: parse: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("dot: render: %w", err)
	}
	return buf.Bytes(), nil
}
