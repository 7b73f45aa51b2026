package dot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/neuralnotes/internal/graph"
)

func sampleLayout() graph.Layout {
	return graph.Layout{
		Width:  144,
		Height: 144,
		Nodes: []graph.NodeView{
			{ID: "a", Label: "Alpha", X: 72, Y: 36},
			{ID: "b", Label: "A label well over budget", X: 36, Y: 108},
		},
		Edges: []graph.EdgeView{{Source: "a", Target: "b"}},
	}
}

func TestToDOT_PinnedUndirected(t *testing.T) {
	out := ToDOT(sampleLayout(), graph.DefaultPalette(), 15)

	assert.True(t, strings.HasPrefix(out, "graph notes {\n"))
	assert.Contains(t, out, `"a" [xlabel="Alpha", label="", pos="1.00,1.50!"];`)
	assert.Contains(t, out, `xlabel="A label well ov..."`)
	assert.Contains(t, out, `"a" -- "b";`)
	assert.NotContains(t, out, "->")
}

func TestToDOT_EmptyLayout(t *testing.T) {
	out := ToDOT(graph.Layout{Width: 10, Height: 10}, graph.DefaultPalette(), 15)
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.NotContains(t, out, "--")
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleLayout(), graph.DefaultPalette(), 15))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}
