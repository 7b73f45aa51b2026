package noteservice

import (
	"context"

	"github.com/starford/neuralnotes/internal/graph"
	"github.com/starford/neuralnotes/internal/graph/dot"
	"github.com/starford/neuralnotes/internal/graph/svgcanvas"
)

// Renderers accepted by GraphSVG.
const (
	RendererCanvas   = "canvas"
	RendererGraphviz = "graphviz"
)

// GraphQuery sizes a layout. Zero fields take the service defaults.
type GraphQuery struct {
	Width  float64
	Height float64
	Frames int
}

func (s *Service) fill(q GraphQuery) GraphQuery {
	if q.Width <= 0 {
		q.Width = s.graph.Width
	}
	if q.Height <= 0 {
		q.Height = s.graph.Height
	}
	if q.Frames <= 0 {
		q.Frames = s.graph.Frames
	}
	return q
}

// Engine builds a layout engine over the vault's notes and runs the
// requested number of frames.
func (s *Service) Engine(ctx context.Context, vaultID string, q GraphQuery) (*graph.Engine, error) {
	notes, err := s.db.ListNotes(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	q = s.fill(q)
	e := graph.New(notes, q.Width, q.Height, graph.WithParams(s.graph.Params))
	e.Settle(q.Frames)
	return e, nil
}

// Layout returns settled node positions and edges for a vault.
func (s *Service) Layout(ctx context.Context, vaultID string, q GraphQuery) (graph.Layout, error) {
	e, err := s.Engine(ctx, vaultID, q)
	if err != nil {
		return graph.Layout{}, err
	}
	return e.Snapshot(), nil
}

// GraphDOT returns the settled layout as Graphviz DOT.
func (s *Service) GraphDOT(ctx context.Context, vaultID string, q GraphQuery) (string, error) {
	e, err := s.Engine(ctx, vaultID, q)
	if err != nil {
		return "", err
	}
	return dot.ToDOT(e.Snapshot(), s.graph.Palette, e.Params().LabelBudget), nil
}

// GraphSVG renders the settled layout, either through the SVG canvas
// surface or through Graphviz.
func (s *Service) GraphSVG(ctx context.Context, vaultID string, q GraphQuery, renderer string) ([]byte, error) {
	e, err := s.Engine(ctx, vaultID, q)
	if err != nil {
		return nil, err
	}
	if renderer == RendererGraphviz {
		return dot.RenderSVG(ctx, dot.ToDOT(e.Snapshot(), s.graph.Palette, e.Params().LabelBudget))
	}
	return svgcanvas.Render(e, s.graph.Palette), nil
}
