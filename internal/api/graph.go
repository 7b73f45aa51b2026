package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/neuralnotes/internal/apperr"
	"github.com/starford/neuralnotes/internal/noteservice"
)

const (
	maxGraphSide   = 8192
	maxGraphFrames = 5000
)

// GraphParams are the query parameters shared by the graph endpoints.
type GraphParams struct {
	Width  float64
	Height float64
	Frames int
}

// Validate implements validation.Validatable.
func (p GraphParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Width, validation.Min(0.0), validation.Max(float64(maxGraphSide))),
		validation.Field(&p.Height, validation.Min(0.0), validation.Max(float64(maxGraphSide))),
		validation.Field(&p.Frames, validation.Min(0), validation.Max(maxGraphFrames)),
	)
}

func graphQuery(r *http.Request) (noteservice.GraphQuery, error) {
	q := r.URL.Query()
	var p GraphParams
	var err error
	if s := q.Get("width"); s != "" {
		if p.Width, err = strconv.ParseFloat(s, 64); err != nil {
			return noteservice.GraphQuery{}, fmt.Errorf("width: %w", apperr.ErrInvalid)
		}
	}
	if s := q.Get("height"); s != "" {
		if p.Height, err = strconv.ParseFloat(s, 64); err != nil {
			return noteservice.GraphQuery{}, fmt.Errorf("height: %w", apperr.ErrInvalid)
		}
	}
	if s := q.Get("frames"); s != "" {
		if p.Frames, err = strconv.Atoi(s); err != nil {
			return noteservice.GraphQuery{}, fmt.Errorf("frames: %w", apperr.ErrInvalid)
		}
	}
	if err := p.Validate(); err != nil {
		return noteservice.GraphQuery{}, err
	}
	return noteservice.GraphQuery{Width: p.Width, Height: p.Height, Frames: p.Frames}, nil
}

// Graph handles GET /api/vaults/{vaultID}/graph.
//
//	@Summary		Get the settled force-directed layout of a vault
//	@Tags			graph
//	@Produce		json
//	@Param			width	query		number	false	"Canvas width"
//	@Param			height	query		number	false	"Canvas height"
//	@Param			frames	query		int		false	"Simulation frames to run"
//	@Success		200		{object}	graph.Layout
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	q, err := graphQuery(r)
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	layout, err := h.svc.Layout(r.Context(), vaultID(r), q)
	if err != nil {
		writeError(w, "graph", err, slog.String("vault", vaultID(r)))
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

// GraphSVG handles GET /api/vaults/{vaultID}/graph.svg.
//
//	@Summary		Render the vault graph as SVG
//	@Tags			graph
//	@Produce		image/svg+xml
//	@Param			renderer	query	string	false	"Renderer"	Enums(canvas, graphviz)
//	@Success		200
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/graph.svg [get]
func (h *Handler) GraphSVG(w http.ResponseWriter, r *http.Request) {
	q, err := graphQuery(r)
	if err != nil {
		writeError(w, "graph svg", err)
		return
	}
	renderer := r.URL.Query().Get("renderer")
	switch renderer {
	case "", noteservice.RendererCanvas, noteservice.RendererGraphviz:
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("unknown renderer "+strconv.Quote(renderer)))
		return
	}
	svg, err := h.svc.GraphSVG(r.Context(), vaultID(r), q, renderer)
	if err != nil {
		writeError(w, "graph svg", err, slog.String("vault", vaultID(r)), slog.String("renderer", renderer))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// GraphDOT handles GET /api/vaults/{vaultID}/graph.dot.
func (h *Handler) GraphDOT(w http.ResponseWriter, r *http.Request) {
	q, err := graphQuery(r)
	if err != nil {
		writeError(w, "graph dot", err)
		return
	}
	src, err := h.svc.GraphDOT(r.Context(), vaultID(r), q)
	if err != nil {
		writeError(w, "graph dot", err, slog.String("vault", vaultID(r)))
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(src))
}
