package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DefaultMaxUploadBytes bounds an import upload when Options leaves it unset.
const DefaultMaxUploadBytes = 50 << 20

// Options configures NewRouter.
type Options struct {
	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events         http.Handler
	MaxUploadBytes int64
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc Service, opts Options) chi.Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	h := NewHandler(svc, opts.MaxUploadBytes)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))

	// Vaults.
	r.Get("/vaults", h.ListVaults)
	r.Post("/vaults", h.CreateVault)
	r.Post("/vaults/import", h.ImportVault)

	r.Route("/vaults/{vaultID}", func(r chi.Router) {
		r.Get("/", h.GetVault)
		r.Patch("/", h.UpdateVault)
		r.Delete("/", h.DeleteVault)

		// Notes CRUD.
		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.CreateNote)
		r.Get("/notes/{noteID}", h.GetNote)
		r.Patch("/notes/{noteID}", h.UpdateNote)
		r.Delete("/notes/{noteID}", h.DeleteNote)
		r.Post("/notes/{noteID}/links", h.AddLink)
		r.Get("/notes/{noteID}/backlinks", h.Backlinks)

		// Links.
		r.Post("/import", h.ImportNotes)
		r.Post("/relink", h.Relink)
		r.Post("/resolve", h.Resolve)

		// Search and graph.
		r.Get("/search", h.Search)
		r.Get("/graph", h.Graph)
		r.Get("/graph.svg", h.GraphSVG)
		r.Get("/graph.dot", h.GraphDOT)
	})

	// SSE endpoint (protected by same auth middleware).
	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	return r
}
