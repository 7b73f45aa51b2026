// Package noteservice coordinates the note store, link resolution, imports,
// graph layout and change events. The HTTP API, the MCP server and the CLI
// all go through it.
package noteservice

import (
	"io"
	"log/slog"

	"github.com/starford/neuralnotes/internal/graph"
	"github.com/starford/neuralnotes/internal/importer"
	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/store"
)

// Welcome note created with every new vault.
const (
	WelcomeTitle   = "Start"
	WelcomeContent = "Welcome to your new vault."
)

// Publisher receives change notifications. *sse.Broker implements it.
type Publisher interface {
	PublishNoteEvent(kind, vaultID, noteID string)
	PublishVaultEvent(kind, vaultID string)
}

type nopPublisher struct{}

func (nopPublisher) PublishNoteEvent(string, string, string) {}
func (nopPublisher) PublishVaultEvent(string, string)        {}

// GraphDefaults are used when a layout request leaves a field at zero.
type GraphDefaults struct {
	Width   float64
	Height  float64
	Frames  int
	Params  graph.Params
	Palette graph.Palette
}

// DefaultGraph returns the stock canvas size, settle frames and constants.
func DefaultGraph() GraphDefaults {
	return GraphDefaults{
		Width:   960,
		Height:  640,
		Frames:  300,
		Params:  graph.DefaultParams(),
		Palette: graph.DefaultPalette(),
	}
}

// NoteDetail is a note with the ids of the notes linking to it.
type NoteDetail struct {
	models.Note
	Backlinks []string `json:"backlinks"`
}

// Service coordinates store, linker, importer and events.
type Service struct {
	db          store.NoteStore
	events      Publisher
	logger      *slog.Logger
	importer    *importer.Importer
	importOpts  []importer.Option
	autoResolve bool
	graph       GraphDefaults
}

// Option configures a Service.
type Option func(*Service)

// WithEvents publishes changes to p.
func WithEvents(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAutoResolve makes content updates replace a note's links with the
// resolution of its new content.
func WithAutoResolve(on bool) Option {
	return func(s *Service) { s.autoResolve = on }
}

// WithGraphDefaults overrides the layout defaults.
func WithGraphDefaults(g GraphDefaults) Option {
	return func(s *Service) { s.graph = g }
}

// WithImportOptions passes options to the importer.
func WithImportOptions(opts ...importer.Option) Option {
	return func(s *Service) { s.importOpts = append(s.importOpts, opts...) }
}

// NewService creates a new note service.
func NewService(db store.NoteStore, opts ...Option) *Service {
	s := &Service{
		db:     db,
		events: nopPublisher{},
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		graph:  DefaultGraph(),
	}
	for _, o := range opts {
		o(s)
	}
	s.importer = importer.New(db, s.logger, s.importOpts...)
	return s
}

// Store returns the underlying note store.
func (s *Service) Store() store.NoteStore { return s.db }

// GraphDefaults returns the layout defaults in use.
func (s *Service) GraphDefaults() GraphDefaults { return s.graph }

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
