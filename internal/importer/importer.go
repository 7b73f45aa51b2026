// Package importer creates notes from Markdown files and resolves the
// wikilinks between them in two phases, so references to notes created
// later in the same batch still resolve.
package importer

import (
	"context"
	"log/slog"

	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/store"
)

// DefaultVaultName is used when no vault name can be inferred from the files.
const DefaultVaultName = "My vault"

// Store is the note store contract the importer writes through.
type Store interface {
	CreateVault(ctx context.Context, name, theme string) (*models.Vault, error)
	ListVaults(ctx context.Context) ([]models.Vault, error)
	ListNotes(ctx context.Context, vaultID string) ([]models.Note, error)
	CreateNote(ctx context.Context, vaultID string, in store.NoteInput) (*models.Note, error)
	UpdateNote(ctx context.Context, vaultID, noteID string, p store.NotePatch) (*models.Note, error)
}

// File is one uploaded or loaded file. RelativePath is slash-separated and,
// for a folder import, starts with the folder name.
type File struct {
	Name         string `json:"name"`
	RelativePath string `json:"relative_path,omitempty"`
	Content      string `json:"-"`
}

// Failure records a note whose links could not be persisted.
type Failure struct {
	NoteID string `json:"note_id"`
	Title  string `json:"title"`
	Error  string `json:"error"`
}

// Result describes the outcome of an import.
type Result struct {
	Vault    *models.Vault `json:"vault,omitempty"`
	Created  []models.Note `json:"created"`
	Linked   int           `json:"linked"`
	Skipped  int           `json:"skipped"`
	Failures []Failure     `json:"failures"`
}

// Importer runs imports against a Store.
type Importer struct {
	store            Store
	logger           *slog.Logger
	defaultVaultName string
	theme            string
}

// Option configures an Importer.
type Option func(*Importer)

// WithDefaultVaultName sets the fallback vault name for ImportVault.
func WithDefaultVaultName(name string) Option {
	return func(im *Importer) {
		if name != "" {
			im.defaultVaultName = name
		}
	}
}

// WithTheme sets the theme of vaults created by ImportVault.
func WithTheme(theme string) Option {
	return func(im *Importer) {
		if theme != "" {
			im.theme = theme
		}
	}
}

// New creates an Importer.
func New(st Store, logger *slog.Logger, opts ...Option) *Importer {
	im := &Importer{
		store:            st,
		logger:           logger,
		defaultVaultName: DefaultVaultName,
		theme:            store.DefaultTheme,
	}
	for _, o := range opts {
		o(im)
	}
	return im
}
