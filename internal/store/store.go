package store

import (
	"context"

	"github.com/starford/neuralnotes/internal/models"
)

// NoteInput carries the fields of a note to create.
type NoteInput struct {
	Title   string
	Content string
	Links   []string
}

// NotePatch carries a partial note update. Nil fields are left unchanged.
// IfMatch, when non-empty, must equal the note's current checksum.
type NotePatch struct {
	Title   *string
	Content *string
	Links   *[]string
	IfMatch string
}

// VaultPatch carries a partial vault update.
type VaultPatch struct {
	Name  *string
	Theme *string
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// NoteStore defines vault and note persistence. Consumers should depend on
// this interface (or a narrower one) rather than on *DB.
type NoteStore interface {
	CreateVault(ctx context.Context, name, theme string) (*models.Vault, error)
	GetVault(ctx context.Context, id string) (*models.Vault, error)
	ListVaults(ctx context.Context) ([]models.Vault, error)
	UpdateVault(ctx context.Context, id string, p VaultPatch) (*models.Vault, error)
	DeleteVault(ctx context.Context, id string) error

	ListNotes(ctx context.Context, vaultID string) ([]models.Note, error)
	GetNote(ctx context.Context, vaultID, noteID string) (*models.Note, error)
	CreateNote(ctx context.Context, vaultID string, in NoteInput) (*models.Note, error)
	UpdateNote(ctx context.Context, vaultID, noteID string, p NotePatch) (*models.Note, error)
	DeleteNote(ctx context.Context, vaultID, noteID string) error
	Backlinks(ctx context.Context, vaultID, noteID string) ([]string, error)
	Search(ctx context.Context, vaultID, query string, limit int) ([]SearchResult, error)

	Close() error
}

// Verify *DB satisfies NoteStore at compile time.
var _ NoteStore = (*DB)(nil)
