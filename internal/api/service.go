package api

import (
	"context"

	"github.com/starford/neuralnotes/internal/graph"
	"github.com/starford/neuralnotes/internal/importer"
	"github.com/starford/neuralnotes/internal/linker"
	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/noteservice"
	"github.com/starford/neuralnotes/internal/store"
	"github.com/starford/neuralnotes/internal/wikilink"
)

// Service is what the handlers need from the domain layer.
// *noteservice.Service implements it.
type Service interface {
	ListVaults(ctx context.Context) ([]models.Vault, error)
	GetVault(ctx context.Context, id string) (*models.Vault, error)
	CreateVault(ctx context.Context, name, theme string) (*models.Vault, error)
	UpdateVault(ctx context.Context, id string, p store.VaultPatch) (*models.Vault, error)
	DeleteVault(ctx context.Context, id string) error

	ListNotes(ctx context.Context, vaultID string) ([]models.Note, error)
	GetNote(ctx context.Context, vaultID, noteID string) (*noteservice.NoteDetail, error)
	CreateNote(ctx context.Context, vaultID string, in noteservice.CreateNoteInput) (*models.Note, error)
	UpdateNote(ctx context.Context, vaultID, noteID string, in noteservice.UpdateNoteInput) (*models.Note, error)
	DeleteNote(ctx context.Context, vaultID, noteID string) error
	AddLink(ctx context.Context, vaultID, noteID, targetID string) (*models.Note, error)
	Backlinks(ctx context.Context, vaultID, noteID string) ([]string, error)
	Search(ctx context.Context, vaultID, query string, limit int) ([]store.SearchResult, error)

	Resolve(ctx context.Context, vaultID, noteID, content string) (wikilink.Resolution, error)
	Relink(ctx context.Context, vaultID string) (linker.RelinkReport, error)
	ImportNotes(ctx context.Context, vaultID string, files []importer.File) (*importer.Result, error)
	ImportVault(ctx context.Context, files []importer.File) (*importer.Result, error)

	Layout(ctx context.Context, vaultID string, q noteservice.GraphQuery) (graph.Layout, error)
	GraphSVG(ctx context.Context, vaultID string, q noteservice.GraphQuery, renderer string) ([]byte, error)
	GraphDOT(ctx context.Context, vaultID string, q noteservice.GraphQuery) (string, error)
}

var _ Service = (*noteservice.Service)(nil)
