package noteservice

import (
	"context"
	"fmt"
	"slices"

	"github.com/starford/neuralnotes/internal/apperr"
	"github.com/starford/neuralnotes/internal/linker"
	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/sse"
	"github.com/starford/neuralnotes/internal/store"
	"github.com/starford/neuralnotes/internal/wikilink"
)

// CreateNoteInput carries a new note. When Links is nil and either
// ResolveLinks or auto-resolution is on, links are resolved from Content.
type CreateNoteInput struct {
	Title        string
	Content      string
	Links        []string
	ResolveLinks bool
}

// UpdateNoteInput carries a partial note update.
type UpdateNoteInput struct {
	Title   *string
	Content *string
	Links   *[]string
	IfMatch string
}

// ListNotes returns the notes of a vault, most recently updated first.
func (s *Service) ListNotes(ctx context.Context, vaultID string) ([]models.Note, error) {
	return s.db.ListNotes(ctx, vaultID)
}

// GetNote returns a note with its backlinks.
func (s *Service) GetNote(ctx context.Context, vaultID, noteID string) (*NoteDetail, error) {
	n, err := s.db.GetNote(ctx, vaultID, noteID)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(ctx, vaultID, noteID)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{Note: *n, Backlinks: nonNilSlice(bl)}, nil
}

// CreateNote creates a note in a vault.
func (s *Service) CreateNote(ctx context.Context, vaultID string, in CreateNoteInput) (*models.Note, error) {
	links := in.Links
	if links == nil && (in.ResolveLinks || s.autoResolve) {
		res, err := linker.ResolveNote(ctx, s.db, vaultID, "", in.Content)
		if err != nil {
			return nil, err
		}
		links = res.IDs
	}
	n, err := s.db.CreateNote(ctx, vaultID, store.NoteInput{Title: in.Title, Content: in.Content, Links: links})
	if err != nil {
		return nil, err
	}
	s.events.PublishNoteEvent(sse.KindCreated, vaultID, n.ID)
	return n, nil
}

// UpdateNote applies a partial update. With auto-resolution on, a content
// change without explicit links re-resolves the note's links.
func (s *Service) UpdateNote(ctx context.Context, vaultID, noteID string, in UpdateNoteInput) (*models.Note, error) {
	patch := store.NotePatch{Title: in.Title, Content: in.Content, Links: in.Links, IfMatch: in.IfMatch}
	if s.autoResolve && in.Content != nil && in.Links == nil {
		res, err := linker.ResolveNote(ctx, s.db, vaultID, noteID, *in.Content)
		if err != nil {
			return nil, err
		}
		patch.Links = &res.IDs
	}
	n, err := s.db.UpdateNote(ctx, vaultID, noteID, patch)
	if err != nil {
		return nil, err
	}
	s.events.PublishNoteEvent(sse.KindUpdated, vaultID, noteID)
	return n, nil
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, vaultID, noteID string) error {
	if err := s.db.DeleteNote(ctx, vaultID, noteID); err != nil {
		return err
	}
	s.events.PublishNoteEvent(sse.KindDeleted, vaultID, noteID)
	return nil
}

// AddLink appends targetID to a note's links unless it is already there.
// The target must be another note of the same vault.
func (s *Service) AddLink(ctx context.Context, vaultID, noteID, targetID string) (*models.Note, error) {
	if targetID == noteID {
		return nil, fmt.Errorf("noteservice: note cannot link to itself: %w", apperr.ErrInvalid)
	}
	n, err := s.db.GetNote(ctx, vaultID, noteID)
	if err != nil {
		return nil, err
	}
	if slices.Contains(n.Links, targetID) {
		return n, nil
	}
	if _, err := s.db.GetNote(ctx, vaultID, targetID); err != nil {
		return nil, err
	}
	links := append(slices.Clone(n.Links), targetID)
	updated, err := s.db.UpdateNote(ctx, vaultID, noteID, store.NotePatch{Links: &links})
	if err != nil {
		return nil, err
	}
	s.events.PublishNoteEvent(sse.KindLinked, vaultID, noteID)
	return updated, nil
}

// Backlinks returns the ids of notes linking to noteID.
func (s *Service) Backlinks(ctx context.Context, vaultID, noteID string) ([]string, error) {
	if _, err := s.db.GetNote(ctx, vaultID, noteID); err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(ctx, vaultID, noteID)
	return nonNilSlice(bl), err
}

// Search runs a text search inside one vault.
func (s *Service) Search(ctx context.Context, vaultID, query string, limit int) ([]store.SearchResult, error) {
	if _, err := s.db.GetVault(ctx, vaultID); err != nil {
		return nil, err
	}
	res, err := s.db.Search(ctx, vaultID, query, limit)
	return nonNilSlice(res), err
}

// Resolve previews how content would link inside the vault, including the
// references that would be dropped. noteID may be empty.
func (s *Service) Resolve(ctx context.Context, vaultID, noteID, content string) (wikilink.Resolution, error) {
	return linker.ResolveNote(ctx, s.db, vaultID, noteID, content)
}

// Relink re-resolves every note of the vault from its content.
func (s *Service) Relink(ctx context.Context, vaultID string) (linker.RelinkReport, error) {
	report, err := linker.RelinkVault(ctx, s.db, vaultID, s.logger)
	if err != nil {
		return report, err
	}
	if len(report.Updated) > 0 {
		s.events.PublishVaultEvent(sse.KindLinked, vaultID)
	}
	return report, nil
}
