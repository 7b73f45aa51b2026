package noteservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/sse"
	"github.com/starford/neuralnotes/internal/store"
)

// ListVaults returns all vaults.
func (s *Service) ListVaults(ctx context.Context) ([]models.Vault, error) {
	return s.db.ListVaults(ctx)
}

// GetVault returns one vault.
func (s *Service) GetVault(ctx context.Context, id string) (*models.Vault, error) {
	return s.db.GetVault(ctx, id)
}

// CreateVault creates a vault together with its welcome note.
func (s *Service) CreateVault(ctx context.Context, name, theme string) (*models.Vault, error) {
	v, err := s.db.CreateVault(ctx, name, theme)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.CreateNote(ctx, v.ID, store.NoteInput{Title: WelcomeTitle, Content: WelcomeContent}); err != nil {
		return nil, fmt.Errorf("noteservice: welcome note: %w", err)
	}
	s.logger.Info("vault created", slog.String("vault_id", v.ID), slog.String("name", v.Name))
	s.events.PublishVaultEvent(sse.KindCreated, v.ID)
	return v, nil
}

// UpdateVault renames or re-themes a vault.
func (s *Service) UpdateVault(ctx context.Context, id string, p store.VaultPatch) (*models.Vault, error) {
	v, err := s.db.UpdateVault(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.events.PublishVaultEvent(sse.KindUpdated, id)
	return v, nil
}

// DeleteVault removes a vault with all its notes.
func (s *Service) DeleteVault(ctx context.Context, id string) error {
	if err := s.db.DeleteVault(ctx, id); err != nil {
		return err
	}
	s.logger.Info("vault deleted", slog.String("vault_id", id))
	s.events.PublishVaultEvent(sse.KindDeleted, id)
	return nil
}
