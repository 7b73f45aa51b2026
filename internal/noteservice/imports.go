package noteservice

import (
	"context"

	"github.com/starford/neuralnotes/internal/importer"
	"github.com/starford/neuralnotes/internal/sse"
)

// ImportNotes imports Markdown files into an existing vault.
func (s *Service) ImportNotes(ctx context.Context, vaultID string, files []importer.File) (*importer.Result, error) {
	if _, err := s.db.GetVault(ctx, vaultID); err != nil {
		return nil, err
	}
	res, err := s.importer.ImportNotes(ctx, vaultID, files)
	if len(res.Created) > 0 {
		s.events.PublishVaultEvent(sse.KindImported, vaultID)
	}
	return res, err
}

// ImportVault creates a new vault from a folder of Markdown files.
func (s *Service) ImportVault(ctx context.Context, files []importer.File) (*importer.Result, error) {
	res, err := s.importer.ImportVault(ctx, files)
	if res.Vault != nil {
		s.events.PublishVaultEvent(sse.KindImported, res.Vault.ID)
	}
	return res, err
}
