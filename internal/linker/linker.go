// Package linker resolves wikilinks against the notes currently stored in a vault.
package linker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/store"
	"github.com/starford/neuralnotes/internal/wikilink"
)

// Store is the subset of the note store the linker needs.
type Store interface {
	ListNotes(ctx context.Context, vaultID string) ([]models.Note, error)
	UpdateNote(ctx context.Context, vaultID, noteID string, p store.NotePatch) (*models.Note, error)
}

// ResolveNote resolves content as if it were the body of noteID in vaultID.
// noteID may be empty for a note that does not exist yet.
func ResolveNote(ctx context.Context, st Store, vaultID, noteID, content string) (wikilink.Resolution, error) {
	notes, err := st.ListNotes(ctx, vaultID)
	if err != nil {
		return wikilink.Resolution{}, fmt.Errorf("linker: resolve: %w", err)
	}
	return wikilink.ResolveDetailed(content, noteID, wikilink.BuildIndex(notes)), nil
}

// RelinkReport summarizes a RelinkVault run.
type RelinkReport struct {
	Scanned int      `json:"scanned"`
	Updated []string `json:"updated"`
	Failed  []string `json:"failed"`
}

// RelinkVault rebuilds the link index from the vault and re-resolves every
// note. Only notes whose links change are written. A failing update is logged
// and does not stop the remaining notes.
func RelinkVault(ctx context.Context, st Store, vaultID string, logger *slog.Logger) (RelinkReport, error) {
	report := RelinkReport{Updated: []string{}, Failed: []string{}}

	notes, err := st.ListNotes(ctx, vaultID)
	if err != nil {
		return report, fmt.Errorf("linker: relink: %w", err)
	}
	idx := wikilink.BuildIndex(notes)
	report.Scanned = len(notes)

	for _, n := range notes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		links := wikilink.Resolve(n.Content, n.ID, idx)
		if slices.Equal(links, n.Links) {
			continue
		}
		if _, err := st.UpdateNote(ctx, vaultID, n.ID, store.NotePatch{Links: &links}); err != nil {
			logger.Warn("linker: update failed",
				slog.String("vault_id", vaultID),
				slog.String("note_id", n.ID),
				slog.String("error", err.Error()))
			report.Failed = append(report.Failed, n.ID)
			continue
		}
		report.Updated = append(report.Updated, n.ID)
	}

	logger.Debug("linker: relinked",
		slog.String("vault_id", vaultID),
		slog.Int("scanned", report.Scanned),
		slog.Int("updated", len(report.Updated)))
	return report, nil
}
