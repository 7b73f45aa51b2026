package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/storage"
)

// LoadFolder reads every Markdown file under the folder. Relative paths are
// rooted at the folder's name, as a browser folder upload would send them.
func LoadFolder(folder *storage.FS) ([]File, error) {
	metas, err := folder.List("")
	if err != nil {
		return nil, fmt.Errorf("importer: list folder: %w", err)
	}
	files := make([]File, 0, len(metas))
	for _, m := range metas {
		data, err := folder.Read(m.Path)
		if err != nil {
			return files, fmt.Errorf("importer: read %s: %w", m.Path, err)
		}
		files = append(files, File{
			Name:         path.Base(m.Path),
			RelativePath: folder.Name() + "/" + m.Path,
			Content:      string(data),
		})
	}
	return files, nil
}

// NoteLister lists the notes of a vault.
type NoteLister interface {
	ListNotes(ctx context.Context, vaultID string) ([]models.Note, error)
}

// ExportReport summarizes an Export run.
type ExportReport struct {
	Written []string  `json:"written"`
	Failed  []Failure `json:"failed"`
}

// Export writes each note of the vault to <title>.md. Untitled notes become
// untitled-<id prefix>.md; a title already written in this run gets the id
// prefix appended. Per-note write errors are reported, not returned.
func Export(ctx context.Context, st NoteLister, vaultID string, dst storage.Provider, logger *slog.Logger) (*ExportReport, error) {
	notes, err := st.ListNotes(ctx, vaultID)
	if err != nil {
		return nil, fmt.Errorf("importer: export: %w", err)
	}
	report := &ExportReport{Written: []string{}, Failed: []Failure{}}
	used := make(map[string]struct{}, len(notes))

	for _, n := range notes {
		name := exportName(n, used)
		used[strings.ToLower(name)] = struct{}{}
		if err := dst.Write(name, []byte(n.Content)); err != nil {
			logger.Warn("importer: export write failed",
				slog.String("note_id", n.ID),
				slog.String("path", name),
				slog.String("error", err.Error()))
			report.Failed = append(report.Failed, Failure{NoteID: n.ID, Title: n.Title, Error: err.Error()})
			continue
		}
		report.Written = append(report.Written, name)
	}
	logger.Info("importer: exported",
		slog.String("vault_id", vaultID),
		slog.Int("written", len(report.Written)),
		slog.Int("failed", len(report.Failed)))
	return report, nil
}

func exportName(n models.Note, used map[string]struct{}) string {
	prefix := n.ID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	title := strings.Trim(strings.TrimSpace(n.Title), "/")
	if title == "" {
		return "untitled-" + prefix + ".md"
	}
	name := title + ".md"
	if _, dup := used[strings.ToLower(name)]; dup {
		name = title + "-" + prefix + ".md"
	}
	return name
}
