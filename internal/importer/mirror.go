package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/neuralnotes/internal/linker"
	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/storage"
	"github.com/starford/neuralnotes/internal/store"
	"github.com/starford/neuralnotes/internal/wikilink"
)

// MirrorDebounce is how long Mirror waits after the last file event before
// syncing.
var MirrorDebounce = 200 * time.Millisecond

// MirrorStore is the note store contract needed to keep a vault in sync with
// a folder.
type MirrorStore interface {
	ListNotes(ctx context.Context, vaultID string) ([]models.Note, error)
	CreateNote(ctx context.Context, vaultID string, in store.NoteInput) (*models.Note, error)
	UpdateNote(ctx context.Context, vaultID, noteID string, p store.NotePatch) (*models.Note, error)
	DeleteNote(ctx context.Context, vaultID, noteID string) error
}

// SyncReport counts the changes made by one folder sync.
type SyncReport struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
	Relinked int `json:"relinked"`
}

// Changed reports whether the sync touched any note.
func (r SyncReport) Changed() bool {
	return r.Created+r.Updated+r.Deleted+r.Relinked > 0
}

// SyncFolder makes the vault match the folder. Notes are matched to files by
// title, which is the file's path relative to the folder without ".md".
// Files without a note are created, notes whose content differs are updated
// and notes without a file are deleted. The whole vault is relinked when
// anything changed.
func SyncFolder(ctx context.Context, st MirrorStore, vaultID string, folder storage.Provider, logger *slog.Logger) (SyncReport, error) {
	var report SyncReport

	metas, err := folder.List("")
	if err != nil {
		return report, fmt.Errorf("importer: sync list: %w", err)
	}
	notes, err := st.ListNotes(ctx, vaultID)
	if err != nil {
		return report, fmt.Errorf("importer: sync notes: %w", err)
	}
	byTitle := make(map[string]models.Note, len(notes))
	for _, n := range notes {
		if _, ok := byTitle[n.Title]; !ok {
			byTitle[n.Title] = n
		}
	}

	onDisk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		title := wikilink.StripMarkdownSuffix(m.Path)
		onDisk[title] = struct{}{}

		data, err := folder.Read(m.Path)
		if err != nil {
			logger.Warn("mirror: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		content := string(data)

		existing, ok := byTitle[title]
		switch {
		case !ok:
			if _, err := st.CreateNote(ctx, vaultID, store.NoteInput{Title: title, Content: content, Links: []string{}}); err != nil {
				return report, fmt.Errorf("importer: sync create %s: %w", m.Path, err)
			}
			report.Created++
		case existing.Content != content:
			if _, err := st.UpdateNote(ctx, vaultID, existing.ID, store.NotePatch{Content: &content}); err != nil {
				return report, fmt.Errorf("importer: sync update %s: %w", m.Path, err)
			}
			report.Updated++
		}
	}

	for title, n := range byTitle {
		if _, ok := onDisk[title]; ok {
			continue
		}
		if err := st.DeleteNote(ctx, vaultID, n.ID); err != nil {
			logger.Warn("mirror: delete failed", slog.String("note_id", n.ID), slog.String("error", err.Error()))
			continue
		}
		report.Deleted++
	}

	if report.Changed() {
		rel, err := linker.RelinkVault(ctx, st, vaultID, logger)
		if err != nil {
			return report, err
		}
		report.Relinked = len(rel.Updated)
	}
	return report, nil
}

// Mirror syncs the folder into the vault once, then watches the folder and
// re-syncs after file changes settle, until ctx is cancelled. cb, if non-nil,
// is called after every sync that changed something.
func Mirror(ctx context.Context, st MirrorStore, vaultID string, folder *storage.FS, logger *slog.Logger, cb func(SyncReport)) error {
	sync := func() {
		report, err := SyncFolder(ctx, st, vaultID, folder, logger)
		if err != nil {
			logger.Warn("mirror: sync failed", slog.String("vault_id", vaultID), slog.String("error", err.Error()))
			return
		}
		if report.Changed() {
			logger.Debug("mirror: synced",
				slog.Int("created", report.Created),
				slog.Int("updated", report.Updated),
				slog.Int("deleted", report.Deleted))
			if cb != nil {
				cb(report)
			}
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, folder.Root()); err != nil {
		return err
	}
	sync()
	logger.Info("mirror: started", slog.String("root", folder.Root()), slog.String("vault_id", vaultID))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(MirrorDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(MirrorDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("mirror: stopped")
			return nil

		case <-timerCh:
			sync()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("mirror: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			if wikilink.IsMarkdown(ev.Name) || ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("mirror: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
