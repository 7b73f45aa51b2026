package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/starford/neuralnotes/internal/apperr"
	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/store"
	"github.com/starford/neuralnotes/internal/wikilink"
)

const importedSuffix = " (imported)"

type pending struct {
	note    models.Note
	content string
}

// ImportNotes adds files to an existing vault. Titles come from the file
// names. Links are resolved against the vault's existing notes plus the
// newly created ones.
func (im *Importer) ImportNotes(ctx context.Context, vaultID string, files []File) (*Result, error) {
	md := markdownOnly(files)
	res := newResult(len(files) - len(md))
	if len(md) == 0 {
		return res, nil
	}

	existing, err := im.store.ListNotes(ctx, vaultID)
	if err != nil {
		return res, fmt.Errorf("importer: list notes: %w", err)
	}

	created, err := im.createAll(ctx, vaultID, md, res, func(f File) string {
		return wikilink.TitleFromFilename(f.Name)
	})
	if err != nil {
		return res, err
	}

	universe := make([]models.Note, 0, len(existing)+len(created))
	universe = append(universe, existing...)
	for _, p := range created {
		universe = append(universe, p.note)
	}
	im.linkAll(ctx, vaultID, created, wikilink.BuildIndex(universe), res)
	return res, nil
}

// ImportVault creates a new vault from a folder of files. The vault is
// named after the root folder of the first file, de-duplicated against
// existing vault names. Note titles are the relative paths with the root
// folder stripped. Links resolve only among the imported notes.
func (im *Importer) ImportVault(ctx context.Context, files []File) (*Result, error) {
	md := markdownOnly(files)
	res := newResult(len(files) - len(md))
	if len(md) == 0 {
		return res, fmt.Errorf("importer: no markdown files: %w", apperr.ErrInvalid)
	}

	vaults, err := im.store.ListVaults(ctx)
	if err != nil {
		return res, fmt.Errorf("importer: list vaults: %w", err)
	}
	name := uniqueVaultName(im.inferVaultName(md[0]), vaults)

	vault, err := im.store.CreateVault(ctx, name, im.theme)
	if err != nil {
		return res, fmt.Errorf("importer: create vault: %w", err)
	}
	res.Vault = vault

	created, err := im.createAll(ctx, vault.ID, md, res, func(f File) string {
		return wikilink.TitleFromRelativePath(f.RelativePath, f.Name)
	})
	if err != nil {
		return res, err
	}

	universe := make([]models.Note, 0, len(created))
	for _, p := range created {
		universe = append(universe, p.note)
	}
	im.linkAll(ctx, vault.ID, created, wikilink.BuildIndex(universe), res)
	return res, nil
}

// createAll is the creation phase. The first failure stops the batch; notes
// created before it are kept without links.
func (im *Importer) createAll(ctx context.Context, vaultID string, files []File, res *Result, title func(File) string) ([]pending, error) {
	created := make([]pending, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		n, err := im.store.CreateNote(ctx, vaultID, store.NoteInput{
			Title:   title(f),
			Content: f.Content,
			Links:   []string{},
		})
		if err != nil {
			im.logger.Warn("importer: create failed",
				slog.String("vault_id", vaultID),
				slog.String("file", f.Name),
				slog.Int("created", len(created)),
				slog.String("error", err.Error()))
			return created, fmt.Errorf("importer: create %q: %w", f.Name, err)
		}
		created = append(created, pending{note: *n, content: f.Content})
		res.Created = append(res.Created, *n)
	}
	return created, nil
}

// linkAll is the resolution phase. Each note is resolved and persisted on its
// own; empty results are not written.
func (im *Importer) linkAll(ctx context.Context, vaultID string, created []pending, idx *wikilink.LinkIndex, res *Result) {
	for i, p := range created {
		links := wikilink.Resolve(p.content, p.note.ID, idx)
		if len(links) == 0 {
			continue
		}
		updated, err := im.store.UpdateNote(ctx, vaultID, p.note.ID, store.NotePatch{Links: &links})
		if err != nil {
			im.logger.Warn("importer: link failed",
				slog.String("vault_id", vaultID),
				slog.String("note_id", p.note.ID),
				slog.String("error", err.Error()))
			res.Failures = append(res.Failures, Failure{NoteID: p.note.ID, Title: p.note.Title, Error: err.Error()})
			continue
		}
		res.Created[i] = *updated
		res.Linked++
	}
	im.logger.Info("importer: done",
		slog.String("vault_id", vaultID),
		slog.Int("created", len(created)),
		slog.Int("linked", res.Linked),
		slog.Int("failed", len(res.Failures)))
}

func (im *Importer) inferVaultName(first File) string {
	root := wikilink.RootSegment(first.RelativePath)
	if root == "" {
		root = wikilink.TitleFromFilename(first.Name)
	}
	if root = strings.TrimSpace(root); root != "" {
		return root
	}
	return im.defaultVaultName
}

// uniqueVaultName appends " (imported)", then " (imported) 2", " (imported) 3"
// and so on until the name is unused.
func uniqueVaultName(base string, vaults []models.Vault) string {
	taken := make(map[string]struct{}, len(vaults))
	for _, v := range vaults {
		taken[v.Name] = struct{}{}
	}
	if _, ok := taken[base]; !ok {
		return base
	}
	candidate := base + importedSuffix
	for n := 2; ; n++ {
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		candidate = base + importedSuffix + " " + strconv.Itoa(n)
	}
}

func markdownOnly(files []File) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		if wikilink.IsMarkdown(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

func newResult(skipped int) *Result {
	return &Result{Created: []models.Note{}, Failures: []Failure{}, Skipped: skipped}
}
