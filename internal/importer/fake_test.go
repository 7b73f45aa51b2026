package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/starford/neuralnotes/internal/apperr"
	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/store"
)

var errInjected = errors.New("injected failure")

// fakeStore is an in-memory Store with failure injection.
type fakeStore struct {
	mu     sync.Mutex
	seq    int
	vaults []models.Vault
	notes  []models.Note

	failCreateAfter int // fail the Nth CreateNote call (1-based); 0 disables
	failUpdateTitle string
	creates         int
	updates         int
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) CreateVault(_ context.Context, name, theme string) (*models.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := models.Vault{ID: f.nextID("vault"), Name: name, Theme: theme}
	f.vaults = append(f.vaults, v)
	return &v, nil
}

func (f *fakeStore) ListVaults(_ context.Context) ([]models.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.vaults), nil
}

func (f *fakeStore) ListNotes(_ context.Context, vaultID string) ([]models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Note
	for _, n := range f.notes {
		if n.VaultID == vaultID {
			n.Links = slices.Clone(n.Links)
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateNote(_ context.Context, vaultID string, in store.NoteInput) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failCreateAfter > 0 && f.creates == f.failCreateAfter {
		return nil, errInjected
	}
	n := models.Note{ID: f.nextID("note"), VaultID: vaultID, Title: in.Title, Content: in.Content, Links: slices.Clone(in.Links)}
	f.notes = append(f.notes, n)
	return &n, nil
}

func (f *fakeStore) UpdateNote(_ context.Context, vaultID, noteID string, p store.NotePatch) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notes {
		n := &f.notes[i]
		if n.ID != noteID || n.VaultID != vaultID {
			continue
		}
		if f.failUpdateTitle != "" && n.Title == f.failUpdateTitle {
			return nil, errInjected
		}
		f.updates++
		if p.Title != nil {
			n.Title = *p.Title
		}
		if p.Content != nil {
			n.Content = *p.Content
		}
		if p.Links != nil {
			n.Links = slices.Clone(*p.Links)
		}
		out := *n
		return &out, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeStore) DeleteNote(_ context.Context, vaultID, noteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notes {
		if n.ID == noteID && n.VaultID == vaultID {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (f *fakeStore) byTitle(vaultID, title string) (models.Note, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notes {
		if n.VaultID == vaultID && n.Title == title {
			return n, true
		}
	}
	return models.Note{}, false
}

func (f *fakeStore) count(vaultID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := 0
	for _, n := range f.notes {
		if n.VaultID == vaultID {
			c++
		}
	}
	return c
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
