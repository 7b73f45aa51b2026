package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/neuralnotes/internal/apperr"
	"github.com/starford/neuralnotes/internal/checksum"
	"github.com/starford/neuralnotes/internal/models"
)

// ListNotes returns every note of a vault, most recently updated first.
func (db *DB) ListNotes(ctx context.Context, vaultID string) ([]models.Note, error) {
	if _, err := db.GetVault(ctx, vaultID); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, vault_id, title, content, checksum, created_at, updated_at
		FROM notes
		WHERE vault_id = ?
		ORDER BY updated_at DESC, created_at DESC, rowid DESC
	`, vaultID)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.VaultID, &n.Title, &n.Content, &n.Checksum, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		n.Links = []string{}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := db.vaultLinks(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if l, ok := links[out[i].ID]; ok {
			out[i].Links = l
		}
	}
	return out, nil
}

// GetNote returns one note of a vault or apperr.ErrNotFound.
func (db *DB) GetNote(ctx context.Context, vaultID, noteID string) (*models.Note, error) {
	return getNote(ctx, db.conn, vaultID, noteID)
}

// CreateNote inserts a note. Links are cleaned against the vault before
// being stored.
func (db *DB) CreateNote(ctx context.Context, vaultID string, in NoteInput) (*models.Note, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM vaults WHERE id = ?`, vaultID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("store: create note: %w", err)
	}
	if exists == 0 {
		return nil, apperr.ErrNotFound
	}

	now := time.Now().UTC()
	n := &models.Note{
		ID:        uuid.NewString(),
		VaultID:   vaultID,
		Title:     in.Title,
		Content:   in.Content,
		Checksum:  checksum.Note(in.Title, in.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, vault_id, title, content, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.VaultID, n.Title, n.Content, n.Checksum, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: create note: %w", err)
	}
	if err := ftsUpsert(tx, n.ID, n.VaultID, n.Title, n.Content); err != nil {
		return nil, err
	}

	n.Links, err = replaceLinks(ctx, tx, n.VaultID, n.ID, in.Links)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return n, nil
}

// UpdateNote applies a partial update with optional optimistic concurrency.
func (db *DB) UpdateNote(ctx context.Context, vaultID, noteID string, p NotePatch) (*models.Note, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	n, err := getNote(ctx, tx, vaultID, noteID)
	if err != nil {
		return nil, err
	}
	if p.IfMatch != "" && p.IfMatch != n.Checksum {
		return nil, apperr.ErrConflict
	}

	if p.Title != nil || p.Content != nil {
		if p.Title != nil {
			n.Title = *p.Title
		}
		if p.Content != nil {
			n.Content = *p.Content
		}
		n.Checksum = checksum.Note(n.Title, n.Content)
		if err := ftsUpsert(tx, n.ID, n.VaultID, n.Title, n.Content); err != nil {
			return nil, err
		}
	}
	n.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, checksum = ?, updated_at = ? WHERE id = ?
	`, n.Title, n.Content, n.Checksum, n.UpdatedAt, n.ID)
	if err != nil {
		return nil, fmt.Errorf("store: update note: %w", err)
	}

	if p.Links != nil {
		n.Links, err = replaceLinks(ctx, tx, n.VaultID, n.ID, *p.Links)
		if err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return n, nil
}

// DeleteNote removes a note; links pointing at it go with it.
func (db *DB) DeleteNote(ctx context.Context, vaultID, noteID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND vault_id = ?`, noteID, vaultID)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	ftsDelete(tx, noteID)
	return tx.Commit()
}

// Backlinks returns the ids of notes in the vault that link to noteID.
func (db *DB) Backlinks(ctx context.Context, vaultID, noteID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT l.source_id
		FROM note_links l
		JOIN notes n ON n.id = l.source_id
		WHERE n.vault_id = ? AND l.target_id = ?
		ORDER BY n.updated_at DESC, n.rowid DESC
	`, vaultID, noteID)
	if err != nil {
		return nil, fmt.Errorf("store: backlinks: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getNote(ctx context.Context, q querier, vaultID, noteID string) (*models.Note, error) {
	var n models.Note
	err := q.QueryRowContext(ctx, `
		SELECT id, vault_id, title, content, checksum, created_at, updated_at
		FROM notes WHERE id = ? AND vault_id = ?
	`, noteID, vaultID).Scan(&n.ID, &n.VaultID, &n.Title, &n.Content, &n.Checksum, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get note: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT target_id FROM note_links WHERE source_id = ? ORDER BY position
	`, n.ID)
	if err != nil {
		return nil, fmt.Errorf("store: note links: %w", err)
	}
	defer rows.Close()
	n.Links = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		n.Links = append(n.Links, id)
	}
	return &n, rows.Err()
}

// vaultLinks loads the ordered outgoing links of every note in a vault.
func (db *DB) vaultLinks(ctx context.Context, vaultID string) (map[string][]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT l.source_id, l.target_id
		FROM note_links l
		JOIN notes n ON n.id = l.source_id
		WHERE n.vault_id = ?
		ORDER BY l.source_id, l.position
	`, vaultID)
	if err != nil {
		return nil, fmt.Errorf("store: vault links: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var src, dst string
		if err := rows.Scan(&src, &dst); err != nil {
			return nil, err
		}
		out[src] = append(out[src], dst)
	}
	return out, rows.Err()
}

// replaceLinks stores the cleaned link list of a note: only ids of notes in
// the same vault are kept, the note's own id is dropped, and duplicates keep
// their first position.
func replaceLinks(ctx context.Context, tx *sql.Tx, vaultID, noteID string, links []string) ([]string, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_links WHERE source_id = ?`, noteID); err != nil {
		return nil, fmt.Errorf("store: clear links: %w", err)
	}
	cleaned := []string{}
	if len(links) == 0 {
		return cleaned, nil
	}

	allowed, err := vaultNoteIDs(ctx, tx, vaultID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(links))
	for _, id := range links {
		if id == noteID {
			continue
		}
		if _, ok := allowed[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cleaned = append(cleaned, id)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO note_links (source_id, target_id, position) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("store: prepare link insert: %w", err)
	}
	defer stmt.Close()
	for i, target := range cleaned {
		if _, err := stmt.ExecContext(ctx, noteID, target, i); err != nil {
			return nil, fmt.Errorf("store: insert link: %w", err)
		}
	}
	return cleaned, nil
}

func vaultNoteIDs(ctx context.Context, tx *sql.Tx, vaultID string) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM notes WHERE vault_id = ?`, vaultID)
	if err != nil {
		return nil, fmt.Errorf("store: vault note ids: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
