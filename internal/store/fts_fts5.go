//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			note_id UNINDEXED,
			vault_id UNINDEXED,
			title,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, noteID, vaultID, title, content string) error {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE note_id = ?`, noteID)
	_, err := tx.Exec(`INSERT INTO notes_fts (note_id, vault_id, title, content) VALUES (?, ?, ?, ?)`,
		noteID, vaultID, title, content)
	if err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, noteID string) {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE note_id = ?`, noteID)
}

func ftsDeleteVault(tx *sql.Tx, vaultID string) {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE vault_id = ?`, vaultID)
}

// Search performs an FTS5 full-text search within one vault and returns
// matching notes with snippets.
func (db *DB) Search(ctx context.Context, vaultID, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT note_id,
		       title,
		       snippet(notes_fts, 3, '<b>', '</b>', '...', 64)
		FROM notes_fts
		WHERE notes_fts MATCH ? AND vault_id = ?
		ORDER BY rank
		LIMIT ?
	`, query, vaultID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
