package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/neuralnotes/internal/apperr"
	"github.com/starford/neuralnotes/internal/models"
)

// DefaultTheme is applied to vaults created without a theme.
const DefaultTheme = "violet"

// CreateVault inserts a new vault.
func (db *DB) CreateVault(ctx context.Context, name, theme string) (*models.Vault, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("store: create vault: name is empty: %w", apperr.ErrInvalid)
	}
	if theme == "" {
		theme = DefaultTheme
	}
	now := time.Now().UTC()
	v := &models.Vault{
		ID:        uuid.NewString(),
		Name:      name,
		Theme:     theme,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO vaults (id, name, theme, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, v.ID, v.Name, v.Theme, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: create vault: %w", err)
	}
	return v, nil
}

// GetVault returns one vault or apperr.ErrNotFound.
func (db *DB) GetVault(ctx context.Context, id string) (*models.Vault, error) {
	var v models.Vault
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, theme, created_at, updated_at FROM vaults WHERE id = ?
	`, id).Scan(&v.ID, &v.Name, &v.Theme, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get vault: %w", err)
	}
	return &v, nil
}

// ListVaults returns every vault, oldest first.
func (db *DB) ListVaults(ctx context.Context) ([]models.Vault, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, theme, created_at, updated_at FROM vaults ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list vaults: %w", err)
	}
	defer rows.Close()

	out := []models.Vault{}
	for rows.Next() {
		var v models.Vault
		if err := rows.Scan(&v.ID, &v.Name, &v.Theme, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateVault renames or re-themes a vault.
func (db *DB) UpdateVault(ctx context.Context, id string, p VaultPatch) (*models.Vault, error) {
	v, err := db.GetVault(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("store: update vault: name is empty: %w", apperr.ErrInvalid)
		}
		v.Name = name
	}
	if p.Theme != nil && *p.Theme != "" {
		v.Theme = *p.Theme
	}
	v.UpdatedAt = time.Now().UTC()
	_, err = db.conn.ExecContext(ctx, `
		UPDATE vaults SET name = ?, theme = ?, updated_at = ? WHERE id = ?
	`, v.Name, v.Theme, v.UpdatedAt, v.ID)
	if err != nil {
		return nil, fmt.Errorf("store: update vault: %w", err)
	}
	return v, nil
}

// DeleteVault removes a vault together with its notes and links.
func (db *DB) DeleteVault(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeleteVault(tx, id)
	res, err := tx.ExecContext(ctx, `DELETE FROM vaults WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete vault: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return tx.Commit()
}
