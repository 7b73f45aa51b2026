// Package models defines the domain types for NeuralNotes.
package models

import "time"

// Vault is an isolated collection of notes belonging to one owner.
type Vault struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Theme     string    `json:"theme"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Note is a free-text note inside a vault. Links holds the ids of the notes
// it references, in first-occurrence order, without duplicates or self-references.
type Note struct {
	ID        string    `json:"id"`
	VaultID   string    `json:"vault_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Links     []string  `json:"links"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteMetadata describes a Markdown file in a folder source.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
