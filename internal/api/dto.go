package api

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/neuralnotes/internal/importer"
	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/noteservice"
	"github.com/starford/neuralnotes/internal/store"
)

const (
	maxTitleLen = 500
	maxNameLen  = 200
	maxThemeLen = 40
)

// CreateVaultRequest is the request body for creating a vault.
type CreateVaultRequest struct {
	Name  string `json:"name" example:"Research" validate:"required"`
	Theme string `json:"theme,omitempty" example:"violet"`
}

// Validate implements validation.Validatable.
func (r CreateVaultRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, maxNameLen)),
		validation.Field(&r.Theme, validation.Length(0, maxThemeLen)),
	)
}

// UpdateVaultRequest is the request body for renaming or re-theming a vault.
type UpdateVaultRequest struct {
	Name  *string `json:"name,omitempty" example:"Research"`
	Theme *string `json:"theme,omitempty" example:"violet"`
}

// Validate implements validation.Validatable.
func (r UpdateVaultRequest) Validate() error {
	if r.Name == nil && r.Theme == nil {
		return validation.Errors{"body": errors.New("name or theme is required")}
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, maxNameLen)),
		validation.Field(&r.Theme, validation.Length(0, maxThemeLen)),
	)
}

func (r UpdateVaultRequest) patch() store.VaultPatch {
	return store.VaultPatch{Name: r.Name, Theme: r.Theme}
}

// CreateNoteRequest is the request body for creating a note. When Links is
// omitted and ResolveLinks is set, links are resolved from the content.
type CreateNoteRequest struct {
	Title        string   `json:"title" example:"Hello" validate:"required"`
	Content      string   `json:"content" example:"See [[World]]"`
	Links        []string `json:"links,omitempty"`
	ResolveLinks bool     `json:"resolve_links,omitempty"`
}

// Validate implements validation.Validatable.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(0, maxTitleLen)),
		validation.Field(&r.Links, validation.Each(validation.Required)),
	)
}

func (r CreateNoteRequest) input() noteservice.CreateNoteInput {
	return noteservice.CreateNoteInput{
		Title:        r.Title,
		Content:      r.Content,
		Links:        r.Links,
		ResolveLinks: r.ResolveLinks,
	}
}

// UpdateNoteRequest is the request body for a partial note update.
type UpdateNoteRequest struct {
	Title   *string   `json:"title,omitempty" example:"Hello"`
	Content *string   `json:"content,omitempty" example:"Updated body"`
	Links   *[]string `json:"links,omitempty"`
}

// Validate implements validation.Validatable.
func (r UpdateNoteRequest) Validate() error {
	if r.Title == nil && r.Content == nil && r.Links == nil {
		return validation.Errors{"body": errors.New("title, content or links is required")}
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(0, maxTitleLen)),
	)
}

func (r UpdateNoteRequest) input(ifMatch string) noteservice.UpdateNoteInput {
	return noteservice.UpdateNoteInput{
		Title:   r.Title,
		Content: r.Content,
		Links:   r.Links,
		IfMatch: ifMatch,
	}
}

// AddLinkRequest is the request body for linking two notes.
type AddLinkRequest struct {
	TargetID string `json:"target_id" example:"5f0c..." validate:"required"`
}

// Validate implements validation.Validatable.
func (r AddLinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TargetID, validation.Required),
	)
}

// ResolveRequest previews link resolution for a body of text. NoteID, when
// set, is excluded from the result.
type ResolveRequest struct {
	Content string `json:"content" example:"See [[World]]"`
	NoteID  string `json:"note_id,omitempty"`
}

// ImportFile is one file of a JSON import request.
type ImportFile struct {
	Name         string `json:"name" example:"Hello.md" validate:"required"`
	RelativePath string `json:"relative_path,omitempty" example:"Garden/Hello.md"`
	Content      string `json:"content"`
}

// Validate implements validation.Validatable.
func (f ImportFile) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required),
	)
}

// ImportRequest is the JSON form of an import. Multipart uploads are
// accepted as well.
type ImportRequest struct {
	Files []ImportFile `json:"files" validate:"required"`
}

// Validate implements validation.Validatable.
func (r ImportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Files, validation.Required),
	)
}

func (r ImportRequest) files() []importer.File {
	out := make([]importer.File, len(r.Files))
	for i, f := range r.Files {
		out[i] = importer.File{Name: f.Name, RelativePath: f.RelativePath, Content: f.Content}
	}
	return out
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// VaultListResponse wraps vault listings.
type VaultListResponse struct {
	Vaults []models.Vault `json:"vaults" validate:"required"`
}

// BacklinksResponse lists the ids of notes linking to a note.
type BacklinksResponse struct {
	Backlinks []string `json:"backlinks" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []store.SearchResult `json:"results" validate:"required"`
}
