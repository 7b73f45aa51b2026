package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Handler holds API route handlers.
type Handler struct {
	svc            Service
	maxUploadBytes int64
}

// NewHandler creates a new Handler.
func NewHandler(svc Service, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

func vaultID(r *http.Request) string { return chi.URLParam(r, "vaultID") }
func noteID(r *http.Request) string  { return chi.URLParam(r, "noteID") }

// ListNotes handles GET /api/vaults/{vaultID}/notes.
//
//	@Summary		List the notes of a vault, most recently updated first
//	@Tags			notes
//	@Produce		json
//	@Param			vaultID	path		string	true	"Vault ID"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListNotes(r.Context(), vaultID(r))
	if err != nil {
		writeError(w, "list notes", err, slog.String("vault", vaultID(r)))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/vaults/{vaultID}/notes/{noteID}.
//
//	@Summary		Get a single note with its backlinks
//	@Tags			notes
//	@Produce		json
//	@Param			vaultID	path		string	true	"Vault ID"
//	@Param			noteID	path		string	true	"Note ID"
//	@Success		200		{object}	noteservice.NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/notes/{noteID} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), vaultID(r), noteID(r))
	if err != nil {
		writeError(w, "get note", err, slog.String("note", noteID(r)))
		return
	}
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/vaults/{vaultID}/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			vaultID	path		string				true	"Vault ID"
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "create note", err)
		return
	}
	note, err := h.svc.CreateNote(r.Context(), vaultID(r), req.input())
	if err != nil {
		writeError(w, "create note", err, slog.String("vault", vaultID(r)))
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PATCH /api/vaults/{vaultID}/notes/{noteID}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			vaultID		path	string				true	"Vault ID"
//	@Param			noteID		path	string				true	"Note ID"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	UpdateNoteRequest	true	"Fields to change"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/notes/{noteID} [patch]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "update note", err)
		return
	}
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, err := h.svc.UpdateNote(r.Context(), vaultID(r), noteID(r), req.input(ifMatch))
	if err != nil {
		writeError(w, "update note", err, slog.String("note", noteID(r)))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/vaults/{vaultID}/notes/{noteID}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			vaultID	path	string	true	"Vault ID"
//	@Param			noteID	path	string	true	"Note ID"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/notes/{noteID} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), vaultID(r), noteID(r)); err != nil {
		writeError(w, "delete note", err, slog.String("note", noteID(r)))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLink handles POST /api/vaults/{vaultID}/notes/{noteID}/links.
//
//	@Summary		Link a note to another note of the same vault
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddLinkRequest	true	"Target note"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/notes/{noteID}/links [post]
func (h *Handler) AddLink(w http.ResponseWriter, r *http.Request) {
	var req AddLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "add link", err)
		return
	}
	note, err := h.svc.AddLink(r.Context(), vaultID(r), noteID(r), req.TargetID)
	if err != nil {
		writeError(w, "add link", err, slog.String("note", noteID(r)))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Backlinks handles GET /api/vaults/{vaultID}/notes/{noteID}/backlinks.
//
//	@Summary		List the notes linking to a note
//	@Tags			links
//	@Produce		json
//	@Success		200	{object}	BacklinksResponse
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/notes/{noteID}/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.Backlinks(r.Context(), vaultID(r), noteID(r))
	if err != nil {
		writeError(w, "backlinks", err, slog.String("note", noteID(r)))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Backlinks: ids})
}

// Resolve handles POST /api/vaults/{vaultID}/resolve.
//
//	@Summary		Preview wikilink resolution without writing anything
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ResolveRequest	true	"Text to resolve"
//	@Success		200		{object}	wikilink.Resolution
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/resolve [post]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "resolve", err)
		return
	}
	res, err := h.svc.Resolve(r.Context(), vaultID(r), req.NoteID, req.Content)
	if err != nil {
		writeError(w, "resolve", err, slog.String("vault", vaultID(r)))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Relink handles POST /api/vaults/{vaultID}/relink.
//
//	@Summary		Re-resolve the links of every note in a vault
//	@Tags			links
//	@Produce		json
//	@Success		200	{object}	linker.RelinkReport
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/relink [post]
func (h *Handler) Relink(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Relink(r.Context(), vaultID(r))
	if err != nil {
		writeError(w, "relink", err, slog.String("vault", vaultID(r)))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Search handles GET /api/vaults/{vaultID}/search.
//
//	@Summary		Full-text search across the notes of a vault
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), vaultID(r), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
