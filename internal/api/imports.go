package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/starford/neuralnotes/internal/apperr"
	"github.com/starford/neuralnotes/internal/importer"
)

const (
	importFileField = "file"
	importPathField = "path"
)

// ImportVault handles POST /api/vaults/import. A new vault is created and
// named after the uploaded folder.
//
//	@Summary		Import Markdown files into a new vault
//	@Tags			import
//	@Accept			multipart/form-data
//	@Accept			json
//	@Produce		json
//	@Param			file	formData	file	false	"Markdown files (repeatable)"
//	@Param			path	formData	string	false	"Relative path of each file, in the same order"
//	@Success		201		{object}	importer.Result
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vaults/import [post]
func (h *Handler) ImportVault(w http.ResponseWriter, r *http.Request) {
	files, err := h.readImport(w, r)
	if err != nil {
		writeError(w, "import vault", err)
		return
	}
	res, err := h.svc.ImportVault(r.Context(), files)
	if err != nil {
		writeError(w, "import vault", err, slog.Int("files", len(files)))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ImportNotes handles POST /api/vaults/{vaultID}/import.
//
//	@Summary		Import Markdown files into an existing vault
//	@Tags			import
//	@Accept			multipart/form-data
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	importer.Result
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vaults/{vaultID}/import [post]
func (h *Handler) ImportNotes(w http.ResponseWriter, r *http.Request) {
	files, err := h.readImport(w, r)
	if err != nil {
		writeError(w, "import notes", err)
		return
	}
	res, err := h.svc.ImportNotes(r.Context(), vaultID(r), files)
	if err != nil {
		writeError(w, "import notes", err, slog.String("vault", vaultID(r)))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// readImport accepts either a JSON ImportRequest or a multipart form with
// repeated "file" parts and optional parallel "path" values.
func (h *Handler) readImport(w http.ResponseWriter, r *http.Request) ([]importer.File, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		var req ImportRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return nil, err
		}
		return req.files(), nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, fmt.Errorf("file too large or invalid multipart: %w", apperr.ErrInvalid)
	}
	headers := r.MultipartForm.File[importFileField]
	if len(headers) == 0 {
		return nil, fmt.Errorf("missing '%s' field in multipart form: %w", importFileField, apperr.ErrInvalid)
	}
	paths := r.MultipartForm.Value[importPathField]

	files := make([]importer.File, 0, len(headers))
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		body, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		file := importer.File{Name: path.Base(fh.Filename), Content: string(body)}
		if i < len(paths) {
			file.RelativePath = paths[i]
		}
		files = append(files, file)
	}
	return files, nil
}
