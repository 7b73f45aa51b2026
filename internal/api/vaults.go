package api

import (
	"log/slog"
	"net/http"
)

// ListVaults handles GET /api/vaults.
//
//	@Summary		List vaults
//	@Tags			vaults
//	@Produce		json
//	@Success		200	{object}	VaultListResponse
//	@Security		BearerAuth
//	@Router			/vaults [get]
func (h *Handler) ListVaults(w http.ResponseWriter, r *http.Request) {
	vaults, err := h.svc.ListVaults(r.Context())
	if err != nil {
		writeError(w, "list vaults", err)
		return
	}
	writeJSON(w, http.StatusOK, VaultListResponse{Vaults: vaults})
}

// GetVault handles GET /api/vaults/{vaultID}.
func (h *Handler) GetVault(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetVault(r.Context(), vaultID(r))
	if err != nil {
		writeError(w, "get vault", err, slog.String("vault", vaultID(r)))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CreateVault handles POST /api/vaults. The new vault starts with a
// welcome note.
//
//	@Summary		Create a vault
//	@Tags			vaults
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateVaultRequest	true	"Vault to create"
//	@Success		201		{object}	models.Vault
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vaults [post]
func (h *Handler) CreateVault(w http.ResponseWriter, r *http.Request) {
	var req CreateVaultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "create vault", err)
		return
	}
	v, err := h.svc.CreateVault(r.Context(), req.Name, req.Theme)
	if err != nil {
		writeError(w, "create vault", err, slog.String("name", req.Name))
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// UpdateVault handles PATCH /api/vaults/{vaultID}.
func (h *Handler) UpdateVault(w http.ResponseWriter, r *http.Request) {
	var req UpdateVaultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "update vault", err)
		return
	}
	v, err := h.svc.UpdateVault(r.Context(), vaultID(r), req.patch())
	if err != nil {
		writeError(w, "update vault", err, slog.String("vault", vaultID(r)))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteVault handles DELETE /api/vaults/{vaultID}. Its notes go with it.
func (h *Handler) DeleteVault(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteVault(r.Context(), vaultID(r)); err != nil {
		writeError(w, "delete vault", err, slog.String("vault", vaultID(r)))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
