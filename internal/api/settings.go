package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"librarium/internal/circulation"
	"librarium/internal/model"
	"librarium/internal/store"
)

// SettingsHandler handles the configurable vocabularies.
type SettingsHandler struct {
	DB *sql.DB
}

type renameRequest struct {
	Vocab   string `json:"vocab"`
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := store.GetSettings(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	jsonResponse(w, http.StatusOK, settings)
}

// Update handles PUT /api/settings, replacing the full vocabulary snapshot.
// Renames must go through the rename endpoint so the catalog is cascaded.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if err := decodeJSON(r, &settings); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.SaveSettings(r.Context(), h.DB, &settings); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	slog.Info("settings updated")
	jsonResponse(w, http.StatusOK, &settings)
}

// Rename handles POST /api/settings/rename. The rename cascades through the
// catalog atomically.
func (h *SettingsHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := circulation.RenameVocabulary(r.Context(), h.DB, req.Vocab, req.OldName, req.NewName); err != nil {
		circulationError(w, err)
		return
	}

	slog.Info("vocabulary entry renamed", "vocab", req.Vocab, "from", req.OldName, "to", req.NewName)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "renamed"})
}
