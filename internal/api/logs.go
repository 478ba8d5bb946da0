package api

import (
	"database/sql"
	"net/http"

	"librarium/internal/model"
	"librarium/internal/store"
)

// LogsHandler handles the audit log endpoints.
type LogsHandler struct {
	DB *sql.DB
}

// List handles GET /api/logs, optionally filtered by book_id.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	logs, err := store.ListLogs(r.Context(), h.DB, r.URL.Query().Get("book_id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list logs")
		return
	}
	if logs == nil {
		logs = []model.Log{}
	}
	jsonResponse(w, http.StatusOK, logs)
}
