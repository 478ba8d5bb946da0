package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"librarium/internal/circulation"
	"librarium/internal/model"
	"librarium/internal/store"
)

// CopiesHandler handles physical-copy endpoints.
type CopiesHandler struct {
	DB *sql.DB
}

type addCopiesRequest struct {
	BookID        string `json:"book_id"`
	Count         int    `json:"count"`
	ReferenceOnly bool   `json:"reference_only"`
}

type updateCopyRequest struct {
	Status          string `json:"status"`
	Narration       string `json:"narration"`
	IsReferenceOnly bool   `json:"is_reference_only"`
}

type withdrawRequest struct {
	CopyIDs []string `json:"copy_ids"`
	Reason  string   `json:"reason"`
	Remarks string   `json:"remarks"`
}

// List handles GET /api/copies, optionally filtered by book_id.
func (h *CopiesHandler) List(w http.ResponseWriter, r *http.Request) {
	copies, err := store.ListCopies(r.Context(), h.DB, r.URL.Query().Get("book_id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list copies")
		return
	}
	if copies == nil {
		copies = []model.Copy{}
	}
	jsonResponse(w, http.StatusOK, copies)
}

// Add handles POST /api/copies.
func (h *CopiesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addCopiesRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookID == "" {
		jsonError(w, http.StatusBadRequest, "book_id required")
		return
	}

	copies, err := circulation.AddCopies(r.Context(), h.DB, req.BookID, req.Count, req.ReferenceOnly, actorFromContext(r.Context()))
	if err != nil {
		circulationError(w, err)
		return
	}

	slog.Info("copies added", "book", req.BookID, "count", len(copies))
	jsonResponse(w, http.StatusCreated, copies)
}

// Update handles PUT /api/copies/{id}, the administrative status override.
func (h *CopiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateCopyRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	copy, err := circulation.UpdateCopy(r.Context(), h.DB, circulation.UpdateCopyRequest{
		CopyID:          r.PathValue("id"),
		Status:          req.Status,
		Narration:       req.Narration,
		IsReferenceOnly: req.IsReferenceOnly,
	}, actorFromContext(r.Context()))
	if err != nil {
		circulationError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, copy)
}

// Withdraw handles POST /api/copies/withdraw.
func (h *CopiesHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := circulation.Withdraw(r.Context(), h.DB, req.CopyIDs, req.Reason, req.Remarks, actorFromContext(r.Context())); err != nil {
		circulationError(w, err)
		return
	}

	slog.Info("copies withdrawn", "count", len(req.CopyIDs), "reason", req.Reason)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "copies withdrawn"})
}

// Delete handles DELETE /api/copies/{id}. Only copies with no loan history
// can be deleted.
func (h *CopiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := circulation.Purge(r.Context(), h.DB, r.PathValue("id"), actorFromContext(r.Context())); err != nil {
		circulationError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "copy deleted"})
}

// Search handles GET /api/copies/search, the issue desk's available-copy
// lookup by barcode, title, or ISBN.
func (h *CopiesHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		jsonResponse(w, http.StatusOK, []model.CopyWithBook{})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	matches, err := store.SearchAvailableCopies(r.Context(), h.DB, term, limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to search copies")
		return
	}
	if matches == nil {
		matches = []model.CopyWithBook{}
	}
	jsonResponse(w, http.StatusOK, matches)
}
