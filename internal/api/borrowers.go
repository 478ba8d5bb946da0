package api

import (
	"database/sql"
	"net/http"

	"librarium/internal/model"
	"librarium/internal/store"
)

// BorrowersHandler handles borrower directory endpoints. Borrowers are
// created implicitly when a loan is issued.
type BorrowersHandler struct {
	DB *sql.DB
}

// List handles GET /api/borrowers.
func (h *BorrowersHandler) List(w http.ResponseWriter, r *http.Request) {
	borrowers, err := store.ListBorrowers(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list borrowers")
		return
	}
	if borrowers == nil {
		borrowers = []model.Borrower{}
	}
	jsonResponse(w, http.StatusOK, borrowers)
}

// Get handles GET /api/borrowers/{id}.
func (h *BorrowersHandler) Get(w http.ResponseWriter, r *http.Request) {
	borrower, err := store.GetBorrower(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get borrower")
		return
	}
	if borrower == nil {
		jsonError(w, http.StatusNotFound, "borrower not found")
		return
	}
	jsonResponse(w, http.StatusOK, borrower)
}
