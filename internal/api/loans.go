package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"librarium/internal/circulation"
	"librarium/internal/model"
	"librarium/internal/store"
)

// LoansHandler handles circulation desk endpoints.
type LoansHandler struct {
	DB *sql.DB
}

type issueRequest struct {
	BorrowerID    string `json:"borrower_id"`
	BorrowerName  string `json:"borrower_name"`
	LenderType    string `json:"lender_type"`
	BorrowerEmail string `json:"borrower_email"`
	CopyID        string `json:"copy_id"`
}

type returnRequest struct {
	Condition string `json:"condition"`
}

// loanView decorates an active loan with its overdue standing.
type loanView struct {
	model.Loan
	DaysOverdue int `json:"days_overdue"`
}

// Issue handles POST /api/loans.
func (h *LoansHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := store.GetSettings(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	loan, err := circulation.Issue(r.Context(), h.DB, settings, circulation.IssueRequest{
		BorrowerID:      req.BorrowerID,
		BorrowerName:    req.BorrowerName,
		LenderType:      req.LenderType,
		BorrowerEmail:   req.BorrowerEmail,
		CopyID:          req.CopyID,
		RequireLendable: true,
	}, actorFromContext(r.Context()))
	if err != nil {
		circulationError(w, err)
		return
	}

	slog.Info("loan issued", "copy", loan.CopyID, "borrower", loan.UserID, "due", loan.DueDate)
	jsonResponse(w, http.StatusCreated, loan)
}

// Return handles POST /api/loans/{id}/return.
func (h *LoansHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	loan, err := circulation.Return(r.Context(), h.DB, r.PathValue("id"), req.Condition, actorFromContext(r.Context()))
	if err != nil {
		circulationError(w, err)
		return
	}

	slog.Info("loan returned", "copy", loan.CopyID, "condition", req.Condition)
	jsonResponse(w, http.StatusOK, loan)
}

// Renew handles POST /api/loans/{id}/renew.
func (h *LoansHandler) Renew(w http.ResponseWriter, r *http.Request) {
	settings, err := store.GetSettings(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	loan, err := circulation.Renew(r.Context(), h.DB, settings, r.PathValue("id"), actorFromContext(r.Context()))
	if err != nil {
		circulationError(w, err)
		return
	}

	slog.Info("loan renewed", "copy", loan.CopyID, "due", loan.DueDate)
	jsonResponse(w, http.StatusOK, loan)
}

// ListActive handles GET /api/loans. Query parameters narrow the list:
// q (substring search), lender_type, issued_from, issued_to (YYYY-MM-DD),
// and due_within (days).
func (h *LoansHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	filter, err := parseLoanFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	loans, err := store.ListActiveLoans(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list loans")
		return
	}

	now := time.Now()
	filtered := filter.Apply(loans, now)
	views := make([]loanView, 0, len(filtered))
	for _, loan := range filtered {
		views = append(views, loanView{
			Loan:        loan,
			DaysOverdue: circulation.DaysOverdue(loan.DueDate, now),
		})
	}
	jsonResponse(w, http.StatusOK, views)
}

// History handles GET /api/loans/history, all transactions newest first.
func (h *LoansHandler) History(w http.ResponseWriter, r *http.Request) {
	transactions, err := store.ListTransactions(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, transactions)
}

func parseLoanFilter(r *http.Request) (circulation.LoanFilter, error) {
	q := r.URL.Query()
	filter := circulation.LoanFilter{
		Search:     q.Get("q"),
		LenderType: q.Get("lender_type"),
	}

	if v := q.Get("issued_from"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid issued_from date")
		}
		filter.IssuedFrom = t
	}
	if v := q.Get("issued_to"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid issued_to date")
		}
		filter.IssuedTo = t
	}
	if v := q.Get("due_within"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return filter, fmt.Errorf("invalid due_within")
		}
		filter.DueWithin = &days
	}
	return filter, nil
}
