// Package circulation implements the loan state machine: issuing, returning,
// and renewing loans, withdrawing and purging copies, and the settings
// rename cascade. Every operation runs as a single database transaction so
// copy status, transaction rows, and audit logs can never drift apart.
package circulation

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"librarium/internal/model"
	"librarium/internal/store"
)

// timeNow is swapped out in tests to pin due-date arithmetic.
var timeNow = time.Now

// Actor identifies the staff member performing an operation, recorded on
// every audit log entry.
type Actor struct {
	ID   string
	Name string
}

// IssueRequest carries the desk input for opening a loan.
type IssueRequest struct {
	BorrowerID    string
	BorrowerName  string
	LenderType    string
	BorrowerEmail string
	CopyID        string

	// RequireLendable refuses reference-only copies.
	RequireLendable bool
}

// Issue opens a loan: it resolves or upserts the borrower, creates an ACTIVE
// transaction with dueDate = now + the lender type's configured duration
// (model.DefaultLoanDays when unconfigured), flips the copy to BORROWED, and
// appends a BORROWED audit entry. All of it commits or rolls back together.
func Issue(ctx context.Context, db *sql.DB, settings *model.Settings, req IssueRequest, staff Actor) (*model.Transaction, error) {
	req.BorrowerID = strings.TrimSpace(req.BorrowerID)
	req.BorrowerName = strings.TrimSpace(req.BorrowerName)
	req.LenderType = strings.TrimSpace(req.LenderType)
	if req.BorrowerID == "" || req.BorrowerName == "" || req.LenderType == "" {
		return nil, fmt.Errorf("%w: borrower id, name, and lender type are required", ErrValidation)
	}
	if req.CopyID == "" {
		return nil, fmt.Errorf("%w: copy id is required", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Claim the copy before anything else. The status guard serializes
	// concurrent issues against the same copy, and leading the transaction
	// with the write means a losing writer waits on the database lock and
	// then sees zero rows, instead of failing mid-transaction on a stale
	// read snapshot.
	res, err := tx.ExecContext(ctx,
		`UPDATE copies SET status = ? WHERE id = ? AND status = ?`,
		model.CopyBorrowed, req.CopyID, model.CopyAvailable,
	)
	if err != nil {
		return nil, fmt.Errorf("borrowing copy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("borrowing copy: %w", err)
	}

	copy, err := store.GetCopy(ctx, tx, req.CopyID)
	if err != nil {
		return nil, err
	}
	if copy == nil {
		return nil, fmt.Errorf("%w: copy %s", ErrNotFound, req.CopyID)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: copy %s is %s", ErrInvalidState, copy.ID, copy.Status)
	}
	if req.RequireLendable && copy.IsReferenceOnly {
		return nil, fmt.Errorf("%w: copy %s is reference-only", ErrInvalidState, copy.ID)
	}

	if err := store.UpsertBorrower(ctx, tx, &model.Borrower{
		ID:    req.BorrowerID,
		Name:  req.BorrowerName,
		Role:  req.LenderType,
		Email: req.BorrowerEmail,
	}); err != nil {
		return nil, err
	}

	now := timeNow()
	days := settings.LoanDays(req.LenderType)
	loan := &model.Transaction{
		ID:        uuid.NewString(),
		CopyID:    copy.ID,
		BookID:    copy.BookID,
		UserID:    req.BorrowerID,
		UserName:  req.BorrowerName,
		IssueDate: now,
		DueDate:   now.AddDate(0, 0, days),
		Status:    model.TransactionActive,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, copy_id, book_id, user_id, user_name,
		                           issue_date, due_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID, loan.CopyID, loan.BookID, loan.UserID, loan.UserName,
		loan.IssueDate, loan.DueDate, loan.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	title := bookTitle(ctx, tx, copy.BookID)
	if err := store.AppendLog(ctx, tx, &model.Log{
		BookID:      copy.BookID,
		BookTitle:   title,
		Action:      model.ActionBorrowed,
		Description: fmt.Sprintf("Copy #%s issued to %s (%s). Due: %s", copy.ID, loan.UserName, req.LenderType, formatDate(loan.DueDate)),
		Timestamp:   now,
		UserID:      loan.UserID,
		UserName:    loan.UserName,
		StaffID:     staff.ID,
		StaffName:   staff.Name,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing issue: %w", err)
	}
	return loan, nil
}

// Return completes an active loan. The staff-selected condition decides the
// copy's next status: GOOD makes it AVAILABLE again, DAMAGED and LOST park
// it in the matching state. Completing an already-returned transaction fails
// with ErrInvalidState and has no side effects.
func Return(ctx context.Context, db *sql.DB, txID, condition string, staff Actor) (*model.Transaction, error) {
	copyStatus := model.CopyStatusForCondition(condition)
	if copyStatus == "" {
		return nil, fmt.Errorf("%w: unknown return condition %q", ErrValidation, condition)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	loan, err := store.GetTransaction(ctx, tx, txID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, txID)
	}
	if loan.Status != model.TransactionActive {
		return nil, fmt.Errorf("%w: transaction %s is already %s", ErrInvalidState, txID, loan.Status)
	}

	now := timeNow()
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET status = ?, return_date = ?, return_condition = ?
		 WHERE id = ? AND status = ?`,
		model.TransactionReturned, now, condition, txID, model.TransactionActive,
	)
	if err != nil {
		return nil, fmt.Errorf("completing transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("completing transaction: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("%w: transaction %s was completed concurrently", ErrConflict, txID)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE copies SET status = ? WHERE id = ?`,
		copyStatus, loan.CopyID,
	); err != nil {
		return nil, fmt.Errorf("updating copy status: %w", err)
	}

	action := model.ActionReturned
	switch condition {
	case model.ConditionDamaged:
		action = model.ActionReturnedDamaged
	case model.ConditionLost:
		action = model.ActionMarkedLost
	}
	if err := store.AppendLog(ctx, tx, &model.Log{
		BookID:      loan.BookID,
		BookTitle:   bookTitle(ctx, tx, loan.BookID),
		Action:      action,
		Description: fmt.Sprintf("Copy #%s returned by %s. Condition: %s.", loan.CopyID, loan.UserName, condition),
		Timestamp:   now,
		UserID:      loan.UserID,
		UserName:    loan.UserName,
		StaffID:     staff.ID,
		StaffName:   staff.Name,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing return: %w", err)
	}

	loan.Status = model.TransactionReturned
	loan.ReturnDate = &now
	loan.ReturnCondition = condition
	return loan, nil
}

// Renew extends an active loan by one full lender-type period from the
// existing due date, not from now, so renewing late still accounts for the
// days already accrued. The copy is untouched. There is no renewal cap.
func Renew(ctx context.Context, db *sql.DB, settings *model.Settings, txID string, staff Actor) (*model.Transaction, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	loan, err := store.GetTransaction(ctx, tx, txID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, txID)
	}
	if loan.Status != model.TransactionActive {
		return nil, fmt.Errorf("%w: transaction %s is already %s", ErrInvalidState, txID, loan.Status)
	}

	// The extension uses the borrower's lender type as of now, not at issue
	// time; the desk may have reclassified them since.
	days := model.DefaultLoanDays
	borrower, err := store.GetBorrower(ctx, tx, loan.UserID)
	if err != nil {
		return nil, err
	}
	if borrower != nil {
		days = settings.LoanDays(borrower.Role)
	}

	newDue := loan.DueDate.AddDate(0, 0, days)
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET due_date = ? WHERE id = ? AND status = ?`,
		newDue, txID, model.TransactionActive,
	)
	if err != nil {
		return nil, fmt.Errorf("renewing transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("renewing transaction: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("%w: transaction %s was completed concurrently", ErrConflict, txID)
	}

	if err := store.AppendLog(ctx, tx, &model.Log{
		BookID:      loan.BookID,
		BookTitle:   bookTitle(ctx, tx, loan.BookID),
		Action:      model.ActionRenewed,
		Description: fmt.Sprintf("Loan renewed for %d days. New due date: %s.", days, formatDate(newDue)),
		Timestamp:   timeNow(),
		UserID:      loan.UserID,
		UserName:    loan.UserName,
		StaffID:     staff.ID,
		StaffName:   staff.Name,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing renewal: %w", err)
	}

	loan.DueDate = newDue
	return loan, nil
}

// Withdraw permanently removes copies from circulation (not from the
// database). Only AVAILABLE or already-WITHDRAWN copies qualify; borrowed,
// lost, or damaged copies must be resolved through a return first. A reason
// is mandatory and lands in each copy's narration. All copies are withdrawn
// together with one audit entry, or not at all.
func Withdraw(ctx context.Context, db *sql.DB, copyIDs []string, reason, remarks string, staff Actor) error {
	if len(copyIDs) == 0 {
		return fmt.Errorf("%w: no copies selected", ErrValidation)
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: a withdrawal reason is required", ErrValidation)
	}
	narration := strings.TrimSpace(fmt.Sprintf("[%s] %s", reason, remarks))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var bookID string
	for _, id := range copyIDs {
		copy, err := store.GetCopy(ctx, tx, id)
		if err != nil {
			return err
		}
		if copy == nil {
			return fmt.Errorf("%w: copy %s", ErrNotFound, id)
		}
		if !model.CopyActionable(copy.Status) {
			return fmt.Errorf("%w: cannot withdraw copy %s while %s", ErrInvalidState, id, copy.Status)
		}
		if bookID == "" {
			bookID = copy.BookID
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE copies SET status = ?, narration = ? WHERE id = ?`,
			model.CopyWithdrawn, narration, id,
		); err != nil {
			return fmt.Errorf("withdrawing copy: %w", err)
		}
	}

	if err := store.AppendLog(ctx, tx, &model.Log{
		BookID:      bookID,
		BookTitle:   bookTitle(ctx, tx, bookID),
		Action:      model.ActionCopiesWithdrawn,
		Description: fmt.Sprintf("%s (%s) withdrawn. Reason: %s", pluralCopies(len(copyIDs)), strings.Join(copyIDs, ", "), reason),
		Timestamp:   timeNow(),
		StaffID:     staff.ID,
		StaffName:   staff.Name,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing withdrawal: %w", err)
	}
	return nil
}

// Purge hard-deletes a copy record. It is only allowed when the copy has no
// transaction history at all, regardless of current status; loan history is
// permanent and a copy referenced by it may never disappear.
func Purge(ctx context.Context, db *sql.DB, copyID string, staff Actor) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	copy, err := store.GetCopy(ctx, tx, copyID)
	if err != nil {
		return err
	}
	if copy == nil {
		return fmt.Errorf("%w: copy %s", ErrNotFound, copyID)
	}

	count, err := store.CountTransactionsForCopy(ctx, tx, copyID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: copy %s has transaction history", ErrValidation, copyID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM copies WHERE id = ?`, copyID); err != nil {
		return fmt.Errorf("deleting copy: %w", err)
	}

	if err := store.AppendLog(ctx, tx, &model.Log{
		BookID:      copy.BookID,
		BookTitle:   bookTitle(ctx, tx, copy.BookID),
		Action:      model.ActionCopyDeleted,
		Description: fmt.Sprintf("Copy #%s permanently deleted from records.", copyID),
		Timestamp:   timeNow(),
		StaffID:     staff.ID,
		StaffName:   staff.Name,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing purge: %w", err)
	}
	return nil
}

// UpdateCopyRequest carries an administrative copy edit.
type UpdateCopyRequest struct {
	CopyID          string
	Status          string
	Narration       string
	IsReferenceOnly bool
}

// UpdateCopy is the administrative override for a copy's status and flags.
// A borrowed copy's status is locked until the loan completes, and BORROWED
// can never be set by hand; setting WITHDRAWN requires a narration.
func UpdateCopy(ctx context.Context, db *sql.DB, req UpdateCopyRequest, staff Actor) (*model.Copy, error) {
	if !model.ValidCopyStatus(req.Status) {
		return nil, fmt.Errorf("%w: unknown copy status %q", ErrValidation, req.Status)
	}
	if req.Status == model.CopyWithdrawn && strings.TrimSpace(req.Narration) == "" {
		return nil, fmt.Errorf("%w: a withdrawal narration is required", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	copy, err := store.GetCopy(ctx, tx, req.CopyID)
	if err != nil {
		return nil, err
	}
	if copy == nil {
		return nil, fmt.Errorf("%w: copy %s", ErrNotFound, req.CopyID)
	}
	if copy.Status == model.CopyBorrowed && req.Status != model.CopyBorrowed {
		return nil, fmt.Errorf("%w: copy %s is borrowed; complete the loan instead", ErrInvalidState, req.CopyID)
	}
	if copy.Status != model.CopyBorrowed && req.Status == model.CopyBorrowed {
		return nil, fmt.Errorf("%w: copies become borrowed only through a loan", ErrInvalidState)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE copies SET status = ?, is_reference_only = ?, narration = ? WHERE id = ?`,
		req.Status, req.IsReferenceOnly, strings.TrimSpace(req.Narration), req.CopyID,
	); err != nil {
		return nil, fmt.Errorf("updating copy: %w", err)
	}

	suffix := ""
	if req.IsReferenceOnly {
		suffix = " [Ref Only]"
	}
	if err := store.AppendLog(ctx, tx, &model.Log{
		BookID:      copy.BookID,
		BookTitle:   bookTitle(ctx, tx, copy.BookID),
		Action:      model.ActionCopyUpdated,
		Description: fmt.Sprintf("Copy #%s status changed to %s.%s", req.CopyID, req.Status, suffix),
		Timestamp:   timeNow(),
		StaffID:     staff.ID,
		StaffName:   staff.Name,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing copy update: %w", err)
	}

	copy.Status = req.Status
	copy.IsReferenceOnly = req.IsReferenceOnly
	copy.Narration = strings.TrimSpace(req.Narration)
	return copy, nil
}

// AddCopies registers count new AVAILABLE copies of a book with generated
// six-digit barcodes and one COPIES_ADDED audit entry.
func AddCopies(ctx context.Context, db *sql.DB, bookID string, count int, referenceOnly bool, staff Actor) ([]model.Copy, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: copy count must be positive", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	title := bookTitle(ctx, tx, bookID)
	if title == "" {
		return nil, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}

	now := timeNow()
	copies := make([]model.Copy, 0, count)
	for i := 0; i < count; i++ {
		c := model.Copy{
			BookID:          bookID,
			Status:          model.CopyAvailable,
			AddedDate:       now,
			IsReferenceOnly: referenceOnly,
		}
		// Retry on barcode collision; the space is small but sparse.
		for attempt := 0; ; attempt++ {
			c.ID, err = generateBarcode()
			if err != nil {
				return nil, err
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO copies (id, book_id, status, added_date, is_reference_only)
				 VALUES (?, ?, ?, ?, ?)`,
				c.ID, c.BookID, c.Status, c.AddedDate, c.IsReferenceOnly,
			)
			if err == nil {
				break
			}
			if attempt >= 5 {
				return nil, fmt.Errorf("creating copy: %w", err)
			}
		}
		copies = append(copies, c)
	}

	if err := store.AppendLog(ctx, tx, &model.Log{
		BookID:      bookID,
		BookTitle:   title,
		Action:      model.ActionCopiesAdded,
		Description: fmt.Sprintf("%s added to inventory.", pluralCopies(count)),
		Timestamp:   now,
		StaffID:     staff.ID,
		StaffName:   staff.Name,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing copies: %w", err)
	}
	return copies, nil
}

// bookTitle resolves a book title for audit descriptions; deleted books
// yield "".
func bookTitle(ctx context.Context, q store.Querier, bookID string) string {
	var title string
	_ = q.QueryRowContext(ctx, `SELECT title FROM books WHERE id = ?`, bookID).Scan(&title)
	return title
}

func generateBarcode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generating barcode: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

func pluralCopies(n int) string {
	if n == 1 {
		return "1 copy"
	}
	return fmt.Sprintf("%d copies", n)
}

func formatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}
