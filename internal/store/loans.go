package store

import (
	"context"
	"database/sql"
	"fmt"

	"librarium/internal/model"
)

const transactionColumns = `id, copy_id, book_id, user_id, user_name,
                            issue_date, due_date, status, return_date,
                            return_condition, fine_amount`

// GetTransaction returns a transaction by ID.
func GetTransaction(ctx context.Context, db Querier, id string) (*model.Transaction, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id,
	)
	t, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the full loan history, newest first.
func ListTransactions(ctx context.Context, db *sql.DB) ([]model.Transaction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY issue_date DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// CountTransactionsForCopy counts loan records of any status referencing a
// copy. A copy with history can never be hard-deleted.
func CountTransactionsForCopy(ctx context.Context, db Querier, copyID string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE copy_id = ?`, copyID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting copy transactions: %w", err)
	}
	return count, nil
}

// ListActiveLoans returns ACTIVE transactions joined with the borrower's
// current role and the book title, sorted ascending by due date (soonest
// due first). Books deleted from the catalog keep their loans; the title is
// then empty.
func ListActiveLoans(ctx context.Context, db *sql.DB) ([]model.Loan, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT t.id, t.copy_id, t.book_id, t.user_id, t.user_name,
		        t.issue_date, t.due_date, t.status, t.return_date,
		        t.return_condition, t.fine_amount,
		        COALESCE(b.title, ''), COALESCE(u.role, '')
		 FROM transactions t
		 LEFT JOIN books b ON b.id = t.book_id
		 LEFT JOIN borrowers u ON u.id = t.user_id
		 WHERE t.status = ?
		 ORDER BY t.due_date, t.id`,
		model.TransactionActive,
	)
	if err != nil {
		return nil, fmt.Errorf("listing active loans: %w", err)
	}
	defer rows.Close()

	var loans []model.Loan
	for rows.Next() {
		var l model.Loan
		var condition sql.NullString
		var fine sql.NullFloat64
		if err := rows.Scan(&l.ID, &l.CopyID, &l.BookID, &l.UserID, &l.UserName,
			&l.IssueDate, &l.DueDate, &l.Status, &l.ReturnDate,
			&condition, &fine, &l.BookTitle, &l.BorrowerRole); err != nil {
			return nil, fmt.Errorf("scanning loan: %w", err)
		}
		l.ReturnCondition = condition.String
		if fine.Valid {
			l.FineAmount = &fine.Float64
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func scanTransaction(scan func(dest ...any) error) (*model.Transaction, error) {
	t := &model.Transaction{}
	var condition sql.NullString
	var fine sql.NullFloat64
	err := scan(&t.ID, &t.CopyID, &t.BookID, &t.UserID, &t.UserName,
		&t.IssueDate, &t.DueDate, &t.Status, &t.ReturnDate, &condition, &fine)
	if err != nil {
		return nil, err
	}
	t.ReturnCondition = condition.String
	if fine.Valid {
		t.FineAmount = &fine.Float64
	}
	return t, nil
}
