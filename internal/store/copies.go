package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"librarium/internal/model"
)

// CreateCopy inserts a new copy record.
func CreateCopy(ctx context.Context, db *sql.DB, c *model.Copy) (*model.Copy, error) {
	if c.ID == "" || c.BookID == "" {
		return nil, fmt.Errorf("copy id and book id are required")
	}
	if c.Status == "" {
		c.Status = model.CopyAvailable
	}
	if c.AddedDate.IsZero() {
		c.AddedDate = time.Now()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO copies (id, book_id, status, added_date, is_reference_only, narration)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.BookID, c.Status, c.AddedDate, c.IsReferenceOnly, nullString(c.Narration),
	)
	if err != nil {
		return nil, fmt.Errorf("creating copy: %w", err)
	}

	return GetCopy(ctx, db, c.ID)
}

const copyColumns = `id, book_id, status, added_date, is_reference_only, narration`

// GetCopy returns a copy by ID. It accepts a Querier so circulation
// operations can read inside their own transaction.
func GetCopy(ctx context.Context, db Querier, id string) (*model.Copy, error) {
	c := &model.Copy{}
	var narration sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT `+copyColumns+` FROM copies WHERE id = ?`, id,
	).Scan(&c.ID, &c.BookID, &c.Status, &c.AddedDate, &c.IsReferenceOnly, &narration)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting copy: %w", err)
	}
	c.Narration = narration.String
	return c, nil
}

// ListCopies returns all copies, optionally restricted to one book.
func ListCopies(ctx context.Context, db *sql.DB, bookID string) ([]model.Copy, error) {
	query := `SELECT ` + copyColumns + ` FROM copies`
	var args []any

	if bookID != "" {
		query += ` WHERE book_id = ?`
		args = append(args, bookID)
	}
	query += ` ORDER BY added_date, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing copies: %w", err)
	}
	defer rows.Close()

	var copies []model.Copy
	for rows.Next() {
		var c model.Copy
		var narration sql.NullString
		if err := rows.Scan(&c.ID, &c.BookID, &c.Status, &c.AddedDate, &c.IsReferenceOnly, &narration); err != nil {
			return nil, fmt.Errorf("scanning copy: %w", err)
		}
		c.Narration = narration.String
		copies = append(copies, c)
	}
	return copies, rows.Err()
}

// SearchAvailableCopies matches AVAILABLE copies by copy id, book title, or
// ISBN (case-insensitive substring) for the issue desk. Results are capped
// at limit.
func SearchAvailableCopies(ctx context.Context, db *sql.DB, term string, limit int) ([]model.CopyWithBook, error) {
	if limit <= 0 {
		limit = 5
	}
	pattern := "%" + term + "%"

	rows, err := db.QueryContext(ctx,
		`SELECT c.id, c.book_id, c.status, c.added_date, c.is_reference_only, c.narration,
		        COALESCE(b.title, ''), COALESCE(b.isbn, '')
		 FROM copies c
		 LEFT JOIN books b ON b.id = c.book_id
		 WHERE c.status = ?
		   AND (c.id LIKE ? OR b.title LIKE ? COLLATE NOCASE OR b.isbn LIKE ?)
		 ORDER BY c.id
		 LIMIT ?`,
		model.CopyAvailable, pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching available copies: %w", err)
	}
	defer rows.Close()

	var matches []model.CopyWithBook
	for rows.Next() {
		var m model.CopyWithBook
		var narration sql.NullString
		if err := rows.Scan(&m.ID, &m.BookID, &m.Status, &m.AddedDate,
			&m.IsReferenceOnly, &narration, &m.BookTitle, &m.BookISBN); err != nil {
			return nil, fmt.Errorf("scanning copy match: %w", err)
		}
		m.Narration = narration.String
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
