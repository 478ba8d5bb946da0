package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"librarium/internal/model"
)

// AppendLog writes one immutable audit record. It accepts an Execer so
// circulation operations can append inside their own transaction; logs on
// success paths are never skipped.
func AppendLog(ctx context.Context, db Execer, l *model.Log) error {
	if l.Action == "" {
		return fmt.Errorf("log action is required")
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO logs (id, book_id, book_title, action, description,
		                   timestamp, user_id, user_name, staff_id, staff_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, nullString(l.BookID), nullString(l.BookTitle), l.Action,
		l.Description, l.Timestamp, nullString(l.UserID), nullString(l.UserName),
		l.StaffID, l.StaffName,
	)
	if err != nil {
		return fmt.Errorf("appending log: %w", err)
	}
	return nil
}

// ListLogs returns audit records newest first, optionally restricted to one
// book.
func ListLogs(ctx context.Context, db *sql.DB, bookID string) ([]model.Log, error) {
	query := `SELECT id, book_id, book_title, action, description,
	                 timestamp, user_id, user_name, staff_id, staff_name
	          FROM logs`
	var args []any

	if bookID != "" {
		query += ` WHERE book_id = ?`
		args = append(args, bookID)
	}
	query += ` ORDER BY timestamp DESC, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	defer rows.Close()

	var logs []model.Log
	for rows.Next() {
		var l model.Log
		var bookID, bookTitle, userID, userName sql.NullString
		if err := rows.Scan(&l.ID, &bookID, &bookTitle, &l.Action, &l.Description,
			&l.Timestamp, &userID, &userName, &l.StaffID, &l.StaffName); err != nil {
			return nil, fmt.Errorf("scanning log: %w", err)
		}
		l.BookID = bookID.String
		l.BookTitle = bookTitle.String
		l.UserID = userID.String
		l.UserName = userName.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
