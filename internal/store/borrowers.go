package store

import (
	"context"
	"database/sql"
	"fmt"

	"librarium/internal/model"
)

// UpsertBorrower creates a borrower or updates their name, role, and email
// in place. Borrowers appear lazily: the first loan against an unknown id
// creates the record.
func UpsertBorrower(ctx context.Context, db Execer, b *model.Borrower) error {
	if b.ID == "" || b.Name == "" {
		return fmt.Errorf("borrower id and name are required")
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO borrowers (id, name, role, email) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, role = excluded.role`,
		b.ID, b.Name, b.Role, nullString(b.Email),
	)
	if err != nil {
		return fmt.Errorf("upserting borrower: %w", err)
	}
	return nil
}

// GetBorrower returns a borrower by ID.
func GetBorrower(ctx context.Context, db Querier, id string) (*model.Borrower, error) {
	b := &model.Borrower{}
	var email sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, role, email FROM borrowers WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Role, &email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting borrower: %w", err)
	}
	b.Email = email.String
	return b, nil
}

// ListBorrowers returns all borrowers ordered by name.
func ListBorrowers(ctx context.Context, db *sql.DB) ([]model.Borrower, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, role, email FROM borrowers ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing borrowers: %w", err)
	}
	defer rows.Close()

	var borrowers []model.Borrower
	for rows.Next() {
		var b model.Borrower
		var email sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &b.Role, &email); err != nil {
			return nil, fmt.Errorf("scanning borrower: %w", err)
		}
		b.Email = email.String
		borrowers = append(borrowers, b)
	}
	return borrowers, rows.Err()
}
