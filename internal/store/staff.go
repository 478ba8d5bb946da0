package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"librarium/internal/model"
)

// CreateStaff creates a new staff account.
func CreateStaff(ctx context.Context, db *sql.DB, name, email, role, passwordHash string) (*model.Staff, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO staff (id, name, email, role, password_hash, is_active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		id, name, email, role, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("creating staff: %w", err)
	}

	return GetStaff(ctx, db, id)
}

const staffColumns = `id, name, email, role, password_hash, is_active, last_login`

// GetStaff returns a staff account by ID.
func GetStaff(ctx context.Context, db *sql.DB, id string) (*model.Staff, error) {
	s := &model.Staff{}
	err := db.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Email, &s.Role, &s.PasswordHash, &s.IsActive, &s.LastLogin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting staff: %w", err)
	}
	return s, nil
}

// GetStaffByEmail returns a staff account by login email.
func GetStaffByEmail(ctx context.Context, db *sql.DB, email string) (*model.Staff, error) {
	s := &model.Staff{}
	err := db.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE email = ?`, email,
	).Scan(&s.ID, &s.Name, &s.Email, &s.Role, &s.PasswordHash, &s.IsActive, &s.LastLogin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting staff by email: %w", err)
	}
	return s, nil
}

// ListStaff returns all staff accounts.
func ListStaff(ctx context.Context, db *sql.DB) ([]model.Staff, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+staffColumns+` FROM staff ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing staff: %w", err)
	}
	defer rows.Close()

	var staff []model.Staff
	for rows.Next() {
		var s model.Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Role, &s.PasswordHash, &s.IsActive, &s.LastLogin); err != nil {
			return nil, fmt.Errorf("scanning staff: %w", err)
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}

// UpdateStaff updates a staff account's profile fields.
func UpdateStaff(ctx context.Context, db *sql.DB, id, name, email, role string, isActive bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE staff SET name = ?, email = ?, role = ?, is_active = ? WHERE id = ?`,
		name, email, role, isActive, id,
	)
	if err != nil {
		return fmt.Errorf("updating staff: %w", err)
	}
	return nil
}

// UpdateStaffPassword updates a staff account's password hash.
func UpdateStaffPassword(ctx context.Context, db *sql.DB, id, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE staff SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating staff password: %w", err)
	}
	return nil
}

// ToggleStaffActive flips a staff account between enabled and disabled.
func ToggleStaffActive(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE staff SET is_active = NOT is_active WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("toggling staff status: %w", err)
	}
	return nil
}

// TouchStaffLogin stamps a staff account's last successful login.
func TouchStaffLogin(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE staff SET last_login = ? WHERE id = ?`, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("stamping staff login: %w", err)
	}
	return nil
}

// DeleteStaff removes a staff account.
func DeleteStaff(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM staff WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting staff: %w", err)
	}
	return nil
}
