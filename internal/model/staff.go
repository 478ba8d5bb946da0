package model

import "time"

// Staff represents a system account that operates the circulation desk.
type Staff struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Staff roles.
const (
	StaffRoleAdmin     = "ADMIN"
	StaffRoleLibrarian = "LIBRARIAN"
	StaffRoleStudent   = "STUDENT"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		StaffRoleAdmin:     3,
		StaffRoleLibrarian: 2,
		StaffRoleStudent:   1,
	}
	return levels[role] >= levels[minimum]
}
