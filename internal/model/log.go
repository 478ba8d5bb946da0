package model

import "time"

// Log is an immutable audit record. Every state-changing circulation or
// catalog operation appends one; logs are never updated or deleted.
type Log struct {
	ID          string    `json:"id"`
	BookID      string    `json:"book_id,omitempty"`
	BookTitle   string    `json:"book_title,omitempty"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"user_id,omitempty"`
	UserName    string    `json:"user_name,omitempty"`
	StaffID     string    `json:"staff_id"`
	StaffName   string    `json:"staff_name"`
}

// Log actions.
const (
	ActionBorrowed        = "BORROWED"
	ActionReturned        = "RETURNED"
	ActionReturnedDamaged = "RETURNED_DAMAGED"
	ActionMarkedLost      = "MARKED_LOST"
	ActionRenewed         = "RENEWED"
	ActionCopiesAdded     = "COPIES_ADDED"
	ActionCopiesWithdrawn = "COPIES_WITHDRAWN"
	ActionCopyUpdated     = "COPY_UPDATED"
	ActionCopyDeleted     = "COPY_DELETED"
)
