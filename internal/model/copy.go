package model

import "time"

// Copy represents one physical instance of a Book.
type Copy struct {
	ID              string    `json:"id"`
	BookID          string    `json:"book_id"`
	Status          string    `json:"status"`
	AddedDate       time.Time `json:"added_date"`
	IsReferenceOnly bool      `json:"is_reference_only"`
	Narration       string    `json:"narration,omitempty"`
}

// CopyWithBook is a Copy joined with its book's title and ISBN, as shown in
// issue-desk search results.
type CopyWithBook struct {
	Copy

	BookTitle string `json:"book_title"`
	BookISBN  string `json:"book_isbn"`
}

// Copy statuses.
const (
	CopyAvailable = "AVAILABLE"
	CopyBorrowed  = "BORROWED"
	CopyLost      = "LOST"
	CopyDamaged   = "DAMAGED"
	CopyWithdrawn = "WITHDRAWN"
)

// ValidCopyStatus reports whether s is one of the known copy statuses.
func ValidCopyStatus(s string) bool {
	switch s {
	case CopyAvailable, CopyBorrowed, CopyLost, CopyDamaged, CopyWithdrawn:
		return true
	}
	return false
}

// CopyActionable reports whether a copy may be withdrawn or purged directly.
// Borrowed, lost, and damaged copies must be resolved through a return first.
func CopyActionable(status string) bool {
	return status == CopyAvailable || status == CopyWithdrawn
}
