package model

import "time"

// Transaction represents a single loan of one Copy to one Borrower.
// It is permanent history: transactions are never deleted.
type Transaction struct {
	ID     string `json:"id"`
	CopyID string `json:"copy_id"`
	BookID string `json:"book_id"`
	UserID string `json:"user_id"`
	// UserName is a snapshot of the borrower's name at issue time, not a
	// live reference.
	UserName        string     `json:"user_name"`
	IssueDate       time.Time  `json:"issue_date"`
	DueDate         time.Time  `json:"due_date"`
	Status          string     `json:"status"`
	ReturnDate      *time.Time `json:"return_date,omitempty"`
	ReturnCondition string     `json:"return_condition,omitempty"`
	FineAmount      *float64   `json:"fine_amount,omitempty"`
}

// Transaction statuses.
const (
	TransactionActive   = "ACTIVE"
	TransactionReturned = "RETURNED"
)

// Return conditions.
const (
	ConditionGood    = "GOOD"
	ConditionDamaged = "DAMAGED"
	ConditionLost    = "LOST"
)

// CopyStatusForCondition maps a return condition to the copy status it
// produces. Returns "" for an unknown condition.
func CopyStatusForCondition(condition string) string {
	switch condition {
	case ConditionGood:
		return CopyAvailable
	case ConditionDamaged:
		return CopyDamaged
	case ConditionLost:
		return CopyLost
	}
	return ""
}

// Loan is a Transaction joined with the borrower's current role and the
// book's title, as listed on the circulation desk.
type Loan struct {
	Transaction

	// Joined fields (not always populated).
	BookTitle    string `json:"book_title,omitempty"`
	BorrowerRole string `json:"borrower_role,omitempty"`
}
