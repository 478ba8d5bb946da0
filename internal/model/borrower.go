package model

// Borrower represents a library member who can take out loans. Borrowers are
// created lazily on their first loan and updated in place when their name or
// lender type changes at the desk.
type Borrower struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}
