package circulation

import (
	"math"
	"sort"
	"strings"
	"time"

	"librarium/internal/model"
)

// LoanFilter narrows the active-loan list. Zero-value fields are inactive;
// set fields compose with AND.
type LoanFilter struct {
	// Search matches case-insensitive substrings of the borrower name,
	// borrower id, copy id, or book title.
	Search string

	// LenderType matches the borrower's role exactly.
	LenderType string

	// IssuedFrom and IssuedTo bound the issue date, inclusive, at day
	// granularity. Either side may be zero.
	IssuedFrom time.Time
	IssuedTo   time.Time

	// DueWithin keeps loans due in the next N days counting today. Overdue
	// loans are excluded; they have their own urgency and are reported
	// through DaysOverdue instead.
	DueWithin *int
}

// Apply filters loans and returns them sorted by due date ascending, most
// urgent first. The input slice is not modified.
func (f LoanFilter) Apply(loans []model.Loan, today time.Time) []model.Loan {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	day := truncateToDay(today)

	out := make([]model.Loan, 0, len(loans))
	for _, loan := range loans {
		if search != "" && !loanMatches(loan, search) {
			continue
		}
		if f.LenderType != "" && loan.BorrowerRole != f.LenderType {
			continue
		}
		issued := truncateToDay(loan.IssueDate)
		if !f.IssuedFrom.IsZero() && issued.Before(truncateToDay(f.IssuedFrom)) {
			continue
		}
		if !f.IssuedTo.IsZero() && issued.After(truncateToDay(f.IssuedTo)) {
			continue
		}
		if f.DueWithin != nil {
			due := truncateToDay(loan.DueDate)
			if due.Before(day) || due.After(day.AddDate(0, 0, *f.DueWithin)) {
				continue
			}
		}
		out = append(out, loan)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

func loanMatches(loan model.Loan, search string) bool {
	for _, field := range []string{loan.UserName, loan.UserID, loan.CopyID, loan.BookTitle} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// DaysOverdue reports whole days past the due date at day granularity: due
// yesterday is 1, due today is 0, due tomorrow is -1. Rounding absorbs DST
// transitions between the two midnights.
func DaysOverdue(due, today time.Time) int {
	diff := truncateToDay(today).Sub(truncateToDay(due))
	return int(math.Round(diff.Hours() / 24))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
