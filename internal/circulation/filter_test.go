package circulation

import (
	"testing"
	"time"

	"librarium/internal/model"
)

func makeLoan(id, userName, userID, copyID, title, role string, issued, due time.Time) model.Loan {
	return model.Loan{
		Transaction: model.Transaction{
			ID:        id,
			CopyID:    copyID,
			UserID:    userID,
			UserName:  userName,
			IssueDate: issued,
			DueDate:   due,
			Status:    model.TransactionActive,
		},
		BookTitle:    title,
		BorrowerRole: role,
	}
}

var filterNow = time.Date(2026, 3, 16, 15, 30, 0, 0, time.Local)

func sampleLoans() []model.Loan {
	day := func(offset int) time.Time { return filterNow.AddDate(0, 0, offset) }
	return []model.Loan{
		makeLoan("l1", "Priya Nair", "S-1001", "100001", "The Go Programming Language", "Student", day(-10), day(4)),
		makeLoan("l2", "Rohan Mehta", "F-2001", "100002", "Clean Architecture", "Faculty", day(-20), day(10)),
		makeLoan("l3", "Anita Desai", "S-1002", "100003", "Database Internals", "Student", day(-16), day(-2)),
	}
}

func TestFilterSearch(t *testing.T) {
	cases := []struct {
		search string
		want   []string
	}{
		{"priya", []string{"l1"}},
		{"S-100", []string{"l3", "l1"}},
		{"100002", []string{"l2"}},
		{"architecture", []string{"l2"}},
		{"nobody", nil},
	}

	for _, tc := range cases {
		got := LoanFilter{Search: tc.search}.Apply(sampleLoans(), filterNow)
		if len(got) != len(tc.want) {
			t.Errorf("search %q: expected %d loans, got %d", tc.search, len(tc.want), len(got))
			continue
		}
		for i, id := range tc.want {
			if got[i].ID != id {
				t.Errorf("search %q: expected %s at %d, got %s", tc.search, id, i, got[i].ID)
			}
		}
	}
}

func TestFilterLenderType(t *testing.T) {
	got := LoanFilter{LenderType: "Faculty"}.Apply(sampleLoans(), filterNow)
	if len(got) != 1 || got[0].ID != "l2" {
		t.Fatalf("expected only the faculty loan, got %+v", got)
	}
}

func TestFilterIssuedRangeInclusive(t *testing.T) {
	// Bounds land exactly on l3's and l1's issue days.
	filter := LoanFilter{
		IssuedFrom: filterNow.AddDate(0, 0, -16),
		IssuedTo:   filterNow.AddDate(0, 0, -10),
	}
	got := filter.Apply(sampleLoans(), filterNow)
	if len(got) != 2 {
		t.Fatalf("expected 2 loans in range, got %d", len(got))
	}
}

func TestFilterDueWithinExcludesOverdue(t *testing.T) {
	days := 7
	got := LoanFilter{DueWithin: &days}.Apply(sampleLoans(), filterNow)
	if len(got) != 1 || got[0].ID != "l1" {
		t.Fatalf("expected only l1 due within 7 days, got %+v", got)
	}
}

func TestFilterDueTodayBoundary(t *testing.T) {
	days := 0
	loans := []model.Loan{
		makeLoan("today", "A", "a", "1", "", "Student", filterNow.AddDate(0, 0, -14), filterNow.Add(-2*time.Hour)),
	}
	got := LoanFilter{DueWithin: &days}.Apply(loans, filterNow)
	if len(got) != 1 {
		t.Fatalf("expected loan due earlier today to match due_within=0, got %d", len(got))
	}
}

func TestFilterCombinesWithAnd(t *testing.T) {
	days := 30
	filter := LoanFilter{Search: "s-100", LenderType: "Student", DueWithin: &days}
	got := filter.Apply(sampleLoans(), filterNow)
	// l3 matches search and role but is overdue.
	if len(got) != 1 || got[0].ID != "l1" {
		t.Fatalf("expected only l1, got %+v", got)
	}
}

func TestFilterSortsByDueDate(t *testing.T) {
	got := LoanFilter{}.Apply(sampleLoans(), filterNow)
	if len(got) != 3 {
		t.Fatalf("expected all 3 loans, got %d", len(got))
	}
	for i, id := range []string{"l3", "l1", "l2"} {
		if got[i].ID != id {
			t.Errorf("expected %s at position %d, got %s", id, i, got[i].ID)
		}
	}
}

func TestDaysOverdue(t *testing.T) {
	cases := []struct {
		name string
		due  time.Time
		want int
	}{
		{"due yesterday", filterNow.AddDate(0, 0, -1), 1},
		{"due earlier today", filterNow.Add(-3 * time.Hour), 0},
		{"due later today", filterNow.Add(3 * time.Hour), 0},
		{"due tomorrow", filterNow.AddDate(0, 0, 1), -1},
		{"due last week", filterNow.AddDate(0, 0, -7), 7},
	}

	for _, tc := range cases {
		if got := DaysOverdue(tc.due, filterNow); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}
