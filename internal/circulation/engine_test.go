package circulation

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"librarium/internal/db"
	"librarium/internal/model"
	"librarium/internal/store"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)

func setClock(t *testing.T, now time.Time) {
	t.Helper()
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })
}

func seedBookWithCopy(t *testing.T, database *sql.DB, copyID string) string {
	t.Helper()
	ctx := context.Background()

	book, err := store.UpsertBook(ctx, database, &model.Book{
		Title:   "The Go Programming Language",
		Authors: []string{"Alan Donovan", "Brian Kernighan"},
		ISBN:    "978-0134190440",
	})
	if err != nil {
		t.Fatalf("UpsertBook: %v", err)
	}

	if _, err := store.CreateCopy(ctx, database, &model.Copy{ID: copyID, BookID: book.ID}); err != nil {
		t.Fatalf("CreateCopy: %v", err)
	}
	return book.ID
}

func testSettings() *model.Settings {
	return model.DefaultSettings()
}

func testActor() Actor {
	return Actor{ID: "staff-1", Name: "Desk Librarian"}
}

func issueRequest(copyID string) IssueRequest {
	return IssueRequest{
		BorrowerID:   "S-1001",
		BorrowerName: "Priya Nair",
		LenderType:   "Student",
		CopyID:       copyID,
	}
}

func TestIssueSetsDueDateAndBorrowsCopy(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	loan, err := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	wantDue := t0.AddDate(0, 0, 14)
	if !loan.DueDate.Equal(wantDue) {
		t.Errorf("expected due date %v, got %v", wantDue, loan.DueDate)
	}
	if loan.Status != model.TransactionActive {
		t.Errorf("expected ACTIVE loan, got %q", loan.Status)
	}

	copy, _ := store.GetCopy(ctx, database, "100001")
	if copy.Status != model.CopyBorrowed {
		t.Errorf("expected copy BORROWED, got %q", copy.Status)
	}

	borrower, _ := store.GetBorrower(ctx, database, "S-1001")
	if borrower == nil || borrower.Role != "Student" {
		t.Errorf("expected borrower upserted with Student role, got %+v", borrower)
	}

	logs, _ := store.ListLogs(ctx, database, loan.BookID)
	if len(logs) != 1 || logs[0].Action != model.ActionBorrowed {
		t.Fatalf("expected one BORROWED log, got %+v", logs)
	}
}

func TestIssueUsesLenderTypeDuration(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	req := issueRequest("100001")
	req.LenderType = "Faculty"
	loan, err := Issue(ctx, database, testSettings(), req, testActor())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if want := t0.AddDate(0, 0, 30); !loan.DueDate.Equal(want) {
		t.Errorf("expected due date %v, got %v", want, loan.DueDate)
	}
}

func TestIssueUnknownLenderTypeFallsBack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	req := issueRequest("100001")
	req.LenderType = "Visitor"
	loan, err := Issue(ctx, database, testSettings(), req, testActor())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if want := t0.AddDate(0, 0, model.DefaultLoanDays); !loan.DueDate.Equal(want) {
		t.Errorf("expected fallback due date %v, got %v", want, loan.DueDate)
	}
}

func TestIssueNonAvailableCopyFails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	if _, err := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor()); err != nil {
		t.Fatalf("first Issue: %v", err)
	}

	req := issueRequest("100001")
	req.BorrowerID = "S-2002"
	req.BorrowerName = "Second Borrower"
	_, err := Issue(ctx, database, testSettings(), req, testActor())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	// The failed issue must leave no trace.
	loans, _ := store.ListActiveLoans(ctx, database)
	if len(loans) != 1 {
		t.Errorf("expected 1 active loan, got %d", len(loans))
	}
	if borrower, _ := store.GetBorrower(ctx, database, "S-2002"); borrower != nil {
		t.Error("expected no borrower record from failed issue")
	}
	logs, _ := store.ListLogs(ctx, database, loans[0].BookID)
	if len(logs) != 1 {
		t.Errorf("expected only the first issue's log, got %d", len(logs))
	}
}

func TestIssueMissingCopy(t *testing.T) {
	database := db.NewTestDB(t)
	setClock(t, t0)

	_, err := Issue(context.Background(), database, testSettings(), issueRequest("999999"), testActor())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIssueReferenceOnlyCopy(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)

	bookID := seedBookWithCopy(t, database, "100001")
	if _, err := store.CreateCopy(ctx, database, &model.Copy{ID: "100002", BookID: bookID, IsReferenceOnly: true}); err != nil {
		t.Fatalf("CreateCopy: %v", err)
	}

	req := issueRequest("100002")
	req.RequireLendable = true
	_, err := Issue(ctx, database, testSettings(), req, testActor())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for reference-only copy, got %v", err)
	}
}

func TestIssueValidation(t *testing.T) {
	database := db.NewTestDB(t)
	setClock(t, t0)

	tests := []struct {
		name   string
		mutate func(*IssueRequest)
	}{
		{"blank borrower name", func(r *IssueRequest) { r.BorrowerName = "  " }},
		{"blank lender type", func(r *IssueRequest) { r.LenderType = "   " }},
		{"missing copy id", func(r *IssueRequest) { r.CopyID = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := issueRequest("100001")
			tc.mutate(&req)
			_, err := Issue(context.Background(), database, testSettings(), req, testActor())
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestReturnGoodMakesCopyAvailable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	loan, err := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	setClock(t, t0.AddDate(0, 0, 20))
	returned, err := Return(ctx, database, loan.ID, model.ConditionGood, testActor())
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if returned.Status != model.TransactionReturned {
		t.Errorf("expected RETURNED, got %q", returned.Status)
	}
	if returned.ReturnDate == nil {
		t.Error("expected return date set")
	}

	copy, _ := store.GetCopy(ctx, database, "100001")
	if copy.Status != model.CopyAvailable {
		t.Errorf("expected copy AVAILABLE after good return, got %q", copy.Status)
	}

	logs, _ := store.ListLogs(ctx, database, loan.BookID)
	if len(logs) != 2 || logs[0].Action != model.ActionReturned {
		t.Fatalf("expected RETURNED log first, got %+v", logs)
	}
}

func TestReturnDamagedAndLost(t *testing.T) {
	cases := []struct {
		condition  string
		copyStatus string
		action     string
	}{
		{model.ConditionDamaged, model.CopyDamaged, model.ActionReturnedDamaged},
		{model.ConditionLost, model.CopyLost, model.ActionMarkedLost},
	}

	for _, tc := range cases {
		t.Run(tc.condition, func(t *testing.T) {
			database := db.NewTestDB(t)
			ctx := context.Background()
			setClock(t, t0)
			seedBookWithCopy(t, database, "100001")

			loan, err := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor())
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}

			setClock(t, t0.AddDate(0, 0, 5))
			if _, err := Return(ctx, database, loan.ID, tc.condition, testActor()); err != nil {
				t.Fatalf("Return: %v", err)
			}

			copy, _ := store.GetCopy(ctx, database, "100001")
			if copy.Status != tc.copyStatus {
				t.Errorf("expected copy %s, got %q", tc.copyStatus, copy.Status)
			}

			logs, _ := store.ListLogs(ctx, database, loan.BookID)
			if logs[0].Action != tc.action {
				t.Errorf("expected %s log, got %q", tc.action, logs[0].Action)
			}
		})
	}
}

func TestReturnTwiceFails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	loan, _ := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor())
	if _, err := Return(ctx, database, loan.ID, model.ConditionGood, testActor()); err != nil {
		t.Fatalf("Return: %v", err)
	}

	_, err := Return(ctx, database, loan.ID, model.ConditionGood, testActor())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double return, got %v", err)
	}
}

func TestReturnUnknownCondition(t *testing.T) {
	database := db.NewTestDB(t)
	setClock(t, t0)

	_, err := Return(context.Background(), database, "no-such-loan", "PRISTINE", testActor())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRenewExtendsFromDueDate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	loan, err := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Renewing late still extends from the original due date.
	setClock(t, t0.AddDate(0, 0, 10))
	renewed, err := Renew(ctx, database, testSettings(), loan.ID, testActor())
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}

	if want := t0.AddDate(0, 0, 28); !renewed.DueDate.Equal(want) {
		t.Errorf("expected due date %v, got %v", want, renewed.DueDate)
	}

	// The copy stays borrowed and the loan stays active.
	copy, _ := store.GetCopy(ctx, database, "100001")
	if copy.Status != model.CopyBorrowed {
		t.Errorf("expected copy still BORROWED, got %q", copy.Status)
	}

	logs, _ := store.ListLogs(ctx, database, loan.BookID)
	if logs[0].Action != model.ActionRenewed {
		t.Errorf("expected RENEWED log, got %q", logs[0].Action)
	}
}

func TestRenewReturnedLoanFails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	loan, _ := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor())
	Return(ctx, database, loan.ID, model.ConditionGood, testActor())

	_, err := Renew(ctx, database, testSettings(), loan.ID, testActor())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestWithdrawAvailableCopies(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)

	bookID := seedBookWithCopy(t, database, "100001")
	if _, err := store.CreateCopy(ctx, database, &model.Copy{ID: "100002", BookID: bookID}); err != nil {
		t.Fatalf("CreateCopy: %v", err)
	}

	err := Withdraw(ctx, database, []string{"100001", "100002"}, "Outdated", "annual shelf cull", testActor())
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	for _, id := range []string{"100001", "100002"} {
		copy, _ := store.GetCopy(ctx, database, id)
		if copy.Status != model.CopyWithdrawn {
			t.Errorf("expected copy %s WITHDRAWN, got %q", id, copy.Status)
		}
		if copy.Narration != "[Outdated] annual shelf cull" {
			t.Errorf("expected narration with reason prefix, got %q", copy.Narration)
		}
	}

	logs, _ := store.ListLogs(ctx, database, bookID)
	if len(logs) != 1 || logs[0].Action != model.ActionCopiesWithdrawn {
		t.Fatalf("expected one COPIES_WITHDRAWN log, got %+v", logs)
	}
	if !strings.Contains(logs[0].Description, "Outdated") {
		t.Errorf("expected reason in log description, got %q", logs[0].Description)
	}
}

func TestWithdrawBorrowedCopyFailsAtomically(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)

	bookID := seedBookWithCopy(t, database, "100001")
	if _, err := store.CreateCopy(ctx, database, &model.Copy{ID: "100002", BookID: bookID}); err != nil {
		t.Fatalf("CreateCopy: %v", err)
	}
	if _, err := Issue(ctx, database, testSettings(), issueRequest("100002"), testActor()); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	err := Withdraw(ctx, database, []string{"100001", "100002"}, "Outdated", "", testActor())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	// The first copy must not have been withdrawn.
	copy, _ := store.GetCopy(ctx, database, "100001")
	if copy.Status != model.CopyAvailable {
		t.Errorf("expected copy 100001 still AVAILABLE, got %q", copy.Status)
	}
}

func TestWithdrawRequiresReason(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	err := Withdraw(ctx, database, []string{"100001"}, "  ", "", testActor())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPurgeCopyWithoutHistory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	bookID := seedBookWithCopy(t, database, "100001")

	if err := Purge(ctx, database, "100001", testActor()); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	if copy, _ := store.GetCopy(ctx, database, "100001"); copy != nil {
		t.Error("expected copy deleted")
	}

	logs, _ := store.ListLogs(ctx, database, bookID)
	if len(logs) != 1 || logs[0].Action != model.ActionCopyDeleted {
		t.Fatalf("expected COPY_DELETED log, got %+v", logs)
	}
}

func TestPurgeCopyWithHistoryFails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	loan, _ := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor())
	Return(ctx, database, loan.ID, model.ConditionGood, testActor())

	// Even a completed loan pins the copy forever.
	err := Purge(ctx, database, "100001", testActor())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if copy, _ := store.GetCopy(ctx, database, "100001"); copy == nil {
		t.Error("expected copy to survive failed purge")
	}
}

func TestUpdateCopyGuards(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)

	bookID := seedBookWithCopy(t, database, "100001")
	if _, err := store.CreateCopy(ctx, database, &model.Copy{ID: "100002", BookID: bookID}); err != nil {
		t.Fatalf("CreateCopy: %v", err)
	}
	if _, err := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor()); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// A borrowed copy cannot be edited out of BORROWED.
	_, err := UpdateCopy(ctx, database, UpdateCopyRequest{CopyID: "100001", Status: model.CopyAvailable}, testActor())
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState editing borrowed copy, got %v", err)
	}

	// BORROWED can never be set by hand.
	_, err = UpdateCopy(ctx, database, UpdateCopyRequest{CopyID: "100002", Status: model.CopyBorrowed}, testActor())
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState setting BORROWED manually, got %v", err)
	}

	// WITHDRAWN needs a narration.
	_, err = UpdateCopy(ctx, database, UpdateCopyRequest{CopyID: "100002", Status: model.CopyWithdrawn}, testActor())
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for missing narration, got %v", err)
	}

	// A legitimate edit works and is logged.
	copy, err := UpdateCopy(ctx, database, UpdateCopyRequest{CopyID: "100002", Status: model.CopyDamaged, IsReferenceOnly: true}, testActor())
	if err != nil {
		t.Fatalf("UpdateCopy: %v", err)
	}
	if copy.Status != model.CopyDamaged || !copy.IsReferenceOnly {
		t.Errorf("expected damaged reference-only copy, got %+v", copy)
	}
}

func TestAddCopies(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	bookID := seedBookWithCopy(t, database, "100001")

	copies, err := AddCopies(ctx, database, bookID, 3, false, testActor())
	if err != nil {
		t.Fatalf("AddCopies: %v", err)
	}
	if len(copies) != 3 {
		t.Fatalf("expected 3 copies, got %d", len(copies))
	}
	for _, c := range copies {
		if len(c.ID) != 6 {
			t.Errorf("expected six-digit barcode, got %q", c.ID)
		}
		if c.Status != model.CopyAvailable {
			t.Errorf("expected AVAILABLE copy, got %q", c.Status)
		}
	}

	all, _ := store.ListCopies(ctx, database, bookID)
	if len(all) != 4 {
		t.Errorf("expected 4 copies total, got %d", len(all))
	}

	logs, _ := store.ListLogs(ctx, database, bookID)
	if len(logs) != 1 || logs[0].Action != model.ActionCopiesAdded {
		t.Fatalf("expected COPIES_ADDED log, got %+v", logs)
	}
}

func TestAddCopiesUnknownBook(t *testing.T) {
	database := db.NewTestDB(t)
	setClock(t, t0)

	_, err := AddCopies(context.Background(), database, "no-such-book", 1, false, testActor())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActiveLoanPerCopyInvariant(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	// Issue, return, reissue: the copy cycles cleanly.
	loan1, err := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor())
	if err != nil {
		t.Fatalf("first Issue: %v", err)
	}
	if _, err := Return(ctx, database, loan1.ID, model.ConditionGood, testActor()); err != nil {
		t.Fatalf("Return: %v", err)
	}
	loan2, err := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor())
	if err != nil {
		t.Fatalf("second Issue: %v", err)
	}

	active, _ := store.ListActiveLoans(ctx, database)
	if len(active) != 1 || active[0].ID != loan2.ID {
		t.Fatalf("expected exactly the second loan active, got %+v", active)
	}

	history, _ := store.CountTransactionsForCopy(ctx, database, "100001")
	if history != 2 {
		t.Errorf("expected 2 transactions in history, got %d", history)
	}
}

func TestConcurrentIssueSameCopy(t *testing.T) {
	// A shared on-disk database so both goroutines hit the same data
	// through separate pool connections.
	database, err := db.Open(filepath.Join(t.TempDir(), "circulation.sqlite3"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrating database: %v", err)
	}

	ctx := context.Background()
	setClock(t, t0)
	seedBookWithCopy(t, database, "100001")

	reqs := []IssueRequest{
		issueRequest("100001"),
		{BorrowerID: "S-2002", BorrowerName: "Marco Rossi", LenderType: "Student", CopyID: "100001"},
	}

	errs := make([]error, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = Issue(ctx, database, testSettings(), req, testActor())
		}()
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidState):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner and one loser, got %d/%d (errors %v)", won, lost, errs)
	}

	active, _ := store.ListActiveLoans(ctx, database)
	if len(active) != 1 {
		t.Fatalf("expected exactly one active loan, got %+v", active)
	}
	copy, _ := store.GetCopy(ctx, database, "100001")
	if copy.Status != model.CopyBorrowed {
		t.Errorf("expected copy BORROWED, got %q", copy.Status)
	}
}

func TestIssueUpdatesBorrowerRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, t0)

	bookID := seedBookWithCopy(t, database, "100001")
	if _, err := store.CreateCopy(ctx, database, &model.Copy{ID: "100002", BookID: bookID}); err != nil {
		t.Fatalf("CreateCopy: %v", err)
	}

	loan1, _ := Issue(ctx, database, testSettings(), issueRequest("100001"), testActor())

	// Same borrower comes back reclassified as Faculty.
	req := issueRequest("100002")
	req.LenderType = "Faculty"
	if _, err := Issue(ctx, database, testSettings(), req, testActor()); err != nil {
		t.Fatalf("second Issue: %v", err)
	}

	borrower, _ := store.GetBorrower(ctx, database, "S-1001")
	if borrower.Role != "Faculty" {
		t.Errorf("expected borrower role updated to Faculty, got %q", borrower.Role)
	}

	// The earlier loan's snapshot is untouched.
	old, _ := store.GetTransaction(ctx, database, loan1.ID)
	if old.UserName != "Priya Nair" {
		t.Errorf("expected snapshot name preserved, got %q", old.UserName)
	}
}
