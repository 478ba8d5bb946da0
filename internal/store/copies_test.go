package store

import (
	"context"
	"database/sql"
	"testing"

	"librarium/internal/db"
	"librarium/internal/model"
)

func seedBook(t *testing.T, database *sql.DB, title, isbn string) string {
	t.Helper()
	book, err := UpsertBook(context.Background(), database, &model.Book{Title: title, ISBN: isbn})
	if err != nil {
		t.Fatalf("UpsertBook: %v", err)
	}
	return book.ID
}

func TestCreateAndGetCopy(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	bookID := seedBook(t, database, "Copied Work", "")

	copy, err := CreateCopy(ctx, database, &model.Copy{ID: "100001", BookID: bookID})
	if err != nil {
		t.Fatalf("CreateCopy: %v", err)
	}
	if copy.Status != model.CopyAvailable {
		t.Errorf("expected AVAILABLE default, got %q", copy.Status)
	}
	if copy.AddedDate.IsZero() {
		t.Error("expected added date set")
	}
}

func TestListCopiesByBook(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	book1 := seedBook(t, database, "First", "")
	book2 := seedBook(t, database, "Second", "")

	CreateCopy(ctx, database, &model.Copy{ID: "100001", BookID: book1})
	CreateCopy(ctx, database, &model.Copy{ID: "100002", BookID: book1})
	CreateCopy(ctx, database, &model.Copy{ID: "100003", BookID: book2})

	all, _ := ListCopies(ctx, database, "")
	if len(all) != 3 {
		t.Errorf("expected 3 copies, got %d", len(all))
	}

	first, _ := ListCopies(ctx, database, book1)
	if len(first) != 2 {
		t.Errorf("expected 2 copies of first book, got %d", len(first))
	}
}

func TestSearchAvailableCopies(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	bookID := seedBook(t, database, "Database Internals", "978-1492040347")

	CreateCopy(ctx, database, &model.Copy{ID: "200001", BookID: bookID})
	CreateCopy(ctx, database, &model.Copy{ID: "200002", BookID: bookID, Status: model.CopyBorrowed})

	// Title matches only surface the available copy.
	matches, err := SearchAvailableCopies(ctx, database, "database", 0)
	if err != nil {
		t.Fatalf("SearchAvailableCopies: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "200001" {
		t.Fatalf("expected only the available copy, got %+v", matches)
	}
	if matches[0].BookTitle != "Database Internals" {
		t.Errorf("expected joined title, got %q", matches[0].BookTitle)
	}

	// Barcode and ISBN terms work too.
	if matches, _ := SearchAvailableCopies(ctx, database, "200001", 0); len(matches) != 1 {
		t.Errorf("expected barcode match, got %d", len(matches))
	}
	if matches, _ := SearchAvailableCopies(ctx, database, "1492040347", 0); len(matches) != 1 {
		t.Errorf("expected ISBN match, got %d", len(matches))
	}
}

func TestSearchAvailableCopiesLimit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	bookID := seedBook(t, database, "Popular Title", "")

	for _, id := range []string{"300001", "300002", "300003", "300004", "300005", "300006", "300007"} {
		CreateCopy(ctx, database, &model.Copy{ID: id, BookID: bookID})
	}

	matches, _ := SearchAvailableCopies(ctx, database, "popular", 0)
	if len(matches) != 5 {
		t.Errorf("expected default limit of 5, got %d", len(matches))
	}

	matches, _ = SearchAvailableCopies(ctx, database, "popular", 2)
	if len(matches) != 2 {
		t.Errorf("expected limit of 2, got %d", len(matches))
	}
}
