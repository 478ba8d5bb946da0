package store

import (
	"context"
	"reflect"
	"testing"

	"librarium/internal/db"
	"librarium/internal/model"
)

func TestUpsertAndGetBook(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	book, err := UpsertBook(ctx, database, &model.Book{
		Title:         "The Go Programming Language",
		Authors:       []string{"Alan Donovan", "Brian Kernighan"},
		Categories:    []string{"Non-Fiction", "Reference"},
		ISBN:          "978-0134190440",
		Genre:         "Computing",
		PublishedYear: "2015",
	})
	if err != nil {
		t.Fatalf("UpsertBook: %v", err)
	}
	if book.ID == "" {
		t.Error("expected generated id")
	}
	if want := []string{"Alan Donovan", "Brian Kernighan"}; !reflect.DeepEqual(book.Authors, want) {
		t.Errorf("expected authors %v, got %v", want, book.Authors)
	}

	// Update in place keeps the id.
	book.Title = "The Go Programming Language, 2nd ed."
	updated, err := UpsertBook(ctx, database, book)
	if err != nil {
		t.Fatalf("UpsertBook update: %v", err)
	}
	if updated.ID != book.ID {
		t.Errorf("expected stable id, got %q and %q", book.ID, updated.ID)
	}
	if updated.Title != "The Go Programming Language, 2nd ed." {
		t.Errorf("expected updated title, got %q", updated.Title)
	}

	all, _ := ListBooks(ctx, database)
	if len(all) != 1 {
		t.Errorf("expected 1 book, got %d", len(all))
	}
}

func TestUpsertBookRequiresTitle(t *testing.T) {
	database := db.NewTestDB(t)

	if _, err := UpsertBook(context.Background(), database, &model.Book{}); err == nil {
		t.Fatal("expected error for missing title")
	}
}

func TestListBooksOrderedByTitle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	UpsertBook(ctx, database, &model.Book{Title: "Zebra Stripes"})
	UpsertBook(ctx, database, &model.Book{Title: "Aardvark Habits"})

	books, err := ListBooks(ctx, database)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 2 || books[0].Title != "Aardvark Habits" {
		t.Errorf("expected alphabetical order, got %+v", books)
	}
}

func TestDeleteBookKeepsLogs(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	book, _ := UpsertBook(ctx, database, &model.Book{Title: "Ephemeral"})
	AppendLog(ctx, database, &model.Log{
		BookID:    book.ID,
		BookTitle: book.Title,
		Action:    model.ActionCopiesAdded,
		StaffID:   "staff-1",
		StaffName: "Tester",
	})

	if err := DeleteBook(ctx, database, book.ID); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}

	if got, _ := GetBook(ctx, database, book.ID); got != nil {
		t.Error("expected book gone")
	}

	// The audit trail survives catalog deletion.
	logs, _ := ListLogs(ctx, database, book.ID)
	if len(logs) != 1 || logs[0].BookTitle != "Ephemeral" {
		t.Fatalf("expected log with snapshot title, got %+v", logs)
	}
}

func TestBookCover(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	book, _ := UpsertBook(ctx, database, &model.Book{Title: "Covered"})
	coverData := []byte("fake jpeg bytes")
	if err := SetBookCover(ctx, database, book.ID, coverData, "image/jpeg"); err != nil {
		t.Fatalf("SetBookCover: %v", err)
	}

	data, mime, err := GetBookCover(ctx, database, book.ID)
	if err != nil {
		t.Fatalf("GetBookCover: %v", err)
	}
	if string(data) != "fake jpeg bytes" || mime != "image/jpeg" {
		t.Errorf("expected stored cover back, got %q %q", data, mime)
	}
}
