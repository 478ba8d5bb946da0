package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"librarium/internal/model"
)

// UpsertBook inserts a book or updates its descriptive fields in place.
// A missing id is generated. The cover blob is managed separately.
func UpsertBook(ctx context.Context, db *sql.DB, b *model.Book) (*model.Book, error) {
	if b.Title == "" {
		return nil, fmt.Errorf("book title is required")
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	authors, err := json.Marshal(orEmpty(b.Authors))
	if err != nil {
		return nil, fmt.Errorf("encoding authors: %w", err)
	}
	categories, err := json.Marshal(orEmpty(b.Categories))
	if err != nil {
		return nil, fmt.Errorf("encoding categories: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO books (id, title, authors, categories, isbn, genre, publisher,
		                    published_year, rack, shelf, call_number, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     title = excluded.title, authors = excluded.authors,
		     categories = excluded.categories, isbn = excluded.isbn,
		     genre = excluded.genre, publisher = excluded.publisher,
		     published_year = excluded.published_year, rack = excluded.rack,
		     shelf = excluded.shelf, call_number = excluded.call_number,
		     description = excluded.description`,
		b.ID, b.Title, string(authors), string(categories), b.ISBN, b.Genre,
		b.Publisher, b.PublishedYear, b.Rack, b.Shelf, b.CallNumber, b.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting book: %w", err)
	}

	return GetBook(ctx, db, b.ID)
}

const bookColumns = `id, title, authors, categories, isbn, genre, publisher,
                     published_year, rack, shelf, call_number, description, cover_mime`

// GetBook returns a book by ID.
func GetBook(ctx context.Context, db *sql.DB, id string) (*model.Book, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id,
	)
	b, err := scanBook(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting book: %w", err)
	}
	return b, nil
}

// ListBooks returns all books ordered by title.
func ListBooks(ctx context.Context, db *sql.DB) ([]model.Book, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY title`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		b, err := scanBook(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// DeleteBook removes a book from the catalog. Copies and loan history keep
// their back-references; they are independent records, not nested in the
// book.
func DeleteBook(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	return nil
}

// SetBookCover stores a book's processed cover image.
func SetBookCover(ctx context.Context, db *sql.DB, id string, cover []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE books SET cover = ?, cover_mime = ? WHERE id = ?`,
		cover, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting book cover: %w", err)
	}
	return nil
}

// GetBookCover returns a book's cover image data and MIME type.
func GetBookCover(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var cover []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT cover, cover_mime FROM books WHERE id = ?`, id,
	).Scan(&cover, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting book cover: %w", err)
	}
	return cover, mime.String, nil
}

func scanBook(scan func(dest ...any) error) (*model.Book, error) {
	b := &model.Book{}
	var authors, categories string
	var description, coverMime sql.NullString
	err := scan(&b.ID, &b.Title, &authors, &categories, &b.ISBN, &b.Genre,
		&b.Publisher, &b.PublishedYear, &b.Rack, &b.Shelf, &b.CallNumber,
		&description, &coverMime)
	if err != nil {
		return nil, err
	}
	b.Description = description.String
	b.CoverMime = coverMime.String
	if err := json.Unmarshal([]byte(authors), &b.Authors); err != nil {
		return nil, fmt.Errorf("decoding authors: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &b.Categories); err != nil {
		return nil, fmt.Errorf("decoding categories: %w", err)
	}
	return b, nil
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
