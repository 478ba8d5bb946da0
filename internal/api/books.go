package api

import (
	"database/sql"
	"net/http"

	"librarium/internal/imaging"
	"librarium/internal/model"
	"librarium/internal/store"
)

// BooksHandler handles catalog endpoints.
type BooksHandler struct {
	DB *sql.DB
}

// List handles GET /api/books.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := store.ListBooks(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list books")
		return
	}
	if books == nil {
		books = []model.Book{}
	}
	jsonResponse(w, http.StatusOK, books)
}

// Create handles POST /api/books.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var book model.Book
	if err := decodeJSON(r, &book); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if book.Title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}

	book.ID = ""
	created, err := store.UpsertBook(r.Context(), h.DB, &book)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create book")
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/books/{id}, returning the book with its copies.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	book, err := store.GetBook(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	if book == nil {
		jsonError(w, http.StatusNotFound, "book not found")
		return
	}

	copies, err := store.ListCopies(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list copies")
		return
	}
	if copies == nil {
		copies = []model.Copy{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"book":   book,
		"copies": copies,
	})
}

// Update handles PUT /api/books/{id}.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := store.GetBook(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "book not found")
		return
	}

	var book model.Book
	if err := decodeJSON(r, &book); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if book.Title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}

	book.ID = id
	updated, err := store.UpsertBook(r.Context(), h.DB, &book)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update book")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/books/{id}. Copies of the book must be purged
// or withdrawn separately; loan history keeps its book reference either way.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	copies, err := store.ListCopies(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list copies")
		return
	}
	if len(copies) > 0 {
		jsonError(w, http.StatusConflict, "book still has copies")
		return
	}

	if err := store.DeleteBook(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

// UploadCover handles PUT /api/books/{id}/cover.
func (h *BooksHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	book, err := store.GetBook(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	if book == nil {
		jsonError(w, http.StatusNotFound, "book not found")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("cover")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "cover file required")
		return
	}
	defer file.Close()

	cover, err := imaging.ProcessCover(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetBookCover(r.Context(), h.DB, id, cover.Data, cover.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save cover")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "cover uploaded"})
}

// GetCover handles GET /api/books/{id}/cover.
func (h *BooksHandler) GetCover(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	data, mime, err := store.GetBookCover(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get cover")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no cover")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// GetLogs handles GET /api/books/{id}/logs.
func (h *BooksHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	logs, err := store.ListLogs(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list logs")
		return
	}
	if logs == nil {
		logs = []model.Log{}
	}
	jsonResponse(w, http.StatusOK, logs)
}
