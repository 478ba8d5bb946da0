package api

import (
	"database/sql"
	"net/http"

	"librarium/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	booksHandler := &BooksHandler{DB: db}
	copiesHandler := &CopiesHandler{DB: db}
	loansHandler := &LoansHandler{DB: db}
	borrowersHandler := &BorrowersHandler{DB: db}
	staffHandler := &StaffHandler{DB: db}
	settingsHandler := &SettingsHandler{DB: db}
	logsHandler := &LogsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.StaffRoleAdmin)
	requireLibrarian := RequireRole(model.StaffRoleLibrarian)

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Authenticated.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Catalog: read (all roles), write (librarian+).
	mux.Handle("GET /api/books", authMW(http.HandlerFunc(booksHandler.List)))
	mux.Handle("POST /api/books", authMW(requireLibrarian(http.HandlerFunc(booksHandler.Create))))
	mux.Handle("GET /api/books/{id}", authMW(http.HandlerFunc(booksHandler.Get)))
	mux.Handle("PUT /api/books/{id}", authMW(requireLibrarian(http.HandlerFunc(booksHandler.Update))))
	mux.Handle("DELETE /api/books/{id}", authMW(requireLibrarian(http.HandlerFunc(booksHandler.Delete))))
	mux.Handle("PUT /api/books/{id}/cover", authMW(requireLibrarian(http.HandlerFunc(booksHandler.UploadCover))))
	mux.Handle("GET /api/books/{id}/cover", authMW(http.HandlerFunc(booksHandler.GetCover)))
	mux.Handle("GET /api/books/{id}/logs", authMW(http.HandlerFunc(booksHandler.GetLogs)))

	// Copies: read (all roles), write (librarian+).
	mux.Handle("GET /api/copies", authMW(http.HandlerFunc(copiesHandler.List)))
	mux.Handle("GET /api/copies/search", authMW(http.HandlerFunc(copiesHandler.Search)))
	mux.Handle("POST /api/copies", authMW(requireLibrarian(http.HandlerFunc(copiesHandler.Add))))
	mux.Handle("PUT /api/copies/{id}", authMW(requireLibrarian(http.HandlerFunc(copiesHandler.Update))))
	mux.Handle("POST /api/copies/withdraw", authMW(requireLibrarian(http.HandlerFunc(copiesHandler.Withdraw))))
	mux.Handle("DELETE /api/copies/{id}", authMW(requireLibrarian(http.HandlerFunc(copiesHandler.Delete))))

	// Circulation desk (librarian+), listings (all roles).
	mux.Handle("GET /api/loans", authMW(http.HandlerFunc(loansHandler.ListActive)))
	mux.Handle("GET /api/loans/history", authMW(http.HandlerFunc(loansHandler.History)))
	mux.Handle("POST /api/loans", authMW(requireLibrarian(http.HandlerFunc(loansHandler.Issue))))
	mux.Handle("POST /api/loans/{id}/return", authMW(requireLibrarian(http.HandlerFunc(loansHandler.Return))))
	mux.Handle("POST /api/loans/{id}/renew", authMW(requireLibrarian(http.HandlerFunc(loansHandler.Renew))))

	// Borrower directory (all roles).
	mux.Handle("GET /api/borrowers", authMW(http.HandlerFunc(borrowersHandler.List)))
	mux.Handle("GET /api/borrowers/{id}", authMW(http.HandlerFunc(borrowersHandler.Get)))

	// Audit logs (all roles).
	mux.Handle("GET /api/logs", authMW(http.HandlerFunc(logsHandler.List)))

	// Staff accounts (admin only).
	mux.Handle("GET /api/staff", authMW(requireAdmin(http.HandlerFunc(staffHandler.List))))
	mux.Handle("POST /api/staff", authMW(requireAdmin(http.HandlerFunc(staffHandler.Create))))
	mux.Handle("GET /api/staff/{id}", authMW(requireAdmin(http.HandlerFunc(staffHandler.Get))))
	mux.Handle("PUT /api/staff/{id}", authMW(requireAdmin(http.HandlerFunc(staffHandler.Update))))
	mux.Handle("PUT /api/staff/{id}/password", authMW(requireAdmin(http.HandlerFunc(staffHandler.ResetPassword))))
	mux.Handle("POST /api/staff/{id}/toggle", authMW(requireAdmin(http.HandlerFunc(staffHandler.Toggle))))
	mux.Handle("DELETE /api/staff/{id}", authMW(requireAdmin(http.HandlerFunc(staffHandler.Delete))))

	// Settings: read (all roles), write (admin only).
	mux.Handle("GET /api/settings", authMW(http.HandlerFunc(settingsHandler.Get)))
	mux.Handle("PUT /api/settings", authMW(requireAdmin(http.HandlerFunc(settingsHandler.Update))))
	mux.Handle("POST /api/settings/rename", authMW(requireAdmin(http.HandlerFunc(settingsHandler.Rename))))

	return mux
}
