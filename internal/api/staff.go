package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"librarium/internal/model"
	"librarium/internal/store"
)

// StaffHandler handles staff account management (admin only).
type StaffHandler struct {
	DB *sql.DB
}

type createStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type updateStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func validStaffRole(role string) bool {
	return role == model.StaffRoleAdmin || role == model.StaffRoleLibrarian || role == model.StaffRoleStudent
}

// List handles GET /api/staff.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	staff, err := store.ListStaff(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list staff")
		return
	}
	if staff == nil {
		staff = []model.Staff{}
	}
	jsonResponse(w, http.StatusOK, staff)
}

// Create handles POST /api/staff.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "name, email, and password required")
		return
	}
	if !validStaffRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	existing, err := store.GetStaffByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "email already in use")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	staff, err := store.CreateStaff(r.Context(), h.DB, req.Name, req.Email, req.Role, string(hash))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create staff")
		return
	}

	slog.Info("staff account created", "email", staff.Email, "role", staff.Role)
	jsonResponse(w, http.StatusCreated, staff)
}

// Get handles GET /api/staff/{id}.
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	staff, err := store.GetStaff(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get staff")
		return
	}
	if staff == nil {
		jsonError(w, http.StatusNotFound, "staff not found")
		return
	}
	jsonResponse(w, http.StatusOK, staff)
}

// Update handles PUT /api/staff/{id}.
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" {
		jsonError(w, http.StatusBadRequest, "name and email required")
		return
	}
	if !validStaffRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	existing, err := store.GetStaff(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get staff")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "staff not found")
		return
	}

	if err := store.UpdateStaff(r.Context(), h.DB, id, req.Name, req.Email, req.Role, req.IsActive); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update staff")
		return
	}

	staff, _ := store.GetStaff(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, staff)
}

// ResetPassword handles PUT /api/staff/{id}/password.
func (h *StaffHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		jsonError(w, http.StatusBadRequest, "password required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := store.UpdateStaffPassword(r.Context(), h.DB, id, string(hash)); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	slog.Info("staff password reset", "staff", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Toggle handles POST /api/staff/{id}/toggle, flipping the account between
// enabled and disabled.
func (h *StaffHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	claims := GetClaims(r.Context())
	if claims != nil && claims.StaffID == id {
		jsonError(w, http.StatusBadRequest, "cannot disable your own account")
		return
	}

	if err := store.ToggleStaffActive(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to toggle staff")
		return
	}

	staff, _ := store.GetStaff(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, staff)
}

// Delete handles DELETE /api/staff/{id}.
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	claims := GetClaims(r.Context())
	if claims != nil && claims.StaffID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := store.DeleteStaff(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete staff")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "staff deleted"})
}
