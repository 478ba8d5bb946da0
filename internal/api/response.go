package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"librarium/internal/circulation"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// circulationError maps domain error kinds onto HTTP statuses. Anything that
// is not a domain error is a store failure and stays opaque to the client.
func circulationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, circulation.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, circulation.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, circulation.ErrInvalidState), errors.Is(err, circulation.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("circulation operation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
