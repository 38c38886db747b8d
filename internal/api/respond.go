package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/subtech/mina-dashboard/internal/apiclient"
	"github.com/subtech/mina-dashboard/internal/session"
	"github.com/subtech/mina-dashboard/internal/users"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondBackendError maps client and backend failures onto a status and
// keeps the backend message verbatim.
func respondBackendError(w http.ResponseWriter, err error) {
	var (
		serverErr *apiclient.ServerError
		authErr   *apiclient.AuthError
		valErr    *users.ValidationError
	)
	switch {
	case errors.Is(err, apiclient.ErrUnauthenticated),
		errors.Is(err, apiclient.ErrSessionExpired),
		errors.Is(err, session.ErrNoToken):
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error(), "redirect": "/"})
	case errors.Is(err, users.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, users.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, users.ErrPasswordFieldsMissing),
		errors.Is(err, users.ErrPasswordMismatch),
		errors.As(err, &valErr):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &authErr):
		respondError(w, authErr.StatusCode, authErr.Message)
	case errors.As(err, &serverErr):
		respondError(w, serverErr.Status, serverErr.Message)
	default:
		respondError(w, http.StatusBadGateway, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
