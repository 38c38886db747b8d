package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/subtech/mina-dashboard/internal/users"
)

// GET /api/v1/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Users.List(r.Context())
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// POST /api/v1/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in users.Input
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.Users.Create(r.Context(), in); err != nil {
		respondBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// PUT /api/v1/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in users.Input
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	current, err := h.Users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondBackendError(w, err)
		return
	}
	sent, err := h.Users.Update(r.Context(), *current, in)
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"updated": sent})
}

// DELETE /api/v1/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	me, err := h.Users.Me(r.Context())
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, me)
}

type profileRequest struct {
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type profileResult struct {
	Message string      `json:"message"`
	User    *users.User `json:"user"`
}

// PUT /api/v1/profile changes either the password (when any password field
// is set) or the contact data.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if req.CurrentPassword != "" || req.NewPassword != "" || req.ConfirmPassword != "" {
		u, err := h.Users.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
		if err != nil {
			respondBackendError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, profileResult{Message: "Contraseña actualizada correctamente", User: u})
		return
	}

	current, err := h.Users.Me(r.Context())
	if err != nil {
		respondBackendError(w, err)
		return
	}
	u, err := h.Users.UpdateContact(r.Context(), *current, req.Email, req.Phone)
	if errors.Is(err, users.ErrNoChanges) {
		respondJSON(w, http.StatusOK, profileResult{Message: err.Error(), User: current})
		return
	}
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profileResult{Message: "Datos de contacto actualizados", User: u})
}
