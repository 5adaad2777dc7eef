package handlers

import (
	"net/http"

	"github.com/vocadeck/vocadeck-api/services"
	"github.com/vocadeck/vocadeck-api/utils"
)

// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	user, token, err := h.Auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeData(w, http.StatusCreated, "registration successful", map[string]any{
		"user":  user,
		"token": token,
	})
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	user, token, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, "login successful", map[string]any{
		"user":  user,
		"token": token,
	})
}

// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	if err := h.Auth.Logout(r.Context(), user.ID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "logged out", nil)
}

// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}
	h.writeData(w, http.StatusOK, "profile", user)
}

// PUT /api/auth/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	var req struct {
		Name  *string `json:"name,omitempty"`
		Email *string `json:"email,omitempty"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.Auth.UpdateProfile(r.Context(), user.ID, services.UpdateProfileParams{Name: req.Name, Email: req.Email})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "profile updated", updated)
}

// PUT /api/auth/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "password changed", nil)
}
