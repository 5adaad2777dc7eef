// Package handlers translates HTTP requests into service calls and service
// results into the JSON response envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/vocadeck/vocadeck-api/apperrors"
	"github.com/vocadeck/vocadeck-api/services"
)

// Handler holds the entity services and everything needed to render
// responses.
type Handler struct {
	Auth  *services.AuthService
	Decks *services.DeckService
	Cards *services.CardService
	Log   *zap.Logger

	// Dev controls whether raw error detail is included in 500 responses.
	Dev bool
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.Log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeData(w http.ResponseWriter, status int, message string, data any) {
	h.writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// writeError maps sentinel errors onto status codes. Anything unrecognized
// is a 500; its detail leaks into the body only in development.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: err.Error()})
	case errors.Is(err, apperrors.ErrInvalidCredentials), errors.Is(err, apperrors.ErrUnauthorized):
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, envelope{Message: err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		h.writeJSON(w, http.StatusConflict, envelope{Message: err.Error()})
	default:
		h.Log.Error("unexpected error", zap.Error(err))
		env := envelope{Message: "internal server error"}
		if h.Dev {
			env.Error = err.Error()
		}
		h.writeJSON(w, http.StatusInternalServerError, env)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "invalid request body"})
		return false
	}
	return true
}

func parseListParams(r *http.Request) services.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return services.ListParams{
		Page:      page,
		Limit:     limit,
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
}
