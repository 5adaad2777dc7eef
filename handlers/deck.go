package handlers

import (
	"net/http"

	"github.com/vocadeck/vocadeck-api/services"
	"github.com/vocadeck/vocadeck-api/utils"
)

// POST /api/decks
func (h *Handler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	deck, err := h.Decks.Create(r.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, "deck created", deck)
}

// GET /api/decks
func (h *Handler) ListDecks(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	page, err := h.Decks.List(r.Context(), user.ID, parseListParams(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "decks", page)
}

// GET /api/decks/{deckID}
func (h *Handler) GetDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	deck, err := h.Decks.Get(r.Context(), user.ID, r.PathValue("deckID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "deck", deck)
}

// PUT /api/decks/{deckID}
func (h *Handler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	var req struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	deck, err := h.Decks.Update(r.Context(), user.ID, r.PathValue("deckID"),
		services.UpdateDeckParams{Name: req.Name, Description: req.Description})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "deck updated", deck)
}

// DELETE /api/decks/{deckID}
func (h *Handler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	if err := h.Decks.Delete(r.Context(), user.ID, r.PathValue("deckID")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "deck deleted", nil)
}

// GET /api/decks/{deckID}/stats
func (h *Handler) DeckStats(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	stats, err := h.Decks.Stats(r.Context(), user.ID, r.PathValue("deckID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "deck statistics", stats)
}
