package handlers

import (
	"net/http"
	"strconv"

	"github.com/vocadeck/vocadeck-api/services"
	"github.com/vocadeck/vocadeck-api/utils"
)

// POST /api/decks/{deckID}/cards
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	var req struct {
		FrontText string `json:"frontText"`
		BackText  string `json:"backText"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	card, err := h.Cards.Create(r.Context(), user.ID, r.PathValue("deckID"), req.FrontText, req.BackText)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, "card created", card)
}

// GET /api/decks/{deckID}/cards
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	page, err := h.Cards.List(r.Context(), user.ID, r.PathValue("deckID"), parseListParams(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "cards", page)
}

// GET /api/decks/{deckID}/cards/{cardID}
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	card, err := h.Cards.Get(r.Context(), user.ID, r.PathValue("deckID"), r.PathValue("cardID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "card", card)
}

// PUT /api/decks/{deckID}/cards/{cardID}
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	var req struct {
		FrontText *string `json:"frontText,omitempty"`
		BackText  *string `json:"backText,omitempty"`
		Memorized *bool   `json:"memorized,omitempty"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	card, err := h.Cards.Update(r.Context(), user.ID, r.PathValue("deckID"), r.PathValue("cardID"),
		services.UpdateCardParams{FrontText: req.FrontText, BackText: req.BackText, Memorized: req.Memorized})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "card updated", card)
}

// DELETE /api/decks/{deckID}/cards/{cardID}
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	if err := h.Cards.Delete(r.Context(), user.ID, r.PathValue("deckID"), r.PathValue("cardID")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "card deleted", nil)
}

// PATCH /api/decks/{deckID}/cards/{cardID}/memorized
func (h *Handler) ToggleCardMemorized(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	card, err := h.Cards.ToggleMemorized(r.Context(), user.ID, r.PathValue("deckID"), r.PathValue("cardID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "card updated", card)
}

// GET /api/decks/{deckID}/study
func (h *Handler) StudySession(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cards, err := h.Cards.StudySession(r.Context(), user.ID, r.PathValue("deckID"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "study session", cards)
}

// PUT /api/decks/{deckID}/cards/memorized
func (h *Handler) BulkSetMemorized(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.UserFrom(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
		return
	}

	var req struct {
		CardIDs   []string `json:"cardIds"`
		Memorized bool     `json:"memorized"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.Cards.BulkSetMemorized(r.Context(), user.ID, r.PathValue("deckID"), req.CardIDs, req.Memorized)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, "cards updated", map[string]any{"updated": updated})
}
