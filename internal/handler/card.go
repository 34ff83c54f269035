package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mkazlouski/budget-bank/internal/currency"
	"github.com/mkazlouski/budget-bank/internal/models"
)

// CreateCard issues a new card for the authenticated user
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		CardName string `json:"card_name"`
		CardType string `json:"card_type"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CardName == "" {
		req.CardName = "New Card"
	}

	card, err := h.svc.CreateCard(r.Context(), uid, req.CardName,
		models.CardType(req.CardType), currency.Code(req.Currency))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, card)
}

// ListCards lists the authenticated user's cards
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cards, err := h.svc.CardsByUser(r.Context(), uid)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cards)
}

// Statement returns a card's payments and pending deposits
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	stmt, err := h.svc.Statement(r.Context(), card.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stmt)
}

// Debit charges an amount against a card
func (h *Handler) Debit(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount   decimal.Decimal `json:"amount"`
		CardType string          `json:"card_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cardType := models.CardType(req.CardType)
	if cardType == "" {
		cardType = card.CardType
	}

	payment, err := h.svc.Debit(r.Context(), card.ID, req.Amount, cardType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, payment)
}

// RequestDeposit files a deposit for admin approval
func (h *Handler) RequestDeposit(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.RequestDeposit(r.Context(), card.ID, req.Amount); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending approval"})
}

// DecideDeposit settles a pending deposit (operator action)
func (h *Handler) DecideDeposit(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid card id", http.StatusBadRequest)
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.DecideDeposit(r.Context(), cardID, req.Approve); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"approved": req.Approve})
}

// ownedCard resolves the {id} path card and checks it belongs to the caller.
func (h *Handler) ownedCard(w http.ResponseWriter, r *http.Request) (*models.Card, bool) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	cardID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid card id", http.StatusBadRequest)
		return nil, false
	}
	card, err := h.svc.CardByID(r.Context(), cardID)
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	if card.UserID != uid {
		http.Error(w, "Card does not belong to user", http.StatusForbidden)
		return nil, false
	}
	return card, true
}
