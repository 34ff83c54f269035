package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mkazlouski/budget-bank/internal/models"
)

type policyRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	SavingsCardID  *int64 `json:"savings_card_id"`
	DailyControl   bool   `json:"daily_control"`
	DailyPercent   int64  `json:"daily_percent"`
	DailyRedirect  bool   `json:"daily_redirect"`
	SavingsPercent int64  `json:"savings_percent"`
}

// CreatePolicy attaches a budgeting policy to the card
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	policy := &models.BudgetSystem{
		UserID:         card.UserID,
		Name:           req.Name,
		Description:    req.Description,
		CardID:         card.ID,
		SavingsCardID:  req.SavingsCardID,
		DailyControl:   req.DailyControl,
		DailyPercent:   req.DailyPercent,
		DailyRedirect:  req.DailyRedirect,
		SavingsPercent: req.SavingsPercent,
	}
	if err := h.svc.CreatePolicy(r.Context(), policy); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, policy)
}

// GetPolicy returns the card's budgeting policy
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	policy, err := h.svc.PolicyByCard(r.Context(), card.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, policy)
}

// UpdatePolicy replaces the card's budgeting policy settings
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	policy := &models.BudgetSystem{
		UserID:         card.UserID,
		Name:           req.Name,
		Description:    req.Description,
		CardID:         card.ID,
		SavingsCardID:  req.SavingsCardID,
		DailyControl:   req.DailyControl,
		DailyPercent:   req.DailyPercent,
		DailyRedirect:  req.DailyRedirect,
		SavingsPercent: req.SavingsPercent,
	}
	if err := h.svc.UpdatePolicy(r.Context(), policy); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, policy)
}

// DeletePolicy removes the card's budgeting policy
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeletePolicy(r.Context(), card.ID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
