package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
)

// ApplyForCredit files a credit application for the authenticated user
func (h *Handler) ApplyForCredit(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Amount  decimal.Decimal `json:"amount"`
		Purpose string          `json:"purpose"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	app, err := h.svc.ApplyForCredit(r.Context(), uid, req.Amount, req.Purpose)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, app)
}

// DecideCredit approves or rejects an application (operator action)
func (h *Handler) DecideCredit(w http.ResponseWriter, r *http.Request) {
	appID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid application id", http.StatusBadRequest)
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	credit, err := h.svc.ApproveCredit(r.Context(), appID, req.Approve)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if credit == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
		return
	}
	h.writeJSON(w, http.StatusCreated, credit)
}
