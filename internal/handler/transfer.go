package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
)

// Transfer moves funds between cards, by receiver account number or card id
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		SenderCardID      int64           `json:"sender_card_id"`
		ReceiverAccountNo string          `json:"receiver_account_no"`
		ReceiverCardID    int64           `json:"receiver_card_id"`
		Amount            decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sender, err := h.svc.CardByID(r.Context(), req.SenderCardID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if sender.UserID != uid {
		http.Error(w, "Card does not belong to user", http.StatusForbidden)
		return
	}

	payment, err := h.transferPayment(r, req.SenderCardID, req.ReceiverAccountNo, req.ReceiverCardID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) transferPayment(r *http.Request, senderID int64, accountNo string, receiverID int64, amount decimal.Decimal) (any, error) {
	if accountNo != "" {
		return h.svc.Transfer(r.Context(), senderID, accountNo, amount)
	}
	return h.svc.TransferToCard(r.Context(), senderID, receiverID, amount)
}
