package models

// CardStatement groups a card's audit trail into settled payments and
// deposits still awaiting approval.
type CardStatement struct {
	Card            *Card      `json:"card"`
	Payments        []*Payment `json:"payments"`
	PendingDeposits []*Payment `json:"pending_deposits"`
}
