package models

// BudgetSystem is a per-card budgeting policy. At most one policy exists per
// card (unique constraint on card_id).
type BudgetSystem struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"user_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	CardID         int64  `json:"card_id"`
	SavingsCardID  *int64 `json:"savings_card_id,omitempty"`
	DailyControl   bool   `json:"daily_control"`
	DailyPercent   int64  `json:"daily_percent"`   // 0..10, fraction of balance fixed as the daily ceiling
	DailyRedirect  bool   `json:"daily_redirect"`  // sweep unused daily allowance to savings
	SavingsPercent int64  `json:"savings_percent"` // 0..100, monthly skim to savings
}

// Normalize forces dependent flags off: without a savings card nothing can
// be redirected or skimmed, and without daily control the daily settings are
// meaningless.
func (b *BudgetSystem) Normalize() {
	if b.SavingsCardID == nil {
		b.DailyRedirect = false
		b.SavingsPercent = 0
	}
	if !b.DailyControl {
		b.DailyPercent = 0
		b.DailyRedirect = false
	}
}
