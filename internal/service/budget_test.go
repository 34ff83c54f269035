package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mkazlouski/budget-bank/internal/currency"
	"github.com/mkazlouski/budget-bank/internal/models"
)

func TestCreatePolicyEnforcesSinglePolicy(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	card := seedCard(t, store, &models.Card{
		UserID: 1, CardType: models.TypeDebit, Currency: currency.BYN,
	})

	policy := &models.BudgetSystem{UserID: 1, Name: "groceries", CardID: card.ID, DailyControl: true, DailyPercent: 3}
	if err := svc.CreatePolicy(context.Background(), policy); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, _ := store.CardByID(context.Background(), card.ID)
	if !got.UsingSystem {
		t.Fatalf("budgeting not enabled on the card")
	}

	dup := &models.BudgetSystem{UserID: 1, Name: "again", CardID: card.ID}
	if err := svc.CreatePolicy(context.Background(), dup); !errors.Is(err, ErrPolicyExists) {
		t.Fatalf("err = %v, want ErrPolicyExists", err)
	}
}

func TestPolicyNormalization(t *testing.T) {
	savings := int64(7)
	tests := []struct {
		name   string
		policy models.BudgetSystem
		check  func(t *testing.T, p models.BudgetSystem)
	}{
		{
			name:   "no savings card forces redirect off",
			policy: models.BudgetSystem{DailyControl: true, DailyPercent: 5, DailyRedirect: true, SavingsPercent: 30},
			check: func(t *testing.T, p models.BudgetSystem) {
				if p.DailyRedirect || p.SavingsPercent != 0 {
					t.Fatalf("redirect=%v savings=%d, want off/0", p.DailyRedirect, p.SavingsPercent)
				}
			},
		},
		{
			name:   "no daily control forces daily settings off",
			policy: models.BudgetSystem{SavingsCardID: &savings, DailyPercent: 5, DailyRedirect: true, SavingsPercent: 30},
			check: func(t *testing.T, p models.BudgetSystem) {
				if p.DailyPercent != 0 || p.DailyRedirect {
					t.Fatalf("daily settings survived without daily control: %+v", p)
				}
				if p.SavingsPercent != 30 {
					t.Fatalf("savings skim must be independent of daily control")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.policy.Normalize()
			tt.check(t, tt.policy)
		})
	}
}

func TestPolicyValidation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	card := seedCard(t, store, &models.Card{UserID: 1, CardType: models.TypeDebit, Currency: currency.BYN})

	if err := svc.CreatePolicy(context.Background(), &models.BudgetSystem{CardID: card.ID, DailyPercent: 11}); err == nil {
		t.Fatalf("daily_percent 11 accepted")
	}
	if err := svc.CreatePolicy(context.Background(), &models.BudgetSystem{CardID: card.ID, SavingsPercent: 101}); err == nil {
		t.Fatalf("savings_percent 101 accepted")
	}
	self := card.ID
	if err := svc.CreatePolicy(context.Background(), &models.BudgetSystem{CardID: card.ID, SavingsCardID: &self}); err == nil {
		t.Fatalf("self-referential savings card accepted")
	}
}

func TestMonthlyBudgetFixatesAndSkims(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	card := seedCard(t, store, &models.Card{
		UserID: 1, Balance: dec("1000"), UsingSystem: true,
		CardType: models.TypeDebit, Currency: currency.BYN,
	})
	savings := seedCard(t, store, &models.Card{
		UserID: 1, Balance: dec("0"), CardType: models.TypeDebit, Currency: currency.BYN,
	})
	if err := store.CreatePolicy(context.Background(), &models.BudgetSystem{
		UserID: 1, CardID: card.ID, SavingsCardID: &savings.ID,
		DailyControl: true, DailyPercent: 5, SavingsPercent: 10,
	}); err != nil {
		t.Fatalf("seed policy: %v", err)
	}

	if err := svc.CountMonthlyBudgets(context.Background()); err != nil {
		t.Fatalf("monthly pass failed: %v", err)
	}

	got, _ := store.CardByID(context.Background(), card.ID)
	if !got.FixatedSum.Equal(dec("50")) {
		t.Fatalf("fixated_sum = %s, want 50", got.FixatedSum)
	}
	if !got.DailyBalance.Equal(dec("50")) {
		t.Fatalf("daily_balance = %s, want 50", got.DailyBalance)
	}
	if !got.Balance.Equal(dec("900")) {
		t.Fatalf("balance = %s, want 900 after 10%% skim", got.Balance)
	}
	gotSavings, _ := store.CardByID(context.Background(), savings.ID)
	if !gotSavings.Balance.Equal(dec("100")) {
		t.Fatalf("savings balance = %s, want 100", gotSavings.Balance)
	}

	// A rerun within the same month is claimed away by the idempotency key.
	if err := svc.CountMonthlyBudgets(context.Background()); err != nil {
		t.Fatalf("rerun failed: %v", err)
	}
	got, _ = store.CardByID(context.Background(), card.ID)
	if !got.Balance.Equal(dec("900")) {
		t.Fatalf("rerun double-applied the skim: balance=%s", got.Balance)
	}
}

func TestMonthlyBudgetRecomputeIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	card := seedCard(t, store, &models.Card{
		UserID: 1, Balance: dec("800"), UsingSystem: true,
		CardType: models.TypeDebit, Currency: currency.BYN,
	})
	if err := store.CreatePolicy(context.Background(), &models.BudgetSystem{
		UserID: 1, CardID: card.ID, DailyControl: true, DailyPercent: 4,
	}); err != nil {
		t.Fatalf("seed policy: %v", err)
	}

	if err := svc.countMonthlyBudget(context.Background(), card.ID, "monthly-budget:2026-01:card:1"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	first, _ := store.CardByID(context.Background(), card.ID)

	if err := svc.countMonthlyBudget(context.Background(), card.ID, "monthly-budget:2026-02:card:1"); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	second, _ := store.CardByID(context.Background(), card.ID)

	if !first.FixatedSum.Equal(second.FixatedSum) {
		t.Fatalf("fixated_sum drifted: %s then %s", first.FixatedSum, second.FixatedSum)
	}
	if !second.FixatedSum.Equal(dec("32")) {
		t.Fatalf("fixated_sum = %s, want 32", second.FixatedSum)
	}
}

func TestMonthlyBudgetRetriesAfterFailedRun(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	card := seedCard(t, store, &models.Card{
		UserID: 1, Balance: dec("1000"), UsingSystem: true,
		CardType: models.TypeDebit, Currency: currency.BYN,
	})
	if err := store.CreatePolicy(context.Background(), &models.BudgetSystem{
		UserID: 1, CardID: card.ID, DailyControl: true, DailyPercent: 5,
	}); err != nil {
		t.Fatalf("seed policy: %v", err)
	}

	// The first run dies mid-transaction. The rollback must release the
	// idempotency key along with the partial state.
	store.failCardUpdates = true
	if err := svc.CountMonthlyBudgets(context.Background()); err != nil {
		t.Fatalf("batch must continue past a failed card: %v", err)
	}
	got, _ := store.CardByID(context.Background(), card.ID)
	if got.FixatedSum.Sign() != 0 {
		t.Fatalf("fixated_sum = %s after rolled-back run, want 0", got.FixatedSum)
	}

	store.failCardUpdates = false
	if err := svc.CountMonthlyBudgets(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	got, _ = store.CardByID(context.Background(), card.ID)
	if !got.FixatedSum.Equal(dec("50")) {
		t.Fatalf("fixated_sum = %s after retry, want 50", got.FixatedSum)
	}
}

func TestDailyBudgetRedirectsAndRefills(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	card := seedCard(t, store, &models.Card{
		UserID: 1, Balance: dec("500"), DailyBalance: dec("12"), FixatedSum: dec("25"),
		UsingSystem: true, CardType: models.TypeDebit, Currency: currency.BYN,
	})
	savings := seedCard(t, store, &models.Card{
		UserID: 1, Balance: dec("0"), CardType: models.TypeDebit, Currency: currency.BYN,
	})
	if err := store.CreatePolicy(context.Background(), &models.BudgetSystem{
		UserID: 1, CardID: card.ID, SavingsCardID: &savings.ID,
		DailyControl: true, DailyPercent: 5, DailyRedirect: true,
	}); err != nil {
		t.Fatalf("seed policy: %v", err)
	}

	if err := svc.RecountDailyBudgets(context.Background()); err != nil {
		t.Fatalf("daily pass failed: %v", err)
	}

	// The 12 left on the daily allowance moves to savings, then the
	// allowance refills to the fixated ceiling.
	got, _ := store.CardByID(context.Background(), card.ID)
	if !got.Balance.Equal(dec("488")) {
		t.Fatalf("balance = %s, want 488", got.Balance)
	}
	if !got.DailyBalance.Equal(dec("25")) {
		t.Fatalf("daily_balance = %s, want 25", got.DailyBalance)
	}
	gotSavings, _ := store.CardByID(context.Background(), savings.ID)
	if !gotSavings.Balance.Equal(dec("12")) {
		t.Fatalf("savings balance = %s, want 12", gotSavings.Balance)
	}
}

func TestDailyBudgetRefillCappedByBalance(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	card := seedCard(t, store, &models.Card{
		UserID: 1, Balance: dec("8"), DailyBalance: dec("0"), FixatedSum: dec("25"),
		UsingSystem: true, CardType: models.TypeDebit, Currency: currency.BYN,
	})
	if err := store.CreatePolicy(context.Background(), &models.BudgetSystem{
		UserID: 1, CardID: card.ID, DailyControl: true, DailyPercent: 5,
	}); err != nil {
		t.Fatalf("seed policy: %v", err)
	}

	if err := svc.RecountDailyBudgets(context.Background()); err != nil {
		t.Fatalf("daily pass failed: %v", err)
	}

	got, _ := store.CardByID(context.Background(), card.ID)
	if !got.DailyBalance.Equal(dec("8")) {
		t.Fatalf("daily_balance = %s, want 8 (capped by balance)", got.DailyBalance)
	}
}

func TestDeletePolicyDisablesBudgeting(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	card := seedCard(t, store, &models.Card{
		UserID: 1, Balance: dec("100"), DailyBalance: dec("10"), FixatedSum: dec("10"),
		UsingSystem: true, CardType: models.TypeDebit, Currency: currency.BYN,
	})
	if err := store.CreatePolicy(context.Background(), &models.BudgetSystem{UserID: 1, CardID: card.ID}); err != nil {
		t.Fatalf("seed policy: %v", err)
	}

	if err := svc.DeletePolicy(context.Background(), card.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got, _ := store.CardByID(context.Background(), card.ID)
	if got.UsingSystem || got.DailyBalance.Sign() != 0 || got.FixatedSum.Sign() != 0 {
		t.Fatalf("budgeting state not cleared: %+v", got)
	}
	if _, err := store.PolicyByCard(context.Background(), card.ID); !errors.Is(err, ErrPolicyNotFound) {
		t.Fatalf("policy still present")
	}
}
