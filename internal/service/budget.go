package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkazlouski/budget-bank/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CreatePolicy attaches a budgeting policy to a card. A card holds at most
// one policy.
func (s *Service) CreatePolicy(ctx context.Context, policy *models.BudgetSystem) error {
	if err := validatePolicy(policy); err != nil {
		return err
	}
	policy.Normalize()

	unlock := s.locks.lock(policy.CardID)
	defer unlock()

	err := s.store.InTx(ctx, func(tx Store) error {
		card, err := tx.CardByID(ctx, policy.CardID)
		if err != nil {
			return err
		}
		if _, err := tx.PolicyByCard(ctx, policy.CardID); err == nil {
			return ErrPolicyExists
		} else if !errors.Is(err, ErrPolicyNotFound) {
			return err
		}
		if err := tx.CreatePolicy(ctx, policy); err != nil {
			return err
		}

		if !card.UsingSystem {
			card.UsingSystem = true
			if err := tx.UpdateCardBalances(ctx, card); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Infof("Budget policy %q created for card %d", policy.Name, policy.CardID)
	return nil
}

// UpdatePolicy replaces the card's policy settings.
func (s *Service) UpdatePolicy(ctx context.Context, policy *models.BudgetSystem) error {
	if err := validatePolicy(policy); err != nil {
		return err
	}
	policy.Normalize()
	return s.store.UpdatePolicy(ctx, policy)
}

// DeletePolicy removes the card's policy and turns budgeting off.
func (s *Service) DeletePolicy(ctx context.Context, cardID int64) error {
	unlock := s.locks.lock(cardID)
	defer unlock()

	return s.store.InTx(ctx, func(tx Store) error {
		if err := tx.DeletePolicy(ctx, cardID); err != nil {
			return err
		}
		card, err := tx.CardByID(ctx, cardID)
		if err != nil {
			return err
		}
		card.UsingSystem = false
		card.DailyBalance = decimal.Zero
		card.FixatedSum = decimal.Zero
		return tx.UpdateCardBalances(ctx, card)
	})
}

// PolicyByCard returns the card's budgeting policy.
func (s *Service) PolicyByCard(ctx context.Context, cardID int64) (*models.BudgetSystem, error) {
	return s.store.PolicyByCard(ctx, cardID)
}

func validatePolicy(policy *models.BudgetSystem) error {
	if policy.DailyPercent < 0 || policy.DailyPercent > 10 {
		return fmt.Errorf("daily_percent must be between 0 and 10, got %d", policy.DailyPercent)
	}
	if policy.SavingsPercent < 0 || policy.SavingsPercent > 100 {
		return fmt.Errorf("savings_percent must be between 0 and 100, got %d", policy.SavingsPercent)
	}
	if policy.SavingsCardID != nil && *policy.SavingsCardID == policy.CardID {
		return fmt.Errorf("savings card must differ from the budgeted card")
	}
	return nil
}

// RecountDailyBudgets runs the daily pass over every budgeted card: sweep
// the unused daily allowance to savings when the policy redirects it, then
// top the allowance up by min(balance, fixated_sum). Keyed per card and day
// so a rerun cannot double-apply.
func (s *Service) RecountDailyBudgets(ctx context.Context) error {
	cards, err := s.store.CardsWithBudget(ctx)
	if err != nil {
		return fmt.Errorf("failed to list budgeted cards: %w", err)
	}

	day := time.Now().Format("2006-01-02")
	for _, card := range cards {
		key := fmt.Sprintf("daily-budget:%s:card:%d", day, card.ID)
		if err := s.recountDailyBudget(ctx, card.ID, key); err != nil {
			s.log.Errorf("Daily budget pass failed for card %d: %v", card.ID, err)
		}
	}
	return nil
}

// CountMonthlyBudgets runs the monthly pass over every budgeted card:
// refixate the daily ceiling from the current balance and skim the savings
// percentage to the savings card. Keyed per card and month.
func (s *Service) CountMonthlyBudgets(ctx context.Context) error {
	cards, err := s.store.CardsWithBudget(ctx)
	if err != nil {
		return fmt.Errorf("failed to list budgeted cards: %w", err)
	}

	month := time.Now().Format("2006-01")
	for _, card := range cards {
		key := fmt.Sprintf("monthly-budget:%s:card:%d", month, card.ID)
		if err := s.countMonthlyBudget(ctx, card.ID, key); err != nil {
			s.log.Errorf("Monthly budget pass failed for card %d: %v", card.ID, err)
		}
	}
	return nil
}

// recountDailyBudget runs one daily pass for one card under its lock. The
// idempotency claim shares the pass's transaction: a run that fails mid-pass
// rolls the claim back with it, so the next batch retries the card.
func (s *Service) recountDailyBudget(ctx context.Context, cardID int64, key string) error {
	policy, err := s.store.PolicyByCard(ctx, cardID)
	if err != nil {
		if errors.Is(err, ErrPolicyNotFound) {
			s.log.Warnf("Card %d has budgeting on but no policy, skipping", cardID)
			return nil
		}
		return err
	}

	lockIDs := []int64{cardID}
	if policy.SavingsCardID != nil {
		lockIDs = append(lockIDs, *policy.SavingsCardID)
	}
	unlock := s.locks.lock(lockIDs...)
	defer unlock()

	return s.store.InTx(ctx, func(tx Store) error {
		claimed, err := tx.ClaimJobRun(ctx, key)
		if err != nil {
			return fmt.Errorf("cannot claim %s: %w", key, err)
		}
		if !claimed {
			return nil
		}

		card, err := tx.CardByID(ctx, cardID)
		if err != nil {
			return err
		}

		if policy.DailyRedirect && policy.SavingsCardID != nil && card.DailyBalance.Sign() > 0 {
			savings, err := tx.CardByID(ctx, *policy.SavingsCardID)
			if err != nil {
				return err
			}
			leftover := card.DailyBalance
			card.Balance = card.Balance.Sub(leftover)
			card.DailyBalance = decimal.Zero
			savings.Balance = savings.Balance.Add(leftover)
			if err := tx.UpdateCardBalances(ctx, savings); err != nil {
				return err
			}
		}

		refill := card.FixatedSum
		if card.Balance.LessThan(refill) {
			refill = card.Balance
		}
		if refill.Sign() > 0 {
			card.DailyBalance = card.DailyBalance.Add(refill)
		}
		return tx.UpdateCardBalances(ctx, card)
	})
}

func (s *Service) countMonthlyBudget(ctx context.Context, cardID int64, key string) error {
	policy, err := s.store.PolicyByCard(ctx, cardID)
	if err != nil {
		if errors.Is(err, ErrPolicyNotFound) {
			s.log.Warnf("Card %d has budgeting on but no policy, skipping", cardID)
			return nil
		}
		return err
	}

	lockIDs := []int64{cardID}
	if policy.SavingsCardID != nil {
		lockIDs = append(lockIDs, *policy.SavingsCardID)
	}
	unlock := s.locks.lock(lockIDs...)
	defer unlock()

	return s.store.InTx(ctx, func(tx Store) error {
		claimed, err := tx.ClaimJobRun(ctx, key)
		if err != nil {
			return fmt.Errorf("cannot claim %s: %w", key, err)
		}
		if !claimed {
			return nil
		}

		card, err := tx.CardByID(ctx, cardID)
		if err != nil {
			return err
		}

		if policy.DailyControl {
			fixated := card.Balance.Mul(decimal.NewFromInt(policy.DailyPercent)).Div(hundred).Round(2)
			if fixated.Sign() < 0 {
				fixated = decimal.Zero
			}
			card.FixatedSum = fixated
			card.DailyBalance = fixated
		}

		if policy.SavingsCardID != nil && policy.SavingsPercent > 0 {
			skim := card.Balance.Mul(decimal.NewFromInt(policy.SavingsPercent)).Div(hundred).Round(2)
			if skim.Sign() > 0 {
				savings, err := tx.CardByID(ctx, *policy.SavingsCardID)
				if err != nil {
					return err
				}
				card.Balance = card.Balance.Sub(skim)
				savings.Balance = savings.Balance.Add(skim)
				if err := tx.UpdateCardBalances(ctx, savings); err != nil {
					return err
				}
			}
		}
		return tx.UpdateCardBalances(ctx, card)
	})
}
