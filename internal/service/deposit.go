package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkazlouski/budget-bank/internal/models"
)

// RequestDeposit accumulates amount as a deposit awaiting administrative
// approval. The card balance is untouched until the deposit is decided.
func (s *Service) RequestDeposit(ctx context.Context, cardID int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("deposit amount must be positive: %s", amount)
	}

	unlock := s.locks.lock(cardID)
	defer unlock()

	err := s.store.InTx(ctx, func(tx Store) error {
		card, err := tx.CardByID(ctx, cardID)
		if err != nil {
			return err
		}
		if card.DepositPending {
			return ErrDepositAlreadyPending
		}

		now := time.Now()
		card.PendingDepositAmount = card.PendingDepositAmount.Add(amount)
		card.DepositPending = true
		card.DepositRequestedAt = &now

		payment := &models.Payment{
			CardID:         card.ID,
			Amount:         amount,
			Currency:       card.Currency,
			CardType:       card.CardType,
			Reference:      uuid.New(),
			DepositPending: true,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return err
		}
		return tx.UpdateCardBalances(ctx, card)
	})
	if err != nil {
		return err
	}

	s.log.Infof("Deposit of %s requested for card %d, awaiting approval", amount, cardID)
	return nil
}

// DecideDeposit settles a pending deposit. Approval credits the accumulated
// amount to the balance; either way the pending state is cleared. This is a
// trusted-operator action, the original request is not re-validated.
func (s *Service) DecideDeposit(ctx context.Context, cardID int64, approve bool) error {
	unlock := s.locks.lock(cardID)
	defer unlock()

	return s.decideDepositLocked(ctx, cardID, approve, "")
}

// decideDepositLocked settles the deposit inside one transaction. A non-empty
// key is claimed in that same transaction, so a failed run releases the key
// and the settlement pass retries the card.
func (s *Service) decideDepositLocked(ctx context.Context, cardID int64, approve bool, key string) error {
	var (
		amount decimal.Decimal
		userID int64
	)
	claimed := true
	err := s.store.InTx(ctx, func(tx Store) error {
		if key != "" {
			var err error
			claimed, err = tx.ClaimJobRun(ctx, key)
			if err != nil {
				return fmt.Errorf("cannot claim %s: %w", key, err)
			}
			if !claimed {
				return nil
			}
		}

		card, err := tx.CardByID(ctx, cardID)
		if err != nil {
			return err
		}
		amount = card.PendingDepositAmount
		userID = card.UserID

		if approve && amount.Sign() > 0 {
			card.Balance = card.Balance.Add(amount)
			payment := &models.Payment{
				CardID:    card.ID,
				Amount:    amount,
				Currency:  card.Currency,
				CardType:  card.CardType,
				Reference: uuid.New(),
			}
			if err := tx.CreatePayment(ctx, payment); err != nil {
				return err
			}
		}

		card.PendingDepositAmount = decimal.Zero
		card.DepositPending = false
		card.DepositRequestedAt = nil
		return tx.UpdateCardBalances(ctx, card)
	})
	if err != nil || !claimed {
		return err
	}

	if approve {
		s.log.Infof("Deposit of %s approved for card %d", amount, cardID)
	} else {
		s.log.Infof("Deposit of %s rejected for card %d", amount, cardID)
	}
	s.notifyDepositDecision(ctx, userID, approve, amount)
	return nil
}

func (s *Service) notifyDepositDecision(ctx context.Context, userID int64, approved bool, amount decimal.Decimal) {
	if s.notifier == nil || amount.Sign() <= 0 {
		return
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		s.log.Warnf("Cannot notify user %d about deposit decision: %v", userID, err)
		return
	}
	if err := s.notifier.SendDepositDecision(user.Email, user.Username, approved, amount); err != nil {
		s.log.Errorf("Failed to send deposit decision to %s: %v", user.Email, err)
	}
}

// SettleStaleDeposits auto-approves deposits that have been pending longer
// than the configured age. Manual approval stays authoritative; this pass
// goes through the same locked, transactional path and is keyed per card and
// day inside that transaction, so a retried run cannot credit a card twice
// and a failed run does not burn the key.
func (s *Service) SettleStaleDeposits(ctx context.Context) error {
	cutoff := time.Now().Add(-s.config.DepositAutoSettleAge)
	cards, err := s.store.CardsWithStaleDeposits(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stale deposits: %w", err)
	}

	day := time.Now().Format("2006-01-02")
	for _, card := range cards {
		if !card.IsDepositAllowed {
			continue
		}
		key := fmt.Sprintf("deposit-settle:%s:card:%d", day, card.ID)

		unlock := s.locks.lock(card.ID)
		if err := s.decideDepositLocked(ctx, card.ID, true, key); err != nil {
			s.log.Errorf("Deposit settlement failed for card %d: %v", card.ID, err)
		}
		unlock()
	}
	return nil
}
