package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkazlouski/budget-bank/internal/currency"
	"github.com/mkazlouski/budget-bank/internal/models"
)

// Transfer moves amount from the sender card to the card identified by its
// account number. See TransferToCard for semantics.
func (s *Service) Transfer(ctx context.Context, senderCardID int64, receiverAccountNo string, amount decimal.Decimal) (*models.Payment, error) {
	receiver, err := s.store.CardByAccountNo(ctx, receiverAccountNo)
	if err != nil {
		return nil, err
	}
	return s.TransferToCard(ctx, senderCardID, receiver.ID, amount)
}

// TransferToCard debits the sender and credits the receiver as one atomic
// unit. The debit is always in the sender's currency; when currencies differ
// the receiver is credited with the converted amount. Both audit payments
// share one reference.
func (s *Service) TransferToCard(ctx context.Context, senderCardID, receiverCardID int64, amount decimal.Decimal) (*models.Payment, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive: %s", amount)
	}
	if senderCardID == receiverCardID {
		return nil, ErrSameCardTransfer
	}

	unlock := s.locks.lock(senderCardID, receiverCardID)
	defer unlock()

	var senderPayment *models.Payment
	err := s.store.InTx(ctx, func(tx Store) error {
		sender, err := tx.CardByID(ctx, senderCardID)
		if err != nil {
			return err
		}
		receiver, err := tx.CardByID(ctx, receiverCardID)
		if err != nil {
			return err
		}

		if sender.CardType != models.TypeCredit && sender.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		budgeted := false
		if sender.UsingSystem {
			policy, err := tx.PolicyByCard(ctx, sender.ID)
			if err != nil && !errors.Is(err, ErrPolicyNotFound) {
				return err
			}
			if policy != nil && policy.DailyControl {
				budgeted = true
				if sender.DailyBalance.LessThan(amount) {
					return ErrInsufficientFunds
				}
			}
		}

		converted := amount
		if sender.Currency != receiver.Currency {
			rate := s.usdRate(ctx)
			converted, err = currency.Convert(amount, sender.Currency, receiver.Currency, rate)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrExchangeRateUnavailable, err)
			}
		}

		sender.Balance = sender.Balance.Sub(amount)
		if budgeted {
			sender.DailyBalance = sender.DailyBalance.Sub(amount)
		}
		if err := tx.UpdateCardBalances(ctx, sender); err != nil {
			return err
		}

		receiver.Balance = receiver.Balance.Add(converted)
		if err := tx.UpdateCardBalances(ctx, receiver); err != nil {
			return err
		}

		ref := uuid.New()
		senderPayment = &models.Payment{
			CardID:    sender.ID,
			Amount:    amount.Neg(),
			Currency:  sender.Currency,
			CardType:  sender.CardType,
			Reference: ref,
		}
		if err := tx.CreatePayment(ctx, senderPayment); err != nil {
			return err
		}
		receiverPayment := &models.Payment{
			CardID:    receiver.ID,
			Amount:    converted,
			Currency:  receiver.Currency,
			CardType:  receiver.CardType,
			Reference: ref,
		}
		return tx.CreatePayment(ctx, receiverPayment)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Transferred %s from card %d to card %d", amount, senderCardID, receiverCardID)
	return senderPayment, nil
}

// usdRate asks the rate provider and falls back to the configured default
// when the provider is down. Transfers must not fail on a rate outage.
func (s *Service) usdRate(ctx context.Context) decimal.Decimal {
	if s.rates != nil {
		rate, err := s.rates.USDRate(ctx)
		if err == nil && rate.Sign() > 0 {
			return rate
		}
		if err != nil {
			s.log.Warnf("Rate provider failed, using default rate: %v", err)
		}
	}
	rate, err := decimal.NewFromString(s.config.DefaultUSDRate)
	if err != nil {
		s.log.Errorf("Invalid DEFAULT_USD_RATE %q: %v", s.config.DefaultUSDRate, err)
		return decimal.Zero
	}
	return rate
}
