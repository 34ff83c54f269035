package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkazlouski/budget-bank/internal/models"
)

// Debit charges amount against a card. The payment record and the balance
// mutation are committed as one transaction; on any precondition failure
// nothing is written.
func (s *Service) Debit(ctx context.Context, cardID int64, amount decimal.Decimal, cardType models.CardType) (*models.Payment, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("debit amount must be positive: %s", amount)
	}

	unlock := s.locks.lock(cardID)
	defer unlock()

	var payment *models.Payment
	err := s.store.InTx(ctx, func(tx Store) error {
		card, err := tx.CardByID(ctx, cardID)
		if err != nil {
			return err
		}
		if err := checkDebit(card, amount, cardType); err != nil {
			return err
		}

		payment = &models.Payment{
			CardID:    card.ID,
			Amount:    amount.Neg(),
			Currency:  card.Currency,
			CardType:  cardType,
			Reference: uuid.New(),
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return err
		}

		card.Balance = card.Balance.Sub(amount)
		if card.UsingSystem {
			card.DailyBalance = card.DailyBalance.Sub(amount)
		}
		return tx.UpdateCardBalances(ctx, card)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Card %d debited: %s", cardID, amount)
	return payment, nil
}

// checkDebit validates the debit preconditions without mutating anything.
func checkDebit(card *models.Card, amount decimal.Decimal, cardType models.CardType) error {
	switch cardType {
	case models.TypeCredit:
		if !card.IsDepositAllowed {
			return ErrDepositNotAllowed
		}
	case models.TypeDebit:
		if card.UsingSystem {
			if card.DailyBalance.LessThan(amount) {
				return ErrInsufficientFunds
			}
		} else if card.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
	default:
		return ErrInvalidCardType
	}
	return nil
}

// Statement returns a card's audit trail split into settled payments and
// deposits still awaiting approval.
func (s *Service) Statement(ctx context.Context, cardID int64) (*models.CardStatement, error) {
	card, err := s.store.CardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.PaymentsByCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	stmt := &models.CardStatement{Card: card}
	for _, p := range payments {
		if p.DepositPending {
			stmt.PendingDeposits = append(stmt.PendingDeposits, p)
		} else {
			stmt.Payments = append(stmt.Payments, p)
		}
	}
	return stmt, nil
}
