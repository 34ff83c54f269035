package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkazlouski/budget-bank/internal/currency"
	"github.com/mkazlouski/budget-bank/internal/models"
)

// ApplyForCredit files a pending credit application for the user.
func (s *Service) ApplyForCredit(ctx context.Context, userID int64, amount decimal.Decimal, purpose string) (*models.CreditApplication, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("credit amount must be positive: %s", amount)
	}

	app := &models.CreditApplication{
		UserID:  userID,
		Amount:  amount,
		Purpose: purpose,
		Status:  models.ApplicationPending,
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	s.log.Infof("Credit application %d filed by user %d for %s", app.ID, userID, amount)
	return app, nil
}

// ApproveCredit decides a pending application. Approval creates the credit,
// its amortization terms and a companion credit card seeded with the
// approved amount, all in one transaction. Rejection only flips the status.
func (s *Service) ApproveCredit(ctx context.Context, applicationID int64, approve bool) (*models.Credit, error) {
	app, err := s.store.ApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationPending {
		return nil, ErrApplicationDecided
	}

	if !approve {
		if err := s.store.UpdateApplicationStatus(ctx, app.ID, models.ApplicationRejected); err != nil {
			return nil, err
		}
		s.log.Infof("Credit application %d rejected", app.ID)
		return nil, nil
	}

	annualRate, err := decimal.NewFromString(s.config.CreditAnnualRate)
	if err != nil {
		return nil, fmt.Errorf("invalid CREDIT_ANNUAL_RATE %q: %w", s.config.CreditAnnualRate, err)
	}
	termMonths := s.config.CreditTermMonths

	var credit *models.Credit
	err = s.store.InTx(ctx, func(tx Store) error {
		card, err := newCard(app.UserID, fmt.Sprintf("%s Credit", app.Purpose), models.TypeCredit, currency.BYN)
		if err != nil {
			return err
		}
		card.Balance = app.Amount
		if err := tx.CreateCard(ctx, card); err != nil {
			return err
		}

		credit = &models.Credit{
			UserID:          app.UserID,
			CardID:          card.ID,
			Amount:          app.Amount,
			InterestRate:    annualRate,
			TermMonths:      termMonths,
			MonthlyPayment:  MonthlyPayment(app.Amount, annualRate, termMonths),
			RemainingAmount: app.Amount,
			Status:          models.CreditApproved,
		}
		if err := tx.CreateCredit(ctx, credit); err != nil {
			return err
		}
		return tx.UpdateApplicationStatus(ctx, app.ID, models.ApplicationApproved)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Credit application %d approved: credit %d, card %d, monthly payment %s",
		app.ID, credit.ID, credit.CardID, credit.MonthlyPayment)
	return credit, nil
}

// MonthlyPayment computes the fixed annuity payment
// P*r / (1 - (1+r)^-n) for an annual percentage rate, rounded to 2 places.
func MonthlyPayment(amount, annualRatePercent decimal.Decimal, termMonths int) decimal.Decimal {
	monthlyRate := annualRatePercent.Div(decimal.NewFromInt(1200))
	if monthlyRate.Sign() == 0 {
		return amount.Div(decimal.NewFromInt(int64(termMonths))).Round(2)
	}
	compound := decimal.NewFromInt(1).Add(monthlyRate).Pow(decimal.NewFromInt(int64(termMonths)))
	denom := decimal.NewFromInt(1).Sub(decimal.NewFromInt(1).Div(compound))
	return amount.Mul(monthlyRate).Div(denom).Round(2)
}

// ProcessMonthlyPayments amortizes every approved credit: debit the
// companion card by the monthly payment, reduce the remaining amount and
// term, and mark the credit PAID once nothing remains. A credit whose card
// can no longer be charged is logged and retried next period. The
// idempotency claim shares the mutation's transaction, so a crashed run is
// safely retried.
func (s *Service) ProcessMonthlyPayments(ctx context.Context) error {
	credits, err := s.store.ActiveCredits(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active credits: %w", err)
	}

	month := time.Now().Format("2006-01")
	for _, credit := range credits {
		if err := s.amortize(ctx, credit, month); err != nil {
			s.log.Errorf("Amortization failed for credit %d: %v", credit.ID, err)
		}
	}
	return nil
}

func (s *Service) amortize(ctx context.Context, credit *models.Credit, month string) error {
	unlock := s.locks.lock(credit.CardID)
	defer unlock()

	var shortfallUser int64
	err := s.store.InTx(ctx, func(tx Store) error {
		key := fmt.Sprintf("amortize:%s:credit:%d", month, credit.ID)
		claimed, err := tx.ClaimJobRun(ctx, key)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		card, err := tx.CardByID(ctx, credit.CardID)
		if err != nil {
			return err
		}
		if err := checkDebit(card, credit.MonthlyPayment, models.TypeCredit); err != nil {
			s.log.Warnf("Credit %d: card %d cannot cover monthly payment %s, retrying next period: %v",
				credit.ID, card.ID, credit.MonthlyPayment, err)
			shortfallUser = credit.UserID
			return nil
		}

		payment := &models.Payment{
			CardID:    card.ID,
			Amount:    credit.MonthlyPayment.Neg(),
			Currency:  card.Currency,
			CardType:  models.TypeCredit,
			Reference: uuid.New(),
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return err
		}
		card.Balance = card.Balance.Sub(credit.MonthlyPayment)
		if err := tx.UpdateCardBalances(ctx, card); err != nil {
			return err
		}

		credit.RemainingAmount = credit.RemainingAmount.Sub(credit.MonthlyPayment)
		credit.TermMonths--
		if credit.RemainingAmount.Sign() <= 0 {
			credit.Status = models.CreditPaid
			credit.TermMonths = 0
			s.log.Infof("Credit %d fully paid", credit.ID)
		}
		return tx.UpdateCredit(ctx, credit)
	})
	if err != nil {
		return err
	}

	if shortfallUser != 0 {
		s.notifyShortfall(ctx, shortfallUser, credit.MonthlyPayment)
	}
	return nil
}

func (s *Service) notifyShortfall(ctx context.Context, userID int64, amount decimal.Decimal) {
	if s.notifier == nil {
		return
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		s.log.Warnf("Cannot notify user %d about missed payment: %v", userID, err)
		return
	}
	if err := s.notifier.SendPaymentReminder(user.Email, user.Username, amount, true); err != nil {
		s.log.Errorf("Failed to send payment reminder to %s: %v", user.Email, err)
	}
}
