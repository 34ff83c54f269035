package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkazlouski/budget-bank/internal/currency"
	"github.com/mkazlouski/budget-bank/internal/models"
	"github.com/mkazlouski/budget-bank/internal/utils"
)

// newCard builds a card with a fresh account number and hashed CVV.
func newCard(userID int64, name string, cardType models.CardType, code currency.Code) (*models.Card, error) {
	if !cardType.Valid() {
		return nil, ErrInvalidCardType
	}
	if !code.Valid() {
		return nil, fmt.Errorf("invalid currency code: %q", code)
	}

	accountNo, err := utils.GenerateAccountNo()
	if err != nil {
		return nil, fmt.Errorf("failed to generate account number: %w", err)
	}
	cvv, err := utils.GenerateCVV()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CVV: %w", err)
	}
	cvvHash, err := bcrypt.GenerateFromPassword([]byte(cvv), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash CVV: %w", err)
	}

	return &models.Card{
		UserID:           userID,
		CardName:         name,
		AccountNo:        accountNo,
		CVVHash:          string(cvvHash),
		IsDepositAllowed: true,
		CardType:         cardType,
		Currency:         code,
	}, nil
}

// CreateCard issues a new card for the user.
func (s *Service) CreateCard(ctx context.Context, userID int64, name string, cardType models.CardType, code currency.Code) (*models.Card, error) {
	card, err := newCard(userID, name, cardType, code)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, err
	}

	s.log.Infof("Card %d created for user %d: %s %s", card.ID, userID, card.CardType, card.Currency)
	return card, nil
}

// CardsByUser lists the user's cards.
func (s *Service) CardsByUser(ctx context.Context, userID int64) ([]*models.Card, error) {
	return s.store.CardsByUser(ctx, userID)
}

// CardByID returns a single card.
func (s *Service) CardByID(ctx context.Context, cardID int64) (*models.Card, error) {
	return s.store.CardByID(ctx, cardID)
}
