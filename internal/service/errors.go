package service

import "errors"

// Domain errors returned for expected business-rule violations. Storage
// failures are wrapped separately and are fatal to the current operation only.
var (
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrDepositNotAllowed       = errors.New("deposit not allowed for credit card")
	ErrInvalidCardType         = errors.New("invalid card type")
	ErrDepositAlreadyPending   = errors.New("deposit already pending approval")
	ErrSameCardTransfer        = errors.New("cannot transfer funds from and to the same card")
	ErrCardNotFound            = errors.New("card not found")
	ErrExchangeRateUnavailable = errors.New("exchange rate unavailable")
	ErrPolicyExists            = errors.New("card already has a budget policy")
	ErrPolicyNotFound          = errors.New("budget policy not found")
	ErrApplicationNotFound     = errors.New("credit application not found")
	ErrApplicationDecided      = errors.New("credit application already decided")
)
