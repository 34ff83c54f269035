package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Code is a single-letter currency code as stored on cards and payments.
type Code string

const (
	USD Code = "U"
	BYN Code = "B"
)

// Valid reports whether the code is one the system trades in.
func (c Code) Valid() bool {
	return c == USD || c == BYN
}

func (c Code) String() string {
	switch c {
	case USD:
		return "USD"
	case BYN:
		return "BYN"
	default:
		return string(c)
	}
}

// Convert converts amount between two currency codes given the USD/BYN rate
// (how many BYN one USD buys). The result is rounded to 2 decimal places.
func Convert(amount decimal.Decimal, from, to Code, rate decimal.Decimal) (decimal.Decimal, error) {
	if !from.Valid() || !to.Valid() {
		return decimal.Zero, fmt.Errorf("invalid currency code: %q -> %q", from, to)
	}
	if from == to {
		return amount, nil
	}
	if rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("invalid exchange rate: %s", rate)
	}
	if from == USD {
		return amount.Mul(rate).Round(2), nil
	}
	return amount.Div(rate).Round(2), nil
}
