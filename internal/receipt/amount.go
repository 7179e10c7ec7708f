package receipt

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount bounds any single price or delivery charge.
var MaxAmount = decimal.New(1, 9)

var (
	ErrAmountNotNumber = errors.New("not a number")
	ErrAmountNegative  = errors.New("cannot be negative")
	ErrAmountTooLarge  = errors.New("too large")
)

// ParseAmount reads a money amount as typed by staff: plain decimal
// notation, zero or more, below MaxAmount. Exponent forms such as "1e6" are
// refused since their rendered width is unbounded.
func ParseAmount(raw string) (decimal.Decimal, error) {
	input := strings.TrimSpace(raw)
	if input == "" || strings.ContainsAny(input, "eE") {
		return decimal.Zero, ErrAmountNotNumber
	}
	amount, err := decimal.NewFromString(input)
	if err != nil {
		return decimal.Zero, ErrAmountNotNumber
	}
	if amount.IsNegative() {
		return decimal.Zero, ErrAmountNegative
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return decimal.Zero, ErrAmountTooLarge
	}
	return amount, nil
}
