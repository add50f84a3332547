// internal/utils/money.go
package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ISO 4217 currencies whose minor unit is not 1/100.
var currencyExponents = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"CLP": 0,
	"ISK": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
	"JOD": 3,
	"TND": 3,
}

var ErrInvalidAmount = errors.New("invalid amount")

var maxMinorUnits = decimal.NewFromInt(1 << 53)

// Bounds on client-supplied amounts. Decimal arithmetic rescales to the
// smaller exponent, so both the exponent and the coefficient must stay small.
const (
	maxAmountLength = 32
	maxAmountDigits = 30
	maxAmountScale  = 12
)

// ParseAmount parses a client-supplied amount and rejects values that are
// too long or too finely scaled to be a price.
func ParseAmount(raw string) (decimal.Decimal, error) {
	if len(raw) > maxAmountLength {
		return decimal.Zero, fmt.Errorf("%w: more than %d characters", ErrInvalidAmount, maxAmountLength)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}
	if err := CheckAmountBounds(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// CheckAmountBounds must run before any comparison or rescaling of an amount
// that came from a client.
func CheckAmountBounds(amount decimal.Decimal) error {
	if exp := amount.Exponent(); exp < -maxAmountScale || exp > maxAmountScale {
		return fmt.Errorf("%w: exponent %d is out of range", ErrInvalidAmount, exp)
	}
	if amount.NumDigits() > maxAmountDigits {
		return fmt.Errorf("%w: more than %d digits", ErrInvalidAmount, maxAmountDigits)
	}
	return nil
}

func CurrencyExponent(currency string) int32 {
	if exp, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// ToMinorUnits converts a decimal amount into integer minor units. Amounts with
// more fractional digits than the currency allows are rejected, never rounded.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	if err := CheckAmountBounds(amount); err != nil {
		return 0, err
	}

	exp := CurrencyExponent(currency)
	if !amount.Equal(amount.Truncate(exp)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount, exp)
	}

	minor := amount.Shift(exp)
	if minor.Abs().GreaterThan(maxMinorUnits) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, amount)
	}
	return minor.IntPart(), nil
}

func FromMinorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -CurrencyExponent(currency))
}

// ParseDisplayPrice extracts the numeric value from a display price such as
// "$2,350" or "USD 1,190.00".
func ParseDisplayPrice(display string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range display {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',' || r == ' ' || r == '$' || r == '€' || r == '£' || r == '¥':
		case r >= 'A' && r <= 'Z':
		default:
			return decimal.Zero, fmt.Errorf("%w: unexpected %q in price %q", ErrInvalidAmount, r, display)
		}
	}

	digits := b.String()
	if digits == "" {
		return decimal.Zero, fmt.Errorf("%w: no digits in price %q", ErrInvalidAmount, display)
	}
	return decimal.NewFromString(digits)
}
