package money

import (
	"math"
	"strconv"
	"strings"
)

// Money is an amount in whole currency units. Rental rates are entered per
// day without minor units, so there is no cents field.
type Money struct {
	Amount   int64
	Currency string
}

// Of normalizes the currency code to upper case.
func Of(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

func (m Money) String() string {
	if m.Currency == "" {
		return strconv.FormatInt(m.Amount, 10)
	}
	return strconv.FormatInt(m.Amount, 10) + " " + m.Currency
}

// PercentOf rounds amount*percent/100 half-up. Non-positive inputs give zero
// and the result never exceeds amount.
func PercentOf(amount int64, percent float64) int64 {
	if amount <= 0 || percent <= 0 {
		return 0
	}
	if percent >= 100 {
		return amount
	}
	v := math.Floor(float64(amount)*percent/100 + 0.5)
	if v >= float64(amount) {
		return amount
	}
	return int64(v)
}
