package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when arithmetic mixes two currencies.
var ErrCurrencyMismatch = errors.New("money: currency mismatch")

// ErrInvalidAmount is returned when a price is built from a malformed value.
var ErrInvalidAmount = errors.New("money: invalid amount")

// Currency identifies the currency a price is denominated in. It is treated
// as an opaque value; conversion between currencies is out of scope.
type Currency struct {
	Code   string
	Symbol string
}

// IsZero reports whether the currency has not been set.
func (c Currency) IsZero() bool {
	return c.Code == ""
}

// Price is an immutable decimal amount bound to a currency. Every operation
// returns a new Price; the zero value is not usable, construct via NewPrice
// or Zero.
type Price struct {
	value    decimal.Decimal
	currency Currency
}

// NewPrice parses the decimal string representation of an amount.
func NewPrice(value string, currency Currency) (Price, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Price{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return Price{value: d, currency: currency}, nil
}

// NewPriceFromInt builds a price from a whole amount of major units.
func NewPriceFromInt(value int64, currency Currency) Price {
	return Price{value: decimal.NewFromInt(value), currency: currency}
}

// NewPriceFromDecimal wraps an already parsed decimal.
func NewPriceFromDecimal(value decimal.Decimal, currency Currency) Price {
	return Price{value: value, currency: currency}
}

// Zero returns the zero amount in the given currency.
func Zero(currency Currency) Price {
	return Price{value: decimal.Zero, currency: currency}
}

// Value returns the underlying decimal amount.
func (p Price) Value() decimal.Decimal {
	return p.value
}

// String returns the plain decimal representation without currency.
func (p Price) String() string {
	return p.value.String()
}

// Currency returns the currency the price is denominated in.
func (p Price) Currency() Currency {
	return p.currency
}

// Plus returns p + other. Both prices must share a currency.
func (p Price) Plus(other Price) (Price, error) {
	if err := p.sameCurrency(other); err != nil {
		return Price{}, err
	}
	return Price{value: p.value.Add(other.value), currency: p.currency}, nil
}

// Minus returns p - other. Both prices must share a currency.
func (p Price) Minus(other Price) (Price, error) {
	if err := p.sameCurrency(other); err != nil {
		return Price{}, err
	}
	return Price{value: p.value.Sub(other.value), currency: p.currency}, nil
}

// Times returns the price multiplied by a whole count.
func (p Price) Times(count int) Price {
	return Price{value: p.value.Mul(decimal.NewFromInt(int64(count))), currency: p.currency}
}

// WithoutVat divides the gross amount by (1 + vat/100) and rounds to two
// decimal places.
func (p Price) WithoutVat(vatPercent decimal.Decimal) Price {
	divisor := decimal.NewFromInt(1).Add(vatPercent.Div(decimal.NewFromInt(100)))
	return Price{value: p.value.DivRound(divisor, 2), currency: p.currency}
}

// IsSmallerThan compares decimal values only; currency is ignored.
func (p Price) IsSmallerThan(other Price) bool {
	return p.value.LessThan(other.value)
}

// IsBiggerThan compares decimal values only; currency is ignored.
func (p Price) IsBiggerThan(other Price) bool {
	return p.value.GreaterThan(other.value)
}

// IsZero reports whether the amount equals zero.
func (p Price) IsZero() bool {
	return p.value.IsZero()
}

// Equal reports whether amount and currency are both equal.
func (p Price) Equal(other Price) bool {
	return p.currency == other.currency && p.value.Equal(other.value)
}

// Render formats the amount for display: two decimal places, space as the
// thousands separator, comma as the decimal separator and a trailing ",00"
// trimmed. When withSymbol is set the currency symbol is appended.
func (p Price) Render(withSymbol bool) string {
	fixed := p.value.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	whole := parts[0]
	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(r)
	}
	out := grouped.String()
	if len(parts) == 2 && parts[1] != "00" {
		out += "," + parts[1]
	}
	if neg {
		out = "-" + out
	}
	if withSymbol && p.currency.Symbol != "" {
		out += " " + p.currency.Symbol
	}
	return out
}

func (p Price) sameCurrency(other Price) error {
	if p.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, p.currency.Code, other.currency.Code)
	}
	return nil
}

// Sum adds all prices together. The first price decides the currency; an
// empty slice yields zero in the provided fallback currency.
func Sum(fallback Currency, prices ...Price) (Price, error) {
	total := Zero(fallback)
	for i, p := range prices {
		if i == 0 {
			total = Zero(p.currency)
		}
		var err error
		total, err = total.Plus(p)
		if err != nil {
			return Price{}, err
		}
	}
	return total, nil
}
