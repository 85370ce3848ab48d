package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned by arithmetic across different currencies.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// MaxUnits bounds a single amount in minor units. Ledger totals are summed
// in int64, so the bound leaves room for millions of entries at the limit.
const MaxUnits int64 = 10_000_000_000_000

// Amount is an exact decimal value in a currency. It is never a float.
type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency Currency        `json:"currency"`
}

// New builds an Amount.
func New(value decimal.Decimal, c Currency) Amount {
	return Amount{Value: value, Currency: c}
}

// Zero returns a zero amount in c.
func Zero(c Currency) Amount {
	return Amount{Value: decimal.Zero, Currency: c}
}

// MustParse parses a decimal string and panics on error. Intended for tests and constants.
func MustParse(value string, c Currency) Amount {
	return Amount{Value: decimal.RequireFromString(value), Currency: c}
}

// FromMinor builds an Amount from an integer count of minor units.
func FromMinor(units int64, c Currency) Amount {
	return Amount{Value: decimal.New(units, -c.Exponent()), Currency: c}
}

// Minor returns the amount in minor units. ok is false when the value
// has more precision than the currency's minor unit or does not fit in
// an int64.
func (a Amount) Minor() (units int64, ok bool) {
	shifted := a.Value.Shift(a.Currency.Exponent())
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, false
	}
	if !shifted.BigInt().IsInt64() {
		return 0, false
	}
	return shifted.IntPart(), true
}

// TooLarge reports whether |a| exceeds MaxUnits minor units.
func (a Amount) TooLarge() bool {
	return a.Value.Abs().GreaterThan(decimal.New(MaxUnits, -a.Currency.Exponent()))
}

// Add returns a+b. Both operands must share a currency.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, a.Currency, b.Currency)
	}
	return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency}, nil
}

// Sub returns a-b. Both operands must share a currency.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, a.Currency, b.Currency)
	}
	return Amount{Value: a.Value.Sub(b.Value), Currency: a.Currency}, nil
}

// Cmp compares a and b. Both operands must share a currency.
func (a Amount) Cmp(b Amount) (int, error) {
	if a.Currency != b.Currency {
		return 0, fmt.Errorf("%w: %s <> %s", ErrCurrencyMismatch, a.Currency, b.Currency)
	}
	return a.Value.Cmp(b.Value), nil
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return Amount{Value: a.Value.Neg(), Currency: a.Currency}
}

// Abs returns |a|.
func (a Amount) Abs() Amount {
	return Amount{Value: a.Value.Abs(), Currency: a.Currency}
}

func (a Amount) IsZero() bool     { return a.Value.IsZero() }
func (a Amount) IsPositive() bool { return a.Value.IsPositive() }
func (a Amount) IsNegative() bool { return a.Value.IsNegative() }

// Equal reports whether a and b have the same currency and value.
func (a Amount) Equal(b Amount) bool {
	return a.Currency == b.Currency && a.Value.Equal(b.Value)
}

// Convert multiplies by rate into quote, rounding half-up to the quote's minor unit.
func (a Amount) Convert(rate decimal.Decimal, quote Currency) Amount {
	if a.Currency == quote {
		return a
	}
	return Amount{Value: a.Value.Mul(rate).Round(quote.Exponent()), Currency: quote}
}

// String formats the amount with its symbol, e.g. "€40.00" or "¥1200".
func (a Amount) String() string {
	v := a.Value.StringFixed(a.Currency.Exponent())
	if a.Value.IsNegative() {
		return "-" + a.Currency.Symbol() + v[1:]
	}
	return a.Currency.Symbol() + v
}
