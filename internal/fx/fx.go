// Package fx supplies currency conversion rates to the ledger.
//
// The ledger only sees a RateFunc. Providers here (static table, Frankfurter
// HTTP API, TTL cache) are collaborators that resolve rates before returning.
package fx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/clawback/internal/money"
)

// ErrRateUnavailable is returned when no rate can be produced.
var ErrRateUnavailable = errors.New("rate unavailable")

// RateFunc returns how many units of quote one unit of base buys.
type RateFunc func(base, quote money.Currency) (decimal.Decimal, error)

// Identity returns 1 for equal currencies and ErrRateUnavailable otherwise.
// It suits single-currency setups with no provider configured.
func Identity(base, quote money.Currency) (decimal.Decimal, error) {
	if base == quote {
		return decimal.NewFromInt(1), nil
	}
	return decimal.Zero, fmt.Errorf("%w: no provider for %s->%s", ErrRateUnavailable, base, quote)
}

// Static serves rates from a fixed table keyed by "BASE/QUOTE".
// Inverse pairs are derived when only one direction is listed.
type Static struct {
	rates map[string]decimal.Decimal
}

// NewStatic parses a table such as {"EUR/ILS": "3.95"}.
func NewStatic(table map[string]string) (*Static, error) {
	s := &Static{rates: make(map[string]decimal.Decimal, len(table))}
	for pair, raw := range table {
		base, quote, err := parsePair(pair)
		if err != nil {
			return nil, err
		}
		r, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", pair, err)
		}
		if !r.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive", pair)
		}
		s.rates[key(base, quote)] = r
	}
	return s, nil
}

// Rate implements RateFunc.
func (s *Static) Rate(base, quote money.Currency) (decimal.Decimal, error) {
	if base == quote {
		return decimal.NewFromInt(1), nil
	}
	if r, ok := s.rates[key(base, quote)]; ok {
		return r, nil
	}
	if r, ok := s.rates[key(quote, base)]; ok {
		return decimal.NewFromInt(1).DivRound(r, 12), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s->%s not in table", ErrRateUnavailable, base, quote)
}

func parsePair(pair string) (money.Currency, money.Currency, error) {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid currency pair %q, want BASE/QUOTE", pair)
	}
	base := money.Currency(strings.ToUpper(strings.TrimSpace(parts[0])))
	quote := money.Currency(strings.ToUpper(strings.TrimSpace(parts[1])))
	if !base.Valid() || !quote.Valid() {
		return "", "", fmt.Errorf("unsupported currency pair %q", pair)
	}
	return base, quote, nil
}

func key(base, quote money.Currency) string {
	return string(base) + "/" + string(quote)
}
