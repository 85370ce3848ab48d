package ledger

import (
	"fmt"

	"github.com/mmynk/clawback/internal/fx"
	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
)

// PersonTotal is what one participant paid and consumed, per currency.
type PersonTotal struct {
	Participant string         `json:"participant"`
	Paid        []money.Amount `json:"paid"`
	Share       []money.Amount `json:"share"`
}

// Summary is a read-only overview of a trip.
type Summary struct {
	Trip         string         `json:"trip"`
	BaseCurrency money.Currency `json:"base_currency"`
	Participants []string       `json:"participants"`
	Expenses     int            `json:"expenses"`
	Settlements  int            `json:"settlements"`

	// Spent is total expense amount per original currency.
	Spent []money.Amount `json:"spent"`

	// Total is Spent converted to the base currency. Nil when a rate failed.
	Total *money.Amount `json:"total,omitempty"`

	People []PersonTotal `json:"people"`
}

// Summarize builds a Summary. The only error is a failed rate lookup, in
// which case the returned Summary is complete except for Total.
func Summarize(trip *models.Trip, rate fx.RateFunc) (*Summary, error) {
	if rate == nil {
		rate = fx.Identity
	}
	n := len(trip.Participants)
	spent := make(map[money.Currency]int64)
	paid := make([]map[money.Currency]int64, n)
	share := make([]map[money.Currency]int64, n)
	for i := 0; i < n; i++ {
		paid[i] = make(map[money.Currency]int64)
		share[i] = make(map[money.Currency]int64)
	}

	for _, e := range trip.Expenses {
		c := e.Amount.Currency
		total, _ := e.Amount.Minor()
		spent[c] += total
		if i := trip.Rank(e.PaidBy); i < n {
			paid[i][c] += total
		}
		for _, s := range e.Splits {
			u, _ := s.Amount.Minor()
			if i := trip.Rank(s.Participant); i < n {
				share[i][c] += u
			}
		}
	}

	sum := &Summary{
		Trip:         trip.Name,
		BaseCurrency: trip.BaseCurrency,
		Participants: append([]string(nil), trip.Participants...),
		Expenses:     len(trip.Expenses),
		Settlements:  len(trip.Settlements),
		Spent:        amounts(spent),
		People:       make([]PersonTotal, n),
	}
	for i, p := range trip.Participants {
		sum.People[i] = PersonTotal{Participant: p, Paid: amounts(paid[i]), Share: amounts(share[i])}
	}

	total := money.Zero(trip.BaseCurrency)
	for _, a := range sum.Spent {
		r, err := rate(a.Currency, trip.BaseCurrency)
		if err != nil {
			return sum, fmt.Errorf("%w: converting %s to %s: %v", fx.ErrRateUnavailable, a.Currency, trip.BaseCurrency, err)
		}
		total, _ = total.Add(a.Convert(r, trip.BaseCurrency))
	}
	sum.Total = &total
	return sum, nil
}

// amounts lists non-zero entries in currency order.
func amounts(units map[money.Currency]int64) []money.Amount {
	var out []money.Amount
	for _, c := range money.Currencies {
		if u := units[c]; u != 0 {
			out = append(out, money.FromMinor(u, c))
		}
	}
	return out
}
