package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/clawback/internal/calculator"
	"github.com/mmynk/clawback/internal/fx"
	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
)

// Balance is one participant's net position.
// Positive = is owed money, negative = owes money.
type Balance struct {
	Participant string       `json:"participant"`
	Net         money.Amount `json:"net"`
}

// Sheet holds every participant's balance in one currency, in registration
// order. The balances always sum to zero.
type Sheet struct {
	Currency money.Currency `json:"currency"`
	Balances []Balance      `json:"balances"`

	// Converted is true when amounts from other currencies were folded in.
	Converted bool `json:"converted"`
}

// Suggestion is a proposed payment that moves balances toward zero.
type Suggestion struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Amount money.Amount `json:"amount"`
}

// positions accumulates per-currency net minor units indexed by participant rank.
func positions(trip *models.Trip) map[money.Currency][]int64 {
	n := len(trip.Participants)
	out := make(map[money.Currency][]int64)
	row := func(c money.Currency) []int64 {
		r, ok := out[c]
		if !ok {
			r = make([]int64, n)
			out[c] = r
		}
		return r
	}
	add := func(c money.Currency, name string, units int64) {
		i := trip.Rank(name)
		if i >= n {
			// Unregistered names cannot appear in a valid trip.
			return
		}
		row(c)[i] += units
	}

	for _, e := range trip.Expenses {
		c := e.Amount.Currency
		total, _ := e.Amount.Minor()
		add(c, e.PaidBy, total)
		for _, s := range e.Splits {
			u, _ := s.Amount.Minor()
			add(c, s.Participant, -u)
		}
	}
	for _, s := range trip.Settlements {
		u, _ := s.Amount.Minor()
		add(s.Amount.Currency, s.From, u)
		add(s.Amount.Currency, s.To, -u)
	}
	return out
}

// Balances computes net balances in currency in (the trip base when empty).
// Each original-currency subtotal is converted separately and rounded with
// the largest-remainder method, so the converted balances still sum to zero.
// A failing rate is returned wrapped in fx.ErrRateUnavailable.
func Balances(trip *models.Trip, in money.Currency, rate fx.RateFunc) (*Sheet, error) {
	if in == "" {
		in = trip.BaseCurrency
	}
	if !in.Valid() {
		return nil, reject(ErrInvalidAmount, "unsupported currency %q", in)
	}
	if rate == nil {
		rate = fx.Identity
	}

	n := len(trip.Participants)
	ranks := make([]int, n)
	for i := range ranks {
		ranks[i] = i
	}

	net := make([]int64, n)
	converted := false
	byCurrency := positions(trip)
	for _, c := range money.Currencies {
		units, ok := byCurrency[c]
		if !ok || allZero(units) {
			continue
		}
		if c == in {
			for i, u := range units {
				net[i] += u
			}
			continue
		}

		r, err := rate(c, in)
		if err != nil {
			return nil, fmt.Errorf("%w: converting %s to %s: %v", fx.ErrRateUnavailable, c, in, err)
		}
		values := make([]decimal.Decimal, n)
		for i, u := range units {
			values[i] = decimal.New(u, -c.Exponent()).Mul(r)
		}
		for i, u := range calculator.RoundPreservingSum(values, in.Exponent(), ranks) {
			net[i] += u
		}
		converted = true
	}

	return &Sheet{
		Currency:  in,
		Balances:  sheetRows(trip, net, in),
		Converted: converted,
	}, nil
}

// BalancesByCurrency returns one unconverted sheet per currency in use.
// It is the fallback when no rate is available.
func BalancesByCurrency(trip *models.Trip) []Sheet {
	byCurrency := positions(trip)
	var sheets []Sheet
	for _, c := range money.Currencies {
		units, ok := byCurrency[c]
		if !ok || allZero(units) {
			continue
		}
		sheets = append(sheets, Sheet{Currency: c, Balances: sheetRows(trip, units, c)})
	}
	return sheets
}

func sheetRows(trip *models.Trip, units []int64, c money.Currency) []Balance {
	rows := make([]Balance, len(trip.Participants))
	for i, p := range trip.Participants {
		rows[i] = Balance{Participant: p, Net: money.FromMinor(units[i], c)}
	}
	return rows
}

func allZero(units []int64) bool {
	for _, u := range units {
		if u != 0 {
			return false
		}
	}
	return true
}

// Suggestions matches debtors to creditors on a sheet with the greedy
// largest-vs-largest heuristic. Ties go to the earlier-registered participant.
func Suggestions(sheet *Sheet) []Suggestion {
	if sheet == nil {
		return nil
	}
	ps := make([]calculator.Position, len(sheet.Balances))
	for i, b := range sheet.Balances {
		u, _ := b.Net.Minor()
		ps[i] = calculator.Position{Name: b.Participant, Rank: i, Units: u}
	}
	transfers := calculator.SuggestTransfers(ps)
	out := make([]Suggestion, len(transfers))
	for i, t := range transfers {
		out[i] = Suggestion{From: t.From, To: t.To, Amount: money.FromMinor(t.Units, sheet.Currency)}
	}
	return out
}

// SettlementSuggestions is Balances followed by Suggestions.
func SettlementSuggestions(trip *models.Trip, in money.Currency, rate fx.RateFunc) ([]Suggestion, error) {
	sheet, err := Balances(trip, in, rate)
	if err != nil {
		return nil, err
	}
	return Suggestions(sheet), nil
}
