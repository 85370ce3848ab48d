package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/mmynk/clawback/internal/money"
)

// EntryKind tells which ledger list an EntryRef points into.
type EntryKind string

const (
	EntryExpense    EntryKind = "expense"
	EntrySettlement EntryKind = "settlement"
)

// EntryRef points at the most recent ledger mutation of a trip.
type EntryRef struct {
	Kind EntryKind `json:"kind"`
	ID   string    `json:"id"`
}

// Trip represents a named group ledger.
type Trip struct {
	// Name is the display name. Unique per store, compared with NameKey.
	Name string

	// BaseCurrency is the default currency for balances and bare amounts.
	BaseCurrency money.Currency

	// Participants in registration order. Registration order is the
	// tie-break for settlement suggestions.
	Participants []string

	// Expenses in append order.
	Expenses []Expense

	// Settlements in append order.
	Settlements []Settlement

	// LastEntry is the undoable mutation, nil when nothing can be undone.
	LastEntry *EntryRef

	CreatedAt time.Time
}

// NameKey normalizes a participant or trip name for comparison.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// NewTrip creates an empty trip.
func NewTrip(name string, base money.Currency, now time.Time) *Trip {
	return &Trip{
		Name:         strings.TrimSpace(name),
		BaseCurrency: base,
		CreatedAt:    now,
	}
}

// Participant returns the registered spelling of name.
func (t *Trip) Participant(name string) (string, bool) {
	key := NameKey(name)
	if key == "" {
		return "", false
	}
	for _, p := range t.Participants {
		if NameKey(p) == key {
			return p, true
		}
	}
	return "", false
}

// Register adds name if it is not yet a participant and returns the
// registered spelling. Empty names are not registered.
func (t *Trip) Register(name string) (string, bool) {
	if p, ok := t.Participant(name); ok {
		return p, true
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	t.Participants = append(t.Participants, name)
	return name, true
}

// Rank returns the registration index of a participant, or len(Participants)
// for unknown names.
func (t *Trip) Rank(name string) int {
	key := NameKey(name)
	for i, p := range t.Participants {
		if NameKey(p) == key {
			return i
		}
	}
	return len(t.Participants)
}

// Clone returns a deep copy so a mutation can be applied all-or-nothing.
func (t *Trip) Clone() *Trip {
	c := *t
	c.Participants = append([]string(nil), t.Participants...)
	c.Expenses = make([]Expense, len(t.Expenses))
	for i, e := range t.Expenses {
		e.Splits = append([]Split(nil), e.Splits...)
		c.Expenses[i] = e
	}
	c.Settlements = append([]Settlement(nil), t.Settlements...)
	if t.LastEntry != nil {
		ref := *t.LastEntry
		c.LastEntry = &ref
	}
	return &c
}
