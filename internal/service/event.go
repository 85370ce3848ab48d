package service

import (
	"time"

	"github.com/mmynk/clawback/internal/ledger"
	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
	"github.com/mmynk/clawback/internal/parser"
)

// EventKind names the outcome of one handled message.
type EventKind string

const (
	EventProposed    EventKind = "proposed"
	EventCommitted   EventKind = "committed"
	EventCancelled   EventKind = "cancelled"
	EventRejected    EventKind = "rejected"
	EventParseFailed EventKind = "parse_failed"
	EventNoPending   EventKind = "no_pending"
	EventBalances    EventKind = "balances"
	EventSummary     EventKind = "summary"
	EventWho         EventKind = "who"
	EventHelp        EventKind = "help"
)

// Change is the ledger effect of a write command. For undo, Expense or
// Settlement holds the entry being removed.
type Change struct {
	Kind       parser.Kind        `json:"kind"`
	Expense    *models.Expense    `json:"expense,omitempty"`
	Settlement *models.Settlement `json:"settlement,omitempty"`

	// Trip switches or creates a trip.
	Trip    string         `json:"trip,omitempty"`
	Base    money.Currency `json:"base,omitempty"`
	NewTrip bool           `json:"new_trip,omitempty"`
}

// Report is a trip's balances with settlement suggestions. When a rate is
// unavailable Balances is nil and ByCurrency holds one unconverted sheet per
// currency, each with its own suggestions.
type Report struct {
	Trip        string              `json:"trip"`
	Balances    *ledger.Sheet       `json:"balances,omitempty"`
	ByCurrency  []ledger.Sheet      `json:"by_currency,omitempty"`
	Suggestions []ledger.Suggestion `json:"suggestions"`
}

// Event carries everything a template needs to describe what happened.
// Arithmetic is already done; renderers only format.
type Event struct {
	Kind    EventKind   `json:"kind"`
	ChatID  string      `json:"chat_id"`
	Trip    string      `json:"trip,omitempty"`
	Input   string      `json:"input"`
	Command parser.Kind `json:"command,omitempty"`

	Change    *Change       `json:"change,omitempty"`
	ExpiresAt time.Time     `json:"expires_at,omitzero"`
	TTL       time.Duration `json:"ttl,omitempty"`

	Report       *Report         `json:"report,omitempty"`
	Summary      *ledger.Summary `json:"summary,omitempty"`
	Participants []string        `json:"participants,omitempty"`

	// Code is the ledger.DomainError code of a rejection.
	Code string `json:"code,omitempty"`
	// Reason is set when the message did not parse.
	Reason parser.Reason `json:"reason,omitempty"`
	Detail string        `json:"detail,omitempty"`
}
