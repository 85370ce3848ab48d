// Package mirror forwards committed ledger changes to an external copy of
// the ledger. Mirrors are best effort: the local store is authoritative and
// a mirror error never undoes a commit.
package mirror

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/clawback/internal/models"
)

// Action names what changed.
type Action string

const (
	ActionExpenseAdded    Action = "expense_added"
	ActionSettlementAdded Action = "settlement_added"
	ActionEntryRemoved    Action = "entry_removed"
	ActionTripCreated     Action = "trip_created"
)

// TripEvent is one committed change.
type TripEvent struct {
	Action     Action
	Trip       string
	ChatID     string
	At         time.Time
	Expense    *models.Expense
	Settlement *models.Settlement
}

// Mirror receives committed trip events.
type Mirror interface {
	Publish(ctx context.Context, ev TripEvent) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, TripEvent) error { return nil }

// Log writes events to a slog logger.
type Log struct {
	Logger *slog.Logger
}

// NewLog creates a Log mirror on logger (slog.Default when nil).
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{Logger: logger}
}

func (l *Log) Publish(ctx context.Context, ev TripEvent) error {
	attrs := []any{"action", ev.Action, "trip", ev.Trip, "chat_id", ev.ChatID}
	switch {
	case ev.Expense != nil:
		attrs = append(attrs, "entry_id", ev.Expense.ID, "amount", ev.Expense.Amount.String(), "paid_by", ev.Expense.PaidBy)
	case ev.Settlement != nil:
		attrs = append(attrs, "entry_id", ev.Settlement.ID, "amount", ev.Settlement.Amount.String(),
			"from", ev.Settlement.From, "to", ev.Settlement.To)
	}
	l.Logger.InfoContext(ctx, "Ledger mirrored", attrs...)
	return nil
}

// Multi fans out to several mirrors and returns the first error after
// publishing to all of them.
type Multi []Mirror

func (m Multi) Publish(ctx context.Context, ev TripEvent) error {
	var first error
	for _, mr := range m {
		if err := mr.Publish(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
