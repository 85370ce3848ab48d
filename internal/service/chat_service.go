// Package service implements the chat command handler: it parses messages,
// answers read commands immediately and runs write commands through a
// propose, confirm and commit cycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/clawback/internal/fx"
	"github.com/mmynk/clawback/internal/ledger"
	"github.com/mmynk/clawback/internal/metrics"
	"github.com/mmynk/clawback/internal/mirror"
	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
	"github.com/mmynk/clawback/internal/parser"
	"github.com/mmynk/clawback/internal/pending"
	"github.com/mmynk/clawback/internal/storage"
)

// ChatService handles messages for any number of chats.
type ChatService struct {
	store       storage.Store
	pending     *pending.Store
	parser      *parser.Parser
	rate        fx.RateFunc
	mirror      mirror.Mirror
	metrics     *metrics.Metrics
	now         func() time.Time
	ttl         time.Duration
	defaultBase money.Currency
	trips       keyLocks
	chats       keyLocks
}

// Option configures a ChatService.
type Option func(*ChatService)

// WithParser sets the parser, e.g. one with custom wake words.
func WithParser(p *parser.Parser) Option {
	return func(s *ChatService) { s.parser = p }
}

// WithRate sets the currency conversion function.
func WithRate(rate fx.RateFunc) Option {
	return func(s *ChatService) { s.rate = rate }
}

// WithMirror sets where committed changes are forwarded.
func WithMirror(m mirror.Mirror) Option {
	return func(s *ChatService) { s.mirror = m }
}

// WithMetrics sets the counters to update.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ChatService) { s.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ChatService) { s.now = now }
}

// WithTTL sets how long a proposal can be confirmed.
func WithTTL(ttl time.Duration) Option {
	return func(s *ChatService) { s.ttl = ttl }
}

// WithDefaultBase sets the base currency of trips created without one.
func WithDefaultBase(c money.Currency) Option {
	return func(s *ChatService) { s.defaultBase = c }
}

// NewChatService creates a ChatService on store.
func NewChatService(store storage.Store, opts ...Option) *ChatService {
	s := &ChatService{
		store:       store,
		parser:      parser.New(),
		rate:        fx.Identity,
		mirror:      mirror.Nop{},
		now:         time.Now,
		ttl:         pending.DefaultTTL,
		defaultBase: money.ILS,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.pending = pending.New(s.ttl, pending.WithClock(s.now))
	return s
}

// Parser returns the parser used for incoming messages.
func (s *ChatService) Parser() *parser.Parser { return s.parser }

// HandleMessage is the single entry point for chat text. User mistakes come
// back as EventRejected or EventParseFailed; a non-nil error means a
// storage fault. Messages of one chat are handled one at a time so the
// pending slot in memory and in storage change together.
func (s *ChatService) HandleMessage(ctx context.Context, chatID, text string) (*Event, error) {
	unlock := s.chats.lock(chatID)
	defer unlock()

	active, err := s.store.ActiveTrip(ctx, chatID)
	if err != nil {
		slog.Error("Failed to load active trip", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to load active trip: %w", err)
	}
	ev := &Event{ChatID: chatID, Trip: active, Input: text}

	switch s.parser.Reply(text) {
	case parser.ReplyYes:
		return s.confirm(ctx, ev)
	case parser.ReplyNo:
		return s.cancel(ctx, ev)
	}

	cmd, err := s.parser.Parse(text)
	if err != nil {
		var pe *parser.ParseError
		if !errors.As(err, &pe) {
			return nil, err
		}
		slog.Debug("Message did not parse", "chat_id", chatID, "reason", pe.Reason)
		s.metrics.ParseFailures.WithLabelValues(string(pe.Reason)).Inc()
		ev.Kind = EventParseFailed
		ev.Reason = pe.Reason
		ev.Detail = pe.Detail
		return s.record(ctx, ev, models.AuditError, string(pe.Reason)), nil
	}

	ev.Command = cmd.Kind()
	s.metrics.Commands.WithLabelValues(string(cmd.Kind())).Inc()
	if cmd.Mutates() {
		return s.propose(ctx, ev, cmd)
	}
	return s.read(ctx, ev, cmd)
}

func (s *ChatService) read(ctx context.Context, ev *Event, cmd parser.Command) (*Event, error) {
	if cmd.Kind() == parser.KindHelp {
		ev.Kind = EventHelp
		return s.record(ctx, ev, models.AuditOK, ""), nil
	}
	if ev.Trip == "" {
		return s.reject(ctx, ev, ledger.ErrNoActiveTrip)
	}
	trip, err := s.loadTrip(ctx, ev.Trip)
	if err != nil {
		return s.reject(ctx, ev, err)
	}

	switch c := cmd.(type) {
	case *parser.Balances:
		ev.Kind = EventBalances
		ev.Report = s.report(ctx, trip, c.In)
	case *parser.Summary:
		ev.Kind = EventSummary
		ev.Summary = s.summarize(ctx, trip)
		ev.Report = s.report(ctx, trip, "")
	case *parser.Who:
		ev.Kind = EventWho
		ev.Participants = append([]string(nil), trip.Participants...)
	default:
		return nil, fmt.Errorf("unhandled read command %s", cmd.Kind())
	}
	return s.record(ctx, ev, models.AuditOK, ""), nil
}

func (s *ChatService) propose(ctx context.Context, ev *Event, cmd parser.Command) (*Event, error) {
	change, err := s.plan(ctx, ev.Trip, cmd)
	if err != nil {
		return s.reject(ctx, ev, err)
	}

	p := s.pending.Propose(ev.ChatID, ev.Trip, cmd)
	s.metrics.Pending.Set(float64(s.pending.Len()))
	if err := s.store.SavePending(ctx, p); err != nil {
		s.pending.Discard(ev.ChatID)
		slog.Error("Failed to persist proposal", "chat_id", ev.ChatID, "error", err)
		return nil, fmt.Errorf("failed to persist proposal: %w", err)
	}
	slog.Info("Command proposed",
		"chat_id", ev.ChatID,
		"trip", ev.Trip,
		"command", cmd.Kind(),
		"expires_at", p.ExpiresAt,
	)

	ev.Kind = EventProposed
	ev.Change = change
	ev.ExpiresAt = p.ExpiresAt
	ev.TTL = s.pending.TTL()
	return s.record(ctx, ev, models.AuditOK, "proposed "+p.ID), nil
}

// plan computes the change a write command would make, without making it.
func (s *ChatService) plan(ctx context.Context, active string, cmd parser.Command) (*Change, error) {
	if c, ok := cmd.(*parser.Trip); ok {
		return s.planTrip(ctx, c)
	}
	if active == "" {
		return nil, ledger.ErrNoActiveTrip
	}
	trip, err := s.loadTrip(ctx, active)
	if err != nil {
		return nil, err
	}
	return apply(trip.Clone(), cmd, s.now())
}

func (s *ChatService) planTrip(ctx context.Context, c *parser.Trip) (*Change, error) {
	name := strings.TrimSpace(c.Name)
	trip, err := s.store.GetTrip(ctx, name)
	switch {
	case err == nil:
		return &Change{Kind: parser.KindTrip, Trip: trip.Name, Base: trip.BaseCurrency}, nil
	case errors.Is(err, storage.ErrNotFound):
		base := c.Base
		if base == "" {
			base = s.defaultBase
		}
		return &Change{Kind: parser.KindTrip, Trip: name, Base: base, NewTrip: true}, nil
	default:
		return nil, fmt.Errorf("failed to look up trip: %w", err)
	}
}

// take resolves the chat's pending slot for a yes or no. A non-nil Event
// means the message is fully handled.
func (s *ChatService) take(ctx context.Context, ev *Event) (pending.Proposal, *Event, error) {
	p, err := s.pending.Take(ev.ChatID)
	s.metrics.Pending.Set(float64(s.pending.Len()))
	if errors.Is(err, pending.ErrNoPending) {
		s.metrics.Confirmations.WithLabelValues("none").Inc()
		ev.Kind = EventNoPending
		return p, s.record(ctx, ev, models.AuditIgnored, "nothing pending"), nil
	}

	if derr := s.store.DeletePending(ctx, ev.ChatID); derr != nil {
		slog.Error("Failed to delete proposal", "chat_id", ev.ChatID, "error", derr)
		return p, nil, fmt.Errorf("failed to delete proposal: %w", derr)
	}
	ev.Command = p.Command.Kind()

	if err != nil {
		slog.Info("Confirmation expired", "chat_id", ev.ChatID, "proposal_id", p.ID, "expired_at", p.ExpiresAt)
		s.metrics.Confirmations.WithLabelValues("expired").Inc()
		done, rerr := s.reject(ctx, ev, err)
		return p, done, rerr
	}
	return p, nil, nil
}

func (s *ChatService) cancel(ctx context.Context, ev *Event) (*Event, error) {
	p, done, err := s.take(ctx, ev)
	if done != nil || err != nil {
		return done, err
	}
	slog.Info("Command cancelled", "chat_id", ev.ChatID, "proposal_id", p.ID)
	s.metrics.Confirmations.WithLabelValues("cancelled").Inc()
	ev.Kind = EventCancelled
	return s.record(ctx, ev, models.AuditOK, "cancelled "+p.ID), nil
}

func (s *ChatService) confirm(ctx context.Context, ev *Event) (*Event, error) {
	p, done, err := s.take(ctx, ev)
	if done != nil || err != nil {
		return done, err
	}
	if c, ok := p.Command.(*parser.Trip); ok {
		return s.commitTrip(ctx, ev, p, c)
	}

	unlock := s.trips.lock(models.NameKey(p.Trip))
	defer unlock()

	trip, err := s.loadTrip(ctx, p.Trip)
	if err != nil {
		return s.reject(ctx, ev, err)
	}
	now := s.now()
	change, err := apply(trip, p.Command, now)
	if err != nil {
		return s.reject(ctx, ev, err)
	}

	entry := models.AuditEntry{
		CreatedAt: now,
		ChatID:    ev.ChatID,
		Trip:      trip.Name,
		Input:     p.Command.Input(),
		Status:    models.AuditCommit,
		Detail:    describe(change),
	}
	if err := s.store.SaveTrip(ctx, trip, entry); err != nil {
		slog.Error("Failed to save trip", "chat_id", ev.ChatID, "trip", trip.Name, "error", err)
		return nil, fmt.Errorf("failed to commit %s: %w", p.Command.Kind(), err)
	}
	s.committed(ctx, ev, p, change)

	ev.Trip = trip.Name
	ev.Report = s.report(ctx, trip, "")
	return s.record(ctx, ev, models.AuditOK, "confirmed "+p.ID), nil
}

func (s *ChatService) commitTrip(ctx context.Context, ev *Event, p pending.Proposal, c *parser.Trip) (*Event, error) {
	unlock := s.trips.lock(models.NameKey(c.Name))
	defer unlock()

	change, err := s.planTrip(ctx, c)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if change.NewTrip {
		err := s.store.CreateTrip(ctx, models.NewTrip(change.Trip, change.Base, now))
		if errors.Is(err, storage.ErrTripExists) {
			change.NewTrip = false
		} else if err != nil {
			slog.Error("Failed to create trip", "chat_id", ev.ChatID, "trip", change.Trip, "error", err)
			return nil, fmt.Errorf("failed to create trip: %w", err)
		}
	}
	if err := s.store.SetActiveTrip(ctx, ev.ChatID, change.Trip); err != nil {
		slog.Error("Failed to switch trip", "chat_id", ev.ChatID, "trip", change.Trip, "error", err)
		return nil, fmt.Errorf("failed to switch trip: %w", err)
	}

	trip, err := s.loadTrip(ctx, change.Trip)
	if err != nil {
		return nil, err
	}
	change.Trip = trip.Name
	change.Base = trip.BaseCurrency

	err = s.store.AppendAudit(ctx, models.AuditEntry{
		CreatedAt: now,
		ChatID:    ev.ChatID,
		Trip:      trip.Name,
		Input:     c.Input(),
		Status:    models.AuditCommit,
		Detail:    describe(change),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}
	s.committed(ctx, ev, p, change)

	ev.Trip = trip.Name
	ev.Report = s.report(ctx, trip, "")
	return s.record(ctx, ev, models.AuditOK, "confirmed "+p.ID), nil
}

func (s *ChatService) committed(ctx context.Context, ev *Event, p pending.Proposal, change *Change) {
	slog.Info("Command committed",
		"chat_id", ev.ChatID,
		"trip", change.tripOr(p.Trip),
		"command", change.Kind,
		"proposal_id", p.ID,
	)
	s.metrics.Confirmations.WithLabelValues("committed").Inc()
	ev.Kind = EventCommitted
	ev.Change = change
	s.publish(ctx, ev.ChatID, change.tripOr(p.Trip), change)
}

func (c *Change) tripOr(fallback string) string {
	if c.Trip != "" {
		return c.Trip
	}
	return fallback
}

// publish forwards a commit to the mirror. Failures are logged only; the
// local store is authoritative.
func (s *ChatService) publish(ctx context.Context, chatID, trip string, change *Change) {
	ev := mirror.TripEvent{
		Trip:       trip,
		ChatID:     chatID,
		At:         s.now(),
		Expense:    change.Expense,
		Settlement: change.Settlement,
	}
	switch change.Kind {
	case parser.KindAdd:
		ev.Action = mirror.ActionExpenseAdded
	case parser.KindSettle:
		ev.Action = mirror.ActionSettlementAdded
	case parser.KindUndo:
		ev.Action = mirror.ActionEntryRemoved
	case parser.KindTrip:
		if !change.NewTrip {
			return
		}
		ev.Action = mirror.ActionTripCreated
	}
	if err := s.mirror.Publish(ctx, ev); err != nil {
		slog.Warn("Mirror publish failed", "chat_id", chatID, "trip", trip, "action", ev.Action, "error", err)
	}
}

// apply performs a write command on trip. On error trip is unchanged.
func apply(trip *models.Trip, cmd parser.Command, now time.Time) (*Change, error) {
	switch c := cmd.(type) {
	case *parser.AddExpense:
		exp, err := ledger.AddExpense(trip, expenseInput(trip, c), now)
		if err != nil {
			return nil, err
		}
		return &Change{Kind: parser.KindAdd, Expense: &exp}, nil
	case *parser.Settle:
		st, err := ledger.AddSettlement(trip, c.From, c.To, amountIn(trip, c.Amount, c.Currency), "", now)
		if err != nil {
			return nil, err
		}
		return &Change{Kind: parser.KindSettle, Settlement: &st}, nil
	case *parser.Undo:
		entry, err := ledger.Undo(trip)
		if err != nil {
			return nil, err
		}
		return &Change{Kind: parser.KindUndo, Expense: entry.Expense, Settlement: entry.Settlement}, nil
	}
	return nil, fmt.Errorf("unhandled write command %s", cmd.Kind())
}

func expenseInput(trip *models.Trip, c *parser.AddExpense) ledger.ExpenseInput {
	in := ledger.ExpenseInput{
		Description: c.Description,
		Amount:      amountIn(trip, c.Amount, c.Currency),
		PaidBy:      c.PaidBy,
		Mode:        c.Mode,
		Among:       c.Among,
	}
	for _, sh := range c.Custom {
		in.Custom = append(in.Custom, ledger.Share{Name: sh.Name, Value: sh.Amount})
	}
	return in
}

// amountIn reads a bare number as the trip's base currency.
func amountIn(trip *models.Trip, v decimal.Decimal, c money.Currency) money.Amount {
	if c == "" {
		c = trip.BaseCurrency
	}
	return money.New(v, c)
}

func describe(c *Change) string {
	switch {
	case c.Kind == parser.KindTrip && c.NewTrip:
		return fmt.Sprintf("create trip %s (%s)", c.Trip, c.Base)
	case c.Kind == parser.KindTrip:
		return "switch to trip " + c.Trip
	case c.Kind == parser.KindUndo && c.Expense != nil:
		return "undo expense " + c.Expense.ID
	case c.Kind == parser.KindUndo && c.Settlement != nil:
		return "undo settlement " + c.Settlement.ID
	case c.Expense != nil:
		return fmt.Sprintf("expense %s %s paid by %s", c.Expense.ID, c.Expense.Amount, c.Expense.PaidBy)
	case c.Settlement != nil:
		return fmt.Sprintf("settlement %s %s %s to %s", c.Settlement.ID, c.Settlement.Amount, c.Settlement.From, c.Settlement.To)
	}
	return string(c.Kind)
}

func (s *ChatService) reject(ctx context.Context, ev *Event, err error) (*Event, error) {
	de, ok := ledger.IsDomainError(err)
	if !ok {
		return nil, err
	}
	slog.Info("Command rejected", "chat_id", ev.ChatID, "trip", ev.Trip, "code", de.Code, "error", err)
	s.metrics.Rejections.WithLabelValues(de.Code).Inc()
	ev.Kind = EventRejected
	ev.Code = de.Code
	ev.Detail = err.Error()
	return s.record(ctx, ev, models.AuditError, err.Error()), nil
}

// record appends the raw-input audit entry for a handled message. A failure
// is logged and does not fail the request.
func (s *ChatService) record(ctx context.Context, ev *Event, status models.AuditStatus, detail string) *Event {
	s.metrics.Messages.WithLabelValues(string(status)).Inc()
	err := s.store.AppendAudit(ctx, models.AuditEntry{
		CreatedAt: s.now(),
		ChatID:    ev.ChatID,
		Trip:      ev.Trip,
		Input:     ev.Input,
		Status:    status,
		Detail:    detail,
	})
	if err != nil {
		slog.Error("Failed to append audit entry", "chat_id", ev.ChatID, "error", err)
	}
	return ev
}

func (s *ChatService) loadTrip(ctx context.Context, name string) (*models.Trip, error) {
	trip, err := s.store.GetTrip(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: trip %q no longer exists", ledger.ErrNoActiveTrip, name)
	}
	if err != nil {
		slog.Error("Failed to load trip", "trip", name, "error", err)
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	return trip, nil
}

// keyLocks hands out one mutex per key. Trip locks are always taken
// while holding the chat lock, never the other way round.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *keyLocks) lock(key string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	m, ok := l.m[key]
	if !ok {
		m = &sync.Mutex{}
		l.m[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
