package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/clawback/internal/ledger"
	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
)

// Balances returns a trip's balances in currency in (the trip base when
// empty). An unknown trip is a ledger.ErrNoActiveTrip domain error.
func (s *ChatService) Balances(ctx context.Context, tripName string, in money.Currency) (*Report, error) {
	if in != "" && !in.Valid() {
		return nil, fmt.Errorf("%w: unsupported currency %q", ledger.ErrInvalidAmount, in)
	}
	trip, err := s.loadTrip(ctx, tripName)
	if err != nil {
		return nil, err
	}
	return s.report(ctx, trip, in), nil
}

// Summary returns a trip overview.
func (s *ChatService) Summary(ctx context.Context, tripName string) (*ledger.Summary, error) {
	trip, err := s.loadTrip(ctx, tripName)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, trip), nil
}

// Who returns a trip's participants in registration order.
func (s *ChatService) Who(ctx context.Context, tripName string) ([]string, error) {
	trip, err := s.loadTrip(ctx, tripName)
	if err != nil {
		return nil, err
	}
	return trip.Participants, nil
}

// Trips returns every trip name in creation order.
func (s *ChatService) Trips(ctx context.Context) ([]string, error) {
	names, err := s.store.ListTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return names, nil
}

// Audit returns the newest audit entries first, at most limit (all when
// limit <= 0).
func (s *ChatService) Audit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	entries, err := s.store.ListAudit(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	return entries, nil
}

// Restore loads stored proposals into memory, e.g. after a restart.
func (s *ChatService) Restore(ctx context.Context) (int, error) {
	proposals, err := s.store.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to restore proposals: %w", err)
	}
	s.pending.Restore(proposals)
	s.metrics.Pending.Set(float64(s.pending.Len()))
	return len(proposals), nil
}

// Prune drops expired proposals from memory and storage and returns the
// affected chat IDs. It is housekeeping only: expired proposals can never
// be confirmed either way.
func (s *ChatService) Prune(ctx context.Context) ([]string, error) {
	removed := s.pending.Prune()
	s.metrics.Pending.Set(float64(s.pending.Len()))
	for _, chatID := range removed {
		if err := s.prunePending(ctx, chatID); err != nil {
			return removed, fmt.Errorf("failed to prune proposal for chat %s: %w", chatID, err)
		}
	}
	if len(removed) > 0 {
		slog.Info("Pruned expired proposals", "count", len(removed))
	}
	return removed, nil
}

// prunePending deletes the stored proposal unless the chat proposed again
// after the in-memory prune.
func (s *ChatService) prunePending(ctx context.Context, chatID string) error {
	unlock := s.chats.lock(chatID)
	defer unlock()
	if _, live := s.pending.Peek(chatID); live {
		return nil
	}
	return s.store.DeletePending(ctx, chatID)
}

// report computes balances with suggestions. When a rate is unavailable it
// falls back to one unconverted sheet per currency.
func (s *ChatService) report(ctx context.Context, trip *models.Trip, in money.Currency) *Report {
	r := &Report{Trip: trip.Name}
	sheet, err := ledger.Balances(trip, in, s.rate)
	if err == nil {
		r.Balances = sheet
		r.Suggestions = ledger.Suggestions(sheet)
		return r
	}

	slog.WarnContext(ctx, "Conversion failed, reporting per currency", "trip", trip.Name, "currency", in, "error", err)
	s.metrics.FXFallbacks.Inc()
	r.ByCurrency = ledger.BalancesByCurrency(trip)
	for i := range r.ByCurrency {
		r.Suggestions = append(r.Suggestions, ledger.Suggestions(&r.ByCurrency[i])...)
	}
	return r
}

func (s *ChatService) summarize(ctx context.Context, trip *models.Trip) *ledger.Summary {
	sum, err := ledger.Summarize(trip, s.rate)
	if err != nil {
		slog.WarnContext(ctx, "Summary total unavailable", "trip", trip.Name, "error", err)
		s.metrics.FXFallbacks.Inc()
	}
	return sum
}
