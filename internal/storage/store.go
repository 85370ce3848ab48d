// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/pending"
)

var (
	// ErrNotFound is returned when a trip does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTripExists is returned when creating a trip whose name is taken.
	ErrTripExists = errors.New("trip already exists")
)

// Store defines the persistence operations the chat service needs.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateTrip persists a new, empty trip. Names are unique
	// case-insensitively; a duplicate returns ErrTripExists.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip loads a trip with its full ledger by name (case-insensitive).
	// Returns ErrNotFound if the trip does not exist.
	GetTrip(ctx context.Context, name string) (*models.Trip, error)

	// ListTrips returns trip names in creation order.
	ListTrips(ctx context.Context) ([]string, error)

	// SaveTrip replaces the stored ledger of an existing trip and appends
	// the audit entries, all in one transaction. Either everything is
	// written or nothing is.
	SaveTrip(ctx context.Context, trip *models.Trip, audit ...models.AuditEntry) error

	// SetActiveTrip points a chat at a trip.
	SetActiveTrip(ctx context.Context, chatID, tripName string) error

	// ActiveTrip returns the chat's active trip name, or "" if none.
	ActiveTrip(ctx context.Context, chatID string) (string, error)

	// SavePending stores the chat's proposal, replacing any earlier one.
	SavePending(ctx context.Context, p pending.Proposal) error

	// DeletePending removes the chat's proposal. Missing rows are not an error.
	DeletePending(ctx context.Context, chatID string) error

	// ListPending returns every stored proposal.
	ListPending(ctx context.Context) ([]pending.Proposal, error)

	// AppendAudit appends one audit entry.
	AppendAudit(ctx context.Context, entry models.AuditEntry) error

	// ListAudit returns the newest entries first, at most limit (all when limit <= 0).
	ListAudit(ctx context.Context, limit int) ([]models.AuditEntry, error)

	// Close releases any resources held by the store.
	Close() error
}
