// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
	"github.com/mmynk/clawback/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite serializes writers anyway, and per-connection
	// pragmas then apply to every statement.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// CreateTrip persists a new, empty trip.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	key := models.NameKey(trip.Name)
	if key == "" {
		return fmt.Errorf("trip name is required")
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM trips WHERE name_key = ?", key).Scan(&exists)
	if err == nil {
		return fmt.Errorf("trip %q: %w", trip.Name, storage.ErrTripExists)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check trip existence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO trips (name_key, name, base_currency, created_at) VALUES (?, ?, ?, ?)",
		key, trip.Name, string(trip.BaseCurrency), toMillis(trip.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	if err := writeLedger(ctx, tx, key, trip); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTrip retrieves a trip by name, including participants, expenses with
// their splits, and settlements, all in append order.
func (s *SQLiteStore) GetTrip(ctx context.Context, name string) (*models.Trip, error) {
	key := models.NameKey(name)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip := &models.Trip{}
	var base string
	var lastKind, lastID sql.NullString
	var created int64
	err = tx.QueryRowContext(ctx,
		"SELECT name, base_currency, last_entry_kind, last_entry_id, created_at FROM trips WHERE name_key = ?",
		key,
	).Scan(&trip.Name, &base, &lastKind, &lastID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trip %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	trip.BaseCurrency = money.Currency(base)
	trip.CreatedAt = fromMillis(created)
	if lastKind.Valid && lastID.Valid {
		trip.LastEntry = &models.EntryRef{Kind: models.EntryKind(lastKind.String), ID: lastID.String}
	}

	if trip.Participants, err = loadParticipants(ctx, tx, key); err != nil {
		return nil, err
	}
	if trip.Expenses, err = loadExpenses(ctx, tx, key); err != nil {
		return nil, err
	}
	if trip.Settlements, err = loadSettlements(ctx, tx, key); err != nil {
		return nil, err
	}
	return trip, nil
}

// ListTrips returns trip names in creation order.
func (s *SQLiteStore) ListTrips(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM trips ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return names, nil
}

// SaveTrip rewrites the trip's ledger rows and appends audit entries in one
// transaction. A failure leaves the previously stored trip intact.
func (s *SQLiteStore) SaveTrip(ctx context.Context, trip *models.Trip, audit ...models.AuditEntry) error {
	key := models.NameKey(trip.Name)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lastKind, lastID any
	if trip.LastEntry != nil {
		lastKind, lastID = string(trip.LastEntry.Kind), trip.LastEntry.ID
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE trips SET name = ?, base_currency = ?, last_entry_kind = ?, last_entry_id = ? WHERE name_key = ?",
		trip.Name, string(trip.BaseCurrency), lastKind, lastID, key,
	)
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check updated trip: %w", err)
	} else if n == 0 {
		return fmt.Errorf("trip %q: %w", trip.Name, storage.ErrNotFound)
	}

	if err := clearLedger(ctx, tx, key); err != nil {
		return err
	}
	if err := writeLedger(ctx, tx, key, trip); err != nil {
		return err
	}
	for _, e := range audit {
		if err := insertAudit(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func clearLedger(ctx context.Context, q querier, key string) error {
	stmts := []string{
		"DELETE FROM splits WHERE expense_id IN (SELECT id FROM expenses WHERE trip_key = ?)",
		"DELETE FROM expenses WHERE trip_key = ?",
		"DELETE FROM settlements WHERE trip_key = ?",
		"DELETE FROM participants WHERE trip_key = ?",
	}
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt, key); err != nil {
			return fmt.Errorf("failed to clear ledger: %w", err)
		}
	}
	return nil
}

func writeLedger(ctx context.Context, q querier, key string, trip *models.Trip) error {
	for i, name := range trip.Participants {
		_, err := q.ExecContext(ctx,
			"INSERT INTO participants (trip_key, position, name) VALUES (?, ?, ?)",
			key, i, name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	if err := insertExpenses(ctx, q, key, trip.Expenses); err != nil {
		return err
	}
	return insertSettlements(ctx, q, key, trip.Settlements)
}

func loadParticipants(ctx context.Context, q querier, key string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT name FROM participants WHERE trip_key = ? ORDER BY position",
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return names, nil
}
