package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/parser"
	"github.com/mmynk/clawback/internal/pending"
	"github.com/mmynk/clawback/internal/storage"
)

// SetActiveTrip points a chat at an existing trip.
func (s *SQLiteStore) SetActiveTrip(ctx context.Context, chatID, tripName string) error {
	key := models.NameKey(tripName)

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM trips WHERE name_key = ?", key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("trip %q: %w", tripName, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check trip existence: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (chat_id, trip_key, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET trip_key = excluded.trip_key, updated_at = excluded.updated_at`,
		chatID, key, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to set active trip: %w", err)
	}
	return nil
}

// ActiveTrip returns the display name of the chat's active trip, or "" if none.
func (s *SQLiteStore) ActiveTrip(ctx context.Context, chatID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT t.name FROM chat_sessions c JOIN trips t ON t.name_key = c.trip_key
		 WHERE c.chat_id = ?`,
		chatID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get active trip: %w", err)
	}
	return name, nil
}

// SavePending stores a chat's proposal, replacing any earlier one.
func (s *SQLiteStore) SavePending(ctx context.Context, p pending.Proposal) error {
	cmd, err := parser.Marshal(p.Command)
	if err != nil {
		return fmt.Errorf("failed to encode pending command: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending (chat_id, id, trip, command, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET id = excluded.id, trip = excluded.trip, command = excluded.command,
		 created_at = excluded.created_at, expires_at = excluded.expires_at`,
		p.ChatID, p.ID, p.Trip, string(cmd), toMillis(p.CreatedAt), toMillis(p.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save pending: %w", err)
	}
	return nil
}

// DeletePending removes a chat's proposal.
func (s *SQLiteStore) DeletePending(ctx context.Context, chatID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pending WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("failed to delete pending: %w", err)
	}
	return nil
}

// ListPending returns every stored proposal ordered by chat.
func (s *SQLiteStore) ListPending(ctx context.Context) ([]pending.Proposal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT chat_id, id, trip, command, created_at, expires_at FROM pending ORDER BY chat_id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending: %w", err)
	}
	defer rows.Close()

	var proposals []pending.Proposal
	for rows.Next() {
		var p pending.Proposal
		var cmd string
		var created, expires int64
		if err := rows.Scan(&p.ChatID, &p.ID, &p.Trip, &cmd, &created, &expires); err != nil {
			return nil, fmt.Errorf("failed to scan pending: %w", err)
		}

		p.Command, err = parser.Unmarshal([]byte(cmd))
		if err != nil {
			return nil, fmt.Errorf("failed to decode pending command for chat %s: %w", p.ChatID, err)
		}
		p.CreatedAt = fromMillis(created)
		p.ExpiresAt = fromMillis(expires)
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending: %w", err)
	}
	return proposals, nil
}
