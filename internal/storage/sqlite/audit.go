package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/clawback/internal/models"
)

// AppendAudit appends one entry to the audit log.
func (s *SQLiteStore) AppendAudit(ctx context.Context, entry models.AuditEntry) error {
	return insertAudit(ctx, s.db, entry)
}

func insertAudit(ctx context.Context, q querier, entry models.AuditEntry) error {
	// Generate ID if not set
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var detail any
	if entry.Detail != "" {
		detail = entry.Detail
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO audit_log (id, created_at, chat_id, trip, input, status, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, toMillis(entry.CreatedAt), entry.ChatID, entry.Trip, entry.Input, string(entry.Status), detail,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListAudit returns the newest entries first. limit <= 0 returns all of them.
func (s *SQLiteStore) ListAudit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query := "SELECT id, created_at, chat_id, trip, input, status, detail FROM audit_log ORDER BY seq DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var created int64
		var status string
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &created, &e.ChatID, &e.Trip, &e.Input, &status, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.CreatedAt = fromMillis(created)
		e.Status = models.AuditStatus(status)
		if detail.Valid {
			e.Detail = detail.String
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit log: %w", err)
	}
	return entries, nil
}
