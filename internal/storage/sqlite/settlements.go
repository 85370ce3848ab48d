package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
)

// insertSettlements writes a trip's settlements in append order.
func insertSettlements(ctx context.Context, q querier, key string, settlements []models.Settlement) error {
	for i, s := range settlements {
		var notes any
		if s.Notes != "" {
			notes = s.Notes
		}

		_, err := q.ExecContext(ctx,
			`INSERT INTO settlements (id, trip_key, position, from_name, to_name, amount, currency, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, key, i, s.From, s.To, s.Amount.Value, string(s.Amount.Currency), notes, toMillis(s.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
	}
	return nil
}

// loadSettlements retrieves all settlements for a trip in append order.
func loadSettlements(ctx context.Context, q querier, key string) ([]models.Settlement, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, from_name, to_name, amount, currency, notes, created_at
		 FROM settlements WHERE trip_key = ? ORDER BY position`,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		var s models.Settlement
		var value decimal.Decimal
		var currency string
		var notes sql.NullString
		var created int64

		if err := rows.Scan(&s.ID, &s.From, &s.To, &value, &currency, &notes, &created); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}

		s.Amount = money.New(value, money.Currency(currency))
		s.CreatedAt = fromMillis(created)
		if notes.Valid {
			s.Notes = notes.String
		}
		settlements = append(settlements, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
