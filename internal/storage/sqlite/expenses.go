package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
)

// insertExpenses writes a trip's expenses and their splits in append order.
func insertExpenses(ctx context.Context, q querier, key string, expenses []models.Expense) error {
	for i, e := range expenses {
		_, err := q.ExecContext(ctx,
			`INSERT INTO expenses (id, trip_key, position, description, amount, currency, paid_by, mode, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, key, i, e.Description, e.Amount.Value, string(e.Amount.Currency), e.PaidBy, string(e.Mode), toMillis(e.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for j, sp := range e.Splits {
			_, err := q.ExecContext(ctx,
				"INSERT INTO splits (expense_id, position, participant, amount) VALUES (?, ?, ?, ?)",
				e.ID, j, sp.Participant, sp.Amount.Value,
			)
			if err != nil {
				return fmt.Errorf("failed to insert split: %w", err)
			}
		}
	}
	return nil
}

// loadExpenses retrieves a trip's expenses with their splits. Splits are
// read in a second query after the expense rows are closed.
func loadExpenses(ctx context.Context, q querier, key string) ([]models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, description, amount, currency, paid_by, mode, created_at
		 FROM expenses WHERE trip_key = ? ORDER BY position`,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []models.Expense
	index := make(map[string]int)
	for rows.Next() {
		var e models.Expense
		var value decimal.Decimal
		var currency, mode string
		var created int64

		if err := rows.Scan(&e.ID, &e.Description, &value, &currency, &e.PaidBy, &mode, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}

		e.Amount = money.New(value, money.Currency(currency))
		e.Mode = models.SplitMode(mode)
		e.CreatedAt = fromMillis(created)
		index[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	if len(expenses) == 0 {
		return nil, nil
	}

	splitRows, err := q.QueryContext(ctx,
		`SELECT s.expense_id, s.participant, s.amount
		 FROM splits s JOIN expenses e ON e.id = s.expense_id
		 WHERE e.trip_key = ? ORDER BY e.position, s.position`,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var expenseID, participant string
		var value decimal.Decimal
		if err := splitRows.Scan(&expenseID, &participant, &value); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		i, ok := index[expenseID]
		if !ok {
			continue
		}
		e := &expenses[i]
		e.Splits = append(e.Splits, models.Split{
			Participant: participant,
			Amount:      money.New(value, e.Amount.Currency),
		})
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return expenses, nil
}
