package models

import (
	"time"

	"github.com/mmynk/clawback/internal/money"
)

// SplitMode records how an expense was divided.
type SplitMode string

const (
	// SplitEqual divides among every trip participant plus the payer.
	SplitEqual SplitMode = "equal"
	// SplitOnly divides equally among a named subset.
	SplitOnly SplitMode = "only"
	// SplitCustom uses explicit per-person amounts.
	SplitCustom SplitMode = "custom"
)

// Expense represents one payment split among participants.
type Expense struct {
	// ID is a ULID, monotonic within a process.
	ID string

	CreatedAt time.Time

	Description string

	// Amount is the total paid.
	Amount money.Amount

	// PaidBy is the registered spelling of the payer.
	PaidBy string

	Mode SplitMode

	// Splits always sum exactly to Amount.
	Splits []Split
}

// Split represents one participant's share of an expense.
type Split struct {
	Participant string
	Amount      money.Amount
}
