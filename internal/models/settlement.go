package models

import (
	"time"

	"github.com/mmynk/clawback/internal/money"
)

// Settlement represents a payment between participants to clear debts.
type Settlement struct {
	// ID is a ULID, monotonic within a process.
	ID string

	CreatedAt time.Time

	// From is the participant who paid (debtor settling up).
	From string

	// To is the participant who received payment (creditor being paid).
	To string

	Amount money.Amount

	// Notes is an optional free-text remark.
	Notes string
}

// AuditStatus is the outcome recorded for an audit entry.
type AuditStatus string

const (
	AuditOK      AuditStatus = "ok"
	AuditError   AuditStatus = "error"
	AuditIgnored AuditStatus = "ignored"
	AuditCommit  AuditStatus = "commit"
)

// AuditEntry is one row of the append-only audit log.
type AuditEntry struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	ChatID    string      `json:"chat_id"`
	Trip      string      `json:"trip,omitempty"`
	Input     string      `json:"input"`
	Status    AuditStatus `json:"status"`
	Detail    string      `json:"detail,omitempty"`
}
