// Package models defines the core domain models for Clawback.
//
// # Models
//
//   - Trip: a named, currency-scoped group ledger; owns its participants,
//     expenses and settlements
//   - Expense: one payment split across participants
//   - Split: one participant's share of an expense
//   - Settlement: a payment from one participant to another
//   - EntryRef: pointer to the most recent ledger mutation, used by undo
//   - AuditEntry: a row in the append-only audit log
//
// Participants are identified by name strings. Names keep the spelling and
// script they were first registered with; lookups use a normalized key
// (trimmed, case-folded), see NameKey.
//
// Expenses and settlements are append-only. The only removal is the single
// step undo of the entry referenced by Trip.LastEntry.
package models
