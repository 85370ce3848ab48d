// Package ledger applies expenses, settlements and undo to a trip and derives
// balances and settlement suggestions. It never performs I/O.
package ledger

import (
	"errors"
	"fmt"
)

// DomainError is a recoverable user mistake. Code is stable for templating.
type DomainError struct {
	Code string
}

func (e *DomainError) Error() string { return e.Code }

var (
	ErrInvalidAmount       = &DomainError{Code: "invalid-amount"}
	ErrInvalidSplit        = &DomainError{Code: "invalid-split"}
	ErrInvalidSettlement   = &DomainError{Code: "invalid-settlement"}
	ErrNothingToUndo       = &DomainError{Code: "nothing-to-undo"}
	ErrNoActiveTrip        = &DomainError{Code: "no-active-trip"}
	ErrConfirmationExpired = &DomainError{Code: "confirmation-expired"}
	ErrUnknownParticipant  = &DomainError{Code: "unknown-participant"}
)

// IsDomainError reports whether err wraps a DomainError and returns it.
func IsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func reject(base *DomainError, format string, args ...any) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}
