package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrOutOfStock indicates a requested quantity cannot be satisfied
	// by the known stock level, and no partial add was performed.
	ErrOutOfStock = errors.New("out of stock")
	// ErrDuplicateSubmission indicates an order placement was attempted
	// while a previous one for the same checkout was still in flight.
	ErrDuplicateSubmission = errors.New("duplicate submission")
	// ErrInvalidToken indicates a session token that is unknown or expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidTransition indicates a checkout or order status transition
	// that is not permitted from the current state.
	ErrInvalidTransition = errors.New("invalid transition")
)

// ValidationError reports missing or malformed input fields by name.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing fields: %s", strings.Join(e.Fields, ", "))
}

// StockConflictError carries the per-line verdicts of a failed stock check
// so the caller can surface itemized reasons.
type StockConflictError struct {
	Verdicts []StockVerdict
}

func (e *StockConflictError) Error() string {
	parts := make([]string, 0, len(e.Verdicts))
	for _, v := range e.Verdicts {
		if v.OK {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s/%s: %s (available %d)", v.ProductID, v.Size, v.Reason, v.Available))
	}
	return "stock conflict: " + strings.Join(parts, "; ")
}
