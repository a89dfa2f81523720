package service

import (
	"errors"
	"fmt"
)

var (
	// ErrItemNotFound is returned when a stock item id does not resolve.
	ErrItemNotFound = errors.New("stock item not found")
	// ErrStationNotFound is returned when a disposition references an unknown station.
	ErrStationNotFound = errors.New("station not found")
)

// ValidationError reports a missing or invalid field on a ledger request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError is returned when a disposal asks for more than is
// available. It carries the available quantity for display.
type InsufficientStockError struct {
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, only %d available", e.Requested, e.Available)
}
