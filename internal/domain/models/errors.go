package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across the ledger services.
var (
	// ErrLotNotFound means no produce lot exists for the requested kind and branch.
	ErrLotNotFound = errors.New("produce not found in this branch")

	// ErrCreditSaleNotFound means the referenced credit sale does not exist.
	ErrCreditSaleNotFound = errors.New("credit sale not found")

	// ErrUserNotFound means the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail means a user with the given email already exists.
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrInvalidCredentials covers both unknown email and wrong password so the
	// response does not reveal which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrForbidden means the actor's role does not permit the operation.
	ErrForbidden = errors.New("access denied")

	// ErrAlreadyPaid means a terminal credit sale was targeted by a status update.
	ErrAlreadyPaid = errors.New("credit sale is already paid")

	// ErrStoreUnavailable wraps driver-level failures reaching the store.
	ErrStoreUnavailable = errors.New("ledger store unavailable")

	// ErrInvariantViolation marks the unreachable case of a successful reserve
	// leaving tonnage negative. It is surfaced loudly, never corrected silently.
	ErrInvariantViolation = errors.New("stock invariant violated")
)

// ValidationError collects per-field problems with a request payload.
type ValidationError struct {
	Fields map[string]string
}

// Add records a problem with the named field.
func (v *ValidationError) Add(field, problem string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	v.Fields[field] = problem
}

// HasErrors reports whether any field failed validation.
func (v *ValidationError) HasErrors() bool {
	return len(v.Fields) > 0
}

func (v *ValidationError) Error() string {
	if len(v.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.Fields))
	for field, problem := range v.Fields {
		parts = append(parts, field+" "+problem)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// InsufficientStockError is returned when a reservation does not fit within
// the remaining tonnage of the target lot. Available is the tonnage observed
// when the reservation was evaluated.
type InsufficientStockError struct {
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock, only %dkg available", e.Available)
}
