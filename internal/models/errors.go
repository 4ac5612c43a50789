package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation            = errors.New("validation error")
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrAlreadyConfirmed      = errors.New("booking already confirmed")
	ErrInvalidState          = errors.New("invalid booking state")
	ErrSignatureMismatch     = errors.New("payment signature mismatch")
	ErrAmountMismatch        = errors.New("payment amount mismatch")
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")
	ErrReconciliationNeeded  = errors.New("payment captured but booking needs reconciliation")
)

// ReconciliationError is returned when a verified payment could not be matched
// with seat inventory. It unwraps to ErrReconciliationNeeded.
type ReconciliationError struct {
	BookingID string
	Reason    string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("booking %s: %s: %s", e.BookingID, ErrReconciliationNeeded.Error(), e.Reason)
}

func (e *ReconciliationError) Unwrap() error {
	return ErrReconciliationNeeded
}
