package domain

import "errors"

// FieldError is a validation failure naming the offending field. It wraps
// ErrValidation so callers can match with errors.Is.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// NewFieldError builds a FieldError for the given field.
func NewFieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

var (
	ErrValidation        = errors.New("invalid field value")
	ErrDraftIncomplete   = errors.New("draft incomplete")
	ErrDraftOrder        = errors.New("draft setter called out of order")
	ErrDraftConsumed     = errors.New("draft already built")
	ErrInvalidAmount     = errors.New("purchase amount must be positive")
	ErrNotPurchasable    = errors.New("ticket not purchasable")
	ErrInsufficientQuota = errors.New("not enough tickets available")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("ticket not found")
	ErrConflictingState  = errors.New("ticket has sold units")
	ErrWriteConflict     = errors.New("concurrent update detected")
	ErrUnavailable       = errors.New("ticket temporarily unavailable")
)
