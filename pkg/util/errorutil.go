package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/ticket-inventory/internal/domain"
)

// DomainError standardizes application errors at the transport boundary.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// sentinelMapping pairs each domain sentinel with its transport code.
var sentinelMapping = []struct {
	target  error
	code    string
	message string
	status  int
}{
	{domain.ErrDraftIncomplete, "DRAFT_INCOMPLETE", "not all required fields are set", http.StatusBadRequest},
	{domain.ErrDraftOrder, "DRAFT_OUT_OF_ORDER", "draft fields must be set in order", http.StatusBadRequest},
	{domain.ErrDraftConsumed, "DRAFT_CONSUMED", "draft already built", http.StatusConflict},
	{domain.ErrInvalidAmount, "INVALID_AMOUNT", "purchase amount must be positive", http.StatusBadRequest},
	{domain.ErrNotPurchasable, "NOT_PURCHASABLE", "ticket is not available for purchase", http.StatusConflict},
	{domain.ErrInsufficientQuota, "INSUFFICIENT_QUOTA", "not enough tickets available", http.StatusConflict},
	{domain.ErrInvalidTransition, "INVALID_TRANSITION", "status transition not allowed", http.StatusConflict},
	{domain.ErrNotFound, "NOT_FOUND", "ticket not found", http.StatusNotFound},
	{domain.ErrConflictingState, "CONFLICTING_STATE", "ticket has sold units", http.StatusConflict},
	{domain.ErrUnavailable, "UNAVAILABLE", "ticket temporarily unavailable, retry later", http.StatusServiceUnavailable},
}

// ToDomainError converts any error into a DomainError, mapping the domain
// sentinels to their transport codes.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		return &DomainError{
			Code:       "VALIDATION_FAILED",
			Message:    fieldErr.Error(),
			HTTPStatus: http.StatusBadRequest,
			Details:    map[string]any{"field": fieldErr.Field},
			Err:        err,
		}
	}
	if errors.Is(err, domain.ErrValidation) {
		return &DomainError{
			Code:       "VALIDATION_FAILED",
			Message:    err.Error(),
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	}

	for _, m := range sentinelMapping {
		if errors.Is(err, m.target) {
			return &DomainError{Code: m.code, Message: m.message, HTTPStatus: m.status, Err: err}
		}
	}

	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
