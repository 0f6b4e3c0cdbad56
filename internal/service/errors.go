package service

import (
	"errors"
	"fmt"
	"strings"

	"bemyrider/internal/repository"
)

var (
	// ErrUnauthenticated is returned when no valid principal is attached to the call.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when the caller's role or ownership does not allow the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is the sentinel every ValidationError unwraps to.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = repository.ErrNotFound

	// ErrNotFoundOrForbidden hides whether a resource exists when the caller may not see it.
	ErrNotFoundOrForbidden = errors.New("not found or not accessible")

	// ErrInvalidState is returned when a state transition is not allowed from the current state.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrOnboardingIncomplete is returned when the rider cannot receive payments yet.
	ErrOnboardingIncomplete = errors.New("rider payment onboarding incomplete")

	// ErrInvalidSignature is returned when a webhook payload fails verification.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrPartialFailure is returned when an upstream side effect succeeded but local persistence did not.
	ErrPartialFailure = errors.New("partial failure")

	// ErrDuplicateReview is returned when a booking already has a review.
	ErrDuplicateReview = errors.New("booking already reviewed")

	// ErrConflict is returned when the same operation is already running for a resource.
	ErrConflict = errors.New("operation already in progress")

	// ErrPaymentProvider is returned when the payment processor call fails.
	ErrPaymentProvider = errors.New("payment provider error")
)

// ValidationError reports a single client-correctable constraint violation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func missing(fields ...string) error {
	return &ValidationError{Reason: "missing required fields: " + strings.Join(fields, ", ")}
}

// PartialFailureError carries an upstream object that exists without its local record.
type PartialFailureError struct {
	Operation  string
	ExternalID string
	Cause      error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: %s created upstream but not persisted: %v", e.Operation, e.ExternalID, e.Cause)
}

func (e *PartialFailureError) Unwrap() []error {
	return []error{ErrPartialFailure, e.Cause}
}
