package common

import (
	"errors"
	"fmt"
)

// Business logic errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")

	// ErrNotificationFailed marks a side-effect message that could not be delivered
	// while the primary operation succeeded.
	ErrNotificationFailed = errors.New("notification failed")
)

// ValidationError reports malformed input on a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NotFoundError reports an operation referencing an unknown id
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError reports a request that would duplicate an existing record
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// InvalidStateError reports a transition attempted from a terminal state
type InvalidStateError struct {
	ID     string
	Status string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is already %s", e.ID, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// NotificationError wraps a failed follow-up message for a committed change
type NotificationError struct {
	Subject string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Subject, e.Err)
}

func (e *NotificationError) Is(target error) bool {
	return target == ErrNotificationFailed
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
