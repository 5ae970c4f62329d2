package models

import "fmt"

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports that a referenced id does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AuthorizationError reports that the caller lacks the required role or
// ownership relation for Action.
type AuthorizationError struct {
	Action string
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("not permitted to %s", e.Action)
	}
	return fmt.Sprintf("not permitted to %s: %s", e.Action, e.Reason)
}

// ConflictError reports a duplicate value for a unique field.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q is already registered", e.Field, e.Value)
}

// InvalidTransitionError reports a booking status change that is not an
// edge of the booking state machine.
type InvalidTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking cannot move from %s to %s", e.From, e.To)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
