package core

import (
	"errors"
	"fmt"
)

// ValidationError reports bad input detected before any store access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a referenced document that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ConflictError reports an operation blocked by the current state, such as
// deleting a category that expenses still reference.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// StoreError wraps a failure of the underlying document store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("Failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Invalid is a shorthand for a *ValidationError.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsDomainError reports whether err is a validation, not-found or conflict
// error, which are surfaced to callers without a store envelope.
func IsDomainError(err error) bool {
	var (
		v *ValidationError
		n *NotFoundError
		c *ConflictError
	)
	return errors.As(err, &v) || errors.As(err, &n) || errors.As(err, &c)
}

// WrapStoreError returns domain errors and existing store errors unchanged
// and wraps anything else in a *StoreError for op.
func WrapStoreError(op string, err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
