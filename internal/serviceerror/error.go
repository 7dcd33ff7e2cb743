// Package serviceerror defines the typed error taxonomy shared by the DAO
// layer and the consent core service. Every failure surfaced by the engine
// maps to exactly one Kind; callers branch on the kind, never on SQL text
// or driver error types.
package serviceerror

import (
	"errors"
	"fmt"
)

// Kind classifies a service error.
type Kind string

const (
	// KindValidation indicates a required input is missing, malformed, or
	// violates a pre-persistence invariant. Never reaches the DAO.
	KindValidation Kind = "validation_error"
	// KindConflict indicates the requested transition is illegal given the
	// current persisted state, including a lost concurrent race.
	KindConflict Kind = "conflict_error"
	// KindNotFound indicates a referenced consent, authorization or mapping
	// does not exist.
	KindNotFound Kind = "not_found_error"
	// KindPersistence indicates an underlying connection or statement
	// failure. Always causes rollback.
	KindPersistence Kind = "persistence_error"
	// KindUnsupportedDriver indicates the live database driver matched no
	// known dialect. Fatal at startup.
	KindUnsupportedDriver Kind = "unsupported_driver_error"
)

// Error is the concrete error type carried across the DAO boundary.
type Error struct {
	Kind     Kind
	Op       string // logical operation, e.g. "dao.InsertConsent"
	Resource string // entity kind, e.g. "consent"
	ID       string // entity identifier when known
	Message  string
	Err      error // wrapped cause, nil for pure validation failures
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && e.ID != "":
		return fmt.Sprintf("%s: %s [%s %s]: %s", e.Kind, e.Op, e.Resource, e.ID, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error for an illegal state transition.
func Conflict(resource, id, message string) *Error {
	return &Error{Kind: KindConflict, Resource: resource, ID: id, Message: message}
}

// NotFound creates a not-found error.
func NotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource, ID: id, Message: resource + " not found"}
}

// Persistence wraps an underlying storage failure with operation context.
func Persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

// PersistenceWithID wraps a storage failure with operation and entity context.
func PersistenceWithID(op, resource, id string, err error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Resource: resource, ID: id, Err: err}
}

// UnsupportedDriver creates the fatal dialect-selection error.
func UnsupportedDriver(driverID string) *Error {
	return &Error{
		Kind:    KindUnsupportedDriver,
		Message: fmt.Sprintf("no supported database dialect matches driver %q", driverID),
	}
}

// kindOf extracts the Kind from any error in the chain, or "".
func kindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return kindOf(err) == KindConflict }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsPersistence reports whether err is a persistence error.
func IsPersistence(err error) bool { return kindOf(err) == KindPersistence }

// IsUnsupportedDriver reports whether err is an unsupported-driver error.
func IsUnsupportedDriver(err error) bool { return kindOf(err) == KindUnsupportedDriver }
