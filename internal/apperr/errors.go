// Package apperr defines the structured error taxonomy shared by all
// services: validation, conflict, not-found and consistency failures.
// Handlers and tests branch on Kind and Code, never on message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping and retry policy.
type Kind int

const (
	// Validation covers malformed or out-of-range input, rejected before
	// any write. The caller fixes the input and retries.
	Validation Kind = iota
	// Conflict covers state conflicts: capacity exceeded, duplicates,
	// already-finalized results. Never retried automatically.
	Conflict
	// NotFound covers unknown id references.
	NotFound
	// Consistency covers partial failure during multi-row writes; the
	// only kind that is retried, via idempotent re-submission.
	Consistency
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case Consistency:
		return "consistency"
	}
	return "unknown"
}

// Machine-readable codes carried alongside the kind.
const (
	CodeCapacityExceeded      = "capacity_exceeded"
	CodeDuplicateRegistration = "duplicate_registration"
	CodeTermClosed            = "term_closed"
	CodeAlreadyFinalized      = "already_finalized"
	CodeInvalidDate           = "invalid_date"
	CodeOutOfRange            = "out_of_range"
	CodeNotFound              = "not_found"
	CodeInvalidInput          = "invalid_input"
	CodePartialFanout         = "partial_fanout"
	CodeBadCredentials        = "bad_credentials"
	CodeDuplicateUser         = "duplicate_user"
	CodeDuplicateCourse       = "duplicate_course"
	CodeDuplicateSession      = "duplicate_session"
)

// Error is the structured error carried through service boundaries.
type Error struct {
	Kind  Kind
	Code  string
	Field string // offending field or id, when known
	Msg   string
	Err   error // wrapped cause, optional
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Msg, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a structured error.
func E(kind Kind, code, field, msg string) *Error {
	return &Error{Kind: kind, Code: code, Field: field, Msg: msg}
}

// Wrap attaches a cause to a structured error.
func Wrap(kind Kind, code, field, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Field: field, Msg: msg, Err: cause}
}

// KindOf reports the kind of err, or ok=false for unclassified errors.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// CodeOf returns the machine code of err, or "" for unclassified errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
