package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the requested record does not exist
var ErrNotFound = errors.New("record not found")

// ErrCaseAlreadyClosed indicates a close attempt on a case that is already
// closed. Closed is terminal; the losing side of a concurrent close sees
// this error too.
var ErrCaseAlreadyClosed = errors.New("case is already closed")

// ErrCaseClosed indicates an edit attempt on a closed case
var ErrCaseClosed = errors.New("case is closed and can no longer be edited")

// ErrThirdPartyLimit indicates the per-case third-party cap was hit
var ErrThirdPartyLimit = errors.New("case already has the maximum number of third parties")

// ConflictError reports a representation conflict: the proposed party pairing
// collides cross-role with a party in an existing active case. It is a
// distinct kind so callers can render it apart from plain validation errors.
type ConflictError struct {
	FileNumber string // file number of the existing case
	PartyName  string // the colliding display name
	Role       string // role that name holds in the existing case: "client" or "opponent"
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("party %q is already %s in active case %s", e.PartyName, e.Role, e.FileNumber)
}

// ValidationError carries per-field validation failures
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
