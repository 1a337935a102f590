// Package errors defines typed errors with categories for user-friendly reporting.
// Each error carries a machine-readable Kind next to a human message so callers
// can branch on the category (errors.As + Kind) while still printing something
// sensible. Underlying causes are kept and exposed through Unwrap.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// PlaceholderClient indicates a call made through a client built without
	// a usable endpoint or key.
	PlaceholderClient Kind = "placeholder_client"
	// SessionStore indicates the persisted session could not be read or written.
	SessionStore Kind = "session_store"
	// InvalidInput indicates a request rejected locally before reaching the service.
	InvalidInput Kind = "invalid_input"
	// ConfigOverride indicates the persisted endpoint override is unusable.
	ConfigOverride Kind = "config_override"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// IsKind reports whether err (or anything it wraps) is an *E of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
