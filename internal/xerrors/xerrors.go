// Package xerrors implements the error taxonomy shared across the cozo core.
//
// Every error the core returns across a session boundary carries a Kind so
// that script-level callers (cozo.go) can render {error_kind, message, span?}
// without needing to type-switch on concrete Go types.
package xerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the error taxonomy from spec.md §7.
type Kind string

const (
	KindParse           Kind = "ParseError"
	KindType             Kind = "TypeError"
	KindSchema           Kind = "SchemaError"
	KindConstraint       Kind = "ConstraintError"
	KindStratification   Kind = "StratificationError"
	KindUnboundVariable  Kind = "UnboundVariable"
	KindKilled           Kind = "Killed"
	KindStorage          Kind = "StorageError"
)

// Span locates an error in the originating source text, when known.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Error is the carrier type for every taxonomy member. Cause, when set, is
// the underlying error (often from the KV engine) wrapped via pkg/errors so
// a stack trace survives to the log line that finally reports it.
type Error struct {
	Kind    Kind
	Message string
	Span    *Span
	Cause   error
}

func (e *Error) Error() string {
	if e.Span != nil {
		return fmt.Sprintf("%s: %s (at %d..%d)", e.Kind, e.Message, e.Span.Start, e.Span.End)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no span and no cause.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At attaches a span to a freshly built Error.
func At(kind Kind, span Span, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Span: &span}
}

// Wrap tags an arbitrary underlying error (typically from the KV engine)
// with a taxonomy Kind, preserving it as Cause via pkg/errors so %+v prints
// a stack trace.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: errors.WithStack(cause)}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}

// JSON is the §7 user-visible rendering: {error_kind, message, span?}.
type JSON struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
	Span      *Span  `json:"span,omitempty"`
}

// Render converts any error into the JSON taxonomy shape, defaulting
// unclassified errors to StorageError since they almost always originate
// from the opaque KV engine.
func Render(err error) JSON {
	var e *Error
	if as, ok := err.(*Error); ok {
		e = as
	} else {
		e = &Error{Kind: KindStorage, Message: err.Error()}
	}
	return JSON{ErrorKind: string(e.Kind), Message: e.Message, Span: e.Span}
}
