// Package errs defines the error kinds shared across the commander core:
// type parsing, codec decoding, registry lookups, stream operations, and
// guest/sandbox failures. The core never retries; every fallible operation
// returns one of these, wrapped with call-site context.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a commander error. It is not itself an error type: wrap it
// with New or Wrap to produce one.
type Kind int

const (
	// TypeParse: unparseable type grammar.
	TypeParse Kind = iota
	// TypeMismatch: value kind does not match declared Type.
	TypeMismatch
	// CodecDecode: binary blob malformed or truncated.
	CodecDecode
	// NotFound: registry lookup of an absent id; tree child/parent absent.
	NotFound
	// InvalidOperation: pop on empty list, duplicate node id, etc.
	InvalidOperation
	// Destroyed: observer read a stream that has been destroyed.
	Destroyed
	// GuestFailed: guest entry point returned an error or the sandbox trapped.
	GuestFailed
	// Cancelled: observer was cancelled. Never surfaced to the guest.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case TypeParse:
		return "TypeParse"
	case TypeMismatch:
		return "TypeMismatch"
	case CodecDecode:
		return "CodecDecode"
	case NotFound:
		return "NotFound"
	case InvalidOperation:
		return "InvalidOperation"
	case Destroyed:
		return "Destroyed"
	case GuestFailed:
		return "GuestFailed"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error carries a Kind alongside a human-readable message and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error of the given kind with no wrapped cause.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf is like New but formats the message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind, preserving cause as the
// unwrap target.
func Wrap(kind Kind, cause error, message string) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Of reports whether err (or something it wraps) is a commander error of
// the given kind.
func Of(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
