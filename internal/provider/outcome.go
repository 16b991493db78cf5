// Package provider holds what the three vendor clients share: the closed
// error taxonomy, the Outcome result type, the failure classifier, and the
// Caller that performs one paced, time-bounded JSON request.
//
// Every client operation terminates in exactly one of a typed success value
// or one ErrorKind plus a message that is safe to show a caller.
package provider

import (
	"fmt"
	"strings"
)

// ErrorKind is the vendor-independent failure taxonomy.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindConnectionFailed
	KindUnauthorized
	KindNotFound
	KindRateLimited
	KindInvalidArgument
	KindProviderError
	KindMalformedResponse
)

var kindNames = map[ErrorKind]string{
	KindUnknown:           "unknown",
	KindTimeout:           "timeout",
	KindConnectionFailed:  "connection_failed",
	KindUnauthorized:      "unauthorized",
	KindNotFound:          "not_found",
	KindRateLimited:       "rate_limited",
	KindInvalidArgument:   "invalid_argument",
	KindProviderError:     "provider_error",
	KindMalformedResponse: "malformed_response",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the kind as its snake_case name.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a snake_case kind name. Unrecognised names decode
// to KindUnknown.
func (k *ErrorKind) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for kind, s := range kindNames {
		if s == name {
			*k = kind
			return nil
		}
	}
	*k = KindUnknown
	return nil
}

// Error is a classified provider failure.
type Error struct {
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
	Provider string    `json:"provider,omitempty"`
	Status   int       `json:"status,omitempty"` // HTTP status when the vendor answered
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return e.Message
}

// Errorf builds an *Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument builds a local validation failure.
func InvalidArgument(format string, args ...any) *Error {
	return Errorf(KindInvalidArgument, format, args...)
}

// ─── Outcome ──────────────────────────────────────────────────────────────────

// Outcome is the uniform result of a provider call: either a value of T or
// a classified *Error, never both.
type Outcome[T any] struct {
	value T
	err   *Error
}

// Success wraps v as a successful outcome.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Failure wraps err as a failed outcome. A nil err is recorded as
// KindUnknown so a failed outcome always carries a kind.
func Failure[T any](err *Error) Outcome[T] {
	if err == nil {
		err = Errorf(KindUnknown, "unknown failure")
	}
	return Outcome[T]{err: err}
}

// OK reports whether the outcome holds a value.
func (o Outcome[T]) OK() bool { return o.err == nil }

// Value returns the success value (the zero T on failure).
func (o Outcome[T]) Value() T { return o.value }

// Err returns the failure, or nil on success.
func (o Outcome[T]) Err() *Error { return o.err }

// Get unpacks the outcome into Go's (value, error) convention.
func (o Outcome[T]) Get() (T, error) {
	if o.err != nil {
		return o.value, o.err
	}
	return o.value, nil
}
