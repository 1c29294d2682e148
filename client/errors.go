package client

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies client failures. No failure path downgrades or swallows
// its kind; every operation returns exactly one of these.
type Kind int

const (
	// KindAuthentication: credentials were rejected, or a retried request
	// was still unauthorized after a successful refresh.
	KindAuthentication Kind = iota + 1

	// KindConnection: transport failure, unexpected HTTP status, or a
	// response body that could not be decoded.
	KindConnection

	// KindValidation: malformed ticket, CSRF token, configuration, or
	// request shape.
	KindValidation

	// KindSession: persisted-session I/O failure or expiry on load.
	KindSession
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindConnection:
		return "connection"
	case KindValidation:
		return "validation"
	case KindSession:
		return "session"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every client operation.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Op names the failing operation, e.g. "login" or "GET nodes".
	Op string

	// Status is the HTTP status code, when one was received.
	Status int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

func isKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// IsAuthentication reports whether err is an authentication failure.
func IsAuthentication(err error) bool { return isKind(err, KindAuthentication) }

// IsConnection reports whether err is a transport or HTTP-level failure.
func IsConnection(err error) bool { return isKind(err, KindConnection) }

// IsValidation reports whether err is a format or configuration failure.
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsSession reports whether err is a session persistence failure.
func IsSession(err error) bool { return isKind(err, KindSession) }
