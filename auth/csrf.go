package auth

import (
	"strings"
	"time"
)

const (
	// CSRFHeader is the request header that carries the CSRF prevention
	// token alongside the ticket cookie.
	CSRFHeader = "CSRFPreventionToken"

	csrfIDLen   = 8
	maxCSRFLen  = 512
	base64Extra = "+/="
)

// CSRFToken is the anti-forgery value issued next to the ticket, an opaque
// string of the form TOKENID:VALUE where TOKENID is 8 hex digits. A login
// response may omit it.
type CSRFToken struct {
	value     string
	createdAt time.Time
}

// ParseCSRFToken validates a raw CSRF token string and stamps it with the
// current time as its creation time.
func ParseCSRFToken(value string) (CSRFToken, error) {
	if err := validateCSRFToken(value); err != nil {
		return CSRFToken{}, err
	}
	return CSRFToken{value: value, createdAt: time.Now()}, nil
}

func newCSRFTokenAt(value string, createdAt time.Time) (CSRFToken, error) {
	if err := validateCSRFToken(value); err != nil {
		return CSRFToken{}, err
	}
	return CSRFToken{value: value, createdAt: createdAt}, nil
}

func validateCSRFToken(value string) error {
	if value == "" {
		return &ValidationError{Field: "csrf_token", Message: "CSRF token cannot be empty"}
	}
	if len(value) > maxCSRFLen {
		return &ValidationError{Field: "csrf_token", Message: "CSRF token exceeds maximum length"}
	}
	id, val, ok := strings.Cut(value, ":")
	if !ok || strings.Contains(val, ":") {
		return &ValidationError{Field: "csrf_token", Message: "must be in TOKENID:VALUE form"}
	}
	if len(id) != csrfIDLen || !isHex(id) {
		return &ValidationError{Field: "csrf_token", Message: "token ID must be 8 hexadecimal characters"}
	}
	for _, c := range val {
		if !isBase64Char(c) {
			return &ValidationError{Field: "csrf_token", Message: "token value contains invalid characters"}
		}
	}
	return nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func isBase64Char(c rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	default:
		return strings.ContainsRune(base64Extra, c)
	}
}

// Value returns the raw token string, as sent in the CSRFPreventionToken
// header.
func (t CSRFToken) Value() string { return t.value }

// CreatedAt returns the time the token was issued or restored.
func (t CSRFToken) CreatedAt() time.Time { return t.createdAt }

// Expired reports whether the token is older than lifetime, failing safe
// (expired) when the clock has moved backwards.
func (t CSRFToken) Expired(lifetime time.Duration) bool {
	elapsed := time.Since(t.createdAt)
	if elapsed < 0 {
		return true
	}
	return elapsed > lifetime
}
