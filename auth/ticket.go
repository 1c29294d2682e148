package auth

import (
	"strings"
	"time"
)

const (
	// CookieName is the cookie that carries the ticket on authenticated
	// requests.
	CookieName = "PVEAuthCookie"

	ticketPrefix = "PVE"

	// maxTicketLen bounds the accepted ticket size. Real tickets are a few
	// hundred bytes; anything beyond this is not a ticket.
	maxTicketLen = 1024
)

// Ticket is the primary session credential issued by the authentication
// endpoint, an opaque signed string of the form
// PVE:USER@REALM:ID::SIGNATURE. The value is immutable once parsed.
type Ticket struct {
	value     string
	createdAt time.Time
}

// ParseTicket validates a raw ticket string and stamps it with the current
// time as its creation time.
func ParseTicket(value string) (Ticket, error) {
	if err := validateTicket(value); err != nil {
		return Ticket{}, err
	}
	return Ticket{value: value, createdAt: time.Now()}, nil
}

// newTicketAt restores a ticket with a known creation time (session load).
func newTicketAt(value string, createdAt time.Time) (Ticket, error) {
	if err := validateTicket(value); err != nil {
		return Ticket{}, err
	}
	return Ticket{value: value, createdAt: createdAt}, nil
}

func validateTicket(value string) error {
	if value == "" {
		return &ValidationError{Field: "ticket", Message: "ticket cannot be empty"}
	}
	if len(value) > maxTicketLen {
		return &ValidationError{Field: "ticket", Message: "ticket exceeds maximum length"}
	}
	parts := strings.Split(value, ":")
	if len(parts) < 5 || parts[0] != ticketPrefix {
		return &ValidationError{
			Field:   "ticket",
			Message: `must start with "PVE:" and have at least 5 colon-separated parts`,
		}
	}
	user, realm, ok := strings.Cut(parts[1], "@")
	if !ok || user == "" || realm == "" {
		return &ValidationError{Field: "ticket", Message: "second part must be in user@realm form"}
	}
	return nil
}

// Value returns the raw ticket string.
func (t Ticket) Value() string { return t.value }

// CreatedAt returns the time the ticket was issued or restored.
func (t Ticket) CreatedAt() time.Time { return t.createdAt }

// IsZero reports whether the ticket is the zero value.
func (t Ticket) IsZero() bool { return t.value == "" }

// Expired reports whether the ticket is older than lifetime. If the clock
// has moved backwards the elapsed time cannot be trusted and the ticket is
// treated as expired.
func (t Ticket) Expired(lifetime time.Duration) bool {
	elapsed := time.Since(t.createdAt)
	if elapsed < 0 {
		return true
	}
	return elapsed > lifetime
}

// CookieValue renders the ticket in Cookie header form:
// PVEAuthCookie=<ticket>.
func (t Ticket) CookieValue() string {
	return CookieName + "=" + t.value
}
