package auth

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// sessionFile is the on-disk session shape. Creation timestamps are stored
// as integer seconds since the Unix epoch.
type sessionFile struct {
	Ticket          string `json:"ticket"`
	TicketCreatedAt int64  `json:"ticket_created_at"`
	CSRFToken       string `json:"csrf_token,omitempty"`
	CSRFCreatedAt   int64  `json:"csrf_created_at,omitempty"`
}

// EncodeSession writes the session state to w as JSON.
func EncodeSession(w io.Writer, state State) error {
	f := sessionFile{
		Ticket:          state.ticket.value,
		TicketCreatedAt: state.ticket.createdAt.Unix(),
	}
	if state.csrf != nil {
		f.CSRFToken = state.csrf.value
		f.CSRFCreatedAt = state.csrf.createdAt.Unix()
	}
	if err := json.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return nil
}

// DecodeSession reads a persisted session from r, re-validates the token
// formats, and evaluates expiry against the caller's configured lifetimes,
// not anything embedded in the stream. A stale ticket or CSRF token fails
// with ErrSessionExpired: restoring an expired session must be loud rather
// than silently producing an unauthenticated client.
func DecodeSession(r io.Reader, ticketLifetime, csrfLifetime time.Duration) (State, error) {
	var f sessionFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return State{}, fmt.Errorf("decode session: %w", err)
	}

	ticket, err := newTicketAt(f.Ticket, time.Unix(f.TicketCreatedAt, 0))
	if err != nil {
		return State{}, fmt.Errorf("decode session: %w", err)
	}
	if ticket.Expired(ticketLifetime) {
		return State{}, fmt.Errorf("%w: ticket issued at %s", ErrSessionExpired, ticket.createdAt.UTC().Format(time.RFC3339))
	}

	var csrf *CSRFToken
	if f.CSRFToken != "" {
		tok, err := newCSRFTokenAt(f.CSRFToken, time.Unix(f.CSRFCreatedAt, 0))
		if err != nil {
			return State{}, fmt.Errorf("decode session: %w", err)
		}
		if tok.Expired(csrfLifetime) {
			return State{}, fmt.Errorf("%w: CSRF token issued at %s", ErrSessionExpired, tok.createdAt.UTC().Format(time.RFC3339))
		}
		csrf = &tok
	}

	return State{ticket: ticket, csrf: csrf}, nil
}
