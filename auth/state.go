package auth

// State is an authenticated session: a ticket plus an optional CSRF
// prevention token. States are copied in and out of the Store; callers
// never hold a live reference into it.
type State struct {
	ticket Ticket
	csrf   *CSRFToken
}

// NewState builds a session state. csrf may be nil when the login response
// did not include a CSRF token.
func NewState(ticket Ticket, csrf *CSRFToken) State {
	if csrf != nil {
		c := *csrf
		csrf = &c
	}
	return State{ticket: ticket, csrf: csrf}
}

// Ticket returns the session ticket.
func (s State) Ticket() Ticket { return s.ticket }

// CSRF returns a copy of the CSRF token, or nil when the session has none.
func (s State) CSRF() *CSRFToken {
	if s.csrf == nil {
		return nil
	}
	c := *s.csrf
	return &c
}
