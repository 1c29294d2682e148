package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/leeca/go-proxmox/auth"
	"github.com/leeca/go-proxmox/transport"
)

// Client is a Proxmox VE API client. It owns the session store, the rate
// limiter and the connection facts; all methods are safe for concurrent
// use on a shared instance.
type Client struct {
	cfg     Config
	baseURL string

	transport *transport.HTTPTransport
	store     *auth.Store
	limiter   *rate.Limiter
	logger    *slog.Logger

	// refresh coalesces concurrent logins: callers that observe an
	// expired or rejected ticket at the same time share one exchange
	// instead of stampeding the authentication endpoint.
	refresh singleflight.Group

	// initialSession, when set by WithSession, is consumed inside New.
	initialSession io.Reader
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger. The default discards everything.
// Wrap the handler in log.NewRedactingHandler when the output may leave
// the machine.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSession restores a session previously written by SaveSession as part
// of construction. The reader is consumed inside New; a stale or malformed
// session fails construction. Use LoadSession instead when a bad session
// should fall back to a fresh login.
func WithSession(r io.Reader) Option {
	return func(c *Client) {
		c.initialSession = r
	}
}

// WithTransport replaces the HTTP transport, e.g. to pin a custom TLS
// configuration.
func WithTransport(t *transport.HTTPTransport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// New creates a Client from cfg. Unless WithSession restores a saved
// session, the client starts unauthenticated; call Login or LoadSession
// before issuing requests, or let the first request log in on demand.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TicketLifetime <= 0 {
		cfg.TicketLifetime = DefaultTicketLifetime
	}
	if cfg.CSRFLifetime <= 0 {
		cfg.CSRFLifetime = DefaultCSRFLifetime
	}

	c := &Client{
		cfg:     cfg,
		baseURL: cfg.baseURL(),
		store:   auth.NewStore(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if cfg.RateLimit != nil {
		burst := cfg.RateLimit.BurstSize
		if burst <= 0 {
			burst = cfg.RateLimit.RequestsPerSecond
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = transport.New(
			transport.WithTimeout(cfg.Timeout),
			transport.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		)
	}

	if c.initialSession != nil {
		if err := c.LoadSession(c.initialSession); err != nil {
			return nil, err
		}
		c.initialSession = nil
	}

	return c, nil
}

// Login authenticates with the configured credentials and commits the
// resulting session to the store. A failed login leaves the store
// unchanged.
func (c *Client) Login(ctx context.Context) error {
	return c.refreshAuth(ctx)
}

// IsAuthenticated reports whether the client holds a non-expired ticket.
func (c *Client) IsAuthenticated() bool {
	return c.store.Valid(c.cfg.TicketLifetime)
}

// AuthToken returns the current session ticket, if any.
func (c *Client) AuthToken() (auth.Ticket, bool) {
	state, ok := c.store.Load()
	if !ok {
		return auth.Ticket{}, false
	}
	return state.Ticket(), true
}

// CSRFToken returns the current CSRF prevention token, if any.
func (c *Client) CSRFToken() (auth.CSRFToken, bool) {
	state, ok := c.store.Load()
	if !ok {
		return auth.CSRFToken{}, false
	}
	csrf := state.CSRF()
	if csrf == nil {
		return auth.CSRFToken{}, false
	}
	return *csrf, true
}

// IsTicketExpired reports whether the stored ticket has outlived its
// lifetime. An absent ticket counts as expired.
func (c *Client) IsTicketExpired() bool {
	state, ok := c.store.Load()
	if !ok {
		return true
	}
	return state.Ticket().Expired(c.cfg.TicketLifetime)
}

// IsCSRFExpired reports whether the stored CSRF token has outlived its
// lifetime. An absent token counts as expired.
func (c *Client) IsCSRFExpired() bool {
	state, ok := c.store.Load()
	if !ok {
		return true
	}
	csrf := state.CSRF()
	if csrf == nil {
		return true
	}
	return csrf.Expired(c.cfg.CSRFLifetime)
}

// Get performs an authenticated GET request and decodes the JSON response
// into out. Pass nil to discard the response body.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put performs an authenticated PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete performs an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// SaveSession serializes the current session to w so it can be restored by
// LoadSession. Fails with a session error when the client is not
// authenticated.
func (c *Client) SaveSession(w io.Writer) error {
	state, ok := c.store.Load()
	if !ok {
		return &Error{Kind: KindSession, Op: "save session", Err: errors.New("no active session")}
	}
	if err := auth.EncodeSession(w, state); err != nil {
		return &Error{Kind: KindSession, Op: "save session", Err: err}
	}
	return nil
}

// LoadSession restores a persisted session from r. Expiry is evaluated
// against this client's configured lifetimes; a stale session fails to
// load and the store keeps its previous state.
func (c *Client) LoadSession(r io.Reader) error {
	state, err := auth.DecodeSession(r, c.cfg.TicketLifetime, c.cfg.CSRFLifetime)
	if err != nil {
		return &Error{Kind: KindSession, Op: "load session", Err: err}
	}
	c.store.Set(state)
	c.logger.Debug("session restored", "issued_at", state.Ticket().CreatedAt())
	return nil
}

// SaveSessionFile writes the current session to path with 0600 permissions.
func (c *Client) SaveSessionFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return &Error{Kind: KindSession, Op: "save session", Err: err}
	}
	if err := c.SaveSession(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return &Error{Kind: KindSession, Op: "save session", Err: err}
	}
	return nil
}

// LoadSessionFile restores a session previously written by SaveSessionFile.
func (c *Client) LoadSessionFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &Error{Kind: KindSession, Op: "load session", Err: err}
	}
	defer f.Close()
	return c.LoadSession(f)
}

// refreshAuth performs one coalesced login exchange and commits the result.
// Concurrent callers share a single in-flight login; each gets the same
// outcome.
//
// The exchange itself runs detached from the initiating caller's deadline,
// so a caller about to time out cannot fail the login for everyone who
// coalesced onto it. The transport timeout still bounds the exchange, and a
// cancelled caller stops waiting without aborting it.
func (c *Client) refreshAuth(ctx context.Context) error {
	ch := c.refresh.DoChan("login", func() (any, error) {
		state, err := c.login(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store.Set(state)
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return &Error{Kind: KindConnection, Op: "login", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		if res.Shared {
			c.logger.Debug("login shared with concurrent caller")
		}
		return nil
	}
}

func (c *Client) String() string {
	return fmt.Sprintf("proxmox client %s@%s (%s)", c.cfg.Username, c.cfg.Realm, c.baseURL)
}
