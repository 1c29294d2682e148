package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/leeca/go-proxmox/auth"
	"github.com/leeca/go-proxmox/transport"
)

// loginPath is the fixed ticket-issuance endpoint.
const loginPath = "/api2/json/access/ticket"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Realm    string `json:"realm"`
}

type loginResponse struct {
	Data struct {
		Ticket    string `json:"ticket"`
		CSRFToken string `json:"CSRFPreventionToken"`
	} `json:"data"`
}

// login performs the credential-to-ticket exchange. It never touches the
// session store; committing the result is the caller's job, so a failed or
// cancelled login can never leave partial state behind.
func (c *Client) login(ctx context.Context) (auth.State, error) {
	const op = "login"

	payload, err := json.Marshal(loginRequest{
		Username: c.cfg.Username,
		Password: c.cfg.Password,
		Realm:    c.cfg.Realm,
	})
	if err != nil {
		return auth.State{}, &Error{Kind: KindValidation, Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return auth.State{}, &Error{Kind: KindConnection, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", transport.ContentTypeJSON)
	req.Header.Set("Accept", transport.ContentTypeJSON)

	c.logger.Debug("authenticating", "url", c.baseURL+loginPath, "username", c.cfg.Username, "realm", c.cfg.Realm)

	resp, err := c.transport.Do(req)
	if err != nil {
		return auth.State{}, &Error{Kind: KindConnection, Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return c.parseLoginResponse(resp)
	case http.StatusUnauthorized:
		return auth.State{}, &Error{
			Kind: KindAuthentication, Op: op, Status: resp.StatusCode,
			Err: errors.New("invalid credentials"),
		}
	case http.StatusBadRequest:
		return auth.State{}, &Error{
			Kind: KindValidation, Op: op, Status: resp.StatusCode,
			Err: errors.New("server rejected the login request format"),
		}
	case http.StatusNotFound:
		return auth.State{}, &Error{
			Kind: KindConnection, Op: op, Status: resp.StatusCode,
			Err: errors.New("login endpoint not found"),
		}
	case http.StatusServiceUnavailable:
		return auth.State{}, &Error{
			Kind: KindConnection, Op: op, Status: resp.StatusCode,
			Err: errors.New("service unavailable"),
		}
	default:
		return auth.State{}, &Error{
			Kind: KindConnection, Op: op, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected response status %d", resp.StatusCode),
		}
	}
}

// parseLoginResponse decodes a 200 login body and validates the issued
// tokens. Any parse or format failure is a validation error; the server
// handed back something that is not a usable session.
func (c *Client) parseLoginResponse(resp *http.Response) (auth.State, error) {
	const op = "login"

	body, err := transport.ReadAll(resp.Body)
	if err != nil {
		return auth.State{}, &Error{Kind: KindConnection, Op: op, Err: err}
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return auth.State{}, &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf("parse login response: %w", err)}
	}

	ticket, err := auth.ParseTicket(lr.Data.Ticket)
	if err != nil {
		return auth.State{}, &Error{Kind: KindValidation, Op: op, Err: err}
	}

	// The CSRF token is optional in the login response.
	var csrf *auth.CSRFToken
	if lr.Data.CSRFToken != "" {
		tok, err := auth.ParseCSRFToken(lr.Data.CSRFToken)
		if err != nil {
			return auth.State{}, &Error{Kind: KindValidation, Op: op, Err: err}
		}
		csrf = &tok
	}

	c.logger.Info("authenticated", "username", c.cfg.Username, "realm", c.cfg.Realm)
	return auth.NewState(ticket, csrf), nil
}
