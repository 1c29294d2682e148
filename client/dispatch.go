package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/leeca/go-proxmox/auth"
	"github.com/leeca/go-proxmox/transport"
)

// apiPrefix is prepended to every resource path.
const apiPrefix = "/api2/json/"

// maxBodyExcerpt caps how much of an error response body is carried in the
// returned error.
const maxBodyExcerpt = 256

// do executes one authenticated API call:
//
//	ensure ticket -> rate gate -> send -> on 401, refresh once and resend once
//
// The retry is a bounded second attempt, never a loop. Retrying POST, PUT
// and DELETE after a 401 assumes the rejected attempt never reached the
// server's business logic; the dispatcher does not verify this.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + strings.TrimPrefix(path, "/")

	if !c.store.Valid(c.cfg.TicketLifetime) {
		if err := c.refreshAuth(ctx); err != nil {
			return err
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &Error{Kind: KindConnection, Op: op, Err: err}
		}
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf("encode request body: %w", err)}
		}
	}

	log := c.logger.With("request_id", uuid.NewString(), "method", method, "path", path)

	status, respBody, err := c.send(ctx, method, path, payload)
	if err != nil {
		return &Error{Kind: KindConnection, Op: op, Err: err}
	}

	if status == http.StatusUnauthorized {
		log.Debug("ticket rejected, refreshing session")
		if err := c.refreshAuth(ctx); err != nil {
			return err
		}
		status, respBody, err = c.send(ctx, method, path, payload)
		if err != nil {
			return &Error{Kind: KindConnection, Op: op, Err: err}
		}
		if status == http.StatusUnauthorized {
			return &Error{
				Kind: KindAuthentication, Op: op, Status: status,
				Err: fmt.Errorf("request unauthorized after session refresh"),
			}
		}
	}

	if status < 200 || status > 299 {
		return &Error{
			Kind: KindConnection, Op: op, Status: status,
			Err: fmt.Errorf("API error: %s", excerpt(respBody)),
		}
	}

	log.Debug("request completed", "status", status, "bytes", len(respBody))

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &Error{Kind: KindConnection, Op: op, Err: fmt.Errorf("failed to parse response: %w", err)}
		}
	}
	return nil
}

// send performs one HTTP attempt. Authentication headers are read from a
// fresh store snapshot on every call, so a retry after refresh picks up the
// new ticket automatically. The request body is rebuilt from the same
// payload bytes and is never mutated between attempts.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	url := c.baseURL + apiPrefix + strings.TrimPrefix(path, "/")

	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", transport.ContentTypeJSON)
	if payload != nil {
		req.Header.Set("Content-Type", transport.ContentTypeJSON)
	}

	if state, ok := c.store.Load(); ok {
		req.Header.Set("Cookie", state.Ticket().CookieValue())
		if csrf := state.CSRF(); csrf != nil {
			req.Header.Set(auth.CSRFHeader, csrf.Value())
		}
	}

	resp, err := c.transport.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := transport.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// excerpt returns a bounded prefix of body for error messages, backing off
// to a rune boundary so the result stays valid UTF-8.
func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "(empty body)"
	}
	if len(s) > maxBodyExcerpt {
		cut := maxBodyExcerpt
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
