package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SaveAndRestore(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginOK(w)
	}))
	defer ts.Close()

	c := testClient(t, ts, nil)
	require.NoError(t, c.Login(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, c.SaveSession(&buf))

	// A fresh client restores the same session without logging in.
	restored := testClient(t, ts, nil)
	require.NoError(t, restored.LoadSession(&buf))

	assert.True(t, restored.IsAuthenticated())
	ticket, ok := restored.AuthToken()
	require.True(t, ok)
	assert.Equal(t, testTicket, ticket.Value())
	csrf, ok := restored.CSRFToken()
	require.True(t, ok)
	assert.Equal(t, testCSRF, csrf.Value())
}

func TestNew_WithSessionRestores(t *testing.T) {
	var logins int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins++
		loginOK(w)
	}))
	defer ts.Close()

	c := testClient(t, ts, nil)
	require.NoError(t, c.Login(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, c.SaveSession(&buf))

	// The session is live as soon as New returns, no login round trip.
	restored, err := New(testConfig(t, ts, nil), WithSession(&buf))
	require.NoError(t, err)

	assert.True(t, restored.IsAuthenticated())
	ticket, ok := restored.AuthToken()
	require.True(t, ok)
	assert.Equal(t, testTicket, ticket.Value())
	assert.Equal(t, 1, logins, "restored client must not log in")
}

func TestNew_WithSessionExpiredFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginOK(w)
	}))
	defer ts.Close()

	c := testClient(t, ts, nil)
	require.NoError(t, c.Login(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, c.SaveSession(&buf))

	time.Sleep(time.Millisecond)
	strict := testConfig(t, ts, func(cfg *Config) {
		cfg.TicketLifetime = time.Nanosecond
	})
	restored, err := New(strict, WithSession(&buf))
	require.Error(t, err)
	assert.True(t, IsSession(err), "got %v", err)
	assert.Nil(t, restored)
}

func TestNew_WithSessionMalformedFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	restored, err := New(testConfig(t, ts, nil), WithSession(bytes.NewReader([]byte("not a session"))))
	require.Error(t, err)
	assert.True(t, IsSession(err), "got %v", err)
	assert.Nil(t, restored)
}

func TestSession_SaveWithoutLoginFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	c := testClient(t, ts, nil)
	err := c.SaveSession(&bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, IsSession(err), "got %v", err)
}

func TestSession_LoadExpiredFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginOK(w)
	}))
	defer ts.Close()

	c := testClient(t, ts, nil)
	require.NoError(t, c.Login(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, c.SaveSession(&buf))

	// The restoring client considers any ticket older than a nanosecond
	// stale, so the load must fail loudly.
	strict := testClient(t, ts, func(cfg *Config) {
		cfg.TicketLifetime = time.Nanosecond
	})
	time.Sleep(time.Millisecond)
	err := strict.LoadSession(&buf)
	require.Error(t, err)
	assert.True(t, IsSession(err), "got %v", err)
	assert.False(t, strict.IsAuthenticated(), "failed load must not commit state")
}

func TestSession_LoadMalformedFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	c := testClient(t, ts, nil)
	err := c.LoadSession(bytes.NewReader([]byte("not a session")))
	require.Error(t, err)
	assert.True(t, IsSession(err), "got %v", err)
}

func TestSession_FileRoundTrip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginOK(w)
	}))
	defer ts.Close()

	c := testClient(t, ts, nil)
	require.NoError(t, c.Login(context.Background()))

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, c.SaveSessionFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "session file carries credentials")

	restored := testClient(t, ts, nil)
	require.NoError(t, restored.LoadSessionFile(path))
	assert.True(t, restored.IsAuthenticated())
}

func TestSession_LoadMissingFileFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	c := testClient(t, ts, nil)
	err := c.LoadSessionFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, IsSession(err), "got %v", err)
}
