package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestNew verifies transport creation with default settings.
func TestNew(t *testing.T) {
	tr := New()
	if tr == nil {
		t.Fatal("New returned nil")
	}
	if tr.client == nil {
		t.Error("client is nil")
	}
	if tr.client.Timeout != DefaultTimeout {
		t.Errorf("got timeout %v, want %v", tr.client.Timeout, DefaultTimeout)
	}
}

// TestWithTimeout verifies timeout configuration.
func TestWithTimeout(t *testing.T) {
	timeout := 10 * time.Second
	tr := New(WithTimeout(timeout))

	if tr.client.Timeout != timeout {
		t.Errorf("got timeout %v, want %v", tr.client.Timeout, timeout)
	}
}

// TestWithInsecureSkipVerify verifies TLS skip verify configuration.
func TestWithInsecureSkipVerify(t *testing.T) {
	tr := New(WithInsecureSkipVerify(true))

	httpTransport, ok := tr.client.Transport.(*http.Transport)
	if !ok {
		t.Fatal("transport is not *http.Transport")
	}
	if httpTransport.TLSClientConfig == nil {
		t.Fatal("TLSClientConfig is nil")
	}
	if !httpTransport.TLSClientConfig.InsecureSkipVerify {
		t.Error("InsecureSkipVerify is false, want true")
	}
}

// TestWithTLSConfig verifies custom TLS configuration and the TLS 1.2 floor.
func TestWithTLSConfig(t *testing.T) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS10,
	}
	tr := New(WithTLSConfig(tlsCfg))

	httpTransport, ok := tr.client.Transport.(*http.Transport)
	if !ok {
		t.Fatal("transport is not *http.Transport")
	}
	if httpTransport.TLSClientConfig != tlsCfg {
		t.Error("TLSClientConfig does not match provided config")
	}
	if tlsCfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion not raised to TLS 1.2: %d", tlsCfg.MinVersion)
	}
}

// TestDo verifies basic request execution.
func TestDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != ContentTypeJSON {
			t.Errorf("unexpected Content-Type: %s", ct)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":"ok"}`))
	}))
	defer server.Close()

	tr := New()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL,
		strings.NewReader(`{"username":"u"}`))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", ContentTypeJSON)

	resp, err := tr.Do(req)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !strings.Contains(string(body), "ok") {
		t.Errorf("unexpected response: %s", body)
	}
}

// TestDo_ContextCancellation verifies that a cancelled context aborts the
// request.
func TestDo_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	tr := New()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}

	if _, err := tr.Do(req); err == nil {
		t.Error("Do succeeded despite cancelled context")
	}
}

// TestReadAll_ReturnsCopy verifies the pooled buffer is not leaked to the
// caller.
func TestReadAll_ReturnsCopy(t *testing.T) {
	first, err := ReadAll(strings.NewReader("first-body"))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	second, err := ReadAll(strings.NewReader("second-body"))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(first) != "first-body" {
		t.Errorf("first read corrupted by second: %q", first)
	}
	if string(second) != "second-body" {
		t.Errorf("unexpected second read: %q", second)
	}
}
