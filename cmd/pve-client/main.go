// Command pve-client is an example Proxmox VE API client.
//
// Password can be provided via:
//   - -pass flag (least secure, visible in process list)
//   - PVE_PASSWORD environment variable (recommended)
//   - stdin prompt (if neither flag nor env var is set)
//
// Usage:
//
//	pve-client -host <node> -user <username> -path <api-path>
//
// Examples:
//
//	# Using environment variable (recommended)
//	export PVE_PASSWORD='secret'
//	pve-client -host pve1.example.com -user root -path version
//
//	# Using stdin prompt, against a self-signed node
//	pve-client -host pve1.example.com -user root -insecure -path nodes
//	Password: ********
//
//	# Reuse a saved session across invocations
//	pve-client -host pve1 -user root -save-session ~/.pve-session
//	pve-client -host pve1 -user root -restore-session ~/.pve-session -path cluster/status
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"bytes"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/leeca/go-proxmox/client"
	intlog "github.com/leeca/go-proxmox/internal/log"
)

func main() {
	host := flag.String("host", "", "Proxmox VE node hostname")
	port := flag.Int("port", client.DefaultPort, "Proxmox VE API port")
	username := flag.String("user", "", "Username for authentication")
	password := flag.String("pass", "", "Password (use PVE_PASSWORD env var instead)")
	realm := flag.String("realm", "pam", "Authentication realm")
	path := flag.String("path", "version", "API path to GET after login")
	noTLS := flag.Bool("no-tls", false, "Use plain HTTP (development only)")
	insecure := flag.Bool("insecure", false, "Skip TLS certificate verification")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	rateLimit := flag.Int("rate-limit", 0, "Max requests per second (0 = unlimited)")
	rateBurst := flag.Int("rate-burst", 0, "Rate limit burst size (default: same as -rate-limit)")
	saveSession := flag.String("save-session", "", "Save the session ticket to file on exit")
	restoreSession := flag.String("restore-session", "", "Restore a session ticket from file")
	fromEnv := flag.Bool("env", false, "Read connection settings from PVE_* environment variables")
	logLevel := flag.String("loglevel", "", "Log level: debug, info, warn, error (empty = no logging)")
	logFile := flag.String("logfile", "", "Write logs to this file (rotated at 5MB) instead of stderr")
	flag.Parse()

	cfg, err := buildConfig(*fromEnv, *host, *port, *username, *realm, *noTLS, *insecure, *timeout, *rateLimit, *rateBurst)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	if *password != "" {
		cfg.Password = *password
	} else if cfg.Password == "" {
		cfg.Password = resolvePassword()
	}
	if cfg.Password == "" {
		fmt.Fprintln(os.Stderr, "Error: no password provided")
		os.Exit(1)
	}

	logger, closeLog, err := buildLogger(*logLevel, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	c, err := client.New(cfg, client.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*(*timeout))
	defer cancel()

	if *restoreSession != "" {
		if err := c.LoadSessionFile(*restoreSession); err != nil {
			// A stale or unreadable session falls back to a fresh login.
			fmt.Fprintf(os.Stderr, "session restore failed (%v), logging in\n", err)
		}
	}

	if !c.IsAuthenticated() {
		if err := c.Login(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
			os.Exit(1)
		}
	}

	var result json.RawMessage
	if err := c.Get(ctx, *path, &result); err != nil {
		fmt.Fprintf(os.Stderr, "GET %s failed: %v\n", *path, err)
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		pretty.WriteString(string(result))
	}
	fmt.Println(pretty.String())

	if *saveSession != "" {
		if err := c.SaveSessionFile(*saveSession); err != nil {
			fmt.Fprintf(os.Stderr, "session save failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "session saved to %s\n", *saveSession)
	}
}

// buildConfig assembles the client configuration from flags, or from the
// environment when -env is set (flags still override the blanks).
func buildConfig(fromEnv bool, host string, port int, username, realm string,
	noTLS, insecure bool, timeout time.Duration, rateLimit, rateBurst int) (client.Config, error) {

	cfg := client.DefaultConfig()
	if fromEnv {
		var err error
		cfg, err = client.ConfigFromEnv()
		if err != nil {
			return client.Config{}, err
		}
	}

	if host != "" {
		cfg.Host = host
	}
	if username != "" {
		cfg.Username = username
	}
	if realm != "" {
		cfg.Realm = realm
	}
	if port != 0 {
		cfg.Port = port
	}
	if noTLS {
		cfg.UseTLS = false
	}
	if insecure {
		cfg.InsecureSkipVerify = true
	}
	cfg.Timeout = timeout

	if rateLimit > 0 {
		if rateBurst <= 0 {
			rateBurst = rateLimit
		}
		cfg.RateLimit = &client.RateLimit{RequestsPerSecond: rateLimit, BurstSize: rateBurst}
	}

	if cfg.Host == "" {
		return client.Config{}, fmt.Errorf("-host is required (or use -env with PVE_HOST)")
	}
	if cfg.Username == "" {
		return client.Config{}, fmt.Errorf("-user is required (or use -env with PVE_USERNAME)")
	}
	return cfg, nil
}

// resolvePassword returns the password from the PVE_PASSWORD environment
// variable, or an interactive prompt when stdin is a terminal.
func resolvePassword() string {
	if env := os.Getenv("PVE_PASSWORD"); env != "" {
		return env
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return ""
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(pass)
}

// buildLogger wires a leveled slog logger behind the credential-redacting
// handler. An empty level disables logging entirely.
func buildLogger(level, file string) (*slog.Logger, func(), error) {
	noop := func() {}
	if level == "" {
		return nil, noop, nil
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, noop, fmt.Errorf("invalid log level %q", level)
	}

	var w io.Writer = os.Stderr
	closeLog := noop
	if file != "" {
		rf, err := intlog.NewRotatingFile(file, 5*1024*1024, 3)
		if err != nil {
			return nil, noop, err
		}
		w = rf
		closeLog = func() { _ = rf.Close() }
	}

	handler := intlog.NewRedactingHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	return slog.New(handler), closeLog, nil
}
