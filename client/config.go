package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// DefaultPort is the Proxmox VE API port.
	DefaultPort = 8006

	// DefaultTicketLifetime matches the server-side ticket validity.
	DefaultTicketLifetime = 2 * time.Hour

	// DefaultCSRFLifetime is the validity window for CSRF tokens.
	DefaultCSRFLifetime = 5 * time.Minute

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second
)

// RateLimit configures the client-side token bucket in front of outbound
// requests.
type RateLimit struct {
	// RequestsPerSecond is the steady-state rate.
	RequestsPerSecond int

	// BurstSize is the bucket capacity; defaults to RequestsPerSecond
	// when zero.
	BurstSize int
}

// Config describes a Proxmox VE connection. It is read once by New and
// never mutated afterwards.
type Config struct {
	// Host is the Proxmox VE node address (hostname or IP).
	Host string `env:"PVE_HOST"`

	// Port is the API port (default: 8006).
	Port int `env:"PVE_PORT" envDefault:"8006"`

	// Username for authentication, without the realm suffix.
	Username string `env:"PVE_USERNAME"`

	// Password for authentication.
	Password string `env:"PVE_PASSWORD"`

	// Realm is the authentication realm (e.g. "pam", "pve").
	Realm string `env:"PVE_REALM" envDefault:"pam"`

	// UseTLS enables HTTPS transport (default: true).
	UseTLS bool `env:"PVE_TLS" envDefault:"true"`

	// InsecureSkipVerify skips TLS certificate verification. Common with
	// self-signed node certificates; prefer installing the cluster CA.
	InsecureSkipVerify bool `env:"PVE_INSECURE" envDefault:"false"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `env:"PVE_TIMEOUT" envDefault:"30s"`

	// TicketLifetime is how long an issued ticket is trusted before the
	// client re-authenticates (default: 2h, matching the server).
	TicketLifetime time.Duration `env:"PVE_TICKET_LIFETIME" envDefault:"2h"`

	// CSRFLifetime is how long a CSRF token is trusted (default: 5m).
	CSRFLifetime time.Duration `env:"PVE_CSRF_LIFETIME" envDefault:"5m"`

	// RateLimit gates outbound requests when non-nil. Nil disables the
	// gate entirely.
	RateLimit *RateLimit
}

// DefaultConfig returns a Config with sensible defaults. Host, Username and
// Password must still be set.
func DefaultConfig() Config {
	return Config{
		Port:           DefaultPort,
		Realm:          "pam",
		UseTLS:         true,
		Timeout:        DefaultTimeout,
		TicketLifetime: DefaultTicketLifetime,
		CSRFLifetime:   DefaultCSRFLifetime,
	}
}

// envRateLimit holds the optional rate-limit environment variables.
type envRateLimit struct {
	RequestsPerSecond int `env:"PVE_RATE_LIMIT"`
	BurstSize         int `env:"PVE_RATE_BURST"`
}

// ConfigFromEnv loads a Config from PVE_* environment variables, reading a
// .env file first when one exists.
func ConfigFromEnv() (Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, &Error{Kind: KindValidation, Op: "config", Err: err}
	}

	var rl envRateLimit
	if err := env.Parse(&rl); err != nil {
		return Config{}, &Error{Kind: KindValidation, Op: "config", Err: err}
	}
	if rl.RequestsPerSecond > 0 {
		if rl.BurstSize <= 0 {
			rl.BurstSize = rl.RequestsPerSecond
		}
		cfg.RateLimit = &RateLimit{
			RequestsPerSecond: rl.RequestsPerSecond,
			BurstSize:         rl.BurstSize,
		}
	}

	return cfg, nil
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	var err error
	switch {
	case c.Host == "":
		err = errors.New("host is required")
	case c.Username == "":
		err = errors.New("username is required")
	case c.Password == "":
		err = errors.New("password is required")
	case c.Realm == "":
		err = errors.New("realm is required")
	case c.Port < 0 || c.Port > 65535:
		err = fmt.Errorf("invalid port %d", c.Port)
	case c.RateLimit != nil && c.RateLimit.RequestsPerSecond <= 0:
		err = errors.New("rate limit requests per second must be positive")
	}
	if err != nil {
		return &Error{Kind: KindValidation, Op: "config", Err: err}
	}
	return nil
}

// baseURL builds the scheme://host:port base for API paths.
func (c *Config) baseURL() string {
	scheme := "https"
	if !c.UseTLS {
		scheme = "http"
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, port)
}
