// Package client provides a high-level client for the Proxmox VE API with
// ticket-based session management.
//
// This is the recommended entry point for most users. It handles:
//   - The credential-to-ticket login exchange
//   - Concurrency-safe session storage and expiry tracking
//   - Exactly one automatic re-login and retry on 401 responses
//   - Optional client-side request rate limiting
//   - Session persistence across process restarts
//
// # Quick Start
//
//	cfg := client.DefaultConfig()
//	cfg.Host = "pve.example.com"
//	cfg.Username = "root"
//	cfg.Password = "password"
//	cfg.Realm = "pam"
//
//	c, err := client.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := c.Login(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	var version json.RawMessage
//	if err := c.Get(ctx, "version", &version); err != nil {
//	    log.Fatal(err)
//	}
package client
