// Package proxmox provides a Proxmox VE API client built around the
// ticket-based authentication flow.
//
// # Architecture
//
// The library is organized into layers:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  client/       Session manager + request dispatch       │
//	├─────────────────────────────────────────────────────────┤
//	│  auth/         Tickets, CSRF tokens, session store      │
//	├─────────────────────────────────────────────────────────┤
//	│  transport/    HTTP transport with TLS configuration    │
//	└─────────────────────────────────────────────────────────┘
//
// # Quick Start
//
//	cfg := client.DefaultConfig()
//	cfg.Host = "pve1.example.com"
//	cfg.Username = "root"
//	cfg.Password = os.Getenv("PVE_PASSWORD")
//
//	c, err := client.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Login(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	var version json.RawMessage
//	err = c.Get(ctx, "version", &version)
package proxmox
