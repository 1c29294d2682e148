// Package auth holds the session credentials for the Proxmox VE ticket
// scheme: the authentication ticket, the CSRF prevention token, the
// concurrency-safe store that owns the current session, and the on-disk
// session format.
//
// Tokens are immutable value types. Expiry is never tracked by a timer;
// it is a pure function of the token's creation time and a lifetime the
// caller supplies at read time.
package auth
