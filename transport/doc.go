// Package transport provides the HTTP/TLS layer for Proxmox VE API calls.
//
// The transport layer handles:
//   - HTTP/HTTPS connections
//   - TLS configuration (including self-signed cluster certificates)
//   - Response body handling with pooled buffers
//
// Authentication headers and the 401 retry protocol live one level up, in
// the client package; the transport never inspects or mutates them.
package transport
