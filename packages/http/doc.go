// Package http provides the HTTP transport used to send materialized requests.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts
//   - Redirect handling
//   - Proxy and TLS verification settings
//   - Multi-valued request and response headers
//   - A Send call that reports transport failures in the response instead of an error
package http
