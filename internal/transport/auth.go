// Package transport provides an authenticated HTTP client for the waypoint
// API server.
package transport

import (
	"net/http"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, apiKey string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
}

// HeaderAuth implements custom header authentication.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, apiKey string) {
	header := a.Header
	if header == "" {
		header = "X-API-Key"
	}
	req.Header.Set(header, apiKey)
}

// AuthFor picks an authenticator for an API key. An empty key sends no
// credentials.
func AuthFor(apiKey, header string) Authenticator {
	switch {
	case apiKey == "":
		return &NoAuth{}
	case header == "" || header == "Authorization":
		return &BearerAuth{}
	default:
		return &HeaderAuth{Header: header}
	}
}
