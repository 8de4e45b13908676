package transport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newRequest() *http.Request {
	return &http.Request{Header: make(http.Header)}
}

func TestNoAuth(t *testing.T) {
	req := newRequest()
	(&NoAuth{}).Apply(req, "test-api-key")
	assert.Empty(t, req.Header)
}

func TestBearerAuth(t *testing.T) {
	req := newRequest()
	(&BearerAuth{}).Apply(req, "test-api-key")
	assert.Equal(t, "Bearer test-api-key", req.Header.Get("Authorization"))
}

func TestHeaderAuth(t *testing.T) {
	req := newRequest()
	(&HeaderAuth{Header: "x-waypoint-key"}).Apply(req, "test-api-key")
	assert.Equal(t, "test-api-key", req.Header.Get("X-Waypoint-Key"))

	req = newRequest()
	(&HeaderAuth{}).Apply(req, "k")
	assert.Equal(t, "k", req.Header.Get("X-API-Key"))
}

func TestAuthFor(t *testing.T) {
	assert.IsType(t, &NoAuth{}, AuthFor("", "X-API-Key"))
	assert.IsType(t, &BearerAuth{}, AuthFor("k", ""))
	assert.IsType(t, &BearerAuth{}, AuthFor("k", "Authorization"))
	assert.Equal(t, &HeaderAuth{Header: "X-API-Key"}, AuthFor("k", "X-API-Key"))
}
