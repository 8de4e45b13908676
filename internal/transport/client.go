package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/waypoint"
	"github.com/agentstation/waypoint/pkg/constants"
	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/visits"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client talks to a waypoint API server. BaseURL includes the API path
// prefix, e.g. http://localhost:8080/api/v1.
type Client struct {
	http    *http.Client
	auth    Authenticator
	apiKey  string
	baseURL string
}

// New creates a new transport client with the specified authenticator.
func New(baseURL, apiKey string, auth Authenticator) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	return &Client{
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		auth:    auth,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Do performs an HTTP request with authentication applied.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}

	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, errors.WrapResource(strings.ToLower(req.Method), "request", req.URL.Path, err)
	}
	return resp, nil
}

// call sends body (if any) to path and decodes the envelope data into out.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.WrapParse("json", "request", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return errors.WrapResource("create", "request", method+" "+endpoint, err)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, out)
}

// Health returns the readiness report of the server.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.call(ctx, http.MethodGet, "/ready", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Subscriptions lists the subscriptions held by the server, optionally
// filtered by state.
func (c *Client) Subscriptions(ctx context.Context, state string) ([]waypoint.Status, error) {
	query := url.Values{}
	if state != "" {
		query.Set("state", state)
	}
	var out struct {
		Subscriptions []waypoint.Status `json:"subscriptions"`
	}
	if err := c.call(ctx, http.MethodGet, "/subscriptions", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Subscriptions, nil
}

// DeliverVisit posts a visit. With a zero target it reaches every running
// subscription; otherwise only the target. It returns the number of
// subscriptions that received the visit.
func (c *Client) DeliverVisit(ctx context.Context, v visits.Visit, target visits.ID) (int, error) {
	query := url.Values{}
	if !target.IsZero() {
		query.Set("subscription", target.String())
	}
	var out struct {
		Delivered int `json:"delivered"`
	}
	if err := c.call(ctx, http.MethodPost, "/visits", query, v, &out); err != nil {
		return 0, err
	}
	return out.Delivered, nil
}

// ReportFailure terminates every active subscription on the server with
// reason. It returns the reason code the server recorded and the number of
// subscriptions stopped.
func (c *Client) ReportFailure(ctx context.Context, reason, message string) (string, int, error) {
	body := map[string]string{"reason": reason}
	if message != "" {
		body["message"] = message
	}
	var out struct {
		Reason  string `json:"reason"`
		Stopped int    `json:"stopped"`
	}
	if err := c.call(ctx, http.MethodPost, "/failures", nil, body, &out); err != nil {
		return "", 0, err
	}
	return out.Reason, out.Stopped, nil
}

// String returns the base URL.
func (c *Client) String() string {
	return c.baseURL
}

func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return strconv.Itoa(code)
}
