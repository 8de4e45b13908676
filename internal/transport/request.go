package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/agentstation/waypoint/pkg/errors"
)

// APIError is an error response from the waypoint API server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("API error (status %d %s)", e.StatusCode, statusText(e.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Is maps HTTP status codes onto the shared sentinel errors.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return target == errors.ErrNotFound
	case http.StatusBadRequest:
		return target == errors.ErrInvalidInput
	case http.StatusUnauthorized, http.StatusForbidden:
		return target == errors.ErrPermissionDenied
	case http.StatusServiceUnavailable:
		return target == errors.ErrClosed
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return target == errors.ErrTimeout
	}
	return false
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

// DecodeResponse decodes the data field of an API envelope into target. A
// non-2xx status or an error field yields an *APIError.
func DecodeResponse(resp *http.Response, target any) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
		}
		return errors.WrapParse("json", "response", err)
	}

	if env.Error != nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}

	if target == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}
