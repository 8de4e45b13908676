package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/waypoint/pkg/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, map[string]string{"state": "running"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"state":"running"},"error":null}`, w.Body.String())
}

func TestGone(t *testing.T) {
	w := httptest.NewRecorder()
	Gone(w, "subscription removed", map[string]string{"reason": "cancelled"})

	assert.Equal(t, http.StatusGone, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeGone, resp.Error.Code)
	assert.Equal(t, map[string]any{"reason": "cancelled"}, resp.Data)
}

func TestErrorFromType(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", errors.NewNotFoundError("subscription", "abc"), http.StatusNotFound, CodeNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", errors.NewNotFoundError("subscription", "abc")), http.StatusNotFound, CodeNotFound},
		{"validation", errors.NewValidationError("visit", nil, "bad"), http.StatusBadRequest, CodeBadRequest},
		{"parse", errors.NewParseError("json", "", "unexpected EOF", nil), http.StatusBadRequest, CodeBadRequest},
		{"exists", errors.ErrAlreadyExists, http.StatusConflict, CodeConflict},
		{"closed", errors.WrapResource("create", "subscription", "", errors.ErrClosed), http.StatusServiceUnavailable, CodeServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFromType(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Nil(t, resp.Data)
		})
	}
}

func TestInternalError_HidesCause(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, errors.New("database password is hunter2"))
	assert.NotContains(t, w.Body.String(), "hunter2")
}
