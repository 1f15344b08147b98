package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// APIResponse mirrors the JSON envelope returned by every endpoint
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// PerformRequest sends a request through engine. A non-nil body is encoded as JSON.
func PerformRequest(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(body)
			require.NoError(t, err, "Failed to marshal request body")
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// DecodeResponse parses the envelope
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to parse JSON response: %s", w.Body.String())
	return resp
}

// DecodeData parses the envelope's data field into T
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	resp := DecodeResponse(t, w)
	require.True(t, resp.Success, "expected success response, got %s", w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out), "Failed to parse response data")
	return out
}

// AssertErrorResponse asserts status and error code
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	resp := DecodeResponse(t, w)
	assert.False(t, resp.Success, "Expected success to be false")
	require.NotNil(t, resp.Error, "Expected error object in response")
	assert.Equal(t, code, resp.Error.Code, "Unexpected error code")
}

// AssertStatus asserts the response code, printing the body on mismatch
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	assert.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
}
