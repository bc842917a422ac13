package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestWriteJSON(t *testing.T) {
	t.Run("encodes body and content type", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusOK, map[string]string{"title": "Write docs"})
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"title":"Write docs"}`, w.Body.String())
	})

	t.Run("nil body", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteJSON(w, http.StatusAccepted, nil))

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteSuccessResponses(t *testing.T) {
	t.Run("ok wraps data", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteOK(w, map[string]string{"username": "alice"}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":{"username":"alice"}}`, w.Body.String())
	})

	t.Run("created wraps data", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteCreated(w, map[string]string{"id": "1"}))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"data":{"id":"1"}}`, w.Body.String())
	})

	t.Run("no content", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteNoContent(w)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("service unavailable", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteServiceUnavailable(w, map[string]string{"status": "unhealthy"}))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"data":{"status":"unhealthy"}}`, w.Body.String())
	})
}

func TestWriteErrorResponses(t *testing.T) {
	tests := []struct {
		name        string
		write       func(w http.ResponseWriter) error
		wantStatus  int
		wantError   string
		wantMessage string
	}{
		{
			name:        "bad request",
			write:       func(w http.ResponseWriter) error { return WriteBadRequest(w, "Title is required", nil) },
			wantStatus:  http.StatusBadRequest,
			wantError:   "bad_request",
			wantMessage: "Title is required",
		},
		{
			name:        "unauthorized default message",
			write:       func(w http.ResponseWriter) error { return WriteUnauthorized(w, "") },
			wantStatus:  http.StatusUnauthorized,
			wantError:   "unauthorized",
			wantMessage: "Authentication required",
		},
		{
			name:        "forbidden default message",
			write:       func(w http.ResponseWriter) error { return WriteForbidden(w, "") },
			wantStatus:  http.StatusForbidden,
			wantError:   "forbidden",
			wantMessage: "Access forbidden",
		},
		{
			name:        "not found default message",
			write:       func(w http.ResponseWriter) error { return WriteNotFound(w, "") },
			wantStatus:  http.StatusNotFound,
			wantError:   "not_found",
			wantMessage: "Resource not found",
		},
		{
			name:        "conflict",
			write:       func(w http.ResponseWriter) error { return WriteConflict(w, "Username taken", nil) },
			wantStatus:  http.StatusConflict,
			wantError:   "conflict",
			wantMessage: "Username taken",
		},
		{
			name:        "too many requests default message",
			write:       func(w http.ResponseWriter) error { return WriteTooManyRequests(w, "", nil) },
			wantStatus:  http.StatusTooManyRequests,
			wantError:   "rate_limit_exceeded",
			wantMessage: "Rate limit exceeded",
		},
		{
			name:        "internal default message",
			write:       func(w http.ResponseWriter) error { return WriteInternalServerError(w, "") },
			wantStatus:  http.StatusInternalServerError,
			wantError:   "internal_error",
			wantMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w))

			assert.Equal(t, tt.wantStatus, w.Code)
			response := decodeError(t, w)
			assert.Equal(t, tt.wantError, response.Error)
			assert.Equal(t, tt.wantMessage, response.Message)
		})
	}
}

func TestWriteBadRequest_Details(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteBadRequest(w, "Validation failed", map[string]interface{}{"title": "title is required"}))

	response := decodeError(t, w)
	assert.Equal(t, "title is required", response.Details["title"])
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		status   int
		wantType string
	}{
		{http.StatusBadRequest, "bad_request"},
		{http.StatusUnauthorized, "unauthorized"},
		{http.StatusForbidden, "forbidden"},
		{http.StatusNotFound, "not_found"},
		{http.StatusConflict, "conflict"},
		{http.StatusTooManyRequests, "rate_limit_exceeded"},
		{http.StatusServiceUnavailable, "unavailable"},
		{http.StatusTeapot, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, WriteError(w, tt.status, "message", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.wantType, decodeError(t, w).Error)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Username string `json:"username"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"username":"alice"}`},
		{name: "empty body", body: ``, wantErr: "request body is empty"},
		{name: "unknown field", body: `{"username":"alice","admin":true}`, wantErr: "unknown field"},
		{name: "trailing object", body: `{"username":"a"}{"username":"b"}`, wantErr: "single JSON object"},
		{name: "syntax error", body: `{"username":`, wantErr: "invalid request body"},
		{name: "oversized", body: `{"username":"` + strings.Repeat("x", maxBodyBytes) + `"}`, wantErr: "exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var dst payload
			err := DecodeJSON(w, r, &dst)

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "alice", dst.Username)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
