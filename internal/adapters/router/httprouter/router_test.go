package httprouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/ports"
)

func newTestRouter(t *testing.T, handler http.HandlerFunc) *Router {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	router, err := New(Config{BaseURL: server.URL + "/api"}, nil, nil)
	require.NoError(t, err)
	return router
}

func TestCallSendsPayloadAndContext(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tools/finance_releves_sum", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"direction": "DEBIT_ONLY"}, body["payload"])
		assert.Equal(t, map[string]any{"profile_id": "p-1"}, body["context"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "result": {"total": -42.5, "count": 3}}`))
	})

	result, err := router.Call(context.Background(), domain.ToolRelevesSum, map[string]any{"direction": "DEBIT_ONLY"}, ports.ToolContext{ProfileID: "p-1"})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"total": json.Number("-42.5"), "count": json.Number("3")}, result)
}

func TestCallDecodesToolErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		code   domain.ToolErrorCode
	}{
		{
			name:   "not found with close names",
			status: http.StatusOK,
			body:   `{"ok": false, "error": {"code": "NOT_FOUND", "message": "no account", "details": {"close_names": ["UBS"]}}}`,
			code:   domain.ToolErrorNotFound,
		},
		{
			name:   "unknown code becomes backend error",
			status: http.StatusUnprocessableEntity,
			body:   `{"ok": false, "error": {"code": "TEAPOT", "message": "short and stout"}}`,
			code:   domain.ToolErrorBackend,
		},
		{
			name:   "failure without error body",
			status: http.StatusOK,
			body:   `{"ok": false}`,
			code:   domain.ToolErrorBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := router.Call(context.Background(), domain.ToolBankAccountsDelete, nil, ports.ToolContext{})

			var toolErr *domain.ToolError
			require.True(t, errors.As(err, &toolErr))
			assert.Equal(t, tt.code, toolErr.Code)
		})
	}
}

func TestCallReportsTransportFailures(t *testing.T) {
	t.Parallel()

	t.Run("bad gateway without json", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		})

		_, err := router.Call(context.Background(), domain.ToolCategoriesList, nil, ports.ToolContext{})

		require.ErrorContains(t, err, "unexpected status 502")
		var toolErr *domain.ToolError
		assert.False(t, errors.As(err, &toolErr))
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		t.Cleanup(server.Close)

		router, err := New(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond}, nil, nil)
		require.NoError(t, err)

		_, err = router.Call(context.Background(), domain.ToolCategoriesList, nil, ports.ToolContext{})
		require.Error(t, err)
	})
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "ftp://example.org", "://nope"} {
		_, err := New(Config{BaseURL: raw}, nil, nil)
		assert.Error(t, err, raw)
	}
}
