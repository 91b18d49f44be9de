package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bnema/finchat/internal/application"
	"github.com/bnema/finchat/internal/domain"
)

const testProfile = "0b9d6f1e-6a51-4bb1-9f7a-1c1d2f3a4b5c"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubChatter struct {
	requests []application.ChatRequest
	response application.ChatResponse
	err      error
}

func (s *stubChatter) Chat(_ context.Context, req application.ChatRequest) (application.ChatResponse, error) {
	s.requests = append(s.requests, req)
	return s.response, s.err
}

func postChat(t *testing.T, server *Server, profile string, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/agent/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if profile != "" {
		req.Header.Set(ProfileHeader, profile)
	}
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	server := NewServer("", &stubChatter{}, nil)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	server := NewServer("", &stubChatter{}, nil)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestChatReturnsReply(t *testing.T) {
	chatter := &stubChatter{response: application.ChatResponse{
		Reply:    "Catégories: Alimentation, Loisir.",
		Plan:     &domain.PlanView{Kind: domain.PlanKindToolCall, ToolName: domain.ToolCategoriesList},
		Warnings: []string{application.WarningStateNotSaved},
	}}
	server := NewServer("", chatter, nil)

	w := postChat(t, server, testProfile, `{"message": "liste mes catégories", "debug": true}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, chatter.requests, 1)
	assert.Equal(t, application.ChatRequest{ProfileID: testProfile, Message: "liste mes catégories", Debug: true}, chatter.requests[0])

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Catégories: Alimentation, Loisir.", body["reply"])
	assert.Equal(t, []any{application.WarningStateNotSaved}, body["warnings"])
	assert.Equal(t, domain.ToolCategoriesList, body["plan"].(map[string]any)["tool_name"])
	assert.NotContains(t, body, "tool_result")
}

func TestChatRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		body    string
		err     error
		status  int
	}{
		{name: "missing profile", body: `{"message": "bonjour"}`, status: http.StatusBadRequest},
		{name: "profile is not a uuid", profile: "camille", body: `{"message": "bonjour"}`, status: http.StatusBadRequest},
		{name: "missing message", profile: testProfile, body: `{"debug": true}`, status: http.StatusBadRequest},
		{name: "malformed json", profile: testProfile, body: `{"message":`, status: http.StatusBadRequest},
		{name: "blank message", profile: testProfile, body: `{"message": "  "}`, err: domain.ErrEmptyMessage, status: http.StatusBadRequest},
		{name: "service failure", profile: testProfile, body: `{"message": "bonjour"}`, err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer("", &stubChatter{err: tt.err}, nil)

			w := postChat(t, server, tt.profile, tt.body)

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestServeStopsWhenContextEnds(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	server := NewServer("", &stubChatter{response: application.ChatResponse{Reply: "ok"}}, nil)
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, listener) }()

	client := &http.Client{Timeout: 2 * time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
