package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/ports"
)

type capturedRequest struct {
	Model      string           `json:"model"`
	Messages   []map[string]any `json:"messages"`
	Tools      []map[string]any `json:"tools"`
	ToolChoice map[string]any   `json:"tool_choice"`
}

func completionWithCall(t *testing.T, name string, arguments map[string]any) []byte {
	t.Helper()

	encoded, err := json.Marshal(arguments)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  DefaultModel,
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "tool_calls",
			"message": map[string]any{
				"role": "assistant",
				"tool_calls": []any{map[string]any{
					"id":       "call-1",
					"type":     "function",
					"function": map[string]any{"name": name, "arguments": string(encoded)},
				}},
			},
		}},
	})
	require.NoError(t, err)
	return body
}

func newTestClient(t *testing.T, handler func(t *testing.T, req capturedRequest) (int, []byte)) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req capturedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, body := handler(t, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1/"}, server.Client(), nil)
	require.NoError(t, err)
	return client
}

func TestVerifyDecodesRepair(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(t *testing.T, req capturedRequest) (int, []byte) {
		assert.Equal(t, DefaultModel, req.Model)
		require.Len(t, req.Messages, 2)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, verdictFunction, req.ToolChoice["function"].(map[string]any)["name"])

		var input map[string]any
		require.NoError(t, json.Unmarshal([]byte(req.Messages[1]["content"].(string)), &input))
		assert.Equal(t, "dépenses chez coop", input["message"])
		assert.Equal(t, "medium", input["plan"].(map[string]any)["confidence"])

		return http.StatusOK, completionWithCall(t, verdictFunction, map[string]any{
			"verdict":   "Repair",
			"tool_name": domain.ToolRelevesSum,
			"payload":   map[string]any{"merchant": "Coop", "direction": "DEBIT_ONLY"},
			"reason":    " merchant only ",
		})
	})

	response, err := client.Verify(context.Background(), ports.VerifyRequest{
		Message:      "dépenses chez coop",
		ToolName:     domain.ToolRelevesSearch,
		Payload:      map[string]any{"merchant": "coop"},
		Confidence:   domain.ConfidenceMedium,
		AllowedTools: []string{domain.ToolRelevesSearch, domain.ToolRelevesSum},
	})

	require.NoError(t, err)
	assert.Equal(t, ports.VerifyResponse{
		Verdict:  domain.VerdictRepair,
		ToolName: domain.ToolRelevesSum,
		Payload:  map[string]any{"merchant": "Coop", "direction": "DEBIT_ONLY"},
		Reason:   "merchant only",
	}, response)
}

func TestVerifyRejectsUnusableAnswers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   func(t *testing.T) []byte
	}{
		{
			name:   "unknown verdict",
			status: http.StatusOK,
			body: func(t *testing.T) []byte {
				return completionWithCall(t, verdictFunction, map[string]any{"verdict": "maybe"})
			},
		},
		{
			name:   "wrong function",
			status: http.StatusOK,
			body: func(t *testing.T) []byte {
				return completionWithCall(t, proposalFunction, map[string]any{"tool_name": ""})
			},
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body: func(*testing.T) []byte {
				return []byte(`{"id": "chatcmpl-1", "object": "chat.completion", "choices": []}`)
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body: func(*testing.T) []byte {
				return []byte(`{"error": {"message": "boom", "type": "server_error"}}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(t *testing.T, _ capturedRequest) (int, []byte) {
				return tt.status, tt.body(t)
			})

			_, err := client.Verify(context.Background(), ports.VerifyRequest{Message: "total", ToolName: domain.ToolRelevesSum})
			require.Error(t, err)
		})
	}
}

func TestProposeDecodesToolCall(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(t *testing.T, req capturedRequest) (int, []byte) {
		assert.Equal(t, proposalFunction, req.ToolChoice["function"].(map[string]any)["name"])
		return http.StatusOK, completionWithCall(t, proposalFunction, map[string]any{
			"tool_name":  domain.ToolCategoriesCreate,
			"payload":    map[string]any{"name": "Brouette"},
			"user_reply": "Je crée la catégorie Brouette.",
		})
	})

	proposal, err := client.Propose(context.Background(), ports.ProposeRequest{
		Message:      "range la brouette jaune",
		AllowedTools: []string{domain.ToolCategoriesCreate},
	})

	require.NoError(t, err)
	assert.Equal(t, ports.Proposal{
		ToolName:  domain.ToolCategoriesCreate,
		Payload:   map[string]any{"name": "Brouette"},
		UserReply: "Je crée la catégorie Brouette.",
	}, proposal)
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{APIKey: "  "}, nil, nil)

	require.ErrorIs(t, err, domain.ErrVerifierUnavailable)
}
