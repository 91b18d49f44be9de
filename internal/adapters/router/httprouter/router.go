// Package httprouter calls backend tools over HTTP JSON.
//
// Each call is a POST to {base}/tools/{name} with body {"payload": {...}, "context": {"profile_id": "..."}}.
// The backend answers {"ok": true, "result": ...} or {"ok": false, "error": {"code", "message", "details"}}.
package httprouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/logging"
	"github.com/bnema/finchat/internal/ports"
)

const (
	DefaultTimeout  = 10 * time.Second
	maxResponseSize = 4 << 20
	requestIDHeader = "X-Request-ID"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Router struct {
	base   *url.URL
	client *http.Client
	logger *zap.Logger
}

var _ ports.ToolRouter = (*Router)(nil)

func New(cfg Config, client *http.Client, logger *zap.Logger) (*Router, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("router base url is empty")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse router base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("router base url %q: scheme must be http or https", raw)
	}

	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Router{base: base, client: client, logger: logging.OrNop(logger)}, nil
}

type callRequest struct {
	Payload map[string]any `json:"payload"`
	Context callContext    `json:"context"`
}

type callContext struct {
	ProfileID string `json:"profile_id,omitempty"`
}

type callResponse struct {
	OK     bool              `json:"ok"`
	Result any               `json:"result"`
	Error  *domain.ToolError `json:"error"`
}

func (r *Router) Call(ctx context.Context, toolName string, payload map[string]any, toolCtx ports.ToolContext) (any, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(callRequest{Payload: payload, Context: callContext{ProfileID: toolCtx.ProfileID}})
	if err != nil {
		return nil, fmt.Errorf("encode tool request: %w", err)
	}

	endpoint := r.base.JoinPath("tools", toolName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tool request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post tool %s: %w", toolName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read tool response: %w", err)
	}
	r.logger.Debug("tool call", zap.String("tool", toolName), zap.String("request_id", requestID), zap.Int("status", resp.StatusCode))

	decoded, err := decodeResponse(data)
	if err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("tool %s: unexpected status %d", toolName, resp.StatusCode)
		}
		return nil, err
	}
	if !decoded.OK {
		if decoded.Error == nil {
			return nil, domain.NewToolError(domain.ToolErrorBackend, fmt.Sprintf("tool %s failed without error body", toolName))
		}
		toolErr := *decoded.Error
		toolErr.Code = domain.KnownCode(string(toolErr.Code))
		return nil, &toolErr
	}
	return decoded.Result, nil
}

func decodeResponse(data []byte) (callResponse, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var decoded callResponse
	if err := decoder.Decode(&decoded); err != nil {
		return callResponse{}, fmt.Errorf("decode tool response: %w", err)
	}
	return decoded, nil
}
