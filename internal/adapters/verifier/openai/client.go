// Package openai implements the verifier and the plan proposer over an OpenAI-compatible chat
// completion API, using forced function calls so answers come back as structured arguments.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/logging"
	"github.com/bnema/finchat/internal/ports"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 15 * time.Second

	verdictFunction  = "guardian_verdict"
	proposalFunction = "propose_tool_call"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client answers both ports with one completion per call. It never retries.
type Client struct {
	api    *gopenai.Client
	model  string
	logger *zap.Logger
}

var (
	_ ports.Verifier     = (*Client)(nil)
	_ ports.PlanProposer = (*Client)(nil)
)

// New builds a client. httpClient may be nil; its timeout is set from cfg when unset.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is empty: %w", domain.ErrVerifierUnavailable)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	clientConfig := gopenai.DefaultConfig(apiKey)
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = httpClient

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		api:    gopenai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logging.OrNop(logger),
	}, nil
}

type verdictArguments struct {
	Verdict   string         `json:"verdict"`
	ToolName  string         `json:"tool_name"`
	Payload   map[string]any `json:"payload"`
	UserReply string         `json:"user_reply"`
	Question  string         `json:"question"`
	Reason    string         `json:"reason"`
}

func (c *Client) Verify(ctx context.Context, req ports.VerifyRequest) (ports.VerifyResponse, error) {
	input := map[string]any{
		"message": req.Message,
		"plan": map[string]any{
			"tool_name":  req.ToolName,
			"payload":    req.Payload,
			"confidence": string(req.Confidence),
			"reasons":    req.Reasons,
		},
		"context":          req.Context,
		"known_categories": req.KnownCategories,
		"allowed_tools":    req.AllowedTools,
	}

	var args verdictArguments
	if err := c.callFunction(ctx, verifierPrompt, input, verdictTool(req.AllowedTools), &args); err != nil {
		return ports.VerifyResponse{}, err
	}

	verdict := domain.GuardianVerdict(strings.ToLower(strings.TrimSpace(args.Verdict)))
	switch verdict {
	case domain.VerdictApprove, domain.VerdictRepair, domain.VerdictClarify:
	default:
		return ports.VerifyResponse{}, fmt.Errorf("unknown verdict %q: %w", args.Verdict, domain.ErrVerifierUnavailable)
	}

	return ports.VerifyResponse{
		Verdict:   verdict,
		ToolName:  strings.TrimSpace(args.ToolName),
		Payload:   args.Payload,
		UserReply: strings.TrimSpace(args.UserReply),
		Question:  strings.TrimSpace(args.Question),
		Reason:    strings.TrimSpace(args.Reason),
	}, nil
}

type proposalArguments struct {
	ToolName  string         `json:"tool_name"`
	Payload   map[string]any `json:"payload"`
	UserReply string         `json:"user_reply"`
}

func (c *Client) Propose(ctx context.Context, req ports.ProposeRequest) (ports.Proposal, error) {
	input := map[string]any{
		"message":          req.Message,
		"context":          req.Context,
		"known_categories": req.KnownCategories,
		"allowed_tools":    req.AllowedTools,
	}

	var args proposalArguments
	if err := c.callFunction(ctx, proposerPrompt, input, proposalTool(req.AllowedTools), &args); err != nil {
		return ports.Proposal{}, err
	}
	return ports.Proposal{
		ToolName:  strings.TrimSpace(args.ToolName),
		Payload:   args.Payload,
		UserReply: strings.TrimSpace(args.UserReply),
	}, nil
}

// callFunction sends one completion that must answer through tool and decodes its arguments.
func (c *Client) callFunction(ctx context.Context, systemPrompt string, input map[string]any, tool gopenai.Tool, target any) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encode %s input: %w", tool.Function.Name, err)
	}

	started := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: gopenai.ChatMessageRoleUser, Content: string(body)},
		},
		Tools: []gopenai.Tool{tool},
		ToolChoice: gopenai.ToolChoice{
			Type:     gopenai.ToolTypeFunction,
			Function: gopenai.ToolFunction{Name: tool.Function.Name},
		},
	})
	if err != nil {
		var apiErr *gopenai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Debug("openai api error", zap.Int("status", apiErr.HTTPStatusCode), zap.String("function", tool.Function.Name))
		}
		return fmt.Errorf("call %s: %w", tool.Function.Name, err)
	}
	c.logger.Debug("openai completion",
		zap.String("function", tool.Function.Name),
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(started)),
	)

	arguments, err := functionArguments(resp, tool.Function.Name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(arguments), target); err != nil {
		return fmt.Errorf("decode %s arguments: %w", tool.Function.Name, err)
	}
	return nil
}

func functionArguments(resp gopenai.ChatCompletionResponse, name string) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices returned: %w", name, domain.ErrVerifierUnavailable)
	}
	message := resp.Choices[0].Message
	for _, call := range message.ToolCalls {
		if call.Function.Name == name {
			return call.Function.Arguments, nil
		}
	}
	if message.FunctionCall != nil && message.FunctionCall.Name == name {
		return message.FunctionCall.Arguments, nil
	}
	return "", fmt.Errorf("%s: no function call in answer: %w", name, domain.ErrVerifierUnavailable)
}
