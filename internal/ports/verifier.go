package ports

import (
	"context"

	"github.com/bnema/finchat/internal/domain"
)

type VerifyRequest struct {
	Message         string
	ToolName        string
	Payload         map[string]any
	Confidence      domain.Confidence
	Reasons         []string
	Context         map[string]any
	KnownCategories []string
	AllowedTools    []string
}

type VerifyResponse struct {
	Verdict   domain.GuardianVerdict
	ToolName  string
	Payload   map[string]any
	UserReply string
	Question  string
	Reason    string
}

// Verifier is the optional second-opinion judge consulted for non-high-confidence plans.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (VerifyResponse, error)
}

type ProposeRequest struct {
	Message         string
	Context         map[string]any
	KnownCategories []string
	AllowedTools    []string
}

type Proposal struct {
	ToolName  string
	Payload   map[string]any
	UserReply string
}

// PlanProposer suggests a tool call for messages no deterministic rule understood.
type PlanProposer interface {
	Propose(ctx context.Context, req ProposeRequest) (Proposal, error)
}
