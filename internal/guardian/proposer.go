package guardian

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/logging"
	"github.com/bnema/finchat/internal/ports"
	"github.com/bnema/finchat/internal/toolcontract"
)

// Proposer asks the plan proposer for a tool call when no deterministic rule matched.
type Proposer struct {
	proposer  ports.PlanProposer
	contracts *toolcontract.Contracts
	logger    *zap.Logger
}

func NewProposer(proposer ports.PlanProposer, contracts *toolcontract.Contracts, logger *zap.Logger) *Proposer {
	if contracts == nil {
		contracts = toolcontract.New(nil)
	}
	return &Proposer{proposer: proposer, contracts: contracts, logger: logging.OrNop(logger)}
}

// Propose returns an allow-listed, contract-valid tool plan, or false. Writes are returned
// like reads; the caller must confirm them before execution.
func (p *Proposer) Propose(ctx context.Context, message string, conversation map[string]any, knownCategories []string) (domain.ToolCallPlan, bool) {
	if p == nil || p.proposer == nil {
		return domain.ToolCallPlan{}, false
	}

	proposal, err := p.proposer.Propose(ctx, ports.ProposeRequest{
		Message:         message,
		Context:         domain.CloneMap(conversation),
		KnownCategories: append([]string(nil), knownCategories...),
		AllowedTools:    p.contracts.AllowedTools(),
	})
	if err != nil {
		p.logger.Warn("plan proposer failed", zap.Error(err))
		return domain.ToolCallPlan{}, false
	}

	toolName := strings.TrimSpace(proposal.ToolName)
	if toolName == "" {
		return domain.ToolCallPlan{}, false
	}
	payload, err := p.contracts.Check(toolName, proposal.Payload)
	if err != nil {
		p.logger.Warn("plan proposal rejected", zap.String("tool", toolName), zap.Error(err))
		return domain.ToolCallPlan{}, false
	}

	return domain.ToolCallPlan{
		ToolName:      toolName,
		Payload:       payload,
		UserReplyHint: strings.TrimSpace(proposal.UserReply),
		Meta:          domain.Meta{Source: domain.SourceProposer},
	}, true
}
