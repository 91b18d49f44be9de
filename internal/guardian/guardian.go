// Package guardian escalates uncertain tool plans to an optional verifier and gates whatever
// it suggests through the tool contracts.
package guardian

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/logging"
	"github.com/bnema/finchat/internal/metrics"
	"github.com/bnema/finchat/internal/ports"
	"github.com/bnema/finchat/internal/toolcontract"
)

// ClarifyQuestion is asked when a plan cannot be trusted and nobody offered a better question.
const ClarifyQuestion = "Pouvez-vous préciser votre demande ? Indiquez par exemple la période ou le marchand."

const (
	reasonNoVerifier     = "verifier_unavailable"
	reasonVerifierFailed = "verifier_failed"
	reasonRepairRejected = "repair_rejected"
)

type Guardian struct {
	verifier  ports.Verifier
	contracts *toolcontract.Contracts
	logger    *zap.Logger
}

// New returns a guardian. A nil verifier makes every review use the fixed fallback rule.
func New(verifier ports.Verifier, contracts *toolcontract.Contracts, logger *zap.Logger) *Guardian {
	if contracts == nil {
		contracts = toolcontract.New(nil)
	}
	return &Guardian{verifier: verifier, contracts: contracts, logger: logging.OrNop(logger)}
}

// Request is the input of one guardian escalation.
type Request struct {
	Message         string
	Plan            domain.Plan
	Context         map[string]any
	KnownCategories []string
}

// Review returns the plan to continue with. Plans that are not tool calls, or that scored high,
// come back unchanged. The verifier is never allowed to fail the turn.
func (g *Guardian) Review(ctx context.Context, review Request) domain.Plan {
	plan, ok := review.Plan.(domain.ToolCallPlan)
	if !ok || plan.Meta.Confidence.Rank() == domain.ConfidenceHigh.Rank() {
		return review.Plan
	}

	if g.verifier == nil {
		return g.fallback(plan, domain.VerdictApprove, reasonNoVerifier)
	}

	response, err := g.verifier.Verify(ctx, ports.VerifyRequest{
		Message:         review.Message,
		ToolName:        plan.ToolName,
		Payload:         domain.CloneMap(plan.Payload),
		Confidence:      plan.Meta.Confidence,
		Reasons:         append([]string(nil), plan.Meta.ConfidenceReasons...),
		Context:         domain.CloneMap(review.Context),
		KnownCategories: append([]string(nil), review.KnownCategories...),
		AllowedTools:    g.contracts.AllowedTools(),
	})
	if err != nil {
		g.logger.Warn("verifier call failed", zap.String("tool", plan.ToolName), zap.Error(err))
		return g.fallback(plan, domain.VerdictApprove, reasonVerifierFailed)
	}

	switch response.Verdict {
	case domain.VerdictClarify:
		question := strings.TrimSpace(response.Question)
		if question == "" {
			question = ClarifyQuestion
		}
		metrics.ObserveGuardian(string(domain.VerdictClarify), false)
		return domain.ClarificationPlan{
			Question: question,
			Meta:     withVerdict(plan.Meta, domain.VerdictClarify, response.Reason, false),
		}
	case domain.VerdictRepair:
		return g.repair(plan, response)
	default:
		metrics.ObserveGuardian(string(domain.VerdictApprove), false)
		return plan.WithMeta(withVerdict(plan.Meta, domain.VerdictApprove, response.Reason, false))
	}
}

func (g *Guardian) repair(plan domain.ToolCallPlan, response ports.VerifyResponse) domain.Plan {
	toolName := strings.TrimSpace(response.ToolName)
	if toolName == "" {
		toolName = plan.ToolName
	}

	payload, err := g.contracts.Check(toolName, response.Payload)
	if err != nil {
		g.logger.Warn("verifier repair rejected", zap.String("tool", toolName), zap.Error(err))
		return g.fallback(plan, domain.VerdictRepair, reasonRepairRejected)
	}

	reply := strings.TrimSpace(response.UserReply)
	if reply == "" {
		reply = plan.UserReplyHint
	}
	meta := withVerdict(plan.Meta, domain.VerdictRepair, response.Reason, false)
	meta.Source = domain.SourceGuardianRepair
	metrics.ObserveGuardian(string(domain.VerdictRepair), false)

	return domain.ToolCallPlan{
		ToolName:      toolName,
		Payload:       payload,
		UserReplyHint: reply,
		Meta:          meta,
	}
}

// fallback applies the rule used without a usable verifier answer: low confidence asks the
// user, anything else keeps the deterministic plan.
func (g *Guardian) fallback(plan domain.ToolCallPlan, verdict domain.GuardianVerdict, reason string) domain.Plan {
	if plan.Meta.Confidence == domain.ConfidenceLow {
		metrics.ObserveGuardian(string(domain.VerdictClarify), true)
		return domain.ClarificationPlan{
			Question: ClarifyQuestion,
			Meta:     withVerdict(plan.Meta, domain.VerdictClarify, reason, true),
		}
	}
	metrics.ObserveGuardian(string(verdict), true)
	return plan.WithMeta(withVerdict(plan.Meta, verdict, reason, true))
}

func withVerdict(meta domain.Meta, verdict domain.GuardianVerdict, reason string, fallback bool) domain.Meta {
	cloned := meta.Clone()
	cloned.Guardian = &domain.GuardianMeta{Verdict: verdict, Reason: reason, Fallback: fallback}
	return cloned
}
