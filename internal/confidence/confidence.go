// Package confidence grades how much of a read plan is backed by the message that produced it.
package confidence

import (
	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/grammar"
	"github.com/bnema/finchat/internal/ports"
	"github.com/bnema/finchat/internal/textnorm"
)

const (
	ReasonExplicitIntent           = "explicit_intent"
	ReasonExplicitPeriod           = "explicit_period"
	ReasonExplicitFilter           = "explicit_filter"
	ReasonPeriodMissingInMessage   = "period_missing_in_message"
	ReasonPeriodInjectedFromMemory = "period_injected_from_memory"
	ReasonCategoryInferred         = "category_inferred"
	ReasonMerchantInferred         = "merchant_inferred"
	ReasonMerchantConflict         = "merchant_conflict"
	ReasonCategoryConflict         = "category_conflict"
	ReasonPeriodConflict           = "period_conflict"
	ReasonAmbiguousRelativePeriod  = "ambiguous_relative_period"
	ReasonFollowupWithoutContext   = "followup_without_context"
)

type Scorer struct {
	clock ports.Clock
}

func New(clock ports.Clock) *Scorer {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Scorer{clock: clock}
}

// grade accumulates reasons; a lower level is never raised again.
type grade struct {
	level   domain.Confidence
	reasons []string
}

func (g *grade) lower(level domain.Confidence, reason string) {
	if level.Rank() < g.level.Rank() {
		g.level = level
	}
	g.reasons = append(g.reasons, reason)
}

// Score annotates a read tool plan with a confidence level and its reasons.
// The payload is never changed and other plans are returned as is.
func (s *Scorer) Score(message string, plan domain.Plan, memory *domain.QueryMemory) domain.Plan {
	toolPlan, ok := plan.(domain.ToolCallPlan)
	if !ok || !domain.IsQueryTool(toolPlan.ToolName) {
		return plan
	}

	result := s.grade(message, toolPlan, memory)
	meta := toolPlan.Meta.Clone()
	meta.Confidence = result.level
	meta.ConfidenceReasons = domain.DedupeReasons(append(meta.ConfidenceReasons, result.reasons...))
	return toolPlan.WithMeta(meta)
}

func (s *Scorer) grade(message string, plan domain.ToolCallPlan, memory *domain.QueryMemory) grade {
	result := grade{level: domain.ConfidenceHigh}
	payload := plan.Payload
	explicitPeriod := grammar.HasExplicitPeriod(message)
	inferred := false

	if merchant, ok := payload.String(domain.KeyMerchant); ok {
		if mention, stated := grammar.ExtractMerchant(message); stated && !textnorm.Equal(mention.Name, merchant) {
			result.lower(domain.ConfidenceLow, ReasonMerchantConflict)
		} else if !textnorm.ContainsWord(message, merchant) {
			result.lower(domain.ConfidenceMedium, ReasonMerchantInferred)
			inferred = true
		}
	}

	if category, ok := payload.String(domain.KeyCategory); ok {
		if stated, found := grammar.ExplicitCategory(message); found && !textnorm.Equal(stated, category) {
			result.lower(domain.ConfidenceLow, ReasonCategoryConflict)
		} else if !textnorm.ContainsWord(message, category) {
			result.lower(domain.ConfidenceMedium, ReasonCategoryInferred)
			inferred = true
		}
	}

	if dateRange, ok := payload.DateRange(); ok {
		switch {
		case explicitPeriod:
			if s.periodConflicts(message, dateRange) {
				result.lower(domain.ConfidenceLow, ReasonPeriodConflict)
			}
		case plan.Meta.PeriodFromMemory():
			result.lower(domain.ConfidenceMedium, ReasonPeriodMissingInMessage)
			result.lower(domain.ConfidenceLow, ReasonPeriodInjectedFromMemory)
		default:
			result.lower(domain.ConfidenceMedium, ReasonPeriodMissingInMessage)
			inferred = true
		}
	}

	if inferred && memory == nil && grammar.IsFollowupMessage(message) {
		result.lower(domain.ConfidenceLow, ReasonFollowupWithoutContext)
	}

	if grammar.HasAmbiguousRelative(message) {
		result.lower(domain.ConfidenceLow, ReasonAmbiguousRelativePeriod)
	}

	if result.level == domain.ConfidenceHigh {
		result.reasons = append(result.reasons, explicitReasons(message, payload, explicitPeriod)...)
	}

	return result
}

// periodConflicts compares the period stated in message with the payload's. Yearless months
// resolve to the year nearest the payload period.
func (s *Scorer) periodConflicts(message string, dateRange domain.DateRange) bool {
	policy := grammar.NearestPolicy(dateRange.Start.Year(), dateRange.Start.Month())
	parsed := grammar.ParsePeriodWith(message, s.clock.Now(), policy)
	if !parsed.Found() {
		return false
	}
	return !parsed.Range.Equal(dateRange)
}

func explicitReasons(message string, payload domain.Payload, explicitPeriod bool) []string {
	reasons := make([]string, 0, 3)
	if grammar.HasIntentKeyword(message) {
		reasons = append(reasons, ReasonExplicitIntent)
	}
	if explicitPeriod {
		reasons = append(reasons, ReasonExplicitPeriod)
	}
	for _, key := range []string{domain.KeyMerchant, domain.KeyCategory, domain.KeySearch} {
		if value, ok := payload.String(key); ok && textnorm.ContainsWord(message, value) {
			reasons = append(reasons, ReasonExplicitFilter)
			break
		}
	}
	return reasons
}
