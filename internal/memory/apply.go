package memory

import (
	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/grammar"
)

// ApplyToPlan merges remembered values into a read plan. Precedence is: value stated in the
// message, then value already in the payload, then remembered value. The message always
// wins because the planner has already written its explicit values into the payload.
//
// The period is filled when the payload has none. Other filters are filled only when the
// message reads as a follow-up. A remembered merchant or search term never joins a totals
// query that carries a category, and a remembered category is replayed only while it is
// still in knownCategories. The returned reason is empty when nothing was injected.
func ApplyToPlan(message string, plan domain.Plan, memory *domain.QueryMemory, knownCategories []string) (domain.Plan, string) {
	toolPlan, ok := plan.(domain.ToolCallPlan)
	if !ok || memory == nil || !domain.IsQueryTool(toolPlan.ToolName) {
		return plan, ""
	}
	memory = replayable(memory, knownCategories)

	payload := toolPlan.Payload.Clone()
	if payload == nil {
		payload = domain.Payload{}
	}
	meta := toolPlan.Meta.Clone()
	reasons := make([]string, 0, 2)

	if !payload.HasPeriod() && !grammar.HasExplicitPeriod(message) {
		if period := memory.PeriodPayload(); len(period) > 0 {
			for key, value := range period {
				payload[key] = value
			}
			meta.MemoryInjected = append(meta.MemoryInjected, period.Keys()...)
			reasons = append(reasons, domain.MemoryReasonPeriod)
		}
	}

	if grammar.IsFollowupMessage(message) {
		if injected := mergeMissingFilters(toolPlan.ToolName, payload, memory.Filters); len(injected) > 0 {
			meta.MemoryInjected = append(meta.MemoryInjected, injected...)
			meta.FollowupFromMemory = true
			reasons = append(reasons, domain.MemoryReasonFilters)
		}
	}

	if len(reasons) == 0 {
		return plan, ""
	}

	meta.MemoryReason = domain.AppendMemoryReason(meta.MemoryReason, reasons...)
	meta.MemoryInjected = domain.DedupeReasons(meta.MemoryInjected)
	updated := toolPlan.WithPayload(payload).WithMeta(meta)
	return updated, meta.MemoryReason
}

func mergeMissingFilters(toolName string, payload domain.Payload, filters map[string]any) []string {
	remembered := domain.Payload(filters).Clone()
	injected := make([]string, 0, len(remembered))
	isSum := toolName == domain.ToolRelevesSum

	for _, key := range remembered.Keys() {
		if domain.IsPeriodKey(key) || domain.IsPaginationKey(key) || payload.Has(key) {
			continue
		}
		hasTerm := payload.Has(domain.KeyMerchant) || payload.Has(domain.KeySearch)
		if (key == domain.KeyMerchant || key == domain.KeySearch) && (hasTerm || (isSum && payload.Has(domain.KeyCategory))) {
			continue
		}
		if key == domain.KeyCategory && isSum && hasTerm {
			continue
		}
		if key == domain.KeyGroupBy && toolName != domain.ToolRelevesAggregate {
			continue
		}
		payload[key] = remembered[key]
		injected = append(injected, key)
	}
	return injected
}

// replayable returns memory without a remembered category missing from known. A known
// category is restored to its stored casing.
func replayable(memory *domain.QueryMemory, known []string) *domain.QueryMemory {
	raw, ok := memory.Filters[domain.KeyCategory]
	if !ok {
		return memory
	}
	cloned := memory.Clone()
	name, _ := raw.(string)
	if canonical, found := grammar.CanonicalCategory(name, known); found {
		cloned.Filters[domain.KeyCategory] = canonical
	} else {
		delete(cloned.Filters, domain.KeyCategory)
	}
	return &cloned
}
