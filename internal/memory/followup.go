package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/grammar"
	"github.com/bnema/finchat/internal/textnorm"
)

// Follow-up reasons recorded in plan meta.
const (
	ReasonNewPeriod    = "followup_new_period"
	ReasonMerchant     = "followup_merchant"
	ReasonCategory     = "followup_category"
	ReasonContinuation = "followup_continuation"
)

const defaultSearchLimit = 50

// prefixFillers are words that may precede "chez" without naming a search term.
var prefixFillers = map[string]struct{}{
	"et": {}, "ok": {}, "alors": {}, "aussi": {}, "pareil": {}, "idem": {}, "puis": {}, "mais": {},
	"la": {}, "le": {}, "les": {}, "l'": {}, "pour": {}, "?": {}, "meme": {}, "chose": {},
}

// Resolver turns a short follow-up message into a plan built from the remembered query.
type Resolver struct {
	today time.Time
}

func NewResolver(today time.Time) Resolver {
	return Resolver{today: today}
}

// FollowupPlan returns nil when message is not a continuation of memory.
func (r Resolver) FollowupPlan(message string, memory *domain.QueryMemory, knownCategories []string) domain.Plan {
	if memory == nil || memory.LastToolName == "" || !domain.IsQueryTool(memory.LastToolName) {
		return nil
	}
	if grammar.HasIntentKeyword(message) || !grammar.IsFollowupMessage(message) {
		return nil
	}
	memory = replayable(memory, knownCategories)

	if mention, ok := grammar.ExtractMerchant(message); ok {
		return r.merchantFollowup(message, mention, memory)
	}

	if category, ok := grammar.MatchKnownCategory(message, knownCategories); ok {
		return r.categoryFollowup(message, category, memory)
	}

	if plan, ok := r.periodFollowup(message, memory); ok {
		return plan
	}

	if grammar.IsContinuationOnly(message) {
		return continuationPlan(memory)
	}

	return nil
}

func (r Resolver) merchantFollowup(message string, mention grammar.MerchantMention, memory *domain.QueryMemory) domain.Plan {
	filters := domain.Payload(memory.Filters).Without(domain.KeyCategory, domain.KeyMerchant, domain.KeySearch)
	period, periodFromMemory, ok := r.periodFor(message, memory)
	if !ok {
		return nil
	}

	if keyword := bareTerm(mention.Prefix); keyword != "" {
		question := fmt.Sprintf("Voulez-vous chercher « %s » chez %s, ou toutes les opérations chez %s ?", keyword, mention.Display, mention.Display)
		task := domain.ActiveTask{
			Type:              domain.TaskClarificationPending,
			CreatedAt:         r.today,
			ToolName:          memory.LastToolName,
			Payload:           filters,
			ClarificationType: domain.ClarifyMerchantKeyword,
			Question:          question,
			Merchant:          mention.Name,
			Keyword:           keyword,
			PeriodPayload:     period,
		}
		return domain.ClarificationPlan{
			Question: question,
			Meta: domain.Meta{
				Source:               domain.SourceFollowup,
				FollowupReason:       ReasonMerchant,
				PendingClarification: &task,
			},
		}
	}

	payload := mergePayload(filters, period).With(domain.KeyMerchant, mention.Name)
	payload = withSearchDefaults(memory.LastToolName, payload)
	return followupToolPlan(memory.LastToolName, payload, ReasonMerchant, filters.Keys(), period, periodFromMemory)
}

func (r Resolver) periodFollowup(message string, memory *domain.QueryMemory) (domain.Plan, bool) {
	if !grammar.HasExplicitPeriod(message) {
		return nil, false
	}
	period, periodFromMemory, ok := r.periodFor(message, memory)
	if !ok || periodFromMemory {
		return nil, false
	}

	filters := domain.Payload(memory.Filters).Clone()
	payload := withSearchDefaults(memory.LastToolName, mergePayload(filters, period))
	return followupToolPlan(memory.LastToolName, payload, ReasonNewPeriod, filters.Keys(), period, false), true
}

func (r Resolver) categoryFollowup(message, category string, memory *domain.QueryMemory) domain.Plan {
	period, periodFromMemory, ok := r.periodFor(message, memory)
	if !ok {
		return nil
	}

	injected := make([]string, 0, 1)
	direction, ok := memory.Filters[domain.KeyDirection].(string)
	if ok && direction != "" {
		injected = append(injected, domain.KeyDirection)
	} else {
		direction = domain.DirectionDebitOnly
	}

	payload := mergePayload(domain.Payload{
		domain.KeyCategory:  category,
		domain.KeyDirection: direction,
	}, period)
	return followupToolPlan(domain.ToolRelevesSum, payload, ReasonCategory, injected, period, periodFromMemory)
}

func continuationPlan(memory *domain.QueryMemory) domain.Plan {
	filters := domain.Payload(memory.Filters).Clone()
	period := memory.PeriodPayload()
	payload := withSearchDefaults(memory.LastToolName, mergePayload(filters, period))
	return followupToolPlan(memory.LastToolName, payload, ReasonContinuation, filters.Keys(), period, len(period) > 0)
}

// periodFor returns the period stated in message, resolving yearless months against the
// remembered period, or the remembered period itself. ok is false when a month is stated
// without a year and nothing anchors it.
func (r Resolver) periodFor(message string, memory *domain.QueryMemory) (domain.Payload, bool, bool) {
	anchor, hasAnchor := anchorMonth(memory)
	policy := grammar.TodayPolicy(r.today)
	if hasAnchor {
		policy = grammar.NearestPolicy(anchor.Year(), anchor.Month())
	}

	parsed := grammar.ParsePeriodWith(message, r.today, policy)
	if parsed.MissingYear != nil {
		return nil, false, false
	}
	if parsed.Found() {
		return domain.Payload{domain.KeyDateRange: parsed.Range.ToMap()}, false, true
	}
	remembered := memory.PeriodPayload()
	return remembered, len(remembered) > 0, true
}

func anchorMonth(memory *domain.QueryMemory) (time.Time, bool) {
	if memory.DateRange == nil || memory.DateRange.IsZero() {
		return time.Time{}, false
	}
	return memory.DateRange.Start, true
}

// bareTerm returns the search term typed before "chez", if any, lowercased with its accents.
// Fillers are recognized on the folded form.
func bareTerm(prefix string) string {
	words := make([]string, 0, 4)
	for _, word := range strings.Fields(prefix) {
		word = strings.Trim(word, "?!.,;:«»\"“”")
		if word == "" || isFiller(word) {
			continue
		}
		words = append(words, strings.ToLower(word))
	}
	return strings.Join(words, " ")
}

func isFiller(word string) bool {
	for _, token := range textnorm.Tokens(word) {
		if _, filler := prefixFillers[token]; !filler {
			return false
		}
	}
	return true
}

func mergePayload(base, period domain.Payload) domain.Payload {
	merged := base.Clone()
	if merged == nil {
		merged = domain.Payload{}
	}
	for key, value := range period {
		merged[key] = value
	}
	return merged
}

func withSearchDefaults(toolName string, payload domain.Payload) domain.Payload {
	if toolName != domain.ToolRelevesSearch {
		return payload
	}
	if !payload.Has(domain.KeyLimit) {
		payload = payload.With(domain.KeyLimit, defaultSearchLimit)
	}
	if !payload.Has(domain.KeyOffset) {
		payload = payload.With(domain.KeyOffset, 0)
	}
	return payload
}

func followupToolPlan(toolName string, payload domain.Payload, reason string, filterKeys []string, period domain.Payload, periodFromMemory bool) domain.Plan {
	meta := domain.Meta{
		Source:         domain.SourceFollowup,
		FollowupReason: reason,
	}
	if len(filterKeys) > 0 {
		meta.FollowupFromMemory = true
		meta.MemoryReason = domain.AppendMemoryReason(meta.MemoryReason, domain.MemoryReasonFilters)
		meta.MemoryInjected = append(meta.MemoryInjected, filterKeys...)
	}
	if periodFromMemory {
		meta.MemoryReason = domain.AppendMemoryReason(meta.MemoryReason, domain.MemoryReasonPeriod)
		meta.MemoryInjected = append(meta.MemoryInjected, period.Keys()...)
	}

	return domain.ToolCallPlan{
		ToolName:      toolName,
		Payload:       payload,
		UserReplyHint: "Voici le résultat pour cette nouvelle demande.",
		Meta:          meta,
	}
}
