// Package memory remembers the last read query and resolves short follow-up messages against it.
package memory

import (
	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/grammar"
)

var toolIntents = map[string]string{
	domain.ToolRelevesSearch:    "search",
	domain.ToolRelevesSum:       "sum",
	domain.ToolRelevesAggregate: "aggregate",
}

// ExtractFromPlan builds the memory of an executed read query. It returns nil for writes
// and for payloads that carry nothing worth remembering.
//
// A category filter is kept only when it names one of the known categories; anything else,
// including date-looking values left by a bad turn, is dropped.
func ExtractFromPlan(toolName string, payload domain.Payload, knownCategories []string) *domain.QueryMemory {
	if !domain.IsQueryTool(toolName) {
		return nil
	}

	normalized := domain.NormalizeMap(payload)
	if len(normalized) == 0 {
		return nil
	}

	period, _ := domain.QueryMemoryFromMap(normalized)
	memory := domain.QueryMemory{
		DateRange:    period.DateRange,
		Month:        period.Month,
		Year:         period.Year,
		LastToolName: toolName,
		LastIntent:   toolIntents[toolName],
		Filters:      map[string]any{},
	}

	for key, value := range normalized {
		if domain.IsPeriodKey(key) || domain.IsPaginationKey(key) || isBlank(value) {
			continue
		}
		if key == domain.KeyCategory {
			category, ok := rememberedCategory(value, knownCategories)
			if !ok {
				continue
			}
			value = category
		}
		memory.Filters[key] = value
	}

	return &memory
}

func rememberedCategory(value any, known []string) (string, bool) {
	name, ok := value.(string)
	if !ok || grammar.LooksLikeNonCategory(name) {
		return "", false
	}
	return grammar.CanonicalCategory(name, known)
}

func isBlank(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	default:
		return false
	}
}
