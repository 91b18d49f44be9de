package domain

import (
	"strconv"
	"strings"
)

// QueryMemory remembers the parameters of the last successful read query.
type QueryMemory struct {
	DateRange    *DateRange
	Month        string
	Year         int
	LastToolName string
	LastIntent   string
	Filters      map[string]any
}

func (m QueryMemory) Clone() QueryMemory {
	cloned := m
	if m.DateRange != nil {
		dateRange := *m.DateRange
		cloned.DateRange = &dateRange
	}
	cloned.Filters = CloneMap(m.Filters)
	return cloned
}

func (m QueryMemory) HasPeriod() bool {
	return m.DateRange != nil || m.Month != "" || m.Year != 0
}

// PeriodPayload returns the remembered period as payload entries, date_range first.
func (m QueryMemory) PeriodPayload() Payload {
	switch {
	case m.DateRange != nil:
		return Payload{KeyDateRange: m.DateRange.ToMap()}
	case m.Month != "":
		return Payload{KeyMonth: m.Month}
	case m.Year != 0:
		return Payload{KeyYear: m.Year}
	default:
		return Payload{}
	}
}

func (m QueryMemory) ToMap() map[string]any {
	filters := CloneMap(m.Filters)
	if filters == nil {
		filters = map[string]any{}
	}
	result := map[string]any{"filters": filters}
	if m.DateRange != nil {
		result[KeyDateRange] = m.DateRange.ToMap()
	}
	if m.Month != "" {
		result[KeyMonth] = m.Month
	}
	if m.Year != 0 {
		result[KeyYear] = m.Year
	}
	if m.LastToolName != "" {
		result["last_tool_name"] = m.LastToolName
	}
	if m.LastIntent != "" {
		result["last_intent"] = m.LastIntent
	}
	return result
}

// QueryMemoryFromMap decodes a persisted memory. Malformed fields degrade to absent and
// period or pagination keys never survive as filters.
func QueryMemoryFromMap(raw map[string]any) (QueryMemory, bool) {
	if raw == nil {
		return QueryMemory{}, false
	}

	memory := QueryMemory{
		Month:        stringValue(raw[KeyMonth]),
		Year:         yearValue(raw[KeyYear]),
		LastToolName: stringValue(raw["last_tool_name"]),
		LastIntent:   stringValue(raw["last_intent"]),
		Filters:      map[string]any{},
	}
	if dateRange, ok := DateRangeFromValue(raw[KeyDateRange]); ok {
		memory.DateRange = &dateRange
	}
	if filters, ok := raw["filters"].(map[string]any); ok {
		for key, value := range NormalizeMap(filters) {
			if IsPeriodKey(key) || IsPaginationKey(key) {
				continue
			}
			memory.Filters[key] = value
		}
	}

	return memory, true
}

// NormalizeMap trims keys and string values recursively and drops blank keys.
func NormalizeMap(raw map[string]any) map[string]any {
	normalized := make(map[string]any, len(raw))
	for key, value := range raw {
		cleanKey := strings.TrimSpace(key)
		if cleanKey == "" {
			continue
		}
		normalized[cleanKey] = normalizeValue(value)
	}
	return normalized
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case map[string]any:
		return NormalizeMap(typed)
	case Payload:
		return NormalizeMap(typed)
	case DateRange:
		return typed.ToMap()
	case []any:
		normalized := make([]any, len(typed))
		for i, item := range typed {
			normalized[i] = normalizeValue(item)
		}
		return normalized
	case []string:
		normalized := make([]any, len(typed))
		for i, item := range typed {
			normalized[i] = strings.TrimSpace(item)
		}
		return normalized
	default:
		return value
	}
}

func yearValue(raw any) int {
	switch typed := raw.(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		if typed == float64(int(typed)) {
			return int(typed)
		}
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(typed)); err == nil {
			return parsed
		}
	}
	return 0
}
