package domain

import (
	"strings"
	"time"
)

type ActiveTaskType string

const (
	TaskNeedsConfirmation        ActiveTaskType = "needs_confirmation"
	TaskConfirmDeleteCategory    ActiveTaskType = "confirm_delete_category"
	TaskConfirmDeleteBankAccount ActiveTaskType = "confirm_delete_bank_account"
	TaskSelectBankAccount        ActiveTaskType = "select_bank_account"
	TaskAwaitingSearchMerchant   ActiveTaskType = "awaiting_search_merchant"
	TaskAwaitingBankAccountName  ActiveTaskType = "awaiting_bank_account_name"
	TaskClarificationPending     ActiveTaskType = "clarification_pending"
)

type ClarificationType string

const (
	ClarifyDirectionChoice  ClarificationType = "direction_choice"
	ClarifyMissingDirection ClarificationType = "missing_direction"
	ClarifyMissingYear      ClarificationType = "missing_year"
	ClarifyMerchantKeyword  ClarificationType = "merchant_vs_keyword"
	ClarifyPreventWrite     ClarificationType = "prevent_write_on_followup"
)

const SourceConfirmLLMWrite = "confirm_llm_write"

// DefaultActiveTaskTTL bounds how long a pending task may wait for its answer.
const DefaultActiveTaskTTL = 600 * time.Second

type AccountCandidate struct {
	ID   string
	Name string
}

// ActiveTask is an interrupted multi-turn operation persisted by the caller.
type ActiveTask struct {
	Type      ActiveTaskType
	CreatedAt time.Time

	// ToolName and Payload describe the call replayed once the task resolves.
	ToolName string
	Payload  Payload
	Source   string

	ClarificationType ClarificationType
	Question          string
	// Subject is the name the task is about: a category, an account or a focus term.
	Subject     string
	Merchant    string
	Keyword     string
	Candidates  []AccountCandidate
	Suggestions []string
	// PeriodPayload carries period keys to reuse when the clarification is answered.
	PeriodPayload Payload
}

func (t ActiveTask) Clone() ActiveTask {
	cloned := t
	cloned.Payload = t.Payload.Clone()
	cloned.PeriodPayload = t.PeriodPayload.Clone()
	cloned.Candidates = append([]AccountCandidate(nil), t.Candidates...)
	cloned.Suggestions = append([]string(nil), t.Suggestions...)
	return cloned
}

// IsStale reports whether the task outlived ttl. Tasks without a timestamp never expire.
func (t ActiveTask) IsStale(now time.Time, ttl time.Duration) bool {
	if t.CreatedAt.IsZero() || ttl <= 0 {
		return false
	}
	return now.Sub(t.CreatedAt) > ttl
}

func (t ActiveTask) IsConfirmation() bool {
	switch t.Type {
	case TaskNeedsConfirmation, TaskConfirmDeleteCategory, TaskConfirmDeleteBankAccount:
		return true
	default:
		return false
	}
}

// ToMap renders the persisted {type, created_at, context} record.
func (t ActiveTask) ToMap() map[string]any {
	context := map[string]any{}
	putString(context, "tool_name", t.ToolName)
	if t.Payload != nil {
		context["payload"] = map[string]any(t.Payload.Clone())
	}
	putString(context, "source", t.Source)
	putString(context, "clarification_type", string(t.ClarificationType))
	putString(context, "question", t.Question)
	putString(context, "subject", t.Subject)
	putString(context, "merchant", t.Merchant)
	putString(context, "keyword", t.Keyword)
	if len(t.Candidates) > 0 {
		candidates := make([]any, 0, len(t.Candidates))
		for _, candidate := range t.Candidates {
			candidates = append(candidates, map[string]any{"id": candidate.ID, "name": candidate.Name})
		}
		context["candidates"] = candidates
	}
	if len(t.Suggestions) > 0 {
		suggestions := make([]any, 0, len(t.Suggestions))
		for _, suggestion := range t.Suggestions {
			suggestions = append(suggestions, suggestion)
		}
		context["suggestions"] = suggestions
	}
	if t.PeriodPayload != nil {
		context["period_payload"] = map[string]any(t.PeriodPayload.Clone())
	}

	result := map[string]any{
		"type":    string(t.Type),
		"context": context,
	}
	if !t.CreatedAt.IsZero() {
		result["created_at"] = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	return result
}

// ActiveTaskFromMap decodes a persisted task. A record without a type is rejected.
func ActiveTaskFromMap(raw map[string]any) (ActiveTask, bool) {
	if raw == nil {
		return ActiveTask{}, false
	}
	taskType, _ := raw["type"].(string)
	taskType = strings.TrimSpace(taskType)
	if taskType == "" {
		return ActiveTask{}, false
	}

	task := ActiveTask{Type: ActiveTaskType(taskType)}
	if createdAt, ok := raw["created_at"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
			task.CreatedAt = parsed
		}
	}
	if createdAt, ok := raw["created_at"].(time.Time); ok {
		task.CreatedAt = createdAt
	}

	context, _ := raw["context"].(map[string]any)
	task.ToolName = stringValue(context["tool_name"])
	task.Payload = payloadValue(context["payload"])
	task.Source = stringValue(context["source"])
	task.ClarificationType = ClarificationType(stringValue(context["clarification_type"]))
	task.Question = stringValue(context["question"])
	task.Subject = stringValue(context["subject"])
	task.Merchant = stringValue(context["merchant"])
	task.Keyword = stringValue(context["keyword"])
	task.PeriodPayload = payloadValue(context["period_payload"])

	if rawCandidates, ok := context["candidates"].([]any); ok {
		for _, rawCandidate := range rawCandidates {
			entry, ok := rawCandidate.(map[string]any)
			if !ok {
				continue
			}
			candidate := AccountCandidate{ID: stringValue(entry["id"]), Name: stringValue(entry["name"])}
			if candidate.Name == "" {
				continue
			}
			task.Candidates = append(task.Candidates, candidate)
		}
	}
	switch suggestions := context["suggestions"].(type) {
	case []any:
		for _, suggestion := range suggestions {
			if value := stringValue(suggestion); value != "" {
				task.Suggestions = append(task.Suggestions, value)
			}
		}
	case []string:
		task.Suggestions = append(task.Suggestions, suggestions...)
	}

	return task, true
}

func putString(target map[string]any, key, value string) {
	if value != "" {
		target[key] = value
	}
}

func stringValue(raw any) string {
	value, _ := raw.(string)
	return strings.TrimSpace(value)
}

func payloadValue(raw any) Payload {
	switch typed := raw.(type) {
	case map[string]any:
		return Payload(typed).Clone()
	case Payload:
		return typed.Clone()
	default:
		return nil
	}
}
