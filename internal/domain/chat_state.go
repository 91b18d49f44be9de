package domain

import "strings"

// ChatState is the caller-owned conversation state for one profile.
type ChatState struct {
	ActiveTask           *ActiveTask
	LastQuery            *QueryMemory
	KnownCategories      []string
	PendingClarification *ActiveTask
	// Extra holds state sub-keys owned by other features, passed through untouched.
	Extra map[string]any
}

const (
	stateKeyLastQuery            = "last_query"
	stateKeyKnownCategories      = "known_categories"
	stateKeyPendingClarification = "pending_clarification"
)

func (s ChatState) Clone() ChatState {
	cloned := ChatState{
		KnownCategories: append([]string(nil), s.KnownCategories...),
		Extra:           CloneMap(s.Extra),
	}
	if s.ActiveTask != nil {
		task := s.ActiveTask.Clone()
		cloned.ActiveTask = &task
	}
	if s.LastQuery != nil {
		memory := s.LastQuery.Clone()
		cloned.LastQuery = &memory
	}
	if s.PendingClarification != nil {
		task := s.PendingClarification.Clone()
		cloned.PendingClarification = &task
	}
	return cloned
}

// ToMap renders {active_task, state: {...}} with opaque sub-keys preserved.
func (s ChatState) ToMap() map[string]any {
	state := CloneMap(s.Extra)
	if state == nil {
		state = map[string]any{}
	}
	if s.LastQuery != nil {
		state[stateKeyLastQuery] = s.LastQuery.ToMap()
	}
	categories := make([]any, 0, len(s.KnownCategories))
	for _, category := range s.KnownCategories {
		categories = append(categories, category)
	}
	state[stateKeyKnownCategories] = categories
	if s.PendingClarification != nil {
		state[stateKeyPendingClarification] = s.PendingClarification.ToMap()
	}

	result := map[string]any{"state": state}
	if s.ActiveTask != nil {
		result["active_task"] = s.ActiveTask.ToMap()
	}
	return result
}

func ChatStateFromMap(raw map[string]any) ChatState {
	var chatState ChatState
	if raw == nil {
		return chatState
	}
	if rawTask, ok := raw["active_task"].(map[string]any); ok {
		if task, ok := ActiveTaskFromMap(rawTask); ok {
			chatState.ActiveTask = &task
		}
	}

	state, _ := raw["state"].(map[string]any)
	extra := map[string]any{}
	for key, value := range state {
		switch key {
		case stateKeyLastQuery:
			if rawMemory, ok := value.(map[string]any); ok {
				if memory, ok := QueryMemoryFromMap(rawMemory); ok {
					chatState.LastQuery = &memory
				}
			}
		case stateKeyKnownCategories:
			chatState.KnownCategories = stringList(value)
		case stateKeyPendingClarification:
			if rawTask, ok := value.(map[string]any); ok {
				if task, ok := ActiveTaskFromMap(rawTask); ok {
					chatState.PendingClarification = &task
				}
			}
		default:
			extra[key] = value
		}
	}
	if len(extra) > 0 {
		chatState.Extra = extra
	}
	return chatState
}

func stringList(raw any) []string {
	var values []string
	switch typed := raw.(type) {
	case []string:
		values = append(values, typed...)
	case []any:
		for _, item := range typed {
			if value, ok := item.(string); ok {
				values = append(values, value)
			}
		}
	}
	result := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
