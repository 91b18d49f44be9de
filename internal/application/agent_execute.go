package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/memory"
	"github.com/bnema/finchat/internal/metrics"
	"github.com/bnema/finchat/internal/replies"
	"github.com/bnema/finchat/internal/textnorm"
	"github.com/bnema/finchat/internal/toolcontract"
)

const unavailableReply = "Le service financier est indisponible pour le moment. Réessayez plus tard."

// execute runs plan against the router and builds the reply, memory and category cache from the result.
func (a *Agent) execute(ctx context.Context, st *turnState, plan domain.ToolCallPlan) outcome {
	plan = plan.WithPayload(toolcontract.Sanitize(plan.ToolName, plan.Payload))

	result, err := a.call(ctx, st, plan.ToolName, plan.Payload)
	if err != nil {
		return a.toolFailure(st, plan, err)
	}

	a.refreshCategories(st, plan, result)
	return outcome{
		plan:       plan,
		reply:      a.replies.Build(plan, result),
		toolResult: result,
		memory:     a.rememberQuery(ctx, st, plan),
	}
}

func (a *Agent) call(ctx context.Context, st *turnState, toolName string, payload domain.Payload) (any, error) {
	args := map[string]any(payload.Clone())
	if args == nil {
		args = map[string]any{}
	}

	started := time.Now()
	result, err := a.router.Call(ctx, toolName, args, st.toolContext())
	metrics.ObserveToolCall(toolName, callOutcome(err), time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", toolName, err)
	}
	return result, nil
}

func callOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var toolErr *domain.ToolError
	if errors.As(err, &toolErr) {
		return string(toolErr.Code)
	}
	return "error"
}

// toolFailure renders a failed call. A bank account named ambiguously, or not found with close
// names, becomes a selection task so the next message can pick the account.
func (a *Agent) toolFailure(st *turnState, plan domain.ToolCallPlan, err error) outcome {
	var toolErr *domain.ToolError
	if !errors.As(err, &toolErr) {
		a.logger.Warn("tool call failed", zap.String("tool", plan.ToolName), zap.Error(err))
		return outcome{
			plan:       plan,
			reply:      unavailableReply,
			toolResult: domain.NewToolError(domain.ToolErrorBackend, unavailableReply),
		}
	}

	if strings.HasPrefix(plan.ToolName, "finance_bank_accounts_") {
		switch toolErr.Code {
		case domain.ToolErrorAmbiguous:
			if candidates := detailCandidates(toolErr.Details["candidates"]); len(candidates) > 0 {
				return a.selectionOutcome(st, plan, toolErr, candidates, nil)
			}
		case domain.ToolErrorNotFound:
			if closeNames := replies.DetailStrings(toolErr.Details["close_names"]); len(closeNames) > 0 {
				return a.selectionOutcome(st, plan, toolErr, nil, closeNames)
			}
		}
	}

	return outcome{plan: plan, reply: a.replies.Error(plan, toolErr), toolResult: toolErr}
}

// selectionOutcome stores a select_bank_account task offering either candidates (same name,
// several accounts) or suggestions (close names).
func (a *Agent) selectionOutcome(st *turnState, plan domain.ToolCallPlan, toolErr *domain.ToolError, candidates []domain.AccountCandidate, suggestions []string) outcome {
	name, _ := plan.Payload.String(domain.KeyName)
	if toolErr != nil {
		if detail, ok := toolErr.Details["name"].(string); ok && strings.TrimSpace(detail) != "" {
			name = strings.TrimSpace(detail)
		}
	}

	var reply string
	if len(candidates) > 0 {
		names := make([]string, 0, len(candidates))
		for _, candidate := range candidates {
			names = append(names, candidate.Name)
		}
		reply = replies.BankAccountsAmbiguous(names) + " " + fmt.Sprintf(candidatesPrompt, candidateIndexes(len(candidates)))
	} else {
		reply = replies.BankAccountNotFound(name, suggestions) + " " + suggestionsPrompt
	}

	task := domain.ActiveTask{
		Type:        domain.TaskSelectBankAccount,
		CreatedAt:   st.now,
		ToolName:    plan.ToolName,
		Payload:     plan.Payload.Clone(),
		Question:    reply,
		Subject:     name,
		Candidates:  candidates,
		Suggestions: suggestions,
	}
	if st.confirmed {
		task.Source = sourceConfirmed
	}

	out := outcome{plan: domain.SetActiveTaskPlan{Reply: reply, ActiveTask: task}, task: &task}
	if toolErr != nil {
		out.toolResult = toolErr
	}
	return out
}

func detailCandidates(raw any) []domain.AccountCandidate {
	var entries []map[string]any
	switch typed := raw.(type) {
	case []map[string]any:
		entries = typed
	case []any:
		for _, item := range typed {
			if entry, ok := item.(map[string]any); ok {
				entries = append(entries, entry)
			}
		}
	}

	candidates := make([]domain.AccountCandidate, 0, len(entries))
	for _, entry := range entries {
		id, _ := entry["id"].(string)
		name, _ := entry["name"].(string)
		if strings.TrimSpace(id) == "" || strings.TrimSpace(name) == "" {
			continue
		}
		candidates = append(candidates, domain.AccountCandidate{ID: id, Name: name})
	}
	return candidates
}

// rememberQuery extracts the memory of a successful read. A category filter can only be
// remembered against a known list, so an empty cache is filled first.
func (a *Agent) rememberQuery(ctx context.Context, st *turnState, plan domain.ToolCallPlan) *domain.QueryMemory {
	if !domain.IsQueryTool(plan.ToolName) {
		return nil
	}
	if len(st.known) == 0 && plan.Payload.Has(domain.KeyCategory) {
		if _, err := a.listCategories(ctx, st); err != nil {
			a.logger.Debug("categories not refreshed", zap.Error(err))
		}
	}
	return memory.ExtractFromPlan(plan.ToolName, plan.Payload, st.known)
}

// refreshCategories keeps the known categories in step with category tools. Single writes
// only patch a cache that was already loaded.
func (a *Agent) refreshCategories(st *turnState, plan domain.ToolCallPlan, result any) {
	switch plan.ToolName {
	case domain.ToolCategoriesList:
		names, err := categoryNames(result)
		if err != nil {
			a.logger.Debug("category listing not understood", zap.Error(err))
			return
		}
		st.setKnown(names)
	case domain.ToolCategoriesCreate:
		name, ok := plan.Payload.String(domain.KeyName)
		if !ok || len(st.known) == 0 || indexOfCategory(st.known, name) >= 0 {
			return
		}
		st.setKnown(append(append([]string{}, st.known...), name))
	case domain.ToolCategoriesUpdate:
		current, _ := plan.Payload.String(domain.KeyCategoryName)
		renamed, ok := plan.Payload.String(domain.KeyName)
		index := indexOfCategory(st.known, current)
		if !ok || index < 0 {
			return
		}
		updated := append([]string{}, st.known...)
		updated[index] = renamed
		st.setKnown(updated)
	case domain.ToolCategoriesDelete:
		name, _ := plan.Payload.String(domain.KeyCategoryName)
		index := indexOfCategory(st.known, name)
		if index < 0 {
			return
		}
		updated := append(append([]string{}, st.known[:index]...), st.known[index+1:]...)
		st.setKnown(updated)
	}
}

func indexOfCategory(categories []string, name string) int {
	if strings.TrimSpace(name) == "" {
		return -1
	}
	for i, category := range categories {
		if textnorm.Equal(category, name) {
			return i
		}
	}
	return -1
}
