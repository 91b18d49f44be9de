package application

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/grammar"
	"github.com/bnema/finchat/internal/refs"
	"github.com/bnema/finchat/internal/replies"
)

const (
	confirmExternalSuffix = "Confirmez-vous ? (oui/non)"
	preventWriteQuestion  = "Voulez-vous voir les opérations du marchand « %s » ou de la catégorie « %s » ?"
)

// preventWrite turns a short follow-up that planned a write into a merchant-or-category question.
func (a *Agent) preventWrite(st *turnState, plan domain.ToolCallPlan) (outcome, bool) {
	focus := grammar.CleanName(st.Message)
	if focus == "" || grammar.IsContinuationOnly(st.Message) {
		return outcome{}, false
	}

	question := fmt.Sprintf(preventWriteQuestion, focus, focus)
	task := domain.ActiveTask{
		Type:              domain.TaskClarificationPending,
		CreatedAt:         st.now,
		ToolName:          st.Memory.LastToolName,
		Payload:           domain.Payload(st.Memory.Filters).Without(domain.KeyCategory, domain.KeyMerchant, domain.KeySearch),
		ClarificationType: domain.ClarifyPreventWrite,
		Question:          question,
		Subject:           focus,
		PeriodPayload:     st.Memory.PeriodPayload(),
	}
	a.logger.Debug("write held back on follow-up", zap.String("tool", plan.ToolName), zap.String("focus", focus))
	return a.withoutTool(st, domain.ClarificationPlan{
		Question: question,
		Meta:     domain.Meta{Source: plan.Meta.Source, PendingClarification: &task},
	}), true
}

// confirmExternalWrite parks a write suggested by the verifier until the user says yes.
func (a *Agent) confirmExternalWrite(st *turnState, plan domain.ToolCallPlan) outcome {
	reply := confirmExternalSuffix
	if hint := strings.TrimSpace(plan.UserReplyHint); hint != "" {
		reply = hint + " " + confirmExternalSuffix
	}
	task := domain.ActiveTask{
		Type:      domain.TaskNeedsConfirmation,
		CreatedAt: st.now,
		ToolName:  plan.ToolName,
		Payload:   plan.Payload.Clone(),
		Source:    domain.SourceConfirmLLMWrite,
		Question:  reply,
	}
	return outcome{plan: domain.SetActiveTaskPlan{Reply: reply, ActiveTask: task}, task: &task}
}

// checkDeletion verifies that the named entity exists before asking for confirmation.
// Without a profile, or when the listing fails, it asks for confirmation of the name as given.
func (a *Agent) checkDeletion(ctx context.Context, st *turnState, plan domain.ToolCallPlan) outcome {
	switch plan.ToolName {
	case domain.ToolBankAccountsDelete:
		return a.checkBankAccountDeletion(ctx, st, plan)
	case domain.ToolCategoriesDelete:
		return a.checkCategoryDeletion(ctx, st, plan)
	default:
		return a.confirmDeletion(st, plan, "")
	}
}

func (a *Agent) checkBankAccountDeletion(ctx context.Context, st *turnState, plan domain.ToolCallPlan) outcome {
	name, _ := plan.Payload.String(domain.KeyName)
	id, _ := plan.Payload.String(domain.KeyBankAccountID)
	if st.ProfileID == "" {
		return a.confirmDeletion(st, plan, name)
	}

	accounts, err := a.listBankAccounts(ctx, st)
	if err != nil {
		a.logger.Warn("bank account listing failed before delete", zap.Error(err))
		return a.confirmDeletion(st, plan, name)
	}

	var target refs.Entry
	if id != "" {
		found := false
		for _, account := range accounts {
			if account.ID == id {
				target, found = account, true
				break
			}
		}
		if !found {
			return replyOnly(plan, replies.BankAccountNotFound(name, nil))
		}
	} else {
		entry, matches, ok := refs.Resolve(name, accounts)
		switch {
		case ok:
			target = entry
		case len(matches) > 1:
			return a.selectCandidates(st, plan, matches)
		default:
			closeNames := refs.Names(refs.Suggest(name, accounts, refs.DefaultSuggestionLimit))
			return replyOnly(plan, replies.BankAccountNotFound(name, closeNames))
		}
	}

	result, err := a.call(ctx, st, domain.ToolBankAccountsCanDelete, domain.Payload{domain.KeyBankAccountID: target.ID})
	if err != nil {
		a.logger.Warn("can_delete precheck failed", zap.String("bank_account_id", target.ID), zap.Error(err))
	} else {
		var check replies.CanDeleteResult
		if decodeErr := replies.Decode(result, &check); decodeErr == nil && !check.CanDelete {
			conflict := domain.NewToolError(domain.ToolErrorConflict, check.Reason)
			out := replyOnly(plan, a.replies.Error(plan, conflict))
			out.toolResult = result
			return out
		}
	}

	resolved := plan.WithPayload(domain.Payload{domain.KeyBankAccountID: target.ID})
	return a.confirmDeletion(st, resolved, target.Name)
}

// selectCandidates asks which of several same-named accounts the user means.
func (a *Agent) selectCandidates(st *turnState, plan domain.ToolCallPlan, matches []refs.Entry) outcome {
	candidates := make([]domain.AccountCandidate, 0, len(matches))
	for _, match := range matches {
		candidates = append(candidates, domain.AccountCandidate{ID: match.ID, Name: match.Name})
	}
	return a.selectionOutcome(st, plan, nil, candidates, nil)
}

func (a *Agent) checkCategoryDeletion(ctx context.Context, st *turnState, plan domain.ToolCallPlan) outcome {
	name, _ := plan.Payload.String(domain.KeyCategoryName)
	if st.ProfileID == "" {
		return a.confirmDeletion(st, plan, name)
	}

	categories, err := a.listCategories(ctx, st)
	if err != nil {
		a.logger.Warn("category listing failed before delete", zap.Error(err))
		return a.confirmDeletion(st, plan, name)
	}

	entries := make([]refs.Entry, 0, len(categories))
	for _, category := range categories {
		entries = append(entries, refs.Entry{ID: category, Name: category})
	}
	matches := refs.Exact(name, entries)
	switch len(matches) {
	case 1:
		resolved := plan.WithPayload(plan.Payload.With(domain.KeyCategoryName, matches[0].Name))
		return a.confirmDeletion(st, resolved, matches[0].Name)
	case 0:
		closeNames := refs.Names(refs.Suggest(name, entries, refs.DefaultSuggestionLimit))
		return replyOnly(plan, replies.CategoryNotFound(name, closeNames))
	default:
		names := make([]any, 0, len(matches))
		for _, match := range matches {
			names = append(names, match.Name)
		}
		ambiguous := domain.NewToolError(domain.ToolErrorAmbiguous, "several categories match").
			WithDetails(map[string]any{"candidates": names})
		return replyOnly(plan, a.replies.Error(plan, ambiguous))
	}
}

// replyOnly answers without running plan.
func replyOnly(plan domain.ToolCallPlan, reply string) outcome {
	return outcome{plan: domain.NoopPlan{Reply: reply, Meta: plan.Meta.Clone()}}
}

// confirmDeletion stores the delete as a confirmation task. Nothing is executed yet.
func (a *Agent) confirmDeletion(st *turnState, plan domain.ToolCallPlan, subject string) outcome {
	taskType := domain.TaskConfirmDeleteBankAccount
	reply := fmt.Sprintf("Confirmez-vous la suppression du compte « %s » ? %s", subject, confirmPrompt)
	if plan.ToolName == domain.ToolCategoriesDelete {
		taskType = domain.TaskConfirmDeleteCategory
		reply = fmt.Sprintf("Confirmez-vous la suppression de la catégorie « %s » ? %s", subject, confirmPrompt)
	}
	if subject == "" {
		reply = "Confirmez-vous cette suppression ? " + confirmPrompt
	}

	task := domain.ActiveTask{
		Type:      taskType,
		CreatedAt: st.now,
		ToolName:  plan.ToolName,
		Payload:   plan.Payload.Clone(),
		Subject:   subject,
		Question:  reply,
	}
	return outcome{plan: domain.SetActiveTaskPlan{Reply: reply, ActiveTask: task}, task: &task}
}

// resolveBankHint swaps a trailing bank name for the matching account id. When no single
// account matches, the bank name goes back into the merchant term.
func (a *Agent) resolveBankHint(ctx context.Context, st *turnState, plan domain.ToolCallPlan) domain.ToolCallPlan {
	meta := plan.Meta.Clone()
	hint, fallback := meta.BankAccountHint, meta.MerchantFallback
	meta.BankAccountHint, meta.MerchantFallback = "", ""
	plan = plan.WithMeta(meta)

	withFallback := func() domain.ToolCallPlan {
		if fallback == "" {
			return plan
		}
		return plan.WithPayload(plan.Payload.With(domain.KeyMerchant, fallback))
	}
	if st.ProfileID == "" {
		return withFallback()
	}

	accounts, err := a.listBankAccounts(ctx, st)
	if err != nil {
		a.logger.Debug("bank hint not resolved", zap.String("hint", hint), zap.Error(err))
		return withFallback()
	}
	account, _, ok := refs.Resolve(hint, accounts)
	if !ok {
		return withFallback()
	}
	return plan.WithPayload(plan.Payload.With(domain.KeyBankAccountID, account.ID))
}

func (a *Agent) listBankAccounts(ctx context.Context, st *turnState) ([]refs.Entry, error) {
	result, err := a.call(ctx, st, domain.ToolBankAccountsList, domain.Payload{})
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	var listing replies.BankAccountsResult
	if err := replies.Decode(result, &listing); err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	entries := make([]refs.Entry, 0, len(listing.Items))
	for _, item := range listing.Items {
		entries = append(entries, refs.Entry{ID: item.ID, Name: item.Name})
	}
	return entries, nil
}

// listCategories fetches the category names and refreshes the turn's cache with them.
func (a *Agent) listCategories(ctx context.Context, st *turnState) ([]string, error) {
	result, err := a.call(ctx, st, domain.ToolCategoriesList, domain.Payload{})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names, err := categoryNames(result)
	if err != nil {
		return nil, err
	}
	st.setKnown(names)
	return names, nil
}

func categoryNames(result any) ([]string, error) {
	var listing replies.CategoriesResult
	if err := replies.Decode(result, &listing); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make([]string, 0, len(listing.Items))
	for _, item := range listing.Items {
		if name := strings.TrimSpace(item.Name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
