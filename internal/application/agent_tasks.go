package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/grammar"
	"github.com/bnema/finchat/internal/planner"
	"github.com/bnema/finchat/internal/refs"
	"github.com/bnema/finchat/internal/textnorm"
)

const (
	confirmPrompt          = "Répondez OUI ou NON."
	deletionCancelledReply = "Suppression annulée."
	actionCancelledReply   = "Action annulée."
	candidatesPrompt       = "Répondez avec le nom exact (ou %s)."
	suggestionsPrompt      = "Répondez par le nom exact ou OUI pour choisir le premier."
	clarifyAgainReply      = "Pouvez-vous préciser votre réponse ?"

	// sourceConfirmed marks a task created after the user already confirmed the write.
	sourceConfirmed = "confirmed"
)

var (
	merchantChoiceWords = []string{"marchand", "commercant", "magasin", "tout", "toutes", "tous"}
	keywordChoiceWords  = []string{"mot", "mot-cle", "libelle"}
	categoryChoiceWords = []string{"categorie", "categories"}
)

// resumeTask answers the pending task. handled is false when the task was evicted and the
// message must be planned as a fresh request.
func (a *Agent) resumeTask(ctx context.Context, st *turnState) (outcome, bool) {
	task := st.task.Clone()
	if task.IsStale(st.now, a.ttl) {
		st.consumed = true
		return outcome{}, false
	}
	if task.IsConfirmation() {
		return a.resolveConfirmation(ctx, st, task), true
	}

	plan, ok := answerTask(task, st.Message, st.known)
	if !ok {
		if isNewRequest(st.Message, st.known) {
			st.consumed = true
			return outcome{}, false
		}
		return reask(task), true
	}

	st.consumed = true
	if task.Source == sourceConfirmed {
		st.confirmed = true
	}
	if domain.IsRiskyWrite(plan.ToolName) && !st.confirmed {
		return a.checkDeletion(ctx, st, plan), true
	}
	return a.execute(ctx, st, plan), true
}

func (a *Agent) resolveConfirmation(ctx context.Context, st *turnState, task domain.ActiveTask) outcome {
	switch grammar.ParseYesNo(st.Message) {
	case grammar.AnswerYes:
		st.consumed = true
		st.confirmed = true
		return a.execute(ctx, st, domain.ToolCallPlan{
			ToolName:      task.ToolName,
			Payload:       task.Payload.Clone(),
			UserReplyHint: confirmedReplyHint(task.ToolName),
			Meta:          domain.Meta{Source: domain.SourceActiveTask},
		})
	case grammar.AnswerNo:
		st.consumed = true
		reply := actionCancelledReply
		if task.Type != domain.TaskNeedsConfirmation {
			reply = deletionCancelledReply
		}
		return outcome{plan: domain.NoopPlan{Reply: reply, Meta: domain.Meta{Source: domain.SourceActiveTask}}}
	default:
		return outcome{plan: domain.NoopPlan{Reply: confirmPrompt, Meta: domain.Meta{Source: domain.SourceActiveTask}}}
	}
}

func confirmedReplyHint(toolName string) string {
	switch toolName {
	case domain.ToolCategoriesDelete:
		return "Catégorie supprimée."
	case domain.ToolBankAccountsDelete:
		return "Compte supprimé."
	default:
		return "C’est fait."
	}
}

// reask repeats the task's question and leaves the task in place.
func reask(task domain.ActiveTask) outcome {
	question := strings.TrimSpace(task.Question)
	if question == "" {
		switch {
		case task.Type == domain.TaskSelectBankAccount && len(task.Candidates) > 0:
			question = fmt.Sprintf(candidatesPrompt, candidateIndexes(len(task.Candidates)))
		case task.Type == domain.TaskSelectBankAccount:
			question = suggestionsPrompt
		default:
			question = clarifyAgainReply
		}
	}
	return outcome{plan: domain.NoopPlan{Reply: question, Meta: domain.Meta{Source: domain.SourceActiveTask}}}
}

// isNewRequest reports a message that reads as a complete request of its own.
func isNewRequest(message string, known []string) bool {
	if grammar.HasIntentKeyword(message) || grammar.HasExplicitPeriod(message) {
		return true
	}
	_, ok := grammar.MatchKnownCategory(message, known)
	return ok
}

// answerTask rebuilds the interrupted tool call when message answers task.
func answerTask(task domain.ActiveTask, message string, known []string) (domain.ToolCallPlan, bool) {
	var (
		payload domain.Payload
		ok      bool
	)
	toolName := task.ToolName

	switch task.Type {
	case domain.TaskSelectBankAccount:
		payload, ok = selectBankAccount(task, message)
	case domain.TaskAwaitingSearchMerchant:
		payload, ok = searchMerchantAnswer(task, message)
		if toolName == "" {
			toolName = domain.ToolRelevesSearch
		}
	case domain.TaskAwaitingBankAccountName:
		payload, ok = bankAccountNameAnswer(task, message)
		if toolName == "" {
			toolName = domain.ToolBankAccountsCreate
		}
	case domain.TaskClarificationPending:
		return clarificationAnswer(task, message, known)
	}
	if !ok || toolName == "" {
		return domain.ToolCallPlan{}, false
	}

	return withSearchDefaults(domain.ToolCallPlan{
		ToolName: toolName,
		Payload:  payload,
		Meta:     domain.Meta{Source: domain.SourceActiveTask},
	}), true
}

func selectBankAccount(task domain.ActiveTask, message string) (domain.Payload, bool) {
	payload := task.Payload.Clone()
	if payload == nil {
		payload = domain.Payload{}
	}

	if len(task.Candidates) > 0 {
		candidate, ok := pickCandidate(task.Candidates, message)
		if !ok {
			return nil, false
		}
		return payload.Without(domain.KeyName).With(domain.KeyBankAccountID, candidate.ID), true
	}

	name, ok := pickSuggestion(task.Suggestions, message)
	if !ok {
		return nil, false
	}
	return payload.Without(domain.KeyBankAccountID).With(domain.KeyName, name), true
}

func pickCandidate(candidates []domain.AccountCandidate, message string) (domain.AccountCandidate, bool) {
	if index, ok := choiceIndex(message, len(candidates)); ok {
		return candidates[index], true
	}

	answer := grammar.CleanName(message)
	for _, candidate := range candidates {
		if candidate.Name == answer {
			return candidate, true
		}
	}

	entries := make([]refs.Entry, 0, len(candidates))
	for _, candidate := range candidates {
		entries = append(entries, refs.Entry{ID: candidate.ID, Name: candidate.Name})
	}
	if matches := refs.Exact(answer, entries); len(matches) == 1 {
		return domain.AccountCandidate{ID: matches[0].ID, Name: matches[0].Name}, true
	}
	return domain.AccountCandidate{}, false
}

func pickSuggestion(suggestions []string, message string) (string, bool) {
	if len(suggestions) == 0 {
		return "", false
	}
	if grammar.ParseYesNo(message) == grammar.AnswerYes {
		return suggestions[0], true
	}
	if index, ok := choiceIndex(message, len(suggestions)); ok {
		return suggestions[index], true
	}
	answer := grammar.CleanName(message)
	for _, suggestion := range suggestions {
		if textnorm.Equal(suggestion, answer) {
			return suggestion, true
		}
	}
	return "", false
}

// choiceIndex parses a 1-based position such as "2" into a slice index.
func choiceIndex(message string, count int) (int, bool) {
	position, err := strconv.Atoi(strings.Trim(textnorm.Fold(message), " .)#"))
	if err != nil || position < 1 || position > count {
		return 0, false
	}
	return position - 1, true
}

func candidateIndexes(count int) string {
	indexes := make([]string, count)
	for i := range indexes {
		indexes[i] = strconv.Itoa(i + 1)
	}
	return strings.Join(indexes, "/")
}

func searchMerchantAnswer(task domain.ActiveTask, message string) (domain.Payload, bool) {
	if grammar.HasIntentKeyword(message) || grammar.HasExplicitPeriod(message) {
		return nil, false
	}
	term := strings.ToLower(grammar.CleanName(message))
	if term == "" {
		return nil, false
	}
	return mergePeriod(task.Payload, task.PeriodPayload).With(domain.KeyMerchant, term), true
}

func bankAccountNameAnswer(task domain.ActiveTask, message string) (domain.Payload, bool) {
	if grammar.HasIntentKeyword(message) {
		return nil, false
	}
	name := grammar.CleanName(message)
	if name == "" {
		return nil, false
	}
	payload := task.Payload.Clone()
	if payload == nil {
		payload = domain.Payload{}
	}
	return payload.With(domain.KeyName, name), true
}

func clarificationAnswer(task domain.ActiveTask, message string, known []string) (domain.ToolCallPlan, bool) {
	var (
		plan domain.ToolCallPlan
		ok   bool
	)
	switch task.ClarificationType {
	case domain.ClarifyDirectionChoice, domain.ClarifyMissingDirection:
		plan, ok = directionAnswer(task, message, known)
	case domain.ClarifyMissingYear:
		plan, ok = yearAnswer(task, message)
	case domain.ClarifyMerchantKeyword:
		plan, ok = merchantKeywordAnswer(task, message)
	case domain.ClarifyPreventWrite:
		plan, ok = preventWriteAnswer(task, message, known)
	}
	if !ok {
		return domain.ToolCallPlan{}, false
	}

	plan.Meta.Source = domain.SourceActiveTask
	return withSearchDefaults(plan), true
}

func directionAnswer(task domain.ActiveTask, message string, known []string) (domain.ToolCallPlan, bool) {
	if grammar.HasExplicitPeriod(message) || len(textnorm.Tokens(message)) > 4 {
		return domain.ToolCallPlan{}, false
	}
	if _, named := grammar.MatchKnownCategory(message, known); named {
		return domain.ToolCallPlan{}, false
	}
	direction, ok := planner.DirectionFromAnswer(message)
	if !ok {
		return domain.ToolCallPlan{}, false
	}

	toolName := task.ToolName
	if toolName == "" {
		toolName = domain.ToolRelevesSum
	}
	return domain.ToolCallPlan{
		ToolName: toolName,
		Payload:  mergePeriod(task.Payload, task.PeriodPayload).With(domain.KeyDirection, direction),
	}, true
}

func yearAnswer(task domain.ActiveTask, message string) (domain.ToolCallPlan, bool) {
	if len(textnorm.Tokens(message)) > 3 {
		return domain.ToolCallPlan{}, false
	}
	year, ok := grammar.ParseYearAnswer(message)
	if !ok {
		return domain.ToolCallPlan{}, false
	}
	months := monthsOf(task.PeriodPayload[domain.KeyMonth])
	if len(months) == 0 {
		return domain.ToolCallPlan{}, false
	}

	ranges := make([]domain.DateRange, 0, len(months))
	for _, month := range months {
		ranges = append(ranges, domain.MonthRange(year, month))
	}
	payload := task.Payload.Clone()
	if payload == nil {
		payload = domain.Payload{}
	}
	payload = payload.Without(domain.KeyMonth, domain.KeyYear).With(domain.KeyDateRange, domain.Merge(ranges...).ToMap())
	return domain.ToolCallPlan{ToolName: task.ToolName, Payload: payload}, true
}

// monthsOf reads the remembered month numbers, whatever numeric type the store gave back.
func monthsOf(raw any) []time.Month {
	var values []any
	switch typed := raw.(type) {
	case []any:
		values = typed
	case []int:
		for _, value := range typed {
			values = append(values, value)
		}
	default:
		values = []any{raw}
	}

	months := make([]time.Month, 0, len(values))
	for _, value := range values {
		var number int
		switch typed := value.(type) {
		case int:
			number = typed
		case int64:
			number = int(typed)
		case float64:
			number = int(typed)
		default:
			continue
		}
		if number >= 1 && number <= 12 {
			months = append(months, time.Month(number))
		}
	}
	return months
}

func merchantKeywordAnswer(task domain.ActiveTask, message string) (domain.ToolCallPlan, bool) {
	folded := textnorm.Fold(message)
	merchantOnly := containsAnyWord(folded, merchantChoiceWords)
	keyword := !merchantOnly && (containsAnyWord(folded, keywordChoiceWords) ||
		(task.Keyword != "" && textnorm.ContainsWord(message, task.Keyword)) ||
		grammar.ParseYesNo(message) == grammar.AnswerYes)
	if !merchantOnly && !keyword {
		return domain.ToolCallPlan{}, false
	}

	payload := mergePeriod(directionOnly(task.Payload), task.PeriodPayload).With(domain.KeyMerchant, task.Merchant)
	if keyword && task.Keyword != "" {
		payload = payload.With(domain.KeySearch, task.Keyword)
	}
	return domain.ToolCallPlan{ToolName: domain.ToolRelevesSearch, Payload: payload}, true
}

func preventWriteAnswer(task domain.ActiveTask, message string, known []string) (domain.ToolCallPlan, bool) {
	focus := strings.TrimSpace(task.Subject)
	if focus == "" {
		return domain.ToolCallPlan{}, false
	}
	folded := textnorm.Fold(message)

	switch {
	case containsAnyWord(folded, merchantChoiceWords[:3]):
		payload := mergePeriod(directionOnly(task.Payload), task.PeriodPayload).With(domain.KeyMerchant, strings.ToLower(focus))
		return domain.ToolCallPlan{ToolName: domain.ToolRelevesSearch, Payload: payload}, true
	case containsAnyWord(folded, categoryChoiceWords):
		category := focus
		if canonical, ok := grammar.CanonicalCategory(focus, known); ok {
			category = canonical
		}
		payload := mergePeriod(directionOnly(task.Payload), task.PeriodPayload).With(domain.KeyCategory, category)
		if !payload.Has(domain.KeyDirection) {
			payload[domain.KeyDirection] = domain.DirectionDebitOnly
		}
		return domain.ToolCallPlan{ToolName: domain.ToolRelevesSum, Payload: payload}, true
	default:
		return domain.ToolCallPlan{}, false
	}
}

func directionOnly(payload domain.Payload) domain.Payload {
	if direction, ok := payload.String(domain.KeyDirection); ok && direction != "" {
		return domain.Payload{domain.KeyDirection: direction}
	}
	return domain.Payload{}
}

// mergePeriod copies payload and adds the period keys it does not have yet.
func mergePeriod(payload, period domain.Payload) domain.Payload {
	merged := payload.Clone()
	if merged == nil {
		merged = domain.Payload{}
	}
	if merged.HasPeriod() {
		return merged
	}
	for key, value := range period.Clone() {
		merged[key] = value
	}
	return merged
}

func containsAnyWord(folded string, words []string) bool {
	for _, word := range words {
		if textnorm.ContainsWord(folded, word) {
			return true
		}
	}
	return false
}
