package planner

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/grammar"
	"github.com/bnema/finchat/internal/textnorm"
)

// DirectionQuestion asks which side of the ledger a totals request is about.
const DirectionQuestion = "Voulez-vous le total des dépenses, des revenus, ou les deux ?"

// searchPrefixes are folded; the longest prefix must come first.
var searchPrefixes = []string{
	"montre-moi les transactions",
	"montre moi les transactions",
	"affiche les transactions",
	"liste les transactions",
	"montre les transactions",
	"recherche",
	"cherche",
	"transactions",
	"operations",
}

var bankAccountHints = map[string]struct{}{
	"ubs": {}, "revolut": {}, "neon": {}, "postfinance": {}, "raiffeisen": {}, "cs": {},
	"credit suisse": {}, "credit-suisse": {},
}

var bankHintSuffixes = map[string]struct{}{"pro": {}}

var (
	debitPattern       = regexp.MustCompile(`\bdepens(?:e|es|ee|ees|er|ez)\b|\bsorties\b|\bdebits?\b`)
	creditPattern      = regexp.MustCompile(`\brevenus?\b|\bentrees\b|\brentrees\b|\bsalaires?\b|\bgains\b|\bcredits?\b|\bgagne\b`)
	bothPattern        = regexp.MustCompile(`\bles\s+deux\b|\bnet\b|\bsolde\b`)
	totalPattern       = regexp.MustCompile(`\btota(?:l|le|les|ux)\b|\bcombien\b|\bsomme\b|\bbilan\b`)
	groupByPattern     = regexp.MustCompile(`\bpar\s+(categories?|marchands?|commercants?|beneficiaires?|payee|mois)\b`)
	repartitionPattern = regexp.MustCompile(`\brepartition\b`)
)

func planRelevesSearch(req request) (domain.Plan, bool) {
	remainder, ok := cutSearchPrefix(req)
	if !ok {
		return nil, false
	}

	period := grammar.ParsePeriod(remainder, req.today)
	term := searchTerm(remainder)
	basePayload := domain.Payload{domain.KeyLimit: defaultSearchLimit, domain.KeyOffset: 0}

	if period.MissingYear != nil {
		payload := basePayload.Clone()
		if term != "" {
			payload[domain.KeyMerchant] = term
		}
		return missingYearPlan(req, domain.ToolRelevesSearch, payload, period), true
	}

	if term == "" {
		task := domain.ActiveTask{
			Type:      domain.TaskAwaitingSearchMerchant,
			CreatedAt: req.today,
			ToolName:  domain.ToolRelevesSearch,
			Payload:   basePayload,
			Question:  searchMerchantQuestion,
		}
		if period.Found() {
			task.PeriodPayload = domain.Payload{domain.KeyDateRange: period.Range.ToMap()}
		}
		return domain.SetActiveTaskPlan{Reply: searchMerchantQuestion, ActiveTask: task}, true
	}

	merchant, hint := splitBankHint(term)
	payload := basePayload.With(domain.KeyMerchant, merchant)
	if period.Found() {
		payload = payload.With(domain.KeyDateRange, period.Range.ToMap())
	}

	plan := domain.ToolCallPlan{
		ToolName:      domain.ToolRelevesSearch,
		Payload:       payload,
		UserReplyHint: naturalSearchReplyHint,
	}
	if hint != "" {
		plan.Meta.BankAccountHint = hint
		plan.Meta.MerchantFallback = term
	}
	return plan, true
}

func planRelevesAggregate(req request) (domain.Plan, bool) {
	groupBy := ""
	if match := groupByPattern.FindStringSubmatch(req.folded); match != nil {
		groupBy = groupByDimension(match[1])
	} else if repartitionPattern.MatchString(req.folded) {
		groupBy = "categorie"
	}
	if groupBy == "" {
		return nil, false
	}

	direction := domain.DirectionDebitOnly
	if creditPattern.MatchString(req.folded) && !debitPattern.MatchString(req.folded) {
		direction = domain.DirectionCreditOnly
	}
	payload := domain.Payload{domain.KeyGroupBy: groupBy, domain.KeyDirection: direction}
	if merchant, ok := grammar.ExtractMerchant(req.raw); ok {
		payload[domain.KeyMerchant] = merchant.Name
	}

	period := grammar.ParsePeriod(req.raw, req.today)
	if period.MissingYear != nil {
		return missingYearPlan(req, domain.ToolRelevesAggregate, payload, period), true
	}
	if period.Found() {
		payload[domain.KeyDateRange] = period.Range.ToMap()
	}

	return domain.ToolCallPlan{
		ToolName:      domain.ToolRelevesAggregate,
		Payload:       payload,
		UserReplyHint: "Voici la répartition demandée.",
	}, true
}

func planRelevesSum(req request) (domain.Plan, bool) {
	direction, hasDirection := detectDirection(req.folded)
	asksTotal := totalPattern.MatchString(req.folded)

	payload := domain.Payload{}
	merchant, hasMerchant := grammar.ExtractMerchant(req.raw)
	if hasMerchant {
		payload[domain.KeyMerchant] = merchant.Name
	}
	if category := extractCategory(req, merchant.Name); category != "" {
		payload[domain.KeyCategory] = category
	}

	period := grammar.ParsePeriod(req.raw, req.today)
	hasContent := len(payload) > 0 || period.Found() || period.MissingYear != nil

	if !hasDirection && !(asksTotal && hasContent) {
		return nil, false
	}
	if hasDirection {
		payload[domain.KeyDirection] = direction
	}

	if period.MissingYear != nil {
		return missingYearPlan(req, domain.ToolRelevesSum, payload, period), true
	}
	if period.Found() {
		payload[domain.KeyDateRange] = period.Range.ToMap()
	}

	if !hasDirection {
		task := domain.ActiveTask{
			Type:              domain.TaskClarificationPending,
			CreatedAt:         req.today,
			ToolName:          domain.ToolRelevesSum,
			Payload:           payload,
			ClarificationType: domain.ClarifyDirectionChoice,
			Question:          DirectionQuestion,
		}
		return domain.ClarificationPlan{
			Question: DirectionQuestion,
			Meta:     domain.Meta{PendingClarification: &task},
		}, true
	}

	return domain.ToolCallPlan{
		ToolName:      domain.ToolRelevesSum,
		Payload:       payload,
		UserReplyHint: "Voici le total demandé.",
	}, true
}

// DirectionFromAnswer maps a reply such as "les dépenses" or "les deux" to a sum direction.
func DirectionFromAnswer(message string) (string, bool) {
	return detectDirection(stripTerminalPunctuation(textnorm.Fold(message)))
}

// MissingYearQuestion is asked when a month is named without a year and lies after today's month.
func MissingYearQuestion(month string, exampleYear int) string {
	return fmt.Sprintf("Pour quelle année voulez-vous %s ? Répondez par exemple « %d ».", month, exampleYear)
}

func missingYearPlan(req request, toolName string, payload domain.Payload, period grammar.Period) domain.Plan {
	months := make([]any, 0, len(period.Mentions))
	for _, mention := range period.Mentions {
		months = append(months, int(mention.Month))
	}
	question := MissingYearQuestion(grammar.MonthName(period.MissingYear.Month), req.today.Year()-1)
	task := domain.ActiveTask{
		Type:              domain.TaskClarificationPending,
		CreatedAt:         req.today,
		ToolName:          toolName,
		Payload:           payload,
		ClarificationType: domain.ClarifyMissingYear,
		Question:          question,
		PeriodPayload:     domain.Payload{domain.KeyMonth: months},
	}
	return domain.ClarificationPlan{
		Question: question,
		Meta:     domain.Meta{PendingClarification: &task},
	}
}

func detectDirection(folded string) (string, bool) {
	debit := debitPattern.MatchString(folded)
	credit := creditPattern.MatchString(folded)
	switch {
	case bothPattern.MatchString(folded), debit && credit:
		return domain.DirectionAll, true
	case debit:
		return domain.DirectionDebitOnly, true
	case credit:
		return domain.DirectionCreditOnly, true
	default:
		return "", false
	}
}

func groupByDimension(token string) string {
	switch {
	case strings.HasPrefix(token, "categorie"):
		return "categorie"
	case token == "mois":
		return "month"
	default:
		return "payee"
	}
}

// extractCategory prefers an explicit "catégorie X" and otherwise looks for a known category name.
func extractCategory(req request, merchant string) string {
	if name, ok := grammar.ExplicitCategory(req.text); ok {
		return canonicalCategory(name, req.known)
	}
	category, ok := grammar.MatchKnownCategory(req.text, req.known)
	if !ok || textnorm.Equal(category, merchant) {
		return ""
	}
	return category
}

// cutSearchPrefix returns the text following a search prefix, with the user's casing.
func cutSearchPrefix(req request) (string, bool) {
	for _, prefix := range searchPrefixes {
		if !strings.HasPrefix(req.folded, prefix) {
			continue
		}
		rest := req.folded[len(prefix):]
		if rest != "" && !strings.HasPrefix(rest, " ") {
			continue
		}
		runes := []rune(req.text)
		count := utf8.RuneCountInString(prefix)
		if count > len(runes) {
			return "", false
		}
		return strings.TrimSpace(string(runes[count:])), true
	}
	return "", false
}

func searchTerm(remainder string) string {
	term := grammar.CutTemporalClause(" " + remainder)
	term = strings.ToLower(strings.TrimSpace(term))
	for _, article := range []string{"de ", "des ", "chez "} {
		term = strings.TrimPrefix(term, article)
	}
	return grammar.CleanName(term)
}

// splitBankHint separates a trailing bank name ("coffee ubs pro") from the merchant text.
func splitBankHint(term string) (string, string) {
	tokens := strings.Fields(term)
	if len(tokens) < 2 {
		return term, ""
	}
	folded := make([]string, len(tokens))
	for i, token := range tokens {
		folded[i] = textnorm.Fold(token)
	}

	suffix := 0
	if _, ok := bankHintSuffixes[folded[len(folded)-1]]; ok {
		suffix = 1
	}
	span := len(folded) - suffix
	end := len(folded) - suffix

	if span >= 2 {
		candidate := strings.Join(folded[end-2:end], " ")
		if _, ok := bankAccountHints[candidate]; ok && end-2 > 0 {
			return strings.Join(tokens[:end-2], " "), candidate
		}
	}
	if span >= 1 {
		candidate := folded[end-1]
		if _, ok := bankAccountHints[candidate]; ok && end-1 > 0 {
			return strings.Join(tokens[:end-1], " "), candidate
		}
	}
	return term, ""
}
