package planner

import (
	"strconv"
	"strings"

	"github.com/bnema/finchat/internal/domain"
)

const (
	searchCommandPrefix = "search:"
	defaultSearchLimit  = 50

	searchCommandReply     = "Je n'ai pas pu interpréter la commande search:. Corrigez le format puis réessayez."
	searchDatesMessage     = "Les dates doivent inclure from:YYYY-MM-DD et to:YYYY-MM-DD."
	searchFormatMessage    = "Format invalide dans la commande search:. Vérifiez les dates et nombres."
	searchAmountMessage    = "Montant invalide dans la commande search:. Utilisez un nombre décimal valide."
	searchResultReplyHint  = "Voici le résultat de la recherche de transactions."
	naturalSearchReplyHint = "Voici les transactions trouvées."
	searchMerchantQuestion = "Que voulez-vous rechercher (ex: Migros, coffee, Coop) ?"
)

var searchTokens = map[string]struct{}{
	"from": {}, "to": {}, "account": {}, "category": {}, "limit": {}, "offset": {}, "min": {}, "max": {},
}

// planSearchCommand handles the literal grammar
// "search: <term?> [from:YYYY-MM-DD to:YYYY-MM-DD] [account:<id>] [category:<name>] [limit:N] [offset:N] [min:X] [max:X]".
func planSearchCommand(req request) (domain.Plan, bool) {
	if !strings.HasPrefix(strings.ToLower(req.raw), searchCommandPrefix) {
		return nil, false
	}

	payload, toolErr := parseSearchCommand(strings.TrimSpace(req.raw[len(searchCommandPrefix):]))
	if toolErr != nil {
		return domain.ErrorPlan{Reply: searchCommandReply, ToolError: *toolErr}, true
	}

	return domain.ToolCallPlan{
		ToolName:      domain.ToolRelevesSearch,
		Payload:       payload,
		UserReplyHint: searchResultReplyHint,
	}, true
}

func parseSearchCommand(body string) (domain.Payload, *domain.ToolError) {
	payload := domain.Payload{domain.KeyLimit: defaultSearchLimit, domain.KeyOffset: 0}
	words := strings.Fields(body)

	termParts := make([]string, 0, len(words))
	first := len(words)
	for i, word := range words {
		token, _, found := strings.Cut(word, ":")
		if _, known := searchTokens[strings.ToLower(token)]; known && found {
			first = i
			break
		}
		termParts = append(termParts, word)
	}
	if term := strings.TrimSpace(strings.Join(termParts, " ")); term != "" {
		payload[domain.KeySearch] = term
	}

	values := make(map[string]string)
	for _, word := range words[first:] {
		token, value, found := strings.Cut(word, ":")
		if !found {
			continue
		}
		key := strings.ToLower(token)
		if _, known := searchTokens[key]; known {
			values[key] = value
		}
	}

	from, hasFrom := values["from"]
	to, hasTo := values["to"]
	if hasFrom || hasTo {
		if !hasFrom || !hasTo {
			return nil, domain.NewToolError(domain.ToolErrorValidation, searchDatesMessage).
				WithDetails(map[string]any{"from": nullable(from, hasFrom), "to": nullable(to, hasTo)})
		}
		start, okStart := domain.ParseDate(from)
		end, okEnd := domain.ParseDate(to)
		if !okStart || !okEnd {
			return nil, domain.NewToolError(domain.ToolErrorValidation, searchFormatMessage).
				WithDetails(map[string]any{"input": stringMap(values)})
		}
		payload[domain.KeyDateRange] = domain.DateRange{Start: start, End: end}.ToMap()
	}

	if account, ok := values["account"]; ok && account != "" {
		payload[domain.KeyBankAccountID] = account
	}
	if category, ok := values["category"]; ok && category != "" {
		payload[domain.KeyCategory] = category
	}

	for _, key := range []string{"limit", "offset"} {
		raw, ok := values[key]
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return nil, domain.NewToolError(domain.ToolErrorValidation, searchFormatMessage).
				WithDetails(map[string]any{"input": stringMap(values)})
		}
		payload[key] = parsed
	}

	for token, key := range map[string]string{"min": domain.KeyMinAmount, "max": domain.KeyMaxAmount} {
		raw, ok := values[token]
		if !ok {
			continue
		}
		amount, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return nil, domain.NewToolError(domain.ToolErrorValidation, searchAmountMessage).
				WithDetails(map[string]any{"input": stringMap(values)})
		}
		payload[key] = amount
	}

	return payload, nil
}

func nullable(value string, present bool) any {
	if !present {
		return nil
	}
	return value
}

func stringMap(values map[string]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}
