// Package replies turns tool results and tool errors into the French text shown to the user.
package replies

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/bnema/finchat/internal/domain"
)

const DefaultCurrency = "CHF"

const (
	debitOnlyNote     = "\nCertaines catégories peuvent être exclues des totaux (ex: Transfert interne)."
	excludedTotalsTip = "Une catégorie exclue des totaux (ex: Transfert interne) n’est pas comptée dans les dépenses."
	unavailableSuffix = " (résultat indisponible)"
	maxAggregateRows  = 10
	maxSearchExamples = 2
	maxSuggestions    = 3
)

// Builder renders replies. Currency is used when a result does not name one.
type Builder struct {
	currency string
}

func New(currency string) *Builder {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Builder{currency: currency}
}

// Build renders the reply for a successful tool call. Results the builder cannot read fall back
// to the plan's hint.
func (b *Builder) Build(plan domain.ToolCallPlan, result any) string {
	if reply, ok := b.build(plan, result); ok {
		return reply
	}
	return Unavailable(plan.UserReplyHint)
}

// Unavailable marks a hint that could not be completed with real data.
func Unavailable(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		hint = "OK."
	}
	return hint + unavailableSuffix
}

func (b *Builder) build(plan domain.ToolCallPlan, result any) (string, bool) {
	switch plan.ToolName {
	case domain.ToolRelevesSum:
		var sum SumResult
		if Decode(result, &sum) != nil {
			return "", false
		}
		return b.sumReply(sum), true
	case domain.ToolRelevesAggregate:
		var aggregate AggregateResult
		if Decode(result, &aggregate) != nil {
			return "", false
		}
		return b.aggregateReply(aggregate), true
	case domain.ToolRelevesSearch:
		var search SearchResult
		if Decode(result, &search) != nil {
			return "", false
		}
		return searchReply(search), true
	case domain.ToolCategoriesList:
		var categories CategoriesResult
		if Decode(result, &categories) != nil {
			return "", false
		}
		return categoriesReply(categories), true
	case domain.ToolBankAccountsList:
		var accounts BankAccountsResult
		if Decode(result, &accounts) != nil {
			return "", false
		}
		return bankAccountsReply(accounts), true
	case domain.ToolProfileGet:
		var profile ProfileResult
		if Decode(result, &profile) != nil {
			return "", false
		}
		return profileGetReply(plan.Payload, profile), true
	case domain.ToolProfileUpdate:
		var profile ProfileResult
		if Decode(result, &profile) != nil {
			return "", false
		}
		return profileUpdateReply(profile), true
	case domain.ToolCategoriesCreate, domain.ToolCategoriesUpdate:
		var category Category
		if Decode(result, &category) != nil || category.Name == "" {
			return "", false
		}
		return categoryWriteReply(plan, category), true
	case domain.ToolBankAccountsCreate:
		var account BankAccount
		if Decode(result, &account) != nil || account.Name == "" {
			return "", false
		}
		return fmt.Sprintf("Compte créé: %s.", account.Name), true
	case domain.ToolBankAccountsUpdate:
		var account BankAccount
		if Decode(result, &account) != nil || account.Name == "" {
			return "", false
		}
		return fmt.Sprintf("Compte mis à jour: %s.", account.Name), true
	case domain.ToolCategoriesDelete, domain.ToolBankAccountsDelete, domain.ToolBankAccountsSetDefault:
		var ok OKResult
		if Decode(result, &ok) != nil || !ok.OK {
			return "", false
		}
		return acknowledgement(plan), true
	default:
		return "", false
	}
}

func (b *Builder) currencyOr(currency string) string {
	if currency = strings.TrimSpace(currency); currency != "" {
		return currency
	}
	return b.currency
}

func directionNote(direction string) string {
	if direction == "DEBIT_ONLY" {
		return debitOnlyNote
	}
	return ""
}

func totalLabel(direction string) string {
	switch direction {
	case "DEBIT_ONLY":
		return "Total des dépenses"
	case "CREDIT_ONLY":
		return "Total des revenus"
	case "ALL":
		// Income is positive and expenses negative, so this is a net amount.
		return "Total net (revenus + dépenses)"
	default:
		return "Total"
	}
}

func (b *Builder) sumReply(sum SumResult) string {
	currency := b.currencyOr(sum.Currency)
	average := ""
	if sum.Count > 0 {
		average = fmt.Sprintf(" Moyenne: %s.", Money(sum.Average, currency))
	}
	return fmt.Sprintf("%s: %s sur %d opération(s).%s%s",
		totalLabel(sum.Filters.Direction), Money(sum.Total, currency), sum.Count, average, directionNote(sum.Filters.Direction))
}

type aggregateRow struct {
	name  string
	group AggregateGroup
}

func (b *Builder) aggregateReply(aggregate AggregateResult) string {
	if len(aggregate.Groups) == 0 {
		return "Je n'ai trouvé aucune opération pour cette agrégation."
	}
	currency := b.currencyOr(aggregate.Currency)

	rows := make([]aggregateRow, 0, len(aggregate.Groups))
	for name, group := range aggregate.Groups {
		rows = append(rows, aggregateRow{name: name, group: group})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		left, right := rows[i].group.Total.Rat(), rows[j].group.Total.Rat()
		if cmp := left.Abs(left).Cmp(right.Abs(right)); cmp != 0 {
			return cmp > 0
		}
		return rows[i].name < rows[j].name
	})

	lines := []string{fmt.Sprintf("Voici vos dépenses agrégées par %s :", aggregate.GroupBy)}
	for i, row := range rows {
		if i == maxAggregateRows {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s: %s (%d opérations)", row.name, Money(absAmount(row.group.Total), currency), row.group.Count))
	}
	if len(rows) > maxAggregateRows {
		total := new(big.Rat)
		count := 0
		for _, row := range rows[maxAggregateRows:] {
			value := row.group.Total.Rat()
			total.Add(total, value.Abs(value))
			count += row.group.Count
		}
		lines = append(lines, fmt.Sprintf("- Autres: %s (%d opérations)", Money(Amount(total.FloatString(2)), currency), count))
	}
	return strings.Join(lines, "\n") + directionNote(aggregate.Filters.Direction)
}

func absAmount(amount Amount) Amount {
	value := amount.Rat()
	return Amount(value.Abs(value).RatString())
}

func searchReply(search SearchResult) string {
	examples := make([]string, 0, maxSearchExamples)
	for i, item := range search.Items {
		if i == maxSearchExamples {
			break
		}
		label := strings.TrimSpace(item.Libelle)
		if label == "" {
			label = strings.TrimSpace(item.Payee)
		}
		if label != "" {
			examples = append(examples, label)
		}
	}
	if len(examples) > 0 {
		return fmt.Sprintf("J'ai trouvé %d opération(s), par exemple: %s.", len(search.Items), strings.Join(examples, ", "))
	}
	return fmt.Sprintf("J'ai trouvé %d opération(s).", len(search.Items))
}

func categoriesReply(categories CategoriesResult) string {
	if len(categories.Items) == 0 {
		return "Vous n'avez aucune catégorie pour le moment."
	}
	lines := []string{"Voici vos catégories :"}
	for _, item := range categories.Items {
		if item.ExcludeFromTotals {
			lines = append(lines, fmt.Sprintf("- %s (exclue des totaux)", item.Name))
			continue
		}
		lines = append(lines, "- "+item.Name)
	}
	lines = append(lines, excludedTotalsTip)
	return strings.Join(lines, "\n")
}

func bankAccountsReply(accounts BankAccountsResult) string {
	if len(accounts.Items) == 0 {
		return "Vous n'avez aucun compte bancaire pour le moment."
	}
	lines := make([]string, 0, len(accounts.Items))
	for _, item := range accounts.Items {
		star := ""
		if accounts.DefaultBankAccountID != "" && item.ID == accounts.DefaultBankAccountID {
			star = " ⭐"
		}
		lines = append(lines, fmt.Sprintf("- %s%s (%s, %s)", item.Name, star, orUnknown(item.AccountKind), orUnknown(item.Kind)))
	}
	return strings.Join(lines, "\n")
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "inconnu"
	}
	return value
}

func profileGetReply(payload domain.Payload, profile ProfileResult) string {
	fields := requestedFields(payload)
	if len(fields) == 0 {
		fields = profileKeys(profile.Data)
	}

	if len(fields) == 1 {
		key := fields[0]
		value, ok := profileValue(profile.Data[key])
		if !ok {
			return fmt.Sprintf("Je n’ai pas votre %s (champ vide).", domain.ProfileFieldPossessive(key))
		}
		return fmt.Sprintf("Votre %s est: %s.", domain.ProfileFieldPossessive(key), value)
	}

	lines := make([]string, 0, len(fields))
	for _, key := range fields {
		value, ok := profileValue(profile.Data[key])
		if !ok {
			value = "(vide)"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", domain.ProfileFieldLabel(key), value))
	}
	return strings.Join(lines, "\n")
}

func profileUpdateReply(profile ProfileResult) string {
	lines := []string{"Infos mises à jour."}
	for _, key := range profileKeys(profile.Data) {
		raw := profile.Data[key]
		if raw == nil {
			lines = append(lines, fmt.Sprintf("Champ effacé: %s.", domain.ProfileFieldPossessive(key)))
			continue
		}
		value, _ := profileValue(raw)
		lines = append(lines, fmt.Sprintf("- %s: %s", domain.ProfileFieldLabel(key), value))
	}
	return strings.Join(lines, "\n")
}

func requestedFields(payload domain.Payload) []string {
	var fields []string
	switch raw := payload["fields"].(type) {
	case []any:
		for _, item := range raw {
			if field, ok := item.(string); ok {
				fields = append(fields, field)
			}
		}
	case []string:
		fields = append(fields, raw...)
	}
	return fields
}

// profileKeys orders data keys like the profile form, unknown keys last.
func profileKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	seen := make(map[string]struct{}, len(data))
	for _, field := range domain.ProfileFields {
		if _, ok := data[field.Key]; ok {
			keys = append(keys, field.Key)
			seen[field.Key] = struct{}{}
		}
	}
	var rest []string
	for key := range data {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func profileValue(raw any) (string, bool) {
	switch value := raw.(type) {
	case nil:
		return "", false
	case string:
		if strings.TrimSpace(value) == "" {
			return "", false
		}
		return value, true
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", "), true
	default:
		return fmt.Sprint(value), true
	}
}

func categoryWriteReply(plan domain.ToolCallPlan, category Category) string {
	if plan.ToolName == domain.ToolCategoriesCreate {
		return fmt.Sprintf("Catégorie créée: %s.", category.Name)
	}
	oldName, hasOld := payloadString(plan.Payload, "category_name")
	newName, hasNew := payloadString(plan.Payload, "name")
	if hasOld && hasNew {
		return fmt.Sprintf("Catégorie renommée : %s → %s.", oldName, newName)
	}
	return fmt.Sprintf("Catégorie mise à jour: %s.", category.Name)
}

func acknowledgement(plan domain.ToolCallPlan) string {
	switch plan.ToolName {
	case domain.ToolCategoriesDelete:
		if name, ok := payloadString(plan.Payload, "category_name"); ok {
			return fmt.Sprintf("Catégorie supprimée : %s.", name)
		}
		return "Catégorie supprimée."
	case domain.ToolBankAccountsDelete:
		if name, ok := payloadString(plan.Payload, "name"); ok {
			return fmt.Sprintf("Compte supprimé: %s.", name)
		}
		return "Compte supprimé."
	default:
		if name, ok := payloadString(plan.Payload, "name"); ok {
			return fmt.Sprintf("Compte par défaut: %s.", name)
		}
		return "Compte par défaut défini."
	}
}

func payloadString(payload domain.Payload, key string) (string, bool) {
	value, ok := payload[key].(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}
