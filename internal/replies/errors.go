package replies

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bnema/finchat/internal/domain"
)

// errorRule renders a tool error when it recognizes it.
type errorRule func(plan domain.ToolCallPlan, toolErr *domain.ToolError) (string, bool)

// errorRules is tried in order; the generic "Erreur:" text is used when none match.
var errorRules = []errorRule{
	bankAccountNotFound,
	bankAccountAmbiguous,
	bankAccountCreateConflict,
	bankAccountDeleteConflict,
	categoryNotFound,
	categoryAmbiguous,
	profileValidation,
}

// Error renders a backend tool error for plan.
func (b *Builder) Error(plan domain.ToolCallPlan, toolErr *domain.ToolError) string {
	if toolErr == nil {
		return Unavailable(plan.UserReplyHint)
	}
	for _, rule := range errorRules {
		if reply, ok := rule(plan, toolErr); ok {
			return reply
		}
	}

	reply := fmt.Sprintf("Erreur: %s.", strings.TrimSuffix(strings.TrimSpace(toolErr.Message), "."))
	if len(toolErr.Details) > 0 {
		if details, err := json.Marshal(toolErr.Details); err == nil {
			reply += fmt.Sprintf(" Détails: %s.", details)
		}
	}
	return reply
}

// Suggestions renders the "did you mean" tail shared by not-found replies.
func Suggestions(names []string) string {
	if len(names) > maxSuggestions {
		names = names[:maxSuggestions]
	}
	return fmt.Sprintf("Vouliez-vous dire: %s ?", strings.Join(names, ", "))
}

// BankAccountNotFound is the reply for a bank account name that matched nothing.
func BankAccountNotFound(name string, closeNames []string) string {
	base := "Je ne trouve pas ce compte."
	if name = strings.TrimSpace(name); name != "" {
		base = fmt.Sprintf("Je ne trouve pas le compte « %s ».", name)
	}
	if len(closeNames) > 0 {
		return base + " " + Suggestions(closeNames)
	}
	return base
}

// BankAccountsAmbiguous is the reply for a bank account name matching several accounts.
func BankAccountsAmbiguous(names []string) string {
	return fmt.Sprintf("Plusieurs comptes correspondent: %s.", strings.Join(names, ", "))
}

// CategoryNotFound is the reply for a category name that matched nothing.
func CategoryNotFound(name string, closeNames []string) string {
	base := "Je ne trouve pas cette catégorie."
	if name = strings.TrimSpace(name); name != "" {
		base = fmt.Sprintf("Je ne trouve pas la catégorie « %s ».", name)
	}
	if len(closeNames) > 0 {
		return base + " " + Suggestions(closeNames)
	}
	return base + " Souhaitez-vous la créer ?"
}

func bankAccountNotFound(_ domain.ToolCallPlan, toolErr *domain.ToolError) (string, bool) {
	if toolErr.Code != domain.ToolErrorNotFound {
		return "", false
	}
	raw, ok := toolErr.Details["name"]
	if !ok {
		return "", false
	}
	name, _ := raw.(string)
	return BankAccountNotFound(name, DetailStrings(toolErr.Details["close_names"])), true
}

func bankAccountAmbiguous(_ domain.ToolCallPlan, toolErr *domain.ToolError) (string, bool) {
	if toolErr.Code != domain.ToolErrorAmbiguous {
		return "", false
	}
	candidates, ok := toolErr.Details["candidates"].([]any)
	if !ok {
		return "", false
	}
	var names []string
	for _, candidate := range candidates {
		entry, ok := candidate.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := entry["name"].(string); ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	return BankAccountsAmbiguous(names), true
}

func bankAccountCreateConflict(plan domain.ToolCallPlan, toolErr *domain.ToolError) (string, bool) {
	if plan.ToolName != domain.ToolBankAccountsCreate || toolErr.Code != domain.ToolErrorConflict {
		return "", false
	}
	if name, ok := payloadString(plan.Payload, "name"); ok {
		return fmt.Sprintf("Un compte nommé « %s » existe déjà. Choisissez un autre nom.", name), true
	}
	return "Un compte portant ce nom existe déjà. Choisissez un autre nom.", true
}

func bankAccountDeleteConflict(plan domain.ToolCallPlan, toolErr *domain.ToolError) (string, bool) {
	if plan.ToolName != domain.ToolBankAccountsDelete || toolErr.Code != domain.ToolErrorConflict {
		return "", false
	}
	return "Impossible de supprimer ce compte car il contient des transactions. " +
		"Déplacez/supprimez d’abord les transactions ou choisissez un autre compte.", true
}

func categoryNotFound(_ domain.ToolCallPlan, toolErr *domain.ToolError) (string, bool) {
	if toolErr.Code != domain.ToolErrorNotFound {
		return "", false
	}
	name, _ := toolErr.Details["category_name"].(string)
	return CategoryNotFound(name, DetailStrings(toolErr.Details["close_category_names"])), true
}

func categoryAmbiguous(_ domain.ToolCallPlan, toolErr *domain.ToolError) (string, bool) {
	if toolErr.Code != domain.ToolErrorAmbiguous {
		return "", false
	}
	names := DetailStrings(toolErr.Details["candidates"])
	if len(names) == 0 {
		return "Plusieurs catégories correspondent. Pouvez-vous préciser ?", true
	}
	return fmt.Sprintf("Plusieurs catégories correspondent: %s.", strings.Join(names, ", ")), true
}

func profileValidation(plan domain.ToolCallPlan, toolErr *domain.ToolError) (string, bool) {
	if plan.ToolName != domain.ToolProfileGet && plan.ToolName != domain.ToolProfileUpdate {
		return "", false
	}
	if toolErr.Code != domain.ToolErrorValidation {
		return "", false
	}
	if field, _ := toolErr.Details["field"].(string); strings.TrimSpace(field) != "" {
		return "Je n’ai pas compris quelle info du profil vous voulez (prénom, nom, ville, etc.).", true
	}
	return "La demande de profil est invalide. Précisez un champ comme prénom, nom ou ville.", true
}

// DetailStrings reads a list of names from a tool error detail, skipping blanks.
func DetailStrings(raw any) []string {
	var values []string
	switch typed := raw.(type) {
	case []string:
		values = typed
	case []any:
		for _, item := range typed {
			if value, ok := item.(string); ok {
				values = append(values, value)
			}
		}
	}
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			result = append(result, value)
		}
	}
	return result
}
