package domain

const (
	ToolRelevesSearch          = "finance_releves_search"
	ToolRelevesSum             = "finance_releves_sum"
	ToolRelevesAggregate       = "finance_releves_aggregate"
	ToolCategoriesList         = "finance_categories_list"
	ToolCategoriesCreate       = "finance_categories_create"
	ToolCategoriesUpdate       = "finance_categories_update"
	ToolCategoriesDelete       = "finance_categories_delete"
	ToolBankAccountsList       = "finance_bank_accounts_list"
	ToolBankAccountsCreate     = "finance_bank_accounts_create"
	ToolBankAccountsUpdate     = "finance_bank_accounts_update"
	ToolBankAccountsDelete     = "finance_bank_accounts_delete"
	ToolBankAccountsSetDefault = "finance_bank_accounts_set_default"
	ToolBankAccountsCanDelete  = "finance_bank_accounts_can_delete"
	ToolProfileGet             = "finance_profile_get"
	ToolProfileUpdate          = "finance_profile_update"
)

type ToolKind int

const (
	ToolKindUnknown ToolKind = iota
	ToolKindRead
	ToolKindSoftWrite
	ToolKindRiskyWrite
)

var toolKinds = map[string]ToolKind{
	ToolRelevesSearch:          ToolKindRead,
	ToolRelevesSum:             ToolKindRead,
	ToolRelevesAggregate:       ToolKindRead,
	ToolCategoriesList:         ToolKindRead,
	ToolBankAccountsList:       ToolKindRead,
	ToolBankAccountsCanDelete:  ToolKindRead,
	ToolProfileGet:             ToolKindRead,
	ToolCategoriesCreate:       ToolKindSoftWrite,
	ToolCategoriesUpdate:       ToolKindSoftWrite,
	ToolBankAccountsCreate:     ToolKindSoftWrite,
	ToolBankAccountsUpdate:     ToolKindSoftWrite,
	ToolBankAccountsSetDefault: ToolKindSoftWrite,
	ToolProfileUpdate:          ToolKindSoftWrite,
	ToolCategoriesDelete:       ToolKindRiskyWrite,
	ToolBankAccountsDelete:     ToolKindRiskyWrite,
}

func KindOfTool(name string) ToolKind {
	return toolKinds[name]
}

func IsKnownTool(name string) bool {
	return KindOfTool(name) != ToolKindUnknown
}

func IsWriteTool(name string) bool {
	kind := KindOfTool(name)
	return kind == ToolKindSoftWrite || kind == ToolKindRiskyWrite
}

func IsRiskyWrite(name string) bool {
	return KindOfTool(name) == ToolKindRiskyWrite
}

// IsQueryTool reports whether a tool belongs to the transaction query family that feeds memory.
func IsQueryTool(name string) bool {
	switch name {
	case ToolRelevesSearch, ToolRelevesSum, ToolRelevesAggregate:
		return true
	default:
		return false
	}
}

// DefaultAllowedTools is the allow-list offered to the verifier.
func DefaultAllowedTools() []string {
	return []string{
		ToolRelevesSearch,
		ToolRelevesSum,
		ToolRelevesAggregate,
		ToolCategoriesList,
		ToolCategoriesCreate,
		ToolCategoriesUpdate,
		ToolCategoriesDelete,
		ToolBankAccountsList,
		ToolBankAccountsCreate,
		ToolBankAccountsUpdate,
		ToolBankAccountsDelete,
		ToolBankAccountsSetDefault,
		ToolProfileGet,
		ToolProfileUpdate,
	}
}
