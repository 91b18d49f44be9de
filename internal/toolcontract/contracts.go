package toolcontract

import "github.com/bnema/finchat/internal/domain"

type dateRange struct {
	StartDate string `mapstructure:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `mapstructure:"end_date" validate:"required,datetime=2006-01-02"`
}

// Period holds the period keys shared by the three transaction queries.
type Period struct {
	DateRange *dateRange `mapstructure:"date_range"`
	Month     string     `mapstructure:"month" validate:"omitempty,datetime=2006-01"`
	Year      *int       `mapstructure:"year" validate:"omitempty,min=1900,max=2199"`
}

type relevesSearch struct {
	Period        `mapstructure:",squash"`
	Merchant      string   `mapstructure:"merchant" validate:"omitempty,max=120"`
	Search        string   `mapstructure:"search" validate:"omitempty,max=120"`
	Categorie     string   `mapstructure:"categorie" validate:"omitempty,max=80"`
	BankAccountID string   `mapstructure:"bank_account_id" validate:"omitempty,max=80"`
	Direction     string   `mapstructure:"direction" validate:"omitempty,oneof=DEBIT_ONLY CREDIT_ONLY ALL"`
	MinAmount     *float64 `mapstructure:"min_amount"`
	MaxAmount     *float64 `mapstructure:"max_amount"`
	Limit         *int     `mapstructure:"limit" validate:"omitempty,min=1,max=500"`
	Offset        *int     `mapstructure:"offset" validate:"omitempty,min=0"`
}

type relevesSum struct {
	Period        `mapstructure:",squash"`
	Direction     string `mapstructure:"direction" validate:"required,oneof=DEBIT_ONLY CREDIT_ONLY ALL"`
	Categorie     string `mapstructure:"categorie" validate:"omitempty,max=80"`
	Merchant      string `mapstructure:"merchant" validate:"omitempty,max=120"`
	Search        string `mapstructure:"search" validate:"omitempty,max=120"`
	BankAccountID string `mapstructure:"bank_account_id" validate:"omitempty,max=80"`
}

type relevesAggregate struct {
	Period    `mapstructure:",squash"`
	GroupBy   string `mapstructure:"group_by" validate:"required,oneof=categorie payee month"`
	Direction string `mapstructure:"direction" validate:"omitempty,oneof=DEBIT_ONLY CREDIT_ONLY ALL"`
	Categorie string `mapstructure:"categorie" validate:"omitempty,max=80"`
	Merchant  string `mapstructure:"merchant" validate:"omitempty,max=120"`
}

type empty struct{}

type categoryCreate struct {
	Name string `mapstructure:"name" validate:"required,max=80"`
}

type categoryUpdate struct {
	CategoryName      string `mapstructure:"category_name" validate:"required,max=80"`
	Name              string `mapstructure:"name" validate:"required_without=ExcludeFromTotals,omitempty,max=80"`
	ExcludeFromTotals *bool  `mapstructure:"exclude_from_totals"`
}

type categoryDelete struct {
	CategoryName string `mapstructure:"category_name" validate:"required,max=80"`
}

type bankAccountCreate struct {
	Name string `mapstructure:"name" validate:"required,max=80"`
}

type bankAccountUpdate struct {
	Name    string `mapstructure:"name" validate:"required,max=80"`
	NewName string `mapstructure:"new_name" validate:"required,max=80,nefield=Name"`
}

// bankAccountRef addresses an account by name or id.
type bankAccountRef struct {
	Name          string `mapstructure:"name" validate:"required_without=BankAccountID,omitempty,max=80"`
	BankAccountID string `mapstructure:"bank_account_id" validate:"omitempty,max=80"`
}

type bankAccountCanDelete struct {
	BankAccountID string `mapstructure:"bank_account_id" validate:"required,max=80"`
}

type profileGet struct {
	Fields []string `mapstructure:"fields" validate:"required,min=1,dive,profilefield"`
}

type profileUpdate struct {
	Set map[string]any `mapstructure:"set" validate:"required,min=1,dive,keys,profilefield,endkeys"`
}

// contracts builds an empty decode target per tool.
var contracts = map[string]func() any{
	domain.ToolRelevesSearch:          func() any { return &relevesSearch{} },
	domain.ToolRelevesSum:             func() any { return &relevesSum{} },
	domain.ToolRelevesAggregate:       func() any { return &relevesAggregate{} },
	domain.ToolCategoriesList:         func() any { return &empty{} },
	domain.ToolCategoriesCreate:       func() any { return &categoryCreate{} },
	domain.ToolCategoriesUpdate:       func() any { return &categoryUpdate{} },
	domain.ToolCategoriesDelete:       func() any { return &categoryDelete{} },
	domain.ToolBankAccountsList:       func() any { return &empty{} },
	domain.ToolBankAccountsCreate:     func() any { return &bankAccountCreate{} },
	domain.ToolBankAccountsUpdate:     func() any { return &bankAccountUpdate{} },
	domain.ToolBankAccountsDelete:     func() any { return &bankAccountRef{} },
	domain.ToolBankAccountsSetDefault: func() any { return &bankAccountRef{} },
	domain.ToolBankAccountsCanDelete:  func() any { return &bankAccountCanDelete{} },
	domain.ToolProfileGet:             func() any { return &profileGet{} },
	domain.ToolProfileUpdate:          func() any { return &profileUpdate{} },
}
