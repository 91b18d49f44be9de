package memory

import (
	"fmt"
	"maps"
	"strings"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/refs"
)

type nameArgs struct {
	Name              string `mapstructure:"name"`
	NewName           string `mapstructure:"new_name"`
	CategoryName      string `mapstructure:"category_name"`
	BankAccountID     string `mapstructure:"bank_account_id"`
	ExcludeFromTotals *bool  `mapstructure:"exclude_from_totals"`
}

func decodeNames(payload map[string]any) (nameArgs, error) {
	var args nameArgs
	if err := decode(payload, &args); err != nil {
		return nameArgs{}, err
	}
	args.Name = strings.TrimSpace(args.Name)
	args.NewName = strings.TrimSpace(args.NewName)
	args.CategoryName = strings.TrimSpace(args.CategoryName)
	args.BankAccountID = strings.TrimSpace(args.BankAccountID)
	return args, nil
}

func okResult() map[string]any {
	return map[string]any{"ok": true}
}

func (r *Router) listCategories(data *Dataset, _ map[string]any) (any, error) {
	items := make([]any, 0, len(data.Categories))
	for _, category := range data.Categories {
		items = append(items, categoryResult(category))
	}
	return map[string]any{"items": items}, nil
}

func categoryResult(category Category) map[string]any {
	return map[string]any{"id": category.ID, "name": category.Name, "exclude_from_totals": category.ExcludeFromTotals}
}

func (r *Router) createCategory(data *Dataset, payload map[string]any) (any, error) {
	args, err := decodeNames(payload)
	if err != nil {
		return nil, err
	}
	if args.Name == "" {
		return nil, validationError("name is required")
	}
	if len(refs.Exact(args.Name, categoryEntries(data))) > 0 {
		return nil, domain.NewToolError(domain.ToolErrorConflict, fmt.Sprintf("category %q already exists", args.Name)).
			WithDetails(map[string]any{"name": args.Name})
	}

	category := Category{ID: r.newID("cat"), Name: args.Name}
	data.Categories = append(data.Categories, category)
	return categoryResult(category), nil
}

func (r *Router) updateCategory(data *Dataset, payload map[string]any) (any, error) {
	args, err := decodeNames(payload)
	if err != nil {
		return nil, err
	}
	index, err := findCategory(data, args.CategoryName)
	if err != nil {
		return nil, err
	}

	category := &data.Categories[index]
	previous := category.Name
	if args.Name != "" {
		category.Name = args.Name
		for i := range data.Transactions {
			if data.Transactions[i].Categorie == previous {
				data.Transactions[i].Categorie = args.Name
			}
		}
	}
	if args.ExcludeFromTotals != nil {
		category.ExcludeFromTotals = *args.ExcludeFromTotals
	}
	return categoryResult(*category), nil
}

func (r *Router) deleteCategory(data *Dataset, payload map[string]any) (any, error) {
	args, err := decodeNames(payload)
	if err != nil {
		return nil, err
	}
	index, err := findCategory(data, args.CategoryName)
	if err != nil {
		return nil, err
	}

	name := data.Categories[index].Name
	data.Categories = append(data.Categories[:index], data.Categories[index+1:]...)
	for i := range data.Transactions {
		if data.Transactions[i].Categorie == name {
			data.Transactions[i].Categorie = ""
		}
	}
	return okResult(), nil
}

func categoryEntries(data *Dataset) []refs.Entry {
	entries := make([]refs.Entry, 0, len(data.Categories))
	for _, category := range data.Categories {
		entries = append(entries, refs.Entry{ID: category.ID, Name: category.Name})
	}
	return entries
}

func findCategory(data *Dataset, name string) (int, error) {
	if name == "" {
		return 0, validationError("category_name is required")
	}
	entries := categoryEntries(data)
	matches := refs.Exact(name, entries)
	switch len(matches) {
	case 1:
		for i, category := range data.Categories {
			if category.ID == matches[0].ID {
				return i, nil
			}
		}
	case 0:
		return 0, domain.NewToolError(domain.ToolErrorNotFound, fmt.Sprintf("category %q not found", name)).
			WithDetails(map[string]any{
				"category_name":        name,
				"close_category_names": namesAsAny(refs.Suggest(name, entries, maxCloseNameCount)),
			})
	}
	return 0, domain.NewToolError(domain.ToolErrorAmbiguous, fmt.Sprintf("several categories match %q", name)).
		WithDetails(map[string]any{"candidates": namesAsAny(matches)})
}

func (r *Router) listBankAccounts(data *Dataset, _ map[string]any) (any, error) {
	items := make([]any, 0, len(data.BankAccounts))
	for _, account := range data.BankAccounts {
		items = append(items, bankAccountResult(account))
	}
	return map[string]any{"items": items, "default_bank_account_id": data.DefaultBankAccountID}, nil
}

func bankAccountResult(account BankAccount) map[string]any {
	return map[string]any{"id": account.ID, "name": account.Name}
}

func (r *Router) createBankAccount(data *Dataset, payload map[string]any) (any, error) {
	args, err := decodeNames(payload)
	if err != nil {
		return nil, err
	}
	if args.Name == "" {
		return nil, validationError("name is required")
	}
	if len(refs.Exact(args.Name, bankAccountEntries(data))) > 0 {
		return nil, domain.NewToolError(domain.ToolErrorConflict, fmt.Sprintf("bank account %q already exists", args.Name)).
			WithDetails(map[string]any{"name": args.Name})
	}

	account := BankAccount{ID: r.newID("acc"), Name: args.Name}
	data.BankAccounts = append(data.BankAccounts, account)
	return bankAccountResult(account), nil
}

func (r *Router) updateBankAccount(data *Dataset, payload map[string]any) (any, error) {
	args, err := decodeNames(payload)
	if err != nil {
		return nil, err
	}
	if args.NewName == "" {
		return nil, validationError("new_name is required")
	}
	index, err := findBankAccount(data, args)
	if err != nil {
		return nil, err
	}
	data.BankAccounts[index].Name = args.NewName
	return bankAccountResult(data.BankAccounts[index]), nil
}

func (r *Router) deleteBankAccount(data *Dataset, payload map[string]any) (any, error) {
	args, err := decodeNames(payload)
	if err != nil {
		return nil, err
	}
	index, err := findBankAccount(data, args)
	if err != nil {
		return nil, err
	}

	account := data.BankAccounts[index]
	if hasTransactions(data, account.ID) {
		return nil, domain.NewToolError(domain.ToolErrorConflict, "bank account has transactions").
			WithDetails(map[string]any{"bank_account_id": account.ID})
	}
	data.BankAccounts = append(data.BankAccounts[:index], data.BankAccounts[index+1:]...)
	if data.DefaultBankAccountID == account.ID {
		data.DefaultBankAccountID = ""
	}
	return okResult(), nil
}

func (r *Router) setDefaultBankAccount(data *Dataset, payload map[string]any) (any, error) {
	args, err := decodeNames(payload)
	if err != nil {
		return nil, err
	}
	index, err := findBankAccount(data, args)
	if err != nil {
		return nil, err
	}
	data.DefaultBankAccountID = data.BankAccounts[index].ID
	return okResult(), nil
}

func (r *Router) canDeleteBankAccount(data *Dataset, payload map[string]any) (any, error) {
	args, err := decodeNames(payload)
	if err != nil {
		return nil, err
	}
	if args.BankAccountID == "" {
		return nil, validationError("bank_account_id is required")
	}
	index, err := findBankAccount(data, args)
	if err != nil {
		return nil, err
	}
	if hasTransactions(data, data.BankAccounts[index].ID) {
		return map[string]any{"can_delete": false, "reason": "has_transactions"}, nil
	}
	return map[string]any{"can_delete": true}, nil
}

func bankAccountEntries(data *Dataset) []refs.Entry {
	entries := make([]refs.Entry, 0, len(data.BankAccounts))
	for _, account := range data.BankAccounts {
		entries = append(entries, refs.Entry{ID: account.ID, Name: account.Name})
	}
	return entries
}

// findBankAccount resolves an id first, then a name. Same-named accounts are ambiguous.
func findBankAccount(data *Dataset, args nameArgs) (int, error) {
	if args.BankAccountID != "" {
		for i, account := range data.BankAccounts {
			if account.ID == args.BankAccountID {
				return i, nil
			}
		}
		return 0, domain.NewToolError(domain.ToolErrorNotFound, fmt.Sprintf("bank account %q not found", args.BankAccountID)).
			WithDetails(map[string]any{"bank_account_id": args.BankAccountID})
	}
	if args.Name == "" {
		return 0, validationError("name or bank_account_id is required")
	}

	entries := bankAccountEntries(data)
	matches := refs.Exact(args.Name, entries)
	switch len(matches) {
	case 1:
		for i, account := range data.BankAccounts {
			if account.ID == matches[0].ID {
				return i, nil
			}
		}
	case 0:
		return 0, domain.NewToolError(domain.ToolErrorNotFound, fmt.Sprintf("bank account %q not found", args.Name)).
			WithDetails(map[string]any{
				"name":        args.Name,
				"close_names": namesAsAny(refs.Suggest(args.Name, entries, maxCloseNameCount)),
			})
	}

	candidates := make([]any, 0, len(matches))
	for _, match := range matches {
		candidates = append(candidates, map[string]any{"id": match.ID, "name": match.Name})
	}
	return 0, domain.NewToolError(domain.ToolErrorAmbiguous, fmt.Sprintf("several bank accounts match %q", args.Name)).
		WithDetails(map[string]any{"name": args.Name, "candidates": candidates})
}

func hasTransactions(data *Dataset, accountID string) bool {
	for _, tx := range data.Transactions {
		if tx.BankAccountID == accountID {
			return true
		}
	}
	return false
}

type profileArgs struct {
	Fields []string       `mapstructure:"fields"`
	Set    map[string]any `mapstructure:"set"`
}

func (r *Router) getProfile(data *Dataset, payload map[string]any) (any, error) {
	var args profileArgs
	if err := decode(payload, &args); err != nil {
		return nil, err
	}
	if len(args.Fields) == 0 {
		return nil, validationError("fields is required")
	}

	values := make(map[string]any, len(args.Fields))
	for _, field := range args.Fields {
		if !isProfileField(field) {
			return nil, validationError(fmt.Sprintf("unknown profile field %q", field)).
				WithDetails(map[string]any{"field": field})
		}
		values[field] = data.Profile[field]
	}
	if _, ok := values["default_bank_account_id"]; ok {
		values["default_bank_account_id"] = data.DefaultBankAccountID
	}
	return map[string]any{"data": values}, nil
}

func (r *Router) updateProfile(data *Dataset, payload map[string]any) (any, error) {
	var args profileArgs
	if err := decode(payload, &args); err != nil {
		return nil, err
	}
	if len(args.Set) == 0 {
		return nil, validationError("set is required")
	}
	for field := range args.Set {
		if !isProfileField(field) {
			return nil, validationError(fmt.Sprintf("unknown profile field %q", field)).
				WithDetails(map[string]any{"field": field})
		}
	}

	if data.Profile == nil {
		data.Profile = map[string]any{}
	}
	maps.Copy(data.Profile, args.Set)
	if id, ok := args.Set["default_bank_account_id"].(string); ok {
		data.DefaultBankAccountID = id
	}
	return map[string]any{"data": maps.Clone(args.Set)}, nil
}

func isProfileField(field string) bool {
	for _, known := range domain.ProfileFields {
		if known.Key == field {
			return true
		}
	}
	return false
}

func namesAsAny(entries []refs.Entry) []any {
	names := make([]any, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names
}
