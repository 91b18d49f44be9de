package memory

import (
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/textnorm"
)

const uncategorized = "Sans catégorie"

type dateRangeArgs struct {
	StartDate string `mapstructure:"start_date"`
	EndDate   string `mapstructure:"end_date"`
}

type queryArgs struct {
	DateRange     *dateRangeArgs `mapstructure:"date_range"`
	Month         string         `mapstructure:"month"`
	Year          int            `mapstructure:"year"`
	Direction     string         `mapstructure:"direction"`
	Categorie     string         `mapstructure:"categorie"`
	Merchant      string         `mapstructure:"merchant"`
	Search        string         `mapstructure:"search"`
	BankAccountID string         `mapstructure:"bank_account_id"`
	MinAmount     *float64       `mapstructure:"min_amount"`
	MaxAmount     *float64       `mapstructure:"max_amount"`
	GroupBy       string         `mapstructure:"group_by"`
	Limit         int            `mapstructure:"limit"`
	Offset        int            `mapstructure:"offset"`
}

func (q queryArgs) matches(tx Transaction) bool {
	switch {
	case q.DateRange != nil && (tx.Date < q.DateRange.StartDate || tx.Date > q.DateRange.EndDate):
		return false
	case q.Month != "" && !strings.HasPrefix(tx.Date, q.Month):
		return false
	case q.Year != 0 && !strings.HasPrefix(tx.Date, yearPrefix(q.Year)):
		return false
	case q.BankAccountID != "" && tx.BankAccountID != q.BankAccountID:
		return false
	case q.Categorie != "" && !textnorm.Equal(tx.Categorie, q.Categorie):
		return false
	case q.Merchant != "" && !containsFolded(q.Merchant, tx.Payee, tx.Libelle):
		return false
	case q.Search != "" && !containsFolded(q.Search, tx.Libelle, tx.Payee):
		return false
	}

	amount := parseAmount(tx.Montant)
	switch q.Direction {
	case domain.DirectionDebitOnly:
		if amount.Sign() >= 0 {
			return false
		}
	case domain.DirectionCreditOnly:
		if amount.Sign() <= 0 {
			return false
		}
	}
	if q.MinAmount != nil && amount.Cmp(new(big.Rat).SetFloat64(*q.MinAmount)) < 0 {
		return false
	}
	if q.MaxAmount != nil && amount.Cmp(new(big.Rat).SetFloat64(*q.MaxAmount)) > 0 {
		return false
	}
	return true
}

func (r *Router) search(data *Dataset, payload map[string]any) (any, error) {
	var args queryArgs
	if err := decode(payload, &args); err != nil {
		return nil, err
	}
	if args.Limit <= 0 {
		args.Limit = defaultPageLimit
	}
	if args.Offset < 0 {
		return nil, validationError("offset must not be negative")
	}

	var matched []Transaction
	for _, tx := range data.Transactions {
		if args.matches(tx) {
			matched = append(matched, tx)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Date > matched[j].Date })

	items := make([]any, 0, args.Limit)
	for i := args.Offset; i < len(matched) && len(items) < args.Limit; i++ {
		items = append(items, transactionResult(matched[i]))
	}
	return map[string]any{"items": items, "limit": args.Limit, "offset": args.Offset}, nil
}

func (r *Router) sum(data *Dataset, payload map[string]any) (any, error) {
	var args queryArgs
	if err := decode(payload, &args); err != nil {
		return nil, err
	}
	if args.Direction == "" {
		return nil, validationError("direction is required")
	}

	excluded := excludedCategories(data, args)
	total := new(big.Rat)
	count := 0
	for _, tx := range data.Transactions {
		if !args.matches(tx) || excluded[textnorm.Fold(tx.Categorie)] {
			continue
		}
		total.Add(total, parseAmount(tx.Montant))
		count++
	}

	average := new(big.Rat)
	if count > 0 {
		average.Quo(total, new(big.Rat).SetInt64(int64(count)))
	}
	return map[string]any{
		"total":    total.FloatString(2),
		"count":    count,
		"average":  average.FloatString(2),
		"currency": Currency,
		"filters":  map[string]any{"direction": args.Direction},
	}, nil
}

func (r *Router) aggregate(data *Dataset, payload map[string]any) (any, error) {
	var args queryArgs
	if err := decode(payload, &args); err != nil {
		return nil, err
	}

	keyOf, ok := groupKeys[args.GroupBy]
	if !ok {
		return nil, validationError("group_by must be categorie, payee or month")
	}

	excluded := excludedCategories(data, args)
	totals := map[string]*big.Rat{}
	counts := map[string]int{}
	for _, tx := range data.Transactions {
		if !args.matches(tx) || excluded[textnorm.Fold(tx.Categorie)] {
			continue
		}
		key := keyOf(tx)
		if totals[key] == nil {
			totals[key] = new(big.Rat)
		}
		totals[key].Add(totals[key], parseAmount(tx.Montant))
		counts[key]++
	}

	groups := make(map[string]any, len(totals))
	for key, total := range totals {
		groups[key] = map[string]any{"total": total.FloatString(2), "count": counts[key]}
	}
	return map[string]any{
		"group_by": args.GroupBy,
		"groups":   groups,
		"currency": Currency,
		"filters":  map[string]any{"direction": args.Direction},
	}, nil
}

var groupKeys = map[string]func(Transaction) string{
	"categorie": func(tx Transaction) string {
		if tx.Categorie == "" {
			return uncategorized
		}
		return tx.Categorie
	},
	"payee": func(tx Transaction) string { return tx.Payee },
	"month": func(tx Transaction) string { return tx.Date[:min(len(tx.Date), 7)] },
}

// excludedCategories lists the categories left out of totals, unless the query names one.
func excludedCategories(data *Dataset, args queryArgs) map[string]bool {
	excluded := map[string]bool{}
	if args.Categorie != "" {
		return excluded
	}
	for _, category := range data.Categories {
		if category.ExcludeFromTotals {
			excluded[textnorm.Fold(category.Name)] = true
		}
	}
	return excluded
}

func transactionResult(tx Transaction) map[string]any {
	return map[string]any{
		"id":              tx.ID,
		"date":            tx.Date,
		"libelle":         tx.Libelle,
		"payee":           tx.Payee,
		"montant":         tx.Montant,
		"categorie":       tx.Categorie,
		"bank_account_id": tx.BankAccountID,
	}
}

func containsFolded(needle string, haystacks ...string) bool {
	folded := textnorm.Fold(needle)
	for _, haystack := range haystacks {
		if strings.Contains(textnorm.Fold(haystack), folded) {
			return true
		}
	}
	return false
}

func parseAmount(raw string) *big.Rat {
	value, ok := new(big.Rat).SetString(strings.TrimSpace(raw))
	if !ok {
		return new(big.Rat)
	}
	return value
}

func yearPrefix(year int) string {
	return strconv.Itoa(year) + "-"
}
