package replies

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Amount is a decimal amount kept as text so rounding happens once, on display.
type Amount string

// Rat parses the amount. Blank or malformed text is zero.
func (a Amount) Rat() *big.Rat {
	value, ok := new(big.Rat).SetString(strings.TrimSpace(string(a)))
	if !ok {
		return new(big.Rat)
	}
	return value
}

type Filters struct {
	Direction string `mapstructure:"direction"`
}

type SumResult struct {
	Total    Amount  `mapstructure:"total"`
	Count    int     `mapstructure:"count"`
	Average  Amount  `mapstructure:"average"`
	Currency string  `mapstructure:"currency"`
	Filters  Filters `mapstructure:"filters"`
}

type AggregateGroup struct {
	Total Amount `mapstructure:"total"`
	Count int    `mapstructure:"count"`
}

type AggregateResult struct {
	GroupBy  string                    `mapstructure:"group_by"`
	Groups   map[string]AggregateGroup `mapstructure:"groups"`
	Currency string                    `mapstructure:"currency"`
	Filters  Filters                   `mapstructure:"filters"`
}

type Transaction struct {
	ID        string `mapstructure:"id"`
	Date      string `mapstructure:"date"`
	Libelle   string `mapstructure:"libelle"`
	Payee     string `mapstructure:"payee"`
	Montant   Amount `mapstructure:"montant"`
	Categorie string `mapstructure:"categorie"`
}

type SearchResult struct {
	Items  []Transaction `mapstructure:"items"`
	Limit  int           `mapstructure:"limit"`
	Offset int           `mapstructure:"offset"`
}

type Category struct {
	ID                string `mapstructure:"id"`
	Name              string `mapstructure:"name"`
	ExcludeFromTotals bool   `mapstructure:"exclude_from_totals"`
}

type CategoriesResult struct {
	Items []Category `mapstructure:"items"`
}

type BankAccount struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Kind        string `mapstructure:"kind"`
	AccountKind string `mapstructure:"account_kind"`
}

type BankAccountsResult struct {
	Items                []BankAccount `mapstructure:"items"`
	DefaultBankAccountID string        `mapstructure:"default_bank_account_id"`
}

type ProfileResult struct {
	Data map[string]any `mapstructure:"data"`
}

type CanDeleteResult struct {
	CanDelete bool   `mapstructure:"can_delete"`
	Reason    string `mapstructure:"reason"`
}

type OKResult struct {
	OK bool `mapstructure:"ok"`
}

// Decode converts a router result (a JSON-shaped map) into target. Unknown keys are ignored so
// backends may return more than the reply needs.
func Decode(raw any, target any) error {
	if raw == nil {
		return fmt.Errorf("decode result: empty result")
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       amountHook,
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("build result decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

var amountType = reflect.TypeOf(Amount(""))

func amountHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != amountType {
		return data, nil
	}
	switch value := data.(type) {
	case float64:
		return Amount(strconv.FormatFloat(value, 'f', -1, 64)), nil
	case float32:
		return Amount(strconv.FormatFloat(float64(value), 'f', -1, 32)), nil
	case int:
		return Amount(strconv.Itoa(value)), nil
	case int64:
		return Amount(strconv.FormatInt(value, 10)), nil
	case json.Number:
		return Amount(value.String()), nil
	case string:
		return Amount(strings.TrimSpace(value)), nil
	case nil:
		return Amount("0"), nil
	default:
		return data, nil
	}
}

// Money renders amount with two decimals, halves rounded away from zero.
func Money(amount Amount, currency string) string {
	formatted := amount.Rat().FloatString(2)
	if currency == "" {
		return formatted
	}
	return formatted + " " + currency
}
