package domain

import (
	"sort"
	"strings"
)

// Payload is the JSON-compatible argument map of a tool invocation.
type Payload map[string]any

const (
	KeyDateRange         = "date_range"
	KeyStartDate         = "start_date"
	KeyEndDate           = "end_date"
	KeyMonth             = "month"
	KeyYear              = "year"
	KeyLimit             = "limit"
	KeyOffset            = "offset"
	KeyDirection         = "direction"
	KeyCategory          = "categorie"
	KeyMerchant          = "merchant"
	KeySearch            = "search"
	KeyGroupBy           = "group_by"
	KeyCategoryName      = "category_name"
	KeyName              = "name"
	KeyNewName           = "new_name"
	KeyExcludeFromTotals = "exclude_from_totals"
	KeyBankAccountID     = "bank_account_id"
	KeyFields            = "fields"
	KeySet               = "set"
	KeyMinAmount         = "min_amount"
	KeyMaxAmount         = "max_amount"
)

const (
	DirectionDebitOnly  = "DEBIT_ONLY"
	DirectionCreditOnly = "CREDIT_ONLY"
	DirectionAll        = "ALL"
)

var periodKeys = []string{KeyDateRange, KeyMonth, KeyYear}

// PeriodKeys returns the payload keys that describe a period.
func PeriodKeys() []string {
	return append([]string(nil), periodKeys...)
}

func IsPeriodKey(key string) bool {
	for _, candidate := range periodKeys {
		if key == candidate {
			return true
		}
	}
	return false
}

func IsPaginationKey(key string) bool {
	return key == KeyLimit || key == KeyOffset
}

// Clone returns a deep copy: nested maps and slices are never shared.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	cloned := make(Payload, len(p))
	for key, value := range p {
		cloned[key] = cloneValue(value)
	}
	return cloned
}

func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the trimmed string stored under key, if any.
func (p Payload) String(key string) (string, bool) {
	raw, ok := p[key]
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (p Payload) HasPeriod() bool {
	for _, key := range periodKeys {
		if p.Has(key) {
			return true
		}
	}
	return false
}

// DateRange decodes the date_range entry when both bounds are present.
func (p Payload) DateRange() (DateRange, bool) {
	return DateRangeFromValue(p[KeyDateRange])
}

// With returns a copy of the payload with key set to value.
func (p Payload) With(key string, value any) Payload {
	cloned := p.Clone()
	if cloned == nil {
		cloned = Payload{}
	}
	cloned[key] = cloneValue(value)
	return cloned
}

// Without returns a copy of the payload without the given keys.
func (p Payload) Without(keys ...string) Payload {
	cloned := p.Clone()
	if cloned == nil {
		cloned = Payload{}
	}
	for _, key := range keys {
		delete(cloned, key)
	}
	return cloned
}

// Keys returns the sorted key set.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case Payload:
		return typed.Clone()
	case map[string]any:
		return map[string]any(Payload(typed).Clone())
	case map[string]string:
		cloned := make(map[string]string, len(typed))
		for key, item := range typed {
			cloned[key] = item
		}
		return cloned
	case []any:
		cloned := make([]any, len(typed))
		for i, item := range typed {
			cloned[i] = cloneValue(item)
		}
		return cloned
	case []string:
		return append([]string(nil), typed...)
	default:
		return value
	}
}

// CloneMap deep-copies a JSON-compatible map.
func CloneMap(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	return map[string]any(Payload(raw).Clone())
}
