// Package toolcontract checks tool payloads against the fixed field list of each tool before they
// reach the router. Payloads that come from the verifier or the plan proposer go through Check.
package toolcontract

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/bnema/finchat/internal/domain"
)

// Contracts validates tool names against an allow-list and payloads against per-tool contracts.
type Contracts struct {
	allowed  map[string]struct{}
	validate *validator.Validate
}

// New builds contracts restricted to allowed. A nil list allows every known tool.
func New(allowed []string) *Contracts {
	if allowed == nil {
		allowed = domain.DefaultAllowedTools()
	}
	set := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		set[strings.TrimSpace(name)] = struct{}{}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(validate, "profilefield", validateProfileField)

	return &Contracts{allowed: set, validate: validate}
}

func mustRegister(validate *validator.Validate, tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

func validateProfileField(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	for _, field := range domain.ProfileFields {
		if field.Key == key {
			return true
		}
	}
	return false
}

// Allowed reports whether toolName is on the allow-list.
func (c *Contracts) Allowed(toolName string) bool {
	_, ok := c.allowed[toolName]
	return ok
}

// AllowedTools returns the allow-list, sorted.
func (c *Contracts) AllowedTools() []string {
	names := make([]string, 0, len(c.allowed))
	for name := range c.allowed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check sanitizes payload and validates it for toolName. The sanitized payload is returned
// only when it is valid.
func (c *Contracts) Check(toolName string, payload domain.Payload) (domain.Payload, error) {
	if _, known := contracts[toolName]; !known {
		return nil, fmt.Errorf("check %q: %w", toolName, domain.ErrUnknownTool)
	}
	if !c.Allowed(toolName) {
		return nil, fmt.Errorf("check %q: %w", toolName, domain.ErrToolNotAllowed)
	}

	sanitized := Sanitize(toolName, payload)
	if err := c.Validate(toolName, sanitized); err != nil {
		return nil, err
	}
	return sanitized, nil
}

// Validate decodes payload into the tool's contract, rejecting unknown keys and wrong types,
// then applies the contract's rules.
func (c *Contracts) Validate(toolName string, payload domain.Payload) error {
	build, ok := contracts[toolName]
	if !ok {
		return fmt.Errorf("validate %q: %w", toolName, domain.ErrUnknownTool)
	}

	target := build()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      target,
		TagName:     "mapstructure",
		Squash:      true,
	})
	if err != nil {
		return fmt.Errorf("build decoder for %q: %w", toolName, err)
	}
	if err := decoder.Decode(map[string]any(domain.NormalizeMap(payload))); err != nil {
		return fmt.Errorf("decode %q payload: %w: %w", toolName, domain.ErrInvalidPayload, err)
	}

	if err := c.validate.Struct(target); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			return fmt.Errorf("validate %q payload: %w: %s", toolName, domain.ErrInvalidPayload, describe(fieldErrors))
		}
		return fmt.Errorf("validate %q payload: %w: %w", toolName, domain.ErrInvalidPayload, err)
	}
	return nil
}

func describe(fieldErrors validator.ValidationErrors) string {
	parts := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		parts = append(parts, fmt.Sprintf("%s failed %s", fieldError.Namespace(), fieldError.Tag()))
	}
	return strings.Join(parts, "; ")
}

// Sanitize returns a copy of payload without nil or blank values. Totals take no pagination.
func Sanitize(toolName string, payload domain.Payload) domain.Payload {
	sanitized := domain.Payload{}
	for key, value := range domain.NormalizeMap(payload) {
		if value == nil {
			continue
		}
		if text, ok := value.(string); ok && text == "" {
			continue
		}
		if domain.IsPaginationKey(key) && toolName != domain.ToolRelevesSearch {
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}
