// Package memory is an in-process tool backend over a fixed dataset. It answers with the
// same JSON-shaped results and tool errors as the HTTP backend.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/ports"
)

const (
	Currency          = "CHF"
	defaultPageLimit  = 50
	maxCloseNameCount = 3
)

// Router keeps one copy of the seed dataset per profile, created on first use.
type Router struct {
	mu       sync.Mutex
	seed     Dataset
	profiles map[string]*Dataset
	nextID   int
}

var _ ports.ToolRouter = (*Router)(nil)

func New(seed Dataset) *Router {
	return &Router{seed: seed, profiles: map[string]*Dataset{}}
}

type handler func(r *Router, data *Dataset, payload map[string]any) (any, error)

var handlers = map[string]handler{
	domain.ToolRelevesSearch:          (*Router).search,
	domain.ToolRelevesSum:             (*Router).sum,
	domain.ToolRelevesAggregate:       (*Router).aggregate,
	domain.ToolCategoriesList:         (*Router).listCategories,
	domain.ToolCategoriesCreate:       (*Router).createCategory,
	domain.ToolCategoriesUpdate:       (*Router).updateCategory,
	domain.ToolCategoriesDelete:       (*Router).deleteCategory,
	domain.ToolBankAccountsList:       (*Router).listBankAccounts,
	domain.ToolBankAccountsCreate:     (*Router).createBankAccount,
	domain.ToolBankAccountsUpdate:     (*Router).updateBankAccount,
	domain.ToolBankAccountsDelete:     (*Router).deleteBankAccount,
	domain.ToolBankAccountsSetDefault: (*Router).setDefaultBankAccount,
	domain.ToolBankAccountsCanDelete:  (*Router).canDeleteBankAccount,
	domain.ToolProfileGet:             (*Router).getProfile,
	domain.ToolProfileUpdate:          (*Router).updateProfile,
}

func (r *Router) Call(ctx context.Context, toolName string, payload map[string]any, toolCtx ports.ToolContext) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handle, ok := handlers[toolName]
	if !ok {
		return nil, domain.NewToolError(domain.ToolErrorUnknownTool, fmt.Sprintf("unknown tool %q", toolName))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return handle(r, r.dataFor(toolCtx.ProfileID), payload)
}

func (r *Router) dataFor(profileID string) *Dataset {
	key := strings.TrimSpace(profileID)
	data, ok := r.profiles[key]
	if !ok {
		data = r.seed.clone()
		r.profiles[key] = data
	}
	return data
}

func (r *Router) newID(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-new-%d", prefix, r.nextID)
}

// decode reads payload into target, accepting numbers in any JSON or TOML shape.
func decode(payload map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("build payload decoder: %w", err)
	}
	if err := decoder.Decode(payload); err != nil {
		return validationError(err.Error())
	}
	return nil
}

func validationError(message string) *domain.ToolError {
	return domain.NewToolError(domain.ToolErrorValidation, message)
}
