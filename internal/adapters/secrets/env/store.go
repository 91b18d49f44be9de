// Package env reads secrets from environment variables.
package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/ports"
)

type lookupFunc func(name string) (string, bool)

// Store maps a key such as "openai_api_key" to PREFIX_OPENAI_API_KEY, trying each prefix in
// order. An empty prefix looks up the bare upper-cased key.
type Store struct {
	prefixes []string
	lookup   lookupFunc
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(prefixes ...string) *Store {
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	return &Store{prefixes: prefixes, lookup: os.LookupEnv}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := strings.ToUpper(strings.TrimSpace(key))
	if name == "" {
		return "", errors.New("secret key is empty")
	}
	name = strings.NewReplacer(".", "_", "-", "_", "/", "_").Replace(name)

	for _, prefix := range s.prefixes {
		if value, ok := s.lookup(prefix + name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), nil
		}
	}
	return "", fmt.Errorf("env secret %q: %w", name, domain.ErrSecretNotFound)
}
