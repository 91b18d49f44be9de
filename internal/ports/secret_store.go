package ports

import "context"

// SecretStore resolves credentials such as the verifier API key.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
}
