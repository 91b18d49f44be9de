package ports

import (
	"context"

	"github.com/bnema/finchat/internal/domain"
)

type ChatStateRepository interface {
	Get(ctx context.Context, profileID string) (domain.ChatState, error)
	Save(ctx context.Context, profileID string, state domain.ChatState) error
	Delete(ctx context.Context, profileID string) error
}
