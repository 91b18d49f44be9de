package env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/finchat/internal/domain"
)

func storeWith(vars map[string]string, prefixes ...string) *Store {
	store := NewStore(prefixes...)
	store.lookup = func(name string) (string, bool) {
		value, ok := vars[name]
		return value, ok
	}
	return store
}

func TestStoreGet(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		vars    map[string]string
		want    string
		wantErr error
	}{
		{
			name: "prefixed variable wins",
			vars: map[string]string{"FINCHAT_OPENAI_API_KEY": "sk-finchat", "OPENAI_API_KEY": "sk-global"},
			want: "sk-finchat",
		},
		{
			name: "bare variable as fallback",
			vars: map[string]string{"OPENAI_API_KEY": " sk-global "},
			want: "sk-global",
		},
		{
			name:    "blank values are missing",
			vars:    map[string]string{"FINCHAT_OPENAI_API_KEY": "  "},
			wantErr: domain.ErrSecretNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := storeWith(tc.vars, "FINCHAT_", "").Get(context.Background(), "openai_api_key")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStoreGetHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storeWith(nil).Get(ctx, "openai_api_key")

	require.ErrorIs(t, err, context.Canceled)
}
