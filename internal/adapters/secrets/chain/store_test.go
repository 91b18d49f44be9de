package chain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/finchat/internal/domain"
	portmocks "github.com/bnema/finchat/internal/ports/mocks"
)

const apiKey = "openai_api_key"

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, apiKey).Return("from-env", nil).Once()

	value, err := store.Get(context.Background(), apiKey)
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, apiKey).Return("", domain.ErrSecretNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, apiKey).Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), apiKey)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, apiKey).Return("", errors.New("env failed")).Once()
	fallback.EXPECT().Get(mock.Anything, apiKey).Return("", domain.ErrSecretNotFound).Once()

	_, err := store.Get(context.Background(), apiKey)
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
	assert.ErrorContains(t, err, "env failed")
	assert.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, apiKey).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), apiKey)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreCheckedRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStoreChecked(nil, portmocks.NewMockSecretStore(t))
	require.ErrorIs(t, err, errNilPrimaryStore)

	_, err = NewStoreChecked(portmocks.NewMockSecretStore(t), nil)
	require.ErrorIs(t, err, errNilFallbackStore)
}

func TestEnvFirstWithFileFallbackReadsKeyFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "finchat_chain_test_key"), []byte("sk-file\n"), 0o600))
	t.Setenv("FINCHAT_FINCHAT_CHAIN_TEST_KEY", "")
	t.Setenv("FINCHAT_CHAIN_TEST_KEY", "")

	store, err := NewEnvFirstWithFileFallback(root)
	require.NoError(t, err)

	value, err := store.Get(context.Background(), "finchat_chain_test_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-file", value)
}
