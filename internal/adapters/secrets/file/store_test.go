package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/finchat/internal/domain"
)

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "secret key is empty"},
		{name: "whitespace", key: "   ", wantErr: "secret key is empty"},
		{name: "absolute", key: "/absolute/path", wantErr: "invalid secret key"},
		{name: "traversal", key: "../escape", wantErr: "invalid secret key"},
		{name: "deep traversal", key: "../../secret", wantErr: "invalid secret key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Get(context.Background(), tc.key)
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStoreGetTrimsFileContent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "openai_api_key"), []byte("sk-test\n"), 0o600))

	got, err := NewStore(root).Get(context.Background(), "openai_api_key")

	require.NoError(t, err)
	assert.Equal(t, "sk-test", got)
}

func TestStoreGetReportsMissingSecrets(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "blank"), []byte("  \n"), 0o600))
	store := NewStore(root)

	_, err := store.Get(context.Background(), "absent")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)

	_, err = store.Get(context.Background(), "blank")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}
