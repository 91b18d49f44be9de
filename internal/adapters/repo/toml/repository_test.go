package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/finchat/internal/domain"
)

const profileA = "0b9d6f1e-6a51-4bb1-9f7a-1c1d2f3a4b5c"

func newTestRepository(t *testing.T, statePath string) *Repository {
	t.Helper()

	config := viper.New()
	config.Set(StatePathKey, statePath)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo
}

func sampleState() domain.ChatState {
	january := domain.MonthRange(2026, time.January)
	return domain.ChatState{
		ActiveTask: &domain.ActiveTask{
			Type:      domain.TaskSelectBankAccount,
			CreatedAt: time.Date(2026, 2, 16, 9, 30, 0, 0, time.UTC),
			ToolName:  domain.ToolBankAccountsDelete,
			Payload:   domain.Payload{domain.KeyName: "joint"},
			Source:    "confirmed",
			Question:  "Plusieurs comptes correspondent: Joint, JOINT.",
			Subject:   "joint",
			Candidates: []domain.AccountCandidate{
				{ID: "acc-1", Name: "Joint"},
				{ID: "acc-2", Name: "JOINT"},
			},
		},
		LastQuery: &domain.QueryMemory{
			DateRange:    &january,
			LastToolName: domain.ToolRelevesSum,
			LastIntent:   "sum",
			Filters:      map[string]any{domain.KeyDirection: domain.DirectionDebitOnly, domain.KeyCategory: "Loisir"},
		},
		KnownCategories: []string{"Loisir", "Voyages"},
		PendingClarification: &domain.ActiveTask{
			Type:              domain.TaskClarificationPending,
			CreatedAt:         time.Date(2026, 2, 16, 9, 29, 0, 0, time.UTC),
			ToolName:          domain.ToolRelevesSum,
			ClarificationType: domain.ClarifyDirectionChoice,
			Payload:           domain.Payload{domain.KeyDateRange: january.ToMap()},
		},
		Extra: map[string]any{"ui": map[string]any{"theme": "dark"}},
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "chat_state.toml"))
	state := sampleState()

	require.NoError(t, repo.Save(context.Background(), profileA, state))

	got, err := repo.Get(context.Background(), profileA)
	require.NoError(t, err)
	if diff := cmp.Diff(state, got); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestRepositoryKeepsProfilesApart(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "chat_state.toml"))
	require.NoError(t, repo.Save(context.Background(), profileA, sampleState()))
	require.NoError(t, repo.Save(context.Background(), "other", domain.ChatState{KnownCategories: []string{"Santé"}}))

	other, err := repo.Get(context.Background(), "other")
	require.NoError(t, err)
	assert.Nil(t, other.ActiveTask)
	assert.Equal(t, []string{"Santé"}, other.KnownCategories)

	require.NoError(t, repo.Delete(context.Background(), "other"))
	_, err = repo.Get(context.Background(), "other")
	require.ErrorIs(t, err, domain.ErrChatStateNotFound)

	kept, err := repo.Get(context.Background(), profileA)
	require.NoError(t, err)
	assert.NotNil(t, kept.ActiveTask)
}

func TestRepositoryMissingFileBehaviors(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "chat_state.toml"))

	_, err := repo.Get(context.Background(), profileA)
	require.ErrorIs(t, err, domain.ErrChatStateNotFound)

	err = repo.Delete(context.Background(), profileA)
	require.ErrorIs(t, err, domain.ErrChatStateNotFound)
}

func TestRepositoryRejectsEmptyProfile(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "chat_state.toml"))

	err := repo.Save(context.Background(), "  ", domain.ChatState{})
	require.ErrorContains(t, err, "profile id is empty")
}

func TestRepositorySaveEnforcesPermissionsAndVersion(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "nested", "chat_state.toml")
	repo := newTestRepository(t, statePath)

	require.NoError(t, repo.Save(context.Background(), profileA, domain.ChatState{}))

	info, err := os.Stat(statePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
}

func TestRepositoryMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "chat_state.toml")
	require.NoError(t, os.WriteFile(statePath, []byte("version = [\n"), 0o600))
	repo := newTestRepository(t, statePath)

	_, err := repo.Get(context.Background(), profileA)
	require.ErrorContains(t, err, "decode chat state file")
}

func TestRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "chat_state.toml")
	require.NoError(t, os.WriteFile(statePath, []byte(strings.Join([]string{
		"version = 999",
		"",
	}, "\n")), 0o600))
	repo := newTestRepository(t, statePath)

	_, err := repo.Get(context.Background(), profileA)
	require.ErrorContains(t, err, "unsupported chat state schema version")
}

func TestRepositoryCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "chat_state.toml"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, profileA, domain.ChatState{})
	require.True(t, errors.Is(err, context.Canceled))
}

func TestRepositoryConcurrentSavesAcrossInstancesKeepEveryProfile(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "chat_state.toml")
	first := newTestRepository(t, statePath)
	second := newTestRepository(t, statePath)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		repo := first
		if i%2 == 1 {
			repo = second
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			errs <- repo.Save(context.Background(), id, domain.ChatState{KnownCategories: []string{id}})
		}("profile-" + strconv.Itoa(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for i := range workers {
		id := "profile-" + strconv.Itoa(i)
		state, err := first.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, []string{id}, state.KnownCategories)
	}
}
