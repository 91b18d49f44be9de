package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/finchat/internal/version"
)

func TestVersionPrintsBuildVersion(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "", "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)
}

func TestChatOfflineListsSampleCategories(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "", "chat", "--offline", "Liste", "mes", "catégories")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Voici vos catégories")
	assert.Contains(t, stdout, "Alimentation")
	assert.Contains(t, stdout, "Virements internes (exclue des totaux)")
}

func TestChatJSONOutputCarriesPlan(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "", "chat", "--offline", "--json", "--debug", "Liste mes catégories")
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &body))
	assert.Contains(t, body["reply"], "Alimentation")
	assert.Equal(t, "finance_categories_list", body["plan"].(map[string]any)["tool_name"])
}

func TestChatConfirmationSurvivesBetweenRuns(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "", "chat", "--offline", "--profile", "camille", "Supprime la catégorie Loisir")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Confirmez-vous la suppression de la catégorie « Loisir »")

	stdout, _, err = executeCLI(t, home, "", "state", "show", "--profile", "camille")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"active_task"`)
	assert.Contains(t, stdout, "finance_categories_delete")

	_, err = os.Stat(filepath.Join(home, ".finchat", "chat_state.toml"))
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "", "chat", "--offline", "--profile", "camille", "non")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "", "state", "show", "--profile", "camille")
	require.NoError(t, err)
	assert.NotContains(t, stdout, `"active_task"`)
}

func TestChatSessionReadsMessagesUntilExit(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "Liste mes catégories\n\nquitter\nListe mes catégories\n", "chat", "--offline")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Mode hors ligne")
	assert.Equal(t, 1, strings.Count(stdout, "Voici vos catégories"))
}

func TestStateResetForgetsProfile(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "", "chat", "--offline", "Supprime la catégorie Loisir")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "", "state", "reset")
	require.NoError(t, err)
	assert.Contains(t, stdout, "State reset for profile local")

	stdout, _, err = executeCLI(t, home, "", "state", "show")
	require.NoError(t, err)
	assert.NotContains(t, stdout, `"active_task"`)
}

func TestConfigFileOverridesStatePath(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".finchat"), 0o700))
	config := "[state]\npath = \"~/elsewhere/state.toml\"\n\n[log]\nlevel = \"error\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, ".finchat", "config.toml"), []byte(config), 0o600))

	_, _, err := executeCLI(t, home, "", "chat", "--offline", "Supprime la catégorie Loisir")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(home, "elsewhere", "state.toml"))
	require.NoError(t, err)
}

func TestUnknownCommandIsRejected(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command \"status\"")
}

func executeCLI(t *testing.T, home string, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("FINCHAT_LOG_LEVEL", "error")

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
