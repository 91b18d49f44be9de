package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/finchat/internal/domain"
)

func TestAllowedToolsFromConfig(t *testing.T) {
	tests := []struct {
		name   string
		config string
		env    string
		want   []string
	}{
		{name: "defaults to every tool", want: domain.DefaultAllowedTools()},
		{
			name:   "config file list",
			config: "[agent]\nallowed_tools = [\"finance_releves_sum\", \"finance_releves_search\"]\n",
			want:   []string{domain.ToolRelevesSum, domain.ToolRelevesSearch},
		},
		{
			name: "comma separated environment value",
			env:  "finance_releves_sum, finance_categories_list",
			want: []string{domain.ToolRelevesSum, domain.ToolCategoriesList},
		},
		{name: "blank environment value falls back", env: " , ", want: domain.DefaultAllowedTools()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("HOME", home)
			if tt.config != "" {
				dir := filepath.Join(home, configDir)
				require.NoError(t, os.MkdirAll(dir, 0o700))
				require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(tt.config), 0o600))
			}
			if tt.env != "" {
				t.Setenv("FINCHAT_AGENT_ALLOWED_TOOLS", tt.env)
			}

			cfg, err := loadConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowedTools(cfg))
		})
	}
}
