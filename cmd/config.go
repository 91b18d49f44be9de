package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bnema/finchat/internal/adapters/httpapi"
	tomlrepo "github.com/bnema/finchat/internal/adapters/repo/toml"
	"github.com/bnema/finchat/internal/adapters/router/httprouter"
	verifieropenai "github.com/bnema/finchat/internal/adapters/verifier/openai"
	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/replies"
)

const (
	keyRouterBaseURL      = "router.base_url"
	keyRouterTimeout      = "router.timeout"
	keyVerifierEnabled    = "verifier.enabled"
	keyVerifierModel      = "verifier.model"
	keyVerifierBaseURL    = "verifier.base_url"
	keyVerifierAPIKeyFile = "verifier.api_key_file"
	keyAgentTaskTTL       = "agent.active_task_ttl"
	keyAgentCurrency      = "agent.currency"
	keyAgentAllowedTools  = "agent.allowed_tools"
	keyServeAddr          = "serve.addr"
	keyLogLevel           = "log.level"
	keyLogFormat          = "log.format"

	configDir  = ".finchat"
	configFile = "config.toml"
	envPrefix  = "FINCHAT"
)

// loadConfig layers defaults, ~/.finchat/config.toml and FINCHAT_* variables.
func loadConfig() (*viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	base := filepath.Join(homeDir, configDir)

	cfg := viper.New()
	cfg.SetDefault(tomlrepo.StatePathKey, filepath.Join(base, "chat_state.toml"))
	cfg.SetDefault(keyRouterBaseURL, "")
	cfg.SetDefault(keyRouterTimeout, httprouter.DefaultTimeout)
	cfg.SetDefault(keyVerifierEnabled, false)
	cfg.SetDefault(keyVerifierModel, verifieropenai.DefaultModel)
	cfg.SetDefault(keyVerifierBaseURL, "")
	cfg.SetDefault(keyVerifierAPIKeyFile, filepath.Join(base, "secrets", "openai_api_key"))
	cfg.SetDefault(keyAgentTaskTTL, domain.DefaultActiveTaskTTL)
	cfg.SetDefault(keyAgentCurrency, replies.DefaultCurrency)
	cfg.SetDefault(keyAgentAllowedTools, domain.DefaultAllowedTools())
	cfg.SetDefault(keyServeAddr, httpapi.DefaultAddr)
	cfg.SetDefault(keyLogLevel, "info")
	cfg.SetDefault(keyLogFormat, "json")

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetConfigFile(filepath.Join(base, configFile))
	cfg.SetConfigType("toml")
	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for _, key := range []string{tomlrepo.StatePathKey, keyVerifierAPIKeyFile} {
		cfg.Set(key, expandHome(cfg.GetString(key), homeDir))
	}
	return cfg, nil
}

func expandHome(path, homeDir string) string {
	switch {
	case path == "~":
		return homeDir
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(homeDir, path[2:])
	default:
		return path
	}
}

func durationOr(cfg *viper.Viper, key string, fallback time.Duration) time.Duration {
	if value := cfg.GetDuration(key); value > 0 {
		return value
	}
	return fallback
}

// allowedTools reads the guardian allow-list. Entries may be comma separated, which is how
// FINCHAT_AGENT_ALLOWED_TOOLS carries them. An empty list falls back to every tool.
func allowedTools(cfg *viper.Viper) []string {
	var tools []string
	for _, entry := range cfg.GetStringSlice(keyAgentAllowedTools) {
		for _, name := range strings.Split(entry, ",") {
			if name = strings.TrimSpace(name); name != "" {
				tools = append(tools, name)
			}
		}
	}
	if len(tools) == 0 {
		return domain.DefaultAllowedTools()
	}
	return tools
}
