package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	renderchat "github.com/bnema/finchat/internal/adapters/render/chat"
	tomlrepo "github.com/bnema/finchat/internal/adapters/repo/toml"
	"github.com/bnema/finchat/internal/adapters/router/httprouter"
	memoryrouter "github.com/bnema/finchat/internal/adapters/router/memory"
	chainstore "github.com/bnema/finchat/internal/adapters/secrets/chain"
	verifieropenai "github.com/bnema/finchat/internal/adapters/verifier/openai"
	"github.com/bnema/finchat/internal/application"
	"github.com/bnema/finchat/internal/logging"
	"github.com/bnema/finchat/internal/ports"
)

type app struct {
	chat     *application.ChatService
	renderer func(application.ChatResponse, renderchat.RenderOptions) (string, error)
	logger   *zap.Logger
	offline  bool
}

type wireOptions struct {
	// Offline answers tools from the built-in sample ledger instead of the backend.
	Offline bool
}

func wireApp(ctx context.Context, cfg *viper.Viper, opts wireOptions) (*app, error) {
	logger, err := logging.New(logging.Config{
		Level:  cfg.GetString(keyLogLevel),
		Format: cfg.GetString(keyLogFormat),
	})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	repo, err := tomlrepo.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire chat state repository: %w", err)
	}

	router, offline, err := wireRouter(cfg, opts, logger)
	if err != nil {
		return nil, err
	}

	var (
		verifier ports.Verifier
		proposer ports.PlanProposer
	)
	if client := wireVerifier(ctx, cfg, logger); client != nil {
		verifier, proposer = client, client
	}

	agent := application.NewAgent(router, verifier, proposer, ports.SystemClock{}, application.AgentConfig{
		ActiveTaskTTL: cfg.GetDuration(keyAgentTaskTTL),
		Currency:      cfg.GetString(keyAgentCurrency),
		AllowedTools:  allowedTools(cfg),
	}, logger)

	return &app{
		chat:     application.NewChatService(agent, repo, logger),
		renderer: renderchat.Render,
		logger:   logger,
		offline:  offline,
	}, nil
}

func wireRouter(cfg *viper.Viper, opts wireOptions, logger *zap.Logger) (ports.ToolRouter, bool, error) {
	baseURL := strings.TrimSpace(cfg.GetString(keyRouterBaseURL))
	if opts.Offline || baseURL == "" {
		return memoryrouter.New(memoryrouter.SampleDataset()), true, nil
	}

	router, err := httprouter.New(httprouter.Config{
		BaseURL: baseURL,
		Timeout: durationOr(cfg, keyRouterTimeout, httprouter.DefaultTimeout),
	}, nil, logger)
	if err != nil {
		return nil, false, fmt.Errorf("wire tool router: %w", err)
	}
	return router, false, nil
}

// wireVerifier returns nil when the verifier is disabled or has no API key; the agent then
// falls back to its fixed guardian rule.
func wireVerifier(ctx context.Context, cfg *viper.Viper, logger *zap.Logger) *verifieropenai.Client {
	if !cfg.GetBool(keyVerifierEnabled) {
		return nil
	}

	keyFile := cfg.GetString(keyVerifierAPIKeyFile)
	secrets, err := chainstore.NewEnvFirstWithFileFallback(filepath.Dir(keyFile))
	if err != nil {
		logger.Warn("verifier disabled", zap.Error(err))
		return nil
	}
	apiKey, err := secrets.Get(ctx, filepath.Base(keyFile))
	if err != nil {
		logger.Warn("verifier disabled: api key not found", zap.Error(err))
		return nil
	}

	client, err := verifieropenai.New(verifieropenai.Config{
		APIKey:  apiKey,
		Model:   cfg.GetString(keyVerifierModel),
		BaseURL: cfg.GetString(keyVerifierBaseURL),
	}, nil, logger)
	if err != nil {
		logger.Warn("verifier disabled", zap.Error(err))
		return nil
	}
	return client
}
