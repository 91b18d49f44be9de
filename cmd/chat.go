package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	renderchat "github.com/bnema/finchat/internal/adapters/render/chat"
	"github.com/bnema/finchat/internal/application"
	"github.com/bnema/finchat/internal/domain"
)

const defaultProfileID = "local"

var exitWords = map[string]bool{"exit": true, "quit": true, "quitter": true, "bye": true}

type chatFlags struct {
	profile string
	debug   bool
	offline bool
	asJSON  bool
}

func newChatCmd(cfg *viper.Viper) *cobra.Command {
	flags := chatFlags{}

	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Send a message, or start an interactive session when none is given",
		Example: `  finchat chat "combien j'ai dépensé en janvier 2026 ?"
  finchat chat --offline --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := wireApp(cmd.Context(), cfg, wireOptions{Offline: flags.offline})
			if err != nil {
				return err
			}
			defer func() { _ = app.logger.Sync() }()

			if len(args) > 0 {
				return runChatTurn(cmd, app, flags, strings.Join(args, " "))
			}
			return runChatSession(cmd, app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.profile, "profile", defaultProfileID, "Profile whose conversation state is used")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Show the plan, confidence and memory diagnostics")
	cmd.Flags().BoolVar(&flags.offline, "offline", false, "Answer from the built-in sample ledger instead of the backend")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print responses as JSON")

	return cmd
}

func runChatSession(cmd *cobra.Command, app *app, flags chatFlags) error {
	out := cmd.OutOrStdout()
	if app.offline && !flags.asJSON {
		if _, err := fmt.Fprintln(out, "Mode hors ligne: données d'exemple."); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if !flags.asJSON {
			if _, err := fmt.Fprint(out, "vous › "); err != nil {
				return err
			}
		}
		if !scanner.Scan() {
			break
		}

		message := strings.TrimSpace(scanner.Text())
		switch {
		case message == "":
			continue
		case exitWords[strings.ToLower(message)]:
			return nil
		}
		if err := runChatTurn(cmd, app, flags, message); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read message: %w", err)
	}
	return nil
}

func runChatTurn(cmd *cobra.Command, app *app, flags chatFlags, message string) error {
	request := application.ChatRequest{
		ProfileID: strings.TrimSpace(flags.profile),
		Message:   message,
		Debug:     flags.debug,
	}
	response, err := runTurnWithSpinner(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context) (application.ChatResponse, error) {
		return app.chat.Chat(ctx, request)
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			return errors.New("message is empty")
		}
		return fmt.Errorf("chat turn: %w", err)
	}

	if flags.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}

	response.Reply = sanitizeForTerminal(response.Reply)
	rendered, err := app.renderer(response, renderchat.RenderOptions{Debug: flags.debug})
	if err != nil {
		return fmt.Errorf("render reply: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// sanitizeForTerminal drops control characters except newlines.
func sanitizeForTerminal(value string) string {
	return strings.Map(func(r rune) rune {
		if r != '\n' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
}
