package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/logging"
	"github.com/bnema/finchat/internal/metrics"
	"github.com/bnema/finchat/internal/ports"
)

const (
	WarningStateNotLoaded = "state_not_loaded"
	WarningStateNotSaved  = "state_not_saved"
)

type ChatRequest struct {
	ProfileID string
	Message   string
	Debug     bool
}

type ChatResponse struct {
	Reply      string           `json:"reply"`
	ToolResult any              `json:"tool_result,omitempty"`
	Plan       *domain.PlanView `json:"plan,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// ChatService owns the persisted conversation state around the stateless Agent.
type ChatService struct {
	agent  *Agent
	repo   ports.ChatStateRepository
	logger *zap.Logger
}

func NewChatService(agent *Agent, repo ports.ChatStateRepository, logger *zap.Logger) *ChatService {
	return &ChatService{agent: agent, repo: repo, logger: logging.OrNop(logger)}
}

// Chat runs one turn for the profile. State problems never replace the reply; they are
// reported as warnings next to it.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return ChatResponse{}, domain.ErrEmptyMessage
	}

	var warnings []string
	state, err := s.loadState(ctx, req.ProfileID)
	loaded := err == nil
	if !loaded {
		s.logger.Warn("chat state not loaded", zap.String("profile_id", req.ProfileID), zap.Error(err))
		warnings = append(warnings, WarningStateNotLoaded)
		state = domain.ChatState{}
	}

	reply := s.agent.HandleMessage(ctx, Turn{
		Message:              req.Message,
		ProfileID:            req.ProfileID,
		ActiveTask:           state.ActiveTask,
		PendingClarification: state.PendingClarification,
		Memory:               state.LastQuery,
		KnownCategories:      state.KnownCategories,
		Debug:                req.Debug,
	})

	// A state that could not be read is never overwritten.
	if !loaded {
		return responseOf(reply, warnings), nil
	}
	if err := s.repo.Save(ctx, req.ProfileID, reply.Apply(state)); err != nil {
		s.logger.Warn("chat state not saved", zap.String("profile_id", req.ProfileID), zap.Error(err))
		metrics.ObserveStateSaveFailure()
		warnings = append(warnings, WarningStateNotSaved)
	}
	return responseOf(reply, warnings), nil
}

func responseOf(reply domain.AgentReply, warnings []string) ChatResponse {
	return ChatResponse{
		Reply:      reply.Reply,
		ToolResult: reply.ToolResult,
		Plan:       domain.ViewOf(reply.Plan),
		Warnings:   warnings,
	}
}

// State returns the stored state, or an empty one for a profile that never chatted.
func (s *ChatService) State(ctx context.Context, profileID string) (domain.ChatState, error) {
	return s.loadState(ctx, profileID)
}

func (s *ChatService) Reset(ctx context.Context, profileID string) error {
	if err := s.repo.Delete(ctx, profileID); err != nil && !errors.Is(err, domain.ErrChatStateNotFound) {
		return fmt.Errorf("delete chat state: %w", err)
	}
	return nil
}

func (s *ChatService) loadState(ctx context.Context, profileID string) (domain.ChatState, error) {
	state, err := s.repo.Get(ctx, profileID)
	if err != nil {
		if !errors.Is(err, domain.ErrChatStateNotFound) {
			return domain.ChatState{}, fmt.Errorf("get chat state: %w", err)
		}
		return domain.ChatState{}, nil
	}
	return state, nil
}
