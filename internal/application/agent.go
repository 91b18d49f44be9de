// Package application runs chat turns: it plans a message, gates the plan and executes it against the tool router.
package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/finchat/internal/confidence"
	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/grammar"
	"github.com/bnema/finchat/internal/guardian"
	"github.com/bnema/finchat/internal/logging"
	"github.com/bnema/finchat/internal/memory"
	"github.com/bnema/finchat/internal/metrics"
	"github.com/bnema/finchat/internal/planner"
	"github.com/bnema/finchat/internal/ports"
	"github.com/bnema/finchat/internal/replies"
	"github.com/bnema/finchat/internal/toolcontract"
)

const pongReply = "pong"

type AgentConfig struct {
	ActiveTaskTTL time.Duration
	Currency      string
	// AllowedTools bounds what the verifier may repair into or propose. Nil allows every tool.
	AllowedTools []string
}

// Agent handles one chat turn at a time. It keeps no conversation state between calls.
type Agent struct {
	router   ports.ToolRouter
	clock    ports.Clock
	planner  *planner.Planner
	scorer   *confidence.Scorer
	guardian *guardian.Guardian
	proposer *guardian.Proposer
	replies  *replies.Builder
	ttl      time.Duration
	logger   *zap.Logger
}

func NewAgent(router ports.ToolRouter, verifier ports.Verifier, proposer ports.PlanProposer, clock ports.Clock, cfg AgentConfig, logger *zap.Logger) *Agent {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if cfg.ActiveTaskTTL <= 0 {
		cfg.ActiveTaskTTL = domain.DefaultActiveTaskTTL
	}
	if cfg.Currency == "" {
		cfg.Currency = replies.DefaultCurrency
	}
	logger = logging.OrNop(logger)
	contracts := toolcontract.New(cfg.AllowedTools)

	return &Agent{
		router:   router,
		clock:    clock,
		planner:  planner.New(clock),
		scorer:   confidence.New(clock),
		guardian: guardian.New(verifier, contracts, logger),
		proposer: guardian.NewProposer(proposer, contracts, logger),
		replies:  replies.New(cfg.Currency),
		ttl:      cfg.ActiveTaskTTL,
		logger:   logger,
	}
}

// Turn is everything the caller knows about the conversation when a message arrives.
type Turn struct {
	Message   string
	ProfileID string
	// ActiveTask wins over PendingClarification when both are set.
	ActiveTask           *domain.ActiveTask
	PendingClarification *domain.ActiveTask
	Memory               *domain.QueryMemory
	KnownCategories      []string
	Debug                bool
}

// turnState is the mutable bookkeeping of a single turn.
type turnState struct {
	Turn
	now  time.Time
	task *domain.ActiveTask
	// consumed is set once the pending task was answered or evicted.
	consumed bool
	// confirmed marks executions that follow an explicit OUI.
	confirmed  bool
	known      []string
	knownDirty bool
}

func (s *turnState) setKnown(categories []string) {
	s.known = append([]string{}, categories...)
	s.knownDirty = true
}

func (s *turnState) toolContext() ports.ToolContext {
	return ports.ToolContext{ProfileID: s.ProfileID}
}

// outcome is what a turn decided before it is folded into an AgentReply.
type outcome struct {
	plan       domain.Plan
	reply      string
	toolResult any
	task       *domain.ActiveTask
	memory     *domain.QueryMemory
}

// HandleMessage never fails: backend and verifier problems end up in the reply text.
func (a *Agent) HandleMessage(ctx context.Context, turn Turn) domain.AgentReply {
	st := a.begin(turn)
	reply := a.finish(st, a.run(ctx, st))
	a.observe(st, reply)
	return reply
}

func (a *Agent) begin(turn Turn) *turnState {
	st := &turnState{
		Turn:  turn,
		now:   a.clock.Now(),
		known: append([]string(nil), turn.KnownCategories...),
	}
	switch {
	case turn.ActiveTask != nil:
		task := turn.ActiveTask.Clone()
		st.task = &task
	case turn.PendingClarification != nil && turn.PendingClarification.Type == domain.TaskClarificationPending:
		task := turn.PendingClarification.Clone()
		st.task = &task
	}
	return st
}

func (a *Agent) run(ctx context.Context, st *turnState) outcome {
	if planner.IsPing(st.Message) {
		return outcome{plan: domain.NoopPlan{Reply: pongReply, Meta: domain.Meta{Source: domain.SourceDeterministic}}}
	}

	if st.task != nil {
		if out, handled := a.resumeTask(ctx, st); handled {
			return out
		}
	}

	return a.process(ctx, st, a.plan(ctx, st))
}

// plan runs follow-up resolution, the deterministic planner, scoring and the guardian.
func (a *Agent) plan(ctx context.Context, st *turnState) domain.Plan {
	var plan domain.Plan
	if st.Memory != nil {
		plan = memory.NewResolver(st.now).FollowupPlan(st.Message, st.Memory, st.known)
	}
	if plan == nil {
		plan = a.planner.PlanWith(planner.Input{Message: st.Message, KnownCategories: st.known})
		plan, _ = memory.ApplyToPlan(st.Message, plan, st.Memory, st.known)
	}

	if planner.IsFallback(plan) {
		if proposed, ok := a.proposer.Propose(ctx, st.Message, conversationContext(st), st.known); ok {
			return withSearchDefaults(proposed)
		}
		return plan
	}

	plan = a.scorer.Score(st.Message, plan, st.Memory)
	return a.guardian.Review(ctx, guardian.Request{
		Message:         st.Message,
		Plan:            plan,
		Context:         conversationContext(st),
		KnownCategories: st.known,
	})
}

// process applies the write gates to a fresh plan, then executes it.
func (a *Agent) process(ctx context.Context, st *turnState, plan domain.Plan) outcome {
	toolPlan, ok := plan.(domain.ToolCallPlan)
	if !ok {
		return a.withoutTool(st, plan)
	}

	if domain.IsWriteTool(toolPlan.ToolName) {
		if st.Memory != nil && grammar.IsFollowupMessage(st.Message) {
			if out, ok := a.preventWrite(st, toolPlan); ok {
				return out
			}
		}
		switch {
		case fromVerifier(toolPlan):
			return a.confirmExternalWrite(st, toolPlan)
		case domain.IsRiskyWrite(toolPlan.ToolName):
			return a.checkDeletion(ctx, st, toolPlan)
		}
	}

	if toolPlan.Meta.BankAccountHint != "" {
		toolPlan = a.resolveBankHint(ctx, st, toolPlan)
	}
	return a.execute(ctx, st, toolPlan)
}

// withoutTool turns plans that need no backend call into an outcome, keeping any task they ask for.
func (a *Agent) withoutTool(st *turnState, plan domain.Plan) outcome {
	out := outcome{plan: plan}
	switch typed := plan.(type) {
	case domain.ClarificationPlan:
		if typed.Meta.PendingClarification != nil {
			out.task = a.stamp(st, *typed.Meta.PendingClarification)
		}
	case domain.SetActiveTaskPlan:
		out.task = a.stamp(st, typed.ActiveTask)
	case domain.NoopPlan:
		if typed.Meta.UIAction != "" {
			out.toolResult = map[string]any{"type": "ui_action", "action": typed.Meta.UIAction}
		}
	}
	return out
}

func (a *Agent) stamp(st *turnState, task domain.ActiveTask) *domain.ActiveTask {
	stamped := task.Clone()
	if stamped.CreatedAt.IsZero() {
		stamped.CreatedAt = st.now
	}
	return &stamped
}

func (a *Agent) finish(st *turnState, out outcome) domain.AgentReply {
	plan := out.plan
	if st.Debug {
		plan = withDebug(plan, st.Memory)
	}
	text := out.reply
	if text == "" {
		text = domain.ReplyOf(out.plan)
	}

	reply := domain.AgentReply{Reply: text, ToolResult: out.toolResult, Plan: plan}
	update := &domain.MemoryUpdate{LastQuery: out.memory}
	if st.knownDirty {
		update.KnownCategories = append([]string{}, st.known...)
	}

	switch {
	case out.task != nil:
		task := out.task.Clone()
		reply.ActiveTask = &task
		reply.ShouldUpdateActiveTask = true
		if task.Type == domain.TaskClarificationPending {
			pending := task.Clone()
			update.PendingClarification = &pending
		} else if st.consumed {
			update.ClearPendingClarification = true
		}
	case st.consumed:
		reply.ShouldUpdateActiveTask = true
		update.ClearPendingClarification = true
	}

	if !update.IsEmpty() {
		reply.MemoryUpdate = update
	}
	return reply
}

func (a *Agent) observe(st *turnState, reply domain.AgentReply) {
	if reply.Plan == nil {
		return
	}
	meta := domain.MetaOf(reply.Plan)
	metrics.ObserveTurn(string(reply.Plan.Kind()), string(meta.Source))
	if meta.Confidence != "" {
		metrics.ObserveConfidence(string(meta.Confidence))
	}

	fields := []zap.Field{
		zap.String("profile_id", st.ProfileID),
		zap.String("plan_kind", string(reply.Plan.Kind())),
		zap.String("source", string(meta.Source)),
		zap.String("confidence", string(meta.Confidence)),
		zap.String("task_update", taskUpdateLabel(reply.TaskUpdate())),
	}
	if toolPlan, ok := reply.Plan.(domain.ToolCallPlan); ok {
		fields = append(fields, zap.String("tool", toolPlan.ToolName))
	}
	if meta.Guardian != nil {
		fields = append(fields, zap.String("guardian_verdict", string(meta.Guardian.Verdict)), zap.Bool("guardian_fallback", meta.Guardian.Fallback))
	}
	a.logger.Debug("chat turn", fields...)
}

func taskUpdateLabel(update domain.TaskUpdate) string {
	switch update {
	case domain.TaskClear:
		return "clear"
	case domain.TaskReplace:
		return "replace"
	default:
		return "keep"
	}
}

func fromVerifier(plan domain.ToolCallPlan) bool {
	return plan.Meta.Source == domain.SourceGuardianRepair || plan.Meta.Source == domain.SourceProposer
}

func conversationContext(st *turnState) map[string]any {
	conversation := map[string]any{}
	if st.Memory != nil {
		conversation["last_query"] = st.Memory.ToMap()
	}
	if st.task != nil && !st.consumed {
		conversation["active_task"] = st.task.ToMap()
	}
	return conversation
}

// withDebug exposes which values came from memory. It never changes the plan itself.
func withDebug(plan domain.Plan, remembered *domain.QueryMemory) domain.Plan {
	meta := domain.MetaOf(plan)
	debug := &domain.DebugMeta{FollowupUsed: meta.Source == domain.SourceFollowup}
	if toolPlan, ok := plan.(domain.ToolCallPlan); ok && len(meta.MemoryInjected) > 0 {
		debug.MemoryInjected = make(map[string]any, len(meta.MemoryInjected))
		for _, key := range meta.MemoryInjected {
			if value, ok := toolPlan.Payload[key]; ok {
				debug.MemoryInjected[key] = value
			}
		}
	}
	if remembered != nil && (debug.FollowupUsed || len(meta.MemoryInjected) > 0) {
		debug.QueryMemoryUsed = remembered.ToMap()
	}
	meta.Debug = debug
	return domain.WithMeta(plan, meta)
}

func withSearchDefaults(plan domain.ToolCallPlan) domain.ToolCallPlan {
	if plan.ToolName != domain.ToolRelevesSearch {
		return plan
	}
	payload := plan.Payload.Clone()
	if payload == nil {
		payload = domain.Payload{}
	}
	if !payload.Has(domain.KeyLimit) {
		payload[domain.KeyLimit] = defaultSearchLimit
	}
	if !payload.Has(domain.KeyOffset) {
		payload[domain.KeyOffset] = 0
	}
	return plan.WithPayload(payload)
}

const defaultSearchLimit = 50
