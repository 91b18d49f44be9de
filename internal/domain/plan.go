package domain

type PlanKind string

const (
	PlanKindToolCall      PlanKind = "tool_call"
	PlanKindClarification PlanKind = "clarification"
	PlanKindNoop          PlanKind = "noop"
	PlanKindError         PlanKind = "error"
	PlanKindSetActiveTask PlanKind = "set_active_task"
)

// Plan is the closed set of planning outcomes. Only this package can add variants.
type Plan interface {
	Kind() PlanKind
	isPlan()
}

type ToolCallPlan struct {
	ToolName      string
	Payload       Payload
	UserReplyHint string
	Meta          Meta
}

type ClarificationPlan struct {
	Question string
	Meta     Meta
}

type NoopPlan struct {
	Reply string
	Meta  Meta
}

// ErrorPlan reports a parse-time validation failure; it is never the result of a backend call.
type ErrorPlan struct {
	Reply     string
	ToolError ToolError
}

type SetActiveTaskPlan struct {
	Reply      string
	ActiveTask ActiveTask
}

func (ToolCallPlan) Kind() PlanKind      { return PlanKindToolCall }
func (ClarificationPlan) Kind() PlanKind { return PlanKindClarification }
func (NoopPlan) Kind() PlanKind          { return PlanKindNoop }
func (ErrorPlan) Kind() PlanKind         { return PlanKindError }
func (SetActiveTaskPlan) Kind() PlanKind { return PlanKindSetActiveTask }

func (ToolCallPlan) isPlan()      {}
func (ClarificationPlan) isPlan() {}
func (NoopPlan) isPlan()          {}
func (ErrorPlan) isPlan()         {}
func (SetActiveTaskPlan) isPlan() {}

// Clone returns a copy sharing no payload or meta state with p.
func (p ToolCallPlan) Clone() ToolCallPlan {
	p.Payload = p.Payload.Clone()
	p.Meta = p.Meta.Clone()
	return p
}

func (p ToolCallPlan) WithPayload(payload Payload) ToolCallPlan {
	cloned := p.Clone()
	cloned.Payload = payload.Clone()
	return cloned
}

func (p ToolCallPlan) WithMeta(meta Meta) ToolCallPlan {
	cloned := p.Clone()
	cloned.Meta = meta.Clone()
	return cloned
}

// MetaOf returns a copy of the plan's meta; variants without meta yield the zero value.
func MetaOf(plan Plan) Meta {
	switch typed := plan.(type) {
	case ToolCallPlan:
		return typed.Meta.Clone()
	case ClarificationPlan:
		return typed.Meta.Clone()
	case NoopPlan:
		return typed.Meta.Clone()
	case ErrorPlan, SetActiveTaskPlan, nil:
		return Meta{}
	default:
		return Meta{}
	}
}

// WithMeta replaces the meta of variants that carry one.
func WithMeta(plan Plan, meta Meta) Plan {
	switch typed := plan.(type) {
	case ToolCallPlan:
		return typed.WithMeta(meta)
	case ClarificationPlan:
		typed.Meta = meta.Clone()
		return typed
	case NoopPlan:
		typed.Meta = meta.Clone()
		return typed
	default:
		return plan
	}
}

// ReplyOf returns the user-facing text a plan carries before any tool runs.
func ReplyOf(plan Plan) string {
	switch typed := plan.(type) {
	case ToolCallPlan:
		return typed.UserReplyHint
	case ClarificationPlan:
		return typed.Question
	case NoopPlan:
		return typed.Reply
	case ErrorPlan:
		return typed.Reply
	case SetActiveTaskPlan:
		return typed.Reply
	default:
		return ""
	}
}

// PlanView is the JSON-friendly projection of a plan returned to callers.
type PlanView struct {
	Kind       PlanKind       `json:"kind"`
	ToolName   string         `json:"tool_name,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	Reply      string         `json:"reply,omitempty"`
	Confidence Confidence     `json:"confidence,omitempty"`
	Reasons    []string       `json:"confidence_reasons,omitempty"`
	Source     PlanSource     `json:"source,omitempty"`
	Debug      map[string]any `json:"debug,omitempty"`
}

func ViewOf(plan Plan) *PlanView {
	if plan == nil {
		return nil
	}
	meta := MetaOf(plan)
	view := &PlanView{
		Kind:       plan.Kind(),
		Reply:      ReplyOf(plan),
		Confidence: meta.Confidence,
		Reasons:    meta.ConfidenceReasons,
		Source:     meta.Source,
	}
	if toolPlan, ok := plan.(ToolCallPlan); ok {
		view.ToolName = toolPlan.ToolName
		view.Payload = CloneMap(toolPlan.Payload)
	}
	if meta.Debug != nil {
		view.Debug = map[string]any{
			"debug_memory_injected":   CloneMap(meta.Debug.MemoryInjected),
			"debug_followup_used":     meta.Debug.FollowupUsed,
			"debug_query_memory_used": CloneMap(meta.Debug.QueryMemoryUsed),
		}
	}
	return view
}
