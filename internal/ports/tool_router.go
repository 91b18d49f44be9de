package ports

import "context"

type ToolContext struct {
	ProfileID string
}

// ToolRouter executes backend tools. Failures carrying a code are returned as *domain.ToolError.
type ToolRouter interface {
	Call(ctx context.Context, toolName string, payload map[string]any, toolCtx ToolContext) (any, error)
}
