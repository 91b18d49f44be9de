package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/finchat/internal/application"
	"github.com/bnema/finchat/internal/domain"
)

func sumResponse() application.ChatResponse {
	return application.ChatResponse{
		Reply: "Dépenses janvier 2026: -2'277.80 CHF (5 opérations).",
		Plan: &domain.PlanView{
			Kind:       domain.PlanKindToolCall,
			ToolName:   domain.ToolRelevesSum,
			Payload:    map[string]any{"direction": "DEBIT_ONLY", "date_range": map[string]any{"start_date": "2026-01-01", "end_date": "2026-01-31"}},
			Confidence: domain.ConfidenceMedium,
			Reasons:    []string{domain.MemoryReasonPeriod},
			Source:     domain.SourceFollowup,
			Debug:      map[string]any{"debug_followup_used": true},
		},
	}
}

func TestRenderReplyOnly(t *testing.T) {
	output, err := Render(sumResponse(), RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "finchat ›")
	assert.Contains(t, output, "(5 opérations)")
	assert.NotContains(t, output, domain.ToolRelevesSum)
}

func TestRenderDebugShowsPlan(t *testing.T) {
	output, err := Render(sumResponse(), RenderOptions{Debug: true})

	require.NoError(t, err)
	assert.Contains(t, output, string(domain.PlanKindToolCall))
	assert.Contains(t, output, domain.ToolRelevesSum)
	assert.Contains(t, output, "medium")
	assert.Contains(t, output, "via followup")
	assert.Contains(t, output, "raisons: period_from_memory")
	assert.Contains(t, output, "date_range: {end_date=2026-01-31 start_date=2026-01-01}")
	assert.Contains(t, output, "debug_followup_used: true")
}

func TestRenderWarnings(t *testing.T) {
	output, err := Render(application.ChatResponse{
		Reply:    "Catégories: Loisir.",
		Warnings: []string{application.WarningStateNotSaved, "other"},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "état de la conversation non enregistré")
	assert.Contains(t, output, "! other")
}

func TestRenderEmptyReply(t *testing.T) {
	output, err := Render(application.ChatResponse{}, RenderOptions{Debug: true})

	require.NoError(t, err)
	assert.Contains(t, output, "(pas de réponse)")
}
