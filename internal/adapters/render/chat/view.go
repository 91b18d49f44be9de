package chat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/finchat/internal/application"
	"github.com/bnema/finchat/internal/domain"
)

type RenderOptions struct {
	// Debug adds the plan, its confidence and the memory diagnostics under the reply.
	Debug bool
}

var warningLabels = map[string]string{
	application.WarningStateNotLoaded: "état de la conversation non chargé",
	application.WarningStateNotSaved:  "état de la conversation non enregistré",
}

func renderView(response application.ChatResponse, opts RenderOptions, s styles) string {
	reply := strings.TrimSpace(response.Reply)
	lines := []string{s.prompt.Render("finchat ›") + " " + s.reply.Render(reply)}
	if reply == "" {
		lines = []string{s.prompt.Render("finchat ›") + " " + s.empty.Render("(pas de réponse)")}
	}

	for _, warning := range response.Warnings {
		label, ok := warningLabels[warning]
		if !ok {
			label = warning
		}
		lines = append(lines, s.warning.Render("! "+label))
	}

	if opts.Debug && response.Plan != nil {
		lines = append(lines, s.section.Render(renderPlan(response.Plan, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPlan(plan *domain.PlanView, s styles) string {
	header := []string{s.planKind.Render(string(plan.Kind))}
	if plan.ToolName != "" {
		header = append(header, s.tool.Render(plan.ToolName))
	}
	if plan.Confidence != "" {
		style, ok := s.confidence[string(plan.Confidence)]
		if !ok {
			style = s.value
		}
		header = append(header, style.Render(string(plan.Confidence)))
	}
	if plan.Source != "" {
		header = append(header, s.key.Render("via "+string(plan.Source)))
	}

	parts := []string{strings.Join(header, " ")}
	if len(plan.Reasons) > 0 {
		parts = append(parts, field(s, "raisons", strings.Join(plan.Reasons, ", ")))
	}
	for _, key := range sortedKeys(plan.Payload) {
		parts = append(parts, field(s, key, formatValue(plan.Payload[key])))
	}
	for _, key := range sortedKeys(plan.Debug) {
		parts = append(parts, field(s, key, formatValue(plan.Debug[key])))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func field(s styles, key, value string) string {
	return s.key.Render(key+":") + " " + s.value.Render(value)
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "-"
	case map[string]any:
		if len(typed) == 0 {
			return "-"
		}
		pairs := make([]string, 0, len(typed))
		for _, key := range sortedKeys(typed) {
			pairs = append(pairs, key+"="+formatValue(typed[key]))
		}
		return "{" + strings.Join(pairs, " ") + "}"
	default:
		return fmt.Sprint(typed)
	}
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
