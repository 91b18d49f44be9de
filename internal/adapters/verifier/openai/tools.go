package openai

import (
	gopenai "github.com/sashabaranov/go-openai"

	"github.com/bnema/finchat/internal/domain"
)

const verifierPrompt = `Tu contrôles un assistant de finances personnelles francophone.
Tu reçois le message de l'utilisateur et l'appel d'outil prévu, avec son niveau de confiance.
Réponds uniquement via la fonction guardian_verdict:
- "approve" si l'appel correspond à la demande;
- "repair" avec tool_name et payload corrigés si un autre appel autorisé convient mieux;
- "clarify" avec une question courte en français si la demande est ambiguë.
N'invente jamais de filtre absent du message ou du contexte. Les montants sont en CHF.`

const proposerPrompt = `Tu planifies un seul appel d'outil pour un assistant de finances personnelles francophone.
Choisis un outil parmi allowed_tools et remplis son payload à partir du message et du contexte.
Réponds uniquement via la fonction propose_tool_call. Si aucun outil ne convient, laisse tool_name vide
et donne une réponse courte en français dans user_reply.`

func toolNameSchema(allowed []string) map[string]any {
	schema := map[string]any{"type": "string"}
	if len(allowed) > 0 {
		names := make([]any, 0, len(allowed)+1)
		for _, name := range allowed {
			names = append(names, name)
		}
		schema["enum"] = append(names, "")
	}
	return schema
}

func verdictTool(allowed []string) gopenai.Tool {
	return gopenai.Tool{
		Type: gopenai.ToolTypeFunction,
		Function: &gopenai.FunctionDefinition{
			Name:        verdictFunction,
			Description: "Verdict sur l'appel d'outil prévu.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"verdict": map[string]any{
						"type": "string",
						"enum": []string{string(domain.VerdictApprove), string(domain.VerdictRepair), string(domain.VerdictClarify)},
					},
					"tool_name":  toolNameSchema(allowed),
					"payload":    map[string]any{"type": "object"},
					"user_reply": map[string]any{"type": "string"},
					"question":   map[string]any{"type": "string"},
					"reason":     map[string]any{"type": "string"},
				},
				"required": []string{"verdict"},
			},
		},
	}
}

func proposalTool(allowed []string) gopenai.Tool {
	return gopenai.Tool{
		Type: gopenai.ToolTypeFunction,
		Function: &gopenai.FunctionDefinition{
			Name:        proposalFunction,
			Description: "Appel d'outil proposé pour le message.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tool_name":  toolNameSchema(allowed),
					"payload":    map[string]any{"type": "object"},
					"user_reply": map[string]any{"type": "string"},
				},
				"required": []string{"tool_name"},
			},
		},
	}
}
