package planner

import (
	"regexp"
	"strings"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/grammar"
)

var (
	profileWholePattern = regexp.MustCompile(`^(?:(?:affiche|montre(?:-?\s?moi)?|donne(?:-moi)?|voir)\s+)?(?:mon|le)\s+profil$`)
	profileValueArticle = regexp.MustCompile(`(?i)^(?:le|la|l['’])\s*`)

	profileGetPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:quel(?:le)?\s+est|c['’]est\s+quoi|donne(?:-moi)?|affiche|rappelle(?:-moi)?)\s+(?:mon|ma)\s+(.+?)$`),
		regexp.MustCompile(`(?i)^(?:mon|ma)\s+(.+?)\s*\?$`),
	}

	profileUpdatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:mets?\s+[àa]\s+jour|modifie[rz]?|change[rz]?|remplace[rz]?)\s+(?:mon|ma)\s+(.+?)\s*(?::|=|\s(?:en|par|pour|à|a)\s)\s*(.+)$`),
		regexp.MustCompile(`(?i)^(?:mon|ma)\s+(.+?)\s+(?:est|devient)\s*:?\s+(.+)$`),
		regexp.MustCompile(`(?i)^(?:mon|ma)\s+(.+?)\s*:\s*(.+)$`),
	}
)

func allProfileFieldKeys() []any {
	keys := make([]any, 0, len(domain.ProfileFields))
	for _, field := range domain.ProfileFields {
		keys = append(keys, field.Key)
	}
	return keys
}

func planProfileGet(req request) (domain.Plan, bool) {
	if profileWholePattern.MatchString(req.folded) {
		return domain.ToolCallPlan{
			ToolName:      domain.ToolProfileGet,
			Payload:       domain.Payload{domain.KeyFields: allProfileFieldKeys()},
			UserReplyHint: "Voici votre profil.",
		}, true
	}

	for i, pattern := range profileGetPatterns {
		subject := req.text
		if i == 1 {
			subject = req.raw
		}
		match := pattern.FindStringSubmatch(subject)
		if match == nil {
			continue
		}
		key, ok := domain.ProfileFieldKey(match[1])
		if !ok {
			continue
		}
		return domain.ToolCallPlan{
			ToolName:      domain.ToolProfileGet,
			Payload:       domain.Payload{domain.KeyFields: []any{key}},
			UserReplyHint: "Voici votre " + domain.ProfileFieldPossessive(key) + ".",
		}, true
	}
	return nil, false
}

func planProfileUpdate(req request) (domain.Plan, bool) {
	for _, pattern := range profileUpdatePatterns {
		match := pattern.FindStringSubmatch(req.text)
		if match == nil {
			continue
		}
		key, ok := domain.ProfileFieldKey(match[1])
		if !ok {
			continue
		}
		value := grammar.CleanName(match[2])
		if key == "birth_date" {
			value = strings.TrimSpace(profileValueArticle.ReplaceAllString(value, ""))
		}
		if value == "" {
			continue
		}
		return domain.ToolCallPlan{
			ToolName:      domain.ToolProfileUpdate,
			Payload:       domain.Payload{domain.KeySet: map[string]any{key: value}},
			UserReplyHint: "Profil mis à jour.",
		}, true
	}
	return nil, false
}
