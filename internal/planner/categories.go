package planner

import (
	"regexp"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/grammar"
)

const categoryNameQuestion = "Quel nom voulez-vous donner à la catégorie ?"

var (
	categoriesListPattern  = regexp.MustCompile(`^(?:(?:liste|affiche|montre(?:-?\s?moi)?|donne(?:-moi)?)\s+(?:mes|les)\s+categories|quelles\s+sont\s+mes\s+categories|mes\s+categories)$`)
	categoryCreatePattern  = regexp.MustCompile(`(?i)^(?:cr[ée]e[rz]?|ajoute[rz]?)\s+(?:une\s+)?(?:nouvelle\s+)?cat[ée]gorie\s*(?:nomm[ée]e?\s+|:\s*)?(.*)$`)
	categoryRenamePattern  = regexp.MustCompile(`(?i)^renomme[rz]?\s+(?:la\s+)?cat[ée]gorie\s+(.+?)\s+en\s+(.+)$`)
	categoryDeletePattern  = regexp.MustCompile(`(?i)^(?:supprime[rz]?|efface[rz]?|retire[rz]?)\s+(?:la\s+)?cat[ée]gorie\s+(.+)$`)
	categoryExcludePattern = regexp.MustCompile(`(?i)^exclu(?:s|re|ez)?\s+(?:la\s+cat[ée]gorie\s+)?(.+?)\s+des\s+totaux$`)
	categoryIncludePattern = regexp.MustCompile(`(?i)^(?:inclu(?:s|re|ez)?|r[ée]int[èe]gre[rz]?)\s+(?:la\s+cat[ée]gorie\s+)?(.+?)\s+(?:dans\s+les|aux)\s+totaux$`)
)

func planCategoriesList(req request) (domain.Plan, bool) {
	if !categoriesListPattern.MatchString(req.folded) {
		return nil, false
	}
	return domain.ToolCallPlan{
		ToolName:      domain.ToolCategoriesList,
		Payload:       domain.Payload{},
		UserReplyHint: "Voici vos catégories.",
	}, true
}

func planCategoriesCreate(req request) (domain.Plan, bool) {
	match := categoryCreatePattern.FindStringSubmatch(req.text)
	if match == nil {
		return nil, false
	}
	name := grammar.CleanName(match[1])
	if name == "" {
		return domain.ClarificationPlan{Question: categoryNameQuestion}, true
	}
	return domain.ToolCallPlan{
		ToolName:      domain.ToolCategoriesCreate,
		Payload:       domain.Payload{domain.KeyName: name},
		UserReplyHint: "Catégorie créée.",
	}, true
}

func planCategoriesRename(req request) (domain.Plan, bool) {
	match := categoryRenamePattern.FindStringSubmatch(req.text)
	if match == nil {
		return nil, false
	}
	current := canonicalCategory(match[1], req.known)
	renamed := grammar.CleanName(match[2])
	if current == "" || renamed == "" {
		return nil, false
	}
	return domain.ToolCallPlan{
		ToolName:      domain.ToolCategoriesUpdate,
		Payload:       domain.Payload{domain.KeyCategoryName: current, domain.KeyName: renamed},
		UserReplyHint: "Catégorie renommée.",
	}, true
}

func planCategoriesDelete(req request) (domain.Plan, bool) {
	match := categoryDeletePattern.FindStringSubmatch(req.text)
	if match == nil {
		return nil, false
	}
	name := canonicalCategory(match[1], req.known)
	if name == "" {
		return nil, false
	}
	return domain.ToolCallPlan{
		ToolName:      domain.ToolCategoriesDelete,
		Payload:       domain.Payload{domain.KeyCategoryName: name},
		UserReplyHint: "Catégorie supprimée.",
	}, true
}

func planCategoriesExclude(req request) (domain.Plan, bool) {
	exclude := true
	match := categoryExcludePattern.FindStringSubmatch(req.text)
	if match == nil {
		exclude = false
		match = categoryIncludePattern.FindStringSubmatch(req.text)
	}
	if match == nil {
		return nil, false
	}
	name := canonicalCategory(match[1], req.known)
	if name == "" {
		return nil, false
	}

	hint := "Catégorie exclue des totaux."
	if !exclude {
		hint = "Catégorie réintégrée dans les totaux."
	}
	return domain.ToolCallPlan{
		ToolName:      domain.ToolCategoriesUpdate,
		Payload:       domain.Payload{domain.KeyCategoryName: name, domain.KeyExcludeFromTotals: exclude},
		UserReplyHint: hint,
	}, true
}

// canonicalCategory cleans a user-typed name and restores the stored casing when the category is known.
func canonicalCategory(raw string, known []string) string {
	name := grammar.CleanName(raw)
	if canonical, ok := grammar.CanonicalCategory(name, known); ok {
		return canonical
	}
	return name
}
