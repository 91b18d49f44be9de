package planner

import (
	"regexp"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/grammar"
)

const bankAccountNameQuestion = "Quel nom voulez-vous donner au compte bancaire ?"

var (
	bankAccountsListPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^liste\s+mes\s+comptes(?:\s+bancaires)?$`),
		regexp.MustCompile(`^quels\s+sont\s+mes\s+comptes(?:\s+bancaires)?$`),
		regexp.MustCompile(`^affiche\s+mes\s+comptes(?:\s+bancaires)?$`),
		regexp.MustCompile(`^montre(?:-?\s?moi)?\s+mes\s+comptes(?:\s+bancaires)?$`),
		regexp.MustCompile(`^j'ai\s+combien\s+de\s+comptes\s+bancaires$`),
	}

	bankAccountCreatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:cr[ée]e?r?|ajoute)\s+(?:un\s+)?compte(?:\s+bancaire)?(?:\s+nomm[ée])?\s*(?P<name>.+)?$`),
		regexp.MustCompile(`(?i)nouveau\s+compte\s*:\s*(?P<name>.+)?$`),
	}

	bankAccountRenamePattern     = regexp.MustCompile(`(?i)^renomme[rz]?\s+(?:le\s+)?compte(?:\s+bancaire)?\s+(.+?)\s+en\s+(.+)$`)
	bankAccountDeletePattern     = regexp.MustCompile(`(?i)^(?:supprime[rz]?|efface[rz]?|ferme[rz]?)\s+(?:le\s+)?compte(?:\s+bancaire)?\s+(.+)$`)
	bankAccountSetDefaultPattern = regexp.MustCompile(`(?i)^(?:d[ée]finis|mets?|choisis|utilise)\s+(?:le\s+)?compte(?:\s+bancaire)?\s+(.+?)\s+(?:comme\s+(?:compte\s+)?)?(?:par\s+)?d[ée]faut$`)
	bankAccountDefaultPattern    = regexp.MustCompile(`(?i)^compte\s+par\s+d[ée]faut\s*:\s*(.+)$`)
)

func planBankAccountsList(req request) (domain.Plan, bool) {
	for _, pattern := range bankAccountsListPatterns {
		if pattern.MatchString(req.folded) {
			return domain.ToolCallPlan{
				ToolName:      domain.ToolBankAccountsList,
				Payload:       domain.Payload{},
				UserReplyHint: "Voici vos comptes bancaires.",
			}, true
		}
	}
	return nil, false
}

func planBankAccountsCreate(req request) (domain.Plan, bool) {
	for _, pattern := range bankAccountCreatePatterns {
		match := pattern.FindStringSubmatch(req.raw)
		if match == nil {
			continue
		}
		name := grammar.CleanName(match[pattern.SubexpIndex("name")])
		if name == "" {
			return domain.SetActiveTaskPlan{
				Reply: bankAccountNameQuestion,
				ActiveTask: domain.ActiveTask{
					Type:      domain.TaskAwaitingBankAccountName,
					CreatedAt: req.today,
					ToolName:  domain.ToolBankAccountsCreate,
					Payload:   domain.Payload{},
					Question:  bankAccountNameQuestion,
				},
			}, true
		}
		return domain.ToolCallPlan{
			ToolName:      domain.ToolBankAccountsCreate,
			Payload:       domain.Payload{domain.KeyName: name},
			UserReplyHint: "Compte créé.",
		}, true
	}
	return nil, false
}

func planBankAccountsRename(req request) (domain.Plan, bool) {
	match := bankAccountRenamePattern.FindStringSubmatch(req.text)
	if match == nil {
		return nil, false
	}
	current := grammar.CleanName(match[1])
	renamed := grammar.CleanName(match[2])
	if current == "" || renamed == "" {
		return nil, false
	}
	return domain.ToolCallPlan{
		ToolName:      domain.ToolBankAccountsUpdate,
		Payload:       domain.Payload{domain.KeyName: current, domain.KeyNewName: renamed},
		UserReplyHint: "Compte renommé.",
	}, true
}

func planBankAccountsDelete(req request) (domain.Plan, bool) {
	match := bankAccountDeletePattern.FindStringSubmatch(req.text)
	if match == nil {
		return nil, false
	}
	name := grammar.CleanName(match[1])
	if name == "" {
		return nil, false
	}
	return domain.ToolCallPlan{
		ToolName:      domain.ToolBankAccountsDelete,
		Payload:       domain.Payload{domain.KeyName: name},
		UserReplyHint: "Compte supprimé.",
	}, true
}

func planBankAccountsSetDefault(req request) (domain.Plan, bool) {
	match := bankAccountSetDefaultPattern.FindStringSubmatch(req.text)
	if match == nil {
		match = bankAccountDefaultPattern.FindStringSubmatch(req.text)
	}
	if match == nil {
		return nil, false
	}
	name := grammar.CleanName(match[1])
	if name == "" {
		return nil, false
	}
	return domain.ToolCallPlan{
		ToolName:      domain.ToolBankAccountsSetDefault,
		Payload:       domain.Payload{domain.KeyName: name},
		UserReplyHint: "Compte par défaut mis à jour.",
	}, true
}
