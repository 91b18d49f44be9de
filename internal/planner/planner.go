// Package planner compiles a chat message into a plan with an ordered table of hand-written rules.
package planner

import (
	"regexp"
	"strings"
	"time"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/ports"
	"github.com/bnema/finchat/internal/textnorm"
)

// UIActionOpenImportPanel asks the client to show the statement import panel.
const UIActionOpenImportPanel = "open_import_panel"

// FallbackReply is returned when no rule understands the message.
const FallbackReply = "Je n’ai pas compris. Essayez par exemple « Dépenses chez Migros en janvier 2026 », « Liste mes catégories » ou « search: coffee »."

type Planner struct {
	clock ports.Clock
}

type Input struct {
	Message         string
	KnownCategories []string
}

// request is what every rule sees: the message with whitespace collapsed, without terminal
// punctuation, plus its folded form.
type request struct {
	raw    string
	text   string
	folded string
	today  time.Time
	known  []string
}

type rule struct {
	name  string
	apply func(req request) (domain.Plan, bool)
}

// rules is evaluated top to bottom; the first rule that recognizes the message wins.
var rules = []rule{
	{name: "ping", apply: planPing},
	{name: "search_command", apply: planSearchCommand},
	{name: "import_panel", apply: planImportPanel},
	{name: "profile_get", apply: planProfileGet},
	{name: "profile_update", apply: planProfileUpdate},
	{name: "categories_list", apply: planCategoriesList},
	{name: "categories_create", apply: planCategoriesCreate},
	{name: "categories_rename", apply: planCategoriesRename},
	{name: "categories_delete", apply: planCategoriesDelete},
	{name: "categories_exclude", apply: planCategoriesExclude},
	{name: "bank_accounts_list", apply: planBankAccountsList},
	{name: "bank_accounts_create", apply: planBankAccountsCreate},
	{name: "bank_accounts_rename", apply: planBankAccountsRename},
	{name: "bank_accounts_delete", apply: planBankAccountsDelete},
	{name: "bank_accounts_set_default", apply: planBankAccountsSetDefault},
	{name: "releves_search", apply: planRelevesSearch},
	{name: "releves_aggregate", apply: planRelevesAggregate},
	{name: "releves_sum", apply: planRelevesSum},
}

func New(clock ports.Clock) *Planner {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Planner{clock: clock}
}

// RuleNames lists the rules in evaluation order.
func RuleNames() []string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.name)
	}
	return names
}

func (p *Planner) Plan(message string) domain.Plan {
	return p.PlanWith(Input{Message: message})
}

// PlanWith never fails: unmatched input yields the generic NoopPlan.
func (p *Planner) PlanWith(in Input) domain.Plan {
	req := request{
		raw:    textnorm.Collapse(in.Message),
		text:   stripTerminalPunctuation(textnorm.Collapse(in.Message)),
		folded: stripTerminalPunctuation(textnorm.Fold(in.Message)),
		today:  p.clock.Now(),
		known:  in.KnownCategories,
	}

	if req.raw == "" {
		return fallbackPlan()
	}

	for _, r := range rules {
		plan, ok := r.apply(req)
		if !ok {
			continue
		}
		return withDeterministicSource(plan)
	}

	return fallbackPlan()
}

// IsFallback reports the generic reply produced when no rule matched.
func IsFallback(plan domain.Plan) bool {
	noop, ok := plan.(domain.NoopPlan)
	return ok && noop.Reply == FallbackReply
}

// IsPing reports the literal ping command, which is answered before any task or memory is looked at.
func IsPing(message string) bool {
	return stripTerminalPunctuation(textnorm.Fold(message)) == "ping"
}

func fallbackPlan() domain.Plan {
	return domain.NoopPlan{Reply: FallbackReply, Meta: domain.Meta{Source: domain.SourceDeterministic}}
}

func withDeterministicSource(plan domain.Plan) domain.Plan {
	meta := domain.MetaOf(plan)
	if meta.Source == "" {
		meta.Source = domain.SourceDeterministic
	}
	return domain.WithMeta(plan, meta)
}

func planPing(req request) (domain.Plan, bool) {
	if req.folded != "ping" {
		return nil, false
	}
	return domain.NoopPlan{Reply: "pong"}, true
}

var importPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bimporter\b.*\b(?:releve|csv)\b`),
	regexp.MustCompile(`\bje\s+veux\s+importer\b`),
	regexp.MustCompile(`\bajouter?\s+un\s+releve\b`),
}

func planImportPanel(req request) (domain.Plan, bool) {
	for _, pattern := range importPatterns {
		if pattern.MatchString(req.folded) {
			return domain.NoopPlan{
				Reply: "J’ouvre le panneau d’import de relevés.",
				Meta:  domain.Meta{UIAction: UIActionOpenImportPanel},
			}, true
		}
	}
	return nil, false
}

func stripTerminalPunctuation(value string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(value), ".,!?:;\"'“”«»"))
}
