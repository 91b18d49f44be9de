package planner

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/finchat/internal/domain"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var testToday = time.Date(2026, time.February, 16, 9, 30, 0, 0, time.UTC)

func newTestPlanner() *Planner {
	return New(fixedClock{now: testToday})
}

func dateRange(start, end string) map[string]any {
	return map[string]any{domain.KeyStartDate: start, domain.KeyEndDate: end}
}

func requireToolPlan(t *testing.T, plan domain.Plan) domain.ToolCallPlan {
	t.Helper()

	toolPlan, ok := plan.(domain.ToolCallPlan)
	require.Truef(t, ok, "expected tool call plan, got %T (%s)", plan, domain.ReplyOf(plan))
	return toolPlan
}

func TestPlanToolCalls(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		known   []string
		tool    string
		payload domain.Payload
	}{
		{
			name:    "expenses at merchant over two months",
			message: "Dépenses chez migros en décembre 2025 et janvier 2026",
			tool:    domain.ToolRelevesSum,
			payload: domain.Payload{
				domain.KeyDirection: domain.DirectionDebitOnly,
				domain.KeyMerchant:  "migros",
				domain.KeyDateRange: dateRange("2025-12-01", "2026-01-31"),
			},
		},
		{
			name:    "income last month",
			message: "Mes revenus le mois dernier",
			tool:    domain.ToolRelevesSum,
			payload: domain.Payload{
				domain.KeyDirection: domain.DirectionCreditOnly,
				domain.KeyDateRange: dateRange("2026-01-01", "2026-01-31"),
			},
		},
		{
			name:    "known category total",
			message: "Dépenses Loisir en décembre 2025",
			known:   []string{"Loisir", "Logement"},
			tool:    domain.ToolRelevesSum,
			payload: domain.Payload{
				domain.KeyDirection: domain.DirectionDebitOnly,
				domain.KeyCategory:  "Loisir",
				domain.KeyDateRange: dateRange("2025-12-01", "2025-12-31"),
			},
		},
		{
			name:    "exclude category from totals",
			message: "Exclus Transfert interne des totaux",
			tool:    domain.ToolCategoriesUpdate,
			payload: domain.Payload{
				domain.KeyCategoryName:      "Transfert interne",
				domain.KeyExcludeFromTotals: true,
			},
		},
		{
			name:    "include category back",
			message: "Réintègre la catégorie transfert interne dans les totaux",
			known:   []string{"Transfert interne"},
			tool:    domain.ToolCategoriesUpdate,
			payload: domain.Payload{
				domain.KeyCategoryName:      "Transfert interne",
				domain.KeyExcludeFromTotals: false,
			},
		},
		{
			name:    "aggregate by category",
			message: "Dépenses par catégorie en janvier 2026",
			tool:    domain.ToolRelevesAggregate,
			payload: domain.Payload{
				domain.KeyGroupBy:   "categorie",
				domain.KeyDirection: domain.DirectionDebitOnly,
				domain.KeyDateRange: dateRange("2026-01-01", "2026-01-31"),
			},
		},
		{
			name:    "natural search with month",
			message: "Transactions Migros en janvier 2026",
			tool:    domain.ToolRelevesSearch,
			payload: domain.Payload{
				domain.KeyMerchant:  "migros",
				domain.KeyLimit:     50,
				domain.KeyOffset:    0,
				domain.KeyDateRange: dateRange("2026-01-01", "2026-01-31"),
			},
		},
		{
			name:    "search command",
			message: "search: coffee from:2026-01-01 to:2026-01-31 limit:10 min:5.5",
			tool:    domain.ToolRelevesSearch,
			payload: domain.Payload{
				domain.KeySearch:    "coffee",
				domain.KeyLimit:     10,
				domain.KeyOffset:    0,
				domain.KeyMinAmount: 5.5,
				domain.KeyDateRange: dateRange("2026-01-01", "2026-01-31"),
			},
		},
		{
			name:    "list categories",
			message: "Liste mes catégories",
			tool:    domain.ToolCategoriesList,
			payload: domain.Payload{},
		},
		{
			name:    "create category",
			message: "Crée une catégorie Voyages",
			tool:    domain.ToolCategoriesCreate,
			payload: domain.Payload{domain.KeyName: "Voyages"},
		},
		{
			name:    "rename category keeps stored casing",
			message: "Renomme la catégorie loisir en Loisirs",
			known:   []string{"Loisir"},
			tool:    domain.ToolCategoriesUpdate,
			payload: domain.Payload{domain.KeyCategoryName: "Loisir", domain.KeyName: "Loisirs"},
		},
		{
			name:    "delete category",
			message: "Supprime la catégorie Voyages",
			tool:    domain.ToolCategoriesDelete,
			payload: domain.Payload{domain.KeyCategoryName: "Voyages"},
		},
		{
			name:    "list bank accounts",
			message: "Quels sont mes comptes bancaires ?",
			tool:    domain.ToolBankAccountsList,
			payload: domain.Payload{},
		},
		{
			name:    "create bank account",
			message: "Crée un compte bancaire nommé UBS Pro",
			tool:    domain.ToolBankAccountsCreate,
			payload: domain.Payload{domain.KeyName: "UBS Pro"},
		},
		{
			name:    "rename bank account",
			message: "Renomme le compte Courant en Joint",
			tool:    domain.ToolBankAccountsUpdate,
			payload: domain.Payload{domain.KeyName: "Courant", domain.KeyNewName: "Joint"},
		},
		{
			name:    "delete bank account",
			message: "Supprime le compte UBS",
			tool:    domain.ToolBankAccountsDelete,
			payload: domain.Payload{domain.KeyName: "UBS"},
		},
		{
			name:    "set default bank account",
			message: "Définis le compte Revolut comme compte par défaut",
			tool:    domain.ToolBankAccountsSetDefault,
			payload: domain.Payload{domain.KeyName: "Revolut"},
		},
		{
			name:    "profile field get",
			message: "Quelle est ma date de naissance ?",
			tool:    domain.ToolProfileGet,
			payload: domain.Payload{domain.KeyFields: []any{"birth_date"}},
		},
		{
			name:    "profile field update",
			message: "Change ma ville en Genève",
			tool:    domain.ToolProfileUpdate,
			payload: domain.Payload{domain.KeySet: map[string]any{"city": "Genève"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan := newTestPlanner().PlanWith(Input{Message: tt.message, KnownCategories: tt.known})

			toolPlan := requireToolPlan(t, plan)
			assert.Equal(t, tt.tool, toolPlan.ToolName)
			if diff := cmp.Diff(map[string]any(tt.payload), map[string]any(toolPlan.Payload)); diff != "" {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, domain.SourceDeterministic, toolPlan.Meta.Source)
		})
	}
}

func TestPlanPingIsPong(t *testing.T) {
	t.Parallel()

	for _, message := range []string{"ping", "PING", "  Ping "} {
		plan := newTestPlanner().Plan(message)
		noop, ok := plan.(domain.NoopPlan)
		require.True(t, ok, message)
		assert.Equal(t, "pong", noop.Reply)
	}
}

func TestPlanMalformedSearchCommandIsValidationError(t *testing.T) {
	t.Parallel()

	plan := newTestPlanner().Plan("search: coffee from:2026-01-01")

	errorPlan, ok := plan.(domain.ErrorPlan)
	require.True(t, ok)
	assert.Equal(t, searchCommandReply, errorPlan.Reply)
	assert.Equal(t, domain.ToolErrorValidation, errorPlan.ToolError.Code)
	assert.Equal(t, "Les dates doivent inclure from:YYYY-MM-DD et to:YYYY-MM-DD.", errorPlan.ToolError.Message)
	assert.Equal(t, "2026-01-01", errorPlan.ToolError.Details["from"])
	assert.Nil(t, errorPlan.ToolError.Details["to"])
}

func TestPlanSearchCommandBadAmount(t *testing.T) {
	t.Parallel()

	plan := newTestPlanner().Plan("search: coffee max:abc")

	errorPlan, ok := plan.(domain.ErrorPlan)
	require.True(t, ok)
	assert.Equal(t, domain.ToolErrorValidation, errorPlan.ToolError.Code)
	assert.Contains(t, errorPlan.ToolError.Message, "Montant invalide")
}

func TestPlanFutureMonthWithoutYearAsksForYear(t *testing.T) {
	t.Parallel()

	plan := newTestPlanner().Plan("Dépenses chez Coop en avril")

	clarification, ok := plan.(domain.ClarificationPlan)
	require.True(t, ok)
	assert.Contains(t, clarification.Question, "avril")
	require.NotNil(t, clarification.Meta.PendingClarification)

	task := clarification.Meta.PendingClarification
	assert.Equal(t, domain.TaskClarificationPending, task.Type)
	assert.Equal(t, domain.ClarifyMissingYear, task.ClarificationType)
	assert.Equal(t, domain.ToolRelevesSum, task.ToolName)
	assert.Equal(t, "coop", task.Payload[domain.KeyMerchant])
	assert.Equal(t, []any{int(time.April)}, task.PeriodPayload[domain.KeyMonth])
}

func TestPlanTotalWithoutDirectionAsksForDirection(t *testing.T) {
	t.Parallel()

	plan := newTestPlanner().Plan("Total en janvier 2026")

	clarification, ok := plan.(domain.ClarificationPlan)
	require.True(t, ok)
	assert.Equal(t, DirectionQuestion, clarification.Question)
	require.NotNil(t, clarification.Meta.PendingClarification)
	assert.Equal(t, domain.ClarifyDirectionChoice, clarification.Meta.PendingClarification.ClarificationType)
	assert.Equal(t, dateRange("2026-01-01", "2026-01-31"), clarification.Meta.PendingClarification.Payload[domain.KeyDateRange])
}

func TestPlanSearchWithoutTermAwaitsMerchant(t *testing.T) {
	t.Parallel()

	plan := newTestPlanner().Plan("Cherche en janvier 2026")

	setTask, ok := plan.(domain.SetActiveTaskPlan)
	require.True(t, ok)
	assert.Equal(t, "Que voulez-vous rechercher (ex: Migros, coffee, Coop) ?", setTask.Reply)
	assert.Equal(t, domain.TaskAwaitingSearchMerchant, setTask.ActiveTask.Type)
	assert.Equal(t, testToday, setTask.ActiveTask.CreatedAt)
	assert.Equal(t, dateRange("2026-01-01", "2026-01-31"), setTask.ActiveTask.PeriodPayload[domain.KeyDateRange])
}

func TestPlanSearchSplitsBankHint(t *testing.T) {
	t.Parallel()

	toolPlan := requireToolPlan(t, newTestPlanner().Plan("cherche coffee ubs pro"))

	assert.Equal(t, "coffee", toolPlan.Payload[domain.KeyMerchant])
	assert.Equal(t, "ubs", toolPlan.Meta.BankAccountHint)
	assert.Equal(t, "coffee ubs pro", toolPlan.Meta.MerchantFallback)
}

func TestPlanCreateBankAccountWithoutNameAwaitsName(t *testing.T) {
	t.Parallel()

	plan := newTestPlanner().Plan("Ajoute un compte")

	setTask, ok := plan.(domain.SetActiveTaskPlan)
	require.True(t, ok)
	assert.Equal(t, "Quel nom voulez-vous donner au compte bancaire ?", setTask.Reply)
	assert.Equal(t, domain.TaskAwaitingBankAccountName, setTask.ActiveTask.Type)
}

func TestPlanImportPhraseOpensPanel(t *testing.T) {
	t.Parallel()

	plan := newTestPlanner().Plan("Je veux importer un relevé CSV")

	noop, ok := plan.(domain.NoopPlan)
	require.True(t, ok)
	assert.Equal(t, UIActionOpenImportPanel, noop.Meta.UIAction)
}

func TestPlanUnknownMessageFallsBack(t *testing.T) {
	t.Parallel()

	for _, message := range []string{"", "Bonjour", "Quelle est la météo ?"} {
		plan := newTestPlanner().Plan(message)
		assert.True(t, IsFallback(plan), message)
	}
}

func TestRuleOrderIsStable(t *testing.T) {
	t.Parallel()

	names := RuleNames()
	require.NotEmpty(t, names)
	assert.Equal(t, "ping", names[0])
	assert.Equal(t, "search_command", names[1])
	assert.Equal(t, "releves_sum", names[len(names)-1])
}

func TestDirectionFromAnswer(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"les dépenses": domain.DirectionDebitOnly,
		"Revenus":      domain.DirectionCreditOnly,
		"les deux":     domain.DirectionAll,
	}
	for answer, want := range tests {
		got, ok := DirectionFromAnswer(answer)
		require.True(t, ok, answer)
		assert.Equal(t, want, got, answer)
	}

	_, ok := DirectionFromAnswer("peut-être")
	assert.False(t, ok)
}
