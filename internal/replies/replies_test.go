package replies

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/finchat/internal/domain"
)

func toolPlan(name string, payload domain.Payload) domain.ToolCallPlan {
	return domain.ToolCallPlan{ToolName: name, Payload: payload, UserReplyHint: "Voici le total demandé."}
}

func TestMoneyRoundsHalfUp(t *testing.T) {
	t.Parallel()

	tests := map[Amount]string{
		"2.675":   "2.68 CHF",
		"-12.345": "-12.35 CHF",
		"10":      "10.00 CHF",
		"0.004":   "0.00 CHF",
		"":        "0.00 CHF",
	}
	for amount, want := range tests {
		assert.Equal(t, want, Money(amount, "CHF"), string(amount))
	}
	assert.Equal(t, "3.10", Money("3.1", ""))
}

func TestDecodeAcceptsNumbersAndText(t *testing.T) {
	t.Parallel()

	var sum SumResult
	require.NoError(t, Decode(map[string]any{
		"total":    -123.4,
		"count":    float64(3),
		"average":  "-41.13",
		"currency": "EUR",
		"filters":  map[string]any{"direction": "DEBIT_ONLY", "merchant": "migros"},
		"extra":    true,
	}, &sum))

	assert.Equal(t, Amount("-123.4"), sum.Total)
	assert.Equal(t, 3, sum.Count)
	assert.Equal(t, Amount("-41.13"), sum.Average)
	assert.Equal(t, "DEBIT_ONLY", sum.Filters.Direction)

	assert.Error(t, Decode(nil, &sum))
}

func TestBuildSum(t *testing.T) {
	t.Parallel()

	builder := New("")
	tests := []struct {
		name   string
		result map[string]any
		want   string
	}{
		{
			name:   "expenses carry the excluded categories note",
			result: map[string]any{"total": -250.5, "count": 4, "average": -62.625, "filters": map[string]any{"direction": "DEBIT_ONLY"}},
			want:   "Total des dépenses: -250.50 CHF sur 4 opération(s). Moyenne: -62.63 CHF.\nCertaines catégories peuvent être exclues des totaux (ex: Transfert interne).",
		},
		{
			name:   "income",
			result: map[string]any{"total": 5000, "count": 1, "average": 5000, "currency": "EUR", "filters": map[string]any{"direction": "CREDIT_ONLY"}},
			want:   "Total des revenus: 5000.00 EUR sur 1 opération(s). Moyenne: 5000.00 EUR.",
		},
		{
			name:   "net total without operations has no average",
			result: map[string]any{"total": 0, "count": 0, "filters": map[string]any{"direction": "ALL"}},
			want:   "Total net (revenus + dépenses): 0.00 CHF sur 0 opération(s).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, builder.Build(toolPlan(domain.ToolRelevesSum, nil), tt.result))
		})
	}
}

func TestBuildAggregateKeepsTopTen(t *testing.T) {
	t.Parallel()

	groups := map[string]any{}
	for i := 1; i <= 12; i++ {
		groups[fmt.Sprintf("Cat%02d", i)] = map[string]any{"total": -float64(i * 10), "count": i}
	}
	reply := New("CHF").Build(toolPlan(domain.ToolRelevesAggregate, nil), map[string]any{
		"group_by": "categorie",
		"groups":   groups,
		"filters":  map[string]any{"direction": "DEBIT_ONLY"},
	})

	lines := strings.Split(reply, "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "Voici vos dépenses agrégées par categorie :", lines[0])
	assert.Equal(t, "- Cat12: 120.00 CHF (12 opérations)", lines[1])
	assert.Equal(t, "- Cat03: 30.00 CHF (3 opérations)", lines[10])
	assert.Equal(t, "- Autres: 30.00 CHF (3 opérations)", lines[11])
	assert.Equal(t, "Certaines catégories peuvent être exclues des totaux (ex: Transfert interne).", lines[12])

	empty := New("CHF").Build(toolPlan(domain.ToolRelevesAggregate, nil), map[string]any{"group_by": "payee"})
	assert.Equal(t, "Je n'ai trouvé aucune opération pour cette agrégation.", empty)
}

func TestBuildListsAndWrites(t *testing.T) {
	t.Parallel()

	builder := New("CHF")
	tests := []struct {
		name   string
		plan   domain.ToolCallPlan
		result any
		want   string
	}{
		{
			name: "search examples",
			plan: toolPlan(domain.ToolRelevesSearch, nil),
			result: map[string]any{"items": []any{
				map[string]any{"libelle": "Coop Pronto", "montant": -4.5},
				map[string]any{"payee": "Migros"},
				map[string]any{"libelle": "Denner"},
			}},
			want: "J'ai trouvé 3 opération(s), par exemple: Coop Pronto, Migros.",
		},
		{
			name:   "search without labels",
			plan:   toolPlan(domain.ToolRelevesSearch, nil),
			result: map[string]any{"items": []any{}},
			want:   "J'ai trouvé 0 opération(s).",
		},
		{
			name: "categories",
			plan: toolPlan(domain.ToolCategoriesList, nil),
			result: map[string]any{"items": []any{
				map[string]any{"name": "Loisir"},
				map[string]any{"name": "Transfert interne", "exclude_from_totals": true},
			}},
			want: "Voici vos catégories :\n- Loisir\n- Transfert interne (exclue des totaux)\n" +
				"Une catégorie exclue des totaux (ex: Transfert interne) n’est pas comptée dans les dépenses.",
		},
		{
			name:   "no categories",
			plan:   toolPlan(domain.ToolCategoriesList, nil),
			result: map[string]any{"items": nil},
			want:   "Vous n'avez aucune catégorie pour le moment.",
		},
		{
			name: "bank accounts with default",
			plan: toolPlan(domain.ToolBankAccountsList, nil),
			result: map[string]any{
				"default_bank_account_id": "acc-2",
				"items": []any{
					map[string]any{"id": "acc-1", "name": "UBS", "account_kind": "individual", "kind": "bank"},
					map[string]any{"id": "acc-2", "name": "Revolut"},
				},
			},
			want: "- UBS (individual, bank)\n- Revolut ⭐ (inconnu, inconnu)",
		},
		{
			name:   "category rename",
			plan:   toolPlan(domain.ToolCategoriesUpdate, domain.Payload{"category_name": "Loisir", "name": "Loisirs"}),
			result: map[string]any{"id": "c1", "name": "Loisirs"},
			want:   "Catégorie renommée : Loisir → Loisirs.",
		},
		{
			name:   "category excluded",
			plan:   toolPlan(domain.ToolCategoriesUpdate, domain.Payload{"category_name": "Transfert interne", "exclude_from_totals": true}),
			result: map[string]any{"id": "c2", "name": "Transfert interne", "exclude_from_totals": true},
			want:   "Catégorie mise à jour: Transfert interne.",
		},
		{
			name:   "category created",
			plan:   toolPlan(domain.ToolCategoriesCreate, domain.Payload{"name": "Voyages"}),
			result: map[string]any{"id": "c3", "name": "Voyages"},
			want:   "Catégorie créée: Voyages.",
		},
		{
			name:   "category deleted",
			plan:   toolPlan(domain.ToolCategoriesDelete, domain.Payload{"category_name": "Voyages"}),
			result: map[string]any{"ok": true},
			want:   "Catégorie supprimée : Voyages.",
		},
		{
			name:   "account deleted",
			plan:   toolPlan(domain.ToolBankAccountsDelete, domain.Payload{"name": "Courant"}),
			result: map[string]any{"ok": true},
			want:   "Compte supprimé: Courant.",
		},
		{
			name:   "default account",
			plan:   toolPlan(domain.ToolBankAccountsSetDefault, domain.Payload{"name": "UBS"}),
			result: map[string]any{"ok": true},
			want:   "Compte par défaut: UBS.",
		},
		{
			name:   "account created",
			plan:   toolPlan(domain.ToolBankAccountsCreate, domain.Payload{"name": "Neon"}),
			result: map[string]any{"id": "acc-3", "name": "Neon"},
			want:   "Compte créé: Neon.",
		},
		{
			name:   "unreadable result",
			plan:   toolPlan(domain.ToolRelevesSum, nil),
			result: "not a map",
			want:   "Voici le total demandé. (résultat indisponible)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, builder.Build(tt.plan, tt.result))
		})
	}
}

func TestBuildProfile(t *testing.T) {
	t.Parallel()

	builder := New("CHF")
	data := map[string]any{"data": map[string]any{"first_name": "Camille", "city": ""}}

	single := builder.Build(toolPlan(domain.ToolProfileGet, domain.Payload{"fields": []any{"first_name"}}), data)
	assert.Equal(t, "Votre prénom est: Camille.", single)

	missing := builder.Build(toolPlan(domain.ToolProfileGet, domain.Payload{"fields": []any{"city"}}), data)
	assert.Equal(t, "Je n’ai pas votre ville (champ vide).", missing)

	several := builder.Build(toolPlan(domain.ToolProfileGet, domain.Payload{"fields": []any{"first_name", "city"}}), data)
	assert.Equal(t, "- Prénom: Camille\n- Ville: (vide)", several)

	updated := builder.Build(toolPlan(domain.ToolProfileUpdate, nil), map[string]any{
		"data": map[string]any{"city": "Lausanne", "canton": nil},
	})
	assert.Equal(t, "Infos mises à jour.\n- Ville: Lausanne\nChamp effacé: canton.", updated)
}

func TestError(t *testing.T) {
	t.Parallel()

	builder := New("CHF")
	tests := []struct {
		name string
		plan domain.ToolCallPlan
		err  *domain.ToolError
		want string
	}{
		{
			name: "bank account suggestions",
			plan: toolPlan(domain.ToolBankAccountsDelete, domain.Payload{"name": "vacnces"}),
			err: domain.NewToolError(domain.ToolErrorNotFound, "not found").
				WithDetails(map[string]any{"name": "vacnces", "close_names": []any{"Compte vacances"}}),
			want: "Je ne trouve pas le compte « vacnces ». Vouliez-vous dire: Compte vacances ?",
		},
		{
			name: "bank account ambiguity",
			plan: toolPlan(domain.ToolBankAccountsDelete, domain.Payload{"name": "UBS"}),
			err: domain.NewToolError(domain.ToolErrorAmbiguous, "ambiguous").
				WithDetails(map[string]any{"candidates": []any{map[string]any{"name": "UBS"}, map[string]any{"name": "UBS Pro"}}}),
			want: "Plusieurs comptes correspondent: UBS, UBS Pro.",
		},
		{
			name: "account name taken",
			plan: toolPlan(domain.ToolBankAccountsCreate, domain.Payload{"name": "UBS"}),
			err:  domain.NewToolError(domain.ToolErrorConflict, "exists"),
			want: "Un compte nommé « UBS » existe déjà. Choisissez un autre nom.",
		},
		{
			name: "account with transactions",
			plan: toolPlan(domain.ToolBankAccountsDelete, domain.Payload{"name": "UBS"}),
			err:  domain.NewToolError(domain.ToolErrorConflict, "has transactions"),
			want: "Impossible de supprimer ce compte car il contient des transactions. Déplacez/supprimez d’abord les transactions ou choisissez un autre compte.",
		},
		{
			name: "category without close names",
			plan: toolPlan(domain.ToolCategoriesDelete, domain.Payload{"category_name": "foo"}),
			err: domain.NewToolError(domain.ToolErrorNotFound, "not found").
				WithDetails(map[string]any{"category_name": "foo", "close_category_names": []any{}}),
			want: "Je ne trouve pas la catégorie « foo ». Souhaitez-vous la créer ?",
		},
		{
			name: "category close names capped at three",
			plan: toolPlan(domain.ToolCategoriesDelete, domain.Payload{"category_name": "Lois"}),
			err: domain.NewToolError(domain.ToolErrorNotFound, "not found").
				WithDetails(map[string]any{"category_name": "Lois", "close_category_names": []any{"Loisir", "Loisirs", "Lotos", "Lots"}}),
			want: "Je ne trouve pas la catégorie « Lois ». Vouliez-vous dire: Loisir, Loisirs, Lotos ?",
		},
		{
			name: "category ambiguity without candidates",
			plan: toolPlan(domain.ToolCategoriesDelete, domain.Payload{"category_name": "L"}),
			err:  domain.NewToolError(domain.ToolErrorAmbiguous, "ambiguous"),
			want: "Plusieurs catégories correspondent. Pouvez-vous préciser ?",
		},
		{
			name: "profile field",
			plan: toolPlan(domain.ToolProfileGet, domain.Payload{"fields": []any{"x"}}),
			err: domain.NewToolError(domain.ToolErrorValidation, "bad field").
				WithDetails(map[string]any{"field": "couleur préférée"}),
			want: "Je n’ai pas compris quelle info du profil vous voulez (prénom, nom, ville, etc.).",
		},
		{
			name: "generic",
			plan: toolPlan(domain.ToolRelevesSum, nil),
			err:  domain.NewToolError(domain.ToolErrorBackend, "database down").WithDetails(map[string]any{"retry": false}),
			want: `Erreur: database down. Détails: {"retry":false}.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, builder.Error(tt.plan, tt.err))
		})
	}
}
