package grammar

import (
	"testing"
	"time"

	"github.com/bnema/finchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, time.February, 16, 10, 0, 0, 0, time.UTC)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		kind    PeriodKind
		want    domain.DateRange
	}{
		{
			name:    "month and year",
			message: "Dépenses en janvier 2026",
			kind:    PeriodExplicit,
			want:    domain.DateRange{Start: day(2026, time.January, 1), End: day(2026, time.January, 31)},
		},
		{
			name:    "leap february",
			message: "revenus en février 2024",
			kind:    PeriodExplicit,
			want:    domain.DateRange{Start: day(2024, time.February, 1), End: day(2024, time.February, 29)},
		},
		{
			name:    "two months merged",
			message: "chez migros en décembre 2025 et janvier 2026",
			kind:    PeriodExplicit,
			want:    domain.DateRange{Start: day(2025, time.December, 1), End: day(2026, time.January, 31)},
		},
		{
			name:    "yearless month borrows following year",
			message: "novembre puis décembre 2025",
			kind:    PeriodExplicit,
			want:    domain.DateRange{Start: day(2025, time.November, 1), End: day(2025, time.December, 31)},
		},
		{
			name:    "yearless month before a later year rolls back",
			message: "décembre et janvier 2026",
			kind:    PeriodExplicit,
			want:    domain.DateRange{Start: day(2025, time.December, 1), End: day(2026, time.January, 31)},
		},
		{
			name:    "abbreviation with dot",
			message: "dépenses en déc. 2025",
			kind:    PeriodExplicit,
			want:    domain.DateRange{Start: day(2025, time.December, 1), End: day(2025, time.December, 31)},
		},
		{
			name:    "past month of current year",
			message: "dépenses en janvier",
			kind:    PeriodExplicit,
			want:    domain.DateRange{Start: day(2026, time.January, 1), End: day(2026, time.January, 31)},
		},
		{
			name:    "this month",
			message: "dépenses ce mois-ci",
			kind:    PeriodRelative,
			want:    domain.DateRange{Start: day(2026, time.February, 1), End: day(2026, time.February, 28)},
		},
		{
			name:    "last month",
			message: "revenus le mois dernier",
			kind:    PeriodRelative,
			want:    domain.DateRange{Start: day(2026, time.January, 1), End: day(2026, time.January, 31)},
		},
		{
			name:    "last three months",
			message: "dépenses des 3 derniers mois",
			kind:    PeriodRelative,
			want:    domain.DateRange{Start: day(2025, time.November, 1), End: day(2026, time.January, 31)},
		},
		{
			name:    "spelled number is not september",
			message: "dépenses des sept derniers mois",
			kind:    PeriodRelative,
			want:    domain.DateRange{Start: day(2025, time.July, 1), End: day(2026, time.January, 31)},
		},
		{
			name:    "iso range",
			message: "dépenses du 2025-12-03 au 2026-01-10",
			kind:    PeriodExplicit,
			want:    domain.DateRange{Start: day(2025, time.December, 3), End: day(2026, time.January, 10)},
		},
		{
			name:    "year only",
			message: "revenus en 2025",
			kind:    PeriodExplicit,
			want:    domain.DateRange{Start: day(2025, time.January, 1), End: day(2025, time.December, 31)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			period := ParsePeriod(tt.message, today)
			require.Nil(t, period.MissingYear)
			assert.Equal(t, tt.kind, period.Kind)
			assert.True(t, tt.want.Equal(period.Range), "got %s", period.Range)
		})
	}
}

func TestParsePeriodFutureMonthWithoutYearNeedsYear(t *testing.T) {
	t.Parallel()

	period := ParsePeriod("Dépenses en avril", today)

	require.NotNil(t, period.MissingYear)
	assert.Equal(t, time.April, period.MissingYear.Month)
	assert.False(t, period.Found())
}

func TestParsePeriodWithNearestPolicyRollsOverYear(t *testing.T) {
	t.Parallel()

	period := ParsePeriodWith("et en janvier ?", today, NearestPolicy(2025, time.December))
	require.True(t, period.Found())
	assert.True(t, domain.MonthRange(2026, time.January).Equal(period.Range))

	period = ParsePeriodWith("et en avril", today, NearestPolicy(2026, time.March))
	require.True(t, period.Found())
	assert.True(t, domain.MonthRange(2026, time.April).Equal(period.Range))
}

func TestParsePeriodFlagsAmbiguousRelative(t *testing.T) {
	t.Parallel()

	assert.True(t, ParsePeriod("et le mois suivant ?", today).Ambiguous)
	assert.True(t, HasAmbiguousRelative("Même période pour Coop"))
	assert.False(t, HasAmbiguousRelative("le mois dernier"))
}

func TestExtractMerchant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		message    string
		wantName   string
		wantPrefix string
	}{
		{name: "strips month clause", message: "Dépenses chez migros en janvier 2026", wantName: "migros", wantPrefix: "Dépenses"},
		{name: "strips relative clause", message: "Total chez Coop le mois dernier", wantName: "coop", wantPrefix: "Total"},
		{name: "multi word merchant", message: "Et chez Migros Online ?", wantName: "migros online", wantPrefix: "Et"},
		{name: "keyword before chez", message: "Et la pizza chez Migros ?", wantName: "migros", wantPrefix: "Et la pizza"},
		{name: "accent kept", message: "chez Café Riviera depuis janvier", wantName: "café riviera", wantPrefix: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mention, ok := ExtractMerchant(tt.message)
			require.True(t, ok)
			assert.Equal(t, tt.wantName, mention.Name)
			assert.Equal(t, tt.wantPrefix, mention.Prefix)
		})
	}

	_, ok := ExtractMerchant("Dépenses en janvier")
	assert.False(t, ok)
}

func TestIsFollowupMessage(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"Et en janvier ?":                     true,
		"ok":                                  true,
		"Coop":                                true,
		"Et chez Migros ?":                    true,
		"Dépenses totales en janvier 2026":    false,
		"Transactions Migros en janvier 2026": false,
		"Liste mes catégories":                false,
		"":                                    false,
	}

	for message, want := range tests {
		assert.Equal(t, want, IsFollowupMessage(message), message)
	}
}

func TestParseYesNo(t *testing.T) {
	t.Parallel()

	assert.Equal(t, AnswerYes, ParseYesNo("OUI"))
	assert.Equal(t, AnswerYes, ParseYesNo("oui, supprime"))
	assert.Equal(t, AnswerNo, ParseYesNo("Non."))
	assert.Equal(t, AnswerNo, ParseYesNo("annule"))
	assert.Equal(t, AnswerUnknown, ParseYesNo("peut-être"))

	for _, message := range []string{"oui mais supprime plutôt Epargne", "non, garde-la et supprime Voyages", "oui je pense"} {
		assert.Equal(t, AnswerUnknown, ParseYesNo(message), message)
	}
}

func TestMatchKnownCategoryPrefersLongestName(t *testing.T) {
	t.Parallel()

	category, ok := MatchKnownCategory("dépenses transfert interne", []string{"Transfert", "Transfert interne"})
	require.True(t, ok)
	assert.Equal(t, "Transfert interne", category)

	_, ok = MatchKnownCategory("Coop", []string{"Logement", "Alimentation"})
	assert.False(t, ok)
}

func TestLooksLikeNonCategory(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"Salut", "janvier", "2026-01", "décembre 2025", " "} {
		assert.True(t, LooksLikeNonCategory(value), value)
	}
	assert.False(t, LooksLikeNonCategory("Loisir"))
}
