package confidence

import (
	"testing"
	"time"

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

func newTestScorer() *Scorer {
	return New(fixedClock{now: time.Date(2026, time.February, 16, 9, 30, 0, 0, time.UTC)})
}

func month(year int, m time.Month) map[string]any {
	return domain.MonthRange(year, m).ToMap()
}

func sumPlan(payload domain.Payload, meta domain.Meta) domain.ToolCallPlan {
	return domain.ToolCallPlan{
		ToolName:      domain.ToolRelevesSum,
		Payload:       payload,
		UserReplyHint: "OK.",
		Meta:          meta,
	}
}

func decemberMemory() *domain.QueryMemory {
	dateRange := domain.MonthRange(2025, time.December)
	return &domain.QueryMemory{DateRange: &dateRange, LastToolName: domain.ToolRelevesSum}
}

func TestScore(t *testing.T) {
	t.Parallel()

	januaryMemory := decemberMemory()
	january := domain.MonthRange(2026, time.January)
	januaryMemory.DateRange = &january

	tests := []struct {
		name       string
		message    string
		plan       domain.ToolCallPlan
		memory     *domain.QueryMemory
		want       domain.Confidence
		wantReason string
	}{
		{
			name:       "short follow-up without context",
			message:    "ok",
			plan:       sumPlan(domain.Payload{domain.KeyDirection: domain.DirectionDebitOnly, domain.KeyDateRange: month(2026, time.January)}, domain.Meta{}),
			want:       domain.ConfidenceLow,
			wantReason: ReasonPeriodMissingInMessage,
		},
		{
			name:    "period injected from memory",
			message: "et en logement",
			plan: sumPlan(
				domain.Payload{domain.KeyDirection: domain.DirectionDebitOnly, domain.KeyDateRange: month(2025, time.December)},
				domain.Meta{FollowupFromMemory: true, MemoryReason: domain.MemoryReasonPeriod},
			),
			memory:     decemberMemory(),
			want:       domain.ConfidenceLow,
			wantReason: ReasonPeriodInjectedFromMemory,
		},
		{
			name:    "category inferred",
			message: "Quel est le total des dépenses en janvier 2026 ?",
			plan: sumPlan(domain.Payload{
				domain.KeyDirection: domain.DirectionDebitOnly,
				domain.KeyCategory:  "Loisir",
				domain.KeyDateRange: month(2026, time.January),
			}, domain.Meta{}),
			want:       domain.ConfidenceMedium,
			wantReason: ReasonCategoryInferred,
		},
		{
			name:    "follow-up with memory stays medium",
			message: "Ok et en logement ?",
			plan: sumPlan(domain.Payload{
				domain.KeyDirection: domain.DirectionDebitOnly,
				domain.KeyCategory:  "logement",
				domain.KeyDateRange: month(2026, time.January),
			}, domain.Meta{FollowupFromMemory: true}),
			memory:     januaryMemory,
			want:       domain.ConfidenceMedium,
			wantReason: ReasonPeriodMissingInMessage,
		},
		{
			name:    "merchant conflict",
			message: "Et chez Migros Online ?",
			plan: sumPlan(domain.Payload{
				domain.KeyDirection: domain.DirectionDebitOnly,
				domain.KeyMerchant:  "coop",
				domain.KeyDateRange: month(2026, time.January),
			}, domain.Meta{FollowupFromMemory: true}),
			memory:     januaryMemory,
			want:       domain.ConfidenceLow,
			wantReason: ReasonMerchantConflict,
		},
		{
			name:    "period conflict",
			message: "et en janvier 2026",
			plan: sumPlan(
				domain.Payload{domain.KeyDirection: domain.DirectionDebitOnly, domain.KeyDateRange: month(2025, time.December)},
				domain.Meta{FollowupFromMemory: true},
			),
			memory:     decemberMemory(),
			want:       domain.ConfidenceLow,
			wantReason: ReasonPeriodConflict,
		},
		{
			name:    "category conflict",
			message: "Dépenses catégorie Loisir en janvier 2026",
			plan: sumPlan(domain.Payload{
				domain.KeyDirection: domain.DirectionDebitOnly,
				domain.KeyCategory:  "Logement",
				domain.KeyDateRange: month(2026, time.January),
			}, domain.Meta{}),
			want:       domain.ConfidenceLow,
			wantReason: ReasonCategoryConflict,
		},
		{
			name:    "ambiguous relative phrase",
			message: "Dépenses chez Coop le mois suivant",
			plan: sumPlan(domain.Payload{
				domain.KeyDirection: domain.DirectionDebitOnly,
				domain.KeyMerchant:  "coop",
			}, domain.Meta{}),
			want:       domain.ConfidenceLow,
			wantReason: ReasonAmbiguousRelativePeriod,
		},
	}

	scorer := newTestScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scored := scorer.Score(tt.message, tt.plan, tt.memory)

			meta := domain.MetaOf(scored)
			assert.Equal(t, tt.want, meta.Confidence)
			assert.Contains(t, meta.ConfidenceReasons, tt.wantReason)
		})
	}
}

func TestScoreExplicitMessageIsHigh(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		message string
		payload domain.Payload
	}{
		"merchant and month": {
			message: "Quel est le total des dépenses chez Coop en janvier 2026 ?",
			payload: domain.Payload{
				domain.KeyDirection: domain.DirectionDebitOnly,
				domain.KeyMerchant:  "Coop",
				domain.KeyDateRange: month(2026, time.January),
			},
		},
		"two months with a merchant": {
			message: "Dépenses chez migros en décembre 2025 et janvier 2026",
			payload: domain.Payload{
				domain.KeyDirection: domain.DirectionDebitOnly,
				domain.KeyMerchant:  "migros",
				domain.KeyDateRange: domain.Merge(domain.MonthRange(2025, time.December), domain.MonthRange(2026, time.January)).ToMap(),
			},
		},
	}

	scorer := newTestScorer()
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			meta := domain.MetaOf(scorer.Score(tt.message, sumPlan(tt.payload, domain.Meta{}), nil))

			assert.Equal(t, domain.ConfidenceHigh, meta.Confidence)
			assert.Equal(t, []string{ReasonExplicitIntent, ReasonExplicitPeriod, ReasonExplicitFilter}, meta.ConfidenceReasons)
		})
	}
}

func TestScoreLeavesPayloadAndOtherPlansAlone(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer()
	payload := domain.Payload{domain.KeyDirection: domain.DirectionDebitOnly, domain.KeyCategory: "Loisir"}
	plan := sumPlan(payload, domain.Meta{})

	scored, ok := scorer.Score("ok", plan, nil).(domain.ToolCallPlan)
	require.True(t, ok)
	assert.Equal(t, payload, scored.Payload)
	assert.Empty(t, plan.Meta.Confidence)

	write := domain.ToolCallPlan{ToolName: domain.ToolCategoriesCreate, Payload: domain.Payload{domain.KeyName: "Voyages"}}
	assert.Equal(t, write, scorer.Score("Crée la catégorie Voyages", write, nil))

	noop := domain.NoopPlan{Reply: "pong"}
	assert.Equal(t, noop, scorer.Score("ping", noop, nil))
}
