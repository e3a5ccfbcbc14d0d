package subscriptions

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
)

func TestEndDateUsesThirtyDayMonths(t *testing.T) {
	cases := []struct {
		start  string
		months int
		want   string
	}{
		{start: "2024-01-01", months: 6, want: "2024-06-29"},
		{start: "2024-01-01", months: 12, want: "2024-12-26"},
		{start: "2023-12-15", months: 6, want: "2024-06-12"},
	}
	for _, tc := range cases {
		t.Run(tc.start, func(t *testing.T) {
			start, err := time.Parse(DateLayout, tc.start)
			require.NoError(t, err)
			assert.Equal(t, tc.want, EndDate(start, tc.months).Format(DateLayout))
		})
	}
}

func TestParseTerms(t *testing.T) {
	got, err := parseTerms(" Premium ", 12, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionPlanPremium, got.Plan)
	assert.Equal(t, "2025-03-05", got.EndDate.Format(DateLayout))

	for name, tc := range map[string]struct {
		plan   string
		months int
		start  string
	}{
		"empty plan":     {plan: "  ", months: 6, start: "2024-01-01"},
		"long plan":      {plan: strings.Repeat("p", 101), months: 6, start: "2024-01-01"},
		"zero duration":  {plan: "basic", months: 0, start: "2024-01-01"},
		"huge duration":  {plan: "basic", months: 121, start: "2024-01-01"},
		"bad date":       {plan: "basic", months: 6, start: "01/02/2024"},
		"impossible day": {plan: "basic", months: 6, start: "2024-02-30"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseTerms(tc.plan, tc.months, tc.start)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestParseTermsAcceptsAnyPlanAndDuration(t *testing.T) {
	got, err := parseTerms("Gold", 3, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionPlan("Gold"), got.Plan)
	assert.Equal(t, 3, got.DurationMonths)
	assert.Equal(t, "2024-03-31", got.EndDate.Format(DateLayout))
}

func TestDedupe(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, []uuid.UUID{a, b}, dedupe([]uuid.UUID{a, uuid.Nil, b, a}))
	assert.Empty(t, dedupe(nil))
}
