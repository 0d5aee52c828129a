package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/testutil"
)

func buildInputs() (*core.CampaignParameters, *core.AdvertiserPreferences, *core.AudienceAnalysis) {
	prefs := genericProfile("Acme Corp")
	prefs.ContentPreferences = []string{"Drama", "Comedy"}
	return acmeParams(), prefs, fallbackAudience()
}

func TestLineItemBuilder_Fallback(t *testing.T) {
	params, prefs, audience := buildInputs()
	o := testutil.NewFailingOracle(providerDown())

	s, out, err := NewLineItemBuilder(o, nil, false).Build(context.Background(), params, prefs, audience)
	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.Equal(t, 0.75, out.Confidence)

	shares := []float64{0.25, 0.20, 0.15, 0.25, 0.15}
	require.Len(t, s.LineItems, len(shares))
	var shareSum float64
	for i, li := range s.LineItems {
		assert.Equal(t, params.Budget*shares[i], li.Budget, li.Name)
		shareSum += shares[i]
	}
	assert.InDelta(t, 1.0, shareSum, 1e-9)
	assert.InDelta(t, params.Budget, s.AllocatedBudget(), 1e-6)
	assert.False(t, s.BudgetNormalized)

	assert.Equal(t, "AcmeCorp_Midwest_FamilyAnim", s.LineItems[0].Name)
	assert.Equal(t, "Brand Safe", s.LineItems[0].TargetingCriteria["content_safety"])
	assert.Equal(t, map[string]float64{"CTV": 0.70, "Mobile": 0.25, "Desktop": 0.05}, s.BudgetAllocation)
	assert.Equal(t, []string{
		"Line items ready for ad server deployment",
		"Monitor performance and optimize based on completion rates",
	}, s.DeploymentNotes)
	assert.Contains(t, out.Reasoning, "Total campaign budget: $100,000 across 5 line items.")
}

func TestLineItemBuilder_OracleItems(t *testing.T) {
	params, prefs, audience := buildInputs()
	o := testutil.NewScriptedOracle("test").RespondJSON(lineItemsJSON)

	s, out, err := NewLineItemBuilder(o, nil, false).Build(context.Background(), params, prefs, audience)
	require.NoError(t, err)
	assert.False(t, out.Degraded)
	assert.Equal(t, 0.88, out.Confidence)
	require.Len(t, s.LineItems, 2)

	first, second := s.LineItems[0], s.LineItems[1]
	assert.Equal(t, "AcmeCorp_US_Sports", first.Name)
	assert.Equal(t, "2/day", first.FrequencyCap)
	assert.Equal(t, 60000.0, first.Budget)

	assert.Equal(t, "AcmeCorp_Northeast_News", second.Name)
	assert.Equal(t, "CTV", second.Device)
	assert.Equal(t, 32.0, second.BidCPM)
	assert.Equal(t, 5000.0, second.DailyCap)
	assert.Equal(t, "3/day", second.FrequencyCap)
	assert.Equal(t, audience.Segments[1].Name, second.Audience)
	assert.Equal(t, "Brand Safe", second.TargetingCriteria["content_safety"])

	assert.False(t, s.BudgetNormalized)
	assert.Equal(t, map[string]float64{"CTV": 0.8, "Mobile": 0.2}, s.BudgetAllocation)
	assert.Len(t, s.DeploymentNotes, 2)

	calls := o.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 0.4, calls[0].Temperature)
	assert.Equal(t, 1200, calls[0].MaxTokens)
	assert.Contains(t, calls[0].SystemPrompt, "AcmeCorp_Midwest_FamilyAnim")
}

func TestLineItemBuilder_NormalisesBudgets(t *testing.T) {
	params, prefs, audience := buildInputs()
	o := testutil.NewScriptedOracle("test").RespondJSON(`{"line_items": [
		{"content": "Drama", "budget": 60000},
		{"content": "Comedy"}
	]}`)

	s, _, err := NewLineItemBuilder(o, nil, false).Build(context.Background(), params, prefs, audience)
	require.NoError(t, err)
	require.Len(t, s.LineItems, 2)
	assert.True(t, s.BudgetNormalized)
	assert.InDelta(t, 100000, s.AllocatedBudget(), 1e-6)
	assert.Equal(t, 54545.45, s.LineItems[0].Budget)
	assert.Equal(t, 45454.55, s.LineItems[1].Budget)
	assert.Equal(t, "AcmeCorp_Nationwide_Drama", s.LineItems[0].Name)
}

func TestLineItemBuilder_CapsItems(t *testing.T) {
	params, prefs, audience := buildInputs()
	o := testutil.NewScriptedOracle("test").RespondJSON(`{"line_items": [
		{"budget": 10000}, {"budget": 10000}, {"budget": 10000}, {"budget": 10000}, {"budget": 10000},
		{"budget": 10000}, {"budget": 10000}, {"budget": 10000}, {"budget": 10000}
	]}`)

	s, _, err := NewLineItemBuilder(o, nil, false).Build(context.Background(), params, prefs, audience)
	require.NoError(t, err)
	assert.Len(t, s.LineItems, 7)
	assert.True(t, s.BudgetNormalized)
	assert.InDelta(t, 100000, s.AllocatedBudget(), 1e-6)
}

func TestLineItemBuilder_EmptyAnswerFallsBack(t *testing.T) {
	params, prefs, audience := buildInputs()
	o := testutil.NewScriptedOracle("test").RespondJSON(`{"line_items": []}`)
	s, out, err := NewLineItemBuilder(o, nil, false).Build(context.Background(), params, prefs, audience)
	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.Len(t, s.LineItems, 5)
}

func TestNormalizeBudgets(t *testing.T) {
	t.Run("already exact", func(t *testing.T) {
		items := []core.LineItem{{Budget: 40}, {Budget: 60}}
		assert.False(t, NormalizeBudgets(items, 100))
		assert.Equal(t, 40.0, items[0].Budget)
	})

	t.Run("remainder on largest", func(t *testing.T) {
		items := []core.LineItem{{Budget: 33.33}, {Budget: 33.33}, {Budget: 33.33}}
		assert.True(t, NormalizeBudgets(items, 100))
		assert.Equal(t, 33.34, items[0].Budget)
		assert.Equal(t, 33.33, items[1].Budget)
		assert.InDelta(t, 100, items[0].Budget+items[1].Budget+items[2].Budget, 1e-9)
	})

	t.Run("all zero", func(t *testing.T) {
		items := []core.LineItem{{}, {}, {}}
		assert.True(t, NormalizeBudgets(items, 90))
		for _, li := range items {
			assert.Equal(t, 30.0, li.Budget)
		}
	})

	t.Run("empty", func(t *testing.T) {
		assert.False(t, NormalizeBudgets(nil, 100))
	})
}
