package workflow

import (
	"github.com/gangwaa/NerualAdsV2/internal/adapters/catalog"
	"github.com/gangwaa/NerualAdsV2/internal/core"
)

const (
	parsedAcmeJSON = `{"advertiser": "Acme Corp", "budget": "$250,000", "objective": "conversions",
		"timeline": "6 weeks", "additional_requirements": {"geo": "US"}}`

	audienceJSON = `{"segments": [
		{"name": "sports fans", "scale": 3000000, "cpm": 40, "targeting_criteria": ["Live games"]},
		{"name": "Cat Lovers"},
		{"name": "Sports Fans"},
		{"name": "news enthusiasts"}
	], "recommendations": ["Lean into live sports"]}`

	lineItemsJSON = `{"line_items": [
		{"name": "AcmeCorp_US_Sports", "content": "Sports", "geo": "US", "device": "CTV",
		 "audience": "Sports Fans", "bid_cpm": 40, "daily_cap": 6000, "frequency_cap": "2/day", "budget": 60000},
		{"content": "News", "geo": "Northeast", "frequency_cap": "5 per day", "budget": 40000}
	], "budget_allocation": {"CTV": 0.8, "Mobile": 0.2}}`

	insightsText = `1. Heading that should be dropped
Drama and comedy dominate the viewer base
HBO carries most of the reach
Warner Bros inventory is the anchor
ZIP 10001 outperforms nationally
Extra line beyond the limit`
)

func acmeRecord() *core.AdvertiserRecord {
	return &core.AdvertiserRecord{
		Advertiser: "Acme Corp",
		TotalCount: 1250000,
		Vector: map[string]float64{
			"genre:Drama":            0.42,
			"genre:Comedy":           0.31,
			"genre:Action;Adventure": 0.18,
			"genre:Horror":           0,
			"channel:HBO":            0.27,
			"channel:ESPN":           0.12,
			"network:Warner Bros":    0.33,
			"network:Disney":         0.21,
			"zip:10001":              0.09,
			"zip:90210":              0.07,
			"zip:60601":              0.05,
		},
	}
}

func acmeDB() *catalog.AdvertiserDB {
	return catalog.NewAdvertiserDB(acmeRecord())
}

func acmeParams() *core.CampaignParameters {
	return &core.CampaignParameters{
		Advertiser: "Acme Corp",
		Budget:     100000,
		Objective:  "awareness",
		Timeline:   "30 days",
		Confidence: 0.85,
	}
}

func providerDown() error {
	return core.ErrProvider("test", core.CodeProviderUnavailable, "down")
}
