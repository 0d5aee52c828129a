package workflow

import (
	"context"
	"math"
	"strings"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

const (
	audienceOracleConfidence   = 0.82
	audienceFallbackConfidence = 0.70
	maxSegments                = 6
	defaultSegmentCPM          = 32.0
	defaultSegmentScale        = 2_000_000
	// addressableHouseholds is the CTV universe reach percentages are taken against.
	addressableHouseholds = 20_000_000
)

// Taxonomy lists the ACR segment types the generator may emit, with the
// description used when the oracle leaves one out.
var Taxonomy = []struct {
	Name        string
	Description string
}{
	{"Heavy Binge Watchers", "Viewers who stream 4+ hours daily with high engagement"},
	{"Light Streamers", "Viewers who stream under an hour a day, mostly on demand"},
	{"News Enthusiasts", "Regular consumers of news and current events content"},
	{"Sports Fans", "Engaged sports content viewers across multiple sports"},
	{"Family Co-Viewers", "Households with shared viewing experiences"},
	{"Occasional Viewers", "Infrequent viewers reached through tentpole programming"},
}

// TaxonomyNames returns the segment type names in canonical order.
func TaxonomyNames() []string {
	out := make([]string, len(Taxonomy))
	for i, t := range Taxonomy {
		out[i] = t.Name
	}
	return out
}

func canonicalSegment(name string) (string, string, bool) {
	name = strings.TrimSpace(name)
	for _, t := range Taxonomy {
		if strings.EqualFold(t.Name, name) {
			return t.Name, t.Description, true
		}
	}
	return "", "", false
}

func fallbackAudience() *core.AudienceAnalysis {
	return &core.AudienceAnalysis{
		Segments: []core.AudienceSegment{
			{Name: "Heavy Binge Watchers", Description: "Viewers who stream 4+ hours daily with high engagement",
				Scale: 2_800_000, CPM: 36, Reach: 14.2,
				TargetingCriteria: []string{"High viewing frequency", "Premium content affinity"}},
			{Name: "News Enthusiasts", Description: "Regular consumers of news and current events content",
				Scale: 1_900_000, CPM: 32, Reach: 9.8,
				TargetingCriteria: []string{"News content viewing", "Morning/evening dayparts"}},
			{Name: "Sports Fans", Description: "Engaged sports content viewers across multiple sports",
				Scale: 3_200_000, CPM: 38, Reach: 16.1,
				TargetingCriteria: []string{"Sports content affinity", "Weekend viewing"}},
			{Name: "Family Co-Viewers", Description: "Households with shared viewing experiences",
				Scale: 2_100_000, CPM: 30, Reach: 10.7,
				TargetingCriteria: []string{"Family content", "Prime time viewing"}},
		},
		PricingInsights: defaultPricingInsights(),
		YieldSignals:    defaultYieldSignals(),
		Confidence:      audienceFallbackConfidence,
		Recommendations: defaultRecommendations(),
	}
}

func defaultPricingInsights() map[string]any {
	return map[string]any{
		"content_premiums":   map[string]any{"Sports": 1.25, "News": 1.15, "Animation": 1.1},
		"device_multipliers": map[string]any{"CTV": 1.0, "Mobile": 0.85, "Desktop": 0.75},
	}
}

func defaultYieldSignals() map[string]float64 {
	return map[string]float64{"inventory_pressure": 0.75, "seasonal_adjustment": 1.05}
}

func defaultRecommendations() []string {
	return []string{
		"Focus on CTV inventory for premium brand environment",
		"Target evening dayparts for optimal completion rates",
	}
}

// AudienceGenerator produces ACR audience segments and pricing signals.
type AudienceGenerator struct {
	stageRunner
}

// NewAudienceGenerator creates an AudienceGenerator.
func NewAudienceGenerator(o core.Oracle, logger *logging.Logger, narrate bool) *AudienceGenerator {
	return &AudienceGenerator{stageRunner: newStageRunner(o, logger, narrate)}
}

type segmentAnswer struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Scale             float64  `json:"scale"`
	CPM               float64  `json:"cpm"`
	Reach             float64  `json:"reach"`
	TargetingCriteria []string `json:"targeting_criteria"`
}

type audienceAnswer struct {
	Segments        []segmentAnswer    `json:"segments"`
	PricingInsights map[string]any     `json:"pricing_insights"`
	YieldSignals    map[string]float64 `json:"yield_signals"`
	Recommendations []string           `json:"recommendations"`
}

// Generate builds the audience analysis for the campaign.
func (g *AudienceGenerator) Generate(ctx context.Context, params *core.CampaignParameters, prefs *core.AdvertiserPreferences) (*core.AudienceAnalysis, Outcome, error) {
	const stage = core.StageAudienceGeneration

	system, err := renderPrompt("audience-segments", audiencePromptParams{
		Advertiser: params.Advertiser,
		Budget:     params.Budget,
		Content:    prefs.ContentPreferences,
		Networks:   prefs.NetworkPreferences,
		Geo:        prefs.GeoPreferences,
		Taxonomy:   TaxonomyNames(),
	})
	if err != nil {
		return nil, Outcome{}, core.ErrStageProcessing(stage, err)
	}

	var ans audienceAnswer
	err = g.askJSON(ctx, stage, core.OracleRequest{
		SystemPrompt: system,
		UserPrompt:   "Generate ACR segments for " + params.Advertiser + " campaign",
		Temperature:  0.5,
		MaxTokens:    1000,
	}, &ans)

	var analysis *core.AudienceAnalysis
	degraded := false
	if fatal, recoverable := stageFailure(err); fatal != nil {
		return nil, Outcome{}, fatal
	} else if recoverable {
		analysis, degraded = fallbackAudience(), true
	} else if analysis = ans.toAnalysis(); analysis == nil {
		g.logger.WithStage(string(stage)).Warn("oracle returned no known segments, using fallback")
		analysis, degraded = fallbackAudience(), true
	}

	reasoning, err := g.narration(ctx, stage, "Audience segments", audienceFacts(analysis), audienceReasoning(params.Advertiser, analysis))
	if err != nil {
		return nil, Outcome{}, err
	}
	return analysis, Outcome{Reasoning: reasoning, Confidence: analysis.Confidence, Degraded: degraded}, nil
}

// toAnalysis canonicalises segments onto the taxonomy and fills defaults.
// It returns nil when no usable segment remains.
func (a audienceAnswer) toAnalysis() *core.AudienceAnalysis {
	seen := make(map[string]bool)
	var segments []core.AudienceSegment
	for _, s := range a.Segments {
		name, desc, ok := canonicalSegment(s.Name)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true

		seg := core.AudienceSegment{
			Name:              name,
			Description:       strings.TrimSpace(s.Description),
			Scale:             int64(s.Scale),
			CPM:               s.CPM,
			Reach:             s.Reach,
			TargetingCriteria: s.TargetingCriteria,
		}
		if seg.Description == "" {
			seg.Description = desc
		}
		if seg.Scale <= 0 {
			seg.Scale = defaultSegmentScale
		}
		if seg.CPM <= 0 {
			seg.CPM = defaultSegmentCPM
		}
		if seg.Reach <= 0 {
			seg.Reach = math.Round(float64(seg.Scale)/addressableHouseholds*1000) / 10
		}
		if seg.TargetingCriteria == nil {
			seg.TargetingCriteria = []string{}
		}
		segments = append(segments, seg)
		if len(segments) == maxSegments {
			break
		}
	}
	if len(segments) == 0 {
		return nil
	}

	analysis := &core.AudienceAnalysis{
		Segments:        segments,
		PricingInsights: a.PricingInsights,
		YieldSignals:    a.YieldSignals,
		Confidence:      audienceOracleConfidence,
		Recommendations: orDefault(a.Recommendations, defaultRecommendations()),
	}
	if len(analysis.PricingInsights) == 0 {
		analysis.PricingInsights = defaultPricingInsights()
	}
	if len(analysis.YieldSignals) == 0 {
		analysis.YieldSignals = defaultYieldSignals()
	}
	return analysis
}
