package workflow

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

const (
	lineItemOracleConfidence   = 0.88
	lineItemFallbackConfidence = 0.75
	maxLineItems               = 7
	defaultBidCPM              = 32.0
	defaultDailyCap            = 5000.0
	defaultFrequencyCap        = "3/day"
	defaultGeo                 = "Nationwide"
	defaultDevice              = "CTV"
)

var frequencyCapPattern = regexp.MustCompile(`^\d+/day$`)

type fallbackItem struct {
	suffix, content, geo, device, audience string
	cpm, dailyCap                          float64
	freq                                   string
	share                                  float64
	daypart                                string
}

// fallbackItems shares sum to exactly 1.
var fallbackItems = []fallbackItem{
	{"Midwest_FamilyAnim", "Family Animation", "Midwest", "CTV", "Heavy Binge Watchers", 36, 8000, "3/day", 0.25, "Prime Time"},
	{"South_Sports", "Sports", "South", "CTV", "Sports Fans", 38, 7000, "2/day", 0.20, "Weekend"},
	{"Northwest_News", "News", "Northwest", "Mobile", "News Enthusiasts", 28, 5000, "3/day", 0.15, "Morning"},
	{"Nationwide_Reality", "Reality Shows", "Nationwide", "CTV", "Family Co-Viewers", 32, 6000, "2/day", 0.25, "Prime Time"},
	{"Mobile_Lifestyle", "Lifestyle", "Nationwide", "Mobile", "Light Streamers", 24, 4000, "4/day", 0.15, "All Day"},
}

func defaultAllocation() map[string]float64 {
	return map[string]float64{"CTV": 0.70, "Mobile": 0.25, "Desktop": 0.05}
}

func defaultDeploymentNotes() []string {
	return []string{
		"Line items ready for ad server deployment",
		"Monitor performance and optimize based on completion rates",
	}
}

// namePrefix strips whitespace from the advertiser name.
func namePrefix(advertiser string) string {
	return strings.Join(strings.Fields(advertiser), "")
}

func fallbackStructure(advertiser string, total float64) *core.CampaignStructure {
	prefix := namePrefix(advertiser)
	items := make([]core.LineItem, len(fallbackItems))
	for i, f := range fallbackItems {
		items[i] = core.LineItem{
			Name:         prefix + "_" + f.suffix,
			Content:      f.content,
			Geo:          f.geo,
			Device:       f.device,
			Audience:     f.audience,
			BidCPM:       f.cpm,
			DailyCap:     f.dailyCap,
			FrequencyCap: f.freq,
			Budget:       total * f.share,
			TargetingCriteria: map[string]string{
				"daypart":        f.daypart,
				"content_safety": "Brand Safe",
			},
		}
	}
	return &core.CampaignStructure{
		LineItems:        items,
		TotalBudget:      total,
		BudgetAllocation: defaultAllocation(),
		Confidence:       lineItemFallbackConfidence,
		DeploymentNotes:  defaultDeploymentNotes(),
	}
}

// LineItemBuilder turns the accumulated analysis into executable line items.
type LineItemBuilder struct {
	stageRunner
}

// NewLineItemBuilder creates a LineItemBuilder.
func NewLineItemBuilder(o core.Oracle, logger *logging.Logger, narrate bool) *LineItemBuilder {
	return &LineItemBuilder{stageRunner: newStageRunner(o, logger, narrate)}
}

type lineItemAnswer struct {
	Name              string            `json:"name"`
	Content           string            `json:"content"`
	Geo               string            `json:"geo"`
	Device            string            `json:"device"`
	Audience          string            `json:"audience"`
	BidCPM            float64           `json:"bid_cpm"`
	DailyCap          float64           `json:"daily_cap"`
	FrequencyCap      string            `json:"frequency_cap"`
	Budget            float64           `json:"budget"`
	TargetingCriteria map[string]string `json:"targeting_criteria"`
}

type structureAnswer struct {
	LineItems        []lineItemAnswer   `json:"line_items"`
	BudgetAllocation map[string]float64 `json:"budget_allocation"`
	DeploymentNotes  []string           `json:"deployment_notes"`
}

// Build produces the campaign structure.
func (b *LineItemBuilder) Build(ctx context.Context, params *core.CampaignParameters, prefs *core.AdvertiserPreferences, audience *core.AudienceAnalysis) (*core.CampaignStructure, Outcome, error) {
	const stage = core.StageLineItemGeneration

	segments := make([]string, len(audience.Segments))
	for i, s := range audience.Segments {
		segments[i] = s.Name
	}
	system, err := renderPrompt("line-items", lineItemsPromptParams{
		Advertiser: params.Advertiser,
		NamePrefix: namePrefix(params.Advertiser),
		Budget:     params.Budget,
		Content:    prefs.ContentPreferences,
		Geo:        prefs.GeoPreferences,
		Devices:    orDefault(prefs.DevicePreferences, defaultDevices),
		Segments:   segments,
	})
	if err != nil {
		return nil, Outcome{}, core.ErrStageProcessing(stage, err)
	}

	var ans structureAnswer
	err = b.askJSON(ctx, stage, core.OracleRequest{
		SystemPrompt: system,
		UserPrompt:   "Build line items for " + params.Advertiser,
		Temperature:  0.4,
		MaxTokens:    1200,
	}, &ans)

	var structure *core.CampaignStructure
	degraded := false
	if fatal, recoverable := stageFailure(err); fatal != nil {
		return nil, Outcome{}, fatal
	} else if recoverable {
		structure, degraded = fallbackStructure(params.Advertiser, params.Budget), true
	} else if structure = ans.toStructure(params, prefs, audience); structure == nil {
		b.logger.WithStage(string(stage)).Warn("oracle returned no line items, using fallback")
		structure, degraded = fallbackStructure(params.Advertiser, params.Budget), true
	}

	reasoning, err := b.narration(ctx, stage, "Line items", structureFacts(structure), structureReasoning(params.Advertiser, structure))
	if err != nil {
		return nil, Outcome{}, err
	}
	return structure, Outcome{Reasoning: reasoning, Confidence: structure.Confidence, Degraded: degraded}, nil
}

// toStructure applies field defaults and budget normalisation. It returns
// nil when the answer holds no line items.
func (a structureAnswer) toStructure(params *core.CampaignParameters, prefs *core.AdvertiserPreferences, audience *core.AudienceAnalysis) *core.CampaignStructure {
	raw := head(a.LineItems, maxLineItems)
	if len(raw) == 0 {
		return nil
	}

	even := params.Budget / float64(len(raw))
	items := make([]core.LineItem, len(raw))
	for i, r := range raw {
		li := core.LineItem{
			Name:              strings.TrimSpace(r.Name),
			Content:           firstNonEmpty(r.Content, firstOr(prefs.ContentPreferences, "General Entertainment")),
			Geo:               firstNonEmpty(r.Geo, defaultGeo),
			Device:            firstNonEmpty(r.Device, defaultDevice),
			Audience:          firstNonEmpty(r.Audience, audience.Segments[i%len(audience.Segments)].Name),
			BidCPM:            r.BidCPM,
			DailyCap:          r.DailyCap,
			FrequencyCap:      strings.ReplaceAll(strings.TrimSpace(r.FrequencyCap), " ", ""),
			Budget:            r.Budget,
			TargetingCriteria: r.TargetingCriteria,
		}
		if li.Name == "" {
			li.Name = strings.Join([]string{
				namePrefix(params.Advertiser),
				namePrefix(li.Geo),
				namePrefix(li.Content),
			}, "_")
		}
		if li.BidCPM <= 0 {
			li.BidCPM = defaultBidCPM
		}
		if li.DailyCap <= 0 {
			li.DailyCap = defaultDailyCap
		}
		if !frequencyCapPattern.MatchString(li.FrequencyCap) {
			li.FrequencyCap = defaultFrequencyCap
		}
		if li.Budget <= 0 {
			li.Budget = even
		}
		if li.TargetingCriteria == nil {
			li.TargetingCriteria = map[string]string{}
		}
		if li.TargetingCriteria["content_safety"] == "" {
			li.TargetingCriteria["content_safety"] = "Brand Safe"
		}
		items[i] = li
	}

	structure := &core.CampaignStructure{
		LineItems:        items,
		TotalBudget:      params.Budget,
		BudgetAllocation: a.BudgetAllocation,
		Confidence:       lineItemOracleConfidence,
		DeploymentNotes:  orDefault(a.DeploymentNotes, defaultDeploymentNotes()),
	}
	if len(structure.BudgetAllocation) == 0 {
		structure.BudgetAllocation = defaultAllocation()
	}
	structure.BudgetNormalized = NormalizeBudgets(structure.LineItems, params.Budget)
	return structure
}

// NormalizeBudgets scales item budgets proportionally so they sum to total.
// Amounts are rounded to cents and the rounding remainder lands on the
// largest item. It reports whether any budget changed.
func NormalizeBudgets(items []core.LineItem, total float64) bool {
	if len(items) == 0 {
		return false
	}
	var sum float64
	for _, li := range items {
		sum += li.Budget
	}
	if math.Abs(sum-total) < 0.005 {
		return false
	}

	if sum <= 0 {
		for i := range items {
			items[i].Budget = total / float64(len(items))
		}
	} else {
		scale := total / sum
		for i := range items {
			items[i].Budget = roundCents(items[i].Budget * scale)
		}
	}

	largest := 0
	var allocated float64
	for i, li := range items {
		allocated += li.Budget
		if li.Budget > items[largest].Budget {
			largest = i
		}
	}
	items[largest].Budget = roundCents(items[largest].Budget + total - allocated)
	return true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
