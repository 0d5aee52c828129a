package workflow

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

const (
	historicalConfidence = 0.92
	profileConfidence    = 0.80
	genericConfidence    = 0.65

	topGenres   = 6
	topChannels = 8
	topNetworks = 5
	topZips     = 5
	maxInsights = 4
	minInsights = 3
)

var (
	defaultDevices  = []string{"CTV", "Mobile"}
	defaultCPMRange = core.CPMRange{Min: 28, Max: 45}

	genericPreferences = core.AdvertiserPreferences{
		PreferredTargeting: []string{"Adults 25-54", "Household Income $50K+", "Urban/Suburban"},
		ContentPreferences: []string{"Reality TV", "Entertainment", "News", "Sports"},
		ChannelPreferences: []string{"Multi-channel approach", "Premium networks", "Broad reach strategy"},
		NetworkPreferences: []string{"Cross-network strategy", "Premium content focus"},
		GeoPreferences:     []string{"Nationwide targeting", "Top DMAs"},
		Insights: []string{
			"No historical data available - using industry benchmarks",
			"Consider test campaigns across multiple networks for data collection",
			"Monitor performance to identify optimal content partnerships",
			"Geographic testing recommended to identify high-performing markets",
		},
	}
)

// PreferenceAnalyzer derives targeting preferences from the advertiser's
// historical record, or from the oracle when no record exists.
type PreferenceAnalyzer struct {
	stageRunner
	advertisers core.AdvertiserLookup
}

// NewPreferenceAnalyzer creates a PreferenceAnalyzer. advertisers may be nil.
func NewPreferenceAnalyzer(o core.Oracle, advertisers core.AdvertiserLookup, logger *logging.Logger, narrate bool) *PreferenceAnalyzer {
	return &PreferenceAnalyzer{stageRunner: newStageRunner(o, logger, narrate), advertisers: advertisers}
}

// Analyze produces AdvertiserPreferences for the parsed campaign.
func (a *PreferenceAnalyzer) Analyze(ctx context.Context, params *core.CampaignParameters) (*core.AdvertiserPreferences, Outcome, error) {
	const stage = core.StagePreferenceAnalysis

	var (
		prefs    *core.AdvertiserPreferences
		degraded bool
		err      error
	)
	if rec, ok := a.lookup(params.Advertiser); ok {
		prefs, degraded, err = a.fromRecord(ctx, params, rec)
	} else {
		prefs, degraded, err = a.fromOracle(ctx, params)
	}
	if err != nil {
		return nil, Outcome{}, err
	}

	reasoning, err := a.narration(ctx, stage, "Historical preferences", preferenceFacts(prefs), preferencesReasoning(prefs))
	if err != nil {
		return nil, Outcome{}, err
	}
	return prefs, Outcome{Reasoning: reasoning, Confidence: prefs.Confidence, Degraded: degraded}, nil
}

func (a *PreferenceAnalyzer) lookup(name string) (*core.AdvertiserRecord, bool) {
	if a.advertisers == nil {
		return nil, false
	}
	return a.advertisers.Lookup(name)
}

func (a *PreferenceAnalyzer) fromRecord(ctx context.Context, params *core.CampaignParameters, rec *core.AdvertiserRecord) (*core.AdvertiserPreferences, bool, error) {
	genres := rankFeatures(rec.Vector, "genre", topGenres)
	channels := rankFeatures(rec.Vector, "channel", topChannels)
	networks := rankFeatures(rec.Vector, "network", topNetworks)
	zips := rankFeatures(rec.Vector, "zip", topZips)

	prefs := &core.AdvertiserPreferences{
		Advertiser: params.Advertiser,
		PreferredTargeting: []string{
			fmt.Sprintf("Historical TV viewer base: %s impressions", humanize.Comma(rec.TotalCount)),
			"Strongest content affinity: " + firstOr(labels(genres), "Mixed content"),
			"Primary network concentration: " + firstOr(labels(networks), "Multi-network"),
		},
		ContentPreferences: orDefault(labels(genres), []string{"Mixed Content", "Reality TV", "Entertainment"}),
		ChannelPreferences: orDefault(labels(channels), []string{"Multi-channel approach"}),
		NetworkPreferences: orDefault(labels(networks), []string{"Cross-network strategy"}),
		GeoPreferences:     geoInsights(labels(zips)),
		DevicePreferences:  append([]string(nil), defaultDevices...),
		CPMRange:           &core.CPMRange{Min: defaultCPMRange.Min, Max: defaultCPMRange.Max},
		Performance:        engagement(genres),
		Confidence:         historicalConfidence,
		Source:             core.PreferenceSourceHistorical,
	}

	insights, degraded, err := a.insights(ctx, params, labels(genres), labels(channels), labels(networks), labels(zips))
	if err != nil {
		return nil, false, err
	}
	prefs.Insights = insights
	return prefs, degraded, nil
}

// insights asks the oracle for free-text insights. Numbered lines are
// dropped; fewer than three usable lines means the data-derived insights
// are used instead.
func (a *PreferenceAnalyzer) insights(ctx context.Context, params *core.CampaignParameters, genres, channels, networks, zips []string) ([]string, bool, error) {
	const stage = core.StagePreferenceAnalysis
	fallback := fallbackInsights(genres, channels, networks, head(zips, 3))

	system, err := renderPrompt("preference-insights", insightsPromptParams{
		Advertiser: params.Advertiser,
		Objective:  params.Objective,
		Genres:     genres,
		Channels:   channels,
		Networks:   networks,
		Zips:       head(zips, 3),
	})
	if err != nil {
		return nil, false, core.ErrStageProcessing(stage, err)
	}

	text, err := a.complete(ctx, stage, core.OracleRequest{
		SystemPrompt: system,
		UserPrompt:   "Provide targeting insights for " + params.Advertiser + " based on historical viewing patterns",
		Temperature:  0.3,
		MaxTokens:    300,
	})
	if fatal, recoverable := stageFailure(err); fatal != nil {
		return nil, false, fatal
	} else if recoverable {
		return fallback, true, nil
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || hasNumberedPrefix(line) {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) < minInsights {
		return fallback, false, nil
	}
	return head(lines, maxInsights), false, nil
}

type profileAnswer struct {
	PreferredTargeting []string       `json:"preferred_targeting"`
	ContentPreferences []string       `json:"content_preferences"`
	ChannelPreferences []string       `json:"channel_preferences"`
	NetworkPreferences []string       `json:"network_preferences"`
	GeoPreferences     []string       `json:"geo_preferences"`
	DevicePreferences  []string       `json:"device_preferences"`
	CPMRange           *core.CPMRange `json:"cpm_range"`
	Insights           []string       `json:"insights"`
}

func (a *PreferenceAnalyzer) fromOracle(ctx context.Context, params *core.CampaignParameters) (*core.AdvertiserPreferences, bool, error) {
	const stage = core.StagePreferenceAnalysis

	system, err := renderPrompt("preference-profile", profilePromptParams{
		Advertiser: params.Advertiser,
		Objective:  params.Objective,
	})
	if err != nil {
		return nil, false, core.ErrStageProcessing(stage, err)
	}

	var ans profileAnswer
	err = a.askJSON(ctx, stage, core.OracleRequest{
		SystemPrompt: system,
		UserPrompt:   "Estimate targeting preferences for " + params.Advertiser,
		Temperature:  0.3,
		MaxTokens:    500,
	}, &ans)
	if fatal, recoverable := stageFailure(err); fatal != nil {
		return nil, false, fatal
	} else if recoverable {
		return genericProfile(params.Advertiser), true, nil
	}

	g := genericPreferences
	prefs := &core.AdvertiserPreferences{
		Advertiser:         params.Advertiser,
		PreferredTargeting: orDefault(ans.PreferredTargeting, g.PreferredTargeting),
		ContentPreferences: orDefault(ans.ContentPreferences, g.ContentPreferences),
		ChannelPreferences: orDefault(ans.ChannelPreferences, g.ChannelPreferences),
		NetworkPreferences: orDefault(ans.NetworkPreferences, g.NetworkPreferences),
		GeoPreferences:     orDefault(ans.GeoPreferences, g.GeoPreferences),
		DevicePreferences:  orDefault(ans.DevicePreferences, defaultDevices),
		CPMRange:           &core.CPMRange{Min: defaultCPMRange.Min, Max: defaultCPMRange.Max},
		Insights:           orDefault(head(ans.Insights, maxInsights), g.Insights),
		Confidence:         profileConfidence,
		Source:             core.PreferenceSourceOracle,
	}
	if r := ans.CPMRange; r != nil && r.Min > 0 && r.Max >= r.Min {
		prefs.CPMRange = &core.CPMRange{Min: r.Min, Max: r.Max}
	}
	return prefs, false, nil
}

func genericProfile(advertiser string) *core.AdvertiserPreferences {
	p := genericPreferences.Clone()
	p.Advertiser = advertiser
	p.DevicePreferences = append([]string(nil), defaultDevices...)
	p.CPMRange = &core.CPMRange{Min: defaultCPMRange.Min, Max: defaultCPMRange.Max}
	p.Confidence = genericConfidence
	p.Source = core.PreferenceSourceFallback
	return p
}

// feature is one ranked entry of an advertiser vector.
type feature struct {
	Label  string
	Weight float64
}

// rankFeatures returns the top n positive-weight features with the given
// prefix, heaviest first. Ties are broken by label so output is stable.
func rankFeatures(vector map[string]float64, prefix string, n int) []feature {
	var out []feature
	for key, w := range vector {
		kind, name, ok := strings.Cut(key, ":")
		if !ok || kind != prefix || w <= 0 {
			continue
		}
		out = append(out, feature{Label: strings.ReplaceAll(name, ";", " + "), Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Label < out[j].Label
	})
	return head(out, n)
}

func labels(fs []feature) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Label
	}
	return out
}

// engagement expresses feature weights as percentages with one decimal.
func engagement(fs []feature) map[string]float64 {
	if len(fs) == 0 {
		return nil
	}
	out := make(map[string]float64, len(fs))
	for _, f := range fs {
		out[f.Label] = math.Round(f.Weight*1000) / 10
	}
	return out
}

func geoInsights(zips []string) []string {
	if len(zips) == 0 {
		return []string{"Nationwide targeting recommended"}
	}
	out := []string{"Strong performance in ZIP codes: " + strings.Join(head(zips, 3), ", ")}
	if len(zips) >= 3 {
		out = append(out, fmt.Sprintf("Geographic concentration in %d key markets", len(zips)))
	}
	return out
}

func fallbackInsights(genres, channels, networks, zips []string) []string {
	var out []string
	if len(genres) > 0 {
		out = append(out, fmt.Sprintf("Strong %s content affinity suggests targeting similar programming blocks", genres[0]))
	}
	switch {
	case len(networks) >= 2:
		out = append(out, fmt.Sprintf("Multi-network strategy recommended: focus on %s and %s", networks[0], networks[1]))
	case len(networks) == 1:
		out = append(out, fmt.Sprintf("High concentration on %s network - consider expansion opportunities", networks[0]))
	}
	if len(channels) >= 3 {
		out = append(out, fmt.Sprintf("Diverse channel portfolio with %s, %s, %s showing strong engagement", channels[0], channels[1], channels[2]))
	}
	if len(zips) > 0 {
		out = append(out, "Geographic targeting opportunity in ZIP codes: "+strings.Join(head(zips, 2), ", "))
	} else {
		out = append(out, "Nationwide targeting strategy recommended based on broad geographic distribution")
	}
	return head(out, maxInsights)
}

func hasNumberedPrefix(line string) bool {
	for _, p := range []string{"1.", "2.", "3.", "4."} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func firstOr(s []string, def string) string {
	if len(s) == 0 {
		return def
	}
	return s[0]
}

// orDefault returns a copy of values with blanks removed, or a copy of def
// when nothing is left.
func orDefault(values, def []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
