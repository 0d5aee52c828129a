package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// The functions below produce the deterministic reasoning text used when
// narration is disabled or the oracle cannot narrate, and the fact lists fed
// to the narration prompt.

func bullets(items []string, n int) string {
	var b strings.Builder
	for i, item := range items {
		if i == n {
			break
		}
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func parameterFacts(p *core.CampaignParameters) []string {
	return []string{
		"Advertiser: " + p.Advertiser,
		"Budget: " + dollars(p.Budget),
		"Objective: " + p.Objective,
		"Timeline: " + p.Timeline,
	}
}

func parametersReasoning(p *core.CampaignParameters) string {
	return fmt.Sprintf(`Campaign parameters analysis

Parsed campaign brief:
- Advertiser: %s
- Budget: %s
- Objective: %s
- Timeline: %s

Ready to proceed with historical pattern analysis for %s.`,
		p.Advertiser, dollars(p.Budget), titleCase(p.Objective), p.Timeline, p.Advertiser)
}

func preferenceFacts(p *core.AdvertiserPreferences) []string {
	facts := []string{
		"Data source: " + string(p.Source),
		"Content: " + strings.Join(p.ContentPreferences, ", "),
		"Networks: " + strings.Join(p.NetworkPreferences, ", "),
		"Geography: " + strings.Join(p.GeoPreferences, ", "),
	}
	return append(facts, p.Insights...)
}

func preferencesReasoning(p *core.AdvertiserPreferences) string {
	source := "industry benchmarks"
	if p.Source == core.PreferenceSourceHistorical {
		source = "historical viewing data"
	}
	return fmt.Sprintf(`Historical pattern analysis

Retrieved buying patterns for %s using %s.

Content preferences:
%s

Network preferences:
%s

Channel strategy:
%s

Geographic insights:
%s

Key targeting insights:
%s

Strategic recommendations:
%s`,
		p.Advertiser, source,
		bullets(p.ContentPreferences, 4),
		bullets(p.NetworkPreferences, 3),
		bullets(p.ChannelPreferences, 3),
		bullets(p.GeoPreferences, 2),
		bullets(p.PreferredTargeting, 2),
		bullets(p.Insights, 3))
}

func segmentLine(s core.AudienceSegment) string {
	return fmt.Sprintf("%s: %s HH @ %s CPM (%.1f%% reach)", s.Name, humanize.Comma(s.Scale), dollars(s.CPM), s.Reach)
}

func audienceFacts(a *core.AudienceAnalysis) []string {
	facts := make([]string, 0, len(a.Segments)+1)
	for _, s := range a.Segments {
		facts = append(facts, segmentLine(s))
	}
	return append(facts, "Total addressable scale: "+humanize.Comma(a.TotalScale())+" households")
}

func audienceReasoning(advertiser string, a *core.AudienceAnalysis) string {
	lines := make([]string, 0, 3)
	for i, s := range a.Segments {
		if i == 3 {
			break
		}
		lines = append(lines, segmentLine(s))
	}
	pressure := 0.75
	if v, ok := a.YieldSignals["inventory_pressure"]; ok {
		pressure = v
	}
	return fmt.Sprintf(`Audience and pricing intelligence

Generated ACR audience segments for %s:
%s

Inventory pressure: %.0f%% utilization

Key recommendations:
%s

Total addressable scale: %s households across %d segments.`,
		advertiser, bullets(lines, 3), pressure*100, bullets(a.Recommendations, 2),
		humanize.Comma(a.TotalScale()), len(a.Segments))
}

func allocationLines(s *core.CampaignStructure) []string {
	devices := make([]string, 0, len(s.BudgetAllocation))
	for d := range s.BudgetAllocation {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool {
		return s.BudgetAllocation[devices[i]] > s.BudgetAllocation[devices[j]]
	})
	lines := make([]string, len(devices))
	for i, d := range devices {
		share := s.BudgetAllocation[d]
		lines[i] = fmt.Sprintf("%s: %s (%.0f%%)", d, dollars(s.TotalBudget*share), share*100)
	}
	return lines
}

func structureFacts(s *core.CampaignStructure) []string {
	facts := []string{fmt.Sprintf("%d line items, total budget %s", len(s.LineItems), dollars(s.TotalBudget))}
	for _, li := range s.LineItems {
		facts = append(facts, fmt.Sprintf("%s: %s on %s, %s CPM, %s", li.Name, dollars(li.Budget), li.Device, dollars(li.BidCPM), li.FrequencyCap))
	}
	return append(facts, allocationLines(s)...)
}

func structureReasoning(advertiser string, s *core.CampaignStructure) string {
	return fmt.Sprintf(`Line item construction

Built %d executable line items for %s.

Budget allocation:
%s

Deployment:
%s

Total campaign budget: %s across %d line items.`,
		len(s.LineItems), advertiser, bullets(allocationLines(s), len(s.BudgetAllocation)),
		bullets(s.DeploymentNotes, 2), dollars(s.TotalBudget), len(s.LineItems))
}
