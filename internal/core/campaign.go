package core

import (
	"maps"
	"slices"
)

// CampaignParameters is the structured form of a campaign brief.
type CampaignParameters struct {
	Advertiser   string         `json:"advertiser"`
	Budget       float64        `json:"budget"`
	Objective    string         `json:"objective"`
	Timeline     string         `json:"timeline"`
	Confidence   float64        `json:"confidence"`
	Requirements map[string]any `json:"additional_requirements"`
}

// Clone returns a deep copy.
func (p *CampaignParameters) Clone() *CampaignParameters {
	if p == nil {
		return nil
	}
	c := *p
	c.Requirements = cloneAnyMap(p.Requirements)
	return &c
}

// PreferenceSource records where advertiser preferences came from.
type PreferenceSource string

const (
	PreferenceSourceHistorical PreferenceSource = "historical"
	PreferenceSourceOracle     PreferenceSource = "oracle"
	PreferenceSourceFallback   PreferenceSource = "fallback"
)

// CPMRange is an inclusive bid price band.
type CPMRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AdvertiserPreferences describes historical targeting preferences.
type AdvertiserPreferences struct {
	Advertiser         string             `json:"advertiser"`
	PreferredTargeting []string           `json:"preferred_targeting"`
	ContentPreferences []string           `json:"content_preferences"`
	ChannelPreferences []string           `json:"channel_preferences"`
	NetworkPreferences []string           `json:"network_preferences"`
	GeoPreferences     []string           `json:"geo_preferences"`
	DevicePreferences  []string           `json:"device_preferences"`
	CPMRange           *CPMRange          `json:"cpm_range,omitempty"`
	Performance        map[string]float64 `json:"performance,omitempty"`
	Confidence         float64            `json:"confidence"`
	Insights           []string           `json:"insights"`
	Source             PreferenceSource   `json:"source"`
}

// Clone returns a deep copy.
func (p *AdvertiserPreferences) Clone() *AdvertiserPreferences {
	if p == nil {
		return nil
	}
	c := *p
	c.PreferredTargeting = slices.Clone(p.PreferredTargeting)
	c.ContentPreferences = slices.Clone(p.ContentPreferences)
	c.ChannelPreferences = slices.Clone(p.ChannelPreferences)
	c.NetworkPreferences = slices.Clone(p.NetworkPreferences)
	c.GeoPreferences = slices.Clone(p.GeoPreferences)
	c.DevicePreferences = slices.Clone(p.DevicePreferences)
	c.Insights = slices.Clone(p.Insights)
	c.Performance = maps.Clone(p.Performance)
	if p.CPMRange != nil {
		r := *p.CPMRange
		c.CPMRange = &r
	}
	return &c
}

// AudienceSegment is one targetable ACR audience.
type AudienceSegment struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Scale             int64    `json:"scale"`
	CPM               float64  `json:"cpm"`
	Reach             float64  `json:"reach"`
	TargetingCriteria []string `json:"targeting_criteria"`
}

// AudienceAnalysis owns the generated segments and pricing signals.
type AudienceAnalysis struct {
	Segments        []AudienceSegment  `json:"segments"`
	PricingInsights map[string]any     `json:"pricing_insights"`
	YieldSignals    map[string]float64 `json:"yield_signals"`
	Confidence      float64            `json:"confidence"`
	Recommendations []string           `json:"recommendations"`
}

// Clone returns a deep copy.
func (a *AudienceAnalysis) Clone() *AudienceAnalysis {
	if a == nil {
		return nil
	}
	c := *a
	c.Segments = make([]AudienceSegment, len(a.Segments))
	for i, s := range a.Segments {
		s.TargetingCriteria = slices.Clone(s.TargetingCriteria)
		c.Segments[i] = s
	}
	c.PricingInsights = cloneAnyMap(a.PricingInsights)
	c.YieldSignals = maps.Clone(a.YieldSignals)
	c.Recommendations = slices.Clone(a.Recommendations)
	return &c
}

// TotalScale sums household scale over all segments.
func (a *AudienceAnalysis) TotalScale() int64 {
	var total int64
	for _, s := range a.Segments {
		total += s.Scale
	}
	return total
}

// SegmentIndex returns the 1-based position of the named segment, or 0.
func (a *AudienceAnalysis) SegmentIndex(name string) int {
	if a == nil {
		return 0
	}
	for i, s := range a.Segments {
		if s.Name == name {
			return i + 1
		}
	}
	return 0
}

// LineItem is one executable targeting/budget unit.
type LineItem struct {
	Name              string            `json:"name"`
	Content           string            `json:"content"`
	Geo               string            `json:"geo"`
	Device            string            `json:"device"`
	Audience          string            `json:"audience"`
	BidCPM            float64           `json:"cpm"`
	DailyCap          float64           `json:"daily_cap"`
	FrequencyCap      string            `json:"frequency_cap"`
	Budget            float64           `json:"budget"`
	TargetingCriteria map[string]string `json:"targeting_criteria"`
}

// CampaignStructure is the finished plan.
type CampaignStructure struct {
	LineItems        []LineItem         `json:"line_items"`
	TotalBudget      float64            `json:"total_budget"`
	BudgetAllocation map[string]float64 `json:"budget_allocation"`
	Confidence       float64            `json:"confidence"`
	DeploymentNotes  []string           `json:"deployment_notes"`
	BudgetNormalized bool               `json:"budget_normalized"`
}

// Clone returns a deep copy.
func (s *CampaignStructure) Clone() *CampaignStructure {
	if s == nil {
		return nil
	}
	c := *s
	c.LineItems = make([]LineItem, len(s.LineItems))
	for i, li := range s.LineItems {
		li.TargetingCriteria = maps.Clone(li.TargetingCriteria)
		c.LineItems[i] = li
	}
	c.BudgetAllocation = maps.Clone(s.BudgetAllocation)
	c.DeploymentNotes = slices.Clone(s.DeploymentNotes)
	return &c
}

// AllocatedBudget sums the per-item budgets.
func (s *CampaignStructure) AllocatedBudget() float64 {
	var total float64
	for _, li := range s.LineItems {
		total += li.Budget
	}
	return total
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneAnyMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}
