package core

import "time"

// SessionID uniquely identifies a campaign planning session.
type SessionID string

// WorkflowResult is the per-stage output envelope returned to callers.
type WorkflowResult struct {
	Stage      Stage   `json:"step"`
	Reasoning  string  `json:"reasoning"`
	Action     string  `json:"action"`
	Data       any     `json:"data"`
	Confidence float64 `json:"confidence"`
	// Degraded is set when the stage substituted fallback data for an oracle
	// answer. The HTTP status stays 200; confidence carries the signal.
	Degraded bool `json:"degraded"`
}

// Status is a point-in-time view of an orchestrator.
type Status struct {
	Stage    Stage `json:"current_step"`
	Progress int   `json:"progress"`
	Busy     bool  `json:"busy"`
}

// CompletionData is the payload of the terminal WorkflowResult.
type CompletionData struct {
	Status string `json:"status"`
}

// Snapshot captures every entity a workflow has produced so far.
type Snapshot struct {
	Stage       Stage                  `json:"stage"`
	Parameters  *CampaignParameters    `json:"campaign_parameters,omitempty"`
	Preferences *AdvertiserPreferences `json:"advertiser_preferences,omitempty"`
	Audience    *AudienceAnalysis      `json:"audience_analysis,omitempty"`
	Structure   *CampaignStructure     `json:"campaign_structure,omitempty"`
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		Stage:       s.Stage,
		Parameters:  s.Parameters.Clone(),
		Preferences: s.Preferences.Clone(),
		Audience:    s.Audience.Clone(),
		Structure:   s.Structure.Clone(),
	}
}

// PlanID uniquely identifies a persisted campaign plan.
type PlanID string

// PlanRecord is a finished plan as stored by a PlanStore.
type PlanRecord struct {
	ID          PlanID    `json:"id"`
	SessionID   SessionID `json:"session_id"`
	Advertiser  string    `json:"advertiser"`
	TotalBudget float64   `json:"total_budget"`
	LineItems   int       `json:"line_items"`
	Confidence  float64   `json:"confidence"`
	Snapshot    *Snapshot `json:"snapshot,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PlanSummary is the list view of a PlanRecord.
type PlanSummary struct {
	ID          PlanID    `json:"id"`
	SessionID   SessionID `json:"session_id"`
	Advertiser  string    `json:"advertiser"`
	TotalBudget float64   `json:"total_budget"`
	LineItems   int       `json:"line_items"`
	CreatedAt   time.Time `json:"created_at"`
}
