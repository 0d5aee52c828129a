package core

import "fmt"

// Stage represents a step of the campaign planning workflow.
type Stage string

const (
	// StageCampaignParsing is the first stage where the free-text brief is
	// turned into campaign parameters.
	StageCampaignParsing Stage = "campaign_parsing"

	// StagePreferenceAnalysis looks up historical buying patterns for the
	// advertiser named in the brief.
	StagePreferenceAnalysis Stage = "preference_analysis"

	// StageAudienceGeneration builds audience segments with pricing signals.
	StageAudienceGeneration Stage = "audience_generation"

	// StageLineItemGeneration distributes the budget across executable
	// line items.
	StageLineItemGeneration Stage = "line_item_generation"

	// StageComplete is the terminal state after all stages complete.
	// It is NOT an executable stage.
	StageComplete Stage = "complete"
)

// executableStages is the number of stages that do work (Complete excluded).
const executableStages = 4

// AllStages returns all executable stages in execution order.
func AllStages() []Stage {
	return []Stage{
		StageCampaignParsing,
		StagePreferenceAnalysis,
		StageAudienceGeneration,
		StageLineItemGeneration,
	}
}

// StageOrder returns the numeric order of a stage (0-indexed).
func StageOrder(s Stage) int {
	switch s {
	case StageCampaignParsing:
		return 0
	case StagePreferenceAnalysis:
		return 1
	case StageAudienceGeneration:
		return 2
	case StageLineItemGeneration:
		return 3
	case StageComplete:
		return 4
	default:
		return -1
	}
}

// NextStage returns the unique successor of the given stage.
// Returns empty string if the stage has no successor.
func NextStage(s Stage) Stage {
	switch s {
	case StageCampaignParsing:
		return StagePreferenceAnalysis
	case StagePreferenceAnalysis:
		return StageAudienceGeneration
	case StageAudienceGeneration:
		return StageLineItemGeneration
	case StageLineItemGeneration:
		return StageComplete
	default:
		return ""
	}
}

// PrevStage returns the stage preceding the given stage.
// Returns empty string if the stage is the first.
func PrevStage(s Stage) Stage {
	switch s {
	case StagePreferenceAnalysis:
		return StageCampaignParsing
	case StageAudienceGeneration:
		return StagePreferenceAnalysis
	case StageLineItemGeneration:
		return StageAudienceGeneration
	case StageComplete:
		return StageLineItemGeneration
	default:
		return ""
	}
}

// CanTransition reports whether to is the legal successor of from.
func CanTransition(from, to Stage) bool {
	next := NextStage(from)
	return next != "" && next == to
}

// ValidStage checks if a stage string is valid.
func ValidStage(s Stage) bool {
	switch s {
	case StageCampaignParsing, StagePreferenceAnalysis, StageAudienceGeneration,
		StageLineItemGeneration, StageComplete:
		return true
	default:
		return false
	}
}

// ParseStage converts a string to a Stage with validation.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if !ValidStage(st) {
		return "", fmt.Errorf("invalid stage: %s", s)
	}
	return st, nil
}

// Progress returns the completion percentage reached when the workflow sits
// at the given stage.
func Progress(s Stage) int {
	order := StageOrder(s)
	if order < 0 {
		return 0
	}
	return order * 100 / executableStages
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// Description returns a human-readable description of the stage.
func (s Stage) Description() string {
	switch s {
	case StageCampaignParsing:
		return "Parse the campaign brief into structured parameters"
	case StagePreferenceAnalysis:
		return "Analyze historical advertiser buying patterns"
	case StageAudienceGeneration:
		return "Generate ACR audience segments and pricing signals"
	case StageLineItemGeneration:
		return "Build executable line items"
	case StageComplete:
		return "Campaign plan complete"
	default:
		return "Unknown stage"
	}
}

// NextAction returns the operator-facing action recommended once the stage
// has produced its result.
func NextAction(s Stage) string {
	switch s {
	case StageCampaignParsing:
		return "Proceed to historical pattern analysis"
	case StagePreferenceAnalysis:
		return "Generate ACR audience segments"
	case StageAudienceGeneration:
		return "Build executable line items"
	case StageLineItemGeneration:
		return "Campaign structure ready for deployment"
	case StageComplete:
		return "Campaign ready for deployment"
	default:
		return ""
	}
}
