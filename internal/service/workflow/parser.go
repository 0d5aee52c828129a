package workflow

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

const (
	defaultAdvertiser        = "Unknown Advertiser"
	fallbackAdvertiser       = "Sample Advertiser"
	defaultBudget            = 100000.0
	defaultObjective         = "awareness"
	defaultTimeline          = "30 days"
	parserOracleConfidence   = 0.85
	parserFallbackConfidence = 0.60
	parserTemperature        = 0.3
	parserMaxTokens          = 500
)

var currencyPattern = regexp.MustCompile(`\$[\d,]+`)

// Parser turns a free-text brief into CampaignParameters.
type Parser struct {
	stageRunner
}

// NewParser creates a Parser.
func NewParser(o core.Oracle, logger *logging.Logger, narrate bool) *Parser {
	return &Parser{stageRunner: newStageRunner(o, logger, narrate)}
}

type parsedBrief struct {
	Advertiser   string         `json:"advertiser"`
	Budget       any            `json:"budget"`
	Objective    string         `json:"objective"`
	Timeline     string         `json:"timeline"`
	Requirements map[string]any `json:"additional_requirements"`
}

// Parse extracts campaign parameters from brief.
func (p *Parser) Parse(ctx context.Context, brief string) (*core.CampaignParameters, Outcome, error) {
	const stage = core.StageCampaignParsing

	system, err := renderPrompt("parse-brief", nil)
	if err != nil {
		return nil, Outcome{}, core.ErrStageProcessing(stage, err)
	}

	var raw parsedBrief
	var params *core.CampaignParameters
	degraded := false
	err = p.askJSON(ctx, stage, core.OracleRequest{
		SystemPrompt: system,
		UserPrompt:   brief,
		Temperature:  parserTemperature,
		MaxTokens:    parserMaxTokens,
	}, &raw)
	if fatal, recoverable := stageFailure(err); fatal != nil {
		return nil, Outcome{}, fatal
	} else if recoverable {
		params = fallbackParameters(brief)
		degraded = true
	} else {
		params = raw.toParameters()
	}

	reasoning, err := p.narration(ctx, stage, "Campaign parameters", parameterFacts(params), parametersReasoning(params))
	if err != nil {
		return nil, Outcome{}, err
	}
	return params, Outcome{Reasoning: reasoning, Confidence: params.Confidence, Degraded: degraded}, nil
}

func (b parsedBrief) toParameters() *core.CampaignParameters {
	params := &core.CampaignParameters{
		Advertiser:   firstNonEmpty(b.Advertiser, defaultAdvertiser),
		Budget:       defaultBudget,
		Objective:    firstNonEmpty(b.Objective, defaultObjective),
		Timeline:     firstNonEmpty(b.Timeline, defaultTimeline),
		Confidence:   parserOracleConfidence,
		Requirements: b.Requirements,
	}
	if budget, ok := parseBudget(b.Budget); ok {
		params.Budget = budget
	}
	if params.Requirements == nil {
		params.Requirements = map[string]any{}
	}
	return params
}

// fallbackParameters scans the brief for the first dollar amount.
func fallbackParameters(brief string) *core.CampaignParameters {
	budget := defaultBudget
	if m := currencyPattern.FindString(brief); m != "" {
		if v, ok := parseBudget(m); ok {
			budget = v
		}
	}
	return &core.CampaignParameters{
		Advertiser:   fallbackAdvertiser,
		Budget:       budget,
		Objective:    defaultObjective,
		Timeline:     defaultTimeline,
		Confidence:   parserFallbackConfidence,
		Requirements: map[string]any{"source": "fallback_parsing"},
	}
}

// parseBudget accepts JSON numbers and strings such as "$250,000" or
// "250000.50". Non-positive and non-finite amounts are rejected.
func parseBudget(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(t))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" && !strings.EqualFold(s, "not specified") {
			return s
		}
	}
	return ""
}
