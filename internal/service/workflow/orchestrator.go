// Package workflow implements the campaign planning workflow: an
// Orchestrator that walks a fixed sequence of stages and the four stage
// processors (Parser, PreferenceAnalyzer, AudienceGenerator and
// LineItemBuilder) that turn a free-text brief into executable line items.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

// DefaultAdvanceDebounce is the window in which repeated advances are ignored.
const DefaultAdvanceDebounce = time.Second

// Options configures an Orchestrator.
type Options struct {
	Oracle      core.Oracle
	Advertisers core.AdvertiserLookup
	Logger      *logging.Logger
	// Debounce suppresses an advance arriving this soon after the previous
	// successful one. Zero disables suppression.
	Debounce time.Duration
	// Narrate asks the oracle for the reasoning text of each stage instead
	// of using the built-in templates.
	Narrate bool
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Orchestrator owns the state of one planning workflow.
//
// Stage processors run outside the lock; a busy flag rejects re-entrant
// calls instead of queueing them and a generation counter detects resets
// that happen while a processor is running.
type Orchestrator struct {
	parser    *Parser
	analyzer  *PreferenceAnalyzer
	generator *AudienceGenerator
	builder   *LineItemBuilder
	logger    *logging.Logger
	debounce  time.Duration
	now       func() time.Time

	mu          sync.Mutex
	stage       core.Stage
	params      *core.CampaignParameters
	prefs       *core.AdvertiserPreferences
	audience    *core.AudienceAnalysis
	structure   *core.CampaignStructure
	busy        bool
	generation  uint64
	lastAdvance time.Time
}

// New creates an Orchestrator at the parsing stage.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		parser:    NewParser(opts.Oracle, logger, opts.Narrate),
		analyzer:  NewPreferenceAnalyzer(opts.Oracle, opts.Advertisers, logger, opts.Narrate),
		generator: NewAudienceGenerator(opts.Oracle, logger, opts.Narrate),
		builder:   NewLineItemBuilder(opts.Oracle, logger, opts.Narrate),
		logger:    logger,
		debounce:  opts.Debounce,
		now:       now,
		stage:     core.StageCampaignParsing,
	}
}

// inputs is the snapshot of upstream entities a processor works from.
type inputs struct {
	brief     string
	params    *core.CampaignParameters
	prefs     *core.AdvertiserPreferences
	audience  *core.AudienceAnalysis
	stage     core.Stage
	committed uint64
}

// produced is what a processor hands back for commit.
type produced struct {
	params    *core.CampaignParameters
	prefs     *core.AdvertiserPreferences
	audience  *core.AudienceAnalysis
	structure *core.CampaignStructure
	data      any
	outcome   Outcome
}

// ProcessCurrentStage runs the processor of the current stage. input is the
// campaign brief and is only read by the parsing stage. The stage does not
// advance; call AdvanceStage for that.
func (o *Orchestrator) ProcessCurrentStage(ctx context.Context, input string) (*core.WorkflowResult, error) {
	in, err := o.begin(input)
	if err != nil {
		return nil, err
	}
	if in.stage == core.StageComplete {
		return &core.WorkflowResult{
			Stage:      core.StageComplete,
			Reasoning:  "Workflow complete",
			Action:     core.NextAction(core.StageComplete),
			Data:       core.CompletionData{Status: "complete"},
			Confidence: 1.0,
		}, nil
	}

	logger := o.logger.WithStage(string(in.stage))
	logger.Info("stage started")
	start := time.Now()

	out, err := o.run(ctx, in)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != in.committed {
		// A reset released the busy flag; a newer call may own it now.
		logger.Info("workflow reset during stage, result discarded")
		return nil, core.ErrConcurrentAccess(core.CodeWorkflowReset, "workflow was reset while the stage was running")
	}
	o.busy = false
	if err != nil {
		logger.Error("stage failed", "error", err)
		return nil, err
	}

	switch in.stage {
	case core.StageCampaignParsing:
		o.params = out.params
	case core.StagePreferenceAnalysis:
		o.prefs = out.prefs
	case core.StageAudienceGeneration:
		o.audience = out.audience
	case core.StageLineItemGeneration:
		o.structure = out.structure
	}

	logger.Info("stage finished",
		"confidence", out.outcome.Confidence,
		"degraded", out.outcome.Degraded,
		"duration", time.Since(start))

	return &core.WorkflowResult{
		Stage:      in.stage,
		Reasoning:  out.outcome.Reasoning,
		Action:     core.NextAction(in.stage),
		Data:       out.data,
		Confidence: out.outcome.Confidence,
		Degraded:   out.outcome.Degraded,
	}, nil
}

// begin validates the call and marks the orchestrator busy.
func (o *Orchestrator) begin(input string) (inputs, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.busy {
		return inputs{}, core.ErrConcurrentAccess(core.CodeStageInProgress,
			fmt.Sprintf("stage %s is already being processed", o.stage))
	}
	if o.stage == core.StageComplete {
		return inputs{stage: core.StageComplete}, nil
	}
	if err := o.checkPrerequisites(o.stage); err != nil {
		return inputs{}, err
	}
	if o.stage == core.StageCampaignParsing {
		input = strings.TrimSpace(input)
		if input == "" {
			return inputs{}, core.ErrValidation(core.CodeEmptyBrief, "campaign brief is empty")
		}
		if len(input) > core.MaxBriefLength {
			return inputs{}, core.ErrValidation(core.CodeBriefTooLong,
				fmt.Sprintf("campaign brief exceeds %d characters", core.MaxBriefLength))
		}
	}

	o.busy = true
	return inputs{
		brief:     input,
		params:    o.params.Clone(),
		prefs:     o.prefs.Clone(),
		audience:  o.audience.Clone(),
		stage:     o.stage,
		committed: o.generation,
	}, nil
}

// run dispatches to the processor of in.stage. Panics become
// StageProcessingErrors.
func (o *Orchestrator) run(ctx context.Context, in inputs) (out produced, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.ErrStageProcessing(in.stage, fmt.Errorf("panic: %v", r))
		}
	}()

	switch in.stage {
	case core.StageCampaignParsing:
		out.params, out.outcome, err = o.parser.Parse(ctx, in.brief)
		out.data = out.params.Clone()
	case core.StagePreferenceAnalysis:
		out.prefs, out.outcome, err = o.analyzer.Analyze(ctx, in.params)
		out.data = out.prefs.Clone()
	case core.StageAudienceGeneration:
		out.audience, out.outcome, err = o.generator.Generate(ctx, in.params, in.prefs)
		out.data = out.audience.Clone()
	case core.StageLineItemGeneration:
		out.structure, out.outcome, err = o.builder.Build(ctx, in.params, in.prefs, in.audience)
		out.data = out.structure.Clone()
	case core.StageComplete:
		err = core.ErrStageProcessing(in.stage, fmt.Errorf("stage %s is not executable", in.stage))
	default:
		err = core.ErrStageProcessing(in.stage, fmt.Errorf("unknown stage %q", in.stage))
	}
	if err != nil && !core.IsStageProcessing(err) && !core.IsProviderError(err) {
		err = core.ErrStageProcessing(in.stage, err)
	}
	return out, err
}

// checkPrerequisites reports the entities stage needs that are not present.
// Callers hold o.mu.
func (o *Orchestrator) checkPrerequisites(stage core.Stage) error {
	var missing []string
	needParams := stage != core.StageCampaignParsing
	needPrefs := stage == core.StageAudienceGeneration || stage == core.StageLineItemGeneration
	needAudience := stage == core.StageLineItemGeneration

	if needParams && o.params == nil {
		missing = append(missing, "campaign parameters")
	}
	if needPrefs && o.prefs == nil {
		missing = append(missing, "advertiser preferences")
	}
	if needAudience && o.audience == nil {
		missing = append(missing, "audience analysis")
	}
	if len(missing) > 0 {
		return core.ErrPrerequisite(stage, missing...)
	}
	return nil
}

// AdvanceStage moves to the successor of the current stage and returns the
// stage the workflow is now at. An advance within the debounce window of the
// previous one is ignored and returns the unchanged stage.
func (o *Orchestrator) AdvanceStage(ctx context.Context) (core.Stage, error) {
	return o.advance(ctx, "")
}

// AdvanceTo is AdvanceStage with an explicit target, which must be the
// successor of the current stage.
func (o *Orchestrator) AdvanceTo(ctx context.Context, target core.Stage) (core.Stage, error) {
	if !core.ValidStage(target) {
		return "", core.ErrValidation(core.CodeInvalidStage, fmt.Sprintf("unknown stage %q", target))
	}
	return o.advance(ctx, target)
}

func (o *Orchestrator) advance(ctx context.Context, target core.Stage) (core.Stage, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.busy {
		return "", core.ErrConcurrentAccess(core.CodeStageInProgress,
			fmt.Sprintf("stage %s is being processed", o.stage))
	}
	now := o.now()
	if o.debounce > 0 && !o.lastAdvance.IsZero() && now.Sub(o.lastAdvance) < o.debounce {
		o.logger.Debug("advance suppressed", "stage", o.stage)
		return o.stage, nil
	}

	next := core.NextStage(o.stage)
	if next == "" {
		return "", core.ErrInvalidTransition(o.stage, target)
	}
	if target != "" && !core.CanTransition(o.stage, target) {
		return "", core.ErrInvalidTransition(o.stage, target)
	}
	if err := o.checkPrerequisites(o.stage); err != nil {
		return "", err
	}

	o.logger.Info("stage advanced", "from", o.stage, "to", next)
	o.stage = next
	o.lastAdvance = now
	return next, nil
}

// Status returns the current stage, progress and busy flag.
func (o *Orchestrator) Status() core.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return core.Status{
		Stage:    o.stage,
		Progress: core.Progress(o.stage),
		Busy:     o.busy,
	}
}

// Reset returns the workflow to its initial state. A processor still running
// finishes but its result is discarded.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stage = core.StageCampaignParsing
	o.params = nil
	o.prefs = nil
	o.audience = nil
	o.structure = nil
	o.busy = false
	o.generation++
	o.lastAdvance = time.Time{}
	o.logger.Info("workflow reset")
}

// Parameters returns a copy of the parsed campaign parameters, or nil.
func (o *Orchestrator) Parameters() *core.CampaignParameters {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.params.Clone()
}

// Preferences returns a copy of the advertiser preferences, or nil.
func (o *Orchestrator) Preferences() *core.AdvertiserPreferences {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.prefs.Clone()
}

// Audience returns a copy of the audience analysis, or nil.
func (o *Orchestrator) Audience() *core.AudienceAnalysis {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.audience.Clone()
}

// Structure returns a copy of the campaign structure, or nil.
func (o *Orchestrator) Structure() *core.CampaignStructure {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.structure.Clone()
}

// Snapshot returns copies of every entity together with the current stage.
func (o *Orchestrator) Snapshot() *core.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return &core.Snapshot{
		Stage:       o.stage,
		Parameters:  o.params.Clone(),
		Preferences: o.prefs.Clone(),
		Audience:    o.audience.Clone(),
		Structure:   o.structure.Clone(),
	}
}
