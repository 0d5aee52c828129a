package workflow

import (
	"context"
	"strings"

	"github.com/gangwaa/NerualAdsV2/internal/adapters/oracle"
	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

// Outcome describes how a processor produced its entity.
type Outcome struct {
	Reasoning  string
	Confidence float64
	// Degraded is set when fallback data replaced an oracle answer.
	Degraded bool
}

// stageRunner holds what every stage processor shares: the oracle, the
// logger and the narration switch.
type stageRunner struct {
	oracle  core.Oracle
	logger  *logging.Logger
	narrate bool
}

func newStageRunner(o core.Oracle, logger *logging.Logger, narrate bool) stageRunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return stageRunner{oracle: o, logger: logger, narrate: narrate}
}

// complete calls the oracle. A failure caused by the caller's context is
// returned as a StageProcessingError; every other failure is a ProviderError
// the processor recovers from.
func (r stageRunner) complete(ctx context.Context, stage core.Stage, req core.OracleRequest) (string, error) {
	out, err := r.oracle.Complete(ctx, req)
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", core.ErrStageProcessing(stage, ctxErr)
	}
	if !core.IsProviderError(err) {
		err = core.ErrProvider(r.oracle.Name(), core.CodeProviderUnavailable, err.Error()).WithCause(err)
	}
	r.logger.WithStage(string(stage)).WithProvider(r.oracle.Name()).
		Warn("oracle call failed, using fallback", "error", err)
	return "", err
}

// askJSON renders a JSON completion into out.
func (r stageRunner) askJSON(ctx context.Context, stage core.Stage, req core.OracleRequest, out any) error {
	req.JSON = true
	text, err := r.complete(ctx, stage, req)
	if err != nil {
		return err
	}
	if err := oracle.DecodeJSON(r.oracle.Name(), text, out); err != nil {
		r.logger.WithStage(string(stage)).WithProvider(r.oracle.Name()).
			Warn("oracle returned unusable JSON, using fallback", "error", err)
		return err
	}
	return nil
}

// narration asks the oracle for a short operator-facing summary of facts and
// falls back to the template text when the oracle cannot answer.
func (r stageRunner) narration(ctx context.Context, stage core.Stage, title string, facts []string, template string) (string, error) {
	if !r.narrate {
		return template, nil
	}
	prompt, err := renderPrompt("narrate", narratePromptParams{Title: title, Facts: facts})
	if err != nil {
		return "", core.ErrStageProcessing(stage, err)
	}
	text, err := r.complete(ctx, stage, core.OracleRequest{
		SystemPrompt: prompt,
		UserPrompt:   "Summarize this step for the campaign operator.",
		Temperature:  0.5,
		MaxTokens:    400,
	})
	if err != nil {
		if core.IsStageProcessing(err) {
			return "", err
		}
		return template, nil
	}
	if text = strings.TrimSpace(text); text == "" {
		return template, nil
	}
	return text, nil
}

// stageFailure separates caller cancellation (returned as-is) from provider
// failures the processor is expected to absorb.
func stageFailure(err error) (fatal error, recoverable bool) {
	if err == nil {
		return nil, false
	}
	if core.IsStageProcessing(err) {
		return err, false
	}
	return nil, true
}
