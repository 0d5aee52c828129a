package workflow

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/testutil"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestOrchestrator(o core.Oracle) *Orchestrator {
	return New(Options{Oracle: o, Advertisers: acmeDB()})
}

func processAndAdvance(t *testing.T, orch *Orchestrator, input string) *core.WorkflowResult {
	t.Helper()
	res, err := orch.ProcessCurrentStage(context.Background(), input)
	require.NoError(t, err)
	_, err = orch.AdvanceStage(context.Background())
	require.NoError(t, err)
	return res
}

func TestOrchestrator_FullRun(t *testing.T) {
	o := testutil.NewScriptedOracle("test").
		RespondJSON(parsedAcmeJSON, audienceJSON, lineItemsJSON).
		RespondText(insightsText)
	orch := newTestOrchestrator(o)
	ctx := context.Background()

	assert.Equal(t, core.Status{Stage: core.StageCampaignParsing, Progress: 0}, orch.Status())

	res := processAndAdvance(t, orch, "Acme Corp wants $250,000 of CTV over six weeks")
	assert.Equal(t, core.StageCampaignParsing, res.Stage)
	assert.Equal(t, "Proceed to historical pattern analysis", res.Action)
	assert.Equal(t, 0.85, res.Confidence)
	params, ok := res.Data.(*core.CampaignParameters)
	require.True(t, ok)
	assert.Equal(t, 250000.0, params.Budget)
	assert.Equal(t, 25, orch.Status().Progress)

	res = processAndAdvance(t, orch, "")
	assert.Equal(t, core.StagePreferenceAnalysis, res.Stage)
	assert.Equal(t, 0.92, res.Confidence)
	assert.Equal(t, 50, orch.Status().Progress)

	res = processAndAdvance(t, orch, "")
	assert.Equal(t, core.StageAudienceGeneration, res.Stage)
	assert.Equal(t, 0.82, res.Confidence)

	res = processAndAdvance(t, orch, "")
	assert.Equal(t, core.StageLineItemGeneration, res.Stage)
	assert.Equal(t, 0.88, res.Confidence)
	structure, ok := res.Data.(*core.CampaignStructure)
	require.True(t, ok)
	assert.True(t, structure.BudgetNormalized)
	assert.InDelta(t, 250000, structure.AllocatedBudget(), 1e-6)

	st := orch.Status()
	assert.Equal(t, core.StageComplete, st.Stage)
	assert.Equal(t, 100, st.Progress)
	assert.False(t, st.Busy)

	final, err := orch.ProcessCurrentStage(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, core.StageComplete, final.Stage)
	assert.Equal(t, "Workflow complete", final.Reasoning)
	assert.Equal(t, 1.0, final.Confidence)
	assert.Equal(t, core.CompletionData{Status: "complete"}, final.Data)

	_, err = orch.AdvanceStage(ctx)
	assert.True(t, core.IsInvalidTransition(err))

	snap := orch.Snapshot()
	assert.Equal(t, core.StageComplete, snap.Stage)
	assert.NotNil(t, snap.Parameters)
	assert.NotNil(t, snap.Preferences)
	assert.NotNil(t, snap.Audience)
	assert.NotNil(t, snap.Structure)
}

func TestOrchestrator_AllStagesDegradeOnProviderFailure(t *testing.T) {
	orch := newTestOrchestrator(testutil.NewFailingOracle(providerDown()))

	want := []struct {
		stage      core.Stage
		confidence float64
	}{
		{core.StageCampaignParsing, 0.60},
		{core.StagePreferenceAnalysis, 0.65},
		{core.StageAudienceGeneration, 0.70},
		{core.StageLineItemGeneration, 0.75},
	}
	for _, w := range want {
		res := processAndAdvance(t, orch, "Launch a campaign for Acme")
		assert.Equal(t, w.stage, res.Stage)
		assert.Equal(t, w.confidence, res.Confidence, w.stage)
		assert.True(t, res.Degraded, w.stage)
	}

	assert.Equal(t, 100000.0, orch.Parameters().Budget)
	assert.Equal(t, core.PreferenceSourceFallback, orch.Preferences().Source)
	assert.Len(t, orch.Structure().LineItems, 5)
}

func TestOrchestrator_Prerequisites(t *testing.T) {
	orch := newTestOrchestrator(testutil.NewFailingOracle(providerDown()))
	ctx := context.Background()

	stage, err := orch.AdvanceStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StagePreferenceAnalysis, stage)

	_, err = orch.ProcessCurrentStage(ctx, "")
	require.Error(t, err)
	assert.True(t, core.IsPrerequisite(err))
	assert.Equal(t, core.CodePrerequisiteMissing, core.GetCode(err))
	assert.False(t, orch.Status().Busy)

	_, err = orch.AdvanceStage(ctx)
	assert.True(t, core.IsPrerequisite(err))
	assert.Equal(t, core.StagePreferenceAnalysis, orch.Status().Stage)
}

func TestOrchestrator_LinearTransitionsOnly(t *testing.T) {
	orch := newTestOrchestrator(testutil.NewFailingOracle(providerDown()))
	ctx := context.Background()

	for _, target := range []core.Stage{core.StageCampaignParsing, core.StageAudienceGeneration, core.StageLineItemGeneration, core.StageComplete} {
		_, err := orch.AdvanceTo(ctx, target)
		assert.True(t, core.IsInvalidTransition(err), target)
	}
	_, err := orch.AdvanceTo(ctx, "bogus")
	assert.Equal(t, core.CodeInvalidStage, core.GetCode(err))
	assert.Equal(t, core.StageCampaignParsing, orch.Status().Stage)

	_, err = orch.ProcessCurrentStage(ctx, "Launch a campaign for Acme")
	require.NoError(t, err)
	stage, err := orch.AdvanceTo(ctx, core.StagePreferenceAnalysis)
	require.NoError(t, err)
	assert.Equal(t, core.StagePreferenceAnalysis, stage)
}

func TestOrchestrator_BriefValidation(t *testing.T) {
	orch := newTestOrchestrator(testutil.NewFailingOracle(providerDown()))
	ctx := context.Background()

	_, err := orch.ProcessCurrentStage(ctx, "   ")
	assert.Equal(t, core.CodeEmptyBrief, core.GetCode(err))
	assert.Equal(t, core.ErrCatValidation, core.GetCategory(err))

	_, err = orch.ProcessCurrentStage(ctx, strings.Repeat("x", core.MaxBriefLength+1))
	assert.Equal(t, core.CodeBriefTooLong, core.GetCode(err))
	assert.False(t, orch.Status().Busy)
}

func TestOrchestrator_ConcurrentProcess(t *testing.T) {
	blocking := testutil.NewBlockingOracle(testutil.NewFailingOracle(providerDown()))
	orch := newTestOrchestrator(blocking)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := orch.ProcessCurrentStage(ctx, "Launch a campaign for Acme")
		first <- err
	}()

	select {
	case <-blocking.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("first call never reached the oracle")
	}
	assert.True(t, orch.Status().Busy)

	_, err := orch.ProcessCurrentStage(ctx, "Launch a campaign for Acme")
	require.Error(t, err)
	assert.True(t, core.IsConcurrentAccess(err))
	assert.Equal(t, core.CodeStageInProgress, core.GetCode(err))

	_, err = orch.AdvanceStage(ctx)
	assert.True(t, core.IsConcurrentAccess(err))

	blocking.Release()
	require.NoError(t, <-first)
	assert.False(t, orch.Status().Busy)
	assert.NotNil(t, orch.Parameters())
}

func TestOrchestrator_ResetDuringStage(t *testing.T) {
	blocking := testutil.NewBlockingOracle(testutil.NewFailingOracle(providerDown()))
	orch := newTestOrchestrator(blocking)

	result := make(chan error, 1)
	go func() {
		_, err := orch.ProcessCurrentStage(context.Background(), "Launch a campaign for Acme")
		result <- err
	}()
	<-blocking.Started()

	orch.Reset()
	assert.False(t, orch.Status().Busy)

	blocking.Release()
	err := <-result
	require.Error(t, err)
	assert.Equal(t, core.CodeWorkflowReset, core.GetCode(err))

	assert.Equal(t, core.Status{Stage: core.StageCampaignParsing}, orch.Status())
	assert.Nil(t, orch.Parameters())
}

// gatedOracle holds each call on its own gate, handed to the test through
// gates, then fails like an unreachable provider.
type gatedOracle struct {
	gates chan chan struct{}
}

func (o *gatedOracle) Name() string { return "gated" }

func (o *gatedOracle) Complete(ctx context.Context, _ core.OracleRequest) (string, error) {
	gate := make(chan struct{})
	o.gates <- gate
	select {
	case <-gate:
		return "", providerDown()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestOrchestrator_StaleCallKeepsNewerCallBusy(t *testing.T) {
	oracle := &gatedOracle{gates: make(chan chan struct{})}
	orch := newTestOrchestrator(oracle)
	ctx := context.Background()
	brief := "Launch a campaign for Acme"

	stale := make(chan error, 1)
	go func() {
		_, err := orch.ProcessCurrentStage(ctx, brief)
		stale <- err
	}()
	staleGate := <-oracle.gates

	orch.Reset()

	current := make(chan error, 1)
	go func() {
		_, err := orch.ProcessCurrentStage(ctx, brief)
		current <- err
	}()
	currentGate := <-oracle.gates

	close(staleGate)
	err := <-stale
	require.Error(t, err)
	assert.Equal(t, core.CodeWorkflowReset, core.GetCode(err))
	assert.True(t, orch.Status().Busy, "the newer call still owns the workflow")

	_, err = orch.ProcessCurrentStage(ctx, brief)
	require.Error(t, err)
	assert.Equal(t, core.CodeStageInProgress, core.GetCode(err))

	close(currentGate)
	require.NoError(t, <-current)
	assert.False(t, orch.Status().Busy)
	assert.NotNil(t, orch.Parameters())
}

func TestOrchestrator_Reset(t *testing.T) {
	orch := newTestOrchestrator(testutil.NewFailingOracle(providerDown()))
	processAndAdvance(t, orch, "Launch a campaign for Acme")
	processAndAdvance(t, orch, "")

	orch.Reset()
	assert.Equal(t, core.Status{Stage: core.StageCampaignParsing, Progress: 0}, orch.Status())
	snap := orch.Snapshot()
	assert.Nil(t, snap.Parameters)
	assert.Nil(t, snap.Preferences)
	assert.Nil(t, snap.Audience)
	assert.Nil(t, snap.Structure)

	processAndAdvance(t, orch, "Launch a campaign for Acme")
	assert.Equal(t, core.StagePreferenceAnalysis, orch.Status().Stage)
}

func TestOrchestrator_AdvanceDebounce(t *testing.T) {
	clock := newFakeClock()
	orch := New(Options{
		Oracle:      testutil.NewFailingOracle(providerDown()),
		Advertisers: acmeDB(),
		Debounce:    time.Second,
		Clock:       clock.Now,
	})
	ctx := context.Background()

	_, err := orch.ProcessCurrentStage(ctx, "Launch a campaign for Acme")
	require.NoError(t, err)
	stage, err := orch.AdvanceStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StagePreferenceAnalysis, stage)

	_, err = orch.ProcessCurrentStage(ctx, "")
	require.NoError(t, err)

	clock.Add(500 * time.Millisecond)
	stage, err = orch.AdvanceStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StagePreferenceAnalysis, stage, "advance inside the window is ignored")

	clock.Add(time.Second)
	stage, err = orch.AdvanceStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StageAudienceGeneration, stage)

	orch.Reset()
	_, err = orch.ProcessCurrentStage(ctx, "Launch a campaign for Acme")
	require.NoError(t, err)
	stage, err = orch.AdvanceStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StagePreferenceAnalysis, stage, "reset clears the debounce window")
}

func TestOrchestrator_PanicBecomesStageError(t *testing.T) {
	panicky := core.OracleFunc(func(context.Context, core.OracleRequest) (string, error) {
		panic("boom")
	})
	orch := newTestOrchestrator(panicky)

	_, err := orch.ProcessCurrentStage(context.Background(), "brief")
	require.Error(t, err)
	assert.True(t, core.IsStageProcessing(err))
	assert.False(t, orch.Status().Busy)
	assert.Nil(t, orch.Parameters())
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	orch := newTestOrchestrator(testutil.NewScriptedOracle("test").RespondJSON(parsedAcmeJSON))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.ProcessCurrentStage(ctx, "brief")
	assert.True(t, core.IsStageProcessing(err))
	assert.False(t, orch.Status().Busy)

	_, err = orch.AdvanceStage(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrchestrator_AccessorsReturnCopies(t *testing.T) {
	orch := newTestOrchestrator(testutil.NewScriptedOracle("test").RespondJSON(parsedAcmeJSON))
	_, err := orch.ProcessCurrentStage(context.Background(), "brief")
	require.NoError(t, err)

	p := orch.Parameters()
	p.Budget = 1
	p.Requirements["geo"] = "mutated"

	again := orch.Parameters()
	assert.Equal(t, 250000.0, again.Budget)
	assert.Equal(t, "US", again.Requirements["geo"])
}

func TestOrchestrator_ResultDataIsACopy(t *testing.T) {
	orch := newTestOrchestrator(testutil.NewScriptedOracle("test").RespondJSON(parsedAcmeJSON))
	res, err := orch.ProcessCurrentStage(context.Background(), "brief")
	require.NoError(t, err)

	params, ok := res.Data.(*core.CampaignParameters)
	require.True(t, ok)
	params.Budget = 1
	params.Requirements["geo"] = "mutated"

	stored := orch.Parameters()
	assert.Equal(t, 250000.0, stored.Budget)
	assert.Equal(t, "US", stored.Requirements["geo"])
}

func TestOrchestrator_ReprocessReplacesResult(t *testing.T) {
	o := testutil.NewScriptedOracle("test").RespondJSON(parsedAcmeJSON, `{"advertiser": "Globex", "budget": 5000}`)
	orch := newTestOrchestrator(o)
	ctx := context.Background()

	_, err := orch.ProcessCurrentStage(ctx, "first")
	require.NoError(t, err)
	_, err = orch.ProcessCurrentStage(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, "Globex", orch.Parameters().Advertiser)
	assert.Equal(t, core.StageCampaignParsing, orch.Status().Stage)
}
