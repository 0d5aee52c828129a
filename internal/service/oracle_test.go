package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/testutil"
)

func TestTimeoutOracle(t *testing.T) {
	blocking := testutil.NewBlockingOracle(testutil.NewScriptedOracle("slow"))
	defer blocking.Release()

	_, err := NewTimeoutOracle(blocking, 20*time.Millisecond).Complete(context.Background(), core.OracleRequest{})
	require.Error(t, err)
	assert.Equal(t, core.CodeProviderTimeout, core.GetCode(err))
	assert.True(t, core.IsRetryable(err))
}

func TestTimeoutOracle_PassesThrough(t *testing.T) {
	o := testutil.NewScriptedOracle("fast").RespondText("ok")
	out, err := NewTimeoutOracle(o, time.Second).Complete(context.Background(), core.OracleRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestRateLimitedOracle_CancelledWait(t *testing.T) {
	o := testutil.NewScriptedOracle("test").RespondText("ok")
	limited := NewRateLimitedOracle(o, 0.001, 1)

	_, err := limited.Complete(context.Background(), core.OracleRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = limited.Complete(ctx, core.OracleRequest{})
	require.Error(t, err)
	assert.True(t, core.IsProviderError(err))
	assert.Equal(t, 1, o.CallCount())
}

func TestRetryingOracle_RetriesRetryable(t *testing.T) {
	o := testutil.NewFailingOracle(core.ErrProvider("test", core.CodeProviderNetwork, "reset"))
	policy := NewRetryPolicy(WithMaxAttempts(3), WithBaseDelay(time.Millisecond))

	_, err := NewRetryingOracle(o, policy, nil).Complete(context.Background(), core.OracleRequest{})
	require.Error(t, err)
	assert.True(t, core.IsProviderError(err))
	assert.Equal(t, 3, o.CallCount())
}

func TestRetryingOracle_StopsOnPermanentError(t *testing.T) {
	o := testutil.NewFailingOracle(core.ErrProvider("test", core.CodeProviderAuth, "bad key"))
	policy := NewRetryPolicy(WithMaxAttempts(3), WithBaseDelay(time.Millisecond))

	_, err := NewRetryingOracle(o, policy, nil).Complete(context.Background(), core.OracleRequest{})
	assert.Equal(t, core.CodeProviderAuth, core.GetCode(err))
	assert.Equal(t, 1, o.CallCount())
}

func TestDecorateOracle(t *testing.T) {
	o := testutil.NewScriptedOracle("base").RespondText("ok")

	plain := DecorateOracle(o, OracleOptions{})
	assert.Same(t, o, plain)

	decorated := DecorateOracle(o, OracleOptions{
		Timeout:       time.Second,
		RatePerSecond: 100,
		Burst:         1,
		Retry:         NewRetryPolicy(WithMaxAttempts(2)),
	})
	_, isRetry := decorated.(*RetryingOracle)
	assert.True(t, isRetry)
	assert.Equal(t, "base", decorated.Name())

	out, err := decorated.Complete(context.Background(), core.OracleRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
