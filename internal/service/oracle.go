package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

// OracleOptions configures the decorator chain wrapped around a provider.
type OracleOptions struct {
	Timeout       time.Duration
	Retry         *RetryPolicy
	RatePerSecond float64
	Burst         int
	Logger        *logging.Logger
}

// DecorateOracle wraps base with, from outermost to innermost: retry, rate
// limit, per-call timeout. Zero values disable the matching decorator.
func DecorateOracle(base core.Oracle, opts OracleOptions) core.Oracle {
	o := base
	if opts.Timeout > 0 {
		o = &TimeoutOracle{next: o, timeout: opts.Timeout}
	}
	if opts.RatePerSecond > 0 {
		o = NewRateLimitedOracle(o, opts.RatePerSecond, opts.Burst)
	}
	if opts.Retry != nil && opts.Retry.MaxAttempts > 1 {
		o = &RetryingOracle{next: o, policy: opts.Retry, logger: opts.Logger}
	}
	return o
}

// ctxProviderError converts a caller-side context failure into a provider error.
func ctxProviderError(provider string, err error) error {
	code := core.CodeProviderUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		code = core.CodeProviderTimeout
	}
	return core.ErrProvider(provider, code, err.Error()).WithCause(err)
}

// TimeoutOracle bounds every call with its own deadline.
type TimeoutOracle struct {
	next    core.Oracle
	timeout time.Duration
}

// NewTimeoutOracle creates a TimeoutOracle.
func NewTimeoutOracle(next core.Oracle, timeout time.Duration) *TimeoutOracle {
	return &TimeoutOracle{next: next, timeout: timeout}
}

// Name implements core.Oracle.
func (o *TimeoutOracle) Name() string { return o.next.Name() }

// Complete implements core.Oracle.
func (o *TimeoutOracle) Complete(ctx context.Context, req core.OracleRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	out, err := o.next.Complete(callCtx, req)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", core.ErrProvider(o.Name(), core.CodeProviderTimeout, "call exceeded "+o.timeout.String()).WithCause(err)
	}
	return out, err
}

// RateLimitedOracle spaces calls with a token bucket shared by every
// session using the same provider.
type RateLimitedOracle struct {
	next    core.Oracle
	limiter *rate.Limiter
}

// NewRateLimitedOracle creates a limiter allowing perSecond calls with the
// given burst.
func NewRateLimitedOracle(next core.Oracle, perSecond float64, burst int) *RateLimitedOracle {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedOracle{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Name implements core.Oracle.
func (o *RateLimitedOracle) Name() string { return o.next.Name() }

// Complete implements core.Oracle.
func (o *RateLimitedOracle) Complete(ctx context.Context, req core.OracleRequest) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return "", ctxProviderError(o.Name(), ctx.Err())
		}
		return "", core.ErrProvider(o.Name(), core.CodeProviderRateLimited, "local rate limit").WithCause(err)
	}
	return o.next.Complete(ctx, req)
}

// RetryingOracle retries retryable provider errors.
type RetryingOracle struct {
	next   core.Oracle
	policy *RetryPolicy
	logger *logging.Logger
}

// NewRetryingOracle creates a RetryingOracle.
func NewRetryingOracle(next core.Oracle, policy *RetryPolicy, logger *logging.Logger) *RetryingOracle {
	return &RetryingOracle{next: next, policy: policy, logger: logger}
}

// Name implements core.Oracle.
func (o *RetryingOracle) Name() string { return o.next.Name() }

// Complete implements core.Oracle.
func (o *RetryingOracle) Complete(ctx context.Context, req core.OracleRequest) (string, error) {
	var out string
	err := o.policy.ExecuteWithNotify(ctx, func(ctx context.Context) error {
		var err error
		out, err = o.next.Complete(ctx, req)
		return err
	}, func(attempt int, err error, delay time.Duration) {
		if o.logger != nil {
			o.logger.WithProvider(o.Name()).Debug("retrying oracle call",
				"attempt", attempt, "delay", delay, "error", err)
		}
	})
	if err == nil {
		return out, nil
	}
	if !core.IsProviderError(err) {
		return "", ctxProviderError(o.Name(), err)
	}
	return "", err
}
