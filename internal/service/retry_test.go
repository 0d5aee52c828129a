package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

func rateLimited() error {
	return core.ErrProvider("test", core.CodeProviderRateLimited, "slow down")
}

func TestRetryPolicy_Execute_Success(t *testing.T) {
	policy := NewRetryPolicy(WithMaxAttempts(3))

	callCount := 0
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v, want nil", err)
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1", callCount)
	}
}

func TestRetryPolicy_Execute_SuccessAfterRetry(t *testing.T) {
	policy := NewRetryPolicy(WithMaxAttempts(3), WithBaseDelay(time.Millisecond))

	callCount := 0
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		callCount++
		if callCount < 3 {
			return rateLimited()
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v, want nil", err)
	}
	if callCount != 3 {
		t.Errorf("callCount = %d, want 3", callCount)
	}
}

func TestRetryPolicy_Execute_NonRetryable(t *testing.T) {
	policy := NewRetryPolicy(WithMaxAttempts(3))
	authErr := core.ErrProvider("test", core.CodeProviderAuth, "bad key")

	callCount := 0
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		callCount++
		return authErr
	})

	if !errors.Is(err, authErr) {
		t.Errorf("Execute() error = %v, want %v", err, authErr)
	}
	if IsRetryExhausted(err) {
		t.Error("non-retryable error should be returned as-is")
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1", callCount)
	}
}

func TestRetryPolicy_Execute_Exhausted(t *testing.T) {
	policy := NewRetryPolicy(WithMaxAttempts(3), WithBaseDelay(time.Millisecond))

	callCount := 0
	notified := 0
	err := policy.ExecuteWithNotify(context.Background(), func(ctx context.Context) error {
		callCount++
		return rateLimited()
	}, func(attempt int, err error, delay time.Duration) {
		notified++
	})

	if !IsRetryExhausted(err) {
		t.Fatalf("Execute() error = %v, want RetryExhaustedError", err)
	}
	if core.GetCode(err) != core.CodeProviderRateLimited {
		t.Errorf("exhausted error should unwrap to the last provider error, got code %q", core.GetCode(err))
	}
	if callCount != 3 {
		t.Errorf("callCount = %d, want 3", callCount)
	}
	if notified != 2 {
		t.Errorf("notified = %d, want 2", notified)
	}
}

func TestRetryPolicy_Execute_ContextCancelled(t *testing.T) {
	policy := NewRetryPolicy(WithMaxAttempts(5), WithBaseDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())

	err := policy.ExecuteWithNotify(ctx, func(ctx context.Context) error {
		return rateLimited()
	}, func(int, error, time.Duration) { cancel() })

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestRetryPolicy_CalculateDelayNoJitter(t *testing.T) {
	policy := NewRetryPolicy(WithBaseDelay(100*time.Millisecond), WithMaxDelay(time.Second))

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{5, time.Second},
	}
	for _, tt := range tests {
		if got := policy.CalculateDelayNoJitter(tt.attempt); got != tt.want {
			t.Errorf("CalculateDelayNoJitter(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryPolicy_CalculateDelayJitterBounds(t *testing.T) {
	policy := NewRetryPolicy(WithBaseDelay(100*time.Millisecond), WithJitter(0.2))
	for i := 0; i < 50; i++ {
		d := policy.CalculateDelay(1)
		if d < 80*time.Millisecond || d > 120*time.Millisecond {
			t.Fatalf("CalculateDelay(1) = %v, outside jitter bounds", d)
		}
	}
}

func TestNewRetryPolicy_ClampsAttempts(t *testing.T) {
	if got := NewRetryPolicy(WithMaxAttempts(0)).MaxAttempts; got != 1 {
		t.Errorf("MaxAttempts = %d, want 1", got)
	}
}
