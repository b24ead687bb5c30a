package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream unavailable")

func failing(n int, calls *int) func() error {
	return func() error {
		*calls++
		if *calls <= n {
			return errUpstream
		}
		return nil
	}
}

func TestCircuitBreakerTransitions(t *testing.T) {
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		MaxFailures:      2,
		Timeout:          20 * time.Millisecond,
		HalfOpenMaxCalls: 1,
	})
	require.Equal(t, StateClosed, cb.State())

	for range 2 {
		assert.ErrorIs(t, cb.Execute(func() error { return errUpstream }), errUpstream)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.False(t, called)

	stats := cb.Stats()
	assert.Equal(t, "open", stats.State)
	assert.Equal(t, 2, stats.Failures)
	assert.False(t, stats.LastFailureTime.IsZero())

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Stats().Failures)
}

func TestCircuitBreakerHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker(&CircuitBreakerConfig{MaxFailures: 1, Timeout: 10 * time.Millisecond, HalfOpenMaxCalls: 1})
	_ = cb.Execute(func() error { return errUpstream })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.ErrorIs(t, cb.Execute(func() error { return errUpstream }), errUpstream)
	assert.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "closed", cb.Stats().State)
}

func TestCircuitBreakerStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", CircuitBreakerState(9).String())
}

func TestRetryWithBackoff(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantCalls int
		wantErr   string
	}{
		{"首次成功", 0, 1, ""},
		{"重试后成功", 2, 3, ""},
		{"达到最大次数", 5, 3, "max retry attempts (3) reached"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(context.Background(), fastRetry(), failing(tt.failures, &calls))
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
			assert.ErrorIs(t, err, errUpstream)
		})
	}
}

func TestRetryWithBackoffStopsEarly(t *testing.T) {
	t.Run("不可重试错误", func(t *testing.T) {
		cfg := fastRetry()
		cfg.RetryableErrors = func(error) bool { return false }
		calls := 0
		err := RetryWithBackoff(context.Background(), cfg, failing(5, &calls))
		assert.Equal(t, 1, calls)
		assert.Equal(t, errUpstream, err)
	})

	t.Run("上下文取消", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cfg := fastRetry()
		cfg.MaxAttempts = 10
		cfg.InitialDelay = 50 * time.Millisecond
		calls := 0
		err := RetryWithBackoff(ctx, cfg, func() error {
			calls++
			cancel()
			return errUpstream
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("零次尝试按一次处理", func(t *testing.T) {
		cfg := fastRetry()
		cfg.MaxAttempts = 0
		calls := 0
		err := RetryWithBackoff(context.Background(), cfg, failing(1, &calls))
		assert.Equal(t, 1, calls)
		assert.ErrorContains(t, err, "max retry attempts (1) reached")
	})
}

func TestRetryWithCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(&CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute, HalfOpenMaxCalls: 1})
	calls := 0
	err := RetryWithCircuitBreaker(context.Background(), fastRetry(), cb, failing(10, &calls))

	// 第三次尝试被熔断器拒绝，不再调用下游
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.Equal(t, StateOpen, cb.State())
}

func TestDefaultConfigs(t *testing.T) {
	rc := DefaultRetryConfig()
	assert.Equal(t, 3, rc.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, rc.InitialDelay)
	assert.NotNil(t, rc.RetryableErrors)

	cbc := DefaultCircuitBreakerConfig()
	assert.Equal(t, 5, cbc.MaxFailures)
	assert.Equal(t, time.Minute, cbc.Timeout)
}
