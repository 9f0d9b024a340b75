package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blossom-ai/blossom-go/pollinations"
)

func fastPolicy(maxRetries int) *Policy {
	return &Policy{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func retryableErr() error {
	return &pollinations.Error{
		Code:      pollinations.ErrUpstreamError,
		Message:   "upstream down",
		Retryable: true,
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	r := New(fastPolicy(3), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return retryableErr()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	r := New(fastPolicy(5), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return pollinations.InvalidRequest("bad width", "")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	pe, ok := pollinations.AsError(err)
	require.True(t, ok)
	assert.Equal(t, pollinations.ErrInvalidRequest, pe.Code)
}

func TestDo_PlainErrorIsNotRetried(t *testing.T) {
	r := New(fastPolicy(5), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return errors.New("some plain error")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustionWrapsLastError(t *testing.T) {
	r := New(fastPolicy(2), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return retryableErr()
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls) // 1 次原始 + 2 次重试

	// 原始错误仍可从链中提取
	pe, ok := pollinations.AsError(err)
	require.True(t, ok)
	assert.Equal(t, pollinations.ErrUpstreamError, pe.Code)
}

func TestDo_RetryAfterOverridesBackoff(t *testing.T) {
	policy := fastPolicy(1)
	var observed time.Duration
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		observed = delay
	}
	r := New(policy, zap.NewNop())

	_ = r.Do(context.Background(), func() error {
		return &pollinations.Error{
			Code:       pollinations.ErrRateLimited,
			Message:    "slow down",
			Retryable:  true,
			RetryAfter: 3 * time.Millisecond,
		}
	})
	assert.Equal(t, 3*time.Millisecond, observed)
}

func TestDo_ContextCancelAbortsWait(t *testing.T) {
	policy := &Policy{
		MaxRetries:   3,
		InitialDelay: 10 * time.Second, // 取消必须先于等待结束
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
	r := New(policy, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, func() error { return retryableErr() })
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not abort on cancel")
	}
}

func TestDoWithResult(t *testing.T) {
	r := New(fastPolicy(2), zap.NewNop())

	calls := 0
	out, err := DoWithResult(context.Background(), r, func() (string, error) {
		calls++
		if calls == 1 {
			return "", retryableErr()
		}
		return "payload", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "payload", out)
}

func TestNew_CorrectsInvalidPolicy(t *testing.T) {
	r := New(&Policy{MaxRetries: -1, Multiplier: 0.5}, nil)
	assert.Equal(t, 0, r.policy.MaxRetries)
	assert.Equal(t, 2.0, r.policy.Multiplier)
	assert.Equal(t, time.Second, r.policy.InitialDelay)
}
