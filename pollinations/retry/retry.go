// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// 包 retry 提供指数退避重试。错误默认直接上抛，重试是显式选择：
// 用 Do/DoWithResult 包裹调用，或通过客户端的重试中间件接入。
// 只有 Retryable 标记为真的 *pollinations.Error 才会触发重试；
// 限流错误的 Retry-After 提示优先于退避计算。
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/blossom-ai/blossom-go/pollinations"
)

// Policy 定义重试策略。
type Policy struct {
	MaxRetries   int           // 最大重试次数（0 表示不重试）
	InitialDelay time.Duration // 初始延迟
	MaxDelay     time.Duration // 延迟上限
	Multiplier   float64       // 指数退避倍增因子
	Jitter       bool          // 是否添加随机抖动（防止雪崩）

	// OnRetry 每次重试前回调，用于埋点。
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy 返回适合生成类 API 的默认策略。
func DefaultPolicy() *Policy {
	return &Policy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Retryer 带策略地重复执行函数。
type Retryer struct {
	policy *Policy
	logger *zap.Logger
}

// New 创建重试器。policy 为 nil 时使用默认策略，非法字段被矫正。
func New(policy *Policy, logger *zap.Logger) *Retryer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 1 * time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 30 * time.Second
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retryer{policy: policy, logger: logger}
}

// Do 执行 fn，失败且可重试时按策略重试。
func (r *Retryer) Do(ctx context.Context, fn func() error) error {
	_, err := DoWithResult(ctx, r, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult 执行 fn 并返回结果，失败且可重试时按策略重试。
// 退避等待期间监听 context 取消；限流错误的 Retry-After 覆盖退避计算。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.delayFor(attempt, lastErr)

			r.logger.Debug("retrying request",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", r.policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempt, lastErr, delay)
			}

			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				r.logger.Info("retry succeeded", zap.Int("attempt", attempt))
			}
			return result, nil
		}
		lastErr = err

		if !pollinations.IsRetryable(err) {
			r.logger.Debug("error is not retryable", zap.Error(err))
			return zero, err
		}
		if attempt >= r.policy.MaxRetries {
			break
		}
	}

	r.logger.Warn("retries exhausted",
		zap.Int("attempts", r.policy.MaxRetries+1),
		zap.Error(lastErr),
	)
	return zero, fmt.Errorf("still failing after %d retries: %w", r.policy.MaxRetries, lastErr)
}

// delayFor 计算下一次重试的等待时间。
// 上游给出的 Retry-After 优先；否则指数退避加可选抖动。
func (r *Retryer) delayFor(attempt int, lastErr error) time.Duration {
	if pe, ok := pollinations.AsError(lastErr); ok && pe.RetryAfter > 0 {
		if pe.RetryAfter > r.policy.MaxDelay {
			return r.policy.MaxDelay
		}
		return pe.RetryAfter
	}

	delay := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1))
	if delay > float64(r.policy.MaxDelay) {
		delay = float64(r.policy.MaxDelay)
	}

	// ±25% 抖动，避免多个客户端同步重试
	if r.policy.Jitter {
		jitter := delay * 0.25
		delay = delay + (rand.Float64()*2-1)*jitter
	}
	if delay < float64(r.policy.InitialDelay) {
		delay = float64(r.policy.InitialDelay)
	}
	return time.Duration(delay)
}
