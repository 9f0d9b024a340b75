// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// 包 middleware 提供挂在客户端请求链上的内置中间件。
// 中间件类型定义在核心包（pollinations.Middleware），经
// pollinations.WithMiddleware 注入，按传入顺序从外到内包裹
// 裸 HTTP 客户端。本包只是常用实现的集合，用户可以自由混搭
// 自己的实现。
package middleware

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/blossom-ai/blossom-go/pollinations"
)

// Logging 记录每个请求的方法、URL、状态与耗时。
// 客户端自身的 debug 日志只覆盖经 Client.Do 的调用；
// 本中间件可看到重试中间件产生的每一次实际请求。
func Logging(logger *zap.Logger) pollinations.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next pollinations.Doer) pollinations.Doer {
		return pollinations.DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.Do(req)
			elapsed := time.Since(start)

			if err != nil {
				logger.Debug("http request failed",
					zap.String("method", req.Method),
					zap.String("url", req.URL.Redacted()),
					zap.Duration("elapsed", elapsed),
					zap.Error(err),
				)
				return nil, err
			}
			logger.Debug("http request",
				zap.String("method", req.Method),
				zap.String("url", req.URL.Redacted()),
				zap.Int("status", resp.StatusCode),
				zap.Duration("elapsed", elapsed),
			)
			return resp, nil
		})
	}
}

// Headers 给每个请求追加固定头，已存在的头不覆盖。
func Headers(headers map[string]string) pollinations.Middleware {
	return func(next pollinations.Doer) pollinations.Doer {
		return pollinations.DoerFunc(func(req *http.Request) (*http.Response, error) {
			for k, v := range headers {
				if req.Header.Get(k) == "" {
					req.Header.Set(k, v)
				}
			}
			return next.Do(req)
		})
	}
}

// Waiter 阻塞式限流接口，golang.org/x/time/rate.Limiter 天然满足。
type Waiter interface {
	Wait(ctx context.Context) error
}

// RateLimit 在请求前阻塞等待限流额度。
// 与 pollinations.WithRateLimit 等价，放在中间件形态便于与重试组合：
// 挂在重试中间件之内时，每次重试也各自消耗额度。
func RateLimit(limiter Waiter) pollinations.Middleware {
	return func(next pollinations.Doer) pollinations.Doer {
		return pollinations.DoerFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
			return next.Do(req)
		})
	}
}

// RetryConfig 配置重试中间件。
type RetryConfig struct {
	MaxRetries int           // 最大重试次数
	BaseDelay  time.Duration // 线性退避基准
	Logger     *zap.Logger
}

// Retry 在传输错误或可重试状态码（408/429/5xx）时重发请求。
// 带请求体的请求只有在 GetBody 可用时才会重试（标准库为
// bytes.Reader 等常见体自动填充）。更完整的指数退避见
// pollinations/retry 包，本中间件是轻量线性版本。
func Retry(cfg RetryConfig) pollinations.Middleware {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next pollinations.Doer) pollinations.Doer {
		return pollinations.DoerFunc(func(req *http.Request) (*http.Response, error) {
			var resp *http.Response
			var err error

			for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
				if attempt > 0 {
					delay := cfg.BaseDelay * time.Duration(attempt)
					if resp != nil {
						if ra := pollinations.RetryAfterFromHeader(resp.Header); ra > 0 {
							delay = ra
						}
						// 重试前丢弃上一次的响应体，连接才能复用
						io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
						resp.Body.Close()
					}

					select {
					case <-req.Context().Done():
						return nil, req.Context().Err()
					case <-time.After(delay):
					}

					if req.Body != nil {
						if req.GetBody == nil {
							return resp, err
						}
						body, rerr := req.GetBody()
						if rerr != nil {
							return resp, err
						}
						req.Body = body
					}
					logger.Debug("retrying http request",
						zap.Int("attempt", attempt),
						zap.String("url", req.URL.Redacted()),
					)
				}

				resp, err = next.Do(req)
				if err != nil {
					continue
				}
				if !retryableStatus(resp.StatusCode) {
					return resp, nil
				}
			}
			return resp, err
		})
	}
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return status >= 500
}
