package pollinations

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/blossom-ai/blossom-go/internal/metrics"
	"github.com/blossom-ai/blossom-go/internal/tlsutil"
)

const (
	// DefaultImageBase 图像生成服务的默认地址。
	DefaultImageBase = "https://image.pollinations.ai"
	// DefaultTextBase 文本生成服务的默认地址（语音与视觉也走这里）。
	DefaultTextBase = "https://text.pollinations.ai"

	// EnvAPIKey 主 token 环境变量。
	EnvAPIKey = "POLLINATIONS_API_KEY"
	// EnvAPIKeyAlt 备用 token 环境变量，优先级低于 EnvAPIKey。
	EnvAPIKeyAlt = "BLOSSOM_API_KEY"

	// DefaultTimeout 默认请求超时。图像生成在上游可能耗时较长。
	DefaultTimeout = 120 * time.Second
)

// Doer 执行单个 HTTP 请求。*http.Client 天然满足该接口。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc 将函数适配为 Doer。
type DoerFunc func(req *http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// Middleware 包裹 Doer 并添加额外行为，组合方式同 http.Handler 中间件。
type Middleware func(next Doer) Doer

// Client 持有 HTTP 传输、鉴权与可观测配置，是所有服务共享的底座。
// 并发安全；用完调用 Close 释放空闲连接。
type Client struct {
	httpClient  *http.Client
	doer        Doer
	imageBase   string
	textBase    string
	token       string
	referrer    string
	userAgent   string
	logger      *zap.Logger
	limiter     *rate.Limiter
	tracer      trace.Tracer
	collector   *metrics.Collector
	middlewares []Middleware
	debug       bool
}

// NewClient 创建客户端。token 解析顺序：
// WithToken > POLLINATIONS_API_KEY > BLOSSOM_API_KEY，均为空则匿名档位。
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		imageBase: DefaultImageBase,
		textBase:  DefaultTextBase,
		referrer:  "blossom-go",
		userAgent: "blossom-go/" + Version,
		logger:    zap.NewNop(),
	}

	var o clientOptions
	o.timeout = DefaultTimeout
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.apply(c); err != nil {
		return nil, err
	}

	if c.token == "" {
		c.token = TokenFromEnv()
	}
	if c.httpClient == nil {
		c.httpClient = tlsutil.SecureHTTPClient(o.timeout)
	}
	if c.debug && o.logger == nil {
		if l, err := zap.NewDevelopment(); err == nil {
			c.logger = l
		}
	}
	if o.metricsReg != nil {
		c.collector = metrics.NewCollector("blossom", o.metricsReg, c.logger)
	}

	// 组合 do 链：用户中间件在最外层，内层是裸 HTTP 客户端
	var d Doer = c.httpClient
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		d = c.middlewares[i](d)
	}
	c.doer = d

	return c, nil
}

// TokenFromEnv 按优先级从环境变量读取 token。
func TokenFromEnv() string {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(EnvAPIKeyAlt))
}

// ImageBaseURL 返回图像服务基地址（无结尾斜杠）。
func (c *Client) ImageBaseURL() string { return strings.TrimRight(c.imageBase, "/") }

// TextBaseURL 返回文本服务基地址（无结尾斜杠）。
func (c *Client) TextBaseURL() string { return strings.TrimRight(c.textBase, "/") }

// Referrer 返回随请求上报的应用标识。
func (c *Client) Referrer() string { return c.referrer }

// HasToken 返回是否配置了 token。
func (c *Client) HasToken() bool { return c.token != "" }

// Logger 返回客户端日志器，服务层共用。
func (c *Client) Logger() *zap.Logger { return c.logger }

// Debug 返回是否开启调试日志。
func (c *Client) Debug() bool { return c.debug }

// StatsRecorder 接收缓存命中统计，由指标收集器实现。
type StatsRecorder interface {
	RecordCacheHit(level string)
	RecordCacheMiss(level string)
}

// Stats 返回缓存统计接收器；未启用指标时为 nil。
func (c *Client) Stats() StatsRecorder {
	if c.collector == nil {
		return nil
	}
	return c.collector
}

// RecordResponseSize 记录响应体大小；未启用指标时为 no-op。
func (c *Client) RecordResponseSize(op string, n int) {
	if c.collector != nil {
		c.collector.RecordResponseBytes(op, n)
	}
}

// RecordRetry 记录一次重试；未启用指标时为 no-op。
func (c *Client) RecordRetry(op string) {
	if c.collector != nil {
		c.collector.RecordRetry(op)
	}
}

// RecordTokenUsage 记录文本端点上报的 token 用量；未启用指标时为 no-op。
func (c *Client) RecordTokenUsage(model string, promptTokens, completionTokens int) {
	if c.collector != nil {
		c.collector.RecordTokens(model, promptTokens, completionTokens)
	}
}

// Do 执行请求并套用限流、鉴权、追踪与指标。
// op 是操作标签（如 "image.generate"），用于日志、span 与指标维度。
// 网络层错误会被映射为 *Error；HTTP 状态码由调用方自行判定。
func (c *Client) Do(ctx context.Context, req *http.Request, op string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{
				Code:       ErrTimeout,
				Message:    "rate limiter wait aborted: " + err.Error(),
				Suggestion: defaultSuggestion(ErrTimeout),
				Endpoint:   op,
			}
		}
	}

	req = req.WithContext(ctx)
	if c.token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", c.userAgent)

	requestID := uuid.NewString()
	if c.debug {
		c.logger.Debug("request",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
		)
	}

	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.Start(ctx, "pollinations."+op)
		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.host", req.URL.Host),
			attribute.String("request.id", requestID),
		)
		req = req.WithContext(ctx)
		defer span.End()
	}

	start := time.Now()
	resp, err := c.doer.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		mapped := mapTransportError(err, op)
		if span != nil {
			span.RecordError(mapped)
			span.SetStatus(codes.Error, string(mapped.Code))
		}
		if c.collector != nil {
			c.collector.RecordRequest(op, 0, elapsed)
		}
		if c.debug {
			c.logger.Debug("request failed",
				zap.String("op", op),
				zap.String("request_id", requestID),
				zap.Duration("elapsed", elapsed),
				zap.Error(mapped),
			)
		}
		return nil, mapped
	}

	if span != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		if resp.StatusCode >= 400 {
			span.SetStatus(codes.Error, resp.Status)
		}
	}
	if c.collector != nil {
		c.collector.RecordRequest(op, resp.StatusCode, elapsed)
	}
	if c.debug {
		c.logger.Debug("response",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", elapsed),
		)
	}
	return resp, nil
}

// mapTransportError 将传输层错误归类为超时、取消或网络错误。
func mapTransportError(err error, op string) *Error {
	if errors.Is(err, context.Canceled) {
		return &Error{
			Code:     ErrNetwork,
			Message:  "request canceled: " + err.Error(),
			Endpoint: op,
		}
	}
	code := ErrNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		code = ErrTimeout
	} else {
		var ne interface{ Timeout() bool }
		if errors.As(err, &ne) && ne.Timeout() {
			code = ErrTimeout
		}
	}
	return &Error{
		Code:       code,
		Message:    err.Error(),
		Suggestion: defaultSuggestion(code),
		Retryable:  true,
		Endpoint:   op,
	}
}

// Close 释放空闲连接。Client 此后不可再用。
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
