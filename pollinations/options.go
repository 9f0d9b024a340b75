package pollinations

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Option 配置 Client。
type Option func(*clientOptions)

type clientOptions struct {
	token       string
	timeout     time.Duration
	debug       bool
	logger      *zap.Logger
	httpClient  *http.Client
	imageBase   string
	textBase    string
	referrer    string
	limiter     *rate.Limiter
	tracer      trace.Tracer
	metricsReg  prometheus.Registerer
	middlewares []Middleware
}

// WithToken 显式指定 API token，优先于环境变量。
func WithToken(token string) Option {
	return func(o *clientOptions) { o.token = strings.TrimSpace(token) }
}

// WithTimeout 设置整体请求超时。传入 WithHTTPClient 时此项被忽略。
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithDebug 打开调试日志。未注入 logger 时会自动构建开发模式 zap。
func WithDebug() Option {
	return func(o *clientOptions) { o.debug = true }
}

// WithLogger 注入 zap 日志器。
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithHTTPClient 注入自定义 HTTP 客户端（代理、自定义 TLS 等场景）。
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithImageBase 覆盖图像服务基地址，主要用于测试与私有部署。
func WithImageBase(base string) Option {
	return func(o *clientOptions) { o.imageBase = base }
}

// WithTextBase 覆盖文本服务基地址。
func WithTextBase(base string) Option {
	return func(o *clientOptions) { o.textBase = base }
}

// WithReferrer 设置随请求上报的应用标识。
func WithReferrer(ref string) Option {
	return func(o *clientOptions) { o.referrer = ref }
}

// WithRateLimit 启用客户端限流：rps 为每秒请求数，burst 为突发容量。
func WithRateLimit(rps float64, burst int) Option {
	return func(o *clientOptions) { o.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithTracing 启用 OpenTelemetry 追踪，每次请求产生一个 span。
// 使用全局 TracerProvider；未初始化时为 noop。
func WithTracing() Option {
	return func(o *clientOptions) { o.tracer = otel.Tracer("blossom-go") }
}

// WithMetrics 启用 Prometheus 指标，注册到给定 registry。
// reg 为 nil 时使用默认 registry；同一 registry 只能启用一次。
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *clientOptions) {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		o.metricsReg = reg
	}
}

// WithMiddleware 追加请求中间件，按传入顺序从外到内包裹。
func WithMiddleware(mws ...Middleware) Option {
	return func(o *clientOptions) { o.middlewares = append(o.middlewares, mws...) }
}

func (o *clientOptions) apply(c *Client) error {
	if o.timeout < 0 {
		return InvalidRequest(
			fmt.Sprintf("timeout %v must not be negative", o.timeout),
			"pass a positive duration to WithTimeout",
		)
	}
	if o.imageBase != "" {
		if err := checkBaseURL(o.imageBase); err != nil {
			return err
		}
		c.imageBase = o.imageBase
	}
	if o.textBase != "" {
		if err := checkBaseURL(o.textBase); err != nil {
			return err
		}
		c.textBase = o.textBase
	}
	c.token = o.token
	c.debug = o.debug
	if o.logger != nil {
		c.logger = o.logger
	}
	c.httpClient = o.httpClient
	if o.referrer != "" {
		c.referrer = o.referrer
	}
	c.limiter = o.limiter
	c.tracer = o.tracer
	c.middlewares = o.middlewares
	return nil
}

func checkBaseURL(base string) error {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return InvalidRequest(
			fmt.Sprintf("base URL %q is not a valid absolute URL", base),
			"use a full http(s) URL like https://image.pollinations.ai",
		)
	}
	return nil
}
