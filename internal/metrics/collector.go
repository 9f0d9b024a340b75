// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
// 按操作（image.generate / text.chat / ...）维度记录请求量、时延与缓存效果
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseBytes   *prometheus.HistogramVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	retriesTotal *prometheus.CounterVec
	tokensTotal  *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
// reg 为 nil 时注册到默认 registry；SDK 场景建议传入独立 registry 避免重复注册
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of generation API requests",
		},
		[]string{"op", "status"},
	)

	c.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Generation API request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"op"},
	)

	c.responseBytes = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_size_bytes",
			Help:      "Generation API response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"op"},
	)

	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of response cache hits",
		},
		[]string{"level"},
	)

	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of response cache misses",
		},
		[]string{"level"},
	)

	c.retriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Total number of request retries",
		},
		[]string{"op"},
	)

	c.tokensTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Total number of tokens reported by the text endpoint",
		},
		[]string{"model", "type"}, // type: prompt, completion
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 请求指标记录
// =============================================================================

// RecordRequest 记录一次请求
// status 为 0 表示传输层失败
func (c *Collector) RecordRequest(op string, status int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(op, statusClass(status)).Inc()
	c.requestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordResponseBytes 记录响应体大小
func (c *Collector) RecordResponseBytes(op string, n int) {
	c.responseBytes.WithLabelValues(op).Observe(float64(n))
}

// RecordRetry 记录一次重试
func (c *Collector) RecordRetry(op string) {
	c.retriesTotal.WithLabelValues(op).Inc()
}

// RecordTokens 记录 token 用量
func (c *Collector) RecordTokens(model string, promptTokens, completionTokens int) {
	c.tokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	c.tokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(level string) {
	c.cacheHits.WithLabelValues(level).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(level string) {
	c.cacheMisses.WithLabelValues(level).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusClass 将 HTTP 状态码归类为低基数标签
func statusClass(code int) string {
	switch {
	case code == 0:
		return "error"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
