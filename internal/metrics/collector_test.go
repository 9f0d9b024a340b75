package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func newTestCollector() *Collector {
	return NewCollector("blossom_test", prometheus.NewRegistry(), zap.NewNop())
}

func TestNewCollector(t *testing.T) {
	collector := newTestCollector()

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.requestsTotal)
	assert.NotNil(t, collector.requestDuration)
	assert.NotNil(t, collector.responseBytes)
	assert.NotNil(t, collector.cacheHits)
	assert.NotNil(t, collector.cacheMisses)
	assert.NotNil(t, collector.retriesTotal)
	assert.NotNil(t, collector.tokensTotal)
}

func TestNewCollector_NilDefaults(t *testing.T) {
	// nil logger 不应 panic；registry 用独立实例避免污染默认 registry
	collector := NewCollector("blossom_test_nil", prometheus.NewRegistry(), nil)
	assert.NotNil(t, collector)
}

func TestCollector_RecordRequest(t *testing.T) {
	collector := newTestCollector()

	// 记录请求
	collector.RecordRequest("image.generate", 200, 100*time.Millisecond)

	// 验证指标
	count := testutil.CollectAndCount(collector.requestsTotal)
	assert.Greater(t, count, 0)

	// 再记录一次相同的请求
	collector.RecordRequest("image.generate", 200, 50*time.Millisecond)

	// 验证计数增加
	v := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("image.generate", "2xx"))
	assert.Equal(t, 2.0, v)
}

func TestCollector_RecordRequest_StatusClasses(t *testing.T) {
	collector := newTestCollector()

	collector.RecordRequest("text.chat", 0, time.Millisecond)
	collector.RecordRequest("text.chat", 201, time.Millisecond)
	collector.RecordRequest("text.chat", 302, time.Millisecond)
	collector.RecordRequest("text.chat", 429, time.Millisecond)
	collector.RecordRequest("text.chat", 502, time.Millisecond)

	for _, class := range []string{"error", "2xx", "3xx", "4xx", "5xx"} {
		v := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("text.chat", class))
		assert.Equal(t, 1.0, v, "class %s", class)
	}
}

func TestCollector_RecordResponseBytes(t *testing.T) {
	collector := newTestCollector()

	collector.RecordResponseBytes("image.generate", 65536)

	count := testutil.CollectAndCount(collector.responseBytes)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordCacheOperation(t *testing.T) {
	collector := newTestCollector()

	// 记录缓存命中与未命中
	collector.RecordCacheHit("local")
	collector.RecordCacheMiss("redis")

	hits := testutil.ToFloat64(collector.cacheHits.WithLabelValues("local"))
	assert.Equal(t, 1.0, hits)

	misses := testutil.ToFloat64(collector.cacheMisses.WithLabelValues("redis"))
	assert.Equal(t, 1.0, misses)
}

func TestCollector_RecordRetry(t *testing.T) {
	collector := newTestCollector()

	collector.RecordRetry("text.generate")
	collector.RecordRetry("text.generate")

	v := testutil.ToFloat64(collector.retriesTotal.WithLabelValues("text.generate"))
	assert.Equal(t, 2.0, v)
}

func TestCollector_RecordTokens(t *testing.T) {
	collector := newTestCollector()

	collector.RecordTokens("openai", 100, 50)
	collector.RecordTokens("openai", 10, 5)

	prompt := testutil.ToFloat64(collector.tokensTotal.WithLabelValues("openai", "prompt"))
	assert.Equal(t, 110.0, prompt)

	completion := testutil.ToFloat64(collector.tokensTotal.WithLabelValues("openai", "completion"))
	assert.Equal(t, 55.0, completion)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := newTestCollector()

	// 并发记录多个指标
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			collector.RecordRequest("image.generate", 200, 100*time.Millisecond)
			collector.RecordCacheHit("local")
			collector.RecordRetry("image.generate")
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	v := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("image.generate", "2xx"))
	assert.Equal(t, 10.0, v)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "error", statusClass(0))
	assert.Equal(t, "2xx", statusClass(200))
	assert.Equal(t, "3xx", statusClass(304))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
	assert.Equal(t, "unknown", statusClass(42))
}
