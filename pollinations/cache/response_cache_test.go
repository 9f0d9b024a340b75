package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 MultiLevel 缓存测试
// =============================================================================

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *MultiLevel) {
	// 创建 miniredis 实例
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mlc := NewMultiLevel(rdb, DefaultConfig(), zap.NewNop())
	return mr, mlc
}

func TestMultiLevel_SetAndGet(t *testing.T) {
	_, mlc := setupTestCache(t)
	ctx := context.Background()

	entry := &Entry{
		Payload:     []byte("image-bytes"),
		ContentType: "image/jpeg",
		Model:       "flux",
		Seed:        42,
	}
	require.NoError(t, mlc.Set(ctx, "k1", entry))

	got, err := mlc.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), got.Payload)
	assert.Equal(t, "image/jpeg", got.ContentType)
	assert.Equal(t, int64(42), got.Seed)
}

func TestMultiLevel_Miss(t *testing.T) {
	_, mlc := setupTestCache(t)

	_, err := mlc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMultiLevel_RedisBackfillsLocal(t *testing.T) {
	_, mlc := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, mlc.Set(ctx, "k1", &Entry{Payload: []byte("data")}))

	// 清空本地层，命中应落到 Redis 并回填本地
	mlc.Clear()
	size, _ := mlc.LocalStats()
	require.Equal(t, 0, size)

	got, err := mlc.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got.Payload)

	size, _ = mlc.LocalStats()
	assert.Equal(t, 1, size)
}

func TestMultiLevel_Delete(t *testing.T) {
	_, mlc := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, mlc.Set(ctx, "k1", &Entry{Payload: []byte("data")}))
	require.NoError(t, mlc.Delete(ctx, "k1"))

	_, err := mlc.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMultiLevel_RedisTTLExpiry(t *testing.T) {
	mr, mlc := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, mlc.Set(ctx, "k1", &Entry{Payload: []byte("data")}))

	// 模拟超过 Redis TTL，且本地层也过期
	mlc.Clear()
	mr.FastForward(2 * time.Hour)

	_, err := mlc.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMultiLevel_PayloadSizeLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := DefaultConfig()
	cfg.MaxPayloadSize = 8
	mlc := NewMultiLevel(rdb, cfg, zap.NewNop())
	ctx := context.Background()

	// 超限条目应被静默跳过
	require.NoError(t, mlc.Set(ctx, "big", &Entry{Payload: []byte("0123456789abcdef")}))
	_, err = mlc.Get(ctx, "big")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// 限内条目正常缓存
	require.NoError(t, mlc.Set(ctx, "small", &Entry{Payload: []byte("1234")}))
	got, err := mlc.Get(ctx, "small")
	require.NoError(t, err)
	assert.Equal(t, []byte("1234"), got.Payload)
}

func TestMultiLevel_LocalOnly(t *testing.T) {
	mlc := NewLocal(16, time.Minute, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, mlc.Set(ctx, "k1", &Entry{Payload: []byte("data")}))
	got, err := mlc.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got.Payload)
}

type statsSpy struct {
	hits   map[string]int
	misses map[string]int
}

func newStatsSpy() *statsSpy {
	return &statsSpy{hits: map[string]int{}, misses: map[string]int{}}
}

func (s *statsSpy) RecordCacheHit(level string)  { s.hits[level]++ }
func (s *statsSpy) RecordCacheMiss(level string) { s.misses[level]++ }

func TestMultiLevel_StatsRecording(t *testing.T) {
	spy := newStatsSpy()
	cfg := DefaultConfig()
	cfg.EnableRedis = false
	cfg.Stats = spy
	mlc := NewMultiLevel(nil, cfg, zap.NewNop())
	ctx := context.Background()

	_, err := mlc.Get(ctx, "k1")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, mlc.Set(ctx, "k1", &Entry{Payload: []byte("x")}))
	_, err = mlc.Get(ctx, "k1")
	require.NoError(t, err)

	assert.Equal(t, 1, spy.hits["local"])
	assert.Equal(t, 1, spy.misses["multi"])
}

func TestMultiLevel_HitCountIncrement(t *testing.T) {
	_, mlc := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, mlc.Set(ctx, "k1", &Entry{Payload: []byte("data")}))

	// 直接驱动命中计数脚本，避免依赖异步路径
	mlc.incrementHitCount(ctx, "k1")

	mlc.Clear()
	got, err := mlc.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.HitCount)
}
