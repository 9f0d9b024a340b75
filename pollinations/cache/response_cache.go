package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrCacheMiss = errors.New("cache miss")

// ResponseCache 响应缓存接口
type ResponseCache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
}

// Entry 缓存条目
// Payload 是原始响应字节（图像/音频/文本），JSON 序列化时自动 base64
type Entry struct {
	Payload     []byte    `json:"payload"`
	ContentType string    `json:"content_type,omitempty"`
	Model       string    `json:"model,omitempty"`
	Seed        int64     `json:"seed,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	HitCount    int       `json:"hit_count"`
}

// StatsRecorder 接收缓存命中统计
type StatsRecorder interface {
	RecordCacheHit(level string)
	RecordCacheMiss(level string)
}

// Config 缓存配置
type Config struct {
	LocalMaxSize   int           // 本地缓存最大条目数
	LocalTTL       time.Duration // 本地缓存 TTL
	RedisTTL       time.Duration // Redis 缓存 TTL
	EnableLocal    bool          // 是否启用本地缓存
	EnableRedis    bool          // 是否启用 Redis 缓存
	MaxPayloadSize int           // 单条响应大小上限，超过则跳过缓存
	Stats          StatsRecorder // 可选的命中统计接收器
}

// DefaultConfig 默认配置
// 图像响应以 MB 计，本地条目数取保守值
func DefaultConfig() *Config {
	return &Config{
		LocalMaxSize:   256,
		LocalTTL:       5 * time.Minute,
		RedisTTL:       1 * time.Hour,
		EnableLocal:    true,
		EnableRedis:    true,
		MaxPayloadSize: 8 << 20,
	}
}

// MultiLevel 多级缓存实现
type MultiLevel struct {
	local  *LRU
	redis  *redis.Client
	config *Config
	logger *zap.Logger
}

// NewMultiLevel 创建多级缓存
// rdb 为 nil 时只启用本地缓存
func NewMultiLevel(rdb *redis.Client, config *Config, logger *zap.Logger) *MultiLevel {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var local *LRU
	if config.EnableLocal {
		local = NewLRU(config.LocalMaxSize, config.LocalTTL)
	}

	return &MultiLevel{
		local:  local,
		redis:  rdb,
		config: config,
		logger: logger,
	}
}

// NewLocal 创建仅本地的缓存，等价于 Redis 未配置的 MultiLevel
func NewLocal(maxSize int, ttl time.Duration, logger *zap.Logger) *MultiLevel {
	cfg := DefaultConfig()
	cfg.LocalMaxSize = maxSize
	cfg.LocalTTL = ttl
	cfg.EnableRedis = false
	return NewMultiLevel(nil, cfg, logger)
}

// Get 获取缓存
func (c *MultiLevel) Get(ctx context.Context, key string) (*Entry, error) {
	// 1. 查本地缓存
	if c.config.EnableLocal && c.local != nil {
		if entry, ok := c.local.Get(key); ok {
			c.logger.Debug("local cache hit", zap.String("key", key))
			c.recordHit("local")
			return entry, nil
		}
	}

	// 2. 查 Redis 缓存
	if c.config.EnableRedis && c.redis != nil {
		data, err := c.redis.Get(ctx, c.redisKey(key)).Bytes()
		if err == nil {
			var entry Entry
			if err := json.Unmarshal(data, &entry); err == nil {
				// 回填本地缓存
				if c.config.EnableLocal && c.local != nil {
					c.local.Set(key, &entry)
				}
				c.logger.Debug("redis cache hit", zap.String("key", key))
				c.recordHit("redis")
				// 异步更新命中计数
				go c.incrementHitCount(context.Background(), key)
				return &entry, nil
			}
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get error", zap.Error(err))
		}
	}

	c.recordMiss("multi")
	return nil, ErrCacheMiss
}

// Set 设置缓存
// 超过大小上限的条目直接跳过，不算错误
func (c *MultiLevel) Set(ctx context.Context, key string, entry *Entry) error {
	if c.config.MaxPayloadSize > 0 && len(entry.Payload) > c.config.MaxPayloadSize {
		c.logger.Debug("payload exceeds cache limit, skipping",
			zap.String("key", key),
			zap.Int("size", len(entry.Payload)))
		return nil
	}

	entry.CreatedAt = time.Now()
	entry.ExpiresAt = time.Now().Add(c.config.RedisTTL)

	// 1. 写本地缓存
	if c.config.EnableLocal && c.local != nil {
		c.local.Set(key, entry)
	}

	// 2. 写 Redis 缓存
	if c.config.EnableRedis && c.redis != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := c.redis.Set(ctx, c.redisKey(key), data, c.config.RedisTTL).Err(); err != nil {
			c.logger.Warn("redis set error", zap.Error(err))
			return err
		}
	}

	c.logger.Debug("cache set", zap.String("key", key))
	return nil
}

// Delete 删除缓存
func (c *MultiLevel) Delete(ctx context.Context, key string) error {
	if c.config.EnableLocal && c.local != nil {
		c.local.Delete(key)
	}

	if c.config.EnableRedis && c.redis != nil {
		if err := c.redis.Del(ctx, c.redisKey(key)).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Clear 清空本地缓存；Redis 条目依赖 TTL 过期
func (c *MultiLevel) Clear() {
	if c.local != nil {
		c.local.Clear()
	}
}

// LocalStats 返回本地缓存占用
func (c *MultiLevel) LocalStats() (size, capacity int) {
	if c.local == nil {
		return 0, 0
	}
	return c.local.Stats()
}

func (c *MultiLevel) redisKey(key string) string {
	return "blossom:response_cache:" + key
}

func (c *MultiLevel) recordHit(level string) {
	if c.config.Stats != nil {
		c.config.Stats.RecordCacheHit(level)
	}
}

func (c *MultiLevel) recordMiss(level string) {
	if c.config.Stats != nil {
		c.config.Stats.RecordCacheMiss(level)
	}
}

func (c *MultiLevel) incrementHitCount(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	// 使用 Lua 脚本原子更新
	script := redis.NewScript(`
		local key = KEYS[1]
		local data = redis.call('GET', key)
		if data then
			local entry = cjson.decode(data)
			entry.hit_count = (entry.hit_count or 0) + 1
			local ttl = redis.call('TTL', key)
			if ttl > 0 then
				redis.call('SET', key, cjson.encode(entry), 'EX', ttl)
			end
		end
		return 1
	`)
	script.Run(ctx, c.redis, []string{c.redisKey(key)})
}
