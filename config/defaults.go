// =============================================================================
// 📦 Blossom 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		Client:    DefaultClientConfig(),
		Cache:     DefaultCacheConfig(),
		Redis:     DefaultRedisConfig(),
		Retry:     DefaultRetryConfig(),
		History:   DefaultHistoryConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultClientConfig 返回默认客户端配置。
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:        2 * time.Minute,
		Referrer:       "blossom-go",
		RateLimitRPS:   0, // 不限流
		RateLimitBurst: 1,
		ImageModel:     "flux",
		TextModel:      "openai",
	}
}

// DefaultCacheConfig 返回默认缓存配置。
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:        true,
		LocalMaxSize:   256,
		LocalTTL:       5 * time.Minute,
		RedisTTL:       1 * time.Hour,
		MaxPayloadSize: 8 << 20,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置。Addr 为空即不启用。
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     "",
		DB:       0,
		PoolSize: 10,
	}
}

// DefaultRetryConfig 返回默认重试配置。
// 错误默认直接上抛，重试是显式选择。
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Enabled:      false,
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// DefaultHistoryConfig 返回默认历史配置。
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Enabled:   true,
		Path:      "", // 默认 ~/.blossom/history.db
		Retention: 90 * 24 * time.Hour,
	}
}

// DefaultLogConfig 返回默认日志配置。
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:          "info",
		Format:         "console",
		FileMaxSizeMB:  32,
		FileMaxBackups: 3,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置。
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "blossom",
		SampleRate:   0.1,
	}
}
