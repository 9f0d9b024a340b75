// =============================================================================
// 📦 Blossom 配置
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("blossom.yaml").
//	    WithEnvPrefix("BLOSSOM").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config 是 Blossom CLI 与 SDK 的完整配置结构。
type Config struct {
	// Client 客户端配置
	Client ClientConfig `yaml:"client" env:"CLIENT"`

	// Cache 响应缓存配置
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Redis 作为二级缓存的 Redis 配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Retry 重试配置
	Retry RetryConfig `yaml:"retry" env:"RETRY"`

	// History 生成历史配置
	History HistoryConfig `yaml:"history" env:"HISTORY"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ClientConfig 客户端配置。
type ClientConfig struct {
	// API token，空时回退到 POLLINATIONS_API_KEY / BLOSSOM_API_KEY
	Token string `yaml:"token" env:"TOKEN"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 图像服务基地址（留空用官方地址）
	ImageBase string `yaml:"image_base" env:"IMAGE_BASE"`
	// 文本服务基地址（留空用官方地址）
	TextBase string `yaml:"text_base" env:"TEXT_BASE"`
	// 随请求上报的应用标识
	Referrer string `yaml:"referrer" env:"REFERRER"`
	// 客户端限流：每秒请求数，0 表示不限流
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发容量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// 默认图像模型
	ImageModel string `yaml:"image_model" env:"IMAGE_MODEL"`
	// 默认文本模型
	TextModel string `yaml:"text_model" env:"TEXT_MODEL"`
	// 调试日志
	Debug bool `yaml:"debug" env:"DEBUG"`
}

// CacheConfig 响应缓存配置。
type CacheConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 本地缓存最大条目数
	LocalMaxSize int `yaml:"local_max_size" env:"LOCAL_MAX_SIZE"`
	// 本地缓存 TTL
	LocalTTL time.Duration `yaml:"local_ttl" env:"LOCAL_TTL"`
	// Redis 缓存 TTL
	RedisTTL time.Duration `yaml:"redis_ttl" env:"REDIS_TTL"`
	// 单条响应大小上限
	MaxPayloadSize int `yaml:"max_payload_size" env:"MAX_PAYLOAD_SIZE"`
}

// RedisConfig Redis 配置。Addr 为空表示不启用 Redis 层。
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	PoolSize int    `yaml:"pool_size" env:"POOL_SIZE"`
}

// RetryConfig 重试配置。
type RetryConfig struct {
	// 是否启用（默认关闭：错误直接上抛）
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 最大重试次数
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// 初始延迟
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"`
	// 延迟上限
	MaxDelay time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
}

// HistoryConfig 生成历史配置。
type HistoryConfig struct {
	// 是否记录
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// SQLite 文件路径，留空用 ~/.blossom/history.db
	Path string `yaml:"path" env:"PATH"`
	// 保留期，超期记录被 prune 清理
	Retention time.Duration `yaml:"retention" env:"RETENTION"`
}

// LogConfig 日志配置。
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 日志文件路径，留空只写 stderr
	File string `yaml:"file" env:"FILE"`
	// 日志文件大小上限（MB），超过后轮转
	FileMaxSizeMB int `yaml:"file_max_size_mb" env:"FILE_MAX_SIZE_MB"`
	// 轮转文件保留个数
	FileMaxBackups int `yaml:"file_max_backups" env:"FILE_MAX_BACKUPS"`
}

// TelemetryConfig 遥测配置。
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP gRPC 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Validate 验证配置。
func (c *Config) Validate() error {
	var errs []string

	if c.Client.Timeout < 0 {
		errs = append(errs, "client timeout must not be negative")
	}
	if c.Client.RateLimitRPS < 0 {
		errs = append(errs, "rate_limit_rps must not be negative")
	}
	if c.Cache.Enabled && c.Cache.LocalMaxSize <= 0 {
		errs = append(errs, "cache local_max_size must be positive when cache is enabled")
	}
	if c.Retry.Enabled && c.Retry.MaxRetries <= 0 {
		errs = append(errs, "retry max_retries must be positive when retry is enabled")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry otlp_endpoint required when telemetry is enabled")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry sample_rate must be within [0, 1]")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
