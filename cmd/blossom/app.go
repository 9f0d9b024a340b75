// =============================================================================
// 🔧 CLI 应用装配
// =============================================================================
// 按配置装配 SDK 客户端、响应缓存、重试器、历史库与遥测。
// 每个子命令通过 newApp 取得一份完整装配好的运行环境。
// =============================================================================
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	blossom "github.com/blossom-ai/blossom-go"
	"github.com/blossom-ai/blossom-go/config"
	"github.com/blossom-ai/blossom-go/internal/history"
	"github.com/blossom-ai/blossom-go/internal/telemetry"
	"github.com/blossom-ai/blossom-go/pollinations"
	"github.com/blossom-ai/blossom-go/pollinations/cache"
	"github.com/blossom-ai/blossom-go/pollinations/retry"
)

// app 是装配完成的 CLI 运行环境。
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	b      *blossom.Blossom

	// store 为 nil 表示历史记录被禁用
	store *history.Store

	// retryer 为 nil 表示错误直接上抛
	retryer *retry.Retryer

	otel *telemetry.Providers
}

// newApp 加载配置并装配运行环境。失败时打印错误并退出，
// 与子命令的使用场景一致。
func newApp(configPath string) *app {
	loader := config.NewLoader().WithValidator((*config.Config).Validate)
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	b, err := blossom.New(bundleOptions(cfg, logger)...)
	if err != nil {
		logger.Fatal("failed to create client", zap.Error(err))
	}

	a := &app{cfg: cfg, logger: logger, b: b, otel: otelProviders}

	if cfg.Retry.Enabled {
		a.retryer = retry.New(&retry.Policy{
			MaxRetries:   cfg.Retry.MaxRetries,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   2.0,
			Jitter:       true,
		}, logger)
	}

	if cfg.History.Enabled {
		path := cfg.History.Path
		if path == "" {
			path, err = history.DefaultPath()
			if err != nil {
				logger.Warn("history disabled: cannot resolve default path", zap.Error(err))
			}
		}
		if path != "" {
			store, err := history.Open(path, logger)
			if err != nil {
				logger.Warn("history disabled", zap.Error(err))
			} else {
				a.store = store
			}
		}
	}

	return a
}

// bundleOptions 把配置翻译成 facade 选项。
func bundleOptions(cfg *config.Config, logger *zap.Logger) []blossom.Option {
	clientOpts := []pollinations.Option{
		pollinations.WithLogger(logger),
	}
	if cfg.Client.Token != "" {
		clientOpts = append(clientOpts, pollinations.WithToken(cfg.Client.Token))
	}
	if cfg.Client.Timeout > 0 {
		clientOpts = append(clientOpts, pollinations.WithTimeout(cfg.Client.Timeout))
	}
	if cfg.Client.ImageBase != "" {
		clientOpts = append(clientOpts, pollinations.WithImageBase(cfg.Client.ImageBase))
	}
	if cfg.Client.TextBase != "" {
		clientOpts = append(clientOpts, pollinations.WithTextBase(cfg.Client.TextBase))
	}
	if cfg.Client.Referrer != "" {
		clientOpts = append(clientOpts, pollinations.WithReferrer(cfg.Client.Referrer))
	}
	if cfg.Client.RateLimitRPS > 0 {
		clientOpts = append(clientOpts, pollinations.WithRateLimit(cfg.Client.RateLimitRPS, cfg.Client.RateLimitBurst))
	}
	if cfg.Client.Debug {
		clientOpts = append(clientOpts, pollinations.WithDebug())
	}
	if cfg.Telemetry.Enabled {
		clientOpts = append(clientOpts, pollinations.WithTracing())
	}

	opts := []blossom.Option{blossom.WithClientOptions(clientOpts...)}

	switch {
	case !cfg.Cache.Enabled:
		opts = append(opts, blossom.WithoutCache())
	case cfg.Redis.Addr != "":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		opts = append(opts, blossom.WithCache(cache.NewMultiLevel(rdb, &cache.Config{
			LocalMaxSize:   cfg.Cache.LocalMaxSize,
			LocalTTL:       cfg.Cache.LocalTTL,
			RedisTTL:       cfg.Cache.RedisTTL,
			EnableLocal:    true,
			EnableRedis:    true,
			MaxPayloadSize: cfg.Cache.MaxPayloadSize,
		}, logger)))
	default:
		opts = append(opts, blossom.WithCacheSize(cfg.Cache.LocalMaxSize, cfg.Cache.LocalTTL))
	}

	return opts
}

// close 释放运行环境持有的资源。
func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close history store", zap.Error(err))
		}
	}
	a.b.Close()
	if a.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.otel.Shutdown(ctx); err != nil {
			a.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// record 写一条历史记录，失败只记日志不影响命令结果。
func (a *app) record(rec *history.Record) {
	if a.store == nil {
		return
	}
	if err := a.store.Append(rec); err != nil {
		a.logger.Warn("failed to record history", zap.Error(err))
	}
}

// do 按配置决定是否带重试地执行一次操作。
func (a *app) do(ctx context.Context, fn func() error) error {
	if a.retryer == nil {
		return fn()
	}
	return a.retryer.Do(ctx, fn)
}

// fail 打印错误与修复建议后退出。
func fail(err error) {
	if e, ok := pollinations.AsError(err); ok && e.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\nSuggestion: %s\n", e.Message, e.Suggestion)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
