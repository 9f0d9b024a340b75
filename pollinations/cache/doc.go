// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供生成请求的响应缓存实现，通过本地 LRU 与 Redis 协同
减少对上游的重复调用，降低延迟与限流压力。

# 概述

带 seed 的生成请求是确定性的：同一组参数总是产出同一结果。
本包把这类响应（图像字节、文本、语音）按请求的规范键缓存起来，
命中时完全跳过 HTTP 调用。未带 seed 的请求默认不缓存。

# 核心接口

  - ResponseCache：响应缓存接口，定义 Get/Set/Delete 操作。
  - MultiLevel：多级缓存实现，本地 LRU 作为 L1、Redis 作为 L2。
  - StatsRecorder：缓存命中统计接收器，适配指标收集。

# 主要能力

  - 多级缓存：L1 本地 LRU（O(1) 操作）+ L2 Redis，自动回填。
  - 规范键：请求各要素经 sha256 摘要，Key 对参数顺序不敏感。
  - 大小上限：超过 MaxPayloadSize 的响应跳过缓存，避免大图挤占内存。
  - 命中计数：Redis 条目通过 Lua 脚本原子累加 hit_count。

# 使用方式

	mlc := cache.NewMultiLevel(redisClient, cache.DefaultConfig(), logger)
	key := cache.URLKey(requestURL)
	entry, err := mlc.Get(ctx, key)
*/
package cache
