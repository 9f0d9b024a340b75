// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的客户端指标采集能力。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，注册到调用方
提供的 Registry 上，按 namespace 隔离，便于 Grafana 等工具进行
可视化与告警。客户端未启用指标时，所有记录入口都是 no-op。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram 等
    Prometheus 向量指标，按操作维度分组管理。

# 主要能力

  - 请求指标：请求总数与耗时，按操作（image.generate、text.chat
    等）分组，状态码归类为 2xx/4xx/5xx。
  - 响应指标：响应体大小分布，按操作分组。
  - Token 指标：文本端点上报的 prompt/completion 用量，按模型分组。
  - 重试指标：重试次数，按操作分组。
  - 缓存指标：命中与未命中计数，按缓存层（local/redis）分组。
*/
package metrics
