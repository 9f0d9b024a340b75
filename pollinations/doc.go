// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 pollinations 提供 Pollinations.AI 生成接口的底层客户端，包括
统一的 HTTP 执行路径、token 解析、错误映射与共享线上类型。

# 概述

Pollinations.AI 的图像、文本、语音与视觉能力分布在两个主机上
（image.pollinations.ai 与 text.pollinations.ai），鉴权、限流
和错误语义一致。本包把这些共性收拢到一个 Client 中，上层服务
（image/text/audio/vision）只负责各自端点的参数组装与响应解析。

普通使用场景请直接用根包 blossom 的门面，一行代码拿到全部服务。

# 核心类型

  - [Client]：共享底座，持有 HTTP 传输、token、限流器与可观测配置
  - [Error] / [ErrorCode]：统一错误类型，带修复建议与重试标记
  - [Message] / [ContentPart]：对话消息与多模态片段
  - [ChatRequest] / [ChatResponse] / [StreamChunk]：OpenAI 兼容线上类型
  - [Doer] / [Middleware]：请求执行抽象与中间件扩展点

# token 解析

显式 WithToken 优先，其次读 POLLINATIONS_API_KEY，最后读
BLOSSOM_API_KEY；全部为空时走匿名档位，部分模型不可用。

# 错误语义

所有失败都以 *Error 返回：校验错误在发请求前拦截（ErrInvalidRequest），
HTTP 状态码经 [MapHTTPError] 归一，传输层错误区分超时与网络故障。
每个错误带一条可执行的修复建议；限流错误附带 Retry-After 解析结果。
错误默认直接上抛，重试是显式包装（见 pollinations/retry）。

# 相关子包

- pollinations/image：图像生成、URL 构造与落盘保存。
- pollinations/text：文本生成、对话与流式输出。
- pollinations/audio：语音合成与转写。
- pollinations/vision：图像理解问答。
- pollinations/cache：响应缓存（本地 LRU + Redis）。
- pollinations/enhance：提示词增强改写链。
- pollinations/batch：并发批量生成。
- pollinations/retry：指数退避重试。
- pollinations/middleware：请求中间件实现。
- pollinations/feed：公共生成流（SSE）订阅。
*/
package pollinations
