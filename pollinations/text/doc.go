// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 text 封装 text.pollinations.ai 的文本生成能力。

三条路径：

  - [Service.Generate]：GET 单轮生成，prompt 走 URL 路径，适合简单问答
    与 JSON 模式输出。
  - [Service.Chat]：POST OpenAI 兼容端点，携带完整消息列表，支持
    system/user/assistant 角色与多模态片段。
  - [Service.ChatStream]：SSE 流式输出，返回增量 chunk 的通道，
    context 取消即停止读取。

[Estimator] 基于 tiktoken 在发请求前估算消息的 token 数，用于
预算检查；Pollinations 不对所有模型公开精确分词器，估算值按
OpenAI 系编码近似。
*/
package text
