// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// blossom 是 Pollinations.AI 生成服务的命令行工具。
//
// 支持图像/文本生成、对话、语音合成与转写、图像理解、公共生成流
// 以及本地生成历史查询。配置来自 YAML 文件与 BLOSSOM_ 前缀的
// 环境变量，.env 文件在启动时自动加载。
package main
