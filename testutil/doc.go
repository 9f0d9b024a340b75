// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// Package testutil 提供测试用的伪 Pollinations 服务端与响应构造器。
//
// 测试不应访问真实的 Pollinations.AI 服务。本包基于 httptest 搭建
// 可编程的伪服务端，并提供 chat 响应、SSE 流、模型目录等常用
// 响应体的构造函数，各包的 _test.go 直接复用。
//
// 使用方法:
//
//	srv := testutil.NewServer(t)
//	srv.HandleChat(testutil.ChatJSON("openai", "hello"))
//	client := srv.Client(t)
package testutil
