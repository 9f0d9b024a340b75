package text

import (
	"fmt"
	"unicode/utf8"

	"github.com/blossom-ai/blossom-go/pollinations"
)

// 参数边界，发请求前在客户端校验。
const (
	MinTemperature = 0.0
	MaxTemperature = 3.0
	MinTopP        = 0.0
	MaxTopP        = 1.0

	// MaxPromptRunes 限制 GET 端点的 prompt 长度，URL 过长会被代理拒绝。
	MaxPromptRunes = 2000

	DefaultModel = "openai"
)

// Request 是 GET 文本生成的参数包。
// 零值表示使用服务端默认；只有 Prompt 是必填项。
type Request struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`

	// System 是随请求附带的系统提示词。
	System string `json:"system,omitempty"`

	// Seed 大于 0 时生成结果可复现（可缓存）。
	Seed int64 `json:"seed,omitempty"`

	// Temperature 取值 [0.0, 3.0]，0 表示使用服务端默认。
	Temperature float32 `json:"temperature,omitempty"`

	// TopP 取值 (0.0, 1.0]，0 表示使用服务端默认。
	TopP float32 `json:"top_p,omitempty"`

	// JSON 为 true 时要求模型输出合法 JSON。
	JSON bool `json:"json,omitempty"`

	// MaxTokens 限制输出长度，0 表示不限制。
	MaxTokens int `json:"max_tokens,omitempty"`

	Private bool `json:"private,omitempty"`
}

// Validate 校验参数边界，返回首个违例的 ErrInvalidRequest。
func (r *Request) Validate() error {
	if r == nil {
		return pollinations.InvalidRequest("text request is nil", "")
	}
	if r.Prompt == "" {
		return pollinations.InvalidRequest(
			"prompt must not be empty",
			"pass a non-empty text prompt",
		)
	}
	if n := utf8.RuneCountInString(r.Prompt); n > MaxPromptRunes {
		return pollinations.InvalidRequest(
			fmt.Sprintf("prompt is %d runes, limit is %d for the GET endpoint", n, MaxPromptRunes),
			"use Chat for long prompts; the POST endpoint has no URL length limit",
		)
	}
	if err := checkSampling(r.Temperature, r.TopP); err != nil {
		return err
	}
	if r.MaxTokens < 0 {
		return pollinations.InvalidRequest(
			fmt.Sprintf("max_tokens %d must not be negative", r.MaxTokens),
			"pass a positive token limit or leave it zero",
		)
	}
	return nil
}

// Deterministic 报告请求是否固定了 seed，结果稳定可缓存。
func (r *Request) Deterministic() bool {
	return r.Seed > 0
}

// checkSampling 校验采样参数，GET 与 Chat 共用。
func checkSampling(temperature, topP float32) error {
	if temperature != 0 && (temperature < MinTemperature || temperature > MaxTemperature) {
		return pollinations.InvalidRequest(
			fmt.Sprintf("temperature %.2f out of range [%.1f, %.1f]", temperature, MinTemperature, MaxTemperature),
			"use a temperature between 0.0 and 3.0, typical values are 0.2 to 1.2",
		)
	}
	if topP != 0 && (topP < MinTopP || topP > MaxTopP) {
		return pollinations.InvalidRequest(
			fmt.Sprintf("top_p %.2f out of range (%.1f, %.1f]", topP, MinTopP, MaxTopP),
			"use a top_p between 0.0 and 1.0",
		)
	}
	return nil
}

// validateChat 校验 Chat 请求：消息非空、每条消息有内容、采样参数在界内。
func validateChat(req *pollinations.ChatRequest) error {
	if req == nil {
		return pollinations.InvalidRequest("chat request is nil", "")
	}
	if len(req.Messages) == 0 {
		return pollinations.InvalidRequest(
			"messages must not be empty",
			"add at least one user message",
		)
	}
	for i, m := range req.Messages {
		if m.Content == "" && len(m.Parts) == 0 {
			return pollinations.InvalidRequest(
				fmt.Sprintf("message[%d] has neither content nor parts", i),
				"set Content for text messages or Parts for multimodal ones",
			)
		}
	}
	if err := checkSampling(req.Temperature, req.TopP); err != nil {
		return err
	}
	if req.MaxTokens < 0 {
		return pollinations.InvalidRequest(
			fmt.Sprintf("max_tokens %d must not be negative", req.MaxTokens),
			"pass a positive token limit or leave it zero",
		)
	}
	return nil
}
