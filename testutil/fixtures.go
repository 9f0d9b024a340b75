// =============================================================================
// 🧪 测试响应构造器
// =============================================================================
// 构造 chat JSON、SSE 流、模型目录与错误体等常用响应。
// =============================================================================
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/blossom-ai/blossom-go/pollinations"
)

// FakeJPEG 返回带 JPEG 魔数的伪图像字节。客户端从不解码生成结果，
// 魔数足以通过任何内容嗅探。
func FakeJPEG() []byte {
	return []byte("\xff\xd8\xff\xe0fake-jpeg-payload")
}

// TinyPNG 返回一张真实可解码的 1x1 PNG，供视觉端点的尺寸校验使用。
func TinyPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// ChatJSON 构造单候选的 chat 响应体。
func ChatJSON(model, content string) []byte {
	return mustMarshal(&pollinations.ChatResponse{
		ID:    "chatcmpl-test",
		Model: model,
		Choices: []pollinations.ChatChoice{{
			Index:        0,
			FinishReason: "stop",
			Message:      pollinations.ChoiceOutput{Role: pollinations.RoleAssistant, Content: content},
		}},
	})
}

// ChatJSONWithUsage 构造带 token 用量的 chat 响应体。
func ChatJSONWithUsage(model, content string, prompt, completion int) []byte {
	resp := &pollinations.ChatResponse{
		ID:    "chatcmpl-test",
		Model: model,
		Choices: []pollinations.ChatChoice{{
			FinishReason: "stop",
			Message:      pollinations.ChoiceOutput{Role: pollinations.RoleAssistant, Content: content},
		}},
		Usage: &pollinations.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}
	return mustMarshal(resp)
}

// SSEStream 把若干文本增量拼成 OpenAI 风格的 SSE 流，以 [DONE] 结束。
func SSEStream(deltas ...string) string {
	var b strings.Builder
	for _, d := range deltas {
		chunk := &pollinations.ChatResponse{
			Model: "openai",
			Choices: []pollinations.ChatChoice{{
				Delta: &pollinations.ChoiceOutput{Content: d},
			}},
		}
		fmt.Fprintf(&b, "data: %s\n\n", mustMarshal(chunk))
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

// ErrorJSON 构造上游错误响应体。
func ErrorJSON(message string) []byte {
	return mustMarshal(map[string]any{
		"error": map[string]any{"message": message},
	})
}

// ModelsJSON 构造模型目录响应体。
func ModelsJSON(names ...string) []byte {
	models := make([]pollinations.ModelInfo, 0, len(names))
	for _, n := range names {
		models = append(models, pollinations.ModelInfo{Name: n, Provider: "test"})
	}
	return mustMarshal(models)
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
