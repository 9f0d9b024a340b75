package pollinations

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ImageURLPart 引用一张图片，URL 可以是 http(s) 链接或 data URL。
type ImageURLPart struct {
	URL string `json:"url"`
}

// InputAudioPart 携带 base64 编码的音频数据，供转写接口使用。
type InputAudioPart struct {
	Data   string `json:"data"`
	Format string `json:"format"` // mp3 / wav
}

// ContentPart 是多模态消息的单个片段。
type ContentPart struct {
	Type       string          `json:"type"` // text / image_url / input_audio
	Text       string          `json:"text,omitempty"`
	ImageURL   *ImageURLPart   `json:"image_url,omitempty"`
	InputAudio *InputAudioPart `json:"input_audio,omitempty"`
}

// TextPart 构造纯文本片段。
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart 构造图片引用片段。
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURLPart{URL: url}}
}

// AudioPart 构造音频数据片段。
func AudioPart(base64Data, format string) ContentPart {
	return ContentPart{Type: "input_audio", InputAudio: &InputAudioPart{Data: base64Data, Format: format}}
}

// Message 表示对话中的一条消息。
// Content 与 Parts 二选一：纯文本消息用 Content，
// 多模态消息（视觉/音频）用 Parts。序列化时自动选择线上格式。
type Message struct {
	Role    Role
	Content string
	Parts   []ContentPart
}

// System 构造 system 消息。
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User 构造 user 消息。
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Assistant 构造 assistant 消息。
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// UserParts 构造多模态 user 消息。
func UserParts(parts ...ContentPart) Message { return Message{Role: RoleUser, Parts: parts} }

type wireMessage struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	var content json.RawMessage
	var err error
	if len(m.Parts) > 0 {
		content, err = json.Marshal(m.Parts)
	} else {
		content, err = json.Marshal(m.Content)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{Role: m.Role, Content: content})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Role = w.Role
	m.Content = ""
	m.Parts = nil
	if len(w.Content) == 0 {
		return nil
	}
	// 上游既可能返回字符串也可能返回片段数组
	if w.Content[0] == '[' {
		return json.Unmarshal(w.Content, &m.Parts)
	}
	return json.Unmarshal(w.Content, &m.Content)
}

// Text 返回消息的纯文本内容，多模态消息拼接其中的文本片段。
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var out string
	for _, p := range m.Parts {
		if p.Type == "text" {
			out += p.Text
		}
	}
	return out
}

// ChatRequest 是 OpenAI 兼容端点的请求体。
// Seed、Private、Referrer 是 Pollinations 扩展字段。
type ChatRequest struct {
	Model       string          `json:"model"`
	Messages    []Message       `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float32         `json:"temperature,omitempty"`
	TopP        float32         `json:"top_p,omitempty"`
	Seed        int64           `json:"seed,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
	Private     bool            `json:"private,omitempty"`
	Referrer    string          `json:"referrer,omitempty"`
	Tools       json.RawMessage `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`

	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Modalities     []string        `json:"modalities,omitempty"`
	Audio          *AudioSpec      `json:"audio,omitempty"`
}

// ResponseFormat 控制响应格式，JSON 模式传 {"type":"json_object"}。
type ResponseFormat struct {
	Type string `json:"type"`
}

// AudioSpec 指定语音输出的声音与封装格式。
type AudioSpec struct {
	Voice  string `json:"voice"`
	Format string `json:"format,omitempty"`
}

// Usage token 用量统计。
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatChoice 响应中的单个候选。
type ChatChoice struct {
	Index        int           `json:"index"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Message      ChoiceOutput  `json:"message"`
	Delta        *ChoiceOutput `json:"delta,omitempty"`
}

// ChoiceOutput 候选消息体，语音响应额外带 audio 字段。
type ChoiceOutput struct {
	Role    Role         `json:"role,omitempty"`
	Content string       `json:"content,omitempty"`
	Audio   *AudioOutput `json:"audio,omitempty"`
}

// AudioOutput 语音响应中 base64 编码的音频数据。
type AudioOutput struct {
	ID         string `json:"id,omitempty"`
	Data       string `json:"data"`
	Transcript string `json:"transcript,omitempty"`
	ExpiresAt  int64  `json:"expires_at,omitempty"`
}

// ChatResponse 是 OpenAI 兼容端点的完整响应。
type ChatResponse struct {
	ID      string       `json:"id,omitempty"`
	Model   string       `json:"model,omitempty"`
	Choices []ChatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
	Created int64        `json:"created,omitempty"`
}

// Text 返回首个候选的文本内容，无候选时返回空串。
func (r *ChatResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// StreamChunk 流式响应的单个增量。
type StreamChunk struct {
	ID           string `json:"id,omitempty"`
	Model        string `json:"model,omitempty"`
	Delta        string `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
	Err          *Error `json:"error,omitempty"`
}

// ModelInfo 文本模型目录中的单个条目。
type ModelInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Provider    string   `json:"provider,omitempty"`
	Vision      bool     `json:"vision,omitempty"`
	Audio       bool     `json:"audio,omitempty"`
	Reasoning   bool     `json:"reasoning,omitempty"`
	Uncensored  bool     `json:"uncensored,omitempty"`
	Voices      []string `json:"voices,omitempty"`
	Tier        string   `json:"tier,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

// GenerationMeta 记录一次生成的元信息，供调试日志与历史记录使用。
type GenerationMeta struct {
	RequestID string
	Endpoint  string
	Model     string
	Seed      int64
	Duration  time.Duration
	Cached    bool
}
