package enhance

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blossom-ai/blossom-go/pollinations"
	"github.com/blossom-ai/blossom-go/pollinations/text"
)

// Rewriter 改写一条提示词。
type Rewriter interface {
	// Rewrite 返回改写后的提示词；失败时原样返回错误。
	Rewrite(ctx context.Context, prompt string) (string, error)

	// Name 返回改写器名称，用于日志与错误定位。
	Name() string
}

// RewriterFunc 把函数适配为 Rewriter。
type RewriterFunc struct {
	ID string
	Fn func(ctx context.Context, prompt string) (string, error)
}

func (f RewriterFunc) Rewrite(ctx context.Context, prompt string) (string, error) {
	return f.Fn(ctx, prompt)
}

func (f RewriterFunc) Name() string { return f.ID }

// Chain 按序执行多个改写器。
type Chain struct {
	rewriters []Rewriter
}

// NewChain 创建改写器链。
func NewChain(rewriters ...Rewriter) *Chain {
	return &Chain{rewriters: rewriters}
}

// Add 追加改写器。
func (c *Chain) Add(r Rewriter) *Chain {
	c.rewriters = append(c.rewriters, r)
	return c
}

// Execute 按序执行所有改写器，任何一个失败则中断并返回错误。
func (c *Chain) Execute(ctx context.Context, prompt string) (string, error) {
	if c == nil || len(c.rewriters) == 0 {
		return prompt, nil
	}

	var err error
	for _, r := range c.rewriters {
		prompt, err = r.Rewrite(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("rewriter [%s] failed: %w", r.Name(), err)
		}
	}
	return prompt, nil
}

// Len 返回链中改写器数量。
func (c *Chain) Len() int { return len(c.rewriters) }

// Style 是改写的美术方向预设。
type Style string

const (
	StyleNone       Style = ""
	StylePhoto      Style = "photorealistic"
	StyleCinematic  Style = "cinematic"
	StyleAnime      Style = "anime"
	StyleOilPaint   Style = "oil-painting"
	StyleWatercolor Style = "watercolor"
	StyleSketch     Style = "sketch"
	StylePixelArt   Style = "pixel-art"
)

// styleHints 每个预设注入的风格指令。
var styleHints = map[Style]string{
	StylePhoto:      "Aim for photorealism: realistic lighting, accurate materials, natural depth of field.",
	StyleCinematic:  "Aim for a cinematic look: dramatic lighting, film grain, wide dynamic range, intentional framing.",
	StyleAnime:      "Aim for high-quality anime art: clean line work, cel shading, expressive composition.",
	StyleOilPaint:   "Aim for a classical oil painting: visible brush strokes, rich pigment, canvas texture.",
	StyleWatercolor: "Aim for watercolor: soft washes, paper texture, translucent layered color.",
	StyleSketch:     "Aim for a pencil sketch: hatching, loose construction lines, monochrome tones.",
	StylePixelArt:   "Aim for pixel art: limited palette, crisp pixels, retro game aesthetics.",
}

// systemPrompt 要求模型做推理式扩写：先分析意图，再补全细节。
const systemPrompt = `You expand terse image prompts into detailed ones.
Reason about what the user wants to see, then add concrete detail about
subject, composition, lighting, materials, mood and style. Keep every
element the user asked for. Output only the expanded prompt, one
paragraph, no quotes, no commentary, at most 150 words.`

// Enhancer 用文本生成服务改写提示词，实现 Rewriter。
type Enhancer struct {
	texts  *text.Service
	style  Style
	model  string
	logger *zap.Logger
}

// Option 配置 Enhancer。
type Option func(*Enhancer)

// WithStyle 设置美术方向预设。
func WithStyle(s Style) Option {
	return func(e *Enhancer) { e.style = s }
}

// WithModel 覆盖改写使用的文本模型。
func WithModel(model string) Option {
	return func(e *Enhancer) {
		if model != "" {
			e.model = model
		}
	}
}

// NewEnhancer 创建提示词增强器。
func NewEnhancer(texts *text.Service, logger *zap.Logger, opts ...Option) *Enhancer {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Enhancer{
		texts:  texts,
		model:  "openai",
		logger: logger.With(zap.String("component", "enhancer")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Enhancer) Name() string { return "prompt-enhancer" }

// Rewrite 扩写一条提示词。空提示词在发请求前被拦截；
// 模型返回空结果时回退到原提示词而不是报错。
func (e *Enhancer) Rewrite(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", pollinations.InvalidRequest(
			"prompt must not be empty",
			"pass the prompt to enhance",
		)
	}

	system := systemPrompt
	if hint, ok := styleHints[e.style]; ok {
		system += "\n" + hint
	}

	resp, err := e.texts.Chat(ctx, &pollinations.ChatRequest{
		Model: e.model,
		Messages: []pollinations.Message{
			pollinations.System(system),
			pollinations.User(prompt),
		},
		Temperature: 0.8,
	})
	if err != nil {
		return "", err
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		e.logger.Warn("enhancer returned empty result, keeping original prompt")
		return prompt, nil
	}

	e.logger.Debug("prompt enhanced",
		zap.Int("in_chars", len(prompt)),
		zap.Int("out_chars", len(out)),
		zap.String("style", string(e.style)),
	)
	return out, nil
}
