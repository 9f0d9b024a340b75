package text

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/blossom-ai/blossom-go/pollinations"
)

// Estimator 在发请求前估算消息的 token 数。
// Pollinations 不为每个模型公开分词器，按 OpenAI 系编码近似；
// 估算用于预算检查，不作为计费依据。
type Estimator struct {
	encoding  string
	maxTokens int
	enc       *tiktoken.Tiktoken
	once      sync.Once
	initErr   error
}

// 模型名到编码与上下文窗口的映射，未命中时回退 o200k_base。
var modelEncodings = map[string]struct {
	encoding  string
	maxTokens int
}{
	"openai":       {encoding: "o200k_base", maxTokens: 128000},
	"openai-fast":  {encoding: "o200k_base", maxTokens: 128000},
	"openai-large": {encoding: "o200k_base", maxTokens: 128000},
	"gpt-4o":       {encoding: "o200k_base", maxTokens: 128000},
	"gpt-4o-mini":  {encoding: "o200k_base", maxTokens: 128000},
	"mistral":      {encoding: "cl100k_base", maxTokens: 32000},
	"llama":        {encoding: "cl100k_base", maxTokens: 8192},
}

// NewEstimator 为给定模型创建估算器。编码数据在首次使用时懒加载。
func NewEstimator(model string) *Estimator {
	info, ok := modelEncodings[model]
	if !ok {
		info = struct {
			encoding  string
			maxTokens int
		}{encoding: "o200k_base", maxTokens: 128000}
	}
	return &Estimator{
		encoding:  info.encoding,
		maxTokens: info.maxTokens,
	}
}

func (e *Estimator) init() error {
	e.once.Do(func() {
		enc, err := tiktoken.GetEncoding(e.encoding)
		if err != nil {
			e.initErr = fmt.Errorf("init tiktoken encoding %s: %w", e.encoding, err)
			return
		}
		e.enc = enc
	})
	return e.initErr
}

// CountText 估算一段文本的 token 数。
func (e *Estimator) CountText(text string) (int, error) {
	if err := e.init(); err != nil {
		return 0, err
	}
	return len(e.enc.Encode(text, nil, nil)), nil
}

// CountMessages 估算消息列表的 token 数，含每条消息的角色与分隔开销。
func (e *Estimator) CountMessages(messages []pollinations.Message) (int, error) {
	if err := e.init(); err != nil {
		return 0, err
	}

	total := 0
	for _, msg := range messages {
		// 每条消息的开销: <|start|>role\n content<|end|>\n
		total += 4
		total += len(e.enc.Encode(msg.Text(), nil, nil))
		total += len(e.enc.Encode(string(msg.Role), nil, nil))
	}
	total += 3 // 对话收尾开销
	return total, nil
}

// FitsBudget 报告消息列表加上期望输出是否落在模型上下文窗口内。
func (e *Estimator) FitsBudget(messages []pollinations.Message, maxCompletion int) (bool, error) {
	n, err := e.CountMessages(messages)
	if err != nil {
		return false, err
	}
	return n+maxCompletion <= e.maxTokens, nil
}

// MaxTokens 返回模型的上下文窗口大小。
func (e *Estimator) MaxTokens() int { return e.maxTokens }

// Name 返回估算器使用的编码名。
func (e *Estimator) Name() string { return fmt.Sprintf("tiktoken[%s]", e.encoding) }
