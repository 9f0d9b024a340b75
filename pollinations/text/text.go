package text

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/blossom-ai/blossom-go/pollinations"
	"github.com/blossom-ai/blossom-go/pollinations/cache"
)

// Service 通过 text.pollinations.ai 生成文本。
// 零值不可用，必须经 NewService 构造。
type Service struct {
	client *pollinations.Client
	cache  cache.ResponseCache
	logger *zap.Logger
}

// ServiceOption 配置 Service。
type ServiceOption func(*Service)

// WithCache 挂接响应缓存。只有固定 seed 的 GET 生成会读写缓存。
func WithCache(rc cache.ResponseCache) ServiceOption {
	return func(s *Service) { s.cache = rc }
}

// NewService 在共享客户端之上创建文本服务。
func NewService(c *pollinations.Client, opts ...ServiceOption) *Service {
	s := &Service{
		client: c,
		logger: c.Logger().With(zap.String("service", "text")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateURL 构造 GET 生成的完整请求 URL，不发起任何 HTTP 调用。
// 查询参数按规范序排列，默认值全部省略，等价请求产出字节一致的 URL。
func (s *Service) GenerateURL(req *Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	q := url.Values{}
	q.Set("model", model)
	if req.System != "" {
		q.Set("system", req.System)
	}
	if req.Seed > 0 {
		q.Set("seed", strconv.FormatInt(req.Seed, 10))
	}
	if req.Temperature != 0 {
		q.Set("temperature", strconv.FormatFloat(float64(req.Temperature), 'g', -1, 32))
	}
	if req.TopP != 0 {
		q.Set("top_p", strconv.FormatFloat(float64(req.TopP), 'g', -1, 32))
	}
	if req.MaxTokens > 0 {
		q.Set("max_tokens", strconv.Itoa(req.MaxTokens))
	}
	if req.JSON {
		q.Set("json", "true")
	}
	if req.Private {
		q.Set("private", "true")
	}
	if ref := s.client.Referrer(); ref != "" {
		q.Set("referrer", ref)
	}

	return s.client.TextBaseURL() + "/" + url.PathEscape(req.Prompt) + "?" + q.Encode(), nil
}

// Generate 执行单轮文本生成并返回纯文本（JSON 模式下是 JSON 字符串）。
// 固定 seed 的请求在挂接缓存时优先走缓存。
func (s *Service) Generate(ctx context.Context, req *Request) (string, error) {
	requestURL, err := s.GenerateURL(req)
	if err != nil {
		return "", err
	}

	cacheable := s.cache != nil && req.Deterministic()
	key := cache.URLKey(requestURL)
	if cacheable {
		if entry, err := s.cache.Get(ctx, key); err == nil {
			s.logger.Debug("text served from cache", zap.String("key", key))
			return string(entry.Payload), nil
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(ctx, httpReq, "text.generate")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := pollinations.ReadErrorMessage(resp.Body)
		e := pollinations.MapHTTPError(resp.StatusCode, msg, "text.generate")
		e.RetryAfter = pollinations.RetryAfterFromHeader(resp.Header)
		return "", e
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &pollinations.Error{
			Code:      pollinations.ErrNetwork,
			Message:   "failed to read text body: " + err.Error(),
			Retryable: true,
			Endpoint:  "text.generate",
		}
	}
	s.client.RecordResponseSize("text.generate", len(data))

	out := string(data)
	if cacheable {
		_ = s.cache.Set(ctx, key, &cache.Entry{
			Payload:     data,
			ContentType: resp.Header.Get("Content-Type"),
			Model:       req.Model,
			Seed:        req.Seed,
		})
	}

	s.logger.Debug("text generated",
		zap.Int("bytes", len(data)),
		zap.String("model", req.Model),
	)
	return out, nil
}

// Chat 执行一次非流式对话补全。
func (s *Service) Chat(ctx context.Context, req *pollinations.ChatRequest) (*pollinations.ChatResponse, error) {
	resp, err := s.postChat(ctx, req, false, "text.chat")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var chatResp pollinations.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, &pollinations.Error{
			Code:      pollinations.ErrUpstreamError,
			Message:   "failed to decode chat response: " + err.Error(),
			Retryable: true,
			Endpoint:  "text.chat",
		}
	}

	if u := chatResp.Usage; u != nil {
		s.client.RecordTokenUsage(chatResp.Model, u.PromptTokens, u.CompletionTokens)
	}
	return &chatResp, nil
}

// ChatStream 执行流式对话补全，返回增量 chunk 的通道。
// 通道在 [DONE]、流错误或 context 取消时关闭；错误通过 chunk.Err 传递。
func (s *Service) ChatStream(ctx context.Context, req *pollinations.ChatRequest) (<-chan pollinations.StreamChunk, error) {
	resp, err := s.postChat(ctx, req, true, "text.chat_stream")
	if err != nil {
		return nil, err
	}
	return s.streamSSE(ctx, resp.Body), nil
}

// postChat 组装并发送 OpenAI 兼容请求体，状态码 >= 400 时就地关闭响应体。
func (s *Service) postChat(ctx context.Context, req *pollinations.ChatRequest, stream bool, op string) (*http.Response, error) {
	if err := validateChat(req); err != nil {
		return nil, err
	}

	body := *req
	body.Stream = stream
	if body.Model == "" {
		body.Model = DefaultModel
	}
	if body.Referrer == "" {
		body.Referrer = s.client.Referrer()
	}

	payload, err := json.Marshal(&body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.client.TextBaseURL()+"/openai", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := s.client.Do(ctx, httpReq, op)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := pollinations.ReadErrorMessage(resp.Body)
		e := pollinations.MapHTTPError(resp.StatusCode, msg, op)
		e.RetryAfter = pollinations.RetryAfterFromHeader(resp.Header)
		return nil, e
	}
	return resp, nil
}

// streamSSE 解析 SSE 流并逐片下发。调用方须确保响应状态正常。
func (s *Service) streamSSE(ctx context.Context, body io.ReadCloser) <-chan pollinations.StreamChunk {
	ch := make(chan pollinations.StreamChunk)
	go func() {
		defer body.Close()
		defer close(ch)
		reader := bufio.NewReader(body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					select {
					case <-ctx.Done():
					case ch <- pollinations.StreamChunk{Err: &pollinations.Error{
						Code:      pollinations.ErrUpstreamError,
						Message:   "stream read failed: " + err.Error(),
						Retryable: true,
						Endpoint:  "text.chat_stream",
					}}:
					}
				}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			var resp pollinations.ChatResponse
			if err := json.Unmarshal([]byte(data), &resp); err != nil {
				select {
				case <-ctx.Done():
				case ch <- pollinations.StreamChunk{Err: &pollinations.Error{
					Code:      pollinations.ErrUpstreamError,
					Message:   "stream decode failed: " + err.Error(),
					Retryable: true,
					Endpoint:  "text.chat_stream",
				}}:
				}
				return
			}

			for _, choice := range resp.Choices {
				chunk := pollinations.StreamChunk{
					ID:           resp.ID,
					Model:        resp.Model,
					FinishReason: choice.FinishReason,
					Usage:        resp.Usage,
				}
				if choice.Delta != nil {
					chunk.Delta = choice.Delta.Content
				}
				select {
				case <-ctx.Done():
					return
				case ch <- chunk:
				}
			}
		}
	}()
	return ch
}

// Models 列出可用的文本模型目录。
func (s *Service) Models(ctx context.Context) ([]pollinations.ModelInfo, error) {
	endpoint := s.client.TextBaseURL() + "/models"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(ctx, httpReq, "text.models")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := pollinations.ReadErrorMessage(resp.Body)
		return nil, pollinations.MapHTTPError(resp.StatusCode, msg, "text.models")
	}

	var models []pollinations.ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, &pollinations.Error{
			Code:      pollinations.ErrUpstreamError,
			Message:   "failed to decode model list: " + err.Error(),
			Retryable: true,
			Endpoint:  "text.models",
		}
	}
	return models, nil
}
