package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/blossom-ai/blossom-go/pollinations"
)

// 输入图像的边界。上游对超大输入直接报错，提前在客户端拦截。
const (
	MaxFileBytes = 20 << 20 // 20 MB
	MaxDimension = 8192

	DefaultModel = "openai"
)

// mimeByFormat 把 image.DecodeConfig 探测到的格式映射为 MIME 类型。
var mimeByFormat = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Service 通过视觉模型回答关于图像的问题。
// 零值不可用，必须经 NewService 构造。
type Service struct {
	client *pollinations.Client
	logger *zap.Logger
}

// NewService 在共享客户端之上创建视觉服务。
func NewService(c *pollinations.Client) *Service {
	return &Service{
		client: c,
		logger: c.Logger().With(zap.String("service", "vision")),
	}
}

// Ask 就一张在线图像提问。imageURL 必须是 http(s) 链接或 data URL。
func (s *Service) Ask(ctx context.Context, imageURL, question string, opts ...Option) (string, error) {
	if question == "" {
		return "", pollinations.InvalidRequest(
			"question must not be empty",
			"ask something about the image, e.g. \"what is shown here?\"",
		)
	}
	if !strings.HasPrefix(imageURL, "http://") &&
		!strings.HasPrefix(imageURL, "https://") &&
		!strings.HasPrefix(imageURL, "data:") {
		return "", pollinations.InvalidRequest(
			fmt.Sprintf("image URL %q is neither http(s) nor a data URL", truncate(imageURL, 64)),
			"pass a full http(s) image link, or use AskFile for local files",
		)
	}

	var o options
	o.model = DefaultModel
	for _, opt := range opts {
		opt(&o)
	}

	chatReq := &pollinations.ChatRequest{
		Model: o.model,
		Messages: []pollinations.Message{
			pollinations.UserParts(
				pollinations.TextPart(question),
				pollinations.ImagePart(imageURL),
			),
		},
		MaxTokens: o.maxTokens,
		Referrer:  s.client.Referrer(),
	}

	payload, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal vision request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.client.TextBaseURL()+"/openai", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(ctx, httpReq, "vision.ask")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := pollinations.ReadErrorMessage(resp.Body)
		e := pollinations.MapHTTPError(resp.StatusCode, msg, "vision.ask")
		e.RetryAfter = pollinations.RetryAfterFromHeader(resp.Header)
		return "", e
	}

	var chatResp pollinations.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &pollinations.Error{
			Code:      pollinations.ErrUpstreamError,
			Message:   "failed to decode vision response: " + err.Error(),
			Retryable: true,
			Endpoint:  "vision.ask",
		}
	}
	if u := chatResp.Usage; u != nil {
		s.client.RecordTokenUsage(chatResp.Model, u.PromptTokens, u.CompletionTokens)
	}

	answer := chatResp.Text()
	s.logger.Debug("vision answered", zap.Int("chars", len(answer)))
	return answer, nil
}

// AskFile 就一张本地图像文件提问。文件被探测格式与尺寸后编码为
// data URL 上传；不受支持的格式和超限的文件在发请求前被拦截。
func (s *Service) AskFile(ctx context.Context, path, question string, opts ...Option) (string, error) {
	dataURL, err := EncodeFile(path)
	if err != nil {
		return "", err
	}
	return s.Ask(ctx, dataURL, question, opts...)
}

// Describe 用默认问题描述一张在线图像。
func (s *Service) Describe(ctx context.Context, imageURL string, opts ...Option) (string, error) {
	return s.Ask(ctx, imageURL, "Describe this image in detail.", opts...)
}

// EncodeFile 读取图像文件并编码为 data URL。
// 格式、尺寸与大小校验失败时返回 ErrInvalidRequest。
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", pollinations.InvalidRequest(
			"failed to read image file: "+err.Error(),
			"check that the file exists and is readable",
		)
	}
	if len(data) > MaxFileBytes {
		return "", pollinations.InvalidRequest(
			fmt.Sprintf("image file is %d bytes, limit is %d", len(data), MaxFileBytes),
			"downscale or re-encode the image before uploading",
		)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", pollinations.InvalidRequest(
			"file is not a decodable image: "+err.Error(),
			"use a jpeg, png, gif or webp image",
		)
	}
	mime, ok := mimeByFormat[format]
	if !ok {
		return "", pollinations.InvalidRequest(
			fmt.Sprintf("image format %q is not supported", format),
			"use a jpeg, png, gif or webp image",
		)
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return "", pollinations.InvalidRequest(
			fmt.Sprintf("image is %dx%d, maximum dimension is %d", cfg.Width, cfg.Height, MaxDimension),
			"downscale the image before uploading",
		)
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Option 配置单次问答。
type Option func(*options)

type options struct {
	model     string
	maxTokens int
}

// WithModel 覆盖视觉模型，默认使用 openai。
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithMaxTokens 限制回答长度。
func WithMaxTokens(n int) Option {
	return func(o *options) { o.maxTokens = n }
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
