// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// 包 feed 订阅 Pollinations 的公共生成流。两个主机各自暴露一个
// SSE 端点，实时推送平台上公开的图像与文本生成。订阅返回事件
// 通道，context 取消即断开并关闭通道；解析失败的单个事件跳过
// 而不中断整个流。
package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/blossom-ai/blossom-go/pollinations"
)

// ImageEvent 图像流中的单个事件。
type ImageEvent struct {
	ImageURL string `json:"imageURL"`
	Prompt   string `json:"prompt"`
	Model    string `json:"model,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Seed     int64  `json:"seed,omitempty"`
	NSFW     bool   `json:"nsfw,omitempty"`

	// Err 非空表示流因错误终止，随后通道关闭。
	Err *pollinations.Error `json:"-"`
}

// TextEvent 文本流中的单个事件。
type TextEvent struct {
	Response string `json:"response"`
	Prompt   string `json:"prompt,omitempty"`
	Model    string `json:"model,omitempty"`

	Err *pollinations.Error `json:"-"`
}

// Service 订阅公共生成流。
type Service struct {
	client *pollinations.Client
	logger *zap.Logger
}

// NewService 在共享客户端之上创建流订阅服务。
func NewService(c *pollinations.Client) *Service {
	return &Service{
		client: c,
		logger: c.Logger().With(zap.String("service", "feed")),
	}
}

// Images 订阅公共图像流。通道在 context 取消或流终止时关闭。
func (s *Service) Images(ctx context.Context) (<-chan ImageEvent, error) {
	body, err := s.open(ctx, s.client.ImageBaseURL()+"/feed", "feed.images")
	if err != nil {
		return nil, err
	}

	ch := make(chan ImageEvent)
	go consume(ctx, body, ch, s.logger,
		func(data []byte) (ImageEvent, error) {
			var ev ImageEvent
			err := json.Unmarshal(data, &ev)
			return ev, err
		},
		func(e *pollinations.Error) ImageEvent { return ImageEvent{Err: e} },
	)
	return ch, nil
}

// Texts 订阅公共文本流。通道在 context 取消或流终止时关闭。
func (s *Service) Texts(ctx context.Context) (<-chan TextEvent, error) {
	body, err := s.open(ctx, s.client.TextBaseURL()+"/feed", "feed.texts")
	if err != nil {
		return nil, err
	}

	ch := make(chan TextEvent)
	go consume(ctx, body, ch, s.logger,
		func(data []byte) (TextEvent, error) {
			var ev TextEvent
			err := json.Unmarshal(data, &ev)
			return ev, err
		},
		func(e *pollinations.Error) TextEvent { return TextEvent{Err: e} },
	)
	return ch, nil
}

// open 建立 SSE 连接，状态码异常时就地关闭并映射错误。
func (s *Service) open(ctx context.Context, endpoint, op string) (io.ReadCloser, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(ctx, httpReq, op)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := pollinations.ReadErrorMessage(resp.Body)
		return nil, pollinations.MapHTTPError(resp.StatusCode, msg, op)
	}
	return resp.Body, nil
}

// consume 读取 SSE 流并逐事件下发。坏事件跳过，读错误作为终止
// 事件发出后关闭通道。
func consume[E any](
	ctx context.Context,
	body io.ReadCloser,
	ch chan<- E,
	logger *zap.Logger,
	decode func([]byte) (E, error),
	errEvent func(*pollinations.Error) E,
) {
	defer body.Close()
	defer close(ch)

	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				select {
				case <-ctx.Done():
				case ch <- errEvent(&pollinations.Error{
					Code:      pollinations.ErrNetwork,
					Message:   "feed stream interrupted: " + err.Error(),
					Retryable: true,
				}):
				}
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		ev, err := decode([]byte(data))
		if err != nil {
			logger.Debug("skipping malformed feed event", zap.Error(err))
			continue
		}
		select {
		case <-ctx.Done():
			return
		case ch <- ev:
		}
	}
}
