package audio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/blossom-ai/blossom-go/pollinations"
)

// Service 通过 text.pollinations.ai 的音频能力合成与转写语音。
// 零值不可用，必须经 NewService 构造。
type Service struct {
	client *pollinations.Client
	logger *zap.Logger
}

// NewService 在共享客户端之上创建音频服务。
func NewService(c *pollinations.Client) *Service {
	return &Service{
		client: c,
		logger: c.Logger().With(zap.String("service", "audio")),
	}
}

// SpeechURL 构造语音合成的完整请求 URL，不发起任何 HTTP 调用。
func (s *Service) SpeechURL(req *SpeechRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	voice := req.Voice
	if voice == "" {
		voice = DefaultVoice
	}

	q := url.Values{}
	q.Set("model", model)
	q.Set("voice", voice)
	if req.Speed != 0 {
		q.Set("speed", strconv.FormatFloat(req.Speed, 'g', -1, 64))
	}
	if ref := s.client.Referrer(); ref != "" {
		q.Set("referrer", ref)
	}

	return s.client.TextBaseURL() + "/" + url.PathEscape(req.Text) + "?" + q.Encode(), nil
}

// Speech 合成语音并返回编码后的音频字节（默认 mp3 封装）。
func (s *Service) Speech(ctx context.Context, req *SpeechRequest) ([]byte, error) {
	requestURL, err := s.SpeechURL(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "audio/*")

	resp, err := s.client.Do(ctx, httpReq, "audio.speech")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := pollinations.ReadErrorMessage(resp.Body)
		e := pollinations.MapHTTPError(resp.StatusCode, msg, "audio.speech")
		e.RetryAfter = pollinations.RetryAfterFromHeader(resp.Header)
		return nil, e
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &pollinations.Error{
			Code:      pollinations.ErrNetwork,
			Message:   "failed to read audio body: " + err.Error(),
			Retryable: true,
			Endpoint:  "audio.speech",
		}
	}
	if len(data) == 0 {
		return nil, &pollinations.Error{
			Code:      pollinations.ErrUpstreamError,
			Message:   "upstream returned empty audio",
			Retryable: true,
			Endpoint:  "audio.speech",
		}
	}
	s.client.RecordResponseSize("audio.speech", len(data))

	s.logger.Debug("speech synthesized",
		zap.Int("bytes", len(data)),
		zap.String("voice", req.Voice),
	)
	return data, nil
}

// SpeakToFile 合成语音并写入 path。先写临时文件再改名，避免半成品文件。
func (s *Service) SpeakToFile(ctx context.Context, req *SpeechRequest, path string) error {
	data, err := s.Speech(ctx, req)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".blossom-audio-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close audio file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move audio file: %w", err)
	}

	s.logger.Debug("audio saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// Transcribe 转写音频为文本。音频以 base64 放进 input_audio 片段，
// 走 OpenAI 兼容的 chat 端点。
func (s *Service) Transcribe(ctx context.Context, req *TranscriptionRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = "Transcribe this audio exactly. Output only the transcription."
	}
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	encoded := base64.StdEncoding.EncodeToString(req.Audio)
	chatReq := &pollinations.ChatRequest{
		Model: model,
		Messages: []pollinations.Message{
			pollinations.UserParts(
				pollinations.TextPart(prompt),
				pollinations.AudioPart(encoded, req.Format),
			),
		},
		Referrer: s.client.Referrer(),
	}

	payload, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcription request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.client.TextBaseURL()+"/openai", strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(ctx, httpReq, "audio.transcribe")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := pollinations.ReadErrorMessage(resp.Body)
		e := pollinations.MapHTTPError(resp.StatusCode, msg, "audio.transcribe")
		e.RetryAfter = pollinations.RetryAfterFromHeader(resp.Header)
		return "", e
	}

	var chatResp pollinations.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &pollinations.Error{
			Code:      pollinations.ErrUpstreamError,
			Message:   "failed to decode transcription response: " + err.Error(),
			Retryable: true,
			Endpoint:  "audio.transcribe",
		}
	}
	if u := chatResp.Usage; u != nil {
		s.client.RecordTokenUsage(chatResp.Model, u.PromptTokens, u.CompletionTokens)
	}

	text := chatResp.Text()
	s.logger.Debug("audio transcribed", zap.Int("chars", len(text)))
	return text, nil
}

// TranscribeFile 读取音频文件并转写，格式由扩展名推断。
func (s *Service) TranscribeFile(ctx context.Context, path string, prompt string) (string, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", pollinations.InvalidRequest(
			"failed to read audio file: "+err.Error(),
			"check that the file exists and is readable",
		)
	}
	return s.Transcribe(ctx, &TranscriptionRequest{
		Audio:  data,
		Format: format,
		Prompt: prompt,
	})
}
