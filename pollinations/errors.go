package pollinations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// 统一的客户端错误码，用于对齐 HTTP 状态、可重试性与调用方处理策略。
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "BLOSSOM_INVALID_REQUEST"  // 参数/校验错误（发请求前拦截）
	ErrUnauthorized    ErrorCode = "BLOSSOM_UNAUTHORIZED"     // 未授权或 token 失效
	ErrForbidden       ErrorCode = "BLOSSOM_FORBIDDEN"        // 权限或策略拒绝
	ErrRateLimited     ErrorCode = "BLOSSOM_RATE_LIMITED"     // 上游限流（429）
	ErrContentFiltered ErrorCode = "BLOSSOM_CONTENT_FILTERED" // 命中内容安全
	ErrTimeout         ErrorCode = "BLOSSOM_TIMEOUT"          // 请求超时（本地或上游）
	ErrNetwork         ErrorCode = "BLOSSOM_NETWORK"          // 网络传输失败
	ErrUpstreamError   ErrorCode = "BLOSSOM_UPSTREAM_ERROR"   // 上游 5xx/未知错误
)

// Error 是 SDK 返回的统一错误类型。
// Message 描述发生了什么，Suggestion 给出可执行的修复建议；
// RetryAfter 仅在限流时由 Retry-After 响应头填充。
type Error struct {
	Code       ErrorCode     `json:"code"`
	Message    string        `json:"message"`
	Suggestion string        `json:"suggestion,omitempty"`
	HTTPStatus int           `json:"http_status,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	Retryable  bool          `json:"retryable"`
	Endpoint   string        `json:"endpoint,omitempty"`
}

func (e *Error) Error() string {
	if e.Suggestion != "" {
		return e.Message + " (hint: " + e.Suggestion + ")"
	}
	return e.Message
}

// AsError 从错误链中提取 *Error。
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsRetryable 判断错误是否值得重试。
func IsRetryable(err error) bool {
	if pe, ok := AsError(err); ok {
		return pe.Retryable
	}
	return false
}

// IsRateLimited 判断错误是否为上游限流。
func IsRateLimited(err error) bool {
	pe, ok := AsError(err)
	return ok && pe.Code == ErrRateLimited
}

// defaultSuggestion 为每个错误码提供兜底修复建议。
func defaultSuggestion(code ErrorCode) string {
	switch code {
	case ErrInvalidRequest:
		return "check the request parameters against the documented ranges"
	case ErrUnauthorized:
		return "set POLLINATIONS_API_KEY or BLOSSOM_API_KEY, or pass WithToken"
	case ErrForbidden:
		return "verify your token tier allows this model or endpoint"
	case ErrRateLimited:
		return "slow down the request rate or wait for the retry-after delay"
	case ErrContentFiltered:
		return "rephrase the prompt to comply with the content policy"
	case ErrTimeout:
		return "raise the client timeout with WithTimeout or simplify the prompt"
	case ErrNetwork:
		return "check network connectivity and retry"
	default:
		return "retry later; the upstream service may be temporarily degraded"
	}
}

// InvalidRequest 构造一个带建议的校验错误。发生在任何 HTTP 请求之前。
func InvalidRequest(msg, suggestion string) *Error {
	if suggestion == "" {
		suggestion = defaultSuggestion(ErrInvalidRequest)
	}
	return &Error{Code: ErrInvalidRequest, Message: msg, Suggestion: suggestion}
}

// MapHTTPError 将上游 HTTP 状态码映射为带重试标记与建议的 *Error。
// 所有服务共用这一份映射，保证错误语义一致。
func MapHTTPError(status int, msg, endpoint string) *Error {
	e := &Error{Message: msg, HTTPStatus: status, Endpoint: endpoint}
	switch status {
	case http.StatusUnauthorized:
		e.Code = ErrUnauthorized
	case http.StatusForbidden:
		// 部分模型对匿名档位返回 403，区分内容过滤与授权不足
		if containsAny(msg, "content", "safety", "nsfw", "moderation") {
			e.Code = ErrContentFiltered
		} else {
			e.Code = ErrForbidden
		}
	case http.StatusTooManyRequests:
		e.Code = ErrRateLimited
		e.Retryable = true
	case http.StatusBadRequest:
		if containsAny(msg, "content", "safety", "nsfw", "moderation") {
			e.Code = ErrContentFiltered
		} else {
			e.Code = ErrInvalidRequest
		}
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		e.Code = ErrTimeout
		e.Retryable = true
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		e.Code = ErrUpstreamError
		e.Retryable = true
	default:
		e.Code = ErrUpstreamError
		e.Retryable = status >= 500
	}
	e.Suggestion = defaultSuggestion(e.Code)
	return e
}

// ReadErrorMessage 读取响应体中的错误消息。
// 优先解析 OpenAI 风格的 JSON 错误，失败则回退到原始文本。
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 8<<10))
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil {
		switch {
		case errResp.Error.Message != "":
			if errResp.Error.Type != "" {
				return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
			}
			return errResp.Error.Message
		case errResp.Message != "":
			return errResp.Message
		case errResp.Detail != "":
			return errResp.Detail
		}
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return "upstream returned an empty error body"
	}
	return msg
}

// RetryAfterFromHeader 解析 Retry-After 响应头（秒数或 HTTP 日期）。
// 解析失败返回 0。
func RetryAfterFromHeader(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func containsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
