package pollinations

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// MapHTTPError
// ---------------------------------------------------------------------------

func TestMapHTTPError_StatusTable(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		msg       string
		wantCode  ErrorCode
		retryable bool
	}{
		{"unauthorized", 401, "missing token", ErrUnauthorized, false},
		{"forbidden", 403, "tier does not allow this model", ErrForbidden, false},
		{"forbidden content filter", 403, "blocked by safety system", ErrContentFiltered, false},
		{"rate limited", 429, "too many requests", ErrRateLimited, true},
		{"bad request", 400, "width out of range", ErrInvalidRequest, false},
		{"bad request content filter", 400, "prompt flagged by moderation", ErrContentFiltered, false},
		{"request timeout", 408, "request timeout", ErrTimeout, true},
		{"gateway timeout", 504, "upstream timed out", ErrTimeout, true},
		{"bad gateway", 502, "bad gateway", ErrUpstreamError, true},
		{"service unavailable", 503, "maintenance", ErrUpstreamError, true},
		{"internal error", 500, "boom", ErrUpstreamError, true},
		{"unknown 4xx", 418, "teapot", ErrUpstreamError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := MapHTTPError(tt.status, tt.msg, "image.generate")
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.retryable, e.Retryable)
			assert.Equal(t, tt.status, e.HTTPStatus)
			assert.Equal(t, "image.generate", e.Endpoint)
			assert.NotEmpty(t, e.Suggestion, "every mapped error carries a suggestion")
		})
	}
}

func TestProperty_MapHTTPErrorTotal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("every status maps to a known code with consistent retryability", prop.ForAll(
		func(status int, msg string) bool {
			e := MapHTTPError(status, msg, "op")

			known := map[ErrorCode]bool{
				ErrInvalidRequest: true, ErrUnauthorized: true, ErrForbidden: true,
				ErrRateLimited: true, ErrContentFiltered: true, ErrTimeout: true,
				ErrNetwork: true, ErrUpstreamError: true,
			}
			if !known[e.Code] {
				t.Logf("unknown code %q for status %d", e.Code, status)
				return false
			}

			// 5xx 一律可重试（超时与网关类已单独标记）
			if status >= 500 && !e.Retryable {
				t.Logf("status %d should be retryable", status)
				return false
			}
			// 鉴权与校验类错误重试没有意义
			if (e.Code == ErrUnauthorized || e.Code == ErrForbidden || e.Code == ErrInvalidRequest || e.Code == ErrContentFiltered) && e.Retryable {
				t.Logf("code %q must not be retryable", e.Code)
				return false
			}
			return e.HTTPStatus == status && e.Suggestion != ""
		},
		gen.IntRange(400, 599),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// ---------------------------------------------------------------------------
// Error / AsError / IsRetryable
// ---------------------------------------------------------------------------

func TestErrorStringIncludesSuggestion(t *testing.T) {
	e := &Error{Message: "boom", Suggestion: "do the thing"}
	assert.Equal(t, "boom (hint: do the thing)", e.Error())

	e2 := &Error{Message: "boom"}
	assert.Equal(t, "boom", e2.Error())
}

func TestAsErrorUnwrapsChain(t *testing.T) {
	inner := MapHTTPError(429, "slow down", "text.chat")
	wrapped := fmt.Errorf("chat failed: %w", inner)

	e, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrRateLimited, e.Code)
	assert.True(t, IsRetryable(wrapped))
	assert.True(t, IsRateLimited(wrapped))

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestInvalidRequestDefaultSuggestion(t *testing.T) {
	e := InvalidRequest("width out of range", "")
	assert.Equal(t, ErrInvalidRequest, e.Code)
	assert.NotEmpty(t, e.Suggestion)

	custom := InvalidRequest("bad voice", "pick a voice from Voices()")
	assert.Equal(t, "pick a voice from Voices()", custom.Suggestion)
}

// ---------------------------------------------------------------------------
// ReadErrorMessage
// ---------------------------------------------------------------------------

func TestReadErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"openai style", `{"error":{"message":"model not found","type":"invalid_request_error"}}`, "model not found (type: invalid_request_error)"},
		{"openai style no type", `{"error":{"message":"model not found"}}`, "model not found"},
		{"flat message", `{"message":"quota exceeded"}`, "quota exceeded"},
		{"detail field", `{"detail":"prompt too long"}`, "prompt too long"},
		{"plain text", "Bad Gateway", "Bad Gateway"},
		{"empty body", "", "upstream returned an empty error body"},
		{"whitespace body", "  \n ", "upstream returned an empty error body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReadErrorMessage(strings.NewReader(tt.body))
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// RetryAfterFromHeader
// ---------------------------------------------------------------------------

func TestRetryAfterFromHeader(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, time.Duration(0), RetryAfterFromHeader(h))

	h.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, RetryAfterFromHeader(h))

	h.Set("Retry-After", "-3")
	assert.Equal(t, time.Duration(0), RetryAfterFromHeader(h))

	h.Set("Retry-After", "garbage")
	assert.Equal(t, time.Duration(0), RetryAfterFromHeader(h))

	// HTTP 日期格式，未来时刻
	h.Set("Retry-After", time.Now().Add(30*time.Second).UTC().Format(http.TimeFormat))
	d := RetryAfterFromHeader(h)
	assert.Greater(t, d, 20*time.Second)
	assert.LessOrEqual(t, d, 30*time.Second)

	// 过去的日期解析为 0
	h.Set("Retry-After", time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat))
	assert.Equal(t, time.Duration(0), RetryAfterFromHeader(h))
}

func TestProperty_RetryAfterSeconds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("non-negative integer seconds parse exactly", prop.ForAll(
		func(secs int) bool {
			h := http.Header{}
			h.Set("Retry-After", strconv.Itoa(secs))
			return RetryAfterFromHeader(h) == time.Duration(secs)*time.Second
		},
		gen.IntRange(0, 3600),
	))

	properties.TestingRun(t)
}
