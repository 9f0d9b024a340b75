package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blossom-ai/blossom-go/pollinations"
)

func TestEstimator_CountText(t *testing.T) {
	e := NewEstimator("openai")

	n, err := e.CountText("hello world")
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	assert.Greater(t, n, 0)
	assert.Less(t, n, 10)

	zero, err := e.CountText("")
	require.NoError(t, err)
	assert.Zero(t, zero)
}

func TestEstimator_CountMessages(t *testing.T) {
	e := NewEstimator("openai")

	msgs := []pollinations.Message{
		pollinations.System("you are terse"),
		pollinations.User("why is the sky blue"),
	}
	n, err := e.CountMessages(msgs)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	// 消息计数必须高于纯文本计数（角色与分隔开销）
	textOnly, err := e.CountText("you are terse" + "why is the sky blue")
	require.NoError(t, err)
	assert.Greater(t, n, textOnly)
}

func TestEstimator_UnknownModelFallsBack(t *testing.T) {
	e := NewEstimator("some-future-model")
	assert.Equal(t, "tiktoken[o200k_base]", e.Name())
	assert.Equal(t, 128000, e.MaxTokens())
}

func TestEstimator_FitsBudget(t *testing.T) {
	e := NewEstimator("llama") // 8192 窗口

	msgs := []pollinations.Message{pollinations.User("short")}
	ok, err := e.FitsBudget(msgs, 100)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	assert.True(t, ok)

	ok, err = e.FitsBudget(msgs, e.MaxTokens())
	require.NoError(t, err)
	assert.False(t, ok)
}
