package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blossom-ai/blossom-go/pollinations"
	"github.com/blossom-ai/blossom-go/pollinations/text"
)

func newEnhancer(t *testing.T, handler http.HandlerFunc, opts ...Option) *Enhancer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := pollinations.NewClient(
		pollinations.WithTextBase(server.URL),
		pollinations.WithLogger(zap.NewNop()),
	)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return NewEnhancer(text.NewService(client), zap.NewNop(), opts...)
}

func chatAnswer(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pollinations.ChatResponse{
			Choices: []pollinations.ChatChoice{{
				Message: pollinations.ChoiceOutput{Content: content},
			}},
		})
	}
}

// ---------------------------------------------------------------------------
// Enhancer
// ---------------------------------------------------------------------------

func TestEnhancer_Rewrite(t *testing.T) {
	e := newEnhancer(t, func(w http.ResponseWriter, r *http.Request) {
		var req pollinations.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, pollinations.RoleSystem, req.Messages[0].Role)
		assert.Equal(t, "a cat", req.Messages[1].Content)

		chatAnswer("a fluffy tabby cat lounging on a sunlit windowsill, soft afternoon light")(w, r)
	})

	out, err := e.Rewrite(context.Background(), "a cat")
	require.NoError(t, err)
	assert.Contains(t, out, "tabby")
}

func TestEnhancer_StyleHint(t *testing.T) {
	e := newEnhancer(t, func(w http.ResponseWriter, r *http.Request) {
		var req pollinations.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[0].Content, "cinematic")
		chatAnswer("expanded")(w, r)
	}, WithStyle(StyleCinematic))

	_, err := e.Rewrite(context.Background(), "a cat")
	require.NoError(t, err)
}

func TestEnhancer_EmptyResultKeepsOriginal(t *testing.T) {
	e := newEnhancer(t, chatAnswer("  \n "))

	out, err := e.Rewrite(context.Background(), "a cat")
	require.NoError(t, err)
	assert.Equal(t, "a cat", out)
}

func TestEnhancer_EmptyPrompt(t *testing.T) {
	e := newEnhancer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := e.Rewrite(context.Background(), "   ")
	pe, ok := pollinations.AsError(err)
	require.True(t, ok)
	assert.Equal(t, pollinations.ErrInvalidRequest, pe.Code)
}

// ---------------------------------------------------------------------------
// Chain
// ---------------------------------------------------------------------------

func TestChain_Order(t *testing.T) {
	upper := RewriterFunc{ID: "upper", Fn: func(_ context.Context, p string) (string, error) {
		return strings.ToUpper(p), nil
	}}
	suffix := RewriterFunc{ID: "suffix", Fn: func(_ context.Context, p string) (string, error) {
		return p + "!", nil
	}}

	out, err := NewChain(upper, suffix).Execute(context.Background(), "cat")
	require.NoError(t, err)
	assert.Equal(t, "CAT!", out)
}

func TestChain_FailureNamesRewriter(t *testing.T) {
	boom := RewriterFunc{ID: "boom", Fn: func(_ context.Context, p string) (string, error) {
		return "", errors.New("nope")
	}}

	_, err := NewChain(boom).Execute(context.Background(), "cat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[boom]")
}

func TestChain_EmptyPassthrough(t *testing.T) {
	out, err := NewChain().Execute(context.Background(), "cat")
	require.NoError(t, err)
	assert.Equal(t, "cat", out)

	var c *Chain
	out, err = c.Execute(context.Background(), "dog")
	require.NoError(t, err)
	assert.Equal(t, "dog", out)
}
