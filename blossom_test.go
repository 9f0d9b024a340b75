package blossom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blossom-ai/blossom-go/pollinations"
	"github.com/blossom-ai/blossom-go/pollinations/image"
	"github.com/blossom-ai/blossom-go/pollinations/text"
	"github.com/blossom-ai/blossom-go/testutil"
)

func newBundle(t *testing.T, srv *testutil.Server, opts ...Option) *Blossom {
	t.Helper()
	base := []Option{
		WithClientOptions(
			pollinations.WithImageBase(srv.URL()),
			pollinations.WithTextBase(srv.URL()),
		),
	}
	b, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func TestNewWiresAllServices(t *testing.T) {
	b, err := New()
	require.NoError(t, err)
	defer b.Close()

	assert.NotNil(t, b.Image())
	assert.NotNil(t, b.Text())
	assert.NotNil(t, b.Audio())
	assert.NotNil(t, b.Vision())
	assert.NotNil(t, b.Feed())
	assert.NotNil(t, b.Enhancer())
	assert.NotNil(t, b.Client())
}

func TestImageThroughFacade(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.HandleImage(testutil.FakeJPEG())

	b := newBundle(t, srv)

	data, err := b.Image().Generate(context.Background(), &image.Request{Prompt: "a red fox"})
	require.NoError(t, err)
	assert.Equal(t, testutil.FakeJPEG(), data)
	assert.EqualValues(t, 1, srv.Calls())
}

func TestChatThroughFacade(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.HandleChat(testutil.ChatJSON("openai", "hello from the fake"))

	b := newBundle(t, srv)

	resp, err := b.Text().Chat(context.Background(), &pollinations.ChatRequest{
		Messages: []pollinations.Message{pollinations.User("hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from the fake", resp.Text())
}

func TestDefaultCacheDeduplicatesSeededRequests(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.HandleImage(testutil.FakeJPEG())

	b := newBundle(t, srv)

	req := &image.Request{Prompt: "a red fox", Seed: 7}
	_, err := b.Image().Generate(context.Background(), req)
	require.NoError(t, err)
	_, err = b.Image().Generate(context.Background(), req)
	require.NoError(t, err)

	assert.EqualValues(t, 1, srv.Calls(), "second seeded request should be served from cache")
}

func TestWithoutCacheAlwaysHitsNetwork(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.HandleImage(testutil.FakeJPEG())

	b := newBundle(t, srv, WithoutCache())

	req := &image.Request{Prompt: "a red fox", Seed: 7}
	_, err := b.Image().Generate(context.Background(), req)
	require.NoError(t, err)
	_, err = b.Image().Generate(context.Background(), req)
	require.NoError(t, err)

	assert.EqualValues(t, 2, srv.Calls())
}

func TestTextGenerateThroughFacade(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.HandleText("plain completion")

	b := newBundle(t, srv)

	out, err := b.Text().Generate(context.Background(), &text.Request{Prompt: "say something"})
	require.NoError(t, err)
	assert.Equal(t, "plain completion", out)
}
