// Package blossom provides a top-level convenience entry point for the
// Pollinations.AI generation services with minimal boilerplate.
//
// Usage:
//
//	import "github.com/blossom-ai/blossom-go"
//
//	b, err := blossom.New()
//	b, err := blossom.New(blossom.WithToken("pk-..."), blossom.WithDebug())
//
//	img, err := b.Image().Generate(ctx, &image.Request{Prompt: "a red fox"})
//	txt, err := b.Text().Generate(ctx, &text.Request{Prompt: "haiku about go"})
//
// This is a thin wrapper around [pollinations.NewClient] and the per-modality
// service constructors; both produce identical results. Use this package when
// you prefer the shorter import path and a pre-wired response cache.
package blossom

import (
	"time"

	"github.com/blossom-ai/blossom-go/pollinations"
	"github.com/blossom-ai/blossom-go/pollinations/audio"
	"github.com/blossom-ai/blossom-go/pollinations/cache"
	"github.com/blossom-ai/blossom-go/pollinations/enhance"
	"github.com/blossom-ai/blossom-go/pollinations/feed"
	"github.com/blossom-ai/blossom-go/pollinations/image"
	"github.com/blossom-ai/blossom-go/pollinations/text"
	"github.com/blossom-ai/blossom-go/pollinations/vision"

	"go.uber.org/zap"
)

// Option configures the bundle created by [New].
type Option func(*options)

type options struct {
	clientOpts []pollinations.Option

	cache        cache.ResponseCache
	cacheMaxSize int
	cacheTTL     time.Duration
	noCache      bool
}

// WithToken sets the API token. Defaults to the POLLINATIONS_API_KEY or
// BLOSSOM_API_KEY environment variable.
func WithToken(token string) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, pollinations.WithToken(token)) }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, pollinations.WithTimeout(d)) }
}

// WithDebug enables debug logging on the underlying client.
func WithDebug() Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, pollinations.WithDebug()) }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, pollinations.WithLogger(logger)) }
}

// WithReferrer sets the application identifier sent with every request.
func WithReferrer(ref string) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, pollinations.WithReferrer(ref)) }
}

// WithRateLimit enables client-side rate limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, pollinations.WithRateLimit(rps, burst)) }
}

// WithCache replaces the default in-process response cache.
func WithCache(rc cache.ResponseCache) Option {
	return func(o *options) { o.cache = rc }
}

// WithCacheSize tunes the default in-process cache.
func WithCacheSize(maxSize int, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheMaxSize = maxSize
		o.cacheTTL = ttl
	}
}

// WithoutCache disables response caching entirely.
func WithoutCache() Option {
	return func(o *options) { o.noCache = true }
}

// WithClientOptions passes additional options straight to the underlying
// [pollinations.Client] for anything the facade doesn't cover.
func WithClientOptions(opts ...pollinations.Option) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// Blossom bundles the per-modality services over one shared client.
type Blossom struct {
	client *pollinations.Client

	images   *image.Service
	texts    *text.Service
	audios   *audio.Service
	visions  *vision.Service
	feeds    *feed.Service
	enhancer *enhance.Enhancer
}

// New creates a ready-to-use service bundle. Without options it talks to the
// official Pollinations.AI hosts anonymously with a small in-process cache
// for seeded requests.
func New(opts ...Option) (*Blossom, error) {
	o := &options{
		cacheMaxSize: 256,
		cacheTTL:     5 * time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}

	client, err := pollinations.NewClient(o.clientOpts...)
	if err != nil {
		return nil, err
	}

	rc := o.cache
	if rc == nil && !o.noCache {
		rc = cache.NewLocal(o.cacheMaxSize, o.cacheTTL, client.Logger())
	}

	var imageOpts []image.ServiceOption
	var textOpts []text.ServiceOption
	if rc != nil {
		imageOpts = append(imageOpts, image.WithCache(rc))
		textOpts = append(textOpts, text.WithCache(rc))
	}

	b := &Blossom{
		client:  client,
		images:  image.NewService(client, imageOpts...),
		texts:   text.NewService(client, textOpts...),
		audios:  audio.NewService(client),
		visions: vision.NewService(client),
		feeds:   feed.NewService(client),
	}
	b.enhancer = enhance.NewEnhancer(b.texts, client.Logger())
	return b, nil
}

// Image returns the image generation service.
func (b *Blossom) Image() *image.Service { return b.images }

// Text returns the text generation and chat service.
func (b *Blossom) Text() *text.Service { return b.texts }

// Audio returns the speech synthesis and transcription service.
func (b *Blossom) Audio() *audio.Service { return b.audios }

// Vision returns the image understanding service.
func (b *Blossom) Vision() *vision.Service { return b.visions }

// Feed returns the public generation feed service.
func (b *Blossom) Feed() *feed.Service { return b.feeds }

// Enhancer returns the prompt enhancer.
func (b *Blossom) Enhancer() *enhance.Enhancer { return b.enhancer }

// Client exposes the underlying client for callers that need custom
// request paths.
func (b *Blossom) Client() *pollinations.Client { return b.client }

// Close releases resources held by the underlying client.
func (b *Blossom) Close() { b.client.Close() }
