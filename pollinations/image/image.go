package image

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/blossom-ai/blossom-go/pollinations"
	"github.com/blossom-ai/blossom-go/pollinations/cache"
)

// Service generates images through the image.pollinations.ai endpoint.
// The zero value is not usable; construct it with NewService.
type Service struct {
	client *pollinations.Client
	cache  cache.ResponseCache
	logger *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache attaches a response cache. Only seeded (deterministic)
// requests are served from and written to the cache.
func WithCache(rc cache.ResponseCache) ServiceOption {
	return func(s *Service) { s.cache = rc }
}

// NewService creates an image service on top of the shared client.
func NewService(c *pollinations.Client, opts ...ServiceOption) *Service {
	s := &Service{
		client: c,
		logger: c.Logger().With(zap.String("service", "image")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateURL builds the fully parameterised request URL without
// performing any HTTP call. The query string is canonical: parameters
// appear in sorted order, defaults are elided, so equal requests always
// produce byte-identical URLs.
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
	if req.Width > 0 {
		q.Set("width", strconv.Itoa(req.Width))
	}
	if req.Height > 0 {
		q.Set("height", strconv.Itoa(req.Height))
	}
	if req.Seed > 0 {
		q.Set("seed", strconv.FormatInt(req.Seed, 10))
	}
	if req.GuidanceScale != 0 {
		q.Set("guidance_scale", strconv.FormatFloat(req.GuidanceScale, 'g', -1, 64))
	}
	if req.NegativePrompt != "" {
		q.Set("negative_prompt", req.NegativePrompt)
	}
	if req.Quality != "" {
		q.Set("quality", req.Quality)
	}
	if req.Format != "" {
		q.Set("format", req.Format)
	}
	if req.Image != "" {
		q.Set("image", req.Image)
	}
	if req.Transparent {
		q.Set("transparent", "true")
	}
	if req.Enhance {
		q.Set("enhance", "true")
	}
	if req.NoLogo {
		q.Set("nologo", "true")
	}
	if req.Private {
		q.Set("private", "true")
	}
	if req.Safe {
		q.Set("safe", "true")
	}
	if ref := s.client.Referrer(); ref != "" {
		q.Set("referrer", ref)
	}

	return s.client.ImageBaseURL() + "/prompt/" + url.PathEscape(req.Prompt) + "?" + q.Encode(), nil
}

// Generate produces an image and returns the raw encoded bytes.
// Seeded requests hit the response cache first when one is attached.
func (s *Service) Generate(ctx context.Context, req *Request) ([]byte, error) {
	requestURL, err := s.GenerateURL(req)
	if err != nil {
		return nil, err
	}

	cacheable := s.cache != nil && req.Deterministic()
	key := cache.URLKey(requestURL)
	if cacheable {
		if entry, err := s.cache.Get(ctx, key); err == nil {
			s.logger.Debug("image served from cache", zap.String("key", key))
			return entry.Payload, nil
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "image/*")

	resp, err := s.client.Do(ctx, httpReq, "image.generate")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := pollinations.ReadErrorMessage(resp.Body)
		e := pollinations.MapHTTPError(resp.StatusCode, msg, "image.generate")
		e.RetryAfter = pollinations.RetryAfterFromHeader(resp.Header)
		return nil, e
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &pollinations.Error{
			Code:      pollinations.ErrNetwork,
			Message:   "failed to read image body: " + err.Error(),
			Retryable: true,
			Endpoint:  "image.generate",
		}
	}
	if len(data) == 0 {
		return nil, &pollinations.Error{
			Code:      pollinations.ErrUpstreamError,
			Message:   "upstream returned an empty image",
			Retryable: true,
			Endpoint:  "image.generate",
		}
	}
	s.client.RecordResponseSize("image.generate", len(data))

	if cacheable {
		_ = s.cache.Set(ctx, key, &cache.Entry{
			Payload:     data,
			ContentType: resp.Header.Get("Content-Type"),
			Model:       req.Model,
			Seed:        req.Seed,
		})
	}

	s.logger.Debug("image generated",
		zap.Int("bytes", len(data)),
		zap.String("model", req.Model),
		zap.Int64("seed", req.Seed),
	)
	return data, nil
}

// Save generates an image and writes it to path. The bytes land in a
// temp file first and are renamed into place, so a failed generation
// never leaves a truncated image behind.
func (s *Service) Save(ctx context.Context, req *Request, path string) error {
	data, err := s.Generate(ctx, req)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".blossom-image-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write image file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close image file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move image file: %w", err)
	}

	s.logger.Debug("image saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// Models lists the available image model names.
func (s *Service) Models(ctx context.Context) ([]string, error) {
	endpoint := s.client.ImageBaseURL() + "/models"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(ctx, httpReq, "image.models")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := pollinations.ReadErrorMessage(resp.Body)
		return nil, pollinations.MapHTTPError(resp.StatusCode, msg, "image.models")
	}

	var models []string
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, &pollinations.Error{
			Code:      pollinations.ErrUpstreamError,
			Message:   "failed to decode model list: " + err.Error(),
			Retryable: true,
			Endpoint:  "image.models",
		}
	}
	return models, nil
}
