package image

import (
	"fmt"
	"unicode/utf8"

	"github.com/blossom-ai/blossom-go/pollinations"
)

// Parameter bounds enforced before any HTTP call.
const (
	MinDimension = 64
	MaxDimension = 2048
	MinGuidance  = 1.0
	MaxGuidance  = 20.0

	// MaxPromptRunes bounds the prompt so the GET URL stays within
	// common proxy limits.
	MaxPromptRunes = 2000

	DefaultModel  = "flux"
	DefaultWidth  = 1024
	DefaultHeight = 1024
)

// Qualities lists the admissible quality presets.
var Qualities = []string{"low", "medium", "high", "hd"}

// Formats lists the admissible output formats.
var Formats = []string{"jpeg", "png", "webp"}

// Request holds the parameters for a single image generation.
// Zero values mean "use the server default"; only Prompt is required.
type Request struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`

	// Width and Height must be within [64, 2048] when set.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Seed makes generation deterministic (and cacheable) when > 0.
	Seed int64 `json:"seed,omitempty"`

	// GuidanceScale must be within [1.0, 20.0] when set.
	GuidanceScale float64 `json:"guidance_scale,omitempty"`

	NegativePrompt string `json:"negative_prompt,omitempty"`

	// Quality is one of low, medium, high, hd.
	Quality string `json:"quality,omitempty"`

	// Format is an output format hint: jpeg, png or webp.
	Format string `json:"format,omitempty"`

	// Image is a source image URL for image-to-image generation.
	Image string `json:"image,omitempty"`

	// Transparent requests a transparent background (gptimage only).
	Transparent bool `json:"transparent,omitempty"`

	// Enhance asks the server to expand the prompt before generation.
	Enhance bool `json:"enhance,omitempty"`

	NoLogo  bool `json:"nologo,omitempty"`
	Private bool `json:"private,omitempty"`
	Safe    bool `json:"safe,omitempty"`
}

// Validate checks all parameter bounds. It returns a *pollinations.Error
// with code ErrInvalidRequest on the first violation found.
func (r *Request) Validate() error {
	if r == nil {
		return pollinations.InvalidRequest("image request is nil", "")
	}
	if r.Prompt == "" {
		return pollinations.InvalidRequest(
			"prompt must not be empty",
			"pass a non-empty text prompt describing the image",
		)
	}
	if n := utf8.RuneCountInString(r.Prompt); n > MaxPromptRunes {
		return pollinations.InvalidRequest(
			fmt.Sprintf("prompt is %d runes, limit is %d", n, MaxPromptRunes),
			"shorten the prompt or move detail into the negative prompt",
		)
	}
	if err := checkDimension("width", r.Width); err != nil {
		return err
	}
	if err := checkDimension("height", r.Height); err != nil {
		return err
	}
	if r.GuidanceScale != 0 && (r.GuidanceScale < MinGuidance || r.GuidanceScale > MaxGuidance) {
		return pollinations.InvalidRequest(
			fmt.Sprintf("guidance scale %.2f out of range [%.1f, %.1f]", r.GuidanceScale, MinGuidance, MaxGuidance),
			"use a guidance scale between 1.0 and 20.0, typical values are 3 to 9",
		)
	}
	if r.Quality != "" && !contains(Qualities, r.Quality) {
		return pollinations.InvalidRequest(
			fmt.Sprintf("quality %q is not supported", r.Quality),
			"use one of: low, medium, high, hd",
		)
	}
	if r.Format != "" && !contains(Formats, r.Format) {
		return pollinations.InvalidRequest(
			fmt.Sprintf("format %q is not supported", r.Format),
			"use one of: jpeg, png, webp",
		)
	}
	return nil
}

func checkDimension(name string, v int) error {
	if v == 0 {
		return nil
	}
	if v < MinDimension || v > MaxDimension {
		return pollinations.InvalidRequest(
			fmt.Sprintf("%s %d out of range [%d, %d]", name, v, MinDimension, MaxDimension),
			fmt.Sprintf("use a %s between %d and %d pixels", name, MinDimension, MaxDimension),
		)
	}
	return nil
}

// Deterministic reports whether the request pins a seed, making the
// response stable and safe to cache.
func (r *Request) Deterministic() bool {
	return r.Seed > 0
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
