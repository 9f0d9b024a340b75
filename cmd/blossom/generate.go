// =============================================================================
// 🖼️ generate 命令
// =============================================================================
// 图像与文本生成，--image / --text 二选一，--output 控制落盘。
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/blossom-ai/blossom-go/internal/history"
	"github.com/blossom-ai/blossom-go/pollinations/enhance"
	"github.com/blossom-ai/blossom-go/pollinations/image"
	"github.com/blossom-ai/blossom-go/pollinations/text"
)

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	imagePrompt := fs.String("image", "", "Image generation prompt")
	textPrompt := fs.String("text", "", "Text generation prompt")
	output := fs.String("output", "", "Output file path")
	model := fs.String("model", "", "Model override")
	seed := fs.Int64("seed", 0, "Deterministic seed (enables caching)")
	width := fs.Int("width", 0, "Image width")
	height := fs.Int("height", 0, "Image height")
	negative := fs.String("negative", "", "Negative prompt")
	quality := fs.String("quality", "", "Image quality: low, medium, high, hd")
	format := fs.String("format", "", "Image format: jpeg, png, webp")
	guidance := fs.Float64("guidance", 0, "Guidance scale [1.0, 20.0]")
	system := fs.String("system", "", "System prompt for text generation")
	jsonOut := fs.Bool("json", false, "Request JSON output for text generation")
	private := fs.Bool("private", false, "Keep the result out of the public feed")
	enhanceFlag := fs.Bool("enhance", false, "Expand the prompt with the reasoning enhancer first")
	style := fs.String("style", "", "Enhancer style: photo, cinematic, anime, oil-paint, watercolor, sketch, pixel-art")
	fs.Parse(args)

	if (*imagePrompt == "") == (*textPrompt == "") {
		fmt.Fprintln(os.Stderr, "Exactly one of --image or --text is required")
		fs.Usage()
		os.Exit(1)
	}

	a := newApp(*configPath)
	defer a.close()
	ctx := context.Background()

	if *imagePrompt != "" {
		generateImage(ctx, a, &image.Request{
			Prompt:         *imagePrompt,
			Model:          pick(*model, a.cfg.Client.ImageModel),
			Width:          *width,
			Height:         *height,
			Seed:           *seed,
			GuidanceScale:  *guidance,
			NegativePrompt: *negative,
			Quality:        *quality,
			Format:         *format,
			Private:        *private,
		}, *output, *enhanceFlag, *style)
		return
	}

	generateText(ctx, a, &text.Request{
		Prompt:  *textPrompt,
		Model:   pick(*model, a.cfg.Client.TextModel),
		System:  *system,
		Seed:    *seed,
		JSON:    *jsonOut,
		Private: *private,
	}, *output)
}

func generateImage(ctx context.Context, a *app, req *image.Request, output string, enhancePrompt bool, style string) {
	if enhancePrompt {
		opts := []enhance.Option{}
		if style != "" {
			opts = append(opts, enhance.WithStyle(enhance.Style(style)))
		}
		enhancer := enhance.NewEnhancer(a.b.Text(), a.logger, opts...)
		rewritten, err := enhancer.Rewrite(ctx, req.Prompt)
		if err != nil {
			a.logger.Warn("prompt enhancement failed, using original prompt")
		} else {
			color.Cyan("Enhanced prompt: %s", rewritten)
			req.Prompt = rewritten
		}
	}

	start := time.Now()
	var data []byte
	err := a.do(ctx, func() error {
		var genErr error
		data, genErr = a.b.Image().Generate(ctx, req)
		return genErr
	})
	elapsed := time.Since(start)

	rec := &history.Record{
		Kind:       "image",
		Prompt:     req.Prompt,
		Model:      req.Model,
		Seed:       req.Seed,
		OutputPath: output,
		Bytes:      len(data),
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
		a.record(rec)
		fail(err)
	}
	a.record(rec)

	if output == "" {
		// 图像字节没有落盘目标时只报告大小，不往终端倾倒二进制
		color.Green("Generated %d bytes in %s (use --output to save)", len(data), elapsed.Round(time.Millisecond))
		return
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		fail(fmt.Errorf("failed to write output: %w", err))
	}
	color.Green("Saved %s (%d bytes, %s)", output, len(data), elapsed.Round(time.Millisecond))
}

func generateText(ctx context.Context, a *app, req *text.Request, output string) {
	start := time.Now()
	var result string
	err := a.do(ctx, func() error {
		var genErr error
		result, genErr = a.b.Text().Generate(ctx, req)
		return genErr
	})
	elapsed := time.Since(start)

	rec := &history.Record{
		Kind:       "text",
		Prompt:     req.Prompt,
		Model:      req.Model,
		Seed:       req.Seed,
		OutputPath: output,
		Bytes:      len(result),
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
		a.record(rec)
		fail(err)
	}
	a.record(rec)

	if output != "" {
		if err := os.WriteFile(output, []byte(result), 0o644); err != nil {
			fail(fmt.Errorf("failed to write output: %w", err))
		}
		color.Green("Saved %s (%d chars, %s)", output, len(result), elapsed.Round(time.Millisecond))
		return
	}
	fmt.Println(result)
}

// pick 返回第一个非空值。
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
