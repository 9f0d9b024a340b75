// =============================================================================
// 🔊 speak / transcribe / describe 命令
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/blossom-ai/blossom-go/internal/history"
	"github.com/blossom-ai/blossom-go/pollinations/audio"
	"github.com/blossom-ai/blossom-go/pollinations/vision"
)

func runSpeak(args []string) {
	fs := flag.NewFlagSet("speak", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	voice := fs.String("voice", "", "Voice name (see 'blossom speak --voices')")
	speed := fs.Float64("speed", 0, "Speech speed [0.25, 4.0]")
	output := fs.String("output", "speech.mp3", "Output audio file")
	listVoices := fs.Bool("voices", false, "List available voices and exit")
	fs.Parse(args)

	if *listVoices {
		color.Cyan("Available voices:")
		for _, v := range audio.Voices() {
			fmt.Printf("  %-10s %s\n", v.ID, v.Description)
		}
		return
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: blossom speak [options] <text>")
		os.Exit(1)
	}
	textArg := strings.Join(fs.Args(), " ")

	a := newApp(*configPath)
	defer a.close()
	ctx := context.Background()

	req := &audio.SpeechRequest{Text: textArg, Voice: *voice, Speed: *speed}

	start := time.Now()
	err := a.do(ctx, func() error {
		return a.b.Audio().SpeakToFile(ctx, req, *output)
	})
	elapsed := time.Since(start)

	rec := &history.Record{
		Kind:       "speech",
		Prompt:     textArg,
		Model:      audio.DefaultModel,
		OutputPath: *output,
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
		a.record(rec)
		fail(err)
	}
	a.record(rec)
	color.Green("Saved %s (%s)", *output, elapsed.Round(time.Millisecond))
}

func runTranscribe(args []string) {
	fs := flag.NewFlagSet("transcribe", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	prompt := fs.String("prompt", "", "Optional guidance prompt")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: blossom transcribe [options] <audio-file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	a := newApp(*configPath)
	defer a.close()
	ctx := context.Background()

	start := time.Now()
	var transcript string
	err := a.do(ctx, func() error {
		var trErr error
		transcript, trErr = a.b.Audio().TranscribeFile(ctx, path, *prompt)
		return trErr
	})
	elapsed := time.Since(start)

	rec := &history.Record{
		Kind:       "transcribe",
		Prompt:     path,
		Model:      audio.DefaultModel,
		Bytes:      len(transcript),
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
		a.record(rec)
		fail(err)
	}
	a.record(rec)
	fmt.Println(transcript)
}

func runDescribe(args []string) {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	question := fs.String("question", "", "Question to ask about the image")
	model := fs.String("model", "", "Vision model override")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: blossom describe [options] <image-url-or-file>")
		os.Exit(1)
	}
	target := fs.Arg(0)

	a := newApp(*configPath)
	defer a.close()
	ctx := context.Background()

	var visionOpts []vision.Option
	if *model != "" {
		visionOpts = append(visionOpts, vision.WithModel(*model))
	}

	// http(s) 链接直接引用，其余按本地文件处理
	ask := func() (string, error) {
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			if *question != "" {
				return a.b.Vision().Ask(ctx, target, *question, visionOpts...)
			}
			return a.b.Vision().Describe(ctx, target, visionOpts...)
		}
		q := *question
		if q == "" {
			q = "Describe this image in detail."
		}
		return a.b.Vision().AskFile(ctx, target, q, visionOpts...)
	}

	start := time.Now()
	var answer string
	err := a.do(ctx, func() error {
		var askErr error
		answer, askErr = ask()
		return askErr
	})
	elapsed := time.Since(start)

	rec := &history.Record{
		Kind:       "describe",
		Prompt:     target,
		Model:      pick(*model, vision.DefaultModel),
		Bytes:      len(answer),
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
		a.record(rec)
		fail(err)
	}
	a.record(rec)
	fmt.Println(answer)
}
