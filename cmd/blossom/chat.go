// =============================================================================
// 💬 chat / models / feed 命令
// =============================================================================
// chat 是带流式输出的交互对话；models 列出两类模型目录；
// feed 订阅公共生成流直到 Ctrl-C。
// =============================================================================
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/blossom-ai/blossom-go/internal/history"
	"github.com/blossom-ai/blossom-go/pollinations"
)

func runChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	model := fs.String("model", "", "Model override")
	system := fs.String("system", "", "System prompt")
	fs.Parse(args)

	a := newApp(*configPath)
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var messages []pollinations.Message
	if *system != "" {
		messages = append(messages, pollinations.System(*system))
	}

	color.Cyan("Blossom chat — type your message, Ctrl-D or /quit to exit")
	scanner := bufio.NewScanner(os.Stdin)
	prompt := color.New(color.FgGreen, color.Bold)

	for {
		prompt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return
		}

		messages = append(messages, pollinations.User(line))
		reply, err := streamReply(ctx, a, &pollinations.ChatRequest{
			Model:    pick(*model, a.cfg.Client.TextModel),
			Messages: messages,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			// 失败的轮次不进入上下文
			messages = messages[:len(messages)-1]
			continue
		}
		messages = append(messages, pollinations.Assistant(reply))
	}
}

// streamReply 流式打印一轮回复并返回完整文本。
func streamReply(ctx context.Context, a *app, req *pollinations.ChatRequest) (string, error) {
	start := time.Now()
	ch, err := a.b.Text().ChatStream(ctx, req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			fmt.Println()
			return "", chunk.Err
		}
		fmt.Print(chunk.Delta)
		b.WriteString(chunk.Delta)
	}
	fmt.Println()

	reply := b.String()
	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == pollinations.RoleUser {
			lastUser = req.Messages[i].Text()
			break
		}
	}
	a.record(&history.Record{
		Kind:       "chat",
		Prompt:     lastUser,
		Model:      req.Model,
		Bytes:      len(reply),
		DurationMS: time.Since(start).Milliseconds(),
	})
	return reply, nil
}

func runModels(args []string) {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	a := newApp(*configPath)
	defer a.close()
	ctx := context.Background()

	imageModels, err := a.b.Image().Models(ctx)
	if err != nil {
		fail(err)
	}
	color.Cyan("Image models:")
	for _, m := range imageModels {
		fmt.Printf("  %s\n", m)
	}

	textModels, err := a.b.Text().Models(ctx)
	if err != nil {
		fail(err)
	}
	color.Cyan("Text models:")
	for _, m := range textModels {
		var tags []string
		if m.Vision {
			tags = append(tags, "vision")
		}
		if m.Audio {
			tags = append(tags, "audio")
		}
		if m.Reasoning {
			tags = append(tags, "reasoning")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = " [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Printf("  %-24s %s%s\n", m.Name, m.Description, suffix)
	}
}

func runFeed(args []string) {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	images := fs.Bool("images", false, "Follow the image feed")
	texts := fs.Bool("texts", false, "Follow the text feed")
	fs.Parse(args)

	if *images == *texts {
		fmt.Fprintln(os.Stderr, "Exactly one of --images or --texts is required")
		os.Exit(1)
	}

	a := newApp(*configPath)
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *images {
		ch, err := a.b.Feed().Images(ctx)
		if err != nil {
			fail(err)
		}
		for ev := range ch {
			if ev.Err != nil {
				if ctx.Err() != nil {
					return
				}
				fail(ev.Err)
			}
			fmt.Printf("%s  %s\n", color.CyanString("%-10s", ev.Model), ev.Prompt)
			fmt.Printf("          %s\n", ev.ImageURL)
		}
		return
	}

	ch, err := a.b.Feed().Texts(ctx)
	if err != nil {
		fail(err)
	}
	for ev := range ch {
		if ev.Err != nil {
			if ctx.Err() != nil {
				return
			}
			fail(ev.Err)
		}
		fmt.Printf("%s  %s\n", color.CyanString("%-10s", ev.Model), ev.Response)
	}
}
