// =============================================================================
// 📜 history 命令
// =============================================================================
// 列出与清理本地生成历史。
// =============================================================================
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

func runHistory(args []string) {
	// 子子命令：blossom history prune --days 30
	if len(args) > 0 && args[0] == "prune" {
		runHistoryPrune(args[1:])
		return
	}

	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	n := fs.Int("n", 10, "Number of records to show")
	kind := fs.String("kind", "", "Filter by kind: image, text, chat, speech, transcribe, describe")
	fs.Parse(args)

	a := newApp(*configPath)
	defer a.close()

	if a.store == nil {
		fmt.Fprintln(os.Stderr, "History is disabled in the configuration")
		os.Exit(1)
	}

	records, err := a.store.Recent(*n, *kind)
	if err != nil {
		fail(err)
	}
	if len(records) == 0 {
		fmt.Println("No history yet")
		return
	}

	total, err := a.store.Count()
	if err != nil {
		fail(err)
	}
	color.Cyan("Showing %d of %d records", len(records), total)

	for _, rec := range records {
		status := color.GreenString("ok")
		if rec.Error != "" {
			status = color.RedString("failed")
		}
		fmt.Printf("%s  %-10s %-6s %s\n",
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.Kind, status, truncatePrompt(rec.Prompt))
		if rec.OutputPath != "" {
			fmt.Printf("                                → %s\n", rec.OutputPath)
		}
	}
}

func runHistoryPrune(args []string) {
	fs := flag.NewFlagSet("history prune", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	days := fs.Int("days", 0, "Remove records older than this many days (0 uses the configured retention)")
	fs.Parse(args)

	a := newApp(*configPath)
	defer a.close()

	if a.store == nil {
		fmt.Fprintln(os.Stderr, "History is disabled in the configuration")
		os.Exit(1)
	}

	retention := a.cfg.History.Retention
	if *days > 0 {
		retention = time.Duration(*days) * 24 * time.Hour
	}

	removed, err := a.store.Prune(time.Now().Add(-retention))
	if err != nil {
		fail(err)
	}
	color.Green("Removed %d records older than %s", removed, retention)
}

func truncatePrompt(s string) string {
	const max = 60
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
