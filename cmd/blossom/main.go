// =============================================================================
// Blossom 主入口
// =============================================================================
// Pollinations.AI 生成服务的命令行客户端
//
// 使用方法:
//
//	blossom generate --image "a red fox" --output fox.jpg
//	blossom generate --text "haiku about go"
//	blossom chat                          # 交互式对话
//	blossom speak "hello" --output out.mp3
//	blossom transcribe recording.mp3
//	blossom describe photo.jpg
//	blossom models                        # 列出可用模型
//	blossom feed --images                 # 订阅公共生成流
//	blossom history                       # 查看生成历史
//	blossom version                       # 显示版本信息
// =============================================================================
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/blossom-ai/blossom-go/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	// .env 不存在时静默跳过
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "chat":
		runChat(os.Args[2:])
	case "speak":
		runSpeak(os.Args[2:])
	case "transcribe":
		runTranscribe(os.Args[2:])
	case "describe":
		runDescribe(os.Args[2:])
	case "models":
		runModels(os.Args[2:])
	case "feed":
		runFeed(os.Args[2:])
	case "history":
		runHistory(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("Blossom %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`Blossom - Pollinations.AI command line client

Usage:
  blossom <command> [options]

Commands:
  generate    Generate an image or text completion
  chat        Interactive chat with streaming responses
  speak       Synthesize speech from text
  transcribe  Transcribe an audio file
  describe    Describe an image with a vision model
  models      List available image and text models
  feed        Follow the public generation feed
  history     Show or prune local generation history
  version     Show version information
  help        Show this help message

Options for 'generate':
  --image <prompt>   Generate an image from the prompt
  --text <prompt>    Generate a text completion from the prompt
  --output <path>    Write the result to a file instead of stdout
  --model <name>     Model override
  --seed <n>         Deterministic seed (enables caching)
  --enhance          Expand the prompt with the reasoning enhancer first

Common options:
  --config <path>    Path to configuration file (YAML)

Examples:
  blossom generate --image "a red fox in the snow" --output fox.jpg
  blossom generate --text "haiku about go" --seed 42
  blossom chat --model openai
  blossom speak "hello world" --voice nova --output hello.mp3
  blossom transcribe meeting.mp3
  blossom describe https://example.com/photo.jpg
  blossom feed --images
  blossom history --n 20
  blossom history prune --days 30`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	// stderr 始终输出，配置了文件路径时额外走 lumberjack 轮转
	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stderr)}
	if cfg.File != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.FileMaxSizeMB,
			MaxBackups: cfg.FileMaxBackups,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}
