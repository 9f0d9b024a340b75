// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// 包 batch 提供 gather 风格的并发批量生成：N 个独立请求经有界
// worker 并发执行，按输入顺序返回逐项结果。默认逐项隔离——单个
// 请求失败不影响其它请求；FailFast 模式下首个失败取消剩余请求。
package batch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blossom-ai/blossom-go/pollinations/image"
	"github.com/blossom-ai/blossom-go/pollinations/text"
)

// DefaultWorkers 默认并发度。生成类 API 单请求耗时以秒计，
// 并发度主要受上游限流约束。
const DefaultWorkers = 4

// Result 是批量执行中单项的结果。Err 非空时 Value 为零值。
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Options 配置一次批量执行。
type Options struct {
	// Workers 并发 worker 数，<= 0 时取 DefaultWorkers。
	Workers int

	// FailFast 为 true 时首个失败会取消仍在执行的请求。
	FailFast bool

	Logger *zap.Logger
}

// Run 用有界并发执行 fn 处理每个输入项，结果按输入顺序排列。
// 非 FailFast 模式下总是返回全部 N 项结果；FailFast 模式下被
// 取消的项带 context.Canceled。
func Run[T, R any](ctx context.Context, items []T, opts Options, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]Result[R], len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		g.Go(func() error {
			// FailFast 模式下跳过已取消的项
			if err := gctx.Err(); err != nil {
				results[i] = Result[R]{Index: i, Err: err}
				return nil
			}

			value, err := fn(gctx, item)
			results[i] = Result[R]{Index: i, Value: value, Err: err}
			if err != nil {
				logger.Debug("batch item failed", zap.Int("index", i), zap.Error(err))
				if opts.FailFast {
					return err
				}
			}
			return nil
		})
	}

	// 逐项错误已收进 results，聚合错误只在 FailFast 模式下产生
	_ = g.Wait()
	return results
}

// GenerateImages 并发生成 N 张图像，结果按请求顺序排列。
func GenerateImages(ctx context.Context, svc *image.Service, reqs []*image.Request, opts Options) []Result[[]byte] {
	return Run(ctx, reqs, opts, func(ctx context.Context, req *image.Request) ([]byte, error) {
		return svc.Generate(ctx, req)
	})
}

// GenerateTexts 并发执行 N 个文本生成，结果按请求顺序排列。
func GenerateTexts(ctx context.Context, svc *text.Service, reqs []*text.Request, opts Options) []Result[string] {
	return Run(ctx, reqs, opts, func(ctx context.Context, req *text.Request) (string, error) {
		return svc.Generate(ctx, req)
	})
}

// Errors 收集失败项的错误，全部成功时返回 nil。
func Errors[R any](results []Result[R]) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
