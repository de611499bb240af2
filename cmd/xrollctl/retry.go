package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/avast/retry-go/v5"

	"github.com/omeyang/xroll/pkg/observability/xrotate"
	"github.com/omeyang/xroll/pkg/util/xfile"
)

// isConfigError 判断是否为配置或路径参数错误
func isConfigError(err error) bool {
	for _, target := range []error{
		xrotate.ErrInvalidConfig,
		xrotate.ErrEmptyFilename,
		xrotate.ErrInvalidMaxSize,
		xrotate.ErrInvalidMaxBackups,
		xrotate.ErrInvalidFileMode,
		xfile.ErrEmptyPath,
		xfile.ErrInvalidPath,
		xfile.ErrPathTraversal,
		xfile.ErrNullByte,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// partialWriteError 写入失败但已有部分字节落盘
type partialWriteError struct {
	n   int
	err error
}

func (e *partialWriteError) Error() string {
	return fmt.Sprintf("%v (%d bytes already written)", e.err, e.n)
}

func (e *partialWriteError) Unwrap() error { return e.err }

// retryable 判断错误是否值得重试。
//
// 配置类错误重试无意义；RetentionDeleteError 和部分写入表示数据
// 已经（部分）写入，重试会造成重复写入。
func retryable(err error) bool {
	var partial *partialWriteError
	switch {
	case errors.As(err, &partial),
		isConfigError(err),
		errors.Is(err, xrotate.ErrRetentionDelete),
		errors.Is(err, xrotate.ErrFormat),
		errors.Is(err, xrotate.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// options 按配置生成 retry-go 选项
func (c retryConfig) options(ctx context.Context, onRetry func(n uint, err error)) []retry.Option {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.Attempts),
		retry.Delay(c.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
	}
	if onRetry != nil {
		opts = append(opts, retry.OnRetry(onRetry))
	}
	return opts
}

// do 带重试执行 fn。retry-go 的重试器带计数状态，每次调用都新建。
func (c retryConfig) do(ctx context.Context, onRetry func(n uint, err error), fn func() error) error {
	return retry.New(c.options(ctx, onRetry)...).Do(fn)
}

// buildRotator 带重试地按配置创建轮转器
func (c retryConfig) buildRotator(ctx context.Context, cfg xrotate.Config, onRetry func(n uint, err error), extra ...xrotate.Option) (xrotate.Rotator, error) {
	return retry.NewWithData[xrotate.Rotator](c.options(ctx, onRetry)...).Do(func() (xrotate.Rotator, error) {
		return cfg.Build(extra...)
	})
}
