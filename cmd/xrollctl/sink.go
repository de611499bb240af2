package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xroll/pkg/observability/xlog"
	"github.com/omeyang/xroll/pkg/observability/xrotate"
)

type sinkOptions struct {
	// structured 为 true 时每行作为一条 INFO 记录经 xlog 写入，否则原样追加
	structured bool
	retry      retryConfig
	diag       xlog.Logger
	mp         metric.MeterProvider
}

// sink 持有当前轮转器，配置热更新时整体替换
type sink struct {
	opts sinkOptions

	mu      sync.Mutex
	cfg     xrotate.Config
	rotator xrotate.Rotator
	logger  xlog.Logger
	cleanup func() error
	closed  bool
}

// opened 一次 open 的产物
type opened struct {
	rotator xrotate.Rotator
	logger  xlog.Logger
	cleanup func() error
}

func newSink(ctx context.Context, cfg xrotate.Config, opts sinkOptions) (*sink, error) {
	s := &sink{opts: opts}
	o, err := s.open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.install(cfg, o)
	return s, nil
}

func (s *sink) install(cfg xrotate.Config, o opened) {
	s.cfg, s.rotator, s.logger, s.cleanup = cfg, o.rotator, o.logger, o.cleanup
}

// open 带重试地创建轮转器，structured 模式下同时创建写入它的 xlog
func (s *sink) open(ctx context.Context, cfg xrotate.Config) (opened, error) {
	onRetry := func(n uint, err error) {
		s.opts.diag.Warn(ctx, "open rotator failed, retrying",
			xlog.File(cfg.Filename), slog.Uint64("attempt", uint64(n)+1), xlog.Err(err))
	}
	r, err := s.opts.retry.buildRotator(ctx, cfg, onRetry,
		xrotate.WithOnError(s.reportError),
		xrotate.WithMeterProvider(s.opts.mp),
	)
	if err != nil {
		return opened{}, err
	}
	if !s.opts.structured {
		return opened{rotator: r, cleanup: r.Close}, nil
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	b := xlog.New().SetRotation(r).SetLevelString(level).SetOnError(s.reportError)
	if !cfg.IsTimePolicy() {
		// 按大小轮转没有 Formatter，由 slog 前端渲染
		b.SetFormat(cfg.Format)
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return opened{}, errors.Join(err, r.Close())
	}
	return opened{rotator: r, logger: logger, cleanup: cleanup}, nil
}

func (s *sink) reportError(err error) {
	var delErr *xrotate.RetentionDeleteError
	if errors.As(err, &delErr) {
		s.opts.diag.Warn(context.Background(), "retention delete failed",
			xlog.File(delErr.Path), xlog.Err(delErr.Err))
		return
	}
	s.opts.diag.Error(context.Background(), "rotator error", xlog.Err(err))
}

// absorbDeleteError 淘汰失败时数据已经写入，只上报不中断
func (s *sink) absorbDeleteError(err error) error {
	var delErr *xrotate.RetentionDeleteError
	if errors.As(err, &delErr) {
		s.reportError(err)
		return nil
	}
	return err
}

// writeLine 写入一行，line 在返回后可被调用方复用
func (s *sink) writeLine(ctx context.Context, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return xrotate.ErrClosed
	}
	if s.opts.structured {
		s.logger.Info(ctx, string(line))
		return nil
	}

	buf := make([]byte, len(line)+1)
	copy(buf, line)
	buf[len(line)] = '\n'

	err := s.opts.retry.do(ctx, func(n uint, err error) {
		s.opts.diag.Warn(ctx, "write failed, retrying", slog.Uint64("attempt", uint64(n)+1), xlog.Err(err))
	}, func() error {
		n, err := s.rotator.Write(buf)
		if err != nil && n > 0 {
			return &partialWriteError{n: n, err: err}
		}
		return err
	})
	return s.absorbDeleteError(err)
}

// flush 定时落盘。轮转打开失败期间没有可写文件，下一次写入会重试打开，
// 这里不把它当作致命错误。
func (s *sink) flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err := s.rotator.Flush(); err != nil && !errors.Is(err, xrotate.ErrNoFile) {
		return err
	}
	return nil
}

// rotate 按当前时钟重新评估轮转窗口，用于 SIGHUP
func (s *sink) rotate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err := s.absorbDeleteError(s.rotator.Rotate()); err != nil {
		return err
	}
	s.opts.diag.Info(ctx, "rotate requested", xlog.File(s.cfg.Filename))
	return nil
}

// swap 按新配置重建轮转器，配置未变化时什么都不做。
// 新轮转器创建失败时返回错误，旧的继续工作。
func (s *sink) swap(ctx context.Context, cfg xrotate.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.cfg == cfg {
		return nil
	}
	// 新旧可能指向同一文件，先让旧缓冲落盘
	if err := s.rotator.Flush(); err != nil {
		s.opts.diag.Warn(ctx, "flush before reconfigure failed", xlog.Err(err))
	}
	o, err := s.open(ctx, cfg)
	if err != nil {
		return err
	}
	if err := s.cleanup(); err != nil {
		s.opts.diag.Warn(ctx, "close previous rotator failed", xlog.Err(err))
	}
	s.install(cfg, o)
	s.opts.diag.Info(ctx, "rotator reconfigured", xlog.File(cfg.Filename), slog.String("policy", cfg.Policy))
	return nil
}

// close 刷新并关闭，重复调用安全
func (s *sink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.cleanup()
}
