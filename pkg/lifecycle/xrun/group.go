package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group 基于 errgroup + context 管理一组协作的服务函数。
//
// 任一服务返回错误或 context 被取消时，其余服务都会收到取消信号。
// Go、GoNamed、Cancel 可并发调用，Wait 只应调用一次。
//
//	g, ctx := xrun.NewGroup(ctx)
//	g.Go(pump)
//	g.Go(xrun.Ticker(time.Second, false, flush))
//	err := g.Wait()
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group，返回的 context 在任一服务出错或 Cancel 后被取消。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)

	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     options,
	}, egCtx
}

// Go 在新 goroutine 中运行 fn。fn 返回非 nil 错误会取消整个 Group。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoNamed 与 Go 相同，额外记录服务的启动与退出
func (g *Group) GoNamed(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		attrs := []slog.Attr{slog.String("group", g.opts.name), slog.String("service", name)}
		g.debug("service starting", attrs...)
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.warn("service exited with error", append(attrs, slog.String("error", err.Error()))...)
		} else {
			g.debug("service stopped", attrs...)
		}
		return err
	})
}

// Wait 等待全部服务退出。
//
// 返回第一个非 nil 错误。由 Group 自身取消引起的 context.Canceled 会被过滤，
// 但 Cancel(cause) 或信号处理设置的非 Canceled 原因总会返回，
// 即使所有服务都返回了 nil。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	g.debug("all services stopped", slog.String("group", g.opts.name))

	// causeCtx 未被取消时 Canceled 来自服务内部，原样返回
	if errors.Is(err, context.Canceled) {
		if g.causeCtx.Err() == nil {
			return err
		}
		return g.explicitCause()
	}
	if err == nil && g.causeCtx.Err() != nil {
		return g.explicitCause()
	}
	return err
}

func (g *Group) explicitCause() error {
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 取消所有服务。cause 非 nil 时由 Wait 返回，
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的 context
func (g *Group) Context() context.Context {
	return g.ctx
}

func (g *Group) debug(msg string, attrs ...slog.Attr) {
	if g.opts.logger != nil {
		g.opts.logger.Debug(g.ctx, msg, attrs...)
	}
}

func (g *Group) warn(msg string, attrs ...slog.Attr) {
	if g.opts.logger != nil {
		g.opts.logger.Warn(g.ctx, msg, attrs...)
	}
}

// Run 在监听终止信号的 Group 中运行 services。
//
// 收到信号时取消所有服务并返回 *SignalError（errors.Is(err, ErrSignal) 为真）。
// 所有服务都返回后 Run 即返回，不必等待信号。
//
//	err := xrun.Run(ctx, []xrun.Option{xrun.WithName("xrollctl")}, pump, flusher)
func Run(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)

	if !g.opts.noSignalHandler {
		signals := g.opts.signals
		// 空列表按默认处理：signal.Notify 无参数会订阅全部信号
		if len(signals) == 0 {
			signals = DefaultSignals()
		}
		g.Go(func(ctx context.Context) error {
			testc := testSigChan(ctx)
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, signals...)
			defer signal.Stop(sigCh)

			var sig os.Signal
			select {
			case sig = <-testc:
			case sig = <-sigCh:
			case <-ctx.Done():
				return ctx.Err()
			}
			g.info("received signal", slog.String("group", g.opts.name), slog.String("signal", sig.String()))
			g.cancel(&SignalError{Signal: sig})
			return nil
		})
	}

	// 所有服务退出后结束 Group，否则信号监听会一直阻塞 Wait
	var wg sync.WaitGroup
	for _, svc := range services {
		wg.Add(1)
		g.Go(func(ctx context.Context) error {
			defer wg.Done()
			if svc == nil {
				return ErrNilFunc
			}
			return svc(ctx)
		})
	}
	g.Go(func(context.Context) error {
		wg.Wait()
		g.cancel(nil)
		return nil
	})
	return g.Wait()
}

func (g *Group) info(msg string, attrs ...slog.Attr) {
	if g.opts.logger != nil {
		g.opts.logger.Info(g.ctx, msg, attrs...)
	}
}
