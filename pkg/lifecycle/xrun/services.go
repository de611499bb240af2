package xrun

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"os/signal"
	"time"
)

// MaxLineSize ReadLines 接受的最长行（不含换行符）
const MaxLineSize = 1 << 20

// Ticker 返回周期执行 fn 的服务函数。
//
// interval 必须为正数。immediate 为 true 时启动即执行一次。
// fn 返回错误时服务退出并返回该错误，ctx 取消时返回 ctx.Err()。
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}
		if immediate {
			// 已取消的 context 不触发副作用
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx); err != nil {
				return err
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// OnSignal 返回在每次收到 signals 时调用 fn 的服务函数，不会终止 Group。
//
// 典型用法是 SIGHUP 触发强制轮转：
//
//	g.Go(xrun.OnSignal(func(ctx context.Context, _ os.Signal) error {
//	    return rotator.Rotate()
//	}, syscall.SIGHUP))
func OnSignal(fn func(ctx context.Context, sig os.Signal) error, signals ...os.Signal) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if fn == nil {
			return ErrNilFunc
		}
		if len(signals) == 0 {
			<-ctx.Done()
			return ctx.Err()
		}

		testc := testSigChan(ctx)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, signals...)
		defer signal.Stop(sigCh)

		for {
			var sig os.Signal
			select {
			case sig = <-testc:
			case sig = <-sigCh:
			case <-ctx.Done():
				return ctx.Err()
			}
			if err := fn(ctx, sig); err != nil {
				return err
			}
		}
	}
}

// ReadLines 返回逐行读取 r 并交给 fn 的服务函数，读到 EOF 时返回 nil。
//
// 传给 fn 的行不含行尾的 "\n" 或 "\r\n"，fn 返回后该切片可能被复用。
// 超过 MaxLineSize 的行返回 bufio.ErrTooLong。
//
// 阻塞中的 Read 无法被 context 打断：ctx 取消后服务立即返回，
// 但后台读取 goroutine 要等到 r 的下一次 Read 返回才退出。
// 对 os.Stdin 而言这发生在进程退出或上游关闭管道时。
func ReadLines(r io.Reader, fn func(ctx context.Context, line []byte) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if r == nil || fn == nil {
			return ErrNilFunc
		}

		lines := make(chan []byte)
		next := make(chan struct{})
		stop := make(chan struct{})
		scanErr := make(chan error, 1)
		defer close(stop)

		go func() {
			defer close(lines)
			sc := bufio.NewScanner(r)
			sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
			for sc.Scan() {
				select {
				case lines <- bytes.TrimSuffix(sc.Bytes(), []byte{'\r'}):
				case <-stop:
					return
				}
				// 等待消费完成后才允许 Scanner 复用缓冲区
				select {
				case <-next:
				case <-stop:
					return
				}
			}
			scanErr <- sc.Err()
		}()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case line, ok := <-lines:
				if !ok {
					select {
					case err := <-scanErr:
						return err
					default:
						return nil
					}
				}
				err := fn(ctx, line)
				if err != nil {
					return err
				}
				next <- struct{}{}
			}
		}
	}
}
