package xrun

import (
	"context"
	"os"
	"syscall"
)

// DefaultSignals 返回默认的终止信号：SIGINT、SIGTERM、SIGQUIT。
//
// SIGHUP 不在其中：日志工具惯例上把 SIGHUP 当作"重新打开/轮转文件"，
// 需要时用 OnSignal 单独处理。每次调用返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

// 设计决策: 测试通过 context 注入信号通道，避免向测试进程发送真实信号。
// 生产路径上只是一次 context.Value 查找。

type testSigChanKey struct{}

func testSigChan(ctx context.Context) <-chan os.Signal {
	c, ok := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	if !ok {
		return nil
	}
	return c
}

func withTestSigChan(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, testSigChanKey{}, c)
}
