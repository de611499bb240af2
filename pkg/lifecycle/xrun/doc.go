// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// # 概述
//
//   - Group：多个服务函数并发运行，任一失败即协调关闭
//   - Run：在 Group 之上加终止信号处理（默认 SIGINT、SIGTERM、SIGQUIT）
//   - Ticker：周期任务，如定时 Flush
//   - OnSignal：非终止信号的处理，如 SIGHUP 触发强制轮转
//   - ReadLines：把按行输入（通常是 stdin）泵入处理函数
//
// # 快速开始
//
//	err := xrun.Run(ctx, []xrun.Option{xrun.WithName("xrollctl")},
//	    xrun.ReadLines(os.Stdin, func(ctx context.Context, line []byte) error {
//	        _, err := rotator.Write(append(line, '\n'))
//	        return err
//	    }),
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 信号退出
//	}
//
// # 退出原因
//
// Wait 过滤由 Group 自身取消引起的 context.Canceled，
// 但保留 Cancel(cause) 传入的原因。Run 收到信号时以 *SignalError 作为原因。
//
// # 日志
//
// 通过 WithLogger 传入 xlog.Logger 后，GoNamed 记录服务启停，Run 记录收到的信号。
// 默认不输出日志。
package xrun
