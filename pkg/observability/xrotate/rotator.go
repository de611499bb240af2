package xrotate

import "io"

// 编译时断言：Rotator 接口是 io.WriteCloser 的超集
var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器接口
//
// 隐式实现 [io.WriteCloser]，可直接作为 xlog 或任何 io.Writer 消费者的输出目标。
// 所有实现都必须是并发安全的（[WithoutLock] 显式放弃的除外）。
//
// 实现约定：
//   - Close 后调用 Write、Flush 或 Rotate 返回 [ErrClosed]
//   - Rotate 可以在任意时刻调用
type Rotator interface {
	// Write 写入日志数据，到达轮转条件时先轮转
	Write(p []byte) (n int, err error)

	// Flush 把缓冲数据写到存储
	Flush() error

	// Close 关闭轮转器，重复调用返回 [ErrClosed]
	Close() error

	// Rotate 手动触发轮转
	Rotate() error
}
