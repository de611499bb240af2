package xrotate

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const (
	// DefaultFileMode 日志文件默认权限
	DefaultFileMode os.FileMode = 0644

	// maxRetainedFiles 保留文件数量上限
	maxRetainedFiles = 65535

	// maxBufferSize 写缓冲上限（16 MB）
	maxBufferSize = 16 << 20
)

// FileEvents 文件生命周期回调，均在轮转器锁内同步执行
//
// 回调不得向同一个轮转器写入，否则会死锁。
type FileEvents struct {
	// BeforeOpen 打开文件前调用
	BeforeOpen func(filename string)
	// AfterOpen 打开文件后调用，可通过 w 写入文件头
	AfterOpen func(filename string, w io.Writer)
	// BeforeClose 关闭文件前调用，可通过 w 写入文件尾
	BeforeClose func(filename string, w io.Writer)
	// AfterClose 关闭文件后调用
	AfterClose func(filename string)
}

// timeConfig 时间轮转器配置
type timeConfig struct {
	truncate        bool
	maxFiles        int
	deleteOldOnInit bool
	initialTime     time.Time
	clock           func() time.Time
	location        *time.Location
	formatter       Formatter
	fileMode        os.FileMode
	bufferSize      int
	events          FileEvents
	onError         func(error)
	discardEmpty    *bool // nil 表示使用构造函数的默认值
	meterProvider   metric.MeterProvider
	noLock          bool
	fs              fileSystem
}

func defaultTimeConfig() timeConfig {
	return timeConfig{
		clock:     time.Now,
		location:  time.Local,
		formatter: NewTextFormatter(nil),
		fileMode:  DefaultFileMode,
		fs:        osFS{},
	}
}

// Option 时间轮转器配置选项
type Option func(*timeConfig)

// WithTruncate 打开文件时是否清空已存在的同名文件，默认追加
func WithTruncate(truncate bool) Option {
	return func(c *timeConfig) { c.truncate = truncate }
}

// WithMaxFiles 设置保留的文件数量（含当前文件），0 表示不限制、从不删除
func WithMaxFiles(n int) Option {
	return func(c *timeConfig) { c.maxFiles = n }
}

// WithDeleteOldOnInit 构造时是否删除目录中超出保留数量的旧文件
//
// 启动清理是尽力而为，单个文件删除失败只通过 OnError 回调通知，不影响构造。
func WithDeleteOldOnInit(enable bool) Option {
	return func(c *timeConfig) { c.deleteOldOnInit = enable }
}

// WithInitialTime 指定决定初始文件名的时间，默认为构造时的当前时间。主要用于测试。
func WithInitialTime(t time.Time) Option {
	return func(c *timeConfig) { c.initialTime = t }
}

// WithClock 替换墙钟，调度器总是基于它推导下一个边界
func WithClock(clock func() time.Time) Option {
	return func(c *timeConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLocation 设置计算文件名和边界所用的时区，默认 time.Local
func WithLocation(loc *time.Location) Option {
	return func(c *timeConfig) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithFormatter 设置记录渲染器，默认 NewTextFormatter(nil)
func WithFormatter(f Formatter) Option {
	return func(c *timeConfig) {
		if f != nil {
			c.formatter = f
		}
	}
}

// WithFileMode 设置新建日志文件的权限，默认 0644
func WithFileMode(mode os.FileMode) Option {
	return func(c *timeConfig) { c.fileMode = mode }
}

// WithBufferSize 设置写缓冲大小（字节），0 表示不缓冲，每条记录直接写入文件
//
// 启用缓冲后，数据在 Flush、轮转或 Close 时才落到文件。
func WithBufferSize(n int) Option {
	return func(c *timeConfig) { c.bufferSize = n }
}

// WithFileEvents 设置文件生命周期回调
func WithFileEvents(events FileEvents) Option {
	return func(c *timeConfig) { c.events = events }
}

// WithOnError 设置内部错误回调
//
// 用于接收不会返回给调用方的错误（启动清理的删除失败、Close 时的刷新失败）。
//
// 设计决策: 不使用 slog 等日志库记录内部错误，避免轮转器作为日志输出目标时
// 产生递归写入。回调不得向同一轮转器写入数据。
func WithOnError(fn func(error)) Option {
	return func(c *timeConfig) { c.onError = fn }
}

// WithDiscardEmptyInitial 构造时打开的文件若为空，第一次轮转时直接删除而不纳入保留队列
//
// 避免短生命周期进程留下大量空文件。NewMinute 默认开启，其他构造函数默认关闭。
func WithDiscardEmptyInitial(enable bool) Option {
	return func(c *timeConfig) { c.discardEmpty = &enable }
}

// WithMeterProvider 设置指标的 MeterProvider，默认使用 otel 全局实例
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *timeConfig) {
		if mp != nil {
			c.meterProvider = mp
		}
	}
}

// WithoutLock 使用空锁，适用于调用方保证独占访问的场景（如单个专用写协程）
func WithoutLock() Option {
	return func(c *timeConfig) { c.noLock = true }
}

// withFS 替换文件系统实现，仅用于测试
func withFS(fsys fileSystem) Option {
	return func(c *timeConfig) {
		if fsys != nil {
			c.fs = fsys
		}
	}
}

// validateTimeConfig 验证时间轮转器配置
func validateTimeConfig(cfg *timeConfig) error {
	if cfg.maxFiles < 0 || cfg.maxFiles > maxRetainedFiles {
		return fmt.Errorf("%w: max files %d, want 0~%d", ErrInvalidConfig, cfg.maxFiles, maxRetainedFiles)
	}
	if cfg.bufferSize < 0 || cfg.bufferSize > maxBufferSize {
		return fmt.Errorf("%w: buffer size %d, want 0~%d", ErrInvalidConfig, cfg.bufferSize, maxBufferSize)
	}
	if cfg.fileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed", ErrInvalidFileMode, cfg.fileMode)
	}
	return nil
}
