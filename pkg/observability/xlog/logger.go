package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

// 编译时接口检查
var (
	_ LoggerWithLevel = (*xlogger)(nil)
	_ ErrorCounter    = (*xlogger)(nil)
)

// xlogger Logger 接口的实现
type xlogger struct {
	handler   slog.Handler
	levelVar  *slog.LevelVar
	addSource bool

	// 以下字段派生 logger 间共享
	onError        func(error)
	errorCount     *atomic.Uint64
	inErrorHandler *atomic.Bool
}

// log 通用日志方法
//
//go:noinline
func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if !l.handler.Enabled(ctx, level) {
		return
	}

	// 仅在启用 AddSource 时才捕获调用者位置，runtime.Callers 有不可忽略的开销
	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		// Callers → log → Debug/Info/… → 业务代码
		runtime.Callers(3, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), level, msg, pc)
	appendTraceAttrs(&r, ctx)
	r.AddAttrs(attrs...)
	if err := l.handler.Handle(ctx, r); err != nil {
		l.handleError(err)
	}
}

// handleError 计数并通知内部错误（如轮转器写失败、淘汰失败）
//
// 设计决策: 回调期间再次出错时跳过回调，防止回调内打日志造成无限递归；
// 计数器仍记录所有错误。
func (l *xlogger) handleError(err error) {
	l.errorCount.Add(1)
	if l.onError == nil || !l.inErrorHandler.CompareAndSwap(false, true) {
		return
	}
	defer l.inErrorHandler.Store(false)
	defer func() {
		if recover() != nil {
			l.errorCount.Add(1)
		}
	}()
	l.onError(err)
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	c := *l
	c.handler = l.handler.WithAttrs(attrs)
	return &c
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	c := *l
	c.handler = l.handler.WithGroup(name)
	return &c
}

// SetLevel 动态设置日志级别，派生 logger 同步生效
func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

// GetLevel 获取当前日志级别
func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

// Enabled 检查指定级别是否启用，用于在构造昂贵属性前短路
func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}

// ErrorCount 返回内部错误次数（Handler 失败与回调 panic）
func (l *xlogger) ErrorCount() uint64 {
	return l.errorCount.Load()
}
