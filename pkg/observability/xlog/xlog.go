package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口
//
// 所有方法都需要 context.Context 参数，只接受 slog.Attr，避免隐式 key-value 转换。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger
	//
	// 设计决策: 返回 Logger 而非 LoggerWithLevel，保持接口最小化。
	// 派生 logger 共享父级的 LevelVar，动态级别变更同步生效。
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger，后续属性归入该分组
	WithGroup(name string) Logger
}

// Leveler 级别控制接口，与 Logger 分离，避免污染核心日志接口
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 组合接口：Logger + Leveler，Build() 返回此接口
type LoggerWithLevel interface {
	Logger
	Leveler
}

// ErrorCounter 暴露内部错误计数，Build 返回的 logger 实现此接口
type ErrorCounter interface {
	ErrorCount() uint64
}
