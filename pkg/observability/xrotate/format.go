package xrotate

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"
)

// Record 一条待写入的日志记录
//
// 轮转器只读取 Time 用于轮转判断，其余字段只交给 Formatter。
// 上下文标签（trace_id、tenant_id 等）应显式放入 Attrs，而不是依赖线程局部状态。
type Record struct {
	// Time 记录时间，零值时使用轮转器时钟的当前时间
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   []slog.Attr
}

// RecordWriter 按记录自身时间戳写入的目标，*TimeRotator 实现此接口
type RecordWriter interface {
	WriteRecord(rec Record) error
}

// Formatter 把记录渲染为字节序列
//
// 每次写入调用一次，在轮转器锁内执行，不得回写同一个轮转器。
type Formatter interface {
	Format(rec Record) ([]byte, error)
}

// FormatterFunc 函数适配器
type FormatterFunc func(rec Record) ([]byte, error)

// Format 实现 Formatter 接口。
func (f FormatterFunc) Format(rec Record) ([]byte, error) { return f(rec) }

// slogFormatter 借用 slog 内置 Handler 的渲染逻辑
type slogFormatter struct {
	newHandler func(w io.Writer) slog.Handler
}

// NewTextFormatter 使用 slog.TextHandler 渲染（key=value 格式）
func NewTextFormatter(opts *slog.HandlerOptions) Formatter {
	return slogFormatter{newHandler: func(w io.Writer) slog.Handler {
		return slog.NewTextHandler(w, opts)
	}}
}

// NewJSONFormatter 使用 slog.JSONHandler 渲染（每行一个 JSON 对象）
func NewJSONFormatter(opts *slog.HandlerOptions) Formatter {
	return slogFormatter{newHandler: func(w io.Writer) slog.Handler {
		return slog.NewJSONHandler(w, opts)
	}}
}

// Format 实现 Formatter 接口。
//
// 设计决策: 每次渲染新建 Handler。slog 内置 Handler 自带互斥锁并绑定 io.Writer，
// 共享一个实例需要额外同步；新建成本只是一次小对象分配。
func (f slogFormatter) Format(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	r := slog.NewRecord(rec.Time, rec.Level, rec.Message, 0)
	r.AddAttrs(rec.Attrs...)
	// 级别过滤由上游负责，这里总是渲染
	if err := f.newHandler(&buf).Handle(context.Background(), r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RawFormatter 原样输出 Message，缺少结尾换行时补一个
func RawFormatter() Formatter {
	return FormatterFunc(func(rec Record) ([]byte, error) {
		n := len(rec.Message)
		if n > 0 && rec.Message[n-1] == '\n' {
			return []byte(rec.Message), nil
		}
		out := make([]byte, 0, n+1)
		out = append(out, rec.Message...)
		return append(out, '\n'), nil
	})
}
