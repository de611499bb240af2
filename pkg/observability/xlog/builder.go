package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xroll/pkg/observability/xrotate"
)

// ReplaceAttrFunc 属性替换函数，用于字段重命名、脱敏和过滤。返回空 Key 的 Attr 会移除该属性。
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 日志配置构建器，一次性使用
type Builder struct {
	output      io.Writer
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	replaceAttr ReplaceAttrFunc
	rotator     xrotate.Rotator
	attrs       []slog.Attr
	onError     func(error)
	err         error
}

// New 创建配置构建器：stderr、Info 级别、text 格式
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

// SetOutput 设置日志输出目标，会取消之前的 SetRotation
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w == nil {
		b.setErr(errors.New("xlog: nil output"))
		return b
	}
	b.output = w
	b.rotator = nil
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.setErr(err)
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空值使用 text
func (b *Builder) SetFormat(format string) *Builder {
	switch normalized := strings.ToLower(strings.TrimSpace(format)); normalized {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		b.setErr(fmt.Errorf("xlog: unknown format %q", format))
	}
	return b
}

// SetAddSource 是否在日志中添加源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetRotation 以轮转器作为输出目标，cleanup 时关闭它
//
// 轮转器实现 xrotate.RecordWriter 时按记录时间戳轮转，渲染交给轮转器的 Formatter。
func (b *Builder) SetRotation(r xrotate.Rotator) *Builder {
	if r == nil {
		b.setErr(errors.New("xlog: nil rotator"))
		return b
	}
	b.rotator = r
	b.output = r
	return b
}

// SetAttrs 设置每条日志都携带的固定属性（如组件名），在 Build 时一次性注入
func (b *Builder) SetAttrs(attrs ...slog.Attr) *Builder {
	b.attrs = append(b.attrs, attrs...)
	return b
}

// SetOnError 设置内部错误回调
//
// 当 Handler.Handle() 失败时（磁盘满、淘汰旧文件失败等）调用。
// 回调在写日志的调用链上同步执行，应保持轻量；回调内再次出错不会递归。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetReplaceAttr 设置属性替换函数（仅对 text/json 输出生效）
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build 构建 Logger 实例
//
// 返回值：
//   - LoggerWithLevel: 日志实例，支持动态级别控制
//   - func() error: 清理函数，关闭轮转器，重复调用安全
//   - error: 配置错误
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	if b.replaceAttr != nil {
		opts.ReplaceAttr = b.replaceAttr
	}

	var handler slog.Handler
	if rw, ok := b.rotator.(xrotate.RecordWriter); ok {
		handler = xrotate.NewSlogHandler(rw, opts)
	} else if b.format == "json" {
		handler = slog.NewJSONHandler(b.output, opts)
	} else {
		handler = slog.NewTextHandler(b.output, opts)
	}
	if len(b.attrs) > 0 {
		handler = handler.WithAttrs(b.attrs)
	}

	logger := &xlogger{
		handler:        handler,
		levelVar:       b.levelVar,
		addSource:      b.addSource,
		onError:        b.onError,
		errorCount:     new(atomic.Uint64),
		inErrorHandler: new(atomic.Bool),
	}
	return logger, b.createCleanup(), nil
}

// createCleanup 创建只执行一次的清理函数
func (b *Builder) createCleanup() func() error {
	var once sync.Once
	var err error
	rotator := b.rotator

	return func() error {
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
}
