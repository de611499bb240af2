package xrotate

import (
	"context"
	"log/slog"
	"slices"
)

// slogHandler 把 slog 记录转交给 RecordWriter，轮转按记录自身时间判断
type slogHandler struct {
	w      RecordWriter
	level  slog.Leveler
	attrs  []slog.Attr // WithAttrs 预置属性，已按分组嵌套
	groups []string    // 当前分组路径
}

// NewSlogHandler 创建写入 RecordWriter 的 slog.Handler
//
// 渲染格式由 RecordWriter 自己的 Formatter 决定，opts 只使用 Level；
// opts 为 nil 或未设置 Level 时使用 INFO。
func NewSlogHandler(w RecordWriter, opts *slog.HandlerOptions) slog.Handler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &slogHandler{w: w, level: level}
}

// Enabled 实现 slog.Handler。
func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle 实现 slog.Handler。
func (h *slogHandler) Handle(_ context.Context, r slog.Record) error {
	own := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		own = append(own, a)
		return true
	})

	attrs := slices.Clip(h.attrs)
	if len(own) > 0 {
		attrs = append(attrs, nest(h.groups, own)...)
	}
	return h.w.WriteRecord(Record{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
}

// WithAttrs 实现 slog.Handler。
func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.attrs = append(slices.Clip(h.attrs), nest(h.groups, attrs)...)
	return &c
}

// WithGroup 实现 slog.Handler。
func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(slices.Clip(h.groups), name)
	return &c
}

// nest 把属性逐层包进分组，groups 为空时原样返回
func nest(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	for i := len(groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{{Key: groups[i], Value: slog.GroupValue(attrs...)}}
	}
	return attrs
}
