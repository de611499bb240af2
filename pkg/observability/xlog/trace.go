package xlog

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// 追踪关联字段名
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"
)

// appendTraceAttrs 从 ctx 中的 span 提取 trace_id/span_id
//
// ctx 中没有有效 span 时不注入任何字段。
func appendTraceAttrs(r *slog.Record, ctx context.Context) {
	if ctx == nil {
		return
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	r.AddAttrs(
		slog.String(KeyTraceID, sc.TraceID().String()),
		slog.String(KeySpanID, sc.SpanID().String()),
	)
}
