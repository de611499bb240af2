// Package xlog 基于 log/slog 的结构化日志前端。
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，Build 返回该错误）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation(rotator).
//		Build()
//	defer cleanup()
//
// # 轮转输出
//
// [Builder.SetRotation] 接受任意 xrotate.Rotator。若它同时实现 xrotate.RecordWriter
// （如 *xrotate.TimeRotator），记录以结构化形式交给轮转器，按记录自身时间戳轮转，
// 渲染格式由轮转器的 Formatter 决定，SetFormat、SetReplaceAttr、SetAddSource 不再生效；
// 否则轮转器只作为普通 io.Writer。cleanup 负责关闭轮转器。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)，可通过 [ParseLevel] 解析。
// Build 返回的 [LoggerWithLevel] 支持运行时调整级别，派生 logger 共享同一个 LevelVar。
//
// # 追踪关联
//
// ctx 中携带有效 OpenTelemetry span 时，每条记录自动附加 trace_id 和 span_id
// （[KeyTraceID]、[KeySpanID]）。对 logger 调用 WithGroup 后，这两个字段会归入 group。
package xlog
