// Package observability 提供日志输出相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，可直接输出到轮转器
//   - xrotate: 日志文件轮转，按时间窗口（天/分钟/cron）或文件大小切分，带保留上限
//
// 设计原则：
//   - 库内不打印日志，内部错误通过 OnError 回调上报
//   - 指标遵循 OpenTelemetry 语义规范，未配置 MeterProvider 时为 no-op
//   - 自动从 context 中提取追踪信息注入日志
package observability
