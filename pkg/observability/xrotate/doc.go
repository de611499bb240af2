// Package xrotate 提供按时间窗口轮转、按数量保留的日志文件输出。
//
// # 组成
//
//   - [FilenameCalculator]: 由基础路径和时间生成文件名，并能从文件名反解出时间后缀。
//     内置 [DailyFilename]（base_YYYY-MM-DD.ext）和 [MinuteFilename]（base_YYYY-MM-DD-HH_MM.ext），
//     也可通过 [NewLayoutFilename] 或自行实现接口定制。
//   - [Scheduler]: 由当前时间推导下一个轮转边界，内置每日、每 N 分钟和 cron 表达式三种。
//   - [TimeRotator]: 持有当前文件、边界和保留队列，串行化“判断 → 轮转 → 写入 → 淘汰”全过程。
//   - [NewSizeRotator]: 基于 lumberjack 的按大小轮转，作为时间轮转之外的补充策略。
//
// # 保留与恢复
//
// WithMaxFiles(n) 限制保留的文件数量（含当前文件）。构造时扫描目录，按后缀排序恢复保留队列，
// 因此进程重启后保留策略依然生效。稳态淘汰删除失败时返回 [*RetentionDeleteError]，
// 记录本身已经写入，下一次轮转会重试同一个删除。
//
// # 轮转时机
//
// 轮转是惰性的：只在写入时比较记录时间与边界。空闲跨越多个周期后，
// 下一条记录只轮转一次，切换到记录时间所在的窗口。
//
// # 错误通知
//
// 轮转器本身不打日志。无法返回给调用方的错误通过 WithOnError 回调通知，
// 回调不得向同一个轮转器写入。
package xrotate
