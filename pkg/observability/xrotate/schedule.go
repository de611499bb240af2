package xrotate

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler 计算下一个轮转边界
//
// Next 必须返回严格晚于 now 的时刻。引擎在每次轮转后都以墙钟 now
// 重新推导边界，不会一次跳过多个周期：进程空闲跨越多个周期后，
// 下一条记录只触发一次轮转。
type Scheduler interface {
	Next(now time.Time) time.Time
}

// DailySchedule 每天在 Hour:Minute 轮转
type DailySchedule struct {
	Hour   int
	Minute int
}

// NewDailySchedule 创建按天轮转的调度器，hour ∈ [0,23]，minute ∈ [0,59]
func NewDailySchedule(hour, minute int) (DailySchedule, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return DailySchedule{}, fmt.Errorf("%w: daily rotation time %d:%d out of range", ErrInvalidConfig, hour, minute)
	}
	return DailySchedule{Hour: hour, Minute: minute}, nil
}

// Next 今天的 Hour:Minute 若晚于 now 即为边界，否则顺延一个日历日。
//
// 设计决策: 顺延使用 AddDate 而非固定 24h。两者只在夏令时切换日不同，
// 固定 24h 在 25 小时的日子里可能得到早于 now 的边界。
func (s DailySchedule) Next(now time.Time) time.Time {
	y, m, d := now.Date()
	candidate := time.Date(y, m, d, s.Hour, s.Minute, 0, 0, now.Location())
	if candidate.After(now) {
		return candidate
	}
	return candidate.AddDate(0, 0, 1)
}

// MinuteSchedule 每 Every 分钟轮转一次
//
// 边界是本地墙钟上 Every 分钟的整数倍，相邻边界始终相差一个周期。
// Every 整除 60 时边界落在小时内的整数倍分钟（如 every=15 为 :00/:15/:30/:45）；
// 不整除 60 时周期照样均匀，只是不再每小时从 :00 重新开始。
type MinuteSchedule struct {
	Every int
}

// NewMinuteSchedule 创建按分钟轮转的调度器，every ∈ [0,59]，0 视为每分钟
func NewMinuteSchedule(every int) (MinuteSchedule, error) {
	if every < 0 || every > 59 {
		return MinuteSchedule{}, fmt.Errorf("%w: rotation minute %d out of range", ErrInvalidConfig, every)
	}
	return MinuteSchedule{Every: every}, nil
}

// Period 返回轮转周期
func (s MinuteSchedule) Period() time.Duration {
	if s.Every <= 0 {
		return time.Minute
	}
	return time.Duration(s.Every) * time.Minute
}

// Next 把 now 按本地墙钟向下对齐到周期倍数，再加一个周期。
//
// 设计决策: 按 now 所在时区的偏移平移后截断，而不是取小时内分钟数取模，
// 这样周期不整除 60 时也不会在整点出现短周期。夏令时切换会让该次对齐
// 随偏移整体平移一次。
func (s MinuteSchedule) Next(now time.Time) time.Time {
	period := s.Period()
	_, offset := now.Zone()
	shift := time.Duration(offset) * time.Second
	start := now.Add(shift).Truncate(period).Add(-shift)
	return start.Add(period)
}

// cronSchedule 基于 cron 表达式的自定义策略
type cronSchedule struct {
	expr  string
	sched cron.Schedule
}

// NewCronSchedule 使用标准 5 段 cron 表达式（或 @daily、@every 1h 等描述符）创建调度器
//
// 文件名仍由 FilenameCalculator 决定，调度器只负责边界。边界到达时
// 若文件名没有变化（如每小时触发配合按天命名），只重新推导边界，不切换文件。
func NewCronSchedule(expr string) (Scheduler, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: cron expression %q: %w", ErrInvalidConfig, expr, err)
	}
	// cron 对永不触发的表达式（如 2 月 30 日）返回零值
	if sched.Next(time.Now()).IsZero() {
		return nil, fmt.Errorf("%w: cron expression %q never fires", ErrInvalidConfig, expr)
	}
	return cronSchedule{expr: expr, sched: sched}, nil
}

// Next 委托给 cron.Schedule，结果严格晚于 now。
func (c cronSchedule) Next(now time.Time) time.Time {
	return c.sched.Next(now)
}

// String 返回原始表达式
func (c cronSchedule) String() string {
	return c.expr
}
