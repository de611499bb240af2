package xrotate

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// 轮转策略名称
const (
	PolicyDaily  = "daily"
	PolicyMinute = "minute"
	PolicyCron   = "cron"
	PolicySize   = "size"
)

// 记录格式名称
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatRaw  = "raw"
)

// Config 可从配置文件加载的轮转器参数
//
// 字段通过 koanf 标签映射，配合 xconf 使用：
//
//	var cfg xrotate.Config
//	err := xc.Unmarshal("rotate", &cfg)
type Config struct {
	Filename string `koanf:"filename"`
	// Policy daily | minute | cron | size，默认 daily
	Policy string `koanf:"policy"`

	// daily
	Hour   int `koanf:"hour"`
	Minute int `koanf:"minute"`
	// minute
	Every int `koanf:"every"`
	// cron
	Cron string `koanf:"cron"`
	// Layout 自定义时间后缀布局（Go 时间格式），为空时按策略选择
	Layout string `koanf:"layout"`

	Truncate        bool `koanf:"truncate"`
	MaxFiles        int  `koanf:"max_files"`
	DeleteOldOnInit bool `koanf:"delete_old_on_init"`

	// Format text | json | raw，默认 text
	Format string `koanf:"format"`
	// Level 前端 slog 的最低级别，默认 info
	Level      string `koanf:"level"`
	BufferSize int    `koanf:"buffer_size"`
	// FileMode 八进制字符串，如 "0640"
	FileMode string `koanf:"file_mode"`
	// Location IANA 时区名，如 "Asia/Shanghai"，为空时使用本地时区
	Location string `koanf:"location"`

	// size
	MaxSizeMB  int  `koanf:"max_size_mb"`
	MaxBackups int  `koanf:"max_backups"`
	Compress   bool `koanf:"compress"`
}

func (c Config) policy() string {
	if c.Policy == "" {
		return PolicyDaily
	}
	return strings.ToLower(c.Policy)
}

// IsTimePolicy 报告配置是否为按时间轮转
func (c Config) IsTimePolicy() bool {
	return c.policy() != PolicySize
}

// Calculator 返回配置对应的文件命名策略
func (c Config) Calculator() (FilenameCalculator, error) {
	if c.Layout != "" {
		return NewLayoutFilename(c.Layout)
	}
	switch c.policy() {
	case PolicyMinute:
		return MinuteFilename, nil
	case PolicyDaily, PolicyCron:
		return DailyFilename, nil
	default:
		return nil, fmt.Errorf("%w: policy %q has no filename calculator", ErrInvalidConfig, c.Policy)
	}
}

// Scheduler 返回配置对应的边界调度器
func (c Config) Scheduler() (Scheduler, error) {
	switch c.policy() {
	case PolicyDaily:
		return NewDailySchedule(c.Hour, c.Minute)
	case PolicyMinute:
		return NewMinuteSchedule(c.Every)
	case PolicyCron:
		return NewCronSchedule(c.Cron)
	default:
		return nil, fmt.Errorf("%w: policy %q has no scheduler", ErrInvalidConfig, c.Policy)
	}
}

// Formatter 返回配置对应的记录渲染器
func (c Config) Formatter() (Formatter, error) {
	switch strings.ToLower(c.Format) {
	case "", FormatText:
		return NewTextFormatter(nil), nil
	case FormatJSON:
		return NewJSONFormatter(nil), nil
	case FormatRaw:
		return RawFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: format %q, want text|json|raw", ErrInvalidConfig, c.Format)
	}
}

// SlogLevel 解析 Level 字段，为空时返回 INFO。级别过滤由 slog 前端负责，轮转器不过滤。
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("%w: level %q: %w", ErrInvalidConfig, c.Level, err)
	}
	return level, nil
}

// TimeLocation 解析 Location 字段，为空时返回 time.Local
func (c Config) TimeLocation() (*time.Location, error) {
	if c.Location == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: location %q: %w", ErrInvalidConfig, c.Location, err)
	}
	return loc, nil
}

// Options 把配置转换为 TimeRotator 选项，extra 追加在最后可覆盖配置
func (c Config) Options(extra ...Option) ([]Option, error) {
	formatter, err := c.Formatter()
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithTruncate(c.Truncate),
		WithMaxFiles(c.MaxFiles),
		WithDeleteOldOnInit(c.DeleteOldOnInit),
		WithFormatter(formatter),
		WithBufferSize(c.BufferSize),
	}
	if c.FileMode != "" {
		mode, err := parseFileMode(c.FileMode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithFileMode(mode))
	}
	if c.Location != "" {
		loc, err := c.TimeLocation()
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithLocation(loc))
	}
	if c.policy() == PolicyMinute {
		opts = append(opts, WithDiscardEmptyInitial(true))
	}
	return append(opts, extra...), nil
}

// Build 按配置创建 Rotator。size 策略忽略 extra。
func (c Config) Build(extra ...Option) (Rotator, error) {
	if c.Filename == "" {
		return nil, ErrEmptyFilename
	}
	if !c.IsTimePolicy() {
		return c.buildSize()
	}
	calc, err := c.Calculator()
	if err != nil {
		return nil, err
	}
	sched, err := c.Scheduler()
	if err != nil {
		return nil, err
	}
	opts, err := c.Options(extra...)
	if err != nil {
		return nil, err
	}
	return New(c.Filename, calc, sched, opts...)
}

func (c Config) buildSize() (Rotator, error) {
	opts := []SizeOption{
		WithMaxBackups(c.MaxBackups),
		WithCompress(c.Compress),
	}
	if c.MaxSizeMB != 0 {
		opts = append(opts, WithMaxSize(c.MaxSizeMB))
	}
	if c.FileMode != "" {
		mode, err := parseFileMode(c.FileMode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSizeFileMode(mode))
	}
	return NewSizeRotator(c.Filename, opts...)
}

func parseFileMode(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: file mode %q: %w", ErrInvalidFileMode, s, err)
	}
	return os.FileMode(v), nil
}
