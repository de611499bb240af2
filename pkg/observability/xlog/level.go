package xlog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，与 slog.Level 数值一致
type Level slog.Level

// 日志级别常量
const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// String 返回 DEBUG/INFO/WARN/ERROR，非标准级别形如 "INFO+2"
func (l Level) String() string {
	return slog.Level(l).String()
}

// MarshalText 实现 encoding.TextMarshaler，便于写入配置文件
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，koanf 解码时直接使用
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析级别名称（大小写不敏感，忽略首尾空白）
//
// 除 slog 的 "info"、"warn+2" 等写法外，额外接受 "warning"。
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		return LevelWarn, nil
	}
	var level slog.Level
	if name == "" || level.UnmarshalText([]byte(name)) != nil {
		return LevelInfo, fmt.Errorf("xlog: unknown level %q", s)
	}
	return Level(level), nil
}
