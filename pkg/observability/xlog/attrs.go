package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 key
const (
	KeyError     = "error"
	KeyComponent = "component"
	KeyDuration  = "duration"
	KeyFile      = "file"
	KeyCount     = "count"
)

// Err 创建错误属性，err 为 nil 时返回空属性（会被 slog 忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 标识日志来源组件
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Duration 人类可读的耗时（如 "1m30s"）
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// File 文件路径
func File(path string) slog.Attr {
	return slog.String(KeyFile, path)
}

// Count 计数
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}
