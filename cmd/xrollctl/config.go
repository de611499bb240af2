package main

import (
	"time"

	"github.com/omeyang/xroll/pkg/config/xconf"
	"github.com/omeyang/xroll/pkg/observability/xrotate"
)

// envPrefix 环境变量覆盖前缀，如 XROLL_ROTATE__MAX_FILES=30
const envPrefix = "XROLL_"

// 重试默认值
const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 100 * time.Millisecond
	maxRetryAttempts     = 20
)

// fileConfig xrollctl 配置文件结构
//
//	rotate:
//	  filename: /var/log/app/app.log
//	  policy: daily
//	  max_files: 7
//	retry:
//	  attempts: 3
//	  delay: 100ms
type fileConfig struct {
	Rotate xrotate.Config `koanf:"rotate"`
	Retry  retryConfig    `koanf:"retry"`
}

// retryConfig 打开文件、写入和清理时的重试参数。
// 轮转器本身不重试，重试只发生在命令行这一层。
type retryConfig struct {
	Attempts uint          `koanf:"attempts"`
	Delay    time.Duration `koanf:"delay"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Rotate: xrotate.Config{Policy: xrotate.PolicyDaily},
		Retry: retryConfig{
			Attempts: defaultRetryAttempts,
			Delay:    defaultRetryDelay,
		},
	}
}

// loadConfig 读取并解码配置文件，失败统一视为参数错误
func loadConfig(path string) (fileConfig, *xconf.Source, error) {
	if path == "" {
		return fileConfig{}, nil, &usageError{msg: "缺少 --config 参数"}
	}
	src, err := xconf.Load(path, xconf.WithEnvPrefix(envPrefix))
	if err != nil {
		return fileConfig{}, nil, &usageError{msg: err.Error()}
	}
	cfg, err := decodeConfig(src)
	if err != nil {
		return fileConfig{}, nil, err
	}
	return cfg, src, nil
}

func decodeConfig(src *xconf.Source) (fileConfig, error) {
	cfg, err := xconf.Decode(src, "", defaultFileConfig())
	if err != nil {
		return fileConfig{}, &usageError{msg: err.Error()}
	}
	if cfg.Rotate.Filename == "" {
		return fileConfig{}, &usageError{msg: "配置缺少 rotate.filename"}
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = 1
	}
	cfg.Retry.Attempts = min(cfg.Retry.Attempts, maxRetryAttempts)
	if cfg.Retry.Delay < 0 {
		cfg.Retry.Delay = 0
	}
	return cfg, nil
}
