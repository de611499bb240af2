package xconf

import "errors"

// 配置加载相关错误
var (
	// ErrEmptyPath 配置文件路径为空
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 无法识别的配置格式
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 读取配置文件失败
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 配置内容解析失败
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrDecodeFailed 配置反序列化到结构体失败
	ErrDecodeFailed = errors.New("xconf: failed to decode config")

	// ErrNotReloadable 从字节数据创建的 Source 不能重载或监视
	ErrNotReloadable = errors.New("xconf: source has no backing file")

	// ErrWatch 文件监视器内部错误
	ErrWatch = errors.New("xconf: watch error")
)
