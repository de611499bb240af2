package xconf

import (
	"os"
	"strings"
)

type options struct {
	delim     string
	tag       string
	envPrefix string
	environ   func() []string
}

func defaultOptions() options {
	return options{
		delim:   ".",
		tag:     "koanf",
		environ: os.Environ,
	}
}

// Option 配置加载选项
type Option func(*options)

// WithDelim 设置键路径分隔符，默认 "."
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// WithTag 设置反序列化使用的结构体标签，默认 "koanf"
func WithTag(tag string) Option {
	return func(o *options) {
		if tag != "" {
			o.tag = tag
		}
	}
}

// WithEnvPrefix 启用环境变量覆盖。
//
// 以 prefix 开头的环境变量在文件内容解析后覆盖同名键：去掉前缀、转为小写，
// 双下划线 "__" 映射为键分隔符。例如前缀 "XROLL_" 时，
// XROLL_ROTATE__MAX_FILES=30 覆盖 rotate.max_files。
//
// 覆盖值均为字符串，Decode 时由弱类型转换还原为目标字段类型。
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// withEnviron 替换环境变量来源，仅用于测试
func withEnviron(fn func() []string) Option {
	return func(o *options) {
		o.environ = fn
	}
}

// envOverrides 返回 键 -> 值 的覆盖表
func (o options) envOverrides() map[string]string {
	if o.envPrefix == "" || o.environ == nil {
		return nil
	}
	out := make(map[string]string)
	for _, kv := range o.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, o.envPrefix) {
			continue
		}
		key := strings.TrimPrefix(name, o.envPrefix)
		if key == "" {
			continue
		}
		key = strings.ToLower(strings.ReplaceAll(key, "__", o.delim))
		out[key] = value
	}
	return out
}
