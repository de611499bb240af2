package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置内容格式
type Format string

// 支持的配置格式
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Source 一份已解析的配置。
//
// 读操作通过原子指针获取当前 koanf 快照，Reload 成功后整体替换快照；
// 解析失败时保留旧快照，调用方不会看到半加载状态。
type Source struct {
	k        atomic.Pointer[koanf.Koanf]
	reloadMu sync.Mutex

	path   string
	format Format
	opts   options
}

// Load 从文件加载配置，格式由扩展名决定（.yaml/.yml/.json）。
// 空文件得到空配置。
func Load(path string, opts ...Option) (*Source, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	s := &Source{path: path, format: format, opts: applyOptions(opts)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Parse 从字节数据创建配置，适用于内嵌默认配置或测试。
// 返回的 Source 不可 Reload。
func Parse(data []byte, format Format, opts ...Option) (*Source, error) {
	if !format.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	s := &Source{format: format, opts: applyOptions(opts)}
	k, err := s.parse(data)
	if err != nil {
		return nil, err
	}
	s.k.Store(k)
	return s, nil
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Koanf 返回当前快照。Reload 之后旧指针仍可用，但内容已过期。
func (s *Source) Koanf() *koanf.Koanf {
	return s.k.Load()
}

// Exists 判断键是否存在
func (s *Source) Exists(key string) bool {
	return s.k.Load().Exists(key)
}

// Decode 将 key 下的配置反序列化到 target，key 为空时解码整个配置。
// 不存在的 key 不报错，target 保持原值，可借此预先填入默认值。
func (s *Source) Decode(key string, target any) error {
	if err := s.k.Load().UnmarshalWithConf(key, target, koanf.UnmarshalConf{
		Tag: s.opts.tag,
	}); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrDecodeFailed, key, err)
	}
	return nil
}

// Reload 重新读取配置文件。
// 并发调用被串行化，失败时保留当前快照。
func (s *Source) Reload() error {
	if s.path == "" {
		return ErrNotReloadable
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := s.parse(data)
	if err != nil {
		return err
	}
	s.k.Store(k)
	return nil
}

// Path 返回配置文件路径，Parse 创建的 Source 返回空串
func (s *Source) Path() string { return s.path }

// Format 返回配置格式
func (s *Source) Format() Format { return s.format }

func (s *Source) parse(data []byte) (*koanf.Koanf, error) {
	k := koanf.New(s.opts.delim)
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), s.format.parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}
	for key, value := range s.opts.envOverrides() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("%w: env override %q: %w", ErrParseFailed, key, err)
		}
	}
	return k, nil
}

// Decode 解码 key 下的配置为 T，defaults 作为未出现字段的初始值。
//
//	cfg, err := xconf.Decode(src, "rotate", xrotate.Config{Policy: "daily"})
func Decode[T any](s *Source, key string, defaults T) (T, error) {
	out := defaults
	if err := s.Decode(key, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// FormatOf 按扩展名推断格式
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
}

func (f Format) valid() bool {
	return f == FormatYAML || f == FormatJSON
}

func (f Format) parser() koanf.Parser {
	if f == FormatJSON {
		return json.Parser()
	}
	return yaml.Parser()
}
