package xrotate

import (
	"fmt"
	"os"
	"sync"

	"github.com/omeyang/xroll/pkg/util/xfile"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 按大小轮转的默认值与上限
const (
	// DefaultMaxSizeMB 默认单个文件最大大小（MB）
	DefaultMaxSizeMB = 500

	// DefaultMaxBackups 默认保留的备份数量
	DefaultMaxBackups = 7

	maxSizeMB  = 10240
	maxBackups = 1024
)

// sizeConfig 按大小轮转的配置
type sizeConfig struct {
	maxSizeMB  int
	maxBackups int
	compress   bool
	localTime  bool
	fileMode   os.FileMode // 0 表示保持 lumberjack 的 0600
	onError    func(error)
}

// SizeOption 按大小轮转的配置选项
type SizeOption func(*sizeConfig)

// WithMaxSize 设置单个文件最大大小（MB）
func WithMaxSize(mb int) SizeOption {
	return func(c *sizeConfig) { c.maxSizeMB = mb }
}

// WithMaxBackups 设置保留的备份数量，0 表示不限制
func WithMaxBackups(n int) SizeOption {
	return func(c *sizeConfig) { c.maxBackups = n }
}

// WithCompress 设置是否 gzip 压缩备份
func WithCompress(compress bool) SizeOption {
	return func(c *sizeConfig) { c.compress = compress }
}

// WithLocalTime 备份文件名使用本地时间，默认 UTC
func WithLocalTime(local bool) SizeOption {
	return func(c *sizeConfig) { c.localTime = local }
}

// WithSizeFileMode 设置日志文件权限
//
// lumberjack 固定以 0600 创建文件，这里在打开后通过 chmod 调整，
// 存在短暂时间窗口权限为 0600。
func WithSizeFileMode(mode os.FileMode) SizeOption {
	return func(c *sizeConfig) { c.fileMode = mode }
}

// WithSizeOnError 设置内部错误回调（权限调整失败等），回调不得向同一轮转器写入
func WithSizeOnError(fn func(error)) SizeOption {
	return func(c *sizeConfig) { c.onError = fn }
}

// sizeRotator 基于 lumberjack 的按大小轮转实现
//
// 与时间轮转器互补：文件名固定，写满后重命名为带时间戳的备份。
type sizeRotator struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
	cfg    sizeConfig
	closed bool

	// 累计写入超过 maxSize 后 lumberjack 可能已自动轮转，需要重新校验权限
	modeApplied bool
	written     int64
}

// NewSizeRotator 创建按大小轮转的 Rotator
func NewSizeRotator(filename string, opts ...SizeOption) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	cfg := sizeConfig{
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.maxSizeMB <= 0 || cfg.maxSizeMB > maxSizeMB {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, cfg.maxSizeMB, maxSizeMB)
	}
	if cfg.maxBackups < 0 || cfg.maxBackups > maxBackups {
		return nil, fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, cfg.maxBackups, maxBackups)
	}
	if cfg.fileMode&^os.FileMode(0o777) != 0 {
		return nil, fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed", ErrInvalidFileMode, cfg.fileMode)
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	return &sizeRotator{
		logger: &lumberjack.Logger{
			Filename:   safePath,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			Compress:   cfg.compress,
			LocalTime:  cfg.localTime,
		},
		path: safePath,
		cfg:  cfg,
	}, nil
}

func (r *sizeRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}
	n, err := r.logger.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %s: %w", ErrFileWrite, r.path, err)
	}
	if r.cfg.fileMode != 0 {
		r.written += int64(n)
		if !r.modeApplied || r.written >= int64(r.cfg.maxSizeMB)<<20 {
			r.reportError(r.ensureFileModeLocked())
		}
	}
	return n, nil
}

// Flush lumberjack 不缓冲，直接写入文件，这里只做关闭检查
func (r *sizeRotator) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	return nil
}

func (r *sizeRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		return err
	}
	if r.cfg.fileMode != 0 {
		r.reportError(r.ensureFileModeLocked())
	}
	return nil
}

func (r *sizeRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.closed = true
	return r.logger.Close()
}

func (r *sizeRotator) ensureFileModeLocked() error {
	info, err := os.Stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode().Perm() != r.cfg.fileMode {
		//#nosec G302 -- 日志文件权限由调用方配置决定
		if err := os.Chmod(r.path, r.cfg.fileMode); err != nil {
			return err
		}
	}
	r.modeApplied = true
	r.written = 0
	return nil
}

func (r *sizeRotator) reportError(err error) {
	if err != nil && r.cfg.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.cfg.onError(err)
	}
}
