package xrotate

import (
	"errors"
	"fmt"
	"syscall"
)

// 配置校验错误
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidConfig 轮转策略参数越界或无效（构造期错误，不会在运行期出现）
	ErrInvalidConfig = errors.New("xrotate: invalid config")

	// ErrInvalidMaxSize MaxSizeMB 值无效（必须在 1~10240 范围内）
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSizeMB")

	// ErrInvalidMaxBackups MaxBackups 值无效（必须在 0~1024 范围内）
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")
)

// 运行期错误
var (
	// ErrFileOpen 打开日志文件失败
	ErrFileOpen = errors.New("xrotate: open file failed")

	// ErrFileWrite 写入日志文件失败
	ErrFileWrite = errors.New("xrotate: write file failed")

	// ErrFormat Formatter 返回错误
	ErrFormat = errors.New("xrotate: format record failed")

	// ErrRetentionDelete 删除超出保留数量的旧文件失败，参见 [RetentionDeleteError]
	ErrRetentionDelete = errors.New("xrotate: delete retained file failed")

	// ErrEmptyQueue 保留队列为空时弹出
	ErrEmptyQueue = errors.New("xrotate: retention queue is empty")

	// ErrQueueFull 保留队列已满时压入
	ErrQueueFull = errors.New("xrotate: retention queue is full")

	// ErrClosed 轮转器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")

	// ErrNoFile 上一次轮转打开新文件失败，当前没有可写文件。下一次写入会重试打开。
	ErrNoFile = errors.New("xrotate: no file is open")
)

// RetentionDeleteError 稳态淘汰时删除旧文件失败
//
// 只会在本次记录已经写入成功之后返回，调用方据此决定是否视为致命错误。
// 删除失败的文件仍留在保留队列最旧的位置，下一次轮转会重试删除。
//
// 支持 errors.Is(err, ErrRetentionDelete)，errors.Unwrap 返回底层 OS 错误。
type RetentionDeleteError struct {
	// Path 删除失败的文件路径
	Path string
	// Err 底层 OS 错误
	Err error
}

// Error 实现 error 接口。
func (e *RetentionDeleteError) Error() string {
	return fmt.Sprintf("xrotate: delete retained file %s: %v", e.Path, e.Err)
}

// Is 支持 errors.Is(err, ErrRetentionDelete) 判断。
func (e *RetentionDeleteError) Is(target error) bool {
	return target == ErrRetentionDelete
}

// Unwrap 返回底层 OS 错误。
func (e *RetentionDeleteError) Unwrap() error {
	return e.Err
}

// Errno 返回底层系统调用错误码，无法识别时返回 0。
func (e *RetentionDeleteError) Errno() syscall.Errno {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno
	}
	return 0
}
