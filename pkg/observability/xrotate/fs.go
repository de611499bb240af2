package xrotate

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

//go:generate mockgen -source=fs.go -destination=fs_mock_test.go -package=xrotate

// logFile 当前打开的日志文件，只写不读
type logFile interface {
	io.Writer
	Sync() error
	Close() error
	Stat() (fs.FileInfo, error)
}

// fileSystem 轮转器依赖的文件系统操作，用于依赖注入和测试。
// 默认实现 osFS 直接调用 os 标准库。
type fileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (logFile, error)
	Remove(name string) error
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
}

type osFS struct{}

// 编译时检查
var _ fileSystem = osFS{}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (logFile, error) {
	//#nosec G304 -- 路径由调用方配置并经 xfile.SanitizePath 规范化
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (osFS) Remove(name string) error { return os.Remove(name) }

func (osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (osFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

// removeIfExists 删除文件，文件已不存在视为成功
func removeIfExists(fsys fileSystem, name string) error {
	if err := fsys.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// pathExists 报告文件是否存在；Stat 的其他错误也按不存在处理
func pathExists(fsys fileSystem, name string) bool {
	_, err := fsys.Stat(name)
	return err == nil
}
