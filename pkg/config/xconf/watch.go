package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖间隔
const DefaultDebounce = 100 * time.Millisecond

// ChangeFunc 配置文件变更回调。
// err 非 nil 表示重载失败或监视器出错，此时 Source 仍是上一份有效配置。
type ChangeFunc func(src *Source, err error)

// WatchOption 监视器选项
type WatchOption func(*Watcher)

// WithDebounce 设置防抖间隔，间隔内的多次变更只触发一次重载。
// 非正值保持默认。
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 监视配置文件并在变更时重载 Source。
//
// 监视的是文件所在目录而非文件本身：编辑器和 ConfigMap 常以
// 写临时文件再 rename 的方式保存，直接监视文件会丢失后续事件。
// 回调总在 Run 所在 goroutine 中串行执行，Run 返回后不再有回调。
type Watcher struct {
	src      *Source
	fsw      *fsnotify.Watcher
	onChange ChangeFunc
	debounce time.Duration

	fire    chan struct{}
	timerMu sync.Mutex
	timer   *time.Timer
	started bool
}

// NewWatcher 为从文件加载的 Source 创建监视器，需调用 Run 开始监视。
func NewWatcher(src *Source, onChange ChangeFunc, opts ...WatchOption) (*Watcher, error) {
	if src == nil || src.path == "" {
		return nil, ErrNotReloadable
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatch, err)
	}
	dir := filepath.Dir(src.path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: add %s: %w", ErrWatch, dir, err), fsw.Close())
	}

	w := &Watcher{
		src:      src,
		fsw:      fsw,
		onChange: onChange,
		debounce: DefaultDebounce,
		fire:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run 阻塞直到 ctx 结束，之后释放底层监视器。Run 只能调用一次。
// 正常退出返回 nil。
func (w *Watcher) Run(ctx context.Context) error {
	w.timerMu.Lock()
	if w.started {
		w.timerMu.Unlock()
		return fmt.Errorf("%w: already running", ErrWatch)
	}
	w.started = true
	w.timerMu.Unlock()

	defer w.shutdown()

	name := filepath.Base(w.src.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if relevant(ev, name) {
				w.arm()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.notify(fmt.Errorf("%w: %w", ErrWatch, err))
		case <-w.fire:
			w.notify(w.src.Reload())
		}
	}
}

// Close 释放底层监视器。用于创建后未调用 Run 的情况。
func (w *Watcher) Close() error {
	w.timerMu.Lock()
	started := w.started
	w.started = true
	w.timerMu.Unlock()
	if started {
		return nil
	}
	return w.fsw.Close()
}

func relevant(ev fsnotify.Event, name string) bool {
	if filepath.Base(ev.Name) != name {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// arm 重置防抖定时器，到期后通知 Run 循环
func (w *Watcher) arm() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) notify(err error) {
	if w.onChange == nil {
		return
	}
	// 回调 panic 不应终止监视循环
	defer func() { _ = recover() }() //nolint:errcheck // 回调 panic 无处上报
	w.onChange(w.src, err)
}

func (w *Watcher) shutdown() {
	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.timerMu.Unlock()
	_ = w.fsw.Close() //nolint:errcheck // 退出路径上的关闭错误无处上报
}
