package xrotate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/omeyang/xroll/pkg/util/xfile"
)

// 编译时接口检查
var (
	_ Rotator      = (*TimeRotator)(nil)
	_ RecordWriter = (*TimeRotator)(nil)
)

// nopLocker 单线程变体使用的空锁
type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// TimeRotator 按时间窗口轮转并按数量保留文件的轮转器
//
// 每次写入先比较记录时间与当前边界，到达边界则关闭当前文件、按记录时间
// 打开新文件、以墙钟重新推导边界，然后渲染并追加记录；若发生了轮转且
// 限制了保留数量，最后淘汰最旧的文件。整个过程在同一把锁内完成，
// 其他协程看不到中间状态。
//
// 轮转是惰性的，只由写入驱动：空闲跨越多个周期后，下一条记录只轮转一次。
type TimeRotator struct {
	mu sync.Locker

	base    string
	calc    FilenameCalculator
	sched   Scheduler
	cfg     timeConfig
	metrics *rotatorMetrics

	file     logFile
	buf      *bufio.Writer // bufferSize == 0 时为 nil
	w        io.Writer     // buf 或 file
	filename string
	boundary time.Time

	queue     *retentionQueue // maxFiles == 0 时为 nil
	pending   []string        // 淘汰失败后等待进入队列的文件，从旧到新
	throwaway bool            // 初始文件为空且尚未写入
	closed    bool
}

// NewDaily 创建每天 hour:minute 轮转、文件名为 base_YYYY-MM-DD.ext 的轮转器
func NewDaily(filename string, hour, minute int, opts ...Option) (*TimeRotator, error) {
	sched, err := NewDailySchedule(hour, minute)
	if err != nil {
		return nil, err
	}
	return New(filename, DailyFilename, sched, opts...)
}

// NewMinute 创建每 every 分钟轮转、文件名为 base_YYYY-MM-DD-HH_MM.ext 的轮转器
//
// 默认开启 WithDiscardEmptyInitial。
func NewMinute(filename string, every int, opts ...Option) (*TimeRotator, error) {
	sched, err := NewMinuteSchedule(every)
	if err != nil {
		return nil, err
	}
	return New(filename, MinuteFilename, sched, append([]Option{WithDiscardEmptyInitial(true)}, opts...)...)
}

// New 使用任意命名策略和调度器创建轮转器
//
// 构造过程：校验参数；按初始时间计算文件名并打开；推导第一个边界；
// 限制了保留数量时扫描目录恢复保留队列（可选删除超额旧文件）。
func New(filename string, calc FilenameCalculator, sched Scheduler, opts ...Option) (*TimeRotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	if calc == nil || sched == nil {
		return nil, fmt.Errorf("%w: FilenameCalculator and Scheduler are required", ErrInvalidConfig)
	}

	cfg := defaultTimeConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validateTimeConfig(&cfg); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	metrics, err := newRotatorMetrics(cfg.meterProvider, safePath)
	if err != nil {
		return nil, err
	}

	r := &TimeRotator{
		base:    safePath,
		calc:    calc,
		sched:   sched,
		cfg:     cfg,
		metrics: metrics,
	}
	if cfg.noLock {
		r.mu = nopLocker{}
	} else {
		r.mu = &sync.Mutex{}
	}

	initial := cfg.initialTime
	if initial.IsZero() {
		initial = cfg.clock()
	}
	if err := r.openLocked(calc.CalcFilename(safePath, initial.In(cfg.location)), cfg.truncate); err != nil {
		return nil, err
	}
	if cfg.discardEmpty != nil && *cfg.discardEmpty {
		if info, err := r.file.Stat(); err == nil && info.Size() == 0 {
			r.throwaway = true
		}
	}
	r.boundary = sched.Next(r.now())

	if cfg.maxFiles > 0 {
		r.queue = newRetentionQueue(cfg.maxFiles)
		r.recoverLocked()
	}
	return r, nil
}

// recoverLocked 扫描目录重建保留队列
//
// 列目录失败不影响构造，队列只包含当前文件。启动清理逐个尽力删除，
// 失败通过 OnError 通知。列目录之后被外部删除的文件直接跳过。
func (r *TimeRotator) recoverLocked() {
	names, err := collectRotated(r.cfg.fs, r.base, r.calc)
	if err != nil {
		r.reportError(err)
		names = nil
	}
	if !slices.Contains(names, r.filename) {
		names = append(names, r.filename)
	}
	plan := splitRetained(names, r.cfg.maxFiles)

	if r.cfg.deleteOldOnInit {
		for _, name := range plan.Excess {
			if name == r.filename {
				continue
			}
			if err := removeIfExists(r.cfg.fs, name); err != nil {
				r.reportError(&RetentionDeleteError{Path: name, Err: err})
			}
		}
	}

	survivors := make([]string, 0, len(plan.Retained))
	for _, name := range plan.Retained {
		if name == r.filename || pathExists(r.cfg.fs, name) {
			survivors = append(survivors, name)
		}
	}
	r.queue.reset(survivors)
}

// WriteRecord 写入一条记录，按 rec.Time 判断是否轮转
//
// 返回 *RetentionDeleteError 时记录本身已经写入成功。
func (r *TimeRotator) WriteRecord(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if rec.Time.IsZero() {
		rec.Time = r.cfg.clock()
	}
	_, err := r.writeLocked(rec.Time, func() ([]byte, error) {
		return r.cfg.formatter.Format(rec)
	})
	return err
}

// Write 实现 io.Writer：以当前时钟作为时间戳，原样写入 p，不经过 Formatter
//
// 返回 *RetentionDeleteError 时 n == len(p)，数据已经写入。
func (r *TimeRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}
	return r.writeLocked(r.cfg.clock(), func() ([]byte, error) { return p, nil })
}

// writeLocked 轮转判断 → 按需轮转 → 渲染写入 → 按需淘汰
func (r *TimeRotator) writeLocked(ts time.Time, render func() ([]byte, error)) (int, error) {
	rotated := false
	if r.file == nil || !ts.Before(r.boundary) {
		var err error
		if rotated, err = r.rotateLocked(ts); err != nil {
			r.metrics.writeFailed()
			return 0, err
		}
	}

	data, err := render()
	if err != nil {
		r.metrics.writeFailed()
		return 0, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	n, err := r.w.Write(data)
	if err != nil {
		r.metrics.writeFailed()
		return n, fmt.Errorf("%w: %s: %w", ErrFileWrite, r.filename, err)
	}
	if n > 0 {
		r.throwaway = false
	}

	// 淘汰放在写入之后：删除失败不会丢失本条记录
	if rotated && r.queue != nil {
		return n, r.admitLocked(r.filename)
	}
	return n, nil
}

// rotateLocked 切换到 ts 所在窗口的文件并以墙钟重新推导边界
//
// 新文件名与当前文件相同时不重新打开（避免 truncate 清空当前文件），
// 返回 false。上一次轮转打开失败后 file 为 nil，此时回到原文件只追加、
// 不截断，该文件里已经写入的记录必须保留。
func (r *TimeRotator) rotateLocked(ts time.Time) (bool, error) {
	name := r.calc.CalcFilename(r.base, ts.In(r.cfg.location))
	if name == r.filename {
		if r.file == nil {
			if err := r.openLocked(name, false); err != nil {
				return false, err
			}
			r.boundary = r.sched.Next(r.now())
			// 原文件可能已被当作空文件丢弃，交给 admitLocked 重新纳入
			return true, nil
		}
		r.boundary = r.sched.Next(r.now())
		return false, nil
	}

	prev := r.filename
	if err := r.closeFileLocked(); err != nil {
		r.reportError(err)
	}
	if r.throwaway {
		r.throwaway = false
		r.discardLocked(prev)
	}

	if err := r.openLocked(name, r.cfg.truncate); err != nil {
		return false, err
	}
	r.boundary = r.sched.Next(r.now())
	r.metrics.rotated()
	return true, nil
}

// discardLocked 删除从未写入过的初始空文件并停止跟踪它
func (r *TimeRotator) discardLocked(name string) {
	if err := removeIfExists(r.cfg.fs, name); err != nil {
		r.reportError(err)
		return
	}
	if r.queue != nil {
		r.queue.remove(name)
	}
	if i := slices.Index(r.pending, name); i >= 0 {
		r.pending = slices.Delete(r.pending, i, i+1)
	}
}

// admitLocked 把新文件纳入保留队列，队列满时先淘汰最旧的文件
//
// 删除失败时被弹出的文件放回队首，新文件留在 pending 中，
// 下一次轮转重试同一个删除。队列容量始终不会被突破。
func (r *TimeRotator) admitLocked(name string) error {
	if !slices.Contains(r.queue.items(), name) && !slices.Contains(r.pending, name) {
		r.pending = append(r.pending, name)
	}

	for len(r.pending) > 0 {
		if r.queue.full() {
			oldest, err := r.queue.popFront()
			if err != nil {
				return err
			}
			if err := removeIfExists(r.cfg.fs, oldest); err != nil {
				// 撤销弹出，保持队列不变量
				_ = r.queue.pushFront(oldest)
				r.metrics.evicted(err)
				return &RetentionDeleteError{Path: oldest, Err: err}
			}
			r.metrics.evicted(nil)
		}
		if err := r.queue.pushBack(r.pending[0]); err != nil {
			return err
		}
		r.pending = slices.Delete(r.pending, 0, 1)
	}
	return nil
}

// openLocked 打开（必要时创建）文件并设置写入器，truncate 为 true 时清空已有内容
func (r *TimeRotator) openLocked(name string, truncate bool) error {
	if ev := r.cfg.events.BeforeOpen; ev != nil {
		ev(name)
	}
	if err := xfile.EnsureDir(name); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFileOpen, name, err)
	}

	flag := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flag |= os.O_TRUNC
	}
	f, err := r.cfg.fs.OpenFile(name, flag, r.cfg.fileMode)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFileOpen, name, err)
	}

	r.file = f
	r.filename = name
	if r.cfg.bufferSize > 0 {
		r.buf = bufio.NewWriterSize(f, r.cfg.bufferSize)
		r.w = r.buf
	} else {
		r.buf = nil
		r.w = f
	}

	if ev := r.cfg.events.AfterOpen; ev != nil {
		ev(name, r.w)
	}
	return nil
}

// closeFileLocked 刷新并关闭当前文件，无论成败都释放句柄
func (r *TimeRotator) closeFileLocked() error {
	if r.file == nil {
		return nil
	}
	name := r.filename
	if ev := r.cfg.events.BeforeClose; ev != nil {
		ev(name, r.w)
	}

	var errs []error
	if r.buf != nil {
		if err := r.buf.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	r.file, r.buf, r.w = nil, nil, nil

	if ev := r.cfg.events.AfterClose; ev != nil {
		ev(name)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: close %s: %w", ErrFileWrite, name, errors.Join(errs...))
	}
	return nil
}

// Flush 把缓冲数据写入文件并同步到存储，不触发轮转
//
// 轮转打开新文件失败后没有可写文件，返回 [ErrNoFile]；旧文件的缓冲
// 已在轮转关闭时落盘，不会丢数据。
func (r *TimeRotator) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.file == nil {
		return ErrNoFile
	}
	if r.buf != nil {
		if err := r.buf.Flush(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrFileWrite, r.filename, err)
		}
	}
	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", ErrFileWrite, r.filename, err)
	}
	return nil
}

// Rotate 以当前时钟重新评估窗口
//
// 当前时间已进入新窗口时立即切换文件并执行淘汰，否则只重新推导边界。
func (r *TimeRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	rotated, err := r.rotateLocked(r.now())
	if err != nil {
		return err
	}
	if rotated && r.queue != nil {
		return r.admitLocked(r.filename)
	}
	return nil
}

// Close 刷新并关闭当前文件。重复调用返回 [ErrClosed]。
func (r *TimeRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.closed = true
	return r.closeFileLocked()
}

// Filename 返回当前文件名
//
// 轮转打开新文件失败后返回最后一次成功打开的文件名，此时该文件已关闭，
// [TimeRotator.Flush] 返回 [ErrNoFile]，直到下一次写入重新打开文件。
func (r *TimeRotator) Filename() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filename
}

// NextRotation 返回当前的轮转边界
func (r *TimeRotator) NextRotation() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boundary
}

// Retained 返回保留队列快照（从旧到新，含等待入队的文件）。未限制保留数量时返回 nil。
func (r *TimeRotator) Retained() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.queue == nil {
		return nil
	}
	return append(r.queue.items(), r.pending...)
}

func (r *TimeRotator) now() time.Time {
	return r.cfg.clock().In(r.cfg.location)
}

// reportError 通过回调上报内部错误，回调 panic 被隔离
func (r *TimeRotator) reportError(err error) {
	if err != nil && r.cfg.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.cfg.onError(err)
	}
}
