package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xroll/pkg/config/xconf"
	"github.com/omeyang/xroll/pkg/lifecycle/xrun"
	"github.com/omeyang/xroll/pkg/observability/xlog"
	"github.com/omeyang/xroll/pkg/observability/xrotate"
	"github.com/omeyang/xroll/pkg/util/xfile"
)

// exitError 命令已完成输出，只需设置退出码
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 参数或配置错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// errInputClosed stdin 读到 EOF，run 命令的正常结束条件
var errInputClosed = errors.New("input closed")

func createCommands() []*cli.Command {
	return []*cli.Command{
		createRunCommand(),
		createLsCommand(),
		createNextCommand(),
		createPruneCommand(),
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "配置文件路径（.yaml/.yml/.json）",
	}
}

// createRunCommand 创建 run 子命令：把 stdin 逐行写入轮转文件
func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "从 stdin 读取日志行并写入轮转文件",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "配置文件变化时重建轮转器",
			},
			&cli.BoolFlag{
				Name:  "structured",
				Usage: "每行作为一条 INFO 记录写入（按 rotate.format 渲染）",
			},
			&cli.DurationFlag{
				Name:  "flush-interval",
				Usage: "定时刷新缓冲的间隔，0 表示只在退出时刷新",
				Value: time.Second,
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "退出时向 stderr 打印轮转统计",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdRun(ctx, cmd.Root(), runParams{
				configPath:    cmd.String("config"),
				watch:         cmd.Bool("watch"),
				structured:    cmd.Bool("structured"),
				flushInterval: cmd.Duration("flush-interval"),
				stats:         cmd.Bool("stats"),
			})
		},
	}
}

func createLsCommand() *cli.Command {
	return &cli.Command{
		Name:  "ls",
		Usage: "列出保留范围内与超出保留数量的轮转文件",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdLs(ctx, cmd.Root().Writer, cmd.String("config"))
		},
	}
}

func createNextCommand() *cli.Command {
	return &cli.Command{
		Name:  "next",
		Usage: "显示某一时刻对应的文件名与下一个轮转边界",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "at",
				Usage: "RFC3339 时间，默认当前时间",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdNext(ctx, cmd.Root().Writer, cmd.String("config"), cmd.String("at"), time.Now)
		},
	}
}

func createPruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "删除超出 rotate.max_files 的旧文件",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "只列出将被删除的文件",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdPrune(ctx, cmd.Root().Writer, cmd.Root().ErrWriter, cmd.String("config"), cmd.Bool("dry-run"))
		},
	}
}

// =============================================================================
// run
// =============================================================================

type runParams struct {
	configPath    string
	watch         bool
	structured    bool
	flushInterval time.Duration
	stats         bool
}

// cmdRun 读取 stdin 直到 EOF 或终止信号，SIGHUP 触发强制轮转
func cmdRun(ctx context.Context, root *cli.Command, p runParams) (err error) {
	cfg, src, err := loadConfig(p.configPath)
	if err != nil {
		return err
	}
	if p.flushInterval < 0 {
		return &usageError{msg: "--flush-interval 不能为负数"}
	}

	diag, diagCleanup, err := newDiagLogger(root.ErrWriter)
	if err != nil {
		return err
	}
	defer func() { _ = diagCleanup() }()

	opts := sinkOptions{structured: p.structured, retry: cfg.Retry, diag: diag}
	var st *stats
	if p.stats {
		st = newStats()
		opts.mp = st.mp
	}

	s, err := newSink(ctx, cfg.Rotate, opts)
	if err != nil {
		if st != nil {
			_ = st.shutdown(context.Background())
		}
		if isConfigError(err) {
			return &usageError{msg: "rotate 配置无效: " + err.Error()}
		}
		return fmt.Errorf("打开轮转器失败: %w", err)
	}
	defer func() {
		err = errors.Join(err, s.close())
		if st != nil {
			err = errors.Join(err, st.report(context.Background(), root.ErrWriter))
		}
	}()

	services := []func(context.Context) error{
		func(ctx context.Context) error {
			if err := xrun.ReadLines(root.Reader, s.writeLine)(ctx); err != nil {
				return err
			}
			return errInputClosed
		},
		xrun.OnSignal(func(ctx context.Context, _ os.Signal) error {
			return s.rotate(ctx)
		}, syscall.SIGHUP),
	}
	if p.flushInterval > 0 {
		services = append(services, xrun.Ticker(p.flushInterval, false, s.flush))
	}
	if p.watch {
		w, err := newConfigWatcher(ctx, src, s, diag)
		if err != nil {
			return err
		}
		services = append(services, w.Run)
	}

	err = xrun.Run(ctx, []xrun.Option{xrun.WithName("xrollctl"), xrun.WithLogger(diag)}, services...)
	switch {
	case err == nil, errors.Is(err, errInputClosed), errors.Is(err, xrun.ErrSignal):
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	default:
		return err
	}
}

func newConfigWatcher(ctx context.Context, src *xconf.Source, s *sink, diag xlog.Logger) (*xconf.Watcher, error) {
	return xconf.NewWatcher(src, func(src *xconf.Source, err error) {
		if err != nil {
			diag.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		cfg, err := decodeConfig(src)
		if err != nil {
			diag.Warn(ctx, "config invalid, keeping previous", xlog.Err(err))
			return
		}
		if err := s.swap(ctx, cfg.Rotate); err != nil {
			diag.Error(ctx, "reconfigure failed, keeping previous", xlog.Err(err))
		}
	})
}

// newDiagLogger xrollctl 自身的诊断日志，输出到 stderr
func newDiagLogger(w io.Writer) (xlog.Logger, func() error, error) {
	level := os.Getenv(envPrefix + "LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	logger, cleanup, err := xlog.New().
		SetOutput(w).
		SetLevelString(level).
		SetAttrs(xlog.Component("xrollctl")).
		Build()
	if err != nil {
		return nil, nil, &usageError{msg: err.Error()}
	}
	return logger, cleanup, nil
}

// =============================================================================
// ls / next / prune
// =============================================================================

// loadTimeConfig 加载配置并要求是按时间轮转
func loadTimeConfig(path, command string) (fileConfig, xrotate.FilenameCalculator, error) {
	cfg, _, err := loadConfig(path)
	if err != nil {
		return fileConfig{}, nil, err
	}
	if !cfg.Rotate.IsTimePolicy() {
		return fileConfig{}, nil, &usageError{msg: command + " 只支持按时间轮转的策略"}
	}
	calc, err := cfg.Rotate.Calculator()
	if err != nil {
		return fileConfig{}, nil, &usageError{msg: err.Error()}
	}
	return cfg, calc, nil
}

// cmdLs 输出 "retained <path>" 与 "excess <path>"，均按从旧到新排列
func cmdLs(ctx context.Context, out io.Writer, configPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg, calc, err := loadTimeConfig(configPath, "ls")
	if err != nil {
		return err
	}
	plan, err := xrotate.Scan(cfg.Rotate.Filename, calc, cfg.Rotate.MaxFiles)
	if err != nil {
		return fmt.Errorf("扫描目录失败: %w", err)
	}
	for _, name := range plan.Retained {
		fmt.Fprintf(out, "retained %s\n", name)
	}
	for _, name := range plan.Excess {
		fmt.Fprintf(out, "excess   %s\n", name)
	}
	return nil
}

// cmdNext 输出 at 时刻的文件名与之后的第一个轮转边界
func cmdNext(ctx context.Context, out io.Writer, configPath, at string, now func() time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg, calc, err := loadTimeConfig(configPath, "next")
	if err != nil {
		return err
	}
	sched, err := cfg.Rotate.Scheduler()
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	loc, err := cfg.Rotate.TimeLocation()
	if err != nil {
		return &usageError{msg: err.Error()}
	}

	t := now()
	if at != "" {
		t, err = time.Parse(time.RFC3339, at)
		if err != nil {
			return &usageError{msg: fmt.Sprintf("--at 不是 RFC3339 时间: %v", err)}
		}
	}
	t = t.In(loc)

	fmt.Fprintf(out, "file     %s\n", calc.CalcFilename(cfg.Rotate.Filename, t))
	fmt.Fprintf(out, "boundary %s\n", sched.Next(t).Format(time.RFC3339))
	return nil
}

// cmdPrune 删除超出保留数量的旧文件，单个文件删除失败会重试，
// 最终仍失败时继续处理其余文件并以退出码 1 结束
func cmdPrune(ctx context.Context, out, errOut io.Writer, configPath string, dryRun bool) error {
	cfg, calc, err := loadTimeConfig(configPath, "prune")
	if err != nil {
		return err
	}
	if cfg.Rotate.MaxFiles <= 0 {
		fmt.Fprintln(out, "rotate.max_files 未设置，无需清理")
		return nil
	}
	plan, err := xrotate.Scan(cfg.Rotate.Filename, calc, cfg.Rotate.MaxFiles)
	if err != nil {
		return fmt.Errorf("扫描目录失败: %w", err)
	}

	failed := 0
	for _, name := range plan.Excess {
		if dryRun {
			fmt.Fprintf(out, "would remove %s\n", name)
			continue
		}
		err := cfg.Retry.do(ctx, nil, func() error {
			return removeIfExists(name)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			fmt.Fprintf(errOut, "删除失败 %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "removed %s\n", name)
	}
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// removeIfExists 删除文件，文件已不存在视为成功
func removeIfExists(name string) error {
	safe, err := xfile.SanitizePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(safe); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
