// xrollctl 是 xrotate 按时间轮转日志的命令行工具。
//
// 用法:
//
//	xrollctl <命令> -c <配置文件> [命令参数]
//
// 命令:
//
//	run     从 stdin 逐行读取并写入轮转文件，直到 EOF 或收到终止信号
//	ls      列出保留范围内（retained）与超出保留数量（excess）的文件
//	next    显示某一时刻对应的文件名与下一个轮转边界
//	prune   离线删除超出 rotate.max_files 的旧文件
//
// run 命令说明:
//
//	SIGINT/SIGTERM/SIGQUIT 刷新并关闭文件后退出；SIGHUP 按当前时间重新评估轮转窗口。
//	--watch 在配置文件变化时重建轮转器，新配置无效时保留旧配置继续写入。
//	--structured 把每行作为一条 INFO 记录交给 xlog，由 rotate.format 决定渲染方式。
//
// 配置文件中的键可被 XROLL_ 前缀的环境变量覆盖，例如 XROLL_ROTATE__MAX_FILES=30。
// XROLL_LOG_LEVEL 控制 xrollctl 自身诊断日志的级别。
//
// 退出码:
//
//	0: 成功（run 命令: 输入结束或收到终止信号）
//	1: 运行时错误（打开/写入失败、prune 有文件删除失败）
//	2: 参数或配置错误
//
// 示例:
//
//	app | xrollctl run -c /etc/xroll/app.yaml --watch
//	xrollctl next -c app.yaml --at 2024-03-10T23:59:00+08:00
//	xrollctl prune -c app.yaml --dry-run
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// 版本信息，通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// createApp 创建 CLI 应用
func createApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xrollctl",
		Usage:     "按时间窗口轮转日志文件并限制保留数量",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Commands:  createCommands(),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，由 run 统一映射退出码。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := createApp(stdin, stdout, stderr)

	err := app.Run(ctx, args)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// cliUsagePrefixes urfave/cli 与 flag 包产生的参数错误消息前缀
var cliUsagePrefixes = []string{
	"flag provided but not defined",
	"flag needs an argument",
	"invalid value",
	"Required flag",
	"No help topic for",
}

// isCLIUsageError 识别框架层面的参数错误。
// urfave/cli 没有为这些错误导出类型，只能按消息匹配。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range cliUsagePrefixes {
		if strings.Contains(msg, prefix) {
			return true
		}
	}
	return false
}
