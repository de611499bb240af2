package xrotate

import (
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xroll/pkg/util/xfile"
)

// SuffixDelim 基础文件名与时间后缀之间的分隔符
const SuffixDelim = "_"

// 内置后缀布局（time.Format 语法），均为定宽零填充，
// 因此生成文件名的字典序与时间顺序一致。
const (
	// DailyLayout 按天：YYYY-MM-DD
	DailyLayout = "2006-01-02"

	// MinuteLayout 按分钟：YYYY-MM-DD-HH_MM
	MinuteLayout = "2006-01-02-15_04"
)

// FilenameCalculator 文件命名策略
//
// 实现必须是无状态的纯函数，并满足：
//   - CalcFilename 生成的后缀定宽，字典序等于时间顺序（目录扫描恢复依赖此性质）
//   - ExtractSuffix 是 CalcFilename 的逆操作，不匹配时返回 ("", false)，不得 panic
//
// 引擎只把后缀当作可排序的不透明字符串，后缀可以不是时间。
type FilenameCalculator interface {
	// CalcFilename 根据基础路径和时间生成具体文件名
	CalcFilename(basePath string, t time.Time) string

	// ExtractSuffix 判断 filename 是否可能由 CalcFilename(basePath, ·) 生成，
	// 是则返回其后缀
	ExtractSuffix(basePath, filename string) (string, bool)
}

// 内置命名策略
var (
	// DailyFilename 生成 base_YYYY-MM-DD.ext
	DailyFilename FilenameCalculator = layoutFilename{layout: DailyLayout}

	// MinuteFilename 生成 base_YYYY-MM-DD-HH_MM.ext
	MinuteFilename FilenameCalculator = layoutFilename{layout: MinuteLayout}
)

// layoutFilename 基于 time.Format 布局的命名策略
type layoutFilename struct {
	layout string
}

// 用于检查布局是否定宽的参考时间：各字段位数尽量不同
var layoutProbes = [...]time.Time{
	time.Date(2001, 2, 3, 4, 5, 6, 7, time.UTC),
	time.Date(2099, 12, 31, 23, 59, 59, 999999999, time.UTC),
	time.Date(1999, 10, 10, 10, 10, 10, 100000000, time.UTC),
}

// NewLayoutFilename 创建自定义后缀布局的命名策略
//
// layout 使用 time.Format 语法，必须渲染为定宽字符串（例如 "20060102"、
// "2006-01-02T15"），不能包含路径分隔符。"January"、"Monday" 这类变宽布局
// 会被拒绝；"Jan" 虽然定宽但不保序，由调用方自行避免。
func NewLayoutFilename(layout string) (FilenameCalculator, error) {
	if layout == "" {
		return nil, fmt.Errorf("%w: empty suffix layout", ErrInvalidConfig)
	}
	if strings.ContainsAny(layout, `/\`) {
		return nil, fmt.Errorf("%w: suffix layout %q contains path separator", ErrInvalidConfig, layout)
	}
	width := len(layoutProbes[0].Format(layout))
	for _, p := range layoutProbes[1:] {
		if len(p.Format(layout)) != width {
			return nil, fmt.Errorf("%w: suffix layout %q is not fixed width", ErrInvalidConfig, layout)
		}
	}
	if layoutProbes[0].Format(layout) == layoutProbes[1].Format(layout) {
		return nil, fmt.Errorf("%w: suffix layout %q carries no time fields", ErrInvalidConfig, layout)
	}
	return layoutFilename{layout: layout}, nil
}

// CalcFilename 生成 <stem>_<suffix><ext>
func (l layoutFilename) CalcFilename(basePath string, t time.Time) string {
	stem, ext := xfile.SplitExt(basePath)
	return stem + SuffixDelim + t.Format(l.layout) + ext
}

// ExtractSuffix 要求 filename 以 stem+"_" 开头、以基础扩展名结尾，
// 且中间部分按布局解析后能原样格式化回来。
func (l layoutFilename) ExtractSuffix(basePath, filename string) (string, bool) {
	stem, ext := xfile.SplitExt(basePath)
	prefix := stem + SuffixDelim
	if !strings.HasPrefix(filename, prefix) || !strings.HasSuffix(filename, ext) {
		return "", false
	}
	if len(filename) < len(prefix)+len(ext) {
		return "", false
	}
	suffix := filename[len(prefix) : len(filename)-len(ext)]
	if suffix == "" {
		return "", false
	}
	t, err := time.Parse(l.layout, suffix)
	if err != nil || t.Format(l.layout) != suffix {
		return "", false
	}
	return suffix, true
}

// String 返回布局，便于日志与调试输出。
func (l layoutFilename) String() string {
	return "layout(" + l.layout + ")"
}
