package xrotate

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"github.com/omeyang/xroll/pkg/util/xfile"
)

// RecoveryPlan 目录扫描得到的保留计划，两部分都按从旧到新排列
type RecoveryPlan struct {
	// Retained 最新的至多 maxFiles 个文件
	Retained []string
	// Excess 超出 maxFiles 的更旧文件，是启动清理的候选
	Excess []string
}

// Scan 扫描 basePath 所在目录，找出由 calc 生成的文件并按后缀排序后拆分
//
// maxFiles <= 0 表示不限制，所有文件都进入 Retained。
// 目录不存在时返回空计划。
func Scan(basePath string, calc FilenameCalculator, maxFiles int) (RecoveryPlan, error) {
	if calc == nil {
		return RecoveryPlan{}, fmt.Errorf("%w: nil FilenameCalculator", ErrInvalidConfig)
	}
	safePath, err := xfile.SanitizePath(basePath)
	if err != nil {
		return RecoveryPlan{}, err
	}
	names, err := collectRotated(osFS{}, safePath, calc)
	if err != nil {
		return RecoveryPlan{}, err
	}
	return splitRetained(names, maxFiles), nil
}

// collectRotated 列出目录并返回匹配文件，按后缀字典序（即时间顺序）排列
//
// 目录列举顺序不作假设。两个文件后缀相同时保留后列举到的那个。
func collectRotated(fsys fileSystem, basePath string, calc FilenameCalculator) ([]string, error) {
	dir := filepath.Dir(basePath)
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if !pathExists(fsys, dir) {
			return nil, nil
		}
		return nil, fmt.Errorf("xrotate: list %s: %w", dir, err)
	}

	bySuffix := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := filepath.Join(dir, e.Name())
		if suffix, ok := calc.ExtractSuffix(basePath, name); ok {
			bySuffix[suffix] = name
		}
	}

	suffixes := make([]string, 0, len(bySuffix))
	for s := range bySuffix {
		suffixes = append(suffixes, s)
	}
	sort.Strings(suffixes)

	names := make([]string, len(suffixes))
	for i, s := range suffixes {
		names[i] = bySuffix[s]
	}
	return names, nil
}

// splitRetained 保留最新的 maxFiles 个，其余作为 Excess
func splitRetained(names []string, maxFiles int) RecoveryPlan {
	if maxFiles <= 0 || len(names) <= maxFiles {
		return RecoveryPlan{Retained: slices.Clone(names)}
	}
	cut := len(names) - maxFiles
	return RecoveryPlan{
		Excess:   slices.Clone(names[:cut]),
		Retained: slices.Clone(names[cut:]),
	}
}
