package xfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// containsNullByte 检测路径是否包含空字节。
// Linux 内核在 VFS 层会在空字节处截断路径。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 检测路径中是否包含 ".." 作为独立路径段。
// '/' 和 '\' 都视为分隔符。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 对日志文件路径进行格式检查和规范化
//
// 拒绝空路径、包含空字节的路径、显式目录路径（尾随 "/" 或 "\"）
// 以及规范化后仍含 ".." 路径段的相对路径。
// 绝对路径中的 ".." 由 filepath.Clean 正常解析。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// 必须在 Clean 之前检查，Clean 会移除尾部斜杠
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// SplitExt 把路径拆分为 stem 和扩展名（含前导点）
//
// 扩展名取最后一个路径元素中最后一个点之后的部分。以下情况没有扩展名：
// 没有点、点是文件名首字符（点文件）、点是最后一个字符、点位于目录部分。
// 恒有 stem+ext == path。
func SplitExt(path string) (stem, ext string) {
	dot := strings.LastIndexByte(path, '.')
	if dot <= 0 || dot == len(path)-1 {
		return path, ""
	}
	sep := strings.LastIndexFunc(path, func(r rune) bool {
		return r < 0x80 && os.IsPathSeparator(uint8(r))
	})
	if sep >= 0 && sep >= dot-1 {
		return path, ""
	}
	return path[:dot], path[dot:]
}
