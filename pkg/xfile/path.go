package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// hasDotDotSegment 检测路径中是否包含 ".." 作为独立路径段。
// 同时将 '/' 和 '\' 视为分隔符，以捕获 Windows 风格的穿越写法。
// 不能用 strings.Contains：会误伤 "app..2024.log" 这类合法文件名。
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

// SanitizePath 对日志文件路径做格式净化和规范化。
//
// 拒绝空路径、含空字节的路径、相对路径穿越（".." 段）以及显式的
// 目录路径（尾随分隔符）。接受绝对路径；绝对路径中的 ".." 由
// filepath.Clean 正常解析，不视为穿越。
//
// 返回规范化后的路径。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if strings.ContainsRune(filename, 0) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// 尾随分隔符表示目录，必须在 Clean 之前检查（Clean 会移除它）
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}
	if base := filepath.Base(cleaned); base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}
