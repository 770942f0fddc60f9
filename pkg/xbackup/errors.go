package xbackup

import "errors"

var (
	// ErrEmptyBase 表示基础路径为空。
	ErrEmptyBase = errors.New("xbackup: base path is required")

	// ErrEmptyLayout 表示时间戳布局为空。
	ErrEmptyLayout = errors.New("xbackup: stamp layout is required")
)
