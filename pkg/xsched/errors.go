package xsched

import "errors"

var (
	// ErrUnknownWhen 表示无法识别的触发单位字符串。
	ErrUnknownWhen = errors.New("xsched: unknown rotation unit")

	// ErrInvalidInterval 表示间隔数无效（必须 >= 1）。
	ErrInvalidInterval = errors.New("xsched: invalid interval")

	// ErrInvalidCron 表示 cron 表达式解析失败。
	ErrInvalidCron = errors.New("xsched: invalid cron expression")
)
