package xrotor

import "errors"

// 配置校验错误（构造时致命）
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotor: filename is required")

	// ErrInvalidMaxBytes MaxBytes 值无效（必须在 0~10GiB 范围内，0 表示禁用大小触发）
	ErrInvalidMaxBytes = errors.New("xrotor: invalid MaxBytes")

	// ErrInvalidBackupCount BackupCount 值无效（必须在 0~1024 范围内；
	// 纯大小策略下必须 >= 1，否则轮转无处安放备份）
	ErrInvalidBackupCount = errors.New("xrotor: invalid BackupCount")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotor: invalid FileMode")

	// ErrNoTrigger 大小触发与时间触发都未配置
	ErrNoTrigger = errors.New("xrotor: no rotation trigger configured")

	// ErrConflictingTriggers 固定单位策略与 cron 策略同时配置
	ErrConflictingTriggers = errors.New("xrotor: fixed-unit and cron triggers are mutually exclusive")

	// ErrInvalidAcquireTimeout 跨进程锁的等待上限无效（必须 > 0）
	ErrInvalidAcquireTimeout = errors.New("xrotor: invalid AcquireTimeout")
)

// ErrClosed 轮转器已关闭。关闭后的任何 Write/Rotate（以及重复的
// Close）都返回本错误，不触碰任何文件句柄或锁。
var ErrClosed = errors.New("xrotor: rotator is closed")
