package xplock

import "errors"

var (
	// ErrEmptyPath 表示日志文件路径为空。
	ErrEmptyPath = errors.New("xplock: log path is required")

	// ErrClosed 表示锁已关闭。
	ErrClosed = errors.New("xplock: lock is closed")

	// ErrTimeout 表示在限定时间内未能获得锁。调用方应将本次轮转
	// 视为"推迟"，继续向当前文件追加，并在下次写入时重试。
	ErrTimeout = errors.New("xplock: acquire timed out")

	// ErrOccupied 表示非阻塞获取时锁被其他持有者占用。
	ErrOccupied = errors.New("xplock: lock occupied")

	// ErrNotHeld 表示重复释放：Unlock 是幂等的，第一次返回 nil，
	// 后续调用返回本错误。
	ErrNotHeld = errors.New("xplock: lock not held")

	// ErrInvalidRetryInterval 表示重试间隔配置无效。
	ErrInvalidRetryInterval = errors.New("xplock: invalid retry interval")
)
