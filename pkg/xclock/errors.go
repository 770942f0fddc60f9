package xclock

import "errors"

var (
	// ErrClockFault 表示重试耗尽后仍未获得可信的时钟读数，且没有可用的回退时刻。
	ErrClockFault = errors.New("xclock: no trustworthy clock reading available")

	// ErrInvalidAttempts 表示重试次数配置无效（必须在 1~10 范围内）。
	ErrInvalidAttempts = errors.New("xclock: invalid retry attempts")

	// ErrInvalidFloor 表示时间下限配置无效（不能为零值）。
	ErrInvalidFloor = errors.New("xclock: invalid minimum valid instant")
)
