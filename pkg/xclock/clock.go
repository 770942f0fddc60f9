package xclock

import "time"

// DefaultMinValidInstant 默认的最早可信时刻（2000-01-01 00:00:00 UTC）。
//
// 早于此时刻的墙钟读数被视为不可信：正常运行的系统不可能回到这个
// 年代，出现这种读数意味着时钟回拨、虚拟化故障或测试桩哨兵值。
var DefaultMinValidInstant = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Clock 墙钟读取接口。
//
// 生产环境使用 [System]，测试中可注入固定或可控的实现。
type Clock interface {
	// Now 返回当前墙钟时刻
	Now() time.Time
}

// ClockFunc 将函数适配为 Clock 接口。
type ClockFunc func() time.Time

// Now 实现 Clock 接口。
func (f ClockFunc) Now() time.Time { return f() }

// System 返回基于 time.Now 的系统墙钟。
func System() Clock { return ClockFunc(time.Now) }
