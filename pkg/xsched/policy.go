package xsched

import (
	"fmt"
	"time"
)

// Schedule 时间触发器接口。
//
// Next 返回严格晚于 last 的下一个轮转边界。实现必须是纯函数：
// 相同输入返回相同输出，不得持有隐藏的可变计数器。
type Schedule interface {
	Next(last time.Time) time.Time
}

// Policy 固定单位的时间触发策略。
//
// 零值无效，使用前必须通过 [Policy.Validate] 校验。
// 策略在日志文件的生命周期内固定不变。
type Policy struct {
	// When 触发单位
	When When

	// Interval 间隔数（单位个数，必须 >= 1）
	Interval int

	// UTC 边界按 UTC 计算；false 时按本地时间
	UTC bool
}

// Validate 校验策略参数。
func (p Policy) Validate() error {
	if !p.When.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWhen, int(p.When))
	}
	if p.Interval < 1 {
		return fmt.Errorf("%w: got %d, want >= 1", ErrInvalidInterval, p.Interval)
	}
	return nil
}

// location 返回边界计算使用的时区。
func (p Policy) location() *time.Location {
	if p.UTC {
		return time.UTC
	}
	return time.Local
}

// Next 返回严格晚于 last 的下一个轮转边界。
//
// 秒/分/时：截断到单位边界后加 interval 个单位，结果总是对齐的
// （如每 5 分钟的边界总落在整分上）。
// 天（D）：自 last 起流逝 interval*24h，不做日历对齐。
// MIDNIGHT：下一个午夜，再加 interval-1 天。
// W0~W6：下一个目标星期的午夜，再加 interval-1 周。
//
// 夏令时说明：MIDNIGHT 与星期轮转通过日历运算（AddDate）跨过
// 夏令时切换日，边界始终落在当地午夜；秒/分/时按绝对流逝时间计算。
func (p Policy) Next(last time.Time) time.Time {
	loc := p.location()
	t := last.In(loc)

	switch p.When {
	case Second:
		return t.Truncate(time.Second).Add(time.Duration(p.Interval) * time.Second)
	case Minute:
		return t.Truncate(time.Minute).Add(time.Duration(p.Interval) * time.Minute)
	case Hour:
		return t.Truncate(time.Hour).Add(time.Duration(p.Interval) * time.Hour)
	case Day:
		return t.Add(time.Duration(p.Interval) * 24 * time.Hour)
	case Midnight:
		next := midnightAfter(t)
		return next.AddDate(0, 0, p.Interval-1)
	default:
		// 按星期轮转
		next := midnightAfter(t)
		days := (int(p.When.weekday()) - int(next.Weekday()) + 7) % 7
		return next.AddDate(0, 0, days+7*(p.Interval-1))
	}
}

// midnightAfter 返回严格晚于 t 的第一个午夜。
func midnightAfter(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, 1)
}

// Due 报告 now 是否已到达轮转边界 at。
// at 为零值表示没有已知边界，永不到期。
func Due(now, at time.Time) bool {
	return !at.IsZero() && !now.Before(at)
}

// StampLayout 返回策略对应的备份时间戳布局。
func (p Policy) StampLayout() string {
	return p.When.StampLayout()
}
