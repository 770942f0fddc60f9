package xsched

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// CronPolicy 基于标准 5 段 cron 表达式的时间触发策略。
//
// 适用于固定单位（[Policy]）无法表达的日历边界，
// 如 "0 3 1 * *"（每月 1 日 03:00）。
type CronPolicy struct {
	expr     string
	schedule cron.Schedule
	utc      bool
}

// NewCronPolicy 解析标准 cron 表达式（分 时 日 月 周）。
//
// utc 为 true 时边界按 UTC 计算，否则按本地时间。
func NewCronPolicy(expr string, utc bool) (*CronPolicy, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidCron, expr, err)
	}
	return &CronPolicy{expr: expr, schedule: schedule, utc: utc}, nil
}

// Expr 返回原始表达式。
func (c *CronPolicy) Expr() string { return c.expr }

// Next 返回严格晚于 last 的下一个 cron 边界。
func (c *CronPolicy) Next(last time.Time) time.Time {
	loc := time.Local
	if c.utc {
		loc = time.UTC
	}
	return c.schedule.Next(last.In(loc))
}

// StampLayout cron 边界可以细到分钟，统一使用秒级布局。
func (c *CronPolicy) StampLayout() string {
	return Second.StampLayout()
}

// 编译时断言
var (
	_ Schedule = Policy{}
	_ Schedule = (*CronPolicy)(nil)
)
