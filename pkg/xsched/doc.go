// Package xsched 提供日志轮转时间边界的纯计算。
//
// 本包不做任何 I/O，也不持有可变状态：[Policy.Next] 对相同输入
// 永远返回相同输出（幂等），且结果严格晚于输入时刻。
//
// # 触发单位
//
// [When] 对应的配置字符串与常见轮转实现保持一致：
//
//	"S"         每 interval 秒
//	"M"         每 interval 分钟
//	"H"         每 interval 小时
//	"D"         每 interval 天（自上次轮转起的流逝时间）
//	"MIDNIGHT"  午夜对齐，每 interval 天
//	"W0"~"W6"   指定星期（W0=星期一）的午夜，每 interval 周
//
// 秒/分/时单位按单位边界对齐（如分钟轮转总是落在整分上）；
// MIDNIGHT 与 W0~W6 按日历对齐，无论进程何时启动，边界总是
// 落在午夜（本地时间或 UTC，由 [Policy.UTC] 决定）。
//
// # Cron 表达式
//
// [CronPolicy] 将标准 5 段 cron 表达式作为替代的时间触发器，
// 适用于固定单位无法表达的日历（如"每月 1 日凌晨三点"）。
package xsched
