// Package xclock 提供带合理性校验的墙钟读取。
//
// 日志轮转的关键路径（备份文件命名、下次轮转时间计算）不能使用
// 不可信的时钟读数：时钟回拨、虚拟化故障或测试桩返回的哨兵值
// 都可能产生远早于合理下限的时间戳。
//
// [Source] 封装了这一防护逻辑：
//  1. 读取墙钟，低于下限（默认 [DefaultMinValidInstant]）视为不可信
//  2. 有界重试（默认 3 次，可调）
//  3. 仍不可信时回退到调用方提供的最近已知可信时刻
//  4. 回退时刻同样不可信时返回 [ErrClockFault]，由调用方决定降级策略
//
// 不可信读数永远不会作为返回值流向备份文件名或轮转调度计算。
package xclock
