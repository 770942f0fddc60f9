// Package xrotor 提供可跨进程协作的日志文件轮转引擎。
//
// 多个独立进程（以及进程内的多个 goroutine）可以同时向同一个日志
// 文件追加，并在没有中央协调者的前提下就"何时轮转、由谁轮转"达成
// 一致：唯一的共享状态是文件系统。
//
// # 轮转协议
//
// 每次写入先做廉价的到期预判（内存中的大小计数与缓存的下次轮转
// 时刻，不触碰跨进程锁）；判定到期后才进入轮转序列：
//
//	获取跨进程锁 → 持锁二次评估（对端可能已轮转）→
//	关闭句柄 → 改名/顺移备份 → 压缩钩子 → 裁剪 → 持久化调度 →
//	重新打开 → 释放锁
//
// 持锁二次评估保证 N 个进程在同一边界并发触发时只有一次轮转实际
// 执行，其余进程只是重新打开新的活动文件。
//
// # 失败语义
//
// 单个备份文件的改名/删除失败只记诊断并跳过；轮转后活动文件重新
// 打开失败上浮给调用方（避免静默丢日志）；锁在所有退出路径上释放。
// 获取锁超时视为"轮转推迟"：本次写入落到原文件，下次写入重试。
// 应用的日志调用永远不会因轮转故障崩溃宿主进程。
//
// # 关闭
//
// Close 幂等且必须由宿主显式调用。Close 之后（包括宿主开始析构
// 之后）的任何 Write/Rotate 返回 [ErrClosed]，不触碰任何可能已被
// 释放的句柄或锁。
//
// # 诊断与错误回调
//
// 轮转器自身经常被用作日志输出目标，内部诊断绝不通过日志库写出
// （写失败 → 打日志 → 再写失败的递归）。[WithDiagnostics] 与
// [WithOnError] 的回调不得向同一 Rotator 写入数据。
package xrotor
