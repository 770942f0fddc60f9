// Package xplock 提供绑定到日志文件的跨进程互斥锁，以及随锁持久化的
// 轮转调度状态。
//
// # 锁
//
// 底层是 OS 原生的建议锁（flock），随进程生命周期自动释放：持有者
// 崩溃后内核收回锁，不存在需要人工清理的陈旧 pid 文件。锁文件路径
// 从日志文件路径派生（默认与日志同目录，可通过 [WithDir] 独立存放）。
//
// 进程内并发通过按锁路径注册的信号量汇聚：同一进程的多个 goroutine
// 对同一路径的 Acquire 先在进程内排队，只有一个持有者会触碰 OS 锁，
// 避免同进程多 fd 互相阻塞。锁不可重入，持有者内部不得再次 Acquire。
//
// # 轮转状态
//
// 下次轮转时刻持久化在锁文件内（单行 JSON），新启动的进程不需要
// 猜测调度：[Handle.ReadState] 在持锁时读取，[Lock.PeekState] 供
// 锁外的廉价到期预判乐观读取。缺失或损坏的状态一律按"无历史调度"
// 处理，绝不升级为错误。写入只允许在持锁时进行。
package xplock
