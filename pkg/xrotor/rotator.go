package xrotor

import "io"

// 编译时断言：Rotator 接口是 io.WriteCloser 的超集
var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器接口
//
// 隐式实现 [io.WriteCloser]，可直接作为任何日志前端的输出目标。
// 额外提供 Rotate 方法用于手动触发轮转。所有实现并发安全。
//
// 实现必须满足以下约定：
//   - Write 必须是并发安全的，单次 Write 是一条完整记录，
//     不会与其他写入者交错
//   - Close 后调用 Write 或 Rotate 必须返回 [ErrClosed]
//   - Rotate 可以在任意时刻调用
type Rotator interface {
	// Write 写入一条预格式化的日志记录
	// 当触发轮转条件时先执行轮转再追加
	Write(p []byte) (n int, err error)

	// Close 关闭轮转器，释放文件句柄与锁资源
	// 重复调用返回 [ErrClosed]
	Close() error

	// Rotate 手动触发日志轮转
	// 关闭当前文件，改名为备份文件，创建新的日志文件
	Rotate() error
}
