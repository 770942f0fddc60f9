package xrotor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// meterName OpenTelemetry Meter 的 instrumentation scope 名
const meterName = "github.com/omeyang/rotatex/pkg/xrotor"

// meters 轮转引擎的指标集合。
//
// 未注入 MeterProvider 时全部计数器为 nil，各上报方法直接返回，
// 主路径零开销。指标创建失败同样静默降级为空操作。
type meters struct {
	rotations     metric.Int64Counter
	conflicts     metric.Int64Counter
	lockTimeouts  metric.Int64Counter
	prunedBackups metric.Int64Counter
}

func newMeters(mp metric.MeterProvider) *meters {
	m := &meters{}
	if mp == nil {
		return m
	}
	meter := mp.Meter(meterName)
	m.rotations, _ = meter.Int64Counter("rotatex.rotations",
		metric.WithDescription("完成的轮转次数"))
	m.conflicts, _ = meter.Int64Counter("rotatex.rotation_conflicts",
		metric.WithDescription("等锁期间被其他进程抢先完成的轮转次数"))
	m.lockTimeouts, _ = meter.Int64Counter("rotatex.lock_timeouts",
		metric.WithDescription("因锁等待超时而推迟的轮转次数"))
	m.prunedBackups, _ = meter.Int64Counter("rotatex.prune_deleted",
		metric.WithDescription("被保留策略删除的备份文件数"))
	return m
}

func (m *meters) rotation() {
	if m.rotations != nil {
		m.rotations.Add(context.Background(), 1)
	}
}

func (m *meters) conflict() {
	if m.conflicts != nil {
		m.conflicts.Add(context.Background(), 1)
	}
}

func (m *meters) lockTimeout() {
	if m.lockTimeouts != nil {
		m.lockTimeouts.Add(context.Background(), 1)
	}
}

func (m *meters) pruned() {
	if m.prunedBackups != nil {
		m.prunedBackups.Add(context.Background(), 1)
	}
}
