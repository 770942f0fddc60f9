package xrotor

import (
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/rotatex/pkg/xclock"
	"github.com/omeyang/rotatex/pkg/xsched"
)

// 默认配置值
const (
	// DefaultBackupCount 默认保留的备份文件数量
	DefaultBackupCount = 7

	// DefaultAcquireTimeout 默认的跨进程锁等待上限。
	// 超时后本次轮转推迟，写入落到原文件。
	DefaultAcquireTimeout = 10 * time.Second

	// maxMaxBytes 单个日志文件大小上限（10 GiB）
	maxMaxBytes = 10 << 30

	// maxBackupCount 备份文件数量上限
	maxBackupCount = 1024
)

type config struct {
	maxBytes       int64
	backupCount    int
	when           xsched.When
	interval       int
	hasPolicy      bool
	cronExpr       string
	utc            bool
	lockDir        string
	hook           Hook
	minValid       time.Time
	fileMode       os.FileMode
	onError        func(error)
	diag           func(msg string, kv ...any)
	clock          xclock.Clock
	acquireTimeout time.Duration
	meterProvider  metric.MeterProvider
}

// Option 轮转器配置选项函数
type Option func(*config)

// WithMaxBytes 设置大小触发阈值（字节）。
// 写入将使当前文件超过该值时触发轮转；0 表示禁用大小触发。
func WithMaxBytes(n int64) Option {
	return func(c *config) {
		c.maxBytes = n
	}
}

// WithBackupCount 设置保留的备份文件数量。
// 时间策略下 0 表示不删除旧备份；纯大小策略下必须 >= 1。
func WithBackupCount(n int) Option {
	return func(c *config) {
		c.backupCount = n
	}
}

// WithRotation 设置固定单位的时间触发策略（单位 + 间隔数）。
// 触发族在轮转器生命周期内固定不变。
func WithRotation(when xsched.When, interval int) Option {
	return func(c *config) {
		c.when = when
		c.interval = interval
		c.hasPolicy = true
	}
}

// WithCronSchedule 设置 cron 表达式时间触发策略（与 WithRotation 互斥）。
func WithCronSchedule(expr string) Option {
	return func(c *config) {
		c.cronExpr = expr
	}
}

// WithUTC 设置时间边界与备份时间戳按 UTC 计算（默认本地时间）。
func WithUTC(utc bool) Option {
	return func(c *config) {
		c.utc = utc
	}
}

// WithLockDir 将跨进程锁文件放到独立目录（默认与日志文件同目录）。
func WithLockDir(dir string) Option {
	return func(c *config) {
		c.lockDir = dir
	}
}

// WithCompressHook 设置轮转后压缩钩子（如 [GzipHook]、[ZstdHook]）。
// 钩子在持锁状态下对新产生的备份执行；失败只通过 OnError 上报，
// 未压缩的备份原样保留。
func WithCompressHook(h Hook) Option {
	return func(c *config) {
		c.hook = h
	}
}

// WithMinValidInstant 设置最早可信时钟读数（默认 xclock.DefaultMinValidInstant）。
// 低于该下限的读数不会进入备份文件名或轮转调度。
func WithMinValidInstant(t time.Time) Option {
	return func(c *config) {
		c.minValid = t
	}
}

// WithFileMode 设置活动日志文件权限。
// 默认为 0，表示 0600。设置后在打开和轮转后校正权限。
func WithFileMode(mode os.FileMode) Option {
	return func(c *config) {
		c.fileMode = mode
	}
}

// WithOnError 设置后台错误回调（压缩钩子失败、权限校正失败等）。
//
// 设计决策: 不使用日志库记录内部错误，避免 Rotator 作为日志输出
// 目标时产生递归写入。回调不得向同一 Rotator 写入数据。
func WithOnError(fn func(error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}

// WithDiagnostics 设置诊断回调：被跳过的不可解析备份名、推迟的
// 轮转、单个备份的改名/删除失败等非致命事件。
// 回调不得向同一 Rotator 写入数据。
func WithDiagnostics(fn func(msg string, kv ...any)) Option {
	return func(c *config) {
		c.diag = fn
	}
}

// WithClock 注入时钟实现，仅用于测试。
func WithClock(clk xclock.Clock) Option {
	return func(c *config) {
		c.clock = clk
	}
}

// WithAcquireTimeout 设置跨进程锁的等待上限。
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *config) {
		c.acquireTimeout = d
	}
}

// WithMeterProvider 设置 OTel MeterProvider，上报轮转次数、对端
// 冲突、锁超时与裁剪删除数。未设置时不产生任何指标开销。
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = mp
	}
}

func defaultConfig() config {
	return config{
		backupCount:    DefaultBackupCount,
		minValid:       xclock.DefaultMinValidInstant,
		acquireTimeout: DefaultAcquireTimeout,
	}
}

func (c *config) validate() error {
	if c.maxBytes < 0 || c.maxBytes > maxMaxBytes {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBytes, c.maxBytes, int64(maxMaxBytes))
	}
	if c.backupCount < 0 || c.backupCount > maxBackupCount {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidBackupCount, c.backupCount, maxBackupCount)
	}
	if c.hasPolicy && c.cronExpr != "" {
		return ErrConflictingTriggers
	}
	hasTime := c.hasPolicy || c.cronExpr != ""
	if c.maxBytes == 0 && !hasTime {
		return ErrNoTrigger
	}
	// 纯大小策略的备份通过序号顺移保留，0 份意味着轮转无处安放备份
	if !hasTime && c.backupCount == 0 {
		return fmt.Errorf("%w: size-only rotation requires BackupCount >= 1", ErrInvalidBackupCount)
	}
	if c.fileMode != 0 && c.fileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, c.fileMode)
	}
	if c.acquireTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidAcquireTimeout, c.acquireTimeout)
	}
	return nil
}
