package xrotor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/rotatex/pkg/xbackup"
	"github.com/omeyang/rotatex/pkg/xclock"
	"github.com/omeyang/rotatex/pkg/xfile"
	"github.com/omeyang/rotatex/pkg/xplock"
	"github.com/omeyang/rotatex/pkg/xsched"
)

// defaultFileMode 活动日志文件的默认权限
const defaultFileMode os.FileMode = 0o600

// 编译期接口断言
var _ Rotator = (*engine)(nil)

// engine 跨进程轮转引擎，Rotator 的唯一实现。
//
// closed 用原子位标记终止状态；其余可变字段由 mu 保护。
// 跨进程互斥只存在于轮转序列中：普通追加不触碰 OS 锁。
type engine struct {
	path           string
	maxBytes       int64
	backupCount    int
	sched          xsched.Schedule // nil 表示纯大小策略
	fileMode       os.FileMode
	hook           Hook
	onError        func(error)
	diag           func(msg string, kv ...any)
	clock          *xclock.Source
	lock           *xplock.Lock
	namer          *xbackup.Namer
	acquireTimeout time.Duration
	meters         *meters

	mu     sync.Mutex
	file   *os.File
	size   int64
	nextAt time.Time // 缓存的下次轮转时刻；零值表示未知/无时间触发

	closed atomic.Bool
}

// New 创建跨进程日志轮转器。
//
// 必须配置至少一种触发：[WithMaxBytes]（大小）或 [WithRotation] /
// [WithCronSchedule]（时间）。构造时即读取随锁持久化的调度状态：
// 若发现持久化的轮转时刻已被错过（停机期间跨过了边界），立即补做
// 恰好一次轮转，再从当前时刻计算下一个边界。
//
// 活动文件句柄延迟打开（首次写入时创建），父目录不存在时自动创建。
func New(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	// 时间触发器与备份时间戳布局
	var sched xsched.Schedule
	layout := xsched.Second.StampLayout()
	switch {
	case cfg.cronExpr != "":
		cp, err := xsched.NewCronPolicy(cfg.cronExpr, cfg.utc)
		if err != nil {
			return nil, err
		}
		sched = cp
		layout = cp.StampLayout()
	case cfg.hasPolicy:
		p := xsched.Policy{When: cfg.when, Interval: cfg.interval, UTC: cfg.utc}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		sched = p
		layout = p.StampLayout()
	}

	namer, err := xbackup.NewNamer(safePath, layout)
	if err != nil {
		return nil, err
	}

	var lockOpts []xplock.Option
	if cfg.lockDir != "" {
		lockOpts = append(lockOpts, xplock.WithDir(cfg.lockDir))
	}
	lock, err := xplock.New(safePath, lockOpts...)
	if err != nil {
		return nil, err
	}

	clockOpts := []xclock.Option{xclock.WithFloor(cfg.minValid)}
	if cfg.clock != nil {
		clockOpts = append(clockOpts, xclock.WithClock(cfg.clock))
	}
	if cfg.diag != nil {
		diag := cfg.diag
		clockOpts = append(clockOpts, xclock.WithOnFault(func(err error) {
			diag("untrustworthy clock reading", "err", err)
		}))
	}
	clockSrc, err := xclock.NewSource(clockOpts...)
	if err != nil {
		_ = lock.Close()
		return nil, err
	}

	e := &engine{
		path:           safePath,
		maxBytes:       cfg.maxBytes,
		backupCount:    cfg.backupCount,
		sched:          sched,
		fileMode:       cfg.fileMode,
		hook:           cfg.hook,
		onError:        cfg.onError,
		diag:           cfg.diag,
		clock:          clockSrc,
		lock:           lock,
		namer:          namer,
		acquireTimeout: cfg.acquireTimeout,
		meters:         newMeters(cfg.meterProvider),
	}

	if e.sched != nil {
		e.initSchedule()
	}
	return e, nil
}

// initSchedule 构造时的调度初始化：持锁读取持久化状态，补做停机
// 期间错过的轮转。锁被占用时推迟到后续写入路径自愈（nextAt 保持
// 乐观读取的值或零值，零值会促使下次写入走持锁校验）。
func (e *engine) initSchedule() {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.acquireTimeout)
	defer cancel()
	h, err := e.lock.Acquire(ctx)
	if err != nil {
		e.nextAt = e.validNext(e.lock.PeekState().NextRollover())
		e.diagf("schedule init deferred: lock unavailable", "err", err)
		return
	}
	defer func() { _ = h.Unlock() }()

	st := h.ReadState()
	now, err := e.clock.Read(e.fallbackInstant(st))
	if err != nil {
		// 没有任何可信时刻：不初始化调度，留给后续写入重试
		e.diagf("schedule init deferred: clock fault", "err", err)
		return
	}

	next := e.validNext(st.NextRollover())
	switch {
	case next.IsZero():
		// 无历史调度：从当前时刻起算
		e.persistScheduleLocked(h, now)
	case xsched.Due(now, next):
		// 停机期间错过了轮转：恰好补做一次，再从当前时刻起算
		if e.hasRotatableFile() {
			e.rotateStampedLocked(next)
		}
		e.persistScheduleLocked(h, now)
	default:
		e.nextAt = next
	}
}

// Write 实现 io.Writer 接口。
//
// 先做廉价到期预判，判定到期时执行轮转序列，然后把整条记录追加到
// （可能已更换的）活动文件。轮转被推迟（锁超时、时钟故障）不影响
// 本次写入；只有轮转后重新打开活动文件失败才向调用方返回错误。
func (e *engine) Write(p []byte) (n int, err error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	// Write 通过前置检查后 Close 可能已完成，后置检查保证 ErrClosed
	// 契约的可靠性，不触碰已释放的句柄
	if e.closed.Load() {
		return 0, ErrClosed
	}

	if e.file == nil {
		if err := e.openLocked(); err != nil {
			return 0, err
		}
	}
	if e.dueLocked(int64(len(p))) {
		if err := e.rotateLocked(int64(len(p)), false); err != nil {
			return 0, err
		}
	}

	n, err = e.file.Write(p)
	e.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("xrotor: write %s: %w", e.path, err)
	}
	return n, nil
}

// Rotate 手动触发轮转，不做到期判断（持锁下的对端检测仍然生效）。
func (e *engine) Rotate() error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return ErrClosed
	}

	if e.file == nil {
		if err := e.openLocked(); err != nil {
			return err
		}
	}
	return e.rotateLocked(0, true)
}

// Close 实现 io.Closer 接口。
//
// 幂等：首次调用关闭句柄并释放锁资源，重复调用返回 [ErrClosed]。
// 使用 CAS 标记关闭状态，保证关闭后不会有新的写入触碰底层资源。
func (e *engine) Close() error {
	if e.closed.Swap(true) {
		return ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.file != nil {
		err = e.file.Close()
		e.file = nil
	}
	_ = e.lock.Close()
	if err != nil {
		return fmt.Errorf("xrotor: close %s: %w", e.path, err)
	}
	return nil
}

// =============================================================================
// 到期判断（Checking：无锁、廉价）
// =============================================================================

// dueLocked 基于内存状态的到期预判，不触碰跨进程锁。
//
// 时间触发配置下 nextAt 为零值（调度初始化被推迟）时返回 true，
// 促使轮转序列走一次持锁校验完成自愈。
func (e *engine) dueLocked(pending int64) bool {
	if e.maxBytes > 0 {
		e.refreshSizeLocked()
		if e.size+pending > e.maxBytes {
			return true
		}
	}
	if e.sched != nil {
		if e.nextAt.IsZero() {
			return true
		}
		return xsched.Due(e.clock.Now(), e.nextAt)
	}
	return false
}

// refreshSizeLocked 以句柄上的实际大小刷新计数。
// 其他进程通过各自的 O_APPEND 句柄追加的字节对本实例的计数器
// 不可见，大小判定必须以文件本身为准。
func (e *engine) refreshSizeLocked() {
	if e.file == nil {
		return
	}
	if fi, err := e.file.Stat(); err == nil {
		e.size = fi.Size()
	}
}

// =============================================================================
// 轮转序列（Rotating：持锁）
// =============================================================================

// rotateLocked 执行完整的轮转序列。调用方必须持有 e.mu。
//
// 返回非 nil 仅当轮转后活动文件无法重新打开；其余故障一律降级为
// 诊断并保持可写（轮转推迟或部分完成）。
func (e *engine) rotateLocked(pending int64, force bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.acquireTimeout)
	defer cancel()
	h, err := e.lock.Acquire(ctx)
	if err != nil {
		// 轮转推迟：继续向当前文件追加，下次写入重试
		if errors.Is(err, xplock.ErrTimeout) {
			e.meters.lockTimeout()
		}
		e.diagf("rotation deferred: lock unavailable", "err", err)
		return nil
	}
	defer func() { _ = h.Unlock() }()

	// 对端轮转检测：等锁期间其他进程可能已完成轮转，
	// 此时我们的句柄指向已改名的备份，只需换到新的活动文件
	if e.peerRotatedLocked() {
		e.meters.conflict()
		e.diagf("rotation already performed by peer")
		if err := e.reopenLocked(); err != nil {
			return err
		}
		e.nextAt = e.validNext(h.ReadState().NextRollover())
		return nil
	}

	st := h.ReadState()
	// 纯大小策略不产生时间戳，时钟状态与它无关
	var now time.Time
	if e.sched != nil {
		now, err = e.clock.Read(e.fallbackInstant(st))
		if err != nil {
			// 不可信时钟绝不进入文件名或调度：推迟轮转
			e.diagf("rotation deferred: clock fault", "err", err)
			return nil
		}
	}

	// 持锁二次评估：以持久化状态为准
	if !force && !e.stillDueLocked(pending, now, st) {
		if e.sched != nil {
			e.refreshScheduleLocked(h, st, now)
		}
		return nil
	}

	if e.file != nil {
		if err := e.file.Close(); err != nil {
			e.diagf("close before rotate", "err", err)
		}
		e.file = nil
	}

	if e.sched != nil {
		e.rotateStampedLocked(now)
	} else {
		e.rotateSequentialLocked()
	}

	if e.sched != nil {
		e.persistScheduleLocked(h, now)
	}

	// 重新打开失败必须上浮：否则记录会被静默丢弃
	if err := e.reopenLocked(); err != nil {
		return err
	}
	e.meters.rotation()
	return nil
}

// stillDueLocked 持锁下的二次到期评估。
// 等锁期间对端可能又追加了字节（或已完成轮转并被 peer 检测换文件），
// 大小同样以文件实际大小重新评估。
func (e *engine) stillDueLocked(pending int64, now time.Time, st xplock.State) bool {
	if e.maxBytes > 0 {
		e.refreshSizeLocked()
		if e.size+pending > e.maxBytes {
			return true
		}
	}
	if e.sched != nil {
		next := e.validNext(st.NextRollover())
		if next.IsZero() {
			// 无历史调度：本次只初始化，不轮转
			return false
		}
		return xsched.Due(now, next)
	}
	return false
}

// peerRotatedLocked report 活动路径与持有句柄是否已指向不同文件。
func (e *engine) peerRotatedLocked() bool {
	if e.file == nil {
		return false
	}
	held, err := e.file.Stat()
	if err != nil {
		return false
	}
	cur, err := os.Stat(e.path)
	if err != nil {
		// 活动文件已被改名且对端尚未重建
		return os.IsNotExist(err)
	}
	return !os.SameFile(held, cur)
}

// rotateStampedLocked 时间策略轮转：活动文件改名为时间戳备份。
// stamp 已经过时钟合理性校验（或来自持久化的错过边界）。
func (e *engine) rotateStampedLocked(stamp time.Time) {
	backup := e.namer.StampedUnique(stamp)
	if err := os.Rename(e.path, backup); err != nil {
		if !os.IsNotExist(err) {
			e.diagf("rename to backup failed, rotation skipped", "backup", backup, "err", err)
		}
		return
	}
	if e.hook != nil {
		if _, err := e.hook(backup); err != nil {
			e.reportError(fmt.Errorf("xrotor: compress %s: %w", backup, err))
		}
	}
	e.pruneStampedLocked()
}

// rotateSequentialLocked 大小策略轮转：序号备份整体顺移，
// 活动文件改名为 .1。压缩备份（.gz/.zst）一并顺移。
func (e *engine) rotateSequentialLocked() {
	exts := []string{"", xbackup.GzipExt, xbackup.ZstdExt}
	for i := e.backupCount - 1; i >= 1; i-- {
		for _, ext := range exts {
			src := e.namer.Sequential(i) + ext
			if _, err := os.Lstat(src); err != nil {
				continue
			}
			dst := e.namer.Sequential(i+1) + ext
			_ = os.Remove(dst)
			if err := os.Rename(src, dst); err != nil {
				e.diagf("shift backup failed", "src", src, "err", err)
			}
		}
	}
	first := e.namer.Sequential(1)
	if err := os.Rename(e.path, first); err != nil {
		if !os.IsNotExist(err) {
			e.diagf("rename to backup failed, rotation skipped", "backup", first, "err", err)
		}
		return
	}
	if e.hook != nil {
		if _, err := e.hook(first); err != nil {
			e.reportError(fmt.Errorf("xrotor: compress %s: %w", first, err))
		}
	}
	// 历史遗留的超额序号（如调小 BackupCount 之后）
	cands, err := e.namer.ListSequential(e.diag)
	if err != nil {
		e.diagf("prune skipped", "err", err)
		return
	}
	e.removeBackups(xbackup.SelectForDeletion(cands, e.backupCount))
}

// pruneStampedLocked 裁剪超出保留数量的时间戳备份。
func (e *engine) pruneStampedLocked() {
	cands, err := e.namer.ListStamped(e.diag)
	if err != nil {
		e.diagf("prune skipped", "err", err)
		return
	}
	e.removeBackups(xbackup.SelectForDeletion(cands, e.backupCount))
}

// removeBackups 删除选中的备份。单个删除失败只记诊断并跳过。
func (e *engine) removeBackups(victims []xbackup.Candidate) {
	for _, c := range victims {
		if err := os.Remove(c.Path); err != nil {
			e.diagf("delete backup failed", "path", c.Path, "err", err)
			continue
		}
		e.meters.pruned()
	}
}

// =============================================================================
// 调度状态
// =============================================================================

// persistScheduleLocked 从 now 计算下一个边界并持久化。
// 持久化失败只记诊断：内存缓存仍然推进，对端会在持锁校验时兜底。
func (e *engine) persistScheduleLocked(h *xplock.Handle, now time.Time) {
	e.nextAt = e.sched.Next(now)
	st := xplock.State{NextRolloverAt: e.nextAt.Unix(), UpdatedAt: now.Unix()}
	if err := h.WriteState(st); err != nil {
		e.diagf("persist schedule failed", "err", err)
	}
}

// refreshScheduleLocked 持锁但未轮转时同步调度缓存。
// 持久化状态缺失（首个进程尚未初始化或状态损坏）时从 now 起算并补写。
func (e *engine) refreshScheduleLocked(h *xplock.Handle, st xplock.State, now time.Time) {
	next := e.validNext(st.NextRollover())
	if next.IsZero() {
		e.persistScheduleLocked(h, now)
		return
	}
	e.nextAt = next
}

// validNext 过滤掉低于时钟下限的持久化时刻（状态损坏防护）。
func (e *engine) validNext(next time.Time) time.Time {
	if next.IsZero() || next.Before(e.clock.Floor()) {
		return time.Time{}
	}
	return next
}

// fallbackInstant 时钟故障时的最近已知可信时刻：优先持久化的
// 轮转时刻，其次状态写入时刻，最后活动文件自身的修改时间。
// 候选低于下限时不采用。
func (e *engine) fallbackInstant(st xplock.State) time.Time {
	floor := e.clock.Floor()
	if t := st.NextRollover(); !t.IsZero() && !t.Before(floor) {
		return t
	}
	if t := st.Updated(); !t.IsZero() && !t.Before(floor) {
		return t
	}
	if fi, err := os.Stat(e.path); err == nil {
		if mt := fi.ModTime(); !mt.Before(floor) {
			return mt
		}
	}
	return time.Time{}
}

// =============================================================================
// 文件句柄
// =============================================================================

// openLocked 打开（或创建）活动文件。调用方必须持有 e.mu。
func (e *engine) openLocked() error {
	mode := e.fileMode
	if mode == 0 {
		mode = defaultFileMode
	}
	//#nosec G302 G304 -- 路径与权限由调用方配置决定，已经过 SanitizePath
	f, err := os.OpenFile(e.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, mode)
	if err != nil {
		return fmt.Errorf("xrotor: open active file %s: %w", e.path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("xrotor: stat active file %s: %w", e.path, err)
	}
	e.file = f
	e.size = fi.Size()

	// 权限校正是尽力而为：已存在的文件不受 OpenFile 的 mode 影响，
	// umask 也可能削减新建文件的权限
	if e.fileMode != 0 && fi.Mode().Perm() != e.fileMode {
		//#nosec G302 -- 权限由调用方配置决定
		if err := os.Chmod(e.path, e.fileMode); err != nil {
			e.reportError(fmt.Errorf("xrotor: chmod %s: %w", e.path, err))
		}
	}
	return nil
}

// reopenLocked 轮转后重新打开活动文件。
func (e *engine) reopenLocked() error {
	if e.file != nil {
		_ = e.file.Close()
		e.file = nil
	}
	return e.openLocked()
}

// hasRotatableFile 报告活动文件是否存在且非空（有东西可轮转）。
func (e *engine) hasRotatableFile() bool {
	fi, err := os.Stat(e.path)
	return err == nil && fi.Size() > 0
}

// =============================================================================
// 回调
// =============================================================================

// diagf 通过诊断回调上报非致命事件。回调 panic 被隔离。
func (e *engine) diagf(msg string, kv ...any) {
	if e.diag != nil {
		defer func() { _ = recover() }()
		e.diag(msg, kv...)
	}
}

// reportError 通过错误回调上报后台失败。回调 panic 被隔离，
// 防止错误通知反向中断写入主流程。
func (e *engine) reportError(err error) {
	if err != nil && e.onError != nil {
		defer func() { _ = recover() }()
		e.onError(err)
	}
}
