package xplock

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"

	"github.com/omeyang/rotatex/pkg/xfile"
)

// DefaultRetryInterval OS 锁轮询间隔的默认值。
// flock 不支持带超时的阻塞等待，获取通过"尝试+短暂休眠"实现。
const DefaultRetryInterval = 25 * time.Millisecond

// Lock 绑定到一个日志文件的跨进程互斥锁。
//
// 并发安全：Acquire/TryAcquire/PeekState 可被任意 goroutine 调用。
// 锁不可重入，已持有的 goroutine 再次 Acquire 会与其他等待者一样排队
// （即自我死锁），调用方必须保证单一获取点。
type Lock struct {
	path   string
	sem    *pathSem
	fl     *flock.Flock
	retry  time.Duration
	closed atomic.Bool
}

// Option Lock 配置选项函数
type Option func(*lockConfig)

type lockConfig struct {
	dir   string
	retry time.Duration
}

// WithDir 将锁文件放到独立目录（默认与日志文件同目录）。
// 适用于日志目录位于不支持 flock 的文件系统（如部分 NFS 挂载）的场景。
func WithDir(dir string) Option {
	return func(c *lockConfig) {
		c.dir = dir
	}
}

// WithRetryInterval 设置 OS 锁的轮询间隔。
func WithRetryInterval(d time.Duration) Option {
	return func(c *lockConfig) {
		c.retry = d
	}
}

// New 为 logPath 对应的日志文件创建跨进程锁。
//
// 锁文件名从日志文件名派生：同目录时为 ".__<名字>.lk"；指定独立
// 目录时追加日志绝对路径的 xxhash 片段，避免不同目录下的同名日志
// 在共享锁目录中碰撞。锁文件的父目录不存在时自动创建。
func New(logPath string, opts ...Option) (*Lock, error) {
	if logPath == "" {
		return nil, ErrEmptyPath
	}
	abs, err := filepath.Abs(logPath)
	if err != nil {
		return nil, fmt.Errorf("xplock: resolve %s: %w", logPath, err)
	}

	cfg := lockConfig{retry: DefaultRetryInterval}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.retry <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRetryInterval, cfg.retry)
	}

	base := filepath.Base(abs)
	var lockPath string
	if cfg.dir == "" {
		lockPath = filepath.Join(filepath.Dir(abs), ".__"+base+".lk")
	} else {
		sum := xxhash.Sum64String(abs)
		lockPath = filepath.Join(cfg.dir, fmt.Sprintf(".__%s.%08x.lk", base, uint32(sum)))
	}
	if err := xfile.EnsureDir(lockPath); err != nil {
		return nil, fmt.Errorf("xplock: ensure lock dir: %w", err)
	}

	return &Lock{
		path:  lockPath,
		sem:   acquireSem(lockPath),
		fl:    flock.New(lockPath),
		retry: cfg.retry,
	}, nil
}

// Path 返回锁文件路径。
func (l *Lock) Path() string { return l.path }

// Acquire 阻塞式获取锁，直到成功或 ctx 到期/取消。
//
// 获取分两级：先在进程内信号量上排队（同进程汇聚），再轮询 OS 锁
// （跨进程互斥）。任一级未在 ctx 内完成都返回 [ErrTimeout]。
func (l *Lock) Acquire(ctx context.Context) (*Handle, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}

	select {
	case l.sem.ch <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}

	ok, err := l.fl.TryLockContext(ctx, l.retry)
	if err != nil || !ok {
		<-l.sem.ch
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return &Handle{lock: l}, nil
}

// TryAcquire 非阻塞获取锁。锁被占用时返回 [ErrOccupied]。
func (l *Lock) TryAcquire() (*Handle, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}

	select {
	case l.sem.ch <- struct{}{}:
	default:
		return nil, ErrOccupied
	}

	ok, err := l.fl.TryLock()
	if err != nil {
		<-l.sem.ch
		return nil, fmt.Errorf("xplock: try lock: %w", err)
	}
	if !ok {
		<-l.sem.ch
		return nil, ErrOccupied
	}
	return &Handle{lock: l}, nil
}

// Close 关闭锁实例，释放进程内注册表引用。
//
// 调用前必须已释放持有的 Handle。重复调用返回 [ErrClosed]。
func (l *Lock) Close() error {
	if l.closed.Swap(true) {
		return ErrClosed
	}
	releaseSem(l.path)
	return nil
}

// Handle 一次成功的锁获取。
type Handle struct {
	lock     *Lock
	released atomic.Bool
}

// Unlock 释放锁。幂等：第一次调用返回 nil（或底层释放错误），
// 后续调用返回 [ErrNotHeld]。
func (h *Handle) Unlock() error {
	if h.released.Swap(true) {
		return ErrNotHeld
	}
	err := h.lock.fl.Unlock()
	<-h.lock.sem.ch
	if err != nil {
		return fmt.Errorf("xplock: unlock: %w", err)
	}
	return nil
}

// Path 返回锁文件路径。释放后仍可调用。
func (h *Handle) Path() string { return h.lock.path }
