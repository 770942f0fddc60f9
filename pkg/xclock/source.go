package xclock

import (
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// 重试参数默认值与上限
const (
	// DefaultAttempts 默认总尝试次数（包含首次读取）
	DefaultAttempts = 3

	// DefaultRetryDelay 默认的重试间隔
	DefaultRetryDelay = time.Millisecond

	// maxAttempts 尝试次数上限。时钟读取是轮转关键路径上的同步操作，
	// 过多重试会阻塞日志写入。
	maxAttempts = 10
)

// Source 带合理性校验的时钟源。
//
// 并发安全：配置在构造后不再变更，Read 可被任意多个 goroutine 同时调用。
type Source struct {
	clock    Clock
	floor    time.Time
	attempts int
	delay    time.Duration
	onFault  func(error)
}

// Option Source 配置选项函数
type Option func(*Source)

// WithClock 注入底层时钟实现（默认 [System]）。
func WithClock(c Clock) Option {
	return func(s *Source) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithFloor 设置最早可信时刻（默认 [DefaultMinValidInstant]）。
func WithFloor(t time.Time) Option {
	return func(s *Source) {
		s.floor = t
	}
}

// WithAttempts 设置总尝试次数（包含首次读取）。
//
// 具体取值是可调参数而非契约：默认 3 次在"掩盖瞬时故障"与
// "阻塞写入路径"之间取平衡。
func WithAttempts(n int) Option {
	return func(s *Source) {
		s.attempts = n
	}
}

// WithRetryDelay 设置两次读取之间的间隔。
func WithRetryDelay(d time.Duration) Option {
	return func(s *Source) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithOnFault 设置时钟异常回调。
//
// 每当一次读数低于下限时调用（包括最终回退成功的场景），用于诊断。
// 回调不得阻塞，也不得写入依赖本时钟源的日志轮转器。
func WithOnFault(fn func(error)) Option {
	return func(s *Source) {
		s.onFault = fn
	}
}

// NewSource 创建时钟源。
func NewSource(opts ...Option) (*Source, error) {
	s := &Source{
		clock:    System(),
		floor:    DefaultMinValidInstant,
		attempts: DefaultAttempts,
		delay:    DefaultRetryDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.attempts < 1 || s.attempts > maxAttempts {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidAttempts, s.attempts, maxAttempts)
	}
	if s.floor.IsZero() {
		return nil, ErrInvalidFloor
	}
	return s, nil
}

// Floor 返回最早可信时刻。
func (s *Source) Floor() time.Time { return s.floor }

// Now 返回未经校验的原始时钟读数。
//
// 仅用于廉价的到期判断：读数偏低最多导致本次轮转被推迟，
// 不会产生错误的文件名或调度状态。
func (s *Source) Now() time.Time {
	return s.clock.Now()
}

// Read 返回一个可信的当前时刻。
//
// 读数低于下限时进行有界重试；重试耗尽后回退到 fallback
// （调用方持有的最近已知可信时刻，如持久化的轮转调度时间或
// 文件自身记录的时间戳）。fallback 同样低于下限（或为零值）时
// 返回 [ErrClockFault]。
//
// 返回的时刻保证不低于下限，可以安全地流向备份文件命名和调度计算。
func (s *Source) Read(fallback time.Time) (time.Time, error) {
	now, err := retry.NewWithData[time.Time](
		retry.Attempts(uint(s.attempts)),
		retry.Delay(s.delay),
		retry.DelayType(func(_ uint, _ error, _ retry.DelayContext) time.Duration {
			return s.delay
		}),
		retry.LastErrorOnly(true),
	).Do(func() (time.Time, error) {
		t := s.clock.Now()
		if t.Before(s.floor) {
			err := fmt.Errorf("%w: reading %s is before floor %s",
				ErrClockFault, t.UTC().Format(time.RFC3339), s.floor.UTC().Format(time.RFC3339))
			s.reportFault(err)
			return time.Time{}, err
		}
		return t, nil
	})
	if err == nil {
		return now, nil
	}

	if !fallback.IsZero() && !fallback.Before(s.floor) {
		return fallback, nil
	}
	return time.Time{}, fmt.Errorf("%w: retries exhausted and no valid fallback", ErrClockFault)
}

func (s *Source) reportFault(err error) {
	if s.onFault != nil {
		defer func() { _ = recover() }()
		s.onFault(err)
	}
}
