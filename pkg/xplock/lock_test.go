package xplock

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 构造与锁路径派生
// =============================================================================

func TestNewValidation(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New(filepath.Join(t.TempDir(), "app.log"), WithRetryInterval(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidRetryInterval)
}

func TestLockPathSameDir(t *testing.T) {
	tmpDir := t.TempDir()
	l, err := New(filepath.Join(tmpDir, "app.log"))
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, filepath.Join(tmpDir, ".__app.log.lk"), l.Path())
}

func TestLockPathCustomDirDisambiguates(t *testing.T) {
	tmpDir := t.TempDir()
	lockDir := filepath.Join(tmpDir, "locks")

	// 不同目录下的同名日志在共享锁目录中不能碰撞
	l1, err := New(filepath.Join(tmpDir, "a", "app.log"), WithDir(lockDir))
	require.NoError(t, err)
	defer l1.Close()
	l2, err := New(filepath.Join(tmpDir, "b", "app.log"), WithDir(lockDir))
	require.NoError(t, err)
	defer l2.Close()

	assert.NotEqual(t, l1.Path(), l2.Path())
	assert.True(t, strings.HasPrefix(filepath.Base(l1.Path()), ".__app.log."))
	assert.Equal(t, lockDir, filepath.Dir(l1.Path()))

	// 锁目录自动创建
	_, err = os.Stat(lockDir)
	assert.NoError(t, err)
}

// =============================================================================
// 获取与释放
// =============================================================================

func TestAcquireUnlock(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	defer l.Close()

	h, err := l.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.Unlock())

	// Unlock 幂等：第二次返回 ErrNotHeld
	assert.ErrorIs(t, h.Unlock(), ErrNotHeld)
}

func TestTryAcquireOccupied(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	defer l.Close()

	h, err := l.TryAcquire()
	require.NoError(t, err)

	_, err = l.TryAcquire()
	assert.ErrorIs(t, err, ErrOccupied)

	require.NoError(t, h.Unlock())

	h2, err := l.TryAcquire()
	require.NoError(t, err)
	require.NoError(t, h2.Unlock())
}

func TestAcquireTimeout(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	defer l.Close()

	h, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer h.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSamePathInstancesShareSemaphore(t *testing.T) {
	// 同一路径的两个 Lock 实例在进程内互斥
	path := filepath.Join(t.TempDir(), "app.log")
	l1, err := New(path)
	require.NoError(t, err)
	defer l1.Close()
	l2, err := New(path)
	require.NoError(t, err)
	defer l2.Close()

	h, err := l1.TryAcquire()
	require.NoError(t, err)

	_, err = l2.TryAcquire()
	assert.ErrorIs(t, err, ErrOccupied)

	require.NoError(t, h.Unlock())
}

func TestMutualExclusionUnderConcurrency(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	defer l.Close()

	const goroutines = 16
	var holders, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := l.Acquire(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			holders++
			if holders > max {
				max = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			_ = h.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max, "at most one holder at any instant")
}

func TestClosedLock(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)

	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Close(), ErrClosed)

	_, err = l.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = l.TryAcquire()
	assert.ErrorIs(t, err, ErrClosed)
}

// =============================================================================
// 状态持久化
// =============================================================================

func TestStateRoundTrip(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	defer l.Close()

	h, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer h.Unlock()

	// 无历史状态
	assert.Equal(t, State{}, h.ReadState())
	assert.True(t, h.ReadState().NextRollover().IsZero())

	want := State{NextRolloverAt: 1_750_000_000, UpdatedAt: 1_749_990_000}
	require.NoError(t, h.WriteState(want))

	assert.Equal(t, want, h.ReadState())
	assert.Equal(t, time.Unix(1_750_000_000, 0), h.ReadState().NextRollover())

	// 锁外乐观读取
	assert.Equal(t, want, l.PeekState())
}

func TestStateCorruptIsZero(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, os.WriteFile(l.Path(), []byte("{not json"), 0o600))
	assert.Equal(t, State{}, l.PeekState())

	h, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer h.Unlock()
	assert.Equal(t, State{}, h.ReadState())
}

func TestWriteStateAfterUnlock(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	defer l.Close()

	h, err := l.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.Unlock())

	assert.ErrorIs(t, h.WriteState(State{NextRolloverAt: 1}), ErrNotHeld)
}
