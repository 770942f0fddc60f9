package xplock

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// stateFileMode 锁文件权限。协作进程以同一服务用户运行。
const stateFileMode = 0o600

// State 随锁持久化的轮转调度状态。
//
// 时刻以 Unix 秒表示，0 表示未知。缺失或损坏的状态文件解码为零值
// State（"无历史调度"），不是错误。
type State struct {
	// NextRolloverAt 下次计划轮转时刻（Unix 秒）
	NextRolloverAt int64 `json:"next_rollover_at"`

	// UpdatedAt 状态最后写入时刻（Unix 秒），作为时钟故障时的
	// 最近已知可信时刻候选
	UpdatedAt int64 `json:"updated_at"`
}

// NextRollover 返回下次轮转时刻，未知时为零值。
func (s State) NextRollover() time.Time {
	if s.NextRolloverAt <= 0 {
		return time.Time{}
	}
	return time.Unix(s.NextRolloverAt, 0)
}

// Updated 返回状态写入时刻，未知时为零值。
func (s State) Updated() time.Time {
	if s.UpdatedAt <= 0 {
		return time.Time{}
	}
	return time.Unix(s.UpdatedAt, 0)
}

// decodeState 容错解码：任何读取或解析失败都按零值状态处理。
// 状态兼容性策略——未知字段忽略，缺失字段取零值，损坏即"无历史调度"。
func decodeState(path string) State {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}
	}
	return s
}

// ReadState 在持锁状态下读取持久化的调度状态。
func (h *Handle) ReadState() State {
	return decodeState(h.lock.path)
}

// WriteState 在持锁状态下持久化调度状态（覆盖写入锁文件）。
// 已释放的 Handle 调用返回 [ErrNotHeld]。
func (h *Handle) WriteState(s State) error {
	if h.released.Load() {
		return ErrNotHeld
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("xplock: encode state: %w", err)
	}
	if err := os.WriteFile(h.lock.path, append(data, '\n'), stateFileMode); err != nil {
		return fmt.Errorf("xplock: write state: %w", err)
	}
	return nil
}

// PeekState 在不持锁的情况下乐观读取调度状态。
//
// 仅用于写入路径上的廉价到期预判：读到的值可能随时被持锁进程
// 覆盖，由持锁后的二次校验兜底。与并发覆盖写交错时可能读到
// 零值状态，效果只是多做一次持锁校验。
func (l *Lock) PeekState() State {
	return decodeState(l.path)
}
