package xplock

import "sync"

// pathSem 一个锁路径对应的进程内信号量。
// 容量为 1 的 channel 支持带 ctx 的阻塞获取。
type pathSem struct {
	ch   chan struct{}
	refs int
}

// 进程级注册表：同一锁路径的所有 Lock 实例共享一个信号量，
// 保证进程内只有一个 goroutine 会触碰对应的 OS 锁。
var (
	regMu    sync.Mutex
	registry = make(map[string]*pathSem)
)

func acquireSem(key string) *pathSem {
	regMu.Lock()
	defer regMu.Unlock()
	s, ok := registry[key]
	if !ok {
		s = &pathSem{ch: make(chan struct{}, 1)}
		registry[key] = s
	}
	s.refs++
	return s
}

func releaseSem(key string) {
	regMu.Lock()
	defer regMu.Unlock()
	s, ok := registry[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs <= 0 {
		delete(registry, key)
	}
}
