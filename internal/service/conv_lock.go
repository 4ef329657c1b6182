package service

import "sync"

// convLocks 按会话 ID 分配的互斥锁，无人持有时回收
type convLocks struct {
	mu    sync.Mutex
	locks map[uint64]*convLock
}

type convLock struct {
	sync.Mutex
	refs int
}

func newConvLocks() *convLocks {
	return &convLocks{locks: make(map[uint64]*convLock)}
}

// Lock 返回对应的解锁函数
func (c *convLocks) Lock(convID uint64) func() {
	c.mu.Lock()
	l, ok := c.locks[convID]
	if !ok {
		l = &convLock{}
		c.locks[convID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, convID)
		}
		c.mu.Unlock()
	}
}

func (c *convLocks) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
